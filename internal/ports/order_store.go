package ports

import (
	"context"

	"last-mile-service/internal/domain"
)

// Visit-order assignment for a single order, produced by the optimizer.
type VisitOrderUpdate struct {
	OrderID    string
	VisitOrder int
}

// Remote delivery confirmation payload.
type CompletionRecord struct {
	OrderID  string
	ActualKg float64
	Total    float64
	Folio    int
}

// Port: boundary to the live order store (remote API or self-hosted DB).
//
// Reads are single-attempt; callers fall back to the offline cache on
// failure. Writes are best-effort from the operator's point of view:
// failed completions are queued in the outbox and replayed later.
type OrderStore interface {
	// ListOrdersByDate returns all orders scheduled for the date,
	// regardless of status. An empty result is not an error.
	ListOrdersByDate(ctx context.Context, date string) ([]domain.Order, error)

	// GetOrder returns a single order by id.
	// Returns domain.ErrNotFound when the order does not exist.
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)

	// UpdateVisitOrders persists optimizer-assigned visit positions.
	// Returns the number of orders updated.
	UpdateVisitOrders(ctx context.Context, updates []VisitOrderUpdate) (int, error)

	// CompleteDelivery marks an order Delivered with the actual
	// quantity, billed total and receipt folio.
	CompleteDelivery(ctx context.Context, rec CompletionRecord) error

	// WeeklySummary aggregates requested kg per product over the
	// current week for purchasing decisions.
	WeeklySummary(ctx context.Context) (map[string]float64, error)
}
