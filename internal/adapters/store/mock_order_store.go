package store

import (
	"context"
	"fmt"
	"sync"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/ports"
)

// In-memory OrderStore for tests. FailWrites and FailReads simulate
// connectivity loss per operation class.
type MockOrderStore struct {
	mu         sync.Mutex
	Orders     map[string]domain.Order
	FailReads  bool
	FailWrites bool

	Completed   []ports.CompletionRecord
	VisitWrites []ports.VisitOrderUpdate
}

func NewMockOrderStore(orders ...domain.Order) *MockOrderStore {
	m := &MockOrderStore{Orders: make(map[string]domain.Order, len(orders))}
	for _, ord := range orders {
		m.Orders[ord.ID] = ord
	}
	return m
}

func (m *MockOrderStore) ListOrdersByDate(ctx context.Context, date string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailReads {
		return nil, fmt.Errorf("mock store: %w", domain.ErrTransientNetwork)
	}

	out := make([]domain.Order, 0, len(m.Orders))
	for _, ord := range m.Orders {
		if ord.RouteDate == date {
			out = append(out, ord)
		}
	}
	return out, nil
}

func (m *MockOrderStore) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailReads {
		return domain.Order{}, fmt.Errorf("mock store: %w", domain.ErrTransientNetwork)
	}

	ord, ok := m.Orders[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("mock store: order %q: %w", orderID, domain.ErrNotFound)
	}
	return ord, nil
}

func (m *MockOrderStore) UpdateVisitOrders(ctx context.Context, updates []ports.VisitOrderUpdate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return 0, fmt.Errorf("mock store: %w", domain.ErrTransientNetwork)
	}

	count := 0
	for _, u := range updates {
		ord, ok := m.Orders[u.OrderID]
		if !ok {
			continue
		}
		v := u.VisitOrder
		ord.VisitOrder = &v
		ord.Status = domain.StatusEnRoute
		m.Orders[u.OrderID] = ord
		count++
	}
	m.VisitWrites = append(m.VisitWrites, updates...)
	return count, nil
}

func (m *MockOrderStore) CompleteDelivery(ctx context.Context, rec ports.CompletionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return fmt.Errorf("mock store: %w", domain.ErrTransientNetwork)
	}

	ord, ok := m.Orders[rec.OrderID]
	if !ok {
		return fmt.Errorf("mock store: order %q: %w", rec.OrderID, domain.ErrNotFound)
	}

	kg := rec.ActualKg
	total := rec.Total
	ord.Status = domain.StatusDelivered
	ord.ActualKg = &kg
	ord.Total = &total
	m.Orders[rec.OrderID] = ord
	m.Completed = append(m.Completed, rec)
	return nil
}

func (m *MockOrderStore) WeeklySummary(ctx context.Context) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailReads {
		return nil, fmt.Errorf("mock store: %w", domain.ErrTransientNetwork)
	}

	summary := make(map[string]float64)
	for _, ord := range m.Orders {
		if ord.Status == domain.StatusCancelled {
			continue
		}
		summary[ord.Product] += ord.RequestedKg
	}
	return summary, nil
}
