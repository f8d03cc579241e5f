package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/platform/obs"
	"last-mile-service/internal/ports"
)

// Result of a completed delivery stop.
type CompletionResult struct {
	Receipt     domain.Receipt
	ReceiptPath string
	ShareLink   string
	// True when the remote write was queued in the outbox instead of
	// acknowledged by the live store.
	Queued       bool
	SessionState domain.SessionState
}

// The next pending stop for turn-by-turn navigation.
type NextDelivery struct {
	Node      domain.RouteNode
	Order     *domain.Order
	Remaining int
	NavURL    string
}

// SessionController walks the operator through an optimized route.
//
// Single-operator, single-device: one active session, cursor mutated
// only under the controller lock. All order state transitions are
// local-first; remote writes that fail are queued durably and replayed
// by the outbox flusher.
type SessionController struct {
	Store    ports.OrderStore
	Refresh  *Refresher
	Outbox   ports.Outbox
	Renderer ports.ReceiptRenderer
	Sharer   ports.ReceiptSharer

	DefaultUnitPrice float64
	// Optional catalog list-price lookup, consulted before falling back
	// to DefaultUnitPrice when the order has no negotiated price.
	ListPrice func(product string) (float64, bool)
	// Timeout for the single remote write attempt before queueing.
	WriteTimeout time.Duration

	mu      sync.Mutex
	session *domain.DeliverySession
	orders  map[string]*domain.Order
	date    string
}

// StartNavigation opens a session over route, binding the order list
// the route was optimized from.
func (c *SessionController) StartNavigation(route *domain.OptimizedRoute, orders []domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := domain.StartSession(route)
	if err != nil {
		return fmt.Errorf("start navigation: %w", err)
	}

	index := make(map[string]*domain.Order, len(orders))
	for i := range orders {
		index[orders[i].ID] = &orders[i]
	}

	c.session = session
	c.orders = index
	c.date = route.Date
	return nil
}

// Cancel discards the active session, if any.
func (c *SessionController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.orders = nil
	c.date = ""
}

// Next returns the pending stop at the cursor.
func (c *SessionController) Next() (*NextDelivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, domain.ErrSessionNotActive
	}

	node, err := c.session.Current()
	if err != nil {
		return nil, err
	}

	next := &NextDelivery{
		Node:      node,
		Remaining: c.session.Remaining(),
		NavURL: fmt.Sprintf(
			"https://www.google.com/maps/dir/?api=1&destination=%f,%f",
			node.Coordinates.Lat, node.Coordinates.Lng,
		),
	}
	if ord, ok := c.orders[node.ID]; ok {
		next.Order = ord
	}
	return next, nil
}

// CompleteDelivery finalizes the stop at the cursor.
//
// Each effect past validation is independently fallible without
// aborting the whole operation: a failed render only disables the
// artifact, a failed share is logged, and a failed remote write is
// queued. The cursor advances only after the local state update.
func (c *SessionController) CompleteDelivery(ctx context.Context, orderID string, actualKg float64) (_ *CompletionResult, err error) {
	defer obs.Time(ctx, "session.CompleteDelivery")(&err)

	if actualKg <= 0 {
		return nil, fmt.Errorf(
			"complete delivery: actual kg must be positive, got %v: %w",
			actualKg, domain.ErrValidation,
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, domain.ErrSessionNotActive
	}
	if err := c.session.CheckTarget(orderID); err != nil {
		if errors.Is(err, domain.ErrSessionFinished) || errors.Is(err, domain.ErrSessionNotActive) {
			return nil, err
		}
		return nil, fmt.Errorf("complete delivery: %w: %v", domain.ErrValidation, err)
	}

	order, ok := c.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("complete delivery: order %q: %w", orderID, domain.ErrNotFound)
	}

	// Billed total. A missing negotiated price falls back to the
	// configured default, flagged as an estimate on the receipt.
	unitPrice := c.DefaultUnitPrice
	estimated := true
	if order.UnitPrice != nil {
		unitPrice = *order.UnitPrice
		estimated = false
	} else if c.ListPrice != nil {
		if p, ok := c.ListPrice(order.Product); ok {
			unitPrice = p
		}
	}
	total := actualKg * unitPrice
	folio := order.FolioNote + 1

	// Local-first state transition.
	now := time.Now()
	order.Status = domain.StatusDelivered
	order.ActualKg = &actualKg
	order.Total = &total
	order.DeliveredAt = &now
	order.FolioNote = folio

	if c.Refresh != nil {
		snap := OrdersSnapshot{Date: c.date, Orders: c.snapshotOrders(), FetchedAt: now}
		if err := c.Refresh.SaveOrders(ctx, snap); err != nil {
			logrus.WithError(err).Warn("local order mirror write failed")
		}
	}

	receipt := domain.Receipt{
		FolioNote:      folio,
		Date:           now,
		ClientName:     order.ClientName,
		Product:        order.Product,
		Kg:             actualKg,
		UnitPrice:      unitPrice,
		Total:          total,
		PriceEstimated: estimated,
	}

	result := &CompletionResult{Receipt: receipt}

	if c.Renderer != nil {
		path, renderErr := c.Renderer.Render(ctx, receipt)
		if renderErr != nil {
			logrus.WithError(renderErr).WithField("order_id", orderID).
				Warn("receipt render failed, continuing without artifact")
		} else {
			result.ReceiptPath = path
		}
	}

	if c.Sharer != nil {
		link, shareErr := c.Sharer.Share(ctx, order.Phone, receipt)
		if shareErr != nil {
			logrus.WithError(shareErr).WithField("order_id", orderID).Warn("receipt share failed")
		} else {
			result.ShareLink = link
		}
	}

	// Demo routes carry synthetic orders no store knows about; the
	// completion stays local and is never queued for replay.
	if !c.session.Route.DemoMode {
		rec := ports.CompletionRecord{
			OrderID:  orderID,
			ActualKg: actualKg,
			Total:    total,
			Folio:    folio,
		}
		result.Queued = c.writeRemote(ctx, rec)
	}

	// Cursor advances only after the local update succeeded.
	if err := c.session.Advance(); err != nil {
		return nil, fmt.Errorf("complete delivery: advance cursor: %w", err)
	}
	result.SessionState = c.session.State()

	return result, nil
}

// writeRemote attempts the single remote write; on failure the record
// is queued durably. Reports whether the record was queued.
func (c *SessionController) writeRemote(ctx context.Context, rec ports.CompletionRecord) bool {
	if c.Store != nil {
		writeCtx := ctx
		if c.WriteTimeout > 0 {
			var cancel context.CancelFunc
			writeCtx, cancel = context.WithTimeout(ctx, c.WriteTimeout)
			defer cancel()
		}

		if err := c.Store.CompleteDelivery(writeCtx, rec); err == nil {
			return false
		} else {
			logrus.WithError(err).WithField("order_id", rec.OrderID).
				Warn("remote completion failed, queueing")
		}
	}

	if c.Outbox == nil {
		logrus.WithField("order_id", rec.OrderID).Error("no outbox configured, completion write lost")
		return false
	}

	entry := ports.OutboxEntry{
		ID:        uuid.NewString(),
		Record:    rec,
		CreatedAt: time.Now(),
	}
	if err := c.Outbox.Enqueue(ctx, entry); err != nil {
		logrus.WithError(err).WithField("order_id", rec.OrderID).Error("outbox enqueue failed")
		return false
	}
	return true
}

func (c *SessionController) snapshotOrders() []domain.Order {
	out := make([]domain.Order, 0, len(c.orders))
	for _, ord := range c.orders {
		out = append(out, *ord)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// State reports the active session state, or Idle without one.
func (c *SessionController) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.SessionIdle
	}
	return c.session.State()
}
