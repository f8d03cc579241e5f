package services

import (
	"context"
	"errors"
	"testing"

	"last-mile-service/internal/adapters/store"
	"last-mile-service/internal/domain"
)

func testRoute(date string, orders []domain.Order) *domain.OptimizedRoute {
	depot := domain.RouteNode{
		ID: "DEPOT", Name: "Almacén", IsDepot: true,
		Coordinates: domain.Coordinates{Lat: 19.4326, Lng: -99.1332},
	}
	nodes := []domain.RouteNode{depot}
	for i, ord := range orders {
		nodes = append(nodes, domain.RouteNode{
			ID:          ord.ID,
			Name:        ord.ClientName,
			Coordinates: *ord.Coordinates,
			VisitOrder:  i + 1,
		})
	}
	nodes = append(nodes, depot)
	return &domain.OptimizedRoute{Date: date, Nodes: nodes}
}

func testSessionOrders() []domain.Order {
	price := 98.0
	return []domain.Order{
		{
			ID: "ORD-1", RouteDate: "2026-09-01", ClientID: "CL-1",
			ClientName: "Cremería La Esperanza", Phone: "7711234567",
			Product: "Queso Oaxaca", RequestedKg: 10, UnitPrice: &price,
			Status:      domain.StatusConfirmed,
			Coordinates: &domain.Coordinates{Lat: 20.3841, Lng: -99.6614},
		},
		{
			ID: "ORD-2", RouteDate: "2026-09-01", ClientID: "CL-2",
			ClientName: "Abarrotes Don Chema", Phone: "7712345678",
			Product: "Queso Panela", RequestedKg: 8,
			Status:      domain.StatusConfirmed,
			Coordinates: &domain.Coordinates{Lat: 20.3868, Lng: -99.6589},
		},
	}
}

func testController(mock *store.MockOrderStore) (*SessionController, *memOutbox, *memCache) {
	cache := newMemCache()
	outbox := newMemOutbox()
	c := &SessionController{
		Refresh:          &Refresher{Cache: cache},
		Outbox:           outbox,
		DefaultUnitPrice: 95.0,
	}
	if mock != nil {
		c.Store = mock
	}

	orders := testSessionOrders()
	if err := c.StartNavigation(testRoute("2026-09-01", orders), orders); err != nil {
		panic(err)
	}
	return c, outbox, cache
}

func TestSessionRejectsNonPositiveKg(t *testing.T) {
	c, outbox, _ := testController(store.NewMockOrderStore(testSessionOrders()...))

	for _, kg := range []float64{0, -1.5} {
		_, err := c.CompleteDelivery(context.Background(), "ORD-1", kg)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("kg=%v error = %v, want ErrValidation", kg, err)
		}
	}

	// Rejection must leave session and outbox untouched.
	if c.State() != domain.SessionNavigating {
		t.Fatalf("state = %v, want Navigating", c.State())
	}
	if outbox.size() != 0 {
		t.Fatalf("outbox size = %d, want 0", outbox.size())
	}
}

func TestSessionRejectsOutOfOrderCompletion(t *testing.T) {
	c, _, _ := testController(store.NewMockOrderStore(testSessionOrders()...))

	_, err := c.CompleteDelivery(context.Background(), "ORD-2", 5)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for wrong target", err)
	}
}

func TestSessionCompleteFlow(t *testing.T) {
	mock := store.NewMockOrderStore(testSessionOrders()...)
	c, outbox, _ := testController(mock)

	next, err := c.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Node.ID != "ORD-1" || next.Remaining != 1 {
		t.Fatalf("next = %+v, want ORD-1 with 1 remaining", next)
	}
	if next.NavURL == "" {
		t.Fatal("expected navigation URL")
	}

	res, err := c.CompleteDelivery(context.Background(), "ORD-1", 9.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.Total != 9.5*98.0 {
		t.Fatalf("total = %v, want %v", res.Receipt.Total, 9.5*98.0)
	}
	if res.Receipt.PriceEstimated {
		t.Fatal("negotiated price must not be flagged as estimate")
	}
	if res.Queued {
		t.Fatal("live write must not be queued")
	}
	if res.SessionState != domain.SessionNavigating {
		t.Fatalf("state = %v, want Navigating", res.SessionState)
	}

	// Second order has no negotiated price: default applies, estimated.
	res, err = c.CompleteDelivery(context.Background(), "ORD-2", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.UnitPrice != 95.0 || !res.Receipt.PriceEstimated {
		t.Fatalf("receipt = %+v, want default price flagged as estimate", res.Receipt)
	}
	if res.SessionState != domain.SessionCompleted {
		t.Fatalf("state = %v, want Completed", res.SessionState)
	}

	if len(mock.Completed) != 2 {
		t.Fatalf("remote completions = %d, want 2", len(mock.Completed))
	}
	if outbox.size() != 0 {
		t.Fatalf("outbox size = %d, want 0", outbox.size())
	}

	// No further completions after the last stop.
	if _, err := c.CompleteDelivery(context.Background(), "ORD-2", 1); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("error = %v, want ErrSessionFinished", err)
	}
	if _, err := c.Next(); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("next error = %v, want ErrSessionFinished", err)
	}
}

func TestSessionQueuesWriteWhenStoreDown(t *testing.T) {
	mock := store.NewMockOrderStore(testSessionOrders()...)
	mock.FailWrites = true
	c, outbox, cache := testController(mock)

	res, err := c.CompleteDelivery(context.Background(), "ORD-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Queued {
		t.Fatal("failed remote write must be queued")
	}
	if outbox.size() != 1 {
		t.Fatalf("outbox size = %d, want 1", outbox.size())
	}

	// The local mirror reflects the completion regardless of the store.
	refresher := &Refresher{Cache: cache}
	snap, found, err := refresher.CachedOrders(context.Background(), "2026-09-01")
	if err != nil || !found {
		t.Fatalf("cached orders: found=%v err=%v", found, err)
	}
	var delivered bool
	for _, ord := range snap.Orders {
		if ord.ID == "ORD-1" && ord.Status == domain.StatusDelivered {
			delivered = true
		}
	}
	if !delivered {
		t.Fatal("local snapshot does not show ORD-1 delivered")
	}

	// The cursor advanced despite the queued write.
	next, err := c.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Node.ID != "ORD-2" {
		t.Fatalf("next = %q, want ORD-2", next.Node.ID)
	}
}

func TestSessionListPriceFallback(t *testing.T) {
	c, _, _ := testController(store.NewMockOrderStore(testSessionOrders()...))
	c.ListPrice = func(product string) (float64, bool) {
		if product == "Queso Panela" {
			return 88.0, true
		}
		return 0, false
	}

	if _, err := c.CompleteDelivery(context.Background(), "ORD-1", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := c.CompleteDelivery(context.Background(), "ORD-2", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Receipt.UnitPrice != 88.0 {
		t.Fatalf("unit price = %v, want catalog price 88.0", res.Receipt.UnitPrice)
	}
	if !res.Receipt.PriceEstimated {
		t.Fatal("catalog price is still an estimate, not a negotiated price")
	}
}

func TestSessionDemoRouteStaysLocal(t *testing.T) {
	// The store holds none of the synthetic orders; a demo completion
	// must not reach it nor leave anything behind for the flusher.
	mock := store.NewMockOrderStore()
	cache := newMemCache()
	outbox := newMemOutbox()
	c := &SessionController{
		Store:            mock,
		Refresh:          &Refresher{Cache: cache},
		Outbox:           outbox,
		DefaultUnitPrice: 95.0,
	}

	orders := testSessionOrders()
	route := testRoute("2026-09-01", orders)
	route.DemoMode = true
	if err := c.StartNavigation(route, orders); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := c.CompleteDelivery(context.Background(), "ORD-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Queued {
		t.Fatal("demo completion must not be queued")
	}
	if len(mock.Completed) != 0 {
		t.Fatalf("remote completions = %d, want 0", len(mock.Completed))
	}
	if outbox.size() != 0 {
		t.Fatalf("outbox size = %d, want 0", outbox.size())
	}

	// The local flow still runs: receipt produced, cursor advanced.
	if res.Receipt.Total != 5*98.0 {
		t.Fatalf("total = %v, want %v", res.Receipt.Total, 5*98.0)
	}
	next, err := c.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Node.ID != "ORD-2" {
		t.Fatalf("next = %q, want ORD-2", next.Node.ID)
	}
}

func TestSessionCancel(t *testing.T) {
	c, _, _ := testController(store.NewMockOrderStore(testSessionOrders()...))

	c.Cancel()
	if c.State() != domain.SessionIdle {
		t.Fatalf("state = %v, want Idle", c.State())
	}
	if _, err := c.Next(); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("next error = %v, want ErrSessionNotActive", err)
	}
}

func TestStartNavigationEmptyRoute(t *testing.T) {
	c := &SessionController{}
	depotOnly := &domain.OptimizedRoute{
		Date: "2026-09-01",
		Nodes: []domain.RouteNode{
			{ID: "DEPOT", IsDepot: true},
		},
	}
	if err := c.StartNavigation(depotOnly, nil); !errors.Is(err, domain.ErrEmptyRoute) {
		t.Fatalf("error = %v, want ErrEmptyRoute", err)
	}
}
