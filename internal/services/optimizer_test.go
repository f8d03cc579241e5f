package services

import (
	"context"
	"strings"
	"testing"

	"last-mile-service/internal/adapters/distance"
	"last-mile-service/internal/adapters/store"
	"last-mile-service/internal/domain"
)

func testOptimizer(s *store.MockOrderStore) *Optimizer {
	waypoint := domain.Coordinates{Lat: 20.3743125, Lng: -99.6623125}
	opt := &Optimizer{
		Fallback:     distance.NewHaversineProvider(),
		Depot:        domain.Coordinates{Lat: 19.4326, Lng: -99.1332},
		DepotName:    "Almacén Principal",
		Waypoint:     &waypoint,
		WaypointName: "Huichapan (Waypoint Seguridad)",
	}
	if s != nil {
		opt.Store = s
	}
	return opt
}

func TestOptimizeRouteDemoMode(t *testing.T) {
	opt := testOptimizer(nil)

	result, err := opt.OptimizeRoute(context.Background(), OptimizeRequest{Date: "2026-09-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	route := result.Route
	if !route.DemoMode {
		t.Fatal("expected demo mode route")
	}
	if !route.EstimatedMatrix {
		t.Fatal("expected estimated matrix flag with haversine fallback")
	}

	nodes := route.Nodes
	if !nodes[0].IsDepot || !nodes[len(nodes)-1].IsDepot {
		t.Fatal("route must start and end at the depot")
	}
	if !nodes[1].IsSecurityWaypoint {
		t.Fatalf("second node = %+v, want security waypoint", nodes[1])
	}

	deliveries := route.DeliveryNodes()
	if len(deliveries) != 5 {
		t.Fatalf("deliveries = %d, want 5", len(deliveries))
	}
	for i, n := range deliveries {
		if n.VisitOrder != i+1 {
			t.Fatalf("delivery %d visit order = %d, want %d", i, n.VisitOrder, i+1)
		}
	}

	if !strings.Contains(result.Message, "5 entregas") {
		t.Fatalf("message = %q, want delivery count", result.Message)
	}
}

func TestOptimizeRouteNoOrders(t *testing.T) {
	opt := testOptimizer(store.NewMockOrderStore())

	result, err := opt.OptimizeRoute(context.Background(), OptimizeRequest{Date: "2026-09-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Route.DeliveryNodes()) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(result.Route.DeliveryNodes()))
	}
	if result.Message != "No hay pedidos confirmados para optimizar" {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestOptimizeRouteSkipsUnlocatedOrders(t *testing.T) {
	located := domain.Order{
		ID: "ORD-1", RouteDate: "2026-09-01", ClientName: "Con Coordenadas",
		Product: "Queso Oaxaca", RequestedKg: 5, Status: domain.StatusConfirmed,
		Coordinates: &domain.Coordinates{Lat: 20.39, Lng: -99.66},
	}
	unlocated := domain.Order{
		ID: "ORD-2", RouteDate: "2026-09-01", ClientName: "Sin Coordenadas",
		Product: "Queso Panela", RequestedKg: 3, Status: domain.StatusConfirmed,
	}
	cancelled := domain.Order{
		ID: "ORD-3", RouteDate: "2026-09-01", ClientName: "Cancelado",
		Product: "Crema", RequestedKg: 2, Status: domain.StatusCancelled,
		Coordinates: &domain.Coordinates{Lat: 20.40, Lng: -99.65},
	}

	opt := testOptimizer(store.NewMockOrderStore(located, unlocated, cancelled))

	result, err := opt.OptimizeRoute(context.Background(), OptimizeRequest{Date: "2026-09-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Skipped) != 1 || result.Skipped[0] != "ORD-2" {
		t.Fatalf("skipped = %v, want [ORD-2]", result.Skipped)
	}

	deliveries := result.Route.DeliveryNodes()
	if len(deliveries) != 1 || deliveries[0].ID != "ORD-1" {
		t.Fatalf("deliveries = %+v, want only ORD-1", deliveries)
	}
}

func TestOptimizeRouteZoneGrouping(t *testing.T) {
	// Two orders in the same zone must come out adjacent, expanded from
	// the zone proxy in stable id order.
	a := domain.Order{
		ID: "ORD-A", RouteDate: "2026-09-01", ClientName: "Zona Uno A", Zone: "Centro",
		Product: "Queso Oaxaca", RequestedKg: 5, Status: domain.StatusConfirmed,
		Coordinates: &domain.Coordinates{Lat: 20.3841, Lng: -99.6614},
	}
	b := domain.Order{
		ID: "ORD-B", RouteDate: "2026-09-01", ClientName: "Zona Uno B", Zone: "Centro",
		Product: "Queso Panela", RequestedKg: 3, Status: domain.StatusConfirmed,
		Coordinates: &domain.Coordinates{Lat: 20.3868, Lng: -99.6589},
	}
	c := domain.Order{
		ID: "ORD-C", RouteDate: "2026-09-01", ClientName: "Lejano", Zone: "",
		Product: "Crema", RequestedKg: 2, Status: domain.StatusConfirmed,
		Coordinates: &domain.Coordinates{Lat: 20.6789, Lng: -99.4321},
	}

	mock := store.NewMockOrderStore(a, b, c)
	opt := testOptimizer(mock)

	result, err := opt.OptimizeRoute(context.Background(), OptimizeRequest{Date: "2026-09-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deliveries := result.Route.DeliveryNodes()
	if len(deliveries) != 3 {
		t.Fatalf("deliveries = %d, want 3", len(deliveries))
	}

	posA, posB := -1, -1
	for i, n := range deliveries {
		switch n.ID {
		case "ORD-A":
			posA = i
		case "ORD-B":
			posB = i
		}
	}
	if posA == -1 || posB == -1 {
		t.Fatalf("zone members missing from deliveries %+v", deliveries)
	}
	if posB != posA+1 {
		t.Fatalf("zone members not adjacent: A at %d, B at %d", posA, posB)
	}

	// Visit positions were written back to the store.
	if len(mock.VisitWrites) != 3 {
		t.Fatalf("visit writes = %d, want 3", len(mock.VisitWrites))
	}
}

func TestOptimizeRouteWithoutWaypoint(t *testing.T) {
	opt := testOptimizer(nil)
	opt.Waypoint = nil
	opt.WaypointName = ""

	result, err := opt.OptimizeRoute(context.Background(), OptimizeRequest{Date: "2026-09-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, n := range result.Route.Nodes {
		if n.IsSecurityWaypoint {
			t.Fatalf("unexpected waypoint node %+v", n)
		}
	}

	deliveries := result.Route.DeliveryNodes()
	if len(deliveries) != 5 || deliveries[0].VisitOrder != 1 {
		t.Fatalf("deliveries = %+v, want 5 starting at visit 1", deliveries)
	}
	if strings.Contains(result.Message, "waypoint") {
		t.Fatalf("message = %q, want no waypoint mention", result.Message)
	}
}

func TestOptimizeRouteGPSOrigin(t *testing.T) {
	opt := testOptimizer(nil)

	origin := &domain.Coordinates{Lat: 20.5, Lng: -99.7}
	result, err := opt.OptimizeRoute(context.Background(), OptimizeRequest{
		Date:   "2026-09-01",
		Origin: origin,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := result.Route.Nodes[0]
	if first.Name != "Ubicación Actual (GPS)" {
		t.Fatalf("origin name = %q", first.Name)
	}
	if first.Coordinates != *origin {
		t.Fatalf("origin coords = %+v, want %+v", first.Coordinates, *origin)
	}
}

func TestOptimizeRouteCachesSnapshot(t *testing.T) {
	cache := newMemCache()
	opt := testOptimizer(nil)
	opt.Cache = cache

	if _, err := opt.OptimizeRoute(context.Background(), OptimizeRequest{Date: "2026-09-01"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refresher := &Refresher{Cache: cache}
	route, found, err := refresher.CachedRoute(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("route snapshot missing after optimization")
	}
	if len(route.DeliveryNodes()) != 5 {
		t.Fatalf("cached deliveries = %d, want 5", len(route.DeliveryNodes()))
	}
}

func TestEstimateSeconds(t *testing.T) {
	// 13890 meters at ~50 km/h is 1000 seconds.
	if got := EstimateSeconds(13890); got != 1000 {
		t.Fatalf("EstimateSeconds(13890) = %d, want 1000", got)
	}
	if got := EstimateSeconds(0); got != 0 {
		t.Fatalf("EstimateSeconds(0) = %d, want 0", got)
	}
}
