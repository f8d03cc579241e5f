package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/platform/obs"
	"last-mile-service/internal/ports"
)

// Average speed used to estimate travel time when the matrix provider
// supplies no durations (~50 km/h in m/s).
const fallbackSpeedMPS = 13.89

type OptimizeRequest struct {
	Date     string
	TestMode bool
	// Optional GPS origin overriding the configured depot.
	Origin *domain.Coordinates
}

type OptimizeResult struct {
	Route   *domain.OptimizedRoute
	Message string
	// Orders the route was planned over, for session binding.
	Orders []domain.Order
	// Order ids excluded for missing or invalid coordinates.
	Skipped []string
}

// Optimizer produces the visiting sequence for a route date.
//
// It consumes non-cancelled orders, enforces the depot start/end and
// the security-waypoint precedence, groups same-zone stops into a
// centroid proxy for the solver, and mirrors successful results into
// the snapshot cache.
type Optimizer struct {
	Store    ports.OrderStore
	Provider ports.DistanceMatrixProvider
	// Fallback provider (haversine) used when Provider is absent or
	// fails; results computed this way are flagged EstimatedMatrix.
	Fallback ports.DistanceMatrixProvider
	Cache    ports.SnapshotCache

	Depot        domain.Coordinates
	DepotName    string
	Waypoint     *domain.Coordinates
	WaypointName string
}

// solver node, possibly a proxy standing in for a whole zone.
type solverNode struct {
	id     string
	name   string
	coords domain.Coordinates
	// Orders represented by this node, in stable id order.
	orders []domain.Order
}

// OptimizeRoute plans the delivery sequence for req.Date.
func (o *Optimizer) OptimizeRoute(ctx context.Context, req OptimizeRequest) (_ *OptimizeResult, err error) {
	defer obs.Time(ctx, "optimizer.OptimizeRoute")(&err)

	demoMode := req.TestMode || o.Store == nil

	var orders []domain.Order
	if demoMode {
		orders = DemoOrders(req.Date)
	} else {
		orders, err = o.Store.ListOrdersByDate(ctx, req.Date)
		if err != nil {
			return nil, fmt.Errorf("optimize route: list orders for %q: %w", req.Date, err)
		}
	}

	skipped := make([]string, 0)
	routable := make([]domain.Order, 0, len(orders))
	for i := range orders {
		ord := orders[i]
		if ord.Status == domain.StatusCancelled {
			continue
		}
		if !ord.Routable() {
			skipped = append(skipped, ord.ID)
			continue
		}
		routable = append(routable, ord)
	}
	if len(skipped) > 0 {
		logrus.WithFields(logrus.Fields{
			"date":    req.Date,
			"skipped": len(skipped),
		}).Warn("orders excluded from optimization: missing coordinates")
	}

	depot := o.Depot
	depotName := o.DepotName
	if req.Origin != nil && req.Origin.Valid() {
		depot = *req.Origin
		depotName = "Ubicación Actual (GPS)"
	}

	// Nothing to optimize is an explicit empty result, not an error.
	if len(routable) == 0 {
		route := &domain.OptimizedRoute{
			Date: req.Date,
			Nodes: []domain.RouteNode{
				{ID: "DEPOT", Name: depotName, Coordinates: depot, IsDepot: true},
			},
			DemoMode: demoMode,
		}
		return &OptimizeResult{
			Route:   route,
			Message: "No hay pedidos confirmados para optimizar",
			Orders:  routable,
			Skipped: skipped,
		}, nil
	}

	nodes := groupByZone(routable)

	locations := make([]domain.Coordinates, 0, 2+len(nodes))
	locations = append(locations, depot)
	hasWaypoint := o.Waypoint != nil
	if hasWaypoint {
		locations = append(locations, *o.Waypoint)
	}
	for _, n := range nodes {
		locations = append(locations, n.coords)
	}

	matrix, estimated, err := o.fullMatrix(ctx, locations)
	if err != nil {
		return nil, fmt.Errorf("optimize route: build distance matrix: %w", err)
	}

	seq, totalMeters, err := SolveRoute(matrix.Distances, hasWaypoint)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	route := o.buildRoute(req.Date, depotName, depot, hasWaypoint, nodes, seq, matrix)
	route.TotalDistanceMeters = totalMeters
	route.DemoMode = demoMode
	route.EstimatedMatrix = estimated

	// Persist visit positions back to the live store, best-effort.
	if !demoMode {
		updates := make([]ports.VisitOrderUpdate, 0, len(route.Nodes))
		for _, n := range route.Nodes {
			if n.IsDepot || n.IsSecurityWaypoint {
				continue
			}
			updates = append(updates, ports.VisitOrderUpdate{OrderID: n.ID, VisitOrder: n.VisitOrder})
		}
		if count, err := o.Store.UpdateVisitOrders(ctx, updates); err != nil {
			logrus.WithError(err).Warn("visit order write-back failed")
		} else {
			logrus.WithFields(logrus.Fields{"date": req.Date, "updated": count}).Info("visit orders persisted")
		}
	}

	// Cache writes only follow successful optimizations; a failed run
	// leaves the previous snapshot for the date untouched.
	if o.Cache != nil {
		if err := saveRouteSnapshot(ctx, o.Cache, route); err != nil {
			logrus.WithError(err).Warn("route snapshot write failed")
		}
	}

	deliveries := len(route.DeliveryNodes())
	msg := fmt.Sprintf("Ruta optimizada: %d entregas", deliveries)
	if hasWaypoint {
		msg += " + waypoint de seguridad"
	}

	return &OptimizeResult{Route: route, Message: msg, Orders: routable, Skipped: skipped}, nil
}

// fullMatrix queries the primary provider, falling back to haversine
// estimates when it is unavailable.
func (o *Optimizer) fullMatrix(ctx context.Context, locations []domain.Coordinates) (ports.Matrix, bool, error) {
	if o.Provider != nil {
		m, err := o.Provider.FullMatrix(ctx, locations)
		if err == nil {
			return m, false, nil
		}
		logrus.WithError(err).Warn("matrix provider failed, using haversine estimates")
	}

	if o.Fallback == nil {
		return ports.Matrix{}, false, fmt.Errorf("no distance provider available: %w", domain.ErrSolverFailure)
	}

	m, err := o.Fallback.FullMatrix(ctx, locations)
	if err != nil {
		return ports.Matrix{}, false, err
	}
	return m, true, nil
}

// buildRoute expands the solver sequence back into route nodes,
// re-inflating zone proxies and assigning visit order to deliveries.
func (o *Optimizer) buildRoute(
	date string,
	depotName string,
	depot domain.Coordinates,
	hasWaypoint bool,
	nodes []solverNode,
	seq []int,
	matrix ports.Matrix,
) *domain.OptimizedRoute {
	firstDelivery := 1
	if hasWaypoint {
		firstDelivery = 2
	}

	out := make([]domain.RouteNode, 0, len(seq)+4)
	visit := 0
	for _, idx := range seq {
		switch {
		case idx == 0:
			out = append(out, domain.RouteNode{
				ID: "DEPOT", Name: depotName, Coordinates: depot, IsDepot: true,
			})
		case hasWaypoint && idx == 1:
			out = append(out, domain.RouteNode{
				ID:                 "WAYPOINT",
				Name:               o.WaypointName,
				Coordinates:        *o.Waypoint,
				IsSecurityWaypoint: true,
			})
		default:
			node := nodes[idx-firstDelivery]
			for _, ord := range node.orders {
				visit++
				out = append(out, domain.RouteNode{
					ID:          ord.ID,
					Name:        ord.ClientName,
					Coordinates: *ord.Coordinates,
					VisitOrder:  visit,
				})
			}
		}
	}

	// Routes close where they opened.
	out = append(out, domain.RouteNode{
		ID: "DEPOT", Name: depotName, Coordinates: depot, IsDepot: true,
	})

	route := &domain.OptimizedRoute{Date: date, Nodes: out}
	route.TotalTimeSeconds = totalSeconds(seq, matrix)
	return route
}

// totalSeconds sums leg durations along the solver sequence, including
// the return to depot.
func totalSeconds(seq []int, matrix ports.Matrix) int {
	if len(matrix.Durations) == 0 {
		return 0
	}

	total := 0
	for i := 1; i < len(seq); i++ {
		total += matrix.Durations[seq[i-1]][seq[i]]
	}
	total += matrix.Durations[seq[len(seq)-1]][0]
	return total
}

// groupByZone collapses orders sharing a non-empty zone into one
// centroid proxy node so the solver treats the zone as a single stop.
func groupByZone(orders []domain.Order) []solverNode {
	byZone := make(map[string][]domain.Order)
	singles := make([]domain.Order, 0, len(orders))

	for _, ord := range orders {
		zone := strings.ToLower(strings.TrimSpace(ord.Zone))
		if zone == "" {
			singles = append(singles, ord)
			continue
		}
		byZone[zone] = append(byZone[zone], ord)
	}

	nodes := make([]solverNode, 0, len(singles)+len(byZone))
	for _, ord := range singles {
		nodes = append(nodes, solverNode{
			id:     ord.ID,
			name:   ord.ClientName,
			coords: *ord.Coordinates,
			orders: []domain.Order{ord},
		})
	}

	zoneKeys := make([]string, 0, len(byZone))
	for k := range byZone {
		zoneKeys = append(zoneKeys, k)
	}
	sort.Strings(zoneKeys)

	for _, key := range zoneKeys {
		members := byZone[key]
		if len(members) == 1 {
			ord := members[0]
			nodes = append(nodes, solverNode{
				id:     ord.ID,
				name:   ord.ClientName,
				coords: *ord.Coordinates,
				orders: members,
			})
			continue
		}

		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		var sumLat, sumLng float64
		for _, m := range members {
			sumLat += m.Coordinates.Lat
			sumLng += m.Coordinates.Lng
		}
		n := float64(len(members))
		nodes = append(nodes, solverNode{
			id:     "GROUP_" + key,
			name:   "Zona: " + members[0].Zone,
			coords: domain.Coordinates{Lat: sumLat / n, Lng: sumLng / n},
			orders: members,
		})
	}

	// Stable node order keeps solver input deterministic.
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	return nodes
}

// DemoOrders returns the synthetic order set served in demo/test mode.
// Callers must surface the demo indicator, never present this as live
// data.
func DemoOrders(date string) []domain.Order {
	price := 95.0
	coords := func(lat, lng float64) *domain.Coordinates {
		return &domain.Coordinates{Lat: lat, Lng: lng}
	}

	return []domain.Order{
		{ID: "PED-001", RouteDate: date, ClientID: "CLI-001", ClientName: "Cremería La Esperanza",
			Product: "Queso Oaxaca", RequestedKg: 5, UnitPrice: &price, Status: domain.StatusConfirmed,
			Coordinates: coords(20.4567, -99.8765)},
		{ID: "PED-002", RouteDate: date, ClientID: "CLI-002", ClientName: "Tienda Don José",
			Product: "Queso Panela", RequestedKg: 3, UnitPrice: &price, Status: domain.StatusConfirmed,
			Coordinates: coords(20.5432, -99.7654)},
		{ID: "PED-003", RouteDate: date, ClientID: "CLI-003", ClientName: "Abarrotes María",
			Product: "Crema", RequestedKg: 4, Status: domain.StatusConfirmed,
			Coordinates: coords(20.3456, -99.6543)},
		{ID: "PED-004", RouteDate: date, ClientID: "CLI-004", ClientName: "Mini Super El Sol",
			Product: "Queso Oaxaca", RequestedKg: 2, UnitPrice: &price, Status: domain.StatusConfirmed,
			Coordinates: coords(20.2345, -99.5432)},
		{ID: "PED-005", RouteDate: date, ClientID: "CLI-005", ClientName: "Cremería Los Ángeles",
			Product: "Requesón", RequestedKg: 6, Status: domain.StatusConfirmed,
			Coordinates: coords(20.6789, -99.4321)},
	}
}

// EstimateSeconds converts meters to a travel-time guess at ~50 km/h.
func EstimateSeconds(meters int) int {
	return int(math.Round(float64(meters) / fallbackSpeedMPS))
}
