package domain

import (
	geom "github.com/twpayne/go-geom"
)

// Represents a single point visited during a route: a regular delivery
// (referencing an order), the depot, or the security waypoint.
type RouteNode struct {
	ID                 string
	Name               string
	Coordinates        Coordinates
	IsDepot            bool
	IsSecurityWaypoint bool
	// 1-based position among delivery nodes; 0 for depot and waypoint.
	VisitOrder int
}

// Represents the optimized visiting sequence for one route date.
//
// Nodes start and end at the depot. When a security waypoint is
// configured it sits immediately after the depot and precedes every
// delivery node. Totals are derived summary metrics, not authoritative.
type OptimizedRoute struct {
	Date                string
	Nodes               []RouteNode
	TotalDistanceMeters int
	TotalTimeSeconds    int
	// DemoMode marks routes built from synthetic orders.
	DemoMode bool
	// EstimatedMatrix marks routes computed from haversine distances
	// because the live distance provider was unavailable.
	EstimatedMatrix bool
}

// DeliveryNodes returns the delivery subsequence, excluding depot and
// waypoint entries, in visiting order.
func (r *OptimizedRoute) DeliveryNodes() []RouteNode {
	out := make([]RouteNode, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		if n.IsDepot || n.IsSecurityWaypoint {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Geometry returns the route as a LineString for map rendering.
func (r *OptimizedRoute) Geometry() *geom.LineString {
	coords := make([]geom.Coord, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		coords = append(coords, geom.Coord{n.Coordinates.Lng, n.Coordinates.Lat})
	}
	ls := geom.NewLineString(geom.XY)
	ls.MustSetCoords(coords)
	return ls
}
