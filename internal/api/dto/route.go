package dto

import "last-mile-service/internal/domain"

type OptimizeRequest struct {
	Date     string `json:"date"`
	TestMode bool   `json:"test_mode"`
	// Optional GPS coordinates overriding the configured depot origin.
	CurrentLat *float64 `json:"current_lat"`
	CurrentLng *float64 `json:"current_lng"`
}

type RouteNodeResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
	IsDepot            bool    `json:"is_depot,omitempty"`
	IsSecurityWaypoint bool    `json:"is_security_waypoint,omitempty"`
	VisitOrder         int     `json:"visit_order,omitempty"`
}

type RouteResponse struct {
	Date                string              `json:"date"`
	Nodes               []RouteNodeResponse `json:"nodes"`
	TotalDistanceMeters int                 `json:"total_distance_meters"`
	TotalTimeSeconds    int                 `json:"total_time_seconds"`
	DemoMode            bool                `json:"demo_mode"`
	EstimatedMatrix     bool                `json:"estimated_matrix"`
	// Route polyline as [lng, lat] pairs in visit order.
	Geometry [][]float64 `json:"geometry,omitempty"`
}

func NewRouteResponse(route *domain.OptimizedRoute) RouteResponse {
	res := RouteResponse{
		Date:                route.Date,
		Nodes:               make([]RouteNodeResponse, 0, len(route.Nodes)),
		TotalDistanceMeters: route.TotalDistanceMeters,
		TotalTimeSeconds:    route.TotalTimeSeconds,
		DemoMode:            route.DemoMode,
		EstimatedMatrix:     route.EstimatedMatrix,
	}
	for _, n := range route.Nodes {
		res.Nodes = append(res.Nodes, NewRouteNodeResponse(n))
	}
	if ls := route.Geometry(); ls != nil {
		coords := ls.Coords()
		res.Geometry = make([][]float64, 0, len(coords))
		for _, c := range coords {
			res.Geometry = append(res.Geometry, []float64{c.X(), c.Y()})
		}
	}
	return res
}

func NewRouteNodeResponse(n domain.RouteNode) RouteNodeResponse {
	return RouteNodeResponse{
		ID:                 n.ID,
		Name:               n.Name,
		Lat:                n.Coordinates.Lat,
		Lng:                n.Coordinates.Lng,
		IsDepot:            n.IsDepot,
		IsSecurityWaypoint: n.IsSecurityWaypoint,
		VisitOrder:         n.VisitOrder,
	}
}

type OptimizeResponse struct {
	Message        string        `json:"message"`
	Route          RouteResponse `json:"route"`
	SkippedOrders  []string      `json:"skipped_orders,omitempty"`
	SessionStarted bool          `json:"session_started"`
}
