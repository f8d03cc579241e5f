package domain

import "time"

// Lifecycle status of an order.
type OrderStatus string

const (
	StatusPresale   OrderStatus = "Presale"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusEnRoute   OrderStatus = "EnRoute"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// Represents a single delivery order for one client on one route date.
//
// Coordinates come from the client record and may be absent; orders
// without valid coordinates are excluded from route optimization and
// must be reported to the caller rather than silently dropped.
// ActualKg, Total, VisitOrder and DeliveredAt stay unset until the
// corresponding stage of the delivery flow populates them.
type Order struct {
	ID          string
	RouteDate   string
	ClientID    string
	ClientName  string
	Phone       string
	Zone        string
	Product     string
	RequestedKg float64
	ActualKg    *float64
	UnitPrice   *float64
	Total       *float64
	Status      OrderStatus
	VisitOrder  *int
	Coordinates *Coordinates
	DeliveredAt *time.Time
	FolioNote   int
}

// Routable reports whether the order qualifies as an optimization node.
func (o *Order) Routable() bool {
	if o.Status == StatusCancelled {
		return false
	}
	return o.Coordinates != nil && o.Coordinates.Valid()
}
