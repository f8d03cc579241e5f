package dto

import (
	"time"

	"last-mile-service/internal/domain"
)

type OrderResponse struct {
	OrderID     string     `json:"order_id"`
	RouteDate   string     `json:"route_date"`
	ClientID    string     `json:"client_id"`
	ClientName  string     `json:"client_name"`
	Phone       string     `json:"phone,omitempty"`
	Zone        string     `json:"zone,omitempty"`
	Product     string     `json:"product"`
	RequestedKg float64    `json:"requested_kg"`
	ActualKg    *float64   `json:"actual_kg,omitempty"`
	UnitPrice   *float64   `json:"unit_price,omitempty"`
	Total       *float64   `json:"total,omitempty"`
	Status      string     `json:"status"`
	VisitOrder  *int       `json:"visit_order,omitempty"`
	Lat         *float64   `json:"lat,omitempty"`
	Lng         *float64   `json:"lng,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

func NewOrderResponse(ord domain.Order) OrderResponse {
	res := OrderResponse{
		OrderID:     ord.ID,
		RouteDate:   ord.RouteDate,
		ClientID:    ord.ClientID,
		ClientName:  ord.ClientName,
		Phone:       ord.Phone,
		Zone:        ord.Zone,
		Product:     ord.Product,
		RequestedKg: ord.RequestedKg,
		ActualKg:    ord.ActualKg,
		UnitPrice:   ord.UnitPrice,
		Total:       ord.Total,
		Status:      string(ord.Status),
		VisitOrder:  ord.VisitOrder,
		DeliveredAt: ord.DeliveredAt,
	}
	if ord.Coordinates != nil {
		res.Lat = &ord.Coordinates.Lat
		res.Lng = &ord.Coordinates.Lng
	}
	return res
}

type ListOrdersResponse struct {
	Date     string          `json:"date"`
	Source   string          `json:"source"`
	DemoMode bool            `json:"demo_mode"`
	Orders   []OrderResponse `json:"orders"`
}
