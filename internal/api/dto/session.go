package dto

import (
	"time"

	"last-mile-service/internal/domain"
)

type ReceiptResponse struct {
	Folio          int       `json:"folio"`
	Date           time.Time `json:"date"`
	ClientName     string    `json:"client_name"`
	Product        string    `json:"product"`
	Kg             float64   `json:"kg"`
	UnitPrice      float64   `json:"unit_price"`
	Total          float64   `json:"total"`
	PriceEstimated bool      `json:"price_estimated,omitempty"`
}

func NewReceiptResponse(rec domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		Folio:          rec.FolioNote,
		Date:           rec.Date,
		ClientName:     rec.ClientName,
		Product:        rec.Product,
		Kg:             rec.Kg,
		UnitPrice:      rec.UnitPrice,
		Total:          rec.Total,
		PriceEstimated: rec.PriceEstimated,
	}
}

type CompleteResponse struct {
	Receipt      ReceiptResponse `json:"receipt"`
	ReceiptPath  string          `json:"receipt_path,omitempty"`
	ShareLink    string          `json:"share_link,omitempty"`
	Queued       bool            `json:"queued"`
	SessionState string          `json:"session_state"`
}

type NextDeliveryResponse struct {
	Node         *RouteNodeResponse `json:"node,omitempty"`
	Order        *OrderResponse     `json:"order,omitempty"`
	Remaining    int                `json:"remaining"`
	NavURL       string             `json:"nav_url,omitempty"`
	SessionState string             `json:"session_state"`
}

type WeeklySummaryResponse struct {
	TotalsKg map[string]float64 `json:"totals_kg"`
}

type WhatsAppLinkResponse struct {
	OrderID string `json:"order_id"`
	Link    string `json:"link"`
}
