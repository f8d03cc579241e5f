package api

import (
	"net/http"

	"last-mile-service/internal/api/handlers"
	"last-mile-service/internal/ports"
	"last-mile-service/internal/services"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Refresher  *services.Refresher
	Optimizer  *services.Optimizer
	Controller *services.SessionController
	Store      ports.OrderStore
	Sharer     ports.ReceiptSharer

	DefaultUnitPrice float64
}

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware
// of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	orderHandler := &handlers.OrderHandler{Refresh: d.Refresher}
	routeHandler := &handlers.RouteHandler{
		Optimizer:  d.Optimizer,
		Controller: d.Controller,
	}
	navHandler := &handlers.NavigationHandler{Controller: d.Controller}
	summaryHandler := &handlers.SummaryHandler{Store: d.Store}
	waHandler := &handlers.WhatsAppHandler{
		Store:            d.Store,
		Sharer:           d.Sharer,
		DefaultUnitPrice: d.DefaultUnitPrice,
	}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /api/orders/{date}", orderHandler.ListByDate)
	mux.HandleFunc("POST /api/optimize-route", routeHandler.Optimize)
	mux.HandleFunc("GET /api/navigation/next", navHandler.Next)
	mux.HandleFunc("POST /api/navigation/cancel", navHandler.Cancel)
	mux.HandleFunc("POST /api/orders/{id}/complete", navHandler.Complete)
	mux.HandleFunc("GET /api/weekly-summary", summaryHandler.Weekly)
	mux.HandleFunc("GET /api/whatsapp-link/{order_id}", waHandler.Link)

	return loggingMiddleware(mux)
}
