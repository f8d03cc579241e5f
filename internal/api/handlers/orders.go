package handlers

import (
	"net/http"
	"regexp"

	"github.com/sirupsen/logrus"

	"last-mile-service/internal/api/dto"
	"last-mile-service/internal/services"
)

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// OrderHandler serves the order list for a route date, falling back to
// the local snapshot when the live store is unreachable.
type OrderHandler struct {
	Refresh *services.Refresher
}

func (h *OrderHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !dateFormat.MatchString(date) {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	snap, source, err := h.Refresh.FetchOrders(r.Context(), date)
	if err != nil {
		logrus.WithError(err).WithField("date", date).Error("order fetch failed")
		writeError(w, r, statusFromError(err), "orders unavailable: live store unreachable and no local snapshot")
		return
	}

	res := dto.ListOrdersResponse{
		Date:     date,
		Source:   source,
		DemoMode: snap.DemoMode,
		Orders:   make([]dto.OrderResponse, 0, len(snap.Orders)),
	}
	for _, ord := range snap.Orders {
		res.Orders = append(res.Orders, dto.NewOrderResponse(ord))
	}

	writeJSON(w, r, http.StatusOK, res)
}
