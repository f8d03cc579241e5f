package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"last-mile-service/internal/api/dto"
	"last-mile-service/internal/domain"
	"last-mile-service/internal/services"
)

// NavigationHandler exposes the delivery session: the pending stop,
// stop completion, and session cancellation.
type NavigationHandler struct {
	Controller *services.SessionController
}

func (h *NavigationHandler) Next(w http.ResponseWriter, r *http.Request) {
	next, err := h.Controller.Next()
	if errors.Is(err, domain.ErrSessionFinished) {
		writeJSON(w, r, http.StatusOK, dto.NextDeliveryResponse{
			SessionState: string(domain.SessionCompleted),
		})
		return
	}
	if err != nil {
		writeError(w, r, statusFromError(err), err.Error())
		return
	}

	node := dto.NewRouteNodeResponse(next.Node)
	res := dto.NextDeliveryResponse{
		Node:         &node,
		Remaining:    next.Remaining,
		NavURL:       next.NavURL,
		SessionState: string(h.Controller.State()),
	}
	if next.Order != nil {
		ord := dto.NewOrderResponse(*next.Order)
		res.Order = &ord
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *NavigationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if orderID == "" {
		writeError(w, r, http.StatusBadRequest, "order id is required")
		return
	}

	actualKg, err := strconv.ParseFloat(r.URL.Query().Get("actual_kg"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "actual_kg must be a number")
		return
	}

	result, err := h.Controller.CompleteDelivery(r.Context(), orderID, actualKg)
	if err != nil {
		logrus.WithError(err).WithField("order_id", orderID).Warn("delivery completion rejected")
		writeError(w, r, statusFromError(err), err.Error())
		return
	}

	res := dto.CompleteResponse{
		Receipt:      dto.NewReceiptResponse(result.Receipt),
		ReceiptPath:  result.ReceiptPath,
		ShareLink:    result.ShareLink,
		Queued:       result.Queued,
		SessionState: string(result.SessionState),
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *NavigationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.Controller.Cancel()
	writeJSON(w, r, http.StatusOK, map[string]string{
		"session_state": string(domain.SessionIdle),
	})
}
