package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"last-mile-service/internal/api/dto"
	"last-mile-service/internal/domain"
	"last-mile-service/internal/ports"
)

// WhatsAppHandler regenerates the receipt share link for an already
// delivered order, for when the operator dismissed the first one.
type WhatsAppHandler struct {
	Store            ports.OrderStore
	Sharer           ports.ReceiptSharer
	DefaultUnitPrice float64
}

func (h *WhatsAppHandler) Link(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("order_id")
	if orderID == "" {
		writeError(w, r, http.StatusBadRequest, "order id is required")
		return
	}
	if h.Store == nil || h.Sharer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "sharing not configured")
		return
	}

	ord, err := h.Store.GetOrder(r.Context(), orderID)
	if err != nil {
		logrus.WithError(err).WithField("order_id", orderID).Warn("order lookup failed")
		writeError(w, r, statusFromError(err), "order lookup failed")
		return
	}

	if ord.Status != domain.StatusDelivered || ord.ActualKg == nil {
		writeError(w, r, http.StatusConflict, "order has not been delivered")
		return
	}

	unitPrice := h.DefaultUnitPrice
	estimated := true
	switch {
	case ord.UnitPrice != nil:
		unitPrice = *ord.UnitPrice
		estimated = false
	case ord.Total != nil && *ord.ActualKg > 0:
		// Recover the billed price from the stored total so the message
		// shows kg x price matching it.
		unitPrice = *ord.Total / *ord.ActualKg
	}
	total := *ord.ActualKg * unitPrice
	if ord.Total != nil {
		total = *ord.Total
	}

	date := time.Now()
	if ord.DeliveredAt != nil {
		date = *ord.DeliveredAt
	}

	receipt := domain.Receipt{
		FolioNote:      ord.FolioNote,
		Date:           date,
		ClientName:     ord.ClientName,
		Product:        ord.Product,
		Kg:             *ord.ActualKg,
		UnitPrice:      unitPrice,
		Total:          total,
		PriceEstimated: estimated,
	}

	link, err := h.Sharer.Share(r.Context(), ord.Phone, receipt)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, dto.WhatsAppLinkResponse{OrderID: orderID, Link: link})
}
