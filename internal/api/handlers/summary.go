package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"last-mile-service/internal/api/dto"
	"last-mile-service/internal/ports"
)

// SummaryHandler aggregates requested kilograms per product for the
// current week, used for production planning.
type SummaryHandler struct {
	Store ports.OrderStore
}

func (h *SummaryHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "no order store configured")
		return
	}

	totals, err := h.Store.WeeklySummary(r.Context())
	if err != nil {
		logrus.WithError(err).Error("weekly summary failed")
		writeError(w, r, statusFromError(err), "weekly summary unavailable")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.WeeklySummaryResponse{TotalsKg: totals})
}
