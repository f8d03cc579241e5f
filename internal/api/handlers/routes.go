package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"last-mile-service/internal/api/dto"
	"last-mile-service/internal/domain"
	"last-mile-service/internal/services"
)

// RouteHandler runs the optimizer and opens a navigation session over
// the resulting route.
type RouteHandler struct {
	Optimizer  *services.Optimizer
	Controller *services.SessionController
}

func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if !dateFormat.MatchString(date) {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var origin *domain.Coordinates
	if req.CurrentLat != nil && req.CurrentLng != nil {
		origin = &domain.Coordinates{Lat: *req.CurrentLat, Lng: *req.CurrentLng}
		if !origin.Valid() {
			writeError(w, r, http.StatusBadRequest, "current coordinates out of range")
			return
		}
	}

	result, err := h.Optimizer.OptimizeRoute(r.Context(), services.OptimizeRequest{
		Date:     date,
		TestMode: req.TestMode,
		Origin:   origin,
	})
	if err != nil {
		logrus.WithError(err).WithField("date", date).Error("route optimization failed")
		writeError(w, r, statusFromError(err), "route optimization failed")
		return
	}

	// A route with no deliveries leaves the previous session untouched.
	sessionStarted := false
	if len(result.Route.DeliveryNodes()) > 0 {
		if err := h.Controller.StartNavigation(result.Route, result.Orders); err != nil {
			logrus.WithError(err).Warn("navigation session not started")
		} else {
			sessionStarted = true
		}
	}

	res := dto.OptimizeResponse{
		Message:        result.Message,
		Route:          dto.NewRouteResponse(result.Route),
		SkippedOrders:  result.Skipped,
		SessionStarted: sessionStarted,
	}
	writeJSON(w, r, http.StatusOK, res)
}
