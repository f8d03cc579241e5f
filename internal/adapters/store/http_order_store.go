package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/platform/obs"
	"last-mile-service/internal/ports"
)

// HTTPOrderStore implements the OrderStore port against the central
// order API. All failures map to the transient-network taxonomy so
// callers can route them through the offline cache.
type HTTPOrderStore struct {
	session *http.Client
	baseURL string
}

func NewHTTPOrderStore(baseURL string) (*HTTPOrderStore, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("http order store: base url is empty")
	}

	return &HTTPOrderStore{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Wire representation of an order on the central API.
type orderPayload struct {
	ID          string   `json:"id"`
	RouteDate   string   `json:"route_date"`
	ClientID    string   `json:"client_id"`
	ClientName  string   `json:"client_name"`
	Phone       string   `json:"phone"`
	Zone        string   `json:"zone"`
	Product     string   `json:"product"`
	RequestedKg float64  `json:"requested_kg"`
	ActualKg    *float64 `json:"actual_kg"`
	UnitPrice   *float64 `json:"unit_price"`
	Total       *float64 `json:"total"`
	Status      string   `json:"status"`
	VisitOrder  *int     `json:"visit_order"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	DeliveredAt *string  `json:"delivered_at"`
	FolioNote   int      `json:"folio_note"`
}

func (p orderPayload) toDomain() domain.Order {
	ord := domain.Order{
		ID:          p.ID,
		RouteDate:   p.RouteDate,
		ClientID:    p.ClientID,
		ClientName:  p.ClientName,
		Phone:       p.Phone,
		Zone:        p.Zone,
		Product:     p.Product,
		RequestedKg: p.RequestedKg,
		ActualKg:    p.ActualKg,
		UnitPrice:   p.UnitPrice,
		Total:       p.Total,
		Status:      domain.OrderStatus(p.Status),
		VisitOrder:  p.VisitOrder,
		FolioNote:   p.FolioNote,
	}
	if p.Lat != nil && p.Lng != nil {
		ord.Coordinates = &domain.Coordinates{Lat: *p.Lat, Lng: *p.Lng}
	}
	if p.DeliveredAt != nil {
		if ts, err := time.Parse(time.RFC3339, *p.DeliveredAt); err == nil {
			ord.DeliveredAt = &ts
		}
	}
	return ord
}

func (s *HTTPOrderStore) ListOrdersByDate(ctx context.Context, date string) (_ []domain.Order, err error) {
	defer obs.Time(ctx, "store.ListOrdersByDate")(&err)

	var res struct {
		Orders []orderPayload `json:"orders"`
	}
	if err := s.getJSON(ctx, "/api/orders/"+url.PathEscape(date), &res); err != nil {
		return nil, fmt.Errorf("list orders for %q: %w", date, err)
	}

	orders := make([]domain.Order, 0, len(res.Orders))
	for _, p := range res.Orders {
		orders = append(orders, p.toDomain())
	}
	return orders, nil
}

func (s *HTTPOrderStore) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var res struct {
		Order *orderPayload `json:"order"`
	}
	if err := s.getJSON(ctx, "/api/order/"+url.PathEscape(orderID), &res); err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return domain.Order{}, fmt.Errorf("get order %q: %w", orderID, domain.ErrNotFound)
		}
		return domain.Order{}, fmt.Errorf("get order %q: %w", orderID, err)
	}
	if res.Order == nil {
		return domain.Order{}, fmt.Errorf("get order %q: %w", orderID, domain.ErrNotFound)
	}
	return res.Order.toDomain(), nil
}

func (s *HTTPOrderStore) UpdateVisitOrders(ctx context.Context, updates []ports.VisitOrderUpdate) (_ int, err error) {
	defer obs.Time(ctx, "store.UpdateVisitOrders")(&err)

	if len(updates) == 0 {
		return 0, nil
	}

	body := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		body = append(body, map[string]any{
			"order_id":    u.OrderID,
			"visit_order": u.VisitOrder,
		})
	}

	var res struct {
		Updated int `json:"updated"`
	}
	if err := s.postJSON(ctx, "/api/orders/visit-orders", map[string]any{"updates": body}, &res); err != nil {
		return 0, fmt.Errorf("update visit orders: %w", err)
	}
	return res.Updated, nil
}

func (s *HTTPOrderStore) CompleteDelivery(ctx context.Context, rec ports.CompletionRecord) (err error) {
	defer obs.Time(ctx, "store.CompleteDelivery")(&err)

	body := map[string]any{
		"actual_kg": rec.ActualKg,
		"total":     rec.Total,
		"folio":     rec.Folio,
	}

	path := "/api/orders/" + url.PathEscape(rec.OrderID) + "/complete"
	if err := s.postJSON(ctx, path, body, nil); err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return fmt.Errorf("complete delivery %q: %w", rec.OrderID, domain.ErrNotFound)
		}
		return fmt.Errorf("complete delivery %q: %w", rec.OrderID, err)
	}
	return nil
}

func (s *HTTPOrderStore) WeeklySummary(ctx context.Context) (map[string]float64, error) {
	var res struct {
		Summary map[string]float64 `json:"summary"`
	}
	if err := s.getJSON(ctx, "/api/weekly-summary", &res); err != nil {
		return nil, fmt.Errorf("weekly summary: %w", err)
	}
	return res.Summary, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (s *HTTPOrderStore) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return s.doJSON(req, out)
}

func (s *HTTPOrderStore) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return s.doJSON(req, out)
}

func (s *HTTPOrderStore) doJSON(req *http.Request, out any) error {
	resp, err := s.session.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
