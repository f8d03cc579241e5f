package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/ports"
)

// Postgres-backed implementation of the OrderStore port, used when the
// service itself hosts the central store.
type PgOrderStore struct {
	DB *sql.DB
}

func NewPgOrderStore(db *sql.DB) *PgOrderStore {
	return &PgOrderStore{DB: db}
}

const orderColumns = `
	o.order_id,
	o.route_date::text,
	o.client_id,
	c.name,
	c.phone,
	c.zone,
	o.product,
	o.requested_kg,
	o.actual_kg,
	o.unit_price,
	o.total,
	o.status,
	o.visit_order,
	c.lat,
	c.lng,
	o.delivered_at,
	c.sales_counter
`

func (s *PgOrderStore) ListOrdersByDate(ctx context.Context, date string) ([]domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("pg order store: DB is nil")
	}

	query := `
	SELECT ` + orderColumns + `
	FROM orders o
	JOIN clients c ON c.client_id = o.client_id
	WHERE o.route_date = $1::date
	ORDER BY o.order_id;
	`

	rows, err := s.DB.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("list orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 32)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		orders = append(orders, ord)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: row iteration: %w", err)
	}

	return orders, nil
}

func (s *PgOrderStore) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.DB == nil {
		return domain.Order{}, errors.New("pg order store: DB is nil")
	}

	query := `
	SELECT ` + orderColumns + `
	FROM orders o
	JOIN clients c ON c.client_id = o.client_id
	WHERE o.order_id = $1;
	`

	row := s.DB.QueryRowContext(ctx, query, orderID)
	ord, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("get order %q: %w", orderID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %q: %w", orderID, err)
	}
	return ord, nil
}

func (s *PgOrderStore) UpdateVisitOrders(ctx context.Context, updates []ports.VisitOrderUpdate) (int, error) {
	if s.DB == nil {
		return 0, errors.New("pg order store: DB is nil")
	}
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("update visit orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	UPDATE orders
	SET visit_order = $2, status = $3
	WHERE order_id = $1;
	`

	count := 0
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.OrderID, u.VisitOrder, domain.StatusEnRoute)
		if err != nil {
			return 0, fmt.Errorf("update visit orders: order %q: %w", u.OrderID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			count += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("update visit orders: commit tx: %w", err)
	}

	return count, nil
}

// CompleteDelivery marks the order Delivered and bumps the client's
// sales counter in one transaction, mirroring the receipt folio.
func (s *PgOrderStore) CompleteDelivery(ctx context.Context, rec ports.CompletionRecord) error {
	if s.DB == nil {
		return errors.New("pg order store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("complete delivery: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	updateOrder := `
	UPDATE orders
	SET status = $2,
		actual_kg = $3,
		total = $4,
		delivered_at = $5
	WHERE order_id = $1
	RETURNING client_id;
	`

	var clientID string
	err = tx.QueryRowContext(ctx, updateOrder,
		rec.OrderID, domain.StatusDelivered, rec.ActualKg, rec.Total, time.Now().UTC(),
	).Scan(&clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("complete delivery %q: %w", rec.OrderID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("complete delivery %q: update order: %w", rec.OrderID, err)
	}

	bumpCounter := `
	UPDATE clients
	SET sales_counter = GREATEST(sales_counter + 1, $2)
	WHERE client_id = $1;
	`

	if _, err := tx.ExecContext(ctx, bumpCounter, clientID, rec.Folio); err != nil {
		return fmt.Errorf("complete delivery %q: bump client counter: %w", rec.OrderID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("complete delivery %q: commit tx: %w", rec.OrderID, err)
	}

	return nil
}

func (s *PgOrderStore) WeeklySummary(ctx context.Context) (map[string]float64, error) {
	if s.DB == nil {
		return nil, errors.New("pg order store: DB is nil")
	}

	query := `
	SELECT product, SUM(requested_kg)
	FROM orders
	WHERE route_date >= date_trunc('week', CURRENT_DATE)
		AND route_date < date_trunc('week', CURRENT_DATE) + interval '7 days'
		AND status <> $1
	GROUP BY product;
	`

	rows, err := s.DB.QueryContext(ctx, query, domain.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("weekly summary: query orders table: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]float64)
	for rows.Next() {
		var product string
		var kg float64
		if err := rows.Scan(&product, &kg); err != nil {
			return nil, fmt.Errorf("weekly summary: scan row: %w", err)
		}
		summary[product] = kg
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("weekly summary: row iteration: %w", err)
	}

	return summary, nil
}

// scanner abstracts sql.Row and sql.Rows for shared order scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(sc scanner) (domain.Order, error) {
	var (
		ord         domain.Order
		actualKg    sql.NullFloat64
		unitPrice   sql.NullFloat64
		total       sql.NullFloat64
		visitOrder  sql.NullInt64
		lat         sql.NullFloat64
		lng         sql.NullFloat64
		deliveredAt sql.NullTime
		status      string
	)

	err := sc.Scan(
		&ord.ID,
		&ord.RouteDate,
		&ord.ClientID,
		&ord.ClientName,
		&ord.Phone,
		&ord.Zone,
		&ord.Product,
		&ord.RequestedKg,
		&actualKg,
		&unitPrice,
		&total,
		&status,
		&visitOrder,
		&lat,
		&lng,
		&deliveredAt,
		&ord.FolioNote,
	)
	if err != nil {
		return domain.Order{}, err
	}

	ord.Status = domain.OrderStatus(status)
	if actualKg.Valid {
		ord.ActualKg = &actualKg.Float64
	}
	if unitPrice.Valid {
		ord.UnitPrice = &unitPrice.Float64
	}
	if total.Valid {
		ord.Total = &total.Float64
	}
	if visitOrder.Valid {
		v := int(visitOrder.Int64)
		ord.VisitOrder = &v
	}
	if lat.Valid && lng.Valid {
		ord.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		ord.DeliveredAt = &t
	}

	return ord, nil
}
