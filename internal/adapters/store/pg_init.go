package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the Postgres schema for the self-hosted order store.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createClientsQuery := `
	CREATE TABLE IF NOT EXISTS clients (
		client_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		zone TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		sales_counter INTEGER NOT NULL DEFAULT 0
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		route_date DATE NOT NULL,
		client_id TEXT NOT NULL REFERENCES clients(client_id),
		product TEXT NOT NULL,
		requested_kg DOUBLE PRECISION NOT NULL,
		actual_kg DOUBLE PRECISION,
		unit_price DOUBLE PRECISION,
		total DOUBLE PRECISION,
		status TEXT NOT NULL,
		visit_order INTEGER,
		delivered_at TIMESTAMPTZ
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_route_date
	ON orders(route_date);
	`

	statements := []string{
		createClientsQuery,
		createOrdersQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type clientSeed struct {
	ClientID string   `json:"client_id"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Zone     string   `json:"zone"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

type orderSeed struct {
	OrderID     string   `json:"order_id"`
	RouteDate   string   `json:"route_date"`
	ClientID    string   `json:"client_id"`
	Product     string   `json:"product"`
	RequestedKg float64  `json:"requested_kg"`
	UnitPrice   *float64 `json:"unit_price"`
	Status      string   `json:"status"`
}

type seedFile struct {
	Clients []clientSeed `json:"clients"`
	Orders  []orderSeed  `json:"orders"`
}

// Populate the store with demo clients and orders from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed orders: read %q: %w", jsonPath, err)
	}

	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed orders: parse json: %w", err)
	}

	for i, c := range data.Clients {
		if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("seed orders: client at index %d: id and name are required", i+1)
		}
	}
	for i, o := range data.Orders {
		if strings.TrimSpace(o.OrderID) == "" || strings.TrimSpace(o.ClientID) == "" {
			return fmt.Errorf("seed orders: order at index %d: id and client_id are required", i+1)
		}
		if o.RequestedKg <= 0 {
			return fmt.Errorf("seed orders: order %q: requested_kg must be positive", o.OrderID)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	clientQuery := `
	INSERT INTO clients (client_id, name, phone, zone, lat, lng)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (client_id) DO UPDATE SET
		name = excluded.name,
		phone = excluded.phone,
		zone = excluded.zone,
		lat = excluded.lat,
		lng = excluded.lng;
	`
	for _, c := range data.Clients {
		if _, err := tx.Exec(clientQuery, c.ClientID, c.Name, c.Phone, c.Zone, c.Lat, c.Lng); err != nil {
			return fmt.Errorf("seed orders: insert client %q: %w", c.ClientID, err)
		}
	}

	orderQuery := `
	INSERT INTO orders (order_id, route_date, client_id, product, requested_kg, unit_price, status)
	VALUES ($1, $2::date, $3, $4, $5, $6, $7)
	ON CONFLICT (order_id) DO UPDATE SET
		route_date = excluded.route_date,
		product = excluded.product,
		requested_kg = excluded.requested_kg,
		unit_price = excluded.unit_price,
		status = excluded.status;
	`
	for _, o := range data.Orders {
		status := o.Status
		if status == "" {
			status = "Presale"
		}
		if _, err := tx.Exec(orderQuery, o.OrderID, o.RouteDate, o.ClientID, o.Product, o.RequestedKg, o.UnitPrice, status); err != nil {
			return fmt.Errorf("seed orders: insert order %q: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed orders: commit tx: %w", err)
	}

	return nil
}
