package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/db"

	"github.com/goccy/go-json"
)

// Initialize the database schema. The statements are valid for both
// SQLite and PostgreSQL.
func InitSchema(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createCouriersQuery := `
	CREATE TABLE IF NOT EXISTS couriers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		client_name TEXT NOT NULL,
		client_phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		total DOUBLE PRECISION NOT NULL DEFAULT 0,
		payment_method TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		courier_id TEXT REFERENCES couriers(id),
		created_at_ms BIGINT NOT NULL
	);
	`

	createSettingsQuery := `
	CREATE TABLE IF NOT EXISTS pharmacy_settings (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lat DOUBLE PRECISION NOT NULL,
        lng DOUBLE PRECISION NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_courier_status
    ON orders(courier_id, status);
	`

	statements := []string{
		createCouriersQuery,
		createOrdersQuery,
		createSettingsQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type PharmacySeed struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Seed is the JSON document loaded by SeedFromJSON.
type Seed struct {
	Pharmacy PharmacySeed     `json:"pharmacy"`
	Couriers []domain.Courier `json:"couriers"`
	Orders   []domain.Order   `json:"orders"`
}

// Populate the database with demo data from a JSON file.
func SeedFromJSON(ctx context.Context, conn *sql.DB, dialect db.Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	return SeedData(ctx, conn, dialect, data)
}

// SeedData validates and upserts a seed document in one transaction.
func SeedData(ctx context.Context, conn *sql.DB, dialect db.Dialect, data Seed) error {
	for i, c := range data.Couriers {
		if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("seed: courier at index %d: id and name are required", i+1)
		}
	}
	for i, o := range data.Orders {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("seed: order at index %d: %w", i+1, err)
		}
		if strings.TrimSpace(o.DeliveryLocation.Address) == "" {
			return fmt.Errorf("seed: order at index %d: address cannot be empty", i+1)
		}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if addr := strings.TrimSpace(data.Pharmacy.Address); addr != "" {
		if _, err := tx.ExecContext(ctx, db.Rebind(dialect, `
		INSERT INTO pharmacy_settings (id, name, address)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET name = excluded.name,
			address = excluded.address;
		`), data.Pharmacy.Name, addr); err != nil {
			return fmt.Errorf("seed: upsert pharmacy settings: %w", err)
		}
	}

	courierStmt, err := tx.PrepareContext(ctx, db.Rebind(dialect, `
	INSERT INTO couriers (id, name, role)
	VALUES (?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET name = excluded.name,
		role = excluded.role;
	`))
	if err != nil {
		return fmt.Errorf("seed: prepare courier insert: %w", err)
	}
	defer courierStmt.Close()

	for _, c := range data.Couriers {
		role := c.Role
		if role == "" {
			role = domain.RoleDelivery
		}
		if _, err := courierStmt.ExecContext(ctx, c.ID, c.Name, string(role)); err != nil {
			return fmt.Errorf("seed: insert courier id=%s: %w", c.ID, err)
		}
	}

	orderStmt, err := tx.PrepareContext(ctx, db.Rebind(dialect, `
	INSERT INTO orders (
		id, client_id, client_name, client_phone, address, lat, lng,
		total, payment_method, status, courier_id, created_at_ms
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET client_id = excluded.client_id,
		client_name = excluded.client_name,
		client_phone = excluded.client_phone,
		address = excluded.address,
		lat = excluded.lat,
		lng = excluded.lng,
		total = excluded.total,
		payment_method = excluded.payment_method,
		status = excluded.status,
		courier_id = excluded.courier_id,
		created_at_ms = excluded.created_at_ms;
	`))
	if err != nil {
		return fmt.Errorf("seed: prepare order insert: %w", err)
	}
	defer orderStmt.Close()

	for _, o := range data.Orders {
		var courierID sql.NullString
		if o.AssignedTo != nil {
			courierID = sql.NullString{String: o.AssignedTo.ID, Valid: true}
		}

		if _, err := orderStmt.ExecContext(ctx,
			o.ID,
			o.Client.ID,
			o.Client.FullName,
			o.Client.Phone,
			strings.TrimSpace(o.DeliveryLocation.Address),
			nullFloat(o.DeliveryLocation.Lat),
			nullFloat(o.DeliveryLocation.Lng),
			o.Total,
			o.PaymentMethod,
			string(o.Status),
			courierID,
			o.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("seed: insert order id=%s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
