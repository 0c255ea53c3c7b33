package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/db"
	"pharmacy-route-service/internal/platform/obs"
	"pharmacy-route-service/internal/ports"
)

// SQL-backed read-only implementation of the order, courier and settings ports.
type SQLRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

var (
	_ ports.OrderRepository    = (*SQLRepository)(nil)
	_ ports.CourierRepository  = (*SQLRepository)(nil)
	_ ports.SettingsRepository = (*SQLRepository)(nil)
)

func NewSQLRepository(conn *sql.DB, dialect db.Dialect) *SQLRepository {
	return &SQLRepository{DB: conn, Dialect: dialect}
}

const selectOrders = `
	SELECT
		o.id,
		o.client_id,
		o.client_name,
		o.client_phone,
		o.address,
		o.lat,
		o.lng,
		o.total,
		o.payment_method,
		o.status,
		o.courier_id,
		COALESCE(c.name, ''),
		o.created_at_ms
	FROM orders o
	LEFT JOIN couriers c ON c.id = o.courier_id
	`

// Return all orders ordered by creation time.
func (s *SQLRepository) ListOrders(ctx context.Context) (_ []domain.Order, err error) {
	defer obs.Time(ctx, "orders.ListOrders")(&err)

	orders, err := s.queryOrders(ctx, selectOrders+` ORDER BY o.created_at_ms, o.id;`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Return the orders assigned to one courier ordered by creation time.
func (s *SQLRepository) ListOrdersByCourier(ctx context.Context, courierID string) (_ []domain.Order, err error) {
	defer obs.Time(ctx, "orders.ListOrdersByCourier")(&err)

	if courierID == "" {
		return nil, errors.New("list orders by courier: courier id must not be empty")
	}

	orders, err := s.queryOrders(ctx,
		selectOrders+` WHERE o.courier_id = ? ORDER BY o.created_at_ms, o.id;`,
		courierID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders by courier %s: %w", courierID, err)
	}
	return orders, nil
}

func (s *SQLRepository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("sql repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, db.Rebind(s.Dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 64)
	for rows.Next() {
		var (
			o           domain.Order
			lat, lng    sql.NullFloat64
			status      string
			courierID   sql.NullString
			courierName string
			createdAtMs int64
		)
		err := rows.Scan(
			&o.ID,
			&o.Client.ID,
			&o.Client.FullName,
			&o.Client.Phone,
			&o.DeliveryLocation.Address,
			&lat,
			&lng,
			&o.Total,
			&o.PaymentMethod,
			&status,
			&courierID,
			&courierName,
			&createdAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		if lat.Valid && lng.Valid {
			o.DeliveryLocation.Lat = &lat.Float64
			o.DeliveryLocation.Lng = &lng.Float64
		}
		o.Status = domain.OrderStatus(status)
		if courierID.Valid && courierID.String != "" {
			o.AssignedTo = &domain.CourierRef{ID: courierID.String, Name: courierName}
		}
		o.CreatedAt = time.UnixMilli(createdAtMs).UTC()

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return orders, nil
}

// Return every courier with the delivery role.
func (s *SQLRepository) ListCouriers(ctx context.Context) (_ []domain.Courier, err error) {
	defer obs.Time(ctx, "couriers.ListCouriers")(&err)

	if s.DB == nil {
		return nil, errors.New("sql repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, db.Rebind(s.Dialect, `
	SELECT id, name, role
	FROM couriers
	WHERE role = ?
	ORDER BY id;
	`), string(domain.RoleDelivery))
	if err != nil {
		return nil, fmt.Errorf("list couriers: query couriers table: %w", err)
	}
	defer rows.Close()

	couriers := make([]domain.Courier, 0, 16)
	for rows.Next() {
		var c domain.Courier
		var role string
		if err := rows.Scan(&c.ID, &c.Name, &role); err != nil {
			return nil, fmt.Errorf("list couriers: scan row: %w", err)
		}
		c.Role = domain.Role(role)
		couriers = append(couriers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list couriers: row iteration: %w", err)
	}

	return couriers, nil
}

// ErrSettingsNotFound is returned when no pharmacy settings row exists.
var ErrSettingsNotFound = errors.New("pharmacy settings not found")

func (s *SQLRepository) GetPharmacySettings(ctx context.Context) (ports.PharmacySettings, error) {
	if s.DB == nil {
		return ports.PharmacySettings{}, errors.New("sql repository: DB is nil")
	}

	var out ports.PharmacySettings
	err := s.DB.QueryRowContext(ctx, `SELECT name, address FROM pharmacy_settings WHERE id = 1;`).
		Scan(&out.Name, &out.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.PharmacySettings{}, ErrSettingsNotFound
	}
	if err != nil {
		return ports.PharmacySettings{}, fmt.Errorf("get pharmacy settings: %w", err)
	}

	return out, nil
}
