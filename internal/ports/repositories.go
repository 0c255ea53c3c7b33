package ports

import (
	"context"
	"pharmacy-route-service/internal/domain"
)

// Port: read-only access to orders.
type OrderRepository interface {
	// Retrieve every order, newest last.
	ListOrders(ctx context.Context) ([]domain.Order, error)
	// Retrieve the orders assigned to one courier.
	ListOrdersByCourier(ctx context.Context, courierID string) ([]domain.Order, error)
}

// Port: read-only access to staff who deliver orders.
type CourierRepository interface {
	ListCouriers(ctx context.Context) ([]domain.Courier, error)
}

type PharmacySettings struct {
	Name    string
	Address string
}

// Port: pharmacy-wide settings such as the route origin address.
type SettingsRepository interface {
	GetPharmacySettings(ctx context.Context) (PharmacySettings, error)
}
