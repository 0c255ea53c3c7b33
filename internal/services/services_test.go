package services

import (
	"context"
	"errors"
	"time"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/ports"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func order(id string, status domain.OrderStatus, courierID string, minutes int) domain.Order {
	o := domain.Order{
		ID:               id,
		Client:           domain.Client{ID: "cl-" + id, FullName: "Client " + id},
		DeliveryLocation: domain.DeliveryLocation{Address: "Address " + id},
		Status:           status,
		CreatedAt:        t0.Add(time.Duration(minutes) * time.Minute),
	}
	if courierID != "" {
		o.AssignedTo = &domain.CourierRef{ID: courierID, Name: "Courier " + courierID}
	}
	return o
}

func ids(orders []domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

type optimizerFunc func(ctx context.Context, origin string, stops domain.StopSet) (*domain.OptimizedRoute, error)

func (f optimizerFunc) Optimize(ctx context.Context, origin string, stops domain.StopSet) (*domain.OptimizedRoute, error) {
	return f(ctx, origin, stops)
}

type fakeRepo struct {
	orders    []domain.Order
	couriers  []domain.Courier
	settings  ports.PharmacySettings
	ordersErr error
	setErr    error
	byCourier []string
}

func (f *fakeRepo) ListOrders(context.Context) ([]domain.Order, error) {
	return append([]domain.Order(nil), f.orders...), f.ordersErr
}

func (f *fakeRepo) ListOrdersByCourier(_ context.Context, courierID string) ([]domain.Order, error) {
	f.byCourier = append(f.byCourier, courierID)
	var out []domain.Order
	for _, o := range f.orders {
		if o.AssignedTo != nil && o.AssignedTo.ID == courierID {
			out = append(out, o)
		}
	}
	return out, f.ordersErr
}

func (f *fakeRepo) ListCouriers(context.Context) ([]domain.Courier, error) {
	return f.couriers, nil
}

func (f *fakeRepo) GetPharmacySettings(context.Context) (ports.PharmacySettings, error) {
	return f.settings, f.setErr
}

type fakeGeocoder struct {
	p   domain.LatLng
	err error
}

func (g fakeGeocoder) Geocode(context.Context, string) (domain.LatLng, error) {
	return g.p, g.err
}

var errUpstream = errors.New("upstream down")
