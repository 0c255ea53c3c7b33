package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/obs"
	"pharmacy-route-service/internal/ports"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DefaultPharmacyLocation is used when the pharmacy address cannot be geocoded.
var DefaultPharmacyLocation = domain.LatLng{Lat: 4.60971, Lng: -74.08175}

type DashboardDeps struct {
	Orders    ports.OrderRepository
	Couriers  ports.CourierRepository
	Settings  ports.SettingsRepository
	Geocoder  ports.Geocoder
	Assembler *Assembler
	// Used when no pharmacy settings are stored.
	FallbackAddress string
}

// DashboardPlan is everything the map needs for one viewer.
type DashboardPlan struct {
	Pharmacy domain.Location    `json:"pharmacy"`
	Routes   []domain.RouteInfo `json:"routes"`
	Pending  []domain.Order     `json:"pending"`
}

// PendingPlan is the prospective route through unassigned orders.
// EncodedPath is nil when optimization failed.
type PendingPlan struct {
	Orders      []domain.Order       `json:"orders"`
	EncodedPath *string              `json:"encoded_path"`
	Summary     *domain.RouteSummary `json:"summary,omitempty"`
}

// Build the dashboard for a viewer. Couriers only see their own route and
// never pending orders.
func PlanDashboard(ctx context.Context, viewer domain.Viewer, deps DashboardDeps) (_ *DashboardPlan, err error) {
	defer obs.Time(ctx, "dashboard.Plan")(&err)

	if deps.Orders == nil || deps.Settings == nil || deps.Assembler == nil {
		return nil, errors.New("plan dashboard: missing dependencies")
	}
	if viewer.IsCourier() && strings.TrimSpace(viewer.ID) == "" {
		return nil, errors.New("plan dashboard: courier viewer requires an id")
	}

	var (
		orders   []domain.Order
		couriers []domain.Courier
		settings ports.PharmacySettings
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if viewer.IsCourier() {
			orders, err = deps.Orders.ListOrdersByCourier(gctx, viewer.ID)
		} else {
			orders, err = deps.Orders.ListOrders(gctx)
		}
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if viewer.IsCourier() {
			couriers = []domain.Courier{viewer.Courier()}
			return nil
		}
		if deps.Couriers == nil {
			return errors.New("list couriers: no courier repository")
		}
		var err error
		couriers, err = deps.Couriers.ListCouriers(gctx)
		if err != nil {
			return fmt.Errorf("list couriers: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		settings, err = pharmacySettings(gctx, deps)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("plan dashboard: %w", err)
	}

	pharmacy := LocatePharmacy(ctx, deps.Geocoder, settings.Address)

	var pending []domain.Order
	if viewer.IsCourier() {
		pending = []domain.Order{}
	} else {
		pending = PendingOrders(orders)
	}

	routes := deps.Assembler.Assemble(ctx, pharmacy, GroupOrders(orders), couriers)

	return &DashboardPlan{Pharmacy: pharmacy, Routes: routes, Pending: pending}, nil
}

// PlanPending optimizes the pending orders as one prospective route from
// the pharmacy. When orderIDs is non-empty only those pending orders are
// planned.
func PlanPending(ctx context.Context, deps DashboardDeps, orderIDs []string) (_ domain.Location, _ PendingPlan, err error) {
	defer obs.Time(ctx, "dashboard.PlanPending")(&err)

	if deps.Orders == nil || deps.Settings == nil || deps.Assembler == nil {
		return domain.Location{}, PendingPlan{}, errors.New("plan pending: missing dependencies")
	}

	settings, err := pharmacySettings(ctx, deps)
	if err != nil {
		return domain.Location{}, PendingPlan{}, fmt.Errorf("plan pending: %w", err)
	}

	orders, err := deps.Orders.ListOrders(ctx)
	if err != nil {
		return domain.Location{}, PendingPlan{}, fmt.Errorf("plan pending: list orders: %w", err)
	}

	pending := PendingOrders(orders)
	if len(orderIDs) > 0 {
		want := lo.SliceToMap(orderIDs, func(id string) (string, struct{}) { return id, struct{}{} })
		pending = lo.Filter(pending, func(o domain.Order, _ int) bool {
			_, ok := want[o.ID]
			return ok
		})
	}

	pharmacy := LocatePharmacy(ctx, deps.Geocoder, settings.Address)
	return pharmacy, deps.Assembler.OptimizePending(ctx, pharmacy, pending), nil
}

func pharmacySettings(ctx context.Context, deps DashboardDeps) (ports.PharmacySettings, error) {
	settings, err := deps.Settings.GetPharmacySettings(ctx)
	if err == nil {
		return settings, nil
	}
	if deps.FallbackAddress == "" {
		return ports.PharmacySettings{}, fmt.Errorf("get pharmacy settings: %w", err)
	}

	log.Printf("req_id=%s pharmacy settings unavailable, using fallback address: %v", obs.RequestID(ctx), err)
	return ports.PharmacySettings{Address: deps.FallbackAddress}, nil
}

// LocatePharmacy geocodes the pharmacy address, falling back to
// DefaultPharmacyLocation on any failure.
func LocatePharmacy(ctx context.Context, geocoder ports.Geocoder, address string) domain.Location {
	loc := domain.Location{Address: address, LatLng: DefaultPharmacyLocation}
	if geocoder == nil || strings.TrimSpace(address) == "" {
		return loc
	}

	p, err := geocoder.Geocode(ctx, address)
	if err != nil {
		log.Printf("req_id=%s could not geocode pharmacy address %q, using default location: %v",
			obs.RequestID(ctx), address, err)
		return loc
	}

	loc.LatLng = p
	return loc
}

// OptimizePending plans the unassigned orders as one prospective route
// from origin. On failure the orders are returned unchanged without a path.
func (a *Assembler) OptimizePending(ctx context.Context, origin domain.Location, pending []domain.Order) PendingPlan {
	if len(pending) == 0 {
		return PendingPlan{Orders: []domain.Order{}}
	}

	optimized, err := a.optimize(ctx, origin.Address, pending)
	if err != nil {
		log.Printf("req_id=%s optimize pending: orders=%d optimization failed: %v",
			obs.RequestID(ctx), len(pending), err)
		return PendingPlan{Orders: pending}
	}

	path := optimized.EncodedPath
	return PendingPlan{
		Orders:      reorder(pending, optimized.Stops),
		EncodedPath: &path,
		Summary:     optimized.Summary(),
	}
}
