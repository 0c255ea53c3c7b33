package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/obs"
	"pharmacy-route-service/internal/ports"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DefaultPalette holds the route colors assigned round-robin to courier groups.
var DefaultPalette = []string{"#2563eb", "#16a34a", "#f59e0b", "#dc2626", "#9333ea"}

const defaultAssembleLimit = 4

// Assembler turns courier groups into render-ready routes, optimizing each
// group independently.
type Assembler struct {
	Optimizer ports.RouteOptimizer
	Palette   []string
	// Maximum number of concurrent optimizer calls.
	Limit int
}

func NewAssembler(optimizer ports.RouteOptimizer, limit int) *Assembler {
	return &Assembler{Optimizer: optimizer, Palette: DefaultPalette, Limit: limit}
}

// Assemble optimizes every non-empty group whose courier is known and
// returns one RouteInfo per group in group order. Optimizer failures
// never reach the caller: the affected route keeps its creation order and
// carries no path.
func (a *Assembler) Assemble(
	ctx context.Context,
	origin domain.Location,
	groups []CourierGroup,
	couriers []domain.Courier,
) []domain.RouteInfo {
	known := lo.KeyBy(couriers, func(c domain.Courier) string { return c.ID })

	palette := a.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	limit := a.Limit
	if limit <= 0 {
		limit = defaultAssembleLimit
	}

	results := make([]*domain.RouteInfo, len(groups))

	var g errgroup.Group
	g.SetLimit(limit)

	for i, group := range groups {
		courier, ok := known[group.CourierID]
		if !ok || len(group.Orders) == 0 {
			continue
		}

		color := palette[i%len(palette)]

		g.Go(func() error {
			route := a.assembleOne(ctx, origin, courier, group.Orders, color)
			results[i] = &route
			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()

	routes := make([]domain.RouteInfo, 0, len(groups))
	for _, r := range results {
		if r != nil {
			routes = append(routes, *r)
		}
	}

	return routes
}

func (a *Assembler) assembleOne(
	ctx context.Context,
	origin domain.Location,
	courier domain.Courier,
	orders []domain.Order,
	color string,
) domain.RouteInfo {
	fallback := domain.RouteInfo{
		Courier: courier,
		Orders:  orders,
		Color:   color,
		Origin:  origin,
	}

	optimized, err := a.optimize(ctx, origin.Address, orders)
	if err != nil {
		log.Printf(
			"req_id=%s assemble: courier=%s orders=%d optimization failed, using creation order: %v",
			obs.RequestID(ctx), courier.ID, len(orders), err,
		)
		return fallback
	}

	path := optimized.EncodedPath
	return domain.RouteInfo{
		Courier:     courier,
		Orders:      reorder(orders, optimized.Stops),
		Color:       color,
		Origin:      origin,
		EncodedPath: &path,
		Summary:     optimized.Summary(),
	}
}

// optimize calls the optimizer and converts a panic into an error so one
// courier cannot take down the whole pass.
func (a *Assembler) optimize(ctx context.Context, origin string, orders []domain.Order) (route *domain.OptimizedRoute, err error) {
	defer func() {
		if r := recover(); r != nil {
			route, err = nil, fmt.Errorf("optimizer panic: %v", r)
		}
	}()

	if a.Optimizer == nil {
		return nil, &domain.ConfigurationError{Reason: "no route optimizer"}
	}

	stops := make(domain.StopSet, len(orders))
	for i, o := range orders {
		stops[i] = o.Stop()
	}

	route, err = a.Optimizer.Optimize(ctx, origin, stops)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, fmt.Errorf("optimizer returned no route")
	}
	return route, nil
}

// reorder arranges orders by stop number. Stops naming unknown orders are
// dropped.
func reorder(orders []domain.Order, stops []domain.RouteStop) []domain.Order {
	byID := lo.KeyBy(orders, func(o domain.Order) string { return o.ID })

	out := make([]domain.Order, 0, len(stops))
	for _, s := range sortedStops(stops) {
		if o, ok := byID[s.OrderID]; ok {
			out = append(out, o)
		}
	}
	return out
}

func sortedStops(stops []domain.RouteStop) []domain.RouteStop {
	out := append([]domain.RouteStop(nil), stops...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StopNumber < out[j].StopNumber })
	return out
}
