package ports

import (
	"context"
	"pharmacy-route-service/internal/domain"
)

// Cache of optimization results keyed by origin and stop set.
// Get returns (nil, nil) on a miss.
type RouteCache interface {
	Get(ctx context.Context, key string) (*domain.OptimizedRoute, error)
	Put(ctx context.Context, key string, route *domain.OptimizedRoute) error
}

// Cache mapping addresses to coordinates.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.LatLng, error)
	PutMany(ctx context.Context, results map[string]domain.LatLng) error
}
