package ports

import (
	"context"
	"pharmacy-route-service/internal/domain"
)

// Contract for an external waypoint-optimization service.
type RouteOptimizer interface {
	// Return the best visiting order for stops starting at origin.
	// Implementations fail with *domain.ConfigurationError or
	// *domain.OptimizationError.
	Optimize(ctx context.Context, origin string, stops domain.StopSet) (*domain.OptimizedRoute, error)
}

// Contract for resolving an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.LatLng, error)
}
