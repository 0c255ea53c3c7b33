package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/obs"
	"pharmacy-route-service/internal/ports"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const routeKeyPrefix = "route:v1:"

type cachedRoute struct {
	Stops           []domain.RouteStop `json:"stops"`
	DistanceMeters  int                `json:"distance_meters"`
	DurationSeconds int                `json:"duration_seconds"`
	EncodedPath     string             `json:"encoded_path"`
}

// RedisRouteCache stores optimization results with a fixed TTL so that
// repeated dashboard loads do not hit the directions service.
type RedisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.RouteCache = (*RedisRouteCache)(nil)

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{client: client, ttl: ttl}
}

// OpenRedis connects to the server described by a redis:// URL.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("open redis: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("open redis: ping: %w", err)
	}
	return client, nil
}

func (c *RedisRouteCache) Get(ctx context.Context, key string) (_ *domain.OptimizedRoute, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	b, err := c.client.Get(ctx, routeKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get route cache: %w", err)
	}

	var cr cachedRoute
	if err := json.Unmarshal(b, &cr); err != nil {
		return nil, fmt.Errorf("get route cache: decode %q: %w", key, err)
	}

	return &domain.OptimizedRoute{
		Stops:           cr.Stops,
		DistanceMeters:  cr.DistanceMeters,
		DurationSeconds: cr.DurationSeconds,
		EncodedPath:     cr.EncodedPath,
	}, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, key string, route *domain.OptimizedRoute) error {
	if route == nil {
		return errors.New("put route cache: route is nil")
	}

	b, err := json.Marshal(cachedRoute{
		Stops:           route.Stops,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		EncodedPath:     route.EncodedPath,
	})
	if err != nil {
		return fmt.Errorf("put route cache: encode: %w", err)
	}

	if err := c.client.Set(ctx, routeKeyPrefix+key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("put route cache: %w", err)
	}
	return nil
}
