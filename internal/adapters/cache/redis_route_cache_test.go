package cache

import (
	"context"
	"testing"
	"time"

	"pharmacy-route-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRouteCacheRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewRedisRouteCache(client, time.Minute)
	ctx := context.Background()

	miss, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	route := &domain.OptimizedRoute{
		Stops:           []domain.RouteStop{{OrderID: "o2", StopNumber: 1}, {OrderID: "o1", StopNumber: 2}},
		DistanceMeters:  3500,
		DurationSeconds: 150,
		EncodedPath:     "_p~iF~ps|U",
	}
	require.NoError(t, c.Put(ctx, "k1", route))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, route, got)
}

func TestRedisRouteCacheExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisRouteCache(client, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", &domain.OptimizedRoute{Stops: []domain.RouteStop{{OrderID: "a", StopNumber: 1}}}))
	assert.True(t, mr.Exists(routeKeyPrefix+"k1"))

	mr.FastForward(11 * time.Minute)

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisRouteCacheCorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisRouteCache(client, time.Minute)

	require.NoError(t, mr.Set(routeKeyPrefix+"bad", "not json"))

	_, err := c.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = OpenRedis(context.Background(), "://bad")
	assert.Error(t, err)
}
