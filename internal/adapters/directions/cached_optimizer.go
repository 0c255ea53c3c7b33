package directions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/obs"
	"pharmacy-route-service/internal/ports"

	"golang.org/x/sync/singleflight"
)

// CachedOptimizer memoizes successful optimizations of another optimizer
// and collapses identical concurrent requests into one upstream call.
// Failures are never cached. Cache errors are logged and bypassed.
type CachedOptimizer struct {
	next  ports.RouteOptimizer
	cache ports.RouteCache
	group singleflight.Group
}

var _ ports.RouteOptimizer = (*CachedOptimizer)(nil)

func NewCachedOptimizer(next ports.RouteOptimizer, cache ports.RouteCache) *CachedOptimizer {
	return &CachedOptimizer{next: next, cache: cache}
}

// RouteKey identifies an optimization request. The stop order is part of
// the key because the last stop is sent as the nominal destination.
func RouteKey(origin string, stops domain.StopSet) string {
	h := sha256.New()
	h.Write([]byte(normalize(origin)))
	for _, s := range stops {
		h.Write([]byte{0})
		h.Write([]byte(s.OrderID))
		h.Write([]byte{1})
		h.Write([]byte(normalize(s.Address)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedOptimizer) Optimize(ctx context.Context, origin string, stops domain.StopSet) (*domain.OptimizedRoute, error) {
	if len(stops) == 0 {
		return domain.EmptyOptimizedRoute(), nil
	}

	key := RouteKey(origin, stops)

	if c.cache != nil {
		hit, err := c.cache.Get(ctx, key)
		if err != nil {
			log.Printf("req_id=%s route cache read failed: %v", obs.RequestID(ctx), err)
		} else if hit != nil {
			return hit, nil
		}
	}

	// The shared call is detached from any single caller's cancellation;
	// the wrapped optimizer bounds it with its own timeout. Each caller
	// still stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		route, err := c.next.Optimize(shared, origin, stops)
		if err != nil {
			return nil, err
		}

		if c.cache != nil {
			if err := c.cache.Put(shared, key, route); err != nil {
				log.Printf("req_id=%s route cache write failed: %v", obs.RequestID(shared), err)
			}
		}
		return route, nil
	})

	select {
	case <-ctx.Done():
		return nil, &domain.OptimizationError{Status: "CANCELLED", Message: "request cancelled", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.OptimizedRoute), nil
	}
}
