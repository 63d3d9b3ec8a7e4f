package routing

import (
	"context"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/platform/obs"
	"route-navigation-service/internal/ports"

	"go.uber.org/zap"
)

// CachedRouter serves repeated coordinate pairs from a SegmentCache before
// calling the wrapped router. Cache failures are logged and bypassed.
type CachedRouter struct {
	next  ports.Router
	cache ports.SegmentCache
}

func NewCachedRouter(next ports.Router, cache ports.SegmentCache) *CachedRouter {
	return &CachedRouter{next: next, cache: cache}
}

// CacheKey identifies a routed pair. Coordinates are rounded to 6 decimals
// (about 0.1 m) so that re-sent positions hit the same entry.
func CacheKey(from, to domain.Coordinate, opts ports.RouteOptions) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f|hw=%t", from.Lat, from.Lon, to.Lat, to.Lon, opts.AllowHighways)
}

func (c *CachedRouter) Route(
	ctx context.Context,
	from domain.Coordinate,
	to domain.Coordinate,
	opts ports.RouteOptions,
) (domain.Directions, error) {
	if c.cache == nil {
		return c.next.Route(ctx, from, to, opts)
	}

	key := CacheKey(from, to, opts)
	if d, ok, err := c.cache.Get(ctx, key); err != nil {
		obs.L().Warn("segment cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return d, nil
	}

	d, err := c.next.Route(ctx, from, to, opts)
	if err != nil {
		return domain.Directions{}, err
	}

	if err := c.cache.Put(ctx, key, d); err != nil {
		obs.L().Warn("segment cache write failed", zap.String("key", key), zap.Error(err))
	}
	return d, nil
}
