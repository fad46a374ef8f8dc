package routing

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"errors"
	"log"
)

// CachedRouteProvider consults a persistent route cache before delegating
// to the wrapped provider. Cache failures are logged and never fail a lookup.
type CachedRouteProvider struct {
	next  ports.RouteProvider
	cache ports.RouteCache
}

func NewCachedRouteProvider(next ports.RouteProvider, cache ports.RouteCache) (*CachedRouteProvider, error) {
	if next == nil {
		return nil, errors.New("cached route provider: next provider is nil")
	}
	if cache == nil {
		return nil, errors.New("cached route provider: cache is nil")
	}
	return &CachedRouteProvider{next: next, cache: cache}, nil
}

func (c *CachedRouteProvider) GetRoute(
	ctx context.Context,
	start domain.Coordinate,
	end domain.Coordinate,
) (*domain.Route, error) {
	key := domain.RouteKey(start, end)

	cached, ok, err := c.cache.GetRoute(ctx, key)
	if err != nil {
		log.Printf("route cache read failed key=%s err=%v", key, err)
	} else if ok {
		return cached, nil
	}

	route, err := c.next.GetRoute(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutRoute(ctx, route); err != nil {
		log.Printf("route cache write failed key=%s err=%v", key, err)
	}

	return route, nil
}
