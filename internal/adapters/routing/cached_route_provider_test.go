package routing

import (
	"context"
	"dispatch-route-service/internal/domain"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	routes  map[string]*domain.Route
	readErr error
	putErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{routes: make(map[string]*domain.Route)}
}

func (m *memoryCache) GetRoute(_ context.Context, key string) (*domain.Route, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	r, ok := m.routes[key]
	return r, ok, nil
}

func (m *memoryCache) PutRoute(_ context.Context, r *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.routes[r.Key] = r
	return nil
}

func TestCachedRouteProviderHitAndMiss(t *testing.T) {
	next := NewMockRouteProvider()
	cache := newMemoryCache()
	p, err := NewCachedRouteProvider(next, cache)
	require.NoError(t, err)

	first, err := p.GetRoute(context.Background(), depot, emergency)
	require.NoError(t, err)
	second, err := p.GetRoute(context.Background(), depot, emergency)
	require.NoError(t, err)

	assert.Len(t, next.Calls(), 1)
	assert.Same(t, first, second)
	assert.Contains(t, cache.routes, domain.RouteKey(depot, emergency))
}

func TestCachedRouteProviderToleratesCacheFailures(t *testing.T) {
	next := NewMockRouteProvider()
	cache := newMemoryCache()
	cache.readErr = errors.New("disk gone")
	cache.putErr = errors.New("disk gone")

	p, err := NewCachedRouteProvider(next, cache)
	require.NoError(t, err)

	route, err := p.GetRoute(context.Background(), depot, emergency)
	require.NoError(t, err)
	assert.Equal(t, emergency, route.End)
	assert.Len(t, next.Calls(), 1)
}

func TestCachedRouteProviderPropagatesProviderErrors(t *testing.T) {
	next := NewMockRouteProvider()
	boom := errors.New("boom")
	next.FailFor(emergency, boom)
	cache := newMemoryCache()

	p, err := NewCachedRouteProvider(next, cache)
	require.NoError(t, err)

	_, err = p.GetRoute(context.Background(), depot, emergency)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, cache.routes)
}
