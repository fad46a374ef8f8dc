package routing

import (
	"context"
	"dispatch-route-service/internal/domain"
	"sync"
)

type MockCall struct {
	Start, End domain.Coordinate
}

// MockRouteProvider returns straight-line routes without network access.
// Failures and blocking can be scripted per destination.
type MockRouteProvider struct {
	mu      sync.Mutex
	calls   []MockCall
	failFor map[domain.Coordinate]error
	gate    chan struct{}
}

func NewMockRouteProvider() *MockRouteProvider {
	return &MockRouteProvider{failFor: make(map[domain.Coordinate]error)}
}

// FailFor makes every request ending at dest return err.
func (p *MockRouteProvider) FailFor(dest domain.Coordinate, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failFor[dest] = err
}

// Block holds subsequent requests until Release is called or their context ends.
func (p *MockRouteProvider) Block() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gate = make(chan struct{})
}

func (p *MockRouteProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil {
		close(p.gate)
		p.gate = nil
	}
}

func (p *MockRouteProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MockCall(nil), p.calls...)
}

func (p *MockRouteProvider) GetRoute(ctx context.Context, start, end domain.Coordinate) (*domain.Route, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Start: start, End: end})
	gate := p.gate
	err := p.failFor[end]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	return StraightRoute(start, end)
}

// StraightRoute builds a single-leg route of two equal steps between start and end.
func StraightRoute(start, end domain.Coordinate) (*domain.Route, error) {
	mid := domain.Interpolate(start, end, 0.5)
	half := domain.DistanceMeters(start, end) / 2

	legs := []domain.Leg{{
		Distance: half * 2,
		Steps: []domain.Step{
			{Distance: half, Coordinates: []domain.Coordinate{start, mid}},
			{Distance: half, Coordinates: []domain.Coordinate{mid, end}},
		},
	}}

	return domain.NewRoute(start, end, legs, nil)
}
