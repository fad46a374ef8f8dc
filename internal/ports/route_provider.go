package ports

import (
	"context"
	"dispatch-route-service/internal/domain"
	"errors"
)

var (
	// ErrNoRoute is returned when the provider finds no drivable path.
	ErrNoRoute = errors.New("no route between coordinates")
	// ErrMalformedResponse is returned when a provider payload fails validation.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Contract for retrieving a driving route between two coordinates.
type RouteProvider interface {
	// Return the driving route from start to end, decomposed into legs and steps.
	GetRoute(ctx context.Context, start, end domain.Coordinate) (*domain.Route, error)
}

// Optional persistent store for previously fetched routes, keyed by route key.
type RouteCache interface {
	GetRoute(ctx context.Context, key string) (*domain.Route, bool, error)
	PutRoute(ctx context.Context, route *domain.Route) error
}
