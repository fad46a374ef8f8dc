package services

import (
	"dispatch-route-service/internal/domain"
	"time"
)

// Pace decides how far along its route a vehicle moves per tick.
type Pace interface {
	Increment(route *domain.Route, tickDelta time.Duration) float64
}

// FixedPace advances every vehicle by the same fraction per tick, regardless
// of route length or elapsed time.
type FixedPace struct {
	Fraction float64
}

func (p FixedPace) Increment(_ *domain.Route, _ time.Duration) float64 {
	return p.Fraction
}

// SpeedPace derives the increment from a constant travel speed, so longer
// routes take proportionally longer to traverse.
type SpeedPace struct {
	MetersPerSecond float64
}

func (p SpeedPace) Increment(route *domain.Route, tickDelta time.Duration) float64 {
	if route == nil || route.Length <= 0 {
		return 1
	}
	return p.MetersPerSecond * tickDelta.Seconds() / route.Length
}
