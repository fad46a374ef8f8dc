package services

import (
	"dispatch-route-service/internal/domain"
	"math"
)

// PositionStatus describes how a route position was resolved.
type PositionStatus int

const (
	// PositionNoMovement means the route cannot place the vehicle; keep the previous position.
	PositionNoMovement PositionStatus = iota
	// PositionMoved means the coordinate lies on the route.
	PositionMoved
	// PositionEndOfRoute means the vehicle has reached the route's terminal coordinate.
	PositionEndOfRoute
)

func (s PositionStatus) String() string {
	switch s {
	case PositionMoved:
		return "moved"
	case PositionEndOfRoute:
		return "end_of_route"
	default:
		return "no_movement"
	}
}

// RoutePosition is the resolved location of a vehicle on its route.
type RoutePosition struct {
	Coordinate domain.Coordinate
	LegIndex   int
	StepIndex  int
	Heading    float64
	Status     PositionStatus
}

// LocateOnRoute maps a progress fraction onto a route.
//
// The target distance is route.Length * p. Legs are walked in order and the
// first leg whose running total reaches the target is selected; steps within
// that leg are selected with the same rule. The coordinate is interpolated
// along the selected step's polyline by the share of the step distance
// consumed. The function is pure and never panics on degenerate routes.
func LocateOnRoute(route *domain.Route, p float64) RoutePosition {
	if route == nil || len(route.Legs) == 0 {
		return RoutePosition{Status: PositionNoMovement}
	}

	if p <= 0 || math.IsNaN(p) {
		return startOfRoute(route)
	}
	if p >= 1 {
		return endOfRoute(route)
	}

	target := route.Length * p

	acc := 0.0
	for li, leg := range route.Legs {
		if acc+leg.Distance < target {
			acc += leg.Distance
			continue
		}

		if len(leg.Steps) == 0 {
			return RoutePosition{LegIndex: li, Status: PositionNoMovement}
		}

		stepAcc := acc
		for si, step := range leg.Steps {
			if stepAcc+step.Distance < target {
				stepAcc += step.Distance
				continue
			}
			return positionInStep(li, si, step, target-stepAcc)
		}

		// Leg distance exceeds the sum of its steps: hold at the end of the leg.
		si := len(leg.Steps) - 1
		return positionInStep(li, si, leg.Steps[si], leg.Steps[si].Distance)
	}

	// Accumulated leg distances never reached the target.
	return endOfRoute(route)
}

func startOfRoute(route *domain.Route) RoutePosition {
	leg := route.Legs[0]
	if len(leg.Steps) == 0 || len(leg.Steps[0].Coordinates) == 0 {
		return RoutePosition{Status: PositionNoMovement}
	}
	return positionInStep(0, 0, leg.Steps[0], 0)
}

// endOfRoute resolves the terminal coordinate: the last point of the last
// non-empty step.
func endOfRoute(route *domain.Route) RoutePosition {
	for li := len(route.Legs) - 1; li >= 0; li-- {
		steps := route.Legs[li].Steps
		for si := len(steps) - 1; si >= 0; si-- {
			coords := steps[si].Coordinates
			if len(coords) == 0 {
				continue
			}
			pos := RoutePosition{
				Coordinate: coords[len(coords)-1],
				LegIndex:   li,
				StepIndex:  si,
				Status:     PositionEndOfRoute,
			}
			if len(coords) > 1 {
				pos.Heading = domain.Bearing(coords[len(coords)-2], coords[len(coords)-1])
			}
			return pos
		}
	}
	return RoutePosition{Status: PositionNoMovement}
}

// positionInStep interpolates offset meters into the step.
func positionInStep(li, si int, step domain.Step, offset float64) RoutePosition {
	coords := step.Coordinates
	if len(coords) == 0 {
		return RoutePosition{LegIndex: li, StepIndex: si, Status: PositionNoMovement}
	}

	pos := RoutePosition{LegIndex: li, StepIndex: si, Status: PositionMoved}
	if len(coords) == 1 {
		pos.Coordinate = coords[0]
		return pos
	}

	fraction := 0.0
	if step.Distance > 0 {
		fraction = clamp(offset/step.Distance, 0, 1)
	}

	pos.Coordinate, pos.Heading = alongPolyline(coords, fraction)
	return pos
}

// alongPolyline returns the point at fraction of the polyline's geodesic
// length, and the bearing of the segment it falls on.
func alongPolyline(coords []domain.Coordinate, fraction float64) (domain.Coordinate, float64) {
	segments := make([]float64, len(coords)-1)
	total := 0.0
	for i := 1; i < len(coords); i++ {
		segments[i-1] = domain.DistanceMeters(coords[i-1], coords[i])
		total += segments[i-1]
	}

	// All points coincide; fall back to index spacing.
	if total == 0 {
		idx := int(math.Round(fraction * float64(len(coords)-1)))
		return coords[idx], 0
	}

	want := total * fraction
	acc := 0.0
	for i, seg := range segments {
		if acc+seg >= want && seg > 0 {
			f := (want - acc) / seg
			return domain.Interpolate(coords[i], coords[i+1], f), domain.Bearing(coords[i], coords[i+1])
		}
		acc += seg
	}

	last := len(coords) - 1
	return coords[last], domain.Bearing(coords[last-1], coords[last])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
