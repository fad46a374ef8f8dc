package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRoute is returned when provider data violates route invariants.
var ErrInvalidRoute = errors.New("invalid route")

// Represents the finest-grained segment of a leg.
// Distance is in meters; Coordinates holds at least one point.
type Step struct {
	Distance    float64
	Duration    float64
	Coordinates []Coordinate
}

// Represents a sub-segment of a route between two waypoints.
type Leg struct {
	Distance float64
	Duration float64
	Steps    []Step
}

// Represents a provider-supplied driving path between two points.
//
// A Route is immutable once built by NewRoute: vehicle progress is tracked
// by the owning Resource, never by mutating the Route. Length is the sum of
// leg distances.
type Route struct {
	Key      string
	Start    Coordinate
	End      Coordinate
	Legs     []Leg
	Length   float64
	Duration float64
	Geometry []Coordinate
}

// Deterministic route key derived from start/end coordinates.
func RouteKey(start, end Coordinate) string {
	return fmt.Sprintf("%s-%s:%s-%s",
		formatDegrees(start.Lat), formatDegrees(start.Lon),
		formatDegrees(end.Lat), formatDegrees(end.Lon),
	)
}

// NewRoute validates legs and derives the route length.
//
// When geometry is empty it is rebuilt from the step coordinates so that the
// route always has a renderable path.
func NewRoute(start, end Coordinate, legs []Leg, geometry []Coordinate) (*Route, error) {
	if !start.Valid() || !end.Valid() {
		return nil, fmt.Errorf("new route %s -> %s: %w: coordinate out of range", start, end, ErrInvalidRoute)
	}

	var length, duration float64
	for li, leg := range legs {
		if leg.Distance < 0 || math.IsNaN(leg.Distance) {
			return nil, fmt.Errorf("new route: leg %d: %w: negative distance %v", li, ErrInvalidRoute, leg.Distance)
		}
		for si, step := range leg.Steps {
			if step.Distance < 0 || math.IsNaN(step.Distance) {
				return nil, fmt.Errorf("new route: leg %d step %d: %w: negative distance %v", li, si, ErrInvalidRoute, step.Distance)
			}
			if len(step.Coordinates) == 0 {
				return nil, fmt.Errorf("new route: leg %d step %d: %w: no coordinates", li, si, ErrInvalidRoute)
			}
		}
		length += leg.Distance
		duration += leg.Duration
	}

	if len(geometry) == 0 {
		for _, leg := range legs {
			for _, step := range leg.Steps {
				geometry = appendPath(geometry, step.Coordinates)
			}
		}
	}

	return &Route{
		Key:      RouteKey(start, end),
		Start:    start,
		End:      end,
		Legs:     cloneLegs(legs),
		Length:   length,
		Duration: duration,
		Geometry: append([]Coordinate(nil), geometry...),
	}, nil
}

// StepCount returns the total number of steps across all legs.
func (r *Route) StepCount() int {
	n := 0
	for _, leg := range r.Legs {
		n += len(leg.Steps)
	}
	return n
}

// appendPath joins polylines, dropping a duplicated joint point.
func appendPath(path, next []Coordinate) []Coordinate {
	if len(path) > 0 && len(next) > 0 && path[len(path)-1] == next[0] {
		next = next[1:]
	}
	return append(path, next...)
}

func cloneLegs(legs []Leg) []Leg {
	out := make([]Leg, len(legs))
	for i, leg := range legs {
		steps := make([]Step, len(leg.Steps))
		for j, s := range leg.Steps {
			steps[j] = Step{
				Distance:    s.Distance,
				Duration:    s.Duration,
				Coordinates: append([]Coordinate(nil), s.Coordinates...),
			}
		}
		out[i] = Leg{Distance: leg.Distance, Duration: leg.Duration, Steps: steps}
	}
	return out
}
