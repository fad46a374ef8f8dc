package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNewRouteDerivesLength(t *testing.T) {
	start := Coordinate{Lat: -32, Lon: 115.9}
	end := Coordinate{Lat: -31.9, Lon: 115.8}
	mid := Coordinate{Lat: -31.95, Lon: 115.85}

	legs := []Leg{
		{Distance: 600, Steps: []Step{
			{Distance: 400, Coordinates: []Coordinate{start, mid}},
			{Distance: 200, Coordinates: []Coordinate{mid, end}},
		}},
		{Distance: 400, Steps: []Step{
			{Distance: 400, Coordinates: []Coordinate{end}},
		}},
	}

	route, err := NewRoute(start, end, legs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(route.Length-1000) > 1e-9 {
		t.Fatalf("length = %v, want 1000", route.Length)
	}
	if route.Key != "-32-115.9:-31.9-115.8" {
		t.Fatalf("key = %q", route.Key)
	}
	if len(route.Geometry) != 3 {
		t.Fatalf("geometry has %d points, want 3 (joint points deduplicated)", len(route.Geometry))
	}
	if route.StepCount() != 3 {
		t.Fatalf("step count = %d, want 3", route.StepCount())
	}

	// The route keeps its own copy of provider data.
	legs[0].Steps[0].Coordinates[0] = Coordinate{}
	if route.Legs[0].Steps[0].Coordinates[0] != start {
		t.Fatalf("route shares step coordinates with caller")
	}
}

func TestNewRouteRejectsInvalidSteps(t *testing.T) {
	start := Coordinate{Lat: 1, Lon: 1}
	end := Coordinate{Lat: 2, Lon: 2}

	cases := map[string][]Leg{
		"negative step distance": {{Distance: 1, Steps: []Step{{Distance: -1, Coordinates: []Coordinate{start}}}}},
		"negative leg distance":  {{Distance: -5}},
		"empty step":             {{Distance: 1, Steps: []Step{{Distance: 1}}}},
	}

	for name, legs := range cases {
		if _, err := NewRoute(start, end, legs, nil); !errors.Is(err, ErrInvalidRoute) {
			t.Errorf("%s: err = %v, want ErrInvalidRoute", name, err)
		}
	}
}

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"IMMEDIATE":  PriorityImmediate,
		"Urgent":     PriorityUrgent,
		"routine":    PriorityRoutine,
		"NON URGENT": PriorityNonUrgent,
		"Non-Urgent": PriorityNonUrgent,
	}
	for in, want := range cases {
		got, err := ParsePriority(in)
		if err != nil {
			t.Errorf("ParsePriority(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePriority(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParsePriority("whenever"); err == nil {
		t.Errorf("expected error for unknown priority")
	}
}

func TestRequirementsFromIncident(t *testing.T) {
	profile, err := LookupIncident("Incident B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, err := RequirementsFromCapabilities(profile.Capabilities)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{0, 1, 0, 1, 1}
	for i := range want {
		if req[i] != want[i] {
			t.Fatalf("requirements = %v, want %v", req, want)
		}
	}
}

func TestResourceCloneDetachesDestination(t *testing.T) {
	dest := Coordinate{Lat: 3, Lon: 4}
	r := Resource{ID: 1, Destination: &dest}

	c := r.Clone()
	c.Destination.Lat = 10

	if r.Destination.Lat != 3 {
		t.Fatalf("clone shares destination pointer")
	}
	if !r.HasDestination(Coordinate{Lat: 3, Lon: 4}) {
		t.Fatalf("HasDestination = false, want true")
	}
}
