package domain

import "fmt"

// Capability tags the kind of vehicle (A..E in the dispatch UI).
type Capability int

const (
	CapabilityA Capability = iota + 1
	CapabilityB
	CapabilityC
	CapabilityD
	CapabilityE
)

// CapabilityCount is the width of an emergency requirement vector.
const CapabilityCount = 5

func (c Capability) Valid() bool { return c >= CapabilityA && c <= CapabilityE }

func (c Capability) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Capability(%d)", int(c))
	}
	return string(rune('A' + int(c) - 1))
}

// Dispatchable vehicle and its movement state.
//
// Route, Progress and Destination are replaced wholesale on reconciliation.
// Position, LegIndex, StepIndex and Heading are derived from (Route, Progress)
// and are only ever written together with them.
type Resource struct {
	ID          int
	Position    Coordinate
	Capability  Capability
	Destination *Coordinate
	Route       *Route
	Progress    float64
	LegIndex    int
	StepIndex   int
	Heading     float64
	Arrived     bool
}

// Idle reports whether the resource has no assigned destination.
func (r Resource) Idle() bool { return r.Destination == nil }

// HasDestination reports whether the resource is currently assigned to c.
func (r Resource) HasDestination(c Coordinate) bool {
	return r.Destination != nil && *r.Destination == c
}

// Clone returns a copy that shares no mutable pointers with r.
// The Route is shared: routes are immutable.
func (r Resource) Clone() Resource {
	out := r
	if r.Destination != nil {
		d := *r.Destination
		out.Destination = &d
	}
	return out
}
