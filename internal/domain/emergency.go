package domain

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the emergency severity level understood by the optimizer.
type Priority string

const (
	PriorityImmediate Priority = "Immediate"
	PriorityUrgent    Priority = "Urgent"
	PriorityRoutine   Priority = "Routine"
	PriorityNonUrgent Priority = "Non-Urgent"
)

// Priorities in the order the optimizer solves them.
var Priorities = []Priority{PriorityImmediate, PriorityUrgent, PriorityRoutine, PriorityNonUrgent}

// ParsePriority accepts the spellings found in incident exports
// ("IMMEDIATE", "NON URGENT", "non-urgent", ...).
func ParsePriority(s string) (Priority, error) {
	norm := strings.ToLower(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), ""))

	switch norm {
	case "immediate":
		return PriorityImmediate, nil
	case "urgent":
		return PriorityUrgent, nil
	case "routine":
		return PriorityRoutine, nil
	case "nonurgent":
		return PriorityNonUrgent, nil
	}
	return "", fmt.Errorf("parse priority: unknown level %q", s)
}

// An event requiring vehicles. Read-only to the dispatch core.
//
// Offset is the simulation time at which the emergency becomes active.
// Requirements counts the vehicles needed per capability (index 0 = A).
type Emergency struct {
	ID           int
	Location     Coordinate
	Priority     Priority
	Requirements []int
	Offset       time.Duration
	Description  string
}

// ActiveAt reports whether the emergency is visible at simulated time elapsed.
func (e Emergency) ActiveAt(elapsed time.Duration) bool { return e.Offset <= elapsed }

// RequirementsFromCapabilities builds a requirement vector with one vehicle
// per listed capability.
func RequirementsFromCapabilities(caps []Capability) ([]int, error) {
	req := make([]int, CapabilityCount)
	for _, c := range caps {
		if !c.Valid() {
			return nil, fmt.Errorf("requirements: invalid capability %d", int(c))
		}
		req[int(c)-1]++
	}
	return req, nil
}

// Optimizer-issued pairing of a vehicle with an emergency location.
// Consumed once per reconciliation cycle.
type Assignment struct {
	VehicleID int
	Location  Coordinate
	Severity  Priority
}
