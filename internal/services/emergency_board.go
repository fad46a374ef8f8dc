package services

import (
	"dispatch-route-service/internal/domain"
	"slices"
	"time"
)

// EmergencyBoard holds the emergency schedule and answers which emergencies
// are visible at a given simulated time.
type EmergencyBoard struct {
	emergencies []domain.Emergency
}

func NewEmergencyBoard(emergencies []domain.Emergency) *EmergencyBoard {
	sorted := slices.Clone(emergencies)
	slices.SortStableFunc(sorted, func(a, b domain.Emergency) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return a.ID - b.ID
	})
	return &EmergencyBoard{emergencies: sorted}
}

// Active returns the emergencies whose offset has elapsed, ordered by offset.
func (b *EmergencyBoard) Active(elapsed time.Duration) []domain.Emergency {
	out := make([]domain.Emergency, 0, len(b.emergencies))
	for _, e := range b.emergencies {
		if !e.ActiveAt(elapsed) {
			// Sorted by offset: nothing later is active either.
			break
		}
		e.Requirements = slices.Clone(e.Requirements)
		out = append(out, e)
	}
	return out
}

func (b *EmergencyBoard) Len() int { return len(b.emergencies) }
