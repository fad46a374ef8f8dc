package handlers

import (
	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/domain"
	"net/http"
	"time"
)

type EmergencySource interface {
	Active(elapsed time.Duration) []domain.Emergency
}

// Clock reports simulated time since the dispatch loop started.
type Clock interface {
	Elapsed() time.Duration
}

// EmergencyHandler lists the emergencies active at the current simulated time.
type EmergencyHandler struct {
	Board EmergencySource
	Clock Clock
}

func (h *EmergencyHandler) List(w http.ResponseWriter, r *http.Request) {
	elapsed := h.Clock.Elapsed()
	active := h.Board.Active(elapsed)

	res := dto.ListEmergenciesResponse{
		Emergencies: make([]dto.EmergencyResponse, 0, len(active)),
		ElapsedMS:   elapsed.Milliseconds(),
	}
	for _, e := range active {
		res.Emergencies = append(res.Emergencies, dto.EmergencyResponse{
			ID:           e.ID,
			Location:     toCoordinate(e.Location),
			Priority:     string(e.Priority),
			Requirements: e.Requirements,
			OffsetMS:     e.Offset.Milliseconds(),
			Description:  e.Description,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
