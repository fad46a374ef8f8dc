package handlers

import (
	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/domain"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ResourceSource is the read side of the resource store.
type ResourceSource interface {
	Snapshot() []domain.Resource
	Get(id int) (domain.Resource, bool)
}

// ResourceHandler exposes read-only fleet snapshots.
type ResourceHandler struct {
	Store ResourceSource
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Store.Snapshot()

	res := dto.ListResourcesResponse{
		Resources: make([]dto.ResourceResponse, 0, len(snapshot)),
		Count:     len(snapshot),
	}
	for _, rs := range snapshot {
		res.Resources = append(res.Resources, toResourceResponse(rs))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "resourceID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "resource id must be an integer")
		return
	}

	rs, ok := h.Store.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	writeJSON(w, r, http.StatusOK, toResourceResponse(rs))
}

func toResourceResponse(rs domain.Resource) dto.ResourceResponse {
	out := dto.ResourceResponse{
		ID:         rs.ID,
		Capability: rs.Capability.String(),
		Status:     resourceStatus(rs),
		Position:   toCoordinate(rs.Position),
		Progress:   rs.Progress,
		LegIndex:   rs.LegIndex,
		StepIndex:  rs.StepIndex,
		Heading:    rs.Heading,
	}
	if rs.Destination != nil {
		d := toCoordinate(*rs.Destination)
		out.Destination = &d
	}
	if rs.Route != nil {
		out.RouteKey = rs.Route.Key
	}
	return out
}

func resourceStatus(rs domain.Resource) string {
	switch {
	case rs.Idle():
		return "idle"
	case rs.Arrived:
		return "arrived"
	case rs.Route == nil:
		return "awaiting_route"
	default:
		return "en_route"
	}
}

func toCoordinate(c domain.Coordinate) dto.CoordinateResponse {
	return dto.CoordinateResponse{Lat: c.Lat, Lon: c.Lon}
}
