package handlers

import (
	"dispatch-route-service/internal/api/dto"
	"net/http"
	"strconv"
)

// RouteHandler renders the current route of every routed resource as a
// GeoJSON FeatureCollection for map overlays.
type RouteHandler struct {
	Store ResourceSource
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	res := dto.RouteFeatureCollection{
		Type:     "FeatureCollection",
		Features: []dto.RouteFeature{},
	}

	for _, rs := range h.Store.Snapshot() {
		if rs.Route == nil {
			continue
		}

		coords := make([][]float64, 0, len(rs.Route.Geometry))
		for _, c := range rs.Route.Geometry {
			coords = append(coords, c.CoordsToList())
		}

		res.Features = append(res.Features, dto.RouteFeature{
			Type: "Feature",
			ID:   strconv.Itoa(rs.ID) + ":" + rs.Route.Key,
			Geometry: dto.LineStringGeometry{
				Type:        "LineString",
				Coordinates: coords,
			},
			Properties: dto.RouteProperties{
				ResourceID:   rs.ID,
				Start:        toCoordinate(rs.Route.Start),
				End:          toCoordinate(rs.Route.End),
				LengthMeters: rs.Route.Length,
				Progress:     rs.Progress,
				Arrived:      rs.Arrived,
			},
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
