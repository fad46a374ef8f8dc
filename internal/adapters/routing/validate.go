package routing

import (
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// lineString is a GeoJSON LineString as returned by both providers.
type lineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates" validate:"required,min=1,dive,len=2"`
}

func (l lineString) toCoordinates() ([]domain.Coordinate, error) {
	return toCoordinates(l.Coordinates)
}

func toCoordinates(pairs [][]float64) ([]domain.Coordinate, error) {
	out := make([]domain.Coordinate, 0, len(pairs))
	for i, pair := range pairs {
		c, err := domain.CoordinateFromList(pair)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func validateResponse(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrMalformedResponse, err)
	}
	return nil
}

func checkEndpoints(start, end domain.Coordinate) error {
	if !start.Valid() {
		return fmt.Errorf("invalid start coordinate %s", start)
	}
	if !end.Valid() {
		return fmt.Errorf("invalid end coordinate %s", end)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
