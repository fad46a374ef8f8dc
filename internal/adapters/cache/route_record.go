package cache

import (
	"dispatch-route-service/internal/domain"
	"encoding/json"
	"fmt"
)

// routeRecord is the persisted JSON form of a route. Coordinates are stored
// as [lon, lat] pairs to match the provider wire format.
type routeRecord struct {
	Start    [2]float64  `json:"start"`
	End      [2]float64  `json:"end"`
	Legs     []legRecord `json:"legs"`
	Geometry [][]float64 `json:"geometry"`
}

type legRecord struct {
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
	Steps    []stepRecord `json:"steps"`
}

type stepRecord struct {
	Distance    float64     `json:"distance"`
	Duration    float64     `json:"duration"`
	Coordinates [][]float64 `json:"coordinates"`
}

func encodeRoute(r *domain.Route) ([]byte, error) {
	rec := routeRecord{
		Start:    [2]float64{r.Start.Lon, r.Start.Lat},
		End:      [2]float64{r.End.Lon, r.End.Lat},
		Legs:     make([]legRecord, 0, len(r.Legs)),
		Geometry: toPairs(r.Geometry),
	}

	for _, leg := range r.Legs {
		lr := legRecord{
			Distance: leg.Distance,
			Duration: leg.Duration,
			Steps:    make([]stepRecord, 0, len(leg.Steps)),
		}
		for _, s := range leg.Steps {
			lr.Steps = append(lr.Steps, stepRecord{
				Distance:    s.Distance,
				Duration:    s.Duration,
				Coordinates: toPairs(s.Coordinates),
			})
		}
		rec.Legs = append(rec.Legs, lr)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode route %s: %w", r.Key, err)
	}
	return b, nil
}

// decodeRoute rebuilds a route through domain.NewRoute so cached rows are
// held to the same invariants as provider responses.
func decodeRoute(payload []byte) (*domain.Route, error) {
	var rec routeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}

	start, err := domain.CoordinateFromList(rec.Start[:])
	if err != nil {
		return nil, fmt.Errorf("decode route start: %w", err)
	}
	end, err := domain.CoordinateFromList(rec.End[:])
	if err != nil {
		return nil, fmt.Errorf("decode route end: %w", err)
	}

	legs := make([]domain.Leg, 0, len(rec.Legs))
	for li, lr := range rec.Legs {
		steps := make([]domain.Step, 0, len(lr.Steps))
		for si, sr := range lr.Steps {
			coords, err := fromPairs(sr.Coordinates)
			if err != nil {
				return nil, fmt.Errorf("decode route leg %d step %d: %w", li, si, err)
			}
			steps = append(steps, domain.Step{
				Distance:    sr.Distance,
				Duration:    sr.Duration,
				Coordinates: coords,
			})
		}
		legs = append(legs, domain.Leg{Distance: lr.Distance, Duration: lr.Duration, Steps: steps})
	}

	geometry, err := fromPairs(rec.Geometry)
	if err != nil {
		return nil, fmt.Errorf("decode route geometry: %w", err)
	}

	return domain.NewRoute(start, end, legs, geometry)
}

func toPairs(coords []domain.Coordinate) [][]float64 {
	out := make([][]float64, 0, len(coords))
	for _, c := range coords {
		out = append(out, c.CoordsToList())
	}
	return out
}

func fromPairs(pairs [][]float64) ([]domain.Coordinate, error) {
	out := make([]domain.Coordinate, 0, len(pairs))
	for _, p := range pairs {
		c, err := domain.CoordinateFromList(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
