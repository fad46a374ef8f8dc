package routing

import (
	"bytes"
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultORSBaseURL = "https://api.openrouteservice.org"
	defaultORSProfile = "driving-car"
)

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
}

type orsStep struct {
	Distance  float64 `json:"distance" validate:"gte=0"`
	Duration  float64 `json:"duration" validate:"gte=0"`
	WayPoints []int   `json:"way_points" validate:"len=2,dive,gte=0"`
}

type orsSegment struct {
	Distance float64   `json:"distance" validate:"gte=0"`
	Duration float64   `json:"duration" validate:"gte=0"`
	Steps    []orsStep `json:"steps" validate:"required,min=1,dive"`
}

type orsFeature struct {
	Geometry   lineString `json:"geometry"`
	Properties struct {
		Segments []orsSegment `json:"segments" validate:"required,min=1,dive"`
	} `json:"properties"`
}

type directionsResponse struct {
	Features []orsFeature `json:"features"`
}

// ORSRouteProvider implements RouteProvider using the OpenRouteService
// directions endpoint. ORS reports steps as index ranges into the route
// geometry, which are sliced into per-step polylines.
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	http    *routingHTTP
	baseURL string
	profile string
}

func NewORSRouteProvider(opts Options) (*ORSRouteProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSRouteProvider{
		http:    newRoutingHTTP(opts, opts.APIKey),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		profile: opts.Profile,
	}
	if provider.baseURL == "" {
		provider.baseURL = defaultORSBaseURL
	}
	if provider.profile == "" {
		provider.profile = defaultORSProfile
	}

	return provider, nil
}

func (o *ORSRouteProvider) GetRoute(
	ctx context.Context,
	start domain.Coordinate,
	end domain.Coordinate,
) (route *domain.Route, err error) {
	defer obs.Time(ctx, "ors.GetRoute")(&err)

	if err := checkEndpoints(start, end); err != nil {
		return nil, fmt.Errorf("get ORS route: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	payload, err := json.Marshal(directionsRequest{
		Coordinates:  [][]float64{start.CoordsToList(), end.CoordsToList()},
		Instructions: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.http.doWithRetry(ctx, func() (*http.Request, error) {
		body := bytes.NewReader(payload)
		return o.http.newRequest(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		// ORS answers 404 when a point cannot be snapped to the road network.
		if statusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("directions request failed: %w: %v", ports.ErrNoRoute, err)
		}
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w: %v", ports.ErrMalformedResponse, err)
	}

	if len(dr.Features) == 0 {
		return nil, fmt.Errorf("directions returned no routes: %w", ports.ErrNoRoute)
	}

	return o.toRoute(start, end, dr.Features[0])
}

func (o *ORSRouteProvider) toRoute(start, end domain.Coordinate, f orsFeature) (*domain.Route, error) {
	if err := validateResponse(f); err != nil {
		return nil, err
	}

	geometry, err := f.Geometry.toCoordinates()
	if err != nil {
		return nil, fmt.Errorf("route geometry: %w: %v", ports.ErrMalformedResponse, err)
	}

	legs := make([]domain.Leg, 0, len(f.Properties.Segments))
	for li, seg := range f.Properties.Segments {
		steps := make([]domain.Step, 0, len(seg.Steps))
		for si, s := range seg.Steps {
			from, to := s.WayPoints[0], s.WayPoints[1]
			if from > to || to >= len(geometry) {
				return nil, fmt.Errorf(
					"leg %d step %d: %w: way points [%d,%d] outside geometry of %d points",
					li, si, ports.ErrMalformedResponse, from, to, len(geometry),
				)
			}
			steps = append(steps, domain.Step{
				Distance:    s.Distance,
				Duration:    s.Duration,
				Coordinates: geometry[from : to+1],
			})
		}
		legs = append(legs, domain.Leg{
			Distance: seg.Distance,
			Duration: seg.Duration,
			Steps:    steps,
		})
	}

	route, err := domain.NewRoute(start, end, legs, geometry)
	if err != nil {
		return nil, fmt.Errorf("build route: %w", err)
	}
	return route, nil
}
