package routing

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultMapboxBaseURL = "https://api.mapbox.com"
	defaultMapboxProfile = "driving"
)

type mapboxStep struct {
	Distance float64    `json:"distance" validate:"gte=0"`
	Duration float64    `json:"duration" validate:"gte=0"`
	Geometry lineString `json:"geometry"`
}

type mapboxLeg struct {
	Distance float64      `json:"distance" validate:"gte=0"`
	Duration float64      `json:"duration" validate:"gte=0"`
	Steps    []mapboxStep `json:"steps" validate:"required,min=1,dive"`
}

type mapboxRoute struct {
	Distance float64     `json:"distance" validate:"gte=0"`
	Duration float64     `json:"duration" validate:"gte=0"`
	Geometry lineString  `json:"geometry"`
	Legs     []mapboxLeg `json:"legs" validate:"required,min=1,dive"`
}

type mapboxResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Routes  []mapboxRoute `json:"routes"`
}

// MapboxRouteProvider implements RouteProvider using the Mapbox Directions API.
// The provider is safe for concurrent use.
type MapboxRouteProvider struct {
	http        *routingHTTP
	accessToken string
	baseURL     string
	profile     string
}

func NewMapboxRouteProvider(opts Options) (*MapboxRouteProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("mapbox access token is empty")
	}

	provider := &MapboxRouteProvider{
		http:        newRoutingHTTP(opts, ""),
		accessToken: opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		profile:     opts.Profile,
	}
	if provider.baseURL == "" {
		provider.baseURL = defaultMapboxBaseURL
	}
	if provider.profile == "" {
		provider.profile = defaultMapboxProfile
	}

	return provider, nil
}

func (m *MapboxRouteProvider) endpoint(start, end domain.Coordinate) string {
	q := url.Values{}
	q.Set("steps", "true")
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("access_token", m.accessToken)

	return fmt.Sprintf(
		"%s/directions/v5/mapbox/%s/%s,%s;%s,%s?%s",
		m.baseURL, m.profile,
		formatCoord(start.Lon), formatCoord(start.Lat),
		formatCoord(end.Lon), formatCoord(end.Lat),
		q.Encode(),
	)
}

func (m *MapboxRouteProvider) GetRoute(
	ctx context.Context,
	start domain.Coordinate,
	end domain.Coordinate,
) (route *domain.Route, err error) {
	defer obs.Time(ctx, "mapbox.GetRoute")(&err)

	if err := checkEndpoints(start, end); err != nil {
		return nil, fmt.Errorf("get mapbox route: %w", err)
	}

	endpoint := m.endpoint(start, end)
	resp, err := m.http.doWithRetry(ctx, func() (*http.Request, error) {
		return m.http.newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		// Mapbox answers 422 for unroutable coordinates.
		if code := statusCode(err); code == http.StatusUnprocessableEntity || code == http.StatusNotFound {
			return nil, fmt.Errorf("directions request failed: %w: %v", ports.ErrNoRoute, err)
		}
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w: %v", ports.ErrMalformedResponse, err)
	}

	switch dr.Code {
	case "Ok":
	case "NoRoute", "NoSegment":
		return nil, fmt.Errorf("directions %s -> %s: %w", start, end, ports.ErrNoRoute)
	default:
		return nil, fmt.Errorf("directions code %q (%s): %w", dr.Code, dr.Message, ports.ErrMalformedResponse)
	}

	if len(dr.Routes) == 0 {
		return nil, fmt.Errorf("directions returned no routes: %w", ports.ErrNoRoute)
	}

	return m.toRoute(start, end, dr.Routes[0])
}

func (m *MapboxRouteProvider) toRoute(start, end domain.Coordinate, mr mapboxRoute) (*domain.Route, error) {
	if err := validateResponse(mr); err != nil {
		return nil, err
	}

	legs := make([]domain.Leg, 0, len(mr.Legs))
	for li, l := range mr.Legs {
		steps := make([]domain.Step, 0, len(l.Steps))
		for si, s := range l.Steps {
			coords, err := s.Geometry.toCoordinates()
			if err != nil {
				return nil, fmt.Errorf("leg %d step %d: %w: %v", li, si, ports.ErrMalformedResponse, err)
			}
			steps = append(steps, domain.Step{
				Distance:    s.Distance,
				Duration:    s.Duration,
				Coordinates: coords,
			})
		}
		legs = append(legs, domain.Leg{
			Distance: l.Distance,
			Duration: l.Duration,
			Steps:    steps,
		})
	}

	geometry, err := mr.Geometry.toCoordinates()
	if err != nil {
		return nil, fmt.Errorf("route geometry: %w: %v", ports.ErrMalformedResponse, err)
	}

	route, err := domain.NewRoute(start, end, legs, geometry)
	if err != nil {
		return nil, fmt.Errorf("build route: %w", err)
	}
	return route, nil
}
