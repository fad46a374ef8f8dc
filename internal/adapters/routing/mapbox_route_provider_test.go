package routing

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	depot     = domain.Coordinate{Lat: -32, Lon: 115.9}
	emergency = domain.Coordinate{Lat: -31.9, Lon: 115.8}
)

const mapboxOK = `{
  "code": "Ok",
  "routes": [{
    "distance": 1000, "duration": 100,
    "geometry": {"type": "LineString", "coordinates": [[115.9,-32],[115.85,-31.95],[115.8,-31.9]]},
    "legs": [{
      "distance": 1000, "duration": 100,
      "steps": [
        {"distance": 600, "duration": 60, "geometry": {"type": "LineString", "coordinates": [[115.9,-32],[115.85,-31.95]]}},
        {"distance": 400, "duration": 40, "geometry": {"type": "LineString", "coordinates": [[115.85,-31.95],[115.8,-31.9]]}}
      ]
    }]
  }]
}`

func newMapbox(t *testing.T, handler http.HandlerFunc) *MapboxRouteProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewMapboxRouteProvider(Options{APIKey: "token", BaseURL: srv.URL, RateLimit: 100})
	require.NoError(t, err)
	return p
}

func TestMapboxGetRoute(t *testing.T) {
	p := newMapbox(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/directions/v5/mapbox/driving/115.900000,-32.000000;115.800000,-31.900000", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("steps"))
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		assert.Equal(t, "token", r.URL.Query().Get("access_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mapboxOK))
	})

	route, err := p.GetRoute(context.Background(), depot, emergency)
	require.NoError(t, err)

	assert.Equal(t, depot, route.Start)
	assert.Equal(t, emergency, route.End)
	assert.Equal(t, domain.RouteKey(depot, emergency), route.Key)
	assert.InDelta(t, 1000.0, route.Length, 1e-9)
	require.Len(t, route.Legs, 1)
	require.Len(t, route.Legs[0].Steps, 2)
	assert.Equal(t, domain.Coordinate{Lat: -31.95, Lon: 115.85}, route.Legs[0].Steps[1].Coordinates[0])
	assert.Len(t, route.Geometry, 3)
}

func TestMapboxNoRoute(t *testing.T) {
	p := newMapbox(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","message":"No route found","routes":[]}`))
	})

	_, err := p.GetRoute(context.Background(), depot, emergency)
	assert.ErrorIs(t, err, ports.ErrNoRoute)
}

func TestMapboxUnprocessableIsNoRoute(t *testing.T) {
	p := newMapbox(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"InvalidInput"}`, http.StatusUnprocessableEntity)
	})

	_, err := p.GetRoute(context.Background(), depot, emergency)
	assert.ErrorIs(t, err, ports.ErrNoRoute)
}

func TestMapboxMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"not json":      `<html>`,
		"missing legs":  `{"code":"Ok","routes":[{"distance":10,"geometry":{"coordinates":[[115.9,-32]]}}]}`,
		"empty steps":   `{"code":"Ok","routes":[{"distance":10,"geometry":{"coordinates":[[115.9,-32]]},"legs":[{"distance":10,"steps":[]}]}]}`,
		"bad point":     `{"code":"Ok","routes":[{"distance":10,"geometry":{"coordinates":[[115.9]]},"legs":[{"distance":10,"steps":[{"distance":10,"geometry":{"coordinates":[[115.9,-32]]}}]}]}]}`,
		"unknown code":  `{"code":"InvalidInput","message":"bad"}`,
		"negative step": `{"code":"Ok","routes":[{"distance":10,"geometry":{"coordinates":[[115.9,-32]]},"legs":[{"distance":10,"steps":[{"distance":-1,"geometry":{"coordinates":[[115.9,-32]]}}]}]}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p := newMapbox(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := p.GetRoute(context.Background(), depot, emergency)
			assert.ErrorIs(t, err, ports.ErrMalformedResponse)
		})
	}
}

func TestMapboxRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	p := newMapbox(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(mapboxOK))
	})

	route, err := p.GetRoute(context.Background(), depot, emergency)
	require.NoError(t, err)
	assert.NotNil(t, route)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMapboxDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	p := newMapbox(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := p.GetRoute(context.Background(), depot, emergency)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusUnauthorized, statusCode(err))
}

func TestMapboxRejectsInvalidInput(t *testing.T) {
	_, err := NewMapboxRouteProvider(Options{})
	assert.Error(t, err)

	p := newMapbox(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called")
	})
	_, err = p.GetRoute(context.Background(), domain.Coordinate{Lat: 95}, emergency)
	assert.Error(t, err)
}
