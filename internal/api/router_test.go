package api

import (
	"dispatch-route-service/internal/adapters/routing"
	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/services"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	resources []domain.Resource
}

func (f *fakeStore) Snapshot() []domain.Resource { return f.resources }

func (f *fakeStore) Get(id int) (domain.Resource, bool) {
	for _, r := range f.resources {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Resource{}, false
}

type fixedClock time.Duration

func (c fixedClock) Elapsed() time.Duration { return time.Duration(c) }

var (
	depot     = domain.Coordinate{Lat: -31.9498342, Lon: 115.8578795}
	emergency = domain.Coordinate{Lat: -32, Lon: 115.9}
)

func newTestRouter(t *testing.T) (http.Handler, *obs.Metrics) {
	t.Helper()

	route, err := routing.StraightRoute(depot, emergency)
	require.NoError(t, err)
	dest := emergency

	store := &fakeStore{resources: []domain.Resource{
		{ID: 1, Position: depot, Capability: domain.CapabilityA},
		{ID: 2, Position: depot, Capability: domain.CapabilityC, Destination: &dest, Route: route, Progress: 0.25},
		{ID: 3, Position: depot, Capability: domain.CapabilityE, Destination: &dest},
	}}

	board := services.NewEmergencyBoard([]domain.Emergency{
		{ID: 1, Location: emergency, Priority: domain.PriorityImmediate, Requirements: []int{1, 0, 0, 0, 0}},
		{ID: 2, Location: emergency, Priority: domain.PriorityUrgent, Requirements: []int{0, 0, 1, 0, 0}, Offset: 1500 * time.Millisecond},
		{ID: 3, Location: emergency, Priority: domain.PriorityNonUrgent, Requirements: []int{0, 0, 0, 0, 1}, Offset: 3000 * time.Millisecond},
	})

	metrics := obs.NewMetrics()

	return NewRouter(Deps{
		Resources:   store,
		Emergencies: board,
		Clock:       fixedClock(2 * time.Second),
		Metrics:     metrics,
	}), metrics
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListResources(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/resources")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ListResourcesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 3, res.Count)

	assert.Equal(t, "idle", res.Resources[0].Status)
	assert.Nil(t, res.Resources[0].Destination)
	assert.Equal(t, "A", res.Resources[0].Capability)

	assert.Equal(t, "en_route", res.Resources[1].Status)
	require.NotNil(t, res.Resources[1].Destination)
	assert.Equal(t, emergency.Lat, res.Resources[1].Destination.Lat)
	assert.Equal(t, domain.RouteKey(depot, emergency), res.Resources[1].RouteKey)

	assert.Equal(t, "awaiting_route", res.Resources[2].Status)
}

func TestGetResource(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/resources/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.ResourceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.ID)
	assert.InDelta(t, 0.25, res.Progress, 1e-12)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/resources/99").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/resources/abc").Code)
}

func TestListActiveEmergencies(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/emergencies")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ListEmergenciesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(2000), res.ElapsedMS)
	require.Len(t, res.Emergencies, 2)
	assert.Equal(t, 1, res.Emergencies[0].ID)
	assert.Equal(t, "Urgent", res.Emergencies[1].Priority)
	assert.Equal(t, int64(1500), res.Emergencies[1].OffsetMS)
}

func TestRoutesGeoJSON(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/routes")
	require.Equal(t, http.StatusOK, rec.Code)

	var fc dto.RouteFeatureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "LineString", f.Geometry.Type)
	assert.Equal(t, 2, f.Properties.ResourceID)
	require.NotEmpty(t, f.Geometry.Coordinates)
	assert.Equal(t, []float64{depot.Lon, depot.Lat}, f.Geometry.Coordinates[0])
	assert.Equal(t, []float64{emergency.Lon, emergency.Lat}, f.Geometry.Coordinates[len(f.Geometry.Coordinates)-1])
}

func TestMetricsEndpoint(t *testing.T) {
	h, metrics := newTestRouter(t)
	metrics.Tick(1)

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dispatch_ticks_total 1")
	assert.Contains(t, rec.Body.String(), "dispatch_vehicles_en_route 1")
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/resources", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/resources", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
