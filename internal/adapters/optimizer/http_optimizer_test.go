package optimizer

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	incidentA = domain.Coordinate{Lat: -31.95, Lon: 115.86}
	incidentB = domain.Coordinate{Lat: -31.9, Lon: 115.8}
)

func testRequest() ports.OptimizeRequest {
	return ports.OptimizeRequest{
		Vehicles: []ports.OptimizeVehicle{
			{ID: 10, Position: domain.Coordinate{Lat: -31.9498342, Lon: 115.8578795}, Capability: domain.CapabilityA},
			{ID: 11, Position: domain.Coordinate{Lat: -31.9498342, Lon: 115.8578795}, Capability: domain.CapabilityE},
		},
		Emergencies: []ports.OptimizeEmergency{
			{ID: 1, Location: incidentA, Priority: domain.PriorityImmediate, Requirements: []int{1, 0, 0, 0, 0}},
			{ID: 2, Location: incidentB, Priority: domain.PriorityRoutine, Requirements: []int{0, 0, 0, 0, 1}},
		},
	}
}

func newOptimizer(t *testing.T, handler http.HandlerFunc) *HTTPOptimizer {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o, err := NewHTTPOptimizer(srv.URL+"/", time.Second)
	require.NoError(t, err)
	return o
}

func TestOptimizeSendsFleetAndDecodesIndexPairs(t *testing.T) {
	o := newOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/optimise/", r.URL.Path)

		var body optimiseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Cars, 2)
		assert.Equal(t, 0, body.Cars[0].Capability)
		assert.Equal(t, 4, body.Cars[1].Capability)
		require.Len(t, body.Emergencies, 2)
		assert.Equal(t, "Immediate", body.Emergencies[0].Priority)
		assert.Equal(t, []int{0, 0, 0, 0, 1}, body.Emergencies[1].Requirements)

		_, _ = w.Write([]byte(`{"assignments": [[0, 0], [1, 1]], "value": 12.5}`))
	})

	got, err := o.Optimize(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, []domain.Assignment{
		{VehicleID: 10, Location: incidentA, Severity: domain.PriorityImmediate},
		{VehicleID: 11, Location: incidentB, Severity: domain.PriorityRoutine},
	}, got)
}

func TestOptimizeDecodesAssignmentObjects(t *testing.T) {
	o := newOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"assignments": [
			{"vehicle_id": 11, "emergency_location": {"lat": -31.9, "lon": 115.8}, "severity": "NON URGENT"}
		]}`))
	})

	got, err := o.Optimize(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 11, got[0].VehicleID)
	assert.Equal(t, incidentB, got[0].Location)
	assert.Equal(t, domain.PriorityNonUrgent, got[0].Severity)
}

func TestOptimizeRejectsMalformedEntries(t *testing.T) {
	entries := map[string]string{
		"vehicle index out of range":   `[5, 0]`,
		"emergency index out of range": `[0, 7]`,
		"short pair":                   `[1]`,
		"missing vehicle":              `{"emergency_location": {"lat": -31.9, "lon": 115.8}}`,
		"bad latitude":                 `{"vehicle_id": 10, "emergency_location": {"lat": 123, "lon": 115.8}}`,
		"unknown severity":             `{"vehicle_id": 10, "emergency_location": {"lat": -31.9, "lon": 115.8}, "severity": "whenever"}`,
		"missing location":             `{"vehicle_id": 10}`,
		"scalar":                       `"junk"`,
	}

	for name, entry := range entries {
		t.Run(name, func(t *testing.T) {
			body := `{"assignments": [[1, 0], ` + entry + `]}`
			o := newOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			got, err := o.Optimize(context.Background(), testRequest())
			assert.ErrorIs(t, err, ports.ErrMalformedResponse)
			assert.Nil(t, got)
		})
	}
}

func TestOptimizeRejectsMissingAssignments(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`null`,
		`{"assignments": null}`,
		`{"detail": "solver crashed"}`,
	} {
		t.Run(body, func(t *testing.T) {
			o := newOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			got, err := o.Optimize(context.Background(), testRequest())
			assert.ErrorIs(t, err, ports.ErrMalformedResponse)
			assert.Nil(t, got)
		})
	}
}

func TestOptimizeEmptyAssignments(t *testing.T) {
	o := newOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"assignments": [], "value": 0}`))
	})

	got, err := o.Optimize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOptimizeFailures(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		o := newOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "solver crashed", http.StatusInternalServerError)
		})
		_, err := o.Optimize(context.Background(), testRequest())
		assert.ErrorContains(t, err, "status 500")
	})

	t.Run("malformed document", func(t *testing.T) {
		o := newOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"assignments": 3}`))
		})
		_, err := o.Optimize(context.Background(), testRequest())
		assert.ErrorIs(t, err, ports.ErrMalformedResponse)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		o := newOptimizer(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := o.Optimize(ctx, testRequest())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNewHTTPOptimizerRequiresURL(t *testing.T) {
	_, err := NewHTTPOptimizer("  ", 0)
	assert.Error(t, err)
}
