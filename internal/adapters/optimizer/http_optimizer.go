package optimizer

import (
	"bytes"
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const defaultTimeout = 10 * time.Second

var validate = validator.New()

type carPayload struct {
	ID  int     `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	// Zero-based capability column used by the solver.
	Capability int `json:"capability"`
}

type emergencyPayload struct {
	ID           int     `json:"id"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Priority     string  `json:"priority"`
	Requirements []int   `json:"requirements"`
}

type optimiseRequest struct {
	Cars        []carPayload       `json:"cars"`
	Emergencies []emergencyPayload `json:"emergencies"`
}

type optimiseResponse struct {
	Assignments *[]json.RawMessage `json:"assignments"`
	Value       float64            `json:"value"`
}

type locationPayload struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

type assignmentObject struct {
	VehicleID         *int             `json:"vehicle_id" validate:"required"`
	EmergencyLocation *locationPayload `json:"emergency_location" validate:"required"`
	Severity          string           `json:"severity"`
}

// HTTPOptimizer implements Optimizer against the assignment solver service.
//
// The solver answers either with assignment objects or with
// [vehicleIndex, emergencyIndex] pairs into the submitted lists; both
// forms are accepted. A reply without an assignments list, or with any
// entry that cannot be resolved, is rejected as a whole so the caller keeps
// the current fleet state.
type HTTPOptimizer struct {
	session *http.Client
	baseURL string
}

func NewHTTPOptimizer(baseURL string, timeout time.Duration) (*HTTPOptimizer, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("optimizer url is empty")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPOptimizer{
		session: &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}, nil
}

func (o *HTTPOptimizer) Optimize(
	ctx context.Context,
	req ports.OptimizeRequest,
) (assignments []domain.Assignment, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)

	payload, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal optimise request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/optimise/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := o.session.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("optimise request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("optimise request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var or optimiseResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("decode optimise response: %w: %v", ports.ErrMalformedResponse, err)
	}
	if or.Assignments == nil {
		return nil, fmt.Errorf("decode optimise response: %w: missing assignments", ports.ErrMalformedResponse)
	}

	return decodeAssignments(ctx, req, *or.Assignments)
}

func buildRequest(req ports.OptimizeRequest) optimiseRequest {
	out := optimiseRequest{
		Cars:        make([]carPayload, 0, len(req.Vehicles)),
		Emergencies: make([]emergencyPayload, 0, len(req.Emergencies)),
	}

	for _, v := range req.Vehicles {
		out.Cars = append(out.Cars, carPayload{
			ID:         v.ID,
			Lat:        v.Position.Lat,
			Lon:        v.Position.Lon,
			Capability: int(v.Capability) - 1,
		})
	}

	for _, e := range req.Emergencies {
		requirements := e.Requirements
		if requirements == nil {
			requirements = make([]int, domain.CapabilityCount)
		}
		out.Emergencies = append(out.Emergencies, emergencyPayload{
			ID:           e.ID,
			Lat:          e.Location.Lat,
			Lon:          e.Location.Lon,
			Priority:     string(e.Priority),
			Requirements: requirements,
		})
	}

	return out
}

// decodeAssignments resolves every entry. A single bad entry rejects the
// batch: an assignment missing from the result would clear its vehicle.
func decodeAssignments(ctx context.Context, req ports.OptimizeRequest, raw []json.RawMessage) ([]domain.Assignment, error) {
	out := make([]domain.Assignment, 0, len(raw))

	for i, entry := range raw {
		a, err := decodeAssignment(req, entry)
		if err != nil {
			log.Printf("req_id=%s optimizer assignment rejected index=%d err=%v", obs.RequestID(ctx), i, err)
			return nil, fmt.Errorf("optimise response entry %d: %w", i, err)
		}
		out = append(out, a)
	}

	return out, nil
}

func decodeAssignment(req ports.OptimizeRequest, entry json.RawMessage) (domain.Assignment, error) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return decodeIndexPair(req, trimmed)
	}

	var obj assignmentObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return domain.Assignment{}, fmt.Errorf("%w: %v", ports.ErrMalformedResponse, err)
	}
	if err := validate.Struct(obj); err != nil {
		return domain.Assignment{}, fmt.Errorf("%w: %v", ports.ErrMalformedResponse, err)
	}

	var severity domain.Priority
	if obj.Severity != "" {
		p, err := domain.ParsePriority(obj.Severity)
		if err != nil {
			return domain.Assignment{}, fmt.Errorf("%w: %v", ports.ErrMalformedResponse, err)
		}
		severity = p
	}

	return domain.Assignment{
		VehicleID: *obj.VehicleID,
		Location:  domain.Coordinate{Lat: obj.EmergencyLocation.Lat, Lon: obj.EmergencyLocation.Lon},
		Severity:  severity,
	}, nil
}

func decodeIndexPair(req ports.OptimizeRequest, entry json.RawMessage) (domain.Assignment, error) {
	var pair []int
	if err := json.Unmarshal(entry, &pair); err != nil {
		return domain.Assignment{}, fmt.Errorf("%w: %v", ports.ErrMalformedResponse, err)
	}
	if len(pair) != 2 {
		return domain.Assignment{}, fmt.Errorf("%w: index pair has %d values", ports.ErrMalformedResponse, len(pair))
	}

	vi, ei := pair[0], pair[1]
	if vi < 0 || vi >= len(req.Vehicles) {
		return domain.Assignment{}, fmt.Errorf("%w: vehicle index %d out of range", ports.ErrMalformedResponse, vi)
	}
	if ei < 0 || ei >= len(req.Emergencies) {
		return domain.Assignment{}, fmt.Errorf("%w: emergency index %d out of range", ports.ErrMalformedResponse, ei)
	}

	e := req.Emergencies[ei]
	return domain.Assignment{
		VehicleID: req.Vehicles[vi].ID,
		Location:  e.Location,
		Severity:  e.Priority,
	}, nil
}
