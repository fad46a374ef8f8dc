package services

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"log"
	"sync"
	"time"
)

// DefaultRouteTimeout bounds a single routing provider call.
const DefaultRouteTimeout = 10 * time.Second

// ReconcileSummary counts the per-vehicle decisions of one reconciliation.
type ReconcileSummary struct {
	Cleared   int
	Fetching  int
	Coalesced int
	Unchanged int
	Ignored   int
}

type pendingFetch struct {
	dest   domain.Coordinate
	gen    uint64
	cancel context.CancelFunc
}

// Reconciler merges optimizer assignments into the ResourceStore.
//
// Route fetches run concurrently, one per vehicle whose destination changed.
// A result is applied only if its request is still the latest for that
// vehicle; a failed fetch leaves the vehicle untouched so the next cycle
// retries it.
type Reconciler struct {
	store    *ResourceStore
	provider ports.RouteProvider
	timeout  time.Duration
	metrics  *obs.Metrics

	baseCtx    context.Context
	cancelBase context.CancelFunc

	// mu serializes reconciliation decisions with fetch completions.
	mu      sync.Mutex
	pending map[int]pendingFetch
	wg      sync.WaitGroup
}

func NewReconciler(store *ResourceStore, provider ports.RouteProvider, timeout time.Duration, metrics *obs.Metrics) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultRouteTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		store:      store,
		provider:   provider,
		timeout:    timeout,
		metrics:    metrics,
		baseCtx:    ctx,
		cancelBase: cancel,
		pending:    make(map[int]pendingFetch),
	}
}

// Reconcile applies one batch of assignments. It returns once every vehicle
// has been decided; route fetches continue in the background (see Wait).
func (r *Reconciler) Reconcile(ctx context.Context, assignments []domain.Assignment) ReconcileSummary {
	var sum ReconcileSummary
	reqID := obs.RequestID(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	byVehicle := make(map[int]domain.Assignment, len(assignments))
	for _, a := range assignments {
		if !a.Location.Valid() {
			log.Printf("req_id=%s reconcile: ignoring assignment vehicle_id=%d: invalid location %s", reqID, a.VehicleID, a.Location)
			sum.Ignored++
			continue
		}
		if _, ok := r.store.Get(a.VehicleID); !ok {
			log.Printf("req_id=%s reconcile: ignoring assignment for unknown vehicle_id=%d", reqID, a.VehicleID)
			sum.Ignored++
			continue
		}
		if prev, dup := byVehicle[a.VehicleID]; dup {
			log.Printf("req_id=%s reconcile: duplicate assignment vehicle_id=%d keep=%s drop=%s", reqID, a.VehicleID, prev.Location, a.Location)
			sum.Ignored++
			continue
		}
		byVehicle[a.VehicleID] = a
	}

	for _, res := range r.store.Snapshot() {
		a, assigned := byVehicle[res.ID]

		switch {
		case !assigned:
			r.cancelPending(res.ID)
			if r.store.ClearAssignment(res.ID) {
				sum.Cleared++
				r.metrics.ReconcileAction("cleared")
			} else {
				sum.Unchanged++
			}

		case res.HasDestination(a.Location):
			r.cancelPending(res.ID)
			sum.Unchanged++
			r.metrics.ReconcileAction("unchanged")

		case r.pendingTo(res.ID, a.Location):
			sum.Coalesced++
			r.metrics.ReconcileAction("coalesced")

		default:
			r.cancelPending(res.ID)
			if r.startFetch(reqID, res, a.Location) {
				sum.Fetching++
				r.metrics.ReconcileAction("fetching")
			}
		}
	}

	return sum
}

// Wait blocks until all in-flight route fetches have completed.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// Close abandons in-flight fetches. Their completions are discarded.
func (r *Reconciler) Close() {
	r.cancelBase()
	r.wg.Wait()
}

// Pending reports whether a route fetch is in flight for a vehicle.
func (r *Reconciler) Pending(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[id]
	return ok
}

func (r *Reconciler) pendingTo(id int, dest domain.Coordinate) bool {
	p, ok := r.pending[id]
	return ok && p.dest == dest
}

// cancelPending must be called with r.mu held.
func (r *Reconciler) cancelPending(id int) {
	p, ok := r.pending[id]
	if !ok {
		return
	}
	p.cancel()
	delete(r.pending, id)
	r.store.Invalidate(id)
}

// startFetch must be called with r.mu held.
func (r *Reconciler) startFetch(reqID string, res domain.Resource, dest domain.Coordinate) bool {
	gen, ok := r.store.BeginFetch(res.ID)
	if !ok {
		return false
	}

	ctx := context.WithValue(r.baseCtx, obs.RequestIDKey, reqID)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	r.pending[res.ID] = pendingFetch{dest: dest, gen: gen, cancel: cancel}

	start := res.Position
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		began := time.Now()
		route, err := r.provider.GetRoute(ctx, start, dest)
		r.complete(ctx, res.ID, gen, dest, route, err, time.Since(began))
	}()

	return true
}

func (r *Reconciler) complete(ctx context.Context, id int, gen uint64, dest domain.Coordinate, route *domain.Route, err error, dur time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[id]; ok && p.gen == gen {
		delete(r.pending, id)
	}

	reqID := obs.RequestID(ctx)
	if err != nil {
		log.Printf("req_id=%s reconcile: route fetch failed vehicle_id=%d dest=%s err=%v", reqID, id, dest, err)
		r.metrics.RouteFetch("failed", dur)
		return
	}

	if !r.store.ApplyRoute(id, gen, dest, route) {
		log.Printf("req_id=%s reconcile: discarding superseded route vehicle_id=%d dest=%s", reqID, id, dest)
		r.metrics.RouteFetch("superseded", dur)
		return
	}
	r.metrics.RouteFetch("applied", dur)
}
