package services

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultTickInterval     = 500 * time.Millisecond
	DefaultOptimizerTimeout = 10 * time.Second
)

type SchedulerConfig struct {
	Interval         time.Duration
	OptimizerTimeout time.Duration
}

// TickScheduler drives the dispatch loop on a fixed interval.
//
// Each tick advances all vehicles synchronously, then submits the fleet and
// the active emergencies to the optimizer without waiting for the answer.
// Optimizer responses are applied in tick order: a response older than one
// already applied is dropped.
type TickScheduler struct {
	cfg        SchedulerConfig
	store      *ResourceStore
	board      *EmergencyBoard
	optimizer  ports.Optimizer
	reconciler *Reconciler
	metrics    *obs.Metrics

	ticks atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	applyMu     sync.Mutex
	lastApplied uint64

	inflight sync.WaitGroup
}

func NewTickScheduler(
	cfg SchedulerConfig,
	store *ResourceStore,
	board *EmergencyBoard,
	optimizer ports.Optimizer,
	reconciler *Reconciler,
	metrics *obs.Metrics,
) *TickScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTickInterval
	}
	if cfg.OptimizerTimeout <= 0 {
		cfg.OptimizerTimeout = DefaultOptimizerTimeout
	}

	return &TickScheduler{
		cfg:        cfg,
		store:      store,
		board:      board,
		optimizer:  optimizer,
		reconciler: reconciler,
		metrics:    metrics,
	}
}

// Start launches the tick loop. Starting an already running scheduler is a
// no-op and returns false.
func (s *TickScheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	log.Printf("scheduler started interval=%s", s.cfg.Interval)
	return true
}

// Stop halts the tick loop, cancels outstanding optimizer calls and waits for
// them to return. Safe to call on a stopped scheduler.
func (s *TickScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.inflight.Wait()
	log.Printf("scheduler stopped ticks=%d", s.ticks.Load())
}

func (s *TickScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Elapsed returns the simulated time covered by the ticks executed so far.
func (s *TickScheduler) Elapsed() time.Duration {
	return time.Duration(s.ticks.Load()) * s.cfg.Interval
}

// Wait blocks until outstanding optimizer calls and the route fetches they
// triggered have completed.
func (s *TickScheduler) Wait() {
	s.inflight.Wait()
	s.reconciler.Wait()
}

func (s *TickScheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Tick runs one scheduler cycle and returns its sequence number.
func (s *TickScheduler) Tick(ctx context.Context) uint64 {
	seq := s.ticks.Add(1)
	elapsed := time.Duration(seq) * s.cfg.Interval
	ctx = obs.WithRequestID(ctx)

	s.store.AdvanceProgress(s.cfg.Interval)

	snapshot := s.store.Snapshot()
	active := s.board.Active(elapsed)
	s.metrics.Tick(countEnRoute(snapshot))

	// With nothing to assign the optimizer answer is known: every vehicle is idle.
	if len(active) == 0 {
		s.apply(ctx, seq, nil)
		return seq
	}

	req := BuildOptimizeRequest(snapshot, active)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		octx, cancel := context.WithTimeout(ctx, s.cfg.OptimizerTimeout)
		defer cancel()

		assignments, err := s.optimizer.Optimize(octx, req)
		if err != nil {
			log.Printf("req_id=%s tick=%d optimizer failed, keeping current assignments: %v", obs.RequestID(ctx), seq, err)
			s.metrics.OptimizerRequest("failed")
			return
		}
		s.metrics.OptimizerRequest("ok")

		if ctx.Err() != nil {
			return
		}
		s.apply(ctx, seq, assignments)
	}()

	return seq
}

func (s *TickScheduler) apply(ctx context.Context, seq uint64, assignments []domain.Assignment) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if seq <= s.lastApplied {
		log.Printf("req_id=%s tick=%d dropping stale optimizer response (applied=%d)", obs.RequestID(ctx), seq, s.lastApplied)
		s.metrics.OptimizerRequest("stale")
		return
	}
	s.lastApplied = seq

	sum := s.reconciler.Reconcile(ctx, assignments)
	if sum.Fetching > 0 || sum.Cleared > 0 || sum.Ignored > 0 {
		log.Printf("req_id=%s tick=%d reconcile fetching=%d coalesced=%d cleared=%d unchanged=%d ignored=%d",
			obs.RequestID(ctx), seq, sum.Fetching, sum.Coalesced, sum.Cleared, sum.Unchanged, sum.Ignored)
	}
}

// BuildOptimizeRequest assembles the optimizer payload from a fleet snapshot
// and the currently active emergencies.
func BuildOptimizeRequest(resources []domain.Resource, emergencies []domain.Emergency) ports.OptimizeRequest {
	req := ports.OptimizeRequest{
		Vehicles:    make([]ports.OptimizeVehicle, 0, len(resources)),
		Emergencies: make([]ports.OptimizeEmergency, 0, len(emergencies)),
	}

	for _, r := range resources {
		req.Vehicles = append(req.Vehicles, ports.OptimizeVehicle{
			ID:         r.ID,
			Position:   r.Position,
			Capability: r.Capability,
		})
	}

	for _, e := range emergencies {
		req.Emergencies = append(req.Emergencies, ports.OptimizeEmergency{
			ID:           e.ID,
			Location:     e.Location,
			Priority:     e.Priority,
			Requirements: e.Requirements,
		})
	}

	return req
}

func countEnRoute(resources []domain.Resource) int {
	n := 0
	for _, r := range resources {
		if r.Route != nil && !r.Arrived {
			n++
		}
	}
	return n
}
