package services

import (
	"dispatch-route-service/internal/domain"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultProgressIncrement is the per-tick progress step used when no pace is configured.
const DefaultProgressIncrement = 0.04

type storeEntry struct {
	// res is never mutated after it is stored; writers swap in a new value.
	res *domain.Resource
	gen uint64
}

// ResourceStore is the authoritative in-memory table of vehicles.
//
// Every mutation replaces a resource value whole under the write lock, so a
// reader never observes a route without its matching position. Each vehicle
// carries a generation counter: a route fetch captures the generation when
// it starts and its result is applied only if no newer request superseded it.
type ResourceStore struct {
	mu      sync.RWMutex
	entries map[int]*storeEntry
	order   []int
	pace    Pace
	closed  bool
}

func NewResourceStore(resources []domain.Resource, pace Pace) (*ResourceStore, error) {
	if pace == nil {
		pace = FixedPace{Fraction: DefaultProgressIncrement}
	}

	s := &ResourceStore{
		entries: make(map[int]*storeEntry, len(resources)),
		order:   make([]int, 0, len(resources)),
		pace:    pace,
	}

	for i, r := range resources {
		if _, ok := s.entries[r.ID]; ok {
			return nil, fmt.Errorf("new resource store: duplicate resource id %d at index %d", r.ID, i)
		}
		if !r.Position.Valid() {
			return nil, fmt.Errorf("new resource store: resource %d: invalid position %s", r.ID, r.Position)
		}

		res := r.Clone()
		if res.Route != nil {
			res = placeOnRoute(res, clamp(res.Progress, 0, 1))
		}

		s.entries[r.ID] = &storeEntry{res: &res}
		s.order = append(s.order, r.ID)
	}
	sort.Ints(s.order)

	return s, nil
}

// Snapshot returns detached copies of all resources ordered by id.
func (s *ResourceStore) Snapshot() []domain.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Resource, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].res.Clone())
	}
	return out
}

// Get returns a detached copy of one resource.
func (s *ResourceStore) Get(id int) (domain.Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.Resource{}, false
	}
	return e.res.Clone(), true
}

func (s *ResourceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// AdvanceProgress moves every routed vehicle one tick along its route and
// re-derives its position. Returns the number of vehicles whose position changed.
func (s *ResourceStore) AdvanceProgress(tickDelta time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}

	moved := 0
	for _, id := range s.order {
		e := s.entries[id]
		cur := e.res
		if cur.Route == nil || cur.Arrived {
			continue
		}

		p := clamp(cur.Progress+s.pace.Increment(cur.Route, tickDelta), 0, 1)
		next := placeOnRoute(cur.Clone(), p)
		if next.Position != cur.Position {
			moved++
		}
		e.res = &next
	}
	return moved
}

// BeginFetch starts a new route request for a vehicle and returns the
// generation the result must present to ApplyRoute.
func (s *ResourceStore) BeginFetch(id int) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || s.closed {
		return 0, false
	}
	e.gen++
	return e.gen, true
}

// Invalidate supersedes any in-flight request for a vehicle without
// touching its state.
func (s *ResourceStore) Invalidate(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.gen++
	}
}

// ApplyRoute installs a freshly fetched route. It is a no-op when the store is
// closed or a newer request for the vehicle has started since gen was issued.
func (s *ResourceStore) ApplyRoute(id int, gen uint64, dest domain.Coordinate, route *domain.Route) bool {
	if route == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || s.closed || e.gen != gen {
		return false
	}

	next := e.res.Clone()
	next.Destination = &dest
	next.Route = route
	next.Progress = 0
	next.Arrived = false
	next = placeOnRoute(next, 0)

	e.res = &next
	return true
}

// ClearAssignment makes a vehicle idle: destination and route are dropped,
// position is kept. Any in-flight request for it is superseded.
func (s *ResourceStore) ClearAssignment(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || s.closed {
		return false
	}
	e.gen++

	if e.res.Destination == nil && e.res.Route == nil {
		return false
	}

	next := e.res.Clone()
	next.Destination = nil
	next.Route = nil
	next.Progress = 0
	next.LegIndex = 0
	next.StepIndex = 0
	next.Arrived = false

	e.res = &next
	return true
}

// Close stops the store from accepting writes. Late completions become no-ops.
func (s *ResourceStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// placeOnRoute sets progress to p and derives position fields from the route.
// Degenerate routes leave the resource where it is.
func placeOnRoute(r domain.Resource, p float64) domain.Resource {
	pos := LocateOnRoute(r.Route, p)

	switch pos.Status {
	case PositionNoMovement:
		return r
	case PositionEndOfRoute:
		r.Progress = 1
		r.Arrived = true
	default:
		r.Progress = p
		r.Arrived = false
	}

	r.Position = pos.Coordinate
	r.LegIndex = pos.LegIndex
	r.StepIndex = pos.StepIndex
	r.Heading = pos.Heading
	return r
}
