package services

import (
	"context"
	"errors"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/geo"
	"route-navigation-service/internal/path"
	"route-navigation-service/internal/ports"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// EditSession edits one waypoint path.
//
// Structural edits are applied immediately under the session lock and return
// a snapshot. Segments they invalidate are recomputed in the background; each
// result is tagged with the waypoint pair it was requested for and is applied
// only if that pair is still adjacent and unmoved. Anything else is dropped.
type EditSession struct {
	router   ports.Router
	settings Settings
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	model     *path.Model
	closed    bool
	listeners []func(path.Snapshot)
	seq       uint64

	// deliverMu serializes listener calls; delivered is the seq of the
	// newest snapshot handed out. Older snapshots are never delivered after it.
	deliverMu sync.Mutex
	delivered uint64
}

// delivery is a snapshot taken under mu, numbered in model order.
type delivery struct {
	seq       uint64
	snap      path.Snapshot
	listeners []func(path.Snapshot)
}

// recompute is one background routing request for a slot.
type recompute struct {
	generation uint64
	slot       int
	from, to   domain.Waypoint
}

func NewEditSession(router ports.Router, settings Settings, log *zap.Logger) *EditSession {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &EditSession{
		router:   router,
		settings: settings.withDefaults(),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		model:    path.New(),
	}
}

// NewSessionFromRoute seeds a session for editing an existing routed result.
// The path becomes [live or route start, route end] joined by the route itself.
func NewSessionFromRoute(d domain.Directions, live *domain.Coordinate, router ports.Router, settings Settings, log *zap.Logger) (*EditSession, error) {
	if len(d.Polyline) < 2 {
		return nil, fmt.Errorf("new session from route: %d points: %w", len(d.Polyline), domain.ErrDegenerateInput)
	}

	s := NewEditSession(router, settings, log)

	start := d.Polyline[0]
	if live != nil {
		start = *live
	}
	a := domain.NewWaypoint(start)
	b := domain.NewWaypoint(d.Polyline[len(d.Polyline)-1])
	seg := domain.NewSegment(a, b, d)

	s.model.Append(a, nil)
	s.model.Append(b, &seg)
	return s, nil
}

func (s *EditSession) Settings() Settings { return s.settings }

// Subscribe registers fn for every snapshot produced by an edit or an applied
// result. Calls are serialized and never go back in time: a snapshot that
// lost the race to a newer one is skipped. fn must not edit the session
// synchronously. The returned func removes it.
func (s *EditSession) Subscribe(fn func(path.Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

func (s *EditSession) Snapshot() path.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Snapshot()
}

// HandleTapAdd appends a waypoint. The first waypoint has no segment; later
// ones get a pending segment from the previous waypoint.
func (s *EditSession) HandleTapAdd(c domain.Coordinate) (path.Snapshot, error) {
	if !c.Valid() {
		return path.Snapshot{}, fmt.Errorf("tap add %v: invalid coordinate: %w", c, domain.ErrDegenerateInput)
	}

	return s.edit(func(m *path.Model) ([]int, error) {
		return m.Insert(m.Len(), domain.NewWaypoint(c))
	})
}

// AppendPoints adds many waypoints at once, as when a saved route is loaded.
func (s *EditSession) AppendPoints(points []domain.Coordinate) (path.Snapshot, error) {
	for i, c := range points {
		if !c.Valid() {
			return path.Snapshot{}, fmt.Errorf("append points: point %d: %w", i, domain.ErrDegenerateInput)
		}
	}

	return s.edit(func(m *path.Model) ([]int, error) {
		var stale []int
		for _, c := range points {
			idx, err := m.Insert(m.Len(), domain.NewWaypoint(c))
			if err != nil {
				return nil, err
			}
			stale = append(stale, idx...)
		}
		return stale, nil
	})
}

// TryInsertOnPath inserts a waypoint on the segment closest to tap, measured
// in screen space over every slot. Slots without a segment are measured
// along the straight line between their waypoints. A tap farther than
// tolerance from every segment is a no-op and reports false.
func (s *EditSession) TryInsertOnPath(tap orb.Point, tolerance float64, screen ports.ScreenProjector) (path.Snapshot, bool, error) {
	if screen == nil {
		return path.Snapshot{}, false, errors.New("try insert on path: screen projector is nil")
	}
	if tolerance <= 0 {
		tolerance = s.settings.InsertTolerancePx
	}

	inserted := false
	snap, err := s.edit(func(m *path.Model) ([]int, error) {
		snap := m.Snapshot()

		bestSlot := -1
		var best geo.Hit
		for i, slot := range snap.Slots {
			coords := []domain.Coordinate{snap.Waypoints[i].Coordinate, snap.Waypoints[i+1].Coordinate}
			if slot.State == path.SlotRouted && len(slot.Segment.Polyline) > 0 {
				coords = slot.Segment.Polyline
			}

			line := make(orb.LineString, 0, len(coords))
			for _, c := range coords {
				line = append(line, screen.ToScreen(c))
			}

			hit := geo.NearestOnPolyline(line, tap)
			if hit.Found() && (bestSlot < 0 || hit.Distance < best.Distance) {
				bestSlot, best = i, hit
			}
		}

		if bestSlot < 0 || best.Distance > tolerance {
			return nil, nil
		}

		inserted = true
		wp := domain.NewWaypoint(screen.ToCoordinate(best.Point))
		return m.Insert(bestSlot+1, wp)
	})
	return snap, inserted, err
}

// MoveWaypoint moves a waypoint immediately and recomputes at most its two
// adjacent segments in the background.
func (s *EditSession) MoveWaypoint(index int, c domain.Coordinate) (path.Snapshot, error) {
	if !c.Valid() {
		return path.Snapshot{}, fmt.Errorf("move waypoint %d to %v: invalid coordinate: %w", index, c, domain.ErrDegenerateInput)
	}
	return s.edit(func(m *path.Model) ([]int, error) {
		return m.Move(index, c)
	})
}

// RemoveWaypoint deletes a waypoint; an interior removal reroutes the merged segment.
func (s *EditSession) RemoveWaypoint(index int) (path.Snapshot, error) {
	return s.edit(func(m *path.Model) ([]int, error) {
		return m.Remove(index)
	})
}

// HitTestWaypoint returns the index of the waypoint nearest to p on screen
// within radius, picking the lower index on ties.
func (s *EditSession) HitTestWaypoint(p orb.Point, radius float64, screen ports.ScreenProjector) (int, bool) {
	if screen == nil {
		return -1, false
	}
	if radius <= 0 {
		radius = s.settings.WaypointHitRadiusPx
	}

	snap := s.Snapshot()
	best, bestDist := -1, 0.0
	for i, w := range snap.Waypoints {
		dist := planar.Distance(screen.ToScreen(w.Coordinate), p)
		if dist <= radius && (best < 0 || dist < bestDist) {
			best, bestDist = i, dist
		}
	}
	return best, best >= 0
}

// Reset clears the path. Results still in flight belong to the previous
// generation and are discarded.
func (s *EditSession) Reset() path.Snapshot {
	s.mu.Lock()
	s.model.Reset()
	d := s.snapshotLocked()
	s.mu.Unlock()

	s.deliver(d)
	return d.snap
}

// Close discards the session and cancels outstanding router calls.
func (s *EditSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.model.Reset()
	s.listeners = nil
	s.mu.Unlock()

	s.cancel()
}

// Wait blocks until every dispatched recomputation has finished or ctx ends.
func (s *EditSession) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// edit applies fn under the lock, dispatches recomputation for the slots it
// reports stale, and notifies subscribers.
func (s *EditSession) edit(fn func(m *path.Model) ([]int, error)) (path.Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return path.Snapshot{}, fmt.Errorf("edit session: %w", domain.ErrSessionNotFound)
	}

	stale, err := fn(s.model)
	if err != nil {
		s.mu.Unlock()
		return path.Snapshot{}, err
	}
	s.dispatchLocked(stale)
	d := s.snapshotLocked()
	s.mu.Unlock()

	s.deliver(d)
	return d.snap, nil
}

func (s *EditSession) dispatchLocked(slots []int) {
	for _, i := range slots {
		from, to, ok := s.model.Endpoints(i)
		if !ok {
			continue
		}
		job := recompute{generation: s.model.Generation(), slot: i, from: from, to: to}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			d, err := s.router.Route(s.ctx, job.from.Coordinate, job.to.Coordinate, s.settings.RouteOptions())
			s.apply(job, d, err)
		}()
	}
}

// apply stores a recomputation result if its waypoint pair is still current.
// A failure never replaces a segment that is already routed for the same pair,
// since another request for that pair may have succeeded first.
// Returns true when the model changed.
func (s *EditSession) apply(job recompute, d domain.Directions, routeErr error) bool {
	s.mu.Lock()

	slot, ok := s.currentSlotLocked(job)
	if !ok {
		s.mu.Unlock()
		s.log.Debug("edit.stale_result_dropped",
			zap.Int("slot", job.slot),
			zap.String("from_id", job.from.ID),
			zap.String("to_id", job.to.ID),
		)
		return false
	}

	if routeErr != nil {
		if state, _ := s.model.State(slot); state == path.SlotRouted {
			s.mu.Unlock()
			s.log.Debug("edit.failure_after_success_ignored", zap.Int("slot", slot), zap.Error(routeErr))
			return false
		}
		_ = s.model.MarkGap(slot)
		s.log.Info("edit.segment_gap", zap.Int("slot", slot), zap.Error(routeErr))
	} else if err := s.model.SetSegment(slot, domain.NewSegment(job.from, job.to, d)); err != nil {
		s.mu.Unlock()
		return false
	}

	dl := s.snapshotLocked()
	s.mu.Unlock()

	s.deliver(dl)
	return true
}

// currentSlotLocked resolves the slot a job was computed for. The slot index
// may have shifted, so the pair is found by waypoint id and must be unmoved.
func (s *EditSession) currentSlotLocked(job recompute) (int, bool) {
	if s.closed || job.generation != s.model.Generation() {
		return 0, false
	}

	slot := job.slot
	if from, _, ok := s.model.Endpoints(slot); !ok || from.ID != job.from.ID {
		slot = s.model.IndexOf(job.from.ID)
	}

	from, to, ok := s.model.Endpoints(slot)
	if !ok || !from.Same(job.from) || !to.Same(job.to) {
		return 0, false
	}
	return slot, true
}

func (s *EditSession) snapshotLocked() delivery {
	listeners := make([]func(path.Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		if fn != nil {
			listeners = append(listeners, fn)
		}
	}
	s.seq++
	return delivery{seq: s.seq, snap: s.model.Snapshot(), listeners: listeners}
}

// deliver hands d to its listeners unless a newer snapshot already went out.
func (s *EditSession) deliver(d delivery) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if d.seq <= s.delivered {
		return
	}
	s.delivered = d.seq
	for _, fn := range d.listeners {
		fn(d.snap)
	}
}
