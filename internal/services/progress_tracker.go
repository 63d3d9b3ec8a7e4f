package services

import (
	"route-navigation-service/internal/domain"
	"sync"
)

// ProgressTracker follows a live position along one committed route.
//
// Every Update is computed from the immutable route and the sample alone; the
// tracker keeps the last state only so late subscribers and the HUD can read it.
type ProgressTracker struct {
	source            RouteSource
	offRouteThreshold float64

	mu        sync.Mutex
	last      domain.ProgressState
	listeners []func(domain.ProgressState)
}

// NewProgressTracker tracks src. A positive offRouteThreshold, in the route's
// metric, enables the OffRoute flag.
func NewProgressTracker(src RouteSource, offRouteThreshold float64) *ProgressTracker {
	t := &ProgressTracker{source: src, offRouteThreshold: offRouteThreshold}
	t.last = t.Initial()
	return t
}

func (t *ProgressTracker) Source() RouteSource { return t.source }

// Initial is the state shown before the first location sample.
func (t *ProgressTracker) Initial() domain.ProgressState {
	return domain.ProgressState{
		RemainingInCurrentUnit: t.source.TotalDistance(),
		RemainingTotalDistance: t.source.TotalDistance(),
		RemainingTotalDuration: t.source.TotalDuration(),
		ActiveInstructionText:  Depart,
		ActiveIconHint:         IconStraight,
	}
}

// Update computes progress for a location sample and notifies subscribers.
func (t *ProgressTracker) Update(pos domain.Coordinate) domain.ProgressState {
	state := t.source.ProgressAt(pos)
	if t.offRouteThreshold > 0 && state.DistanceToRoute > t.offRouteThreshold {
		state.OffRoute = true
	}

	t.mu.Lock()
	t.last = state
	listeners := append([]func(domain.ProgressState){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
	return state
}

func (t *ProgressTracker) Last() domain.ProgressState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Subscribe registers fn for every future state. Listeners run on the
// goroutine that called Update.
func (t *ProgressTracker) Subscribe(fn func(domain.ProgressState)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}
