package services

import (
	"context"
	"errors"
	"route-navigation-service/internal/adapters/routing"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeRetriesGapsOnce(t *testing.T) {
	router := routing.NewMockRouter()
	s, _ := newTestSession(t, router)

	b, c := coord(0, 0.01), coord(0, 0.02)
	router.FailPair(b, c, nil)
	addAll(t, s, coord(0, 0), b, c)
	waitIdle(t, s)

	calls := router.Calls()
	nav, err := s.MaterializeForNavigation(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if router.Calls() != calls+1 {
		t.Fatalf("gap must be retried exactly once, got %d calls", router.Calls()-calls)
	}
	if len(nav.Gaps) != 1 || nav.Gaps[0] != 1 {
		t.Fatalf("gaps = %v, want [1]", nav.Gaps)
	}
	if len(nav.Route.Segments()) != 1 {
		t.Fatalf("route should skip the gap, got %d segments", len(nav.Route.Segments()))
	}

	router.ClearFailures()
	nav, err = s.MaterializeForNavigation(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nav.Gaps) != 0 || len(nav.Route.Segments()) != 2 {
		t.Fatalf("retry should fill the gap, got gaps=%v segments=%d", nav.Gaps, len(nav.Route.Segments()))
	}
	if nav.DistanceMeters <= 0 || nav.DurationSeconds <= 0 {
		t.Fatalf("expected aggregated distance and duration, got %+v", nav)
	}

	waitIdle(t, s)
	if gaps := s.Snapshot().Unrouted; len(gaps) != 0 {
		t.Fatalf("successful retry should also fill the edited path, unrouted=%v", gaps)
	}
}

func TestMaterializeLeadingSegment(t *testing.T) {
	router := routing.NewMockRouter()
	s, _ := newTestSession(t, router)

	addAll(t, s, coord(0, 0), coord(0, 0.01))
	waitIdle(t, s)

	far := coord(0.001, 0)
	nav, err := s.MaterializeForNavigation(context.Background(), &far)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !nav.Leading || len(nav.Route.Segments()) != 2 {
		t.Fatalf("expected a leading segment, got leading=%v segments=%d", nav.Leading, len(nav.Route.Segments()))
	}
	if nav.Route.Segments()[0].FromID != LiveWaypointID {
		t.Fatalf("leading segment must start at the live position")
	}

	near := coord(0.00001, 0)
	nav, err = s.MaterializeForNavigation(context.Background(), &near)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Leading {
		t.Fatalf("live position within the arrival epsilon needs no leading segment")
	}
}

func TestMaterializeEmptyPath(t *testing.T) {
	s, _ := newTestSession(t, routing.NewMockRouter())

	if _, err := s.MaterializeForNavigation(context.Background(), nil); !errors.Is(err, domain.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestPlanDirect(t *testing.T) {
	router := routing.NewMockRouter()

	route, err := PlanDirect(context.Background(), router, coord(0, 0), coord(0, 0.01), DefaultSettings().RouteOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.TotalDistance() <= 0 || route.TotalDuration() <= 0 {
		t.Fatalf("expected a measurable route, got %v m %v s", route.TotalDistance(), route.TotalDuration())
	}

	router.FailAll(domain.ErrNoRoute)
	if _, err := PlanDirect(context.Background(), router, coord(0, 0), coord(0, 0.01), DefaultSettings().RouteOptions()); !errors.Is(err, domain.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

type materialized struct {
	nav *Navigation
	err error
}

func materializeAsync(ctx context.Context, s *EditSession) <-chan materialized {
	done := make(chan materialized, 1)
	go func() {
		nav, err := s.MaterializeForNavigation(ctx, nil)
		done <- materialized{nav, err}
	}()
	return done
}

func awaitMaterialized(t *testing.T, done <-chan materialized) materialized {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(5 * time.Second):
		t.Fatalf("materialize did not return")
		return materialized{}
	}
}

func TestMaterializeFailedRetryKeepsBackgroundResult(t *testing.T) {
	router := routing.NewMockRouter()
	s, logs := newTestSession(t, router)

	addAll(t, s, coord(0, 0), coord(0, 0.01))
	waitIdle(t, s)

	releaseBackground := router.Hold()
	if _, err := s.MoveWaypoint(1, coord(0.001, 0.01)); err != nil {
		t.Fatalf("move: %v", err)
	}
	waitCalls(t, router, 2)

	// The retry sees the slot pending and fails; the background call succeeds first.
	router.FailAll(domain.ErrNoRoute)
	releaseRetry := router.Hold()
	done := materializeAsync(context.Background(), s)
	waitCalls(t, router, 3)

	releaseBackground()
	waitIdle(t, s)
	require.Equal(t, path.SlotRouted, s.Snapshot().Slots[0].State)

	releaseRetry()
	res := awaitMaterialized(t, done)
	require.NoError(t, res.err)

	assert.Equal(t, path.SlotRouted, s.Snapshot().Slots[0].State, "a failed retry must not undo a routed slot")
	assert.Empty(t, res.nav.Gaps)
	assert.Len(t, res.nav.Route.Segments(), 1)
	assert.Equal(t, 1, logs.FilterMessage("edit.failure_after_success_ignored").Len())
}

func TestMaterializeCancelledLeavesPendingSlot(t *testing.T) {
	router := routing.NewMockRouter()
	s, _ := newTestSession(t, router)

	router.Hold()
	addAll(t, s, coord(0, 0), coord(0, 0.01))
	waitCalls(t, router, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := materializeAsync(ctx, s)
	waitCalls(t, router, 2)
	cancel()

	res := awaitMaterialized(t, done)
	require.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, path.SlotPending, s.Snapshot().Slots[0].State, "cancellation is not a routing failure")

	router.Release()
	waitIdle(t, s)
	assert.Equal(t, path.SlotRouted, s.Snapshot().Slots[0].State)
}
