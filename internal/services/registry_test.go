package services

import (
	"errors"
	"route-navigation-service/internal/adapters/routing"
	"route-navigation-service/internal/domain"
	"testing"
	"time"
)

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(routing.NewMockRouter(), DefaultSettings(), nil)
	t.Cleanup(reg.CloseAll)

	s := reg.Create()
	got, err := reg.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("get created session: %v", err)
	}

	if _, err := s.Tracker(); !errors.Is(err, domain.ErrNoActiveRoute) {
		t.Fatalf("expected ErrNoActiveRoute, got %v", err)
	}
	tracker := s.StartNavigation(unitChain())
	if active, err := s.Tracker(); err != nil || active != tracker {
		t.Fatalf("active tracker not returned: %v", err)
	}

	if err := reg.Delete(s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := reg.Get(s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := s.Edit.HandleTapAdd(coord(0, 0)); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("deleted session must reject edits, got %v", err)
	}
	if err := reg.Delete(s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("second delete: expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryCreateFromRoute(t *testing.T) {
	reg := NewRegistry(routing.NewMockRouter(), DefaultSettings(), nil)
	t.Cleanup(reg.CloseAll)

	d := domain.Directions{Polyline: []domain.Coordinate{coord(0, 0), coord(0, 0.01)}}
	s, err := reg.CreateFromRoute(d, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(s.Edit.Snapshot().Waypoints); n != 2 {
		t.Fatalf("waypoints = %d, want 2", n)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry size = %d, want 1", reg.Len())
	}
}

func TestRegistrySweepRemovesIdleSessions(t *testing.T) {
	reg := NewRegistry(routing.NewMockRouter(), DefaultSettings(), nil)
	t.Cleanup(reg.CloseAll)

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	active := reg.Create()
	idle := reg.Create()

	clock = clock.Add(30 * time.Minute)
	if _, err := reg.Get(active.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	clock = clock.Add(40 * time.Minute)

	if n := reg.Sweep(time.Hour); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}
	if _, err := reg.Get(active.ID); err != nil {
		t.Fatalf("recently used session was swept: %v", err)
	}
	if _, err := reg.Get(idle.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := idle.Edit.HandleTapAdd(coord(0, 0)); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("swept session must be closed, got %v", err)
	}
}
