package path

import (
	"errors"
	"route-navigation-service/internal/domain"
	"testing"
)

func wp(id string, lat, lon float64) domain.Waypoint {
	return domain.Waypoint{ID: id, Coordinate: domain.Coordinate{Lat: lat, Lon: lon}}
}

func seg(from, to domain.Waypoint) *domain.Segment {
	s := domain.NewSegment(from, to, domain.Directions{
		Polyline: []domain.Coordinate{from.Coordinate, to.Coordinate},
	})
	return &s
}

func TestModelAppend(t *testing.T) {
	m := New()
	a, b, c := wp("A", 0, 0), wp("B", 0, 1), wp("C", 0, 2)

	m.Append(a, nil)
	if len(m.Snapshot().Slots) != 0 {
		t.Fatalf("single waypoint must not have a slot")
	}

	m.Append(b, seg(a, b))
	m.Append(c, nil)

	if m.Len() != 3 {
		t.Fatalf("len = %d, want 3", m.Len())
	}
	if got := len(m.RoutedSegments()); got != 1 {
		t.Fatalf("routed segments = %d, want 1", got)
	}
	if gaps := m.Gaps(); len(gaps) != 1 || gaps[0] != 1 {
		t.Fatalf("gaps = %v, want [1]", gaps)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("gap must satisfy invariant: %v", err)
	}
}

func TestModelInsertInterior(t *testing.T) {
	m := New()
	a, b, c := wp("A", 0, 0), wp("B", 0, 10), wp("C", 0, 20)
	m.Append(a, nil)
	m.Append(b, seg(a, b))
	m.Append(c, seg(b, c))

	x := wp("X", 0, 5)
	stale, err := m.Insert(1, x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stale) != 2 || stale[0] != 0 || stale[1] != 1 {
		t.Fatalf("stale = %v, want [0 1]", stale)
	}

	snap := m.Snapshot()
	ids := []string{"A", "X", "B", "C"}
	for i, id := range ids {
		if snap.Waypoints[i].ID != id {
			t.Fatalf("waypoint %d = %q, want %q", i, snap.Waypoints[i].ID, id)
		}
	}

	if snap.Slots[0].State != SlotPending || snap.Slots[1].State != SlotPending {
		t.Fatalf("slots 0 and 1 must be pending, got %v %v", snap.Slots[0].State, snap.Slots[1].State)
	}
	if snap.Slots[2].State != SlotRouted || !snap.Slots[2].Segment.Connects(b, c) {
		t.Fatalf("slot 2 must still hold BC")
	}

	if err := m.SetSegment(0, *seg(a, x)); err != nil {
		t.Fatalf("set AX: %v", err)
	}
	if err := m.SetSegment(1, *seg(x, b)); err != nil {
		t.Fatalf("set XB: %v", err)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("invariant: %v", err)
	}
}

func TestModelInsertEnds(t *testing.T) {
	m := New()
	a, b := wp("A", 0, 0), wp("B", 0, 10)
	m.Append(a, nil)
	m.Append(b, seg(a, b))

	stale, err := m.Insert(0, wp("S", 0, -5))
	if err != nil || len(stale) != 1 || stale[0] != 0 {
		t.Fatalf("insert at head: stale=%v err=%v", stale, err)
	}

	stale, err = m.Insert(m.Len(), wp("E", 0, 15))
	if err != nil || len(stale) != 1 || stale[0] != 2 {
		t.Fatalf("insert at tail: stale=%v err=%v", stale, err)
	}

	if err := m.Check(); err != nil {
		t.Fatalf("invariant: %v", err)
	}
	if _, err := m.Insert(9, wp("Z", 0, 0)); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestModelRemove(t *testing.T) {
	m := New()
	a, b, c, d := wp("A", 0, 0), wp("B", 0, 1), wp("C", 0, 2), wp("D", 0, 3)
	m.Append(a, nil)
	m.Append(b, seg(a, b))
	m.Append(c, seg(b, c))
	m.Append(d, seg(c, d))

	stale, err := m.Remove(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stale) != 1 || stale[0] != 0 {
		t.Fatalf("stale = %v, want [0]", stale)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("invariant: %v", err)
	}

	if stale, _ := m.Remove(m.Len() - 1); len(stale) != 0 {
		t.Fatalf("removing the tail must not need routing, got %v", stale)
	}
	if stale, _ := m.Remove(0); len(stale) != 0 {
		t.Fatalf("removing the head must not need routing, got %v", stale)
	}
	if m.Len() != 1 || len(m.Snapshot().Slots) != 0 {
		t.Fatalf("expected one waypoint and no slots")
	}
}

func TestModelMove(t *testing.T) {
	m := New()
	a, b, c := wp("A", 0, 0), wp("B", 0, 1), wp("C", 0, 2)
	m.Append(a, nil)
	m.Append(b, seg(a, b))
	m.Append(c, seg(b, c))

	stale, err := m.Move(1, domain.Coordinate{Lat: 1, Lon: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("stale = %v, want both neighbours", stale)
	}

	moved, _ := m.Waypoint(1)
	if moved.ID != "B" || moved.Coordinate.Lat != 1 {
		t.Fatalf("moved waypoint = %+v", moved)
	}

	if len(m.Unrouted()) != 2 {
		t.Fatalf("unrouted = %v, want 2 slots", m.Unrouted())
	}

	if stale, _ := m.Move(0, domain.Coordinate{}); len(stale) != 1 || stale[0] != 0 {
		t.Fatalf("moving the head touches only slot 0, got %v", stale)
	}
	if stale, _ := m.Move(2, domain.Coordinate{}); len(stale) != 1 || stale[0] != 1 {
		t.Fatalf("moving the tail touches only the last slot, got %v", stale)
	}
}

func TestModelResetBumpsGeneration(t *testing.T) {
	m := New()
	m.Append(wp("A", 0, 0), nil)
	gen := m.Generation()

	m.Reset()

	if m.Len() != 0 || len(m.Snapshot().Slots) != 0 {
		t.Fatalf("reset must clear waypoints and slots")
	}
	if m.Generation() == gen {
		t.Fatalf("reset must start a new generation")
	}
}

func TestModelSetSegmentRejectsWrongPair(t *testing.T) {
	m := New()
	a, b := wp("A", 0, 0), wp("B", 0, 1)
	m.Append(a, nil)
	m.Append(b, nil)

	if err := m.SetSegment(0, *seg(b, a)); !errors.Is(err, domain.ErrStaleResult) {
		t.Fatalf("expected ErrStaleResult, got %v", err)
	}
}

func TestModelState(t *testing.T) {
	m := New()
	a, b := wp("A", 0, 0), wp("B", 0, 1)
	m.Append(a, nil)
	m.Append(b, nil)

	if st, ok := m.State(0); !ok || st != SlotGap {
		t.Fatalf("state = %v %v, want gap", st, ok)
	}
	if err := m.SetSegment(0, *seg(a, b)); err != nil {
		t.Fatalf("set segment: %v", err)
	}
	if st, _ := m.State(0); st != SlotRouted {
		t.Fatalf("state = %v, want routed", st)
	}
	if _, ok := m.State(1); ok {
		t.Fatalf("slot 1 must not exist")
	}
}
