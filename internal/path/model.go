// Package path owns the waypoint sequence of an edited route and the segment
// slot between each consecutive pair.
//
// The model never talks to a router. Structural edits report which slots went
// stale; the caller schedules their recomputation and later fills them with
// SetSegment or MarkGap.
package path

import (
	"fmt"
	"route-navigation-service/internal/domain"
)

type SlotState int

const (
	// Slot holds a segment computed for its current waypoint pair.
	SlotRouted SlotState = iota
	// Slot is waiting for a recomputation result.
	SlotPending
	// Routing failed; the slot stays empty until retried.
	SlotGap
)

func (s SlotState) String() string {
	switch s {
	case SlotRouted:
		return "routed"
	case SlotPending:
		return "pending"
	case SlotGap:
		return "gap"
	}
	return fmt.Sprintf("SlotState(%d)", int(s))
}

func (s SlotState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SlotState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "routed":
		*s = SlotRouted
	case "pending":
		*s = SlotPending
	case "gap":
		*s = SlotGap
	default:
		return fmt.Errorf("unknown slot state %q", b)
	}
	return nil
}

// Slot is the connection between waypoint i and i+1.
// Segment is nil unless State is SlotRouted.
type Slot struct {
	State   SlotState       `json:"state"`
	Segment *domain.Segment `json:"segment,omitempty"`
}

// Model keeps len(slots) == max(len(waypoints)-1, 0) after every operation.
// It is not safe for concurrent use; the edit session serializes access.
type Model struct {
	waypoints  []domain.Waypoint
	slots      []Slot
	generation uint64
}

func New() *Model {
	return &Model{}
}

// Reset clears the path and starts a new generation. Results dispatched
// against an older generation must be dropped.
func (m *Model) Reset() {
	m.waypoints = nil
	m.slots = nil
	m.generation++
}

func (m *Model) Generation() uint64 { return m.generation }

func (m *Model) Len() int { return len(m.waypoints) }

func (m *Model) Waypoint(i int) (domain.Waypoint, bool) {
	if i < 0 || i >= len(m.waypoints) {
		return domain.Waypoint{}, false
	}
	return m.waypoints[i], true
}

func (m *Model) Last() (domain.Waypoint, bool) {
	return m.Waypoint(len(m.waypoints) - 1)
}

// IndexOf returns the current position of the waypoint with the given id.
func (m *Model) IndexOf(id string) int {
	for i, w := range m.waypoints {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Append adds a waypoint at the end. For a non-empty path the new slot holds
// seg when given, or becomes a gap when seg is nil.
func (m *Model) Append(wp domain.Waypoint, seg *domain.Segment) {
	m.waypoints = append(m.waypoints, wp)
	if len(m.waypoints) == 1 {
		return
	}
	if seg == nil {
		m.slots = append(m.slots, Slot{State: SlotGap})
		return
	}
	s := *seg
	m.slots = append(m.slots, Slot{State: SlotRouted, Segment: &s})
}

// Insert places wp at index, shifting later waypoints, and returns the slot
// indices that now need routing.
//
// For an interior insert the slot that spanned the insertion point (index-1)
// is replaced and a new slot is inserted at index, so the untouched slots after
// it keep their alignment with the waypoints.
func (m *Model) Insert(index int, wp domain.Waypoint) ([]int, error) {
	if index < 0 || index > len(m.waypoints) {
		return nil, fmt.Errorf("insert waypoint at %d of %d: %w", index, len(m.waypoints), domain.ErrIndexOutOfRange)
	}

	m.waypoints = append(m.waypoints, domain.Waypoint{})
	copy(m.waypoints[index+1:], m.waypoints[index:])
	m.waypoints[index] = wp

	n := len(m.waypoints)
	switch {
	case n == 1:
		return nil, nil
	case index == n-1:
		m.slots = append(m.slots, Slot{State: SlotPending})
		return []int{index - 1}, nil
	case index == 0:
		m.insertSlot(0)
		return []int{0}, nil
	default:
		m.slots[index-1] = Slot{State: SlotPending}
		m.insertSlot(index)
		return []int{index - 1, index}, nil
	}
}

func (m *Model) insertSlot(i int) {
	m.slots = append(m.slots, Slot{})
	copy(m.slots[i+1:], m.slots[i:])
	m.slots[i] = Slot{State: SlotPending}
}

// Remove deletes the waypoint at index and returns the slot indices that need
// routing. Removing an interior waypoint merges its two slots into one.
func (m *Model) Remove(index int) ([]int, error) {
	n := len(m.waypoints)
	if index < 0 || index >= n {
		return nil, fmt.Errorf("remove waypoint %d of %d: %w", index, n, domain.ErrIndexOutOfRange)
	}

	m.waypoints = append(m.waypoints[:index], m.waypoints[index+1:]...)

	switch {
	case n == 1:
		return nil, nil
	case index == 0:
		m.slots = m.slots[1:]
		return nil, nil
	case index == n-1:
		m.slots = m.slots[:len(m.slots)-1]
		return nil, nil
	default:
		m.slots = append(m.slots[:index], m.slots[index+1:]...)
		m.slots[index-1] = Slot{State: SlotPending}
		return []int{index - 1}, nil
	}
}

// Move updates a waypoint in place and returns the adjacent slots that need
// routing. The old segments are dropped rather than left stale.
func (m *Model) Move(index int, c domain.Coordinate) ([]int, error) {
	if index < 0 || index >= len(m.waypoints) {
		return nil, fmt.Errorf("move waypoint %d of %d: %w", index, len(m.waypoints), domain.ErrIndexOutOfRange)
	}

	m.waypoints[index] = m.waypoints[index].Moved(c)

	var stale []int
	if index > 0 {
		stale = append(stale, index-1)
	}
	if index < len(m.waypoints)-1 {
		stale = append(stale, index)
	}
	for _, i := range stale {
		m.slots[i] = Slot{State: SlotPending}
	}
	return stale, nil
}

// Endpoints returns the waypoint pair a slot connects.
func (m *Model) Endpoints(slot int) (domain.Waypoint, domain.Waypoint, bool) {
	if slot < 0 || slot >= len(m.slots) {
		return domain.Waypoint{}, domain.Waypoint{}, false
	}
	return m.waypoints[slot], m.waypoints[slot+1], true
}

// SetSegment fills a slot. The segment must have been computed for the
// waypoint pair the slot currently connects.
func (m *Model) SetSegment(slot int, seg domain.Segment) error {
	from, to, ok := m.Endpoints(slot)
	if !ok {
		return fmt.Errorf("set segment %d of %d: %w", slot, len(m.slots), domain.ErrIndexOutOfRange)
	}
	if !seg.Connects(from, to) {
		return fmt.Errorf("set segment %d: %w", slot, domain.ErrStaleResult)
	}
	m.slots[slot] = Slot{State: SlotRouted, Segment: &seg}
	return nil
}

// State reports the state of a slot; ok is false when it does not exist.
func (m *Model) State(slot int) (SlotState, bool) {
	if slot < 0 || slot >= len(m.slots) {
		return SlotPending, false
	}
	return m.slots[slot].State, true
}

func (m *Model) MarkGap(slot int) error {
	if slot < 0 || slot >= len(m.slots) {
		return fmt.Errorf("mark gap %d of %d: %w", slot, len(m.slots), domain.ErrIndexOutOfRange)
	}
	m.slots[slot] = Slot{State: SlotGap}
	return nil
}

func (m *Model) MarkPending(slot int) error {
	if slot < 0 || slot >= len(m.slots) {
		return fmt.Errorf("mark pending %d of %d: %w", slot, len(m.slots), domain.ErrIndexOutOfRange)
	}
	m.slots[slot] = Slot{State: SlotPending}
	return nil
}

// Unrouted returns every slot index that has no segment (gaps and pending).
func (m *Model) Unrouted() []int {
	var out []int
	for i, s := range m.slots {
		if s.State != SlotRouted {
			out = append(out, i)
		}
	}
	return out
}

// Gaps returns the slots whose last routing attempt failed.
func (m *Model) Gaps() []int {
	var out []int
	for i, s := range m.slots {
		if s.State == SlotGap {
			out = append(out, i)
		}
	}
	return out
}

// RoutedSegments returns the segments that are present, in path order.
func (m *Model) RoutedSegments() []domain.Segment {
	out := make([]domain.Segment, 0, len(m.slots))
	for _, s := range m.slots {
		if s.State == SlotRouted && s.Segment != nil {
			out = append(out, *s.Segment)
		}
	}
	return out
}

// Check verifies the slot-count invariant and that every routed segment
// belongs to the pair it sits between. Gaps are valid.
func (m *Model) Check() error {
	want := len(m.waypoints) - 1
	if want < 0 {
		want = 0
	}
	if len(m.slots) != want {
		return fmt.Errorf("path invariant: %d slots for %d waypoints", len(m.slots), len(m.waypoints))
	}
	for i, s := range m.slots {
		if s.State != SlotRouted {
			continue
		}
		if s.Segment == nil || !s.Segment.Connects(m.waypoints[i], m.waypoints[i+1]) {
			return fmt.Errorf("path invariant: slot %d does not connect its waypoints", i)
		}
	}
	return nil
}
