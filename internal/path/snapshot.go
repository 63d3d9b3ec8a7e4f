package path

import "route-navigation-service/internal/domain"

// Snapshot is an immutable copy of a model, handed to listeners and callers.
type Snapshot struct {
	Generation uint64            `json:"generation"`
	Waypoints  []domain.Waypoint `json:"waypoints"`
	Slots      []Slot            `json:"slots"`
	Unrouted   []int             `json:"unrouted"`
}

func (m *Model) Snapshot() Snapshot {
	wps := make([]domain.Waypoint, len(m.waypoints))
	copy(wps, m.waypoints)

	slots := make([]Slot, len(m.slots))
	for i, s := range m.slots {
		slots[i] = Slot{State: s.State}
		if s.Segment != nil {
			seg := *s.Segment
			slots[i].Segment = &seg
		}
	}

	return Snapshot{
		Generation: m.generation,
		Waypoints:  wps,
		Slots:      slots,
		Unrouted:   m.Unrouted(),
	}
}

// Segments returns the routed segments of the snapshot in path order.
func (s Snapshot) Segments() []domain.Segment {
	out := make([]domain.Segment, 0, len(s.Slots))
	for _, slot := range s.Slots {
		if slot.State == SlotRouted && slot.Segment != nil {
			out = append(out, *slot.Segment)
		}
	}
	return out
}

// Coordinates returns the waypoint positions in order.
func (s Snapshot) Coordinates() []domain.Coordinate {
	out := make([]domain.Coordinate, len(s.Waypoints))
	for i, w := range s.Waypoints {
		out[i] = w.Coordinate
	}
	return out
}
