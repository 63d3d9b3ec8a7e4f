package domain

import "github.com/google/uuid"

// A user-placed point defining path structure.
// Order in the owning path defines direction; ID is stable across moves.
type Waypoint struct {
	ID         string     `json:"id"`
	Coordinate Coordinate `json:"coordinate"`
}

func NewWaypoint(c Coordinate) Waypoint {
	return Waypoint{ID: uuid.NewString(), Coordinate: c}
}

// Moved returns a copy of the waypoint at a new coordinate, keeping its ID.
func (w Waypoint) Moved(c Coordinate) Waypoint {
	return Waypoint{ID: w.ID, Coordinate: c}
}

// Same reports whether two waypoint values are the same waypoint at the same position.
func (w Waypoint) Same(o Waypoint) bool {
	return w.ID == o.ID && w.Coordinate == o.Coordinate
}
