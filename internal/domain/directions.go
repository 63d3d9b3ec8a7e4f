package domain

// Represents a single maneuver unit of a routed result.
type Step struct {
	Instruction     string       `json:"instruction"`
	IconHint        string       `json:"icon_hint"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	Polyline        []Coordinate `json:"polyline"`
}

// Result of a single routing request between two coordinates.
// Steps are optional; routers that do not return maneuvers leave them empty.
type Directions struct {
	Polyline        []Coordinate `json:"polyline"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	Steps           []Step       `json:"steps,omitempty"`
}

// Routed polyline between two consecutive waypoints.
// FromID/ToID pin the segment to the waypoints it was computed for.
type Segment struct {
	FromID          string       `json:"from_id"`
	ToID            string       `json:"to_id"`
	Polyline        []Coordinate `json:"polyline"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
}

func NewSegment(from, to Waypoint, d Directions) Segment {
	return Segment{
		FromID:          from.ID,
		ToID:            to.ID,
		Polyline:        d.Polyline,
		DistanceMeters:  d.DistanceMeters,
		DurationSeconds: d.DurationSeconds,
	}
}

// Connects reports whether the segment was computed for exactly this waypoint pair.
func (s Segment) Connects(from, to Waypoint) bool {
	return s.FromID == from.ID && s.ToID == to.ID
}
