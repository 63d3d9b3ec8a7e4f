// Package export renders an edited path or a saved route as GeoJSON or KML.
package export

import (
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/path"
)

// Leg is one connection between consecutive waypoints. Routed legs carry the
// router geometry; gaps carry the straight line between their endpoints.
type Leg struct {
	From            int
	To              int
	Line            []domain.Coordinate
	Routed          bool
	DistanceMeters  float64
	DurationSeconds float64
}

type Route struct {
	Name      string
	Waypoints []domain.Coordinate
	Legs      []Leg
}

func FromSnapshot(name string, snap path.Snapshot) Route {
	r := Route{Name: name, Waypoints: snap.Coordinates()}
	for i, slot := range snap.Slots {
		leg := Leg{From: i, To: i + 1}
		if slot.State == path.SlotRouted && slot.Segment != nil {
			leg.Line = slot.Segment.Polyline
			leg.Routed = true
			leg.DistanceMeters = slot.Segment.DistanceMeters
			leg.DurationSeconds = slot.Segment.DurationSeconds
		} else {
			leg.Line = []domain.Coordinate{r.Waypoints[i], r.Waypoints[i+1]}
		}
		r.Legs = append(r.Legs, leg)
	}
	return r
}

// FromSavedRoute exports the stored points; saved routes keep no geometry,
// so every leg is a straight line.
func FromSavedRoute(s domain.SavedRoute) Route {
	r := Route{Name: s.Name, Waypoints: s.Points}
	for i := 0; i+1 < len(s.Points); i++ {
		r.Legs = append(r.Legs, Leg{From: i, To: i + 1, Line: []domain.Coordinate{s.Points[i], s.Points[i+1]}})
	}
	return r
}
