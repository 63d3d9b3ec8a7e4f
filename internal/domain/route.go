package domain

import "time"

// Named waypoint list kept in the flat saved-route store.
// Only waypoint positions are kept; segments are recomputed when the route is loaded.
type SavedRoute struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Points    []Coordinate `json:"points"`
	CreatedAt time.Time    `json:"created_at"`
}
