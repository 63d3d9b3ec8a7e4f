package dto

import "time"

// SaveRouteRequest stores either explicit points or the current waypoints
// of a session.
type SaveRouteRequest struct {
	Name      string       `json:"name" validate:"required,max=128"`
	Points    []Coordinate `json:"points,omitempty" validate:"omitempty,dive"`
	SessionID string       `json:"session_id,omitempty"`
}

type RouteResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Points    []Coordinate `json:"points"`
	CreatedAt time.Time    `json:"created_at"`
}

type ListRouteResponse struct {
	Routes []RouteResponse `json:"routes"`
}
