package dto

import (
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/hud"
	"route-navigation-service/internal/path"
)

type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (c Coordinate) Domain() domain.Coordinate {
	return domain.Coordinate{Lat: c.Lat, Lon: c.Lon}
}

func FromDomain(c domain.Coordinate) Coordinate {
	return Coordinate{Lat: c.Lat, Lon: c.Lon}
}

type Viewport struct {
	Center Coordinate `json:"center"`
	Zoom   float64    `json:"zoom" validate:"gte=0,lte=24"`
	Width  float64    `json:"width" validate:"gt=0"`
	Height float64    `json:"height" validate:"gt=0"`
}

type CreateSessionRequest struct {
	RouteID string       `json:"route_id,omitempty"`
	Points  []Coordinate `json:"points,omitempty" validate:"omitempty,dive"`
}

// ScreenTapRequest is a tap in screen pixels on the given map view.
// Tolerance and Radius fall back to the configured defaults when zero.
type ScreenTapRequest struct {
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Viewport  Viewport `json:"viewport"`
	Tolerance float64  `json:"tolerance,omitempty" validate:"gte=0"`
	Radius    float64  `json:"radius,omitempty" validate:"gte=0"`
}

type SessionResponse struct {
	ID         string        `json:"id"`
	Path       path.Snapshot `json:"path"`
	Navigating bool          `json:"navigating"`
}

type InsertResponse struct {
	Inserted bool          `json:"inserted"`
	Path     path.Snapshot `json:"path"`
}

type HitTestResponse struct {
	Index int  `json:"index"`
	Found bool `json:"found"`
}

type NavigationRequest struct {
	Live *Coordinate `json:"live,omitempty"`
}

type NavigationResponse struct {
	DistanceMeters  float64              `json:"distance_meters"`
	DurationSeconds float64              `json:"duration_seconds"`
	Leading         bool                 `json:"leading"`
	Gaps            []int                `json:"gaps"`
	Polyline        []domain.Coordinate  `json:"polyline"`
	Bounds          *Bounds              `json:"bounds,omitempty"`
	Progress        domain.ProgressState `json:"progress"`
	HUD             hud.Overlay          `json:"hud"`
}

type ProgressResponse struct {
	Progress domain.ProgressState `json:"progress"`
	HUD      hud.Overlay          `json:"hud"`
}

// Bounds is the padded frame of a route, south-west and north-east corners.
type Bounds struct {
	SouthWest Coordinate `json:"south_west"`
	NorthEast Coordinate `json:"north_east"`
}
