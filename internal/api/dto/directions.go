package dto

import (
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/hud"
)

// DirectionsRequest routes from From to either To or a geocoded ToText.
// With SessionID the result becomes that session's active route; with Edit
// a new edit session is seeded from it.
type DirectionsRequest struct {
	From          Coordinate  `json:"from"`
	To            *Coordinate `json:"to,omitempty"`
	ToText        string      `json:"to_text,omitempty" validate:"max=256"`
	AllowHighways *bool       `json:"allow_highways,omitempty"`
	SessionID     string      `json:"session_id,omitempty"`
	Edit          bool        `json:"edit,omitempty"`
}

type DirectionsResponse struct {
	Directions domain.Directions    `json:"directions"`
	To         Coordinate           `json:"to"`
	Bounds     *Bounds              `json:"bounds,omitempty"`
	Progress   domain.ProgressState `json:"progress"`
	HUD        hud.Overlay          `json:"hud"`
	SessionID  string               `json:"session_id,omitempty"`
}

type GeocodeResponse struct {
	Query string     `json:"query"`
	Point Coordinate `json:"point"`
}
