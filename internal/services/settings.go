package services

import "route-navigation-service/internal/ports"

// Settings tunes editing and navigation behaviour. Distances are meters unless
// the name says pixels.
type Settings struct {
	NominalSpeedMPS      float64
	InsertTolerancePx    float64
	WaypointHitRadiusPx  float64
	ArrivalEpsilonM      float64
	OffRouteThresholdM   float64
	MaxParallelRecompute int
	AllowHighways        bool
}

func DefaultSettings() Settings {
	return Settings{
		NominalSpeedMPS:      12.5,
		InsertTolerancePx:    24,
		WaypointHitRadiusPx:  28,
		ArrivalEpsilonM:      5,
		OffRouteThresholdM:   0,
		MaxParallelRecompute: 4,
		AllowHighways:        true,
	}
}

// withDefaults fills zero values so a partially configured Settings stays usable.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.NominalSpeedMPS <= 0 {
		s.NominalSpeedMPS = d.NominalSpeedMPS
	}
	if s.InsertTolerancePx <= 0 {
		s.InsertTolerancePx = d.InsertTolerancePx
	}
	if s.WaypointHitRadiusPx <= 0 {
		s.WaypointHitRadiusPx = d.WaypointHitRadiusPx
	}
	if s.ArrivalEpsilonM < 0 {
		s.ArrivalEpsilonM = 0
	}
	if s.MaxParallelRecompute <= 0 {
		s.MaxParallelRecompute = d.MaxParallelRecompute
	}
	return s
}

func (s Settings) RouteOptions() ports.RouteOptions {
	return ports.RouteOptions{AllowHighways: s.AllowHighways}
}
