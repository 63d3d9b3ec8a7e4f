// Package hud turns a ProgressState into the strings shown on the
// navigation overlay.
package hud

import (
	"fmt"
	"math"
	"route-navigation-service/internal/domain"
	"time"
)

// Overlay is the display form of one progress tick.
type Overlay struct {
	Instruction       string    `json:"instruction"`
	IconHint          string    `json:"icon_hint"`
	NextManeuver      string    `json:"next_maneuver"`
	RemainingDistance string    `json:"remaining_distance"`
	RemainingDuration string    `json:"remaining_duration"`
	ETA               time.Time `json:"eta"`
	PercentComplete   int       `json:"percent_complete"`
	OffRoute          bool      `json:"off_route"`
}

// FormatDistance renders meters as "850 m" below one kilometer and "1.2 km" above.
func FormatDistance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", m)
	}
	return fmt.Sprintf("%.1f km", m/1000)
}

// FormatDuration renders whole minutes, with hours once there are any.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%d min", m)
}

func ETA(now time.Time, remainingSeconds float64) time.Time {
	if remainingSeconds <= 0 {
		return now
	}
	return now.Add(time.Duration(remainingSeconds * float64(time.Second)))
}

func Render(p domain.ProgressState, now time.Time) Overlay {
	return Overlay{
		Instruction:       p.ActiveInstructionText,
		IconHint:          p.ActiveIconHint,
		NextManeuver:      FormatDistance(p.RemainingInCurrentUnit),
		RemainingDistance: FormatDistance(p.RemainingTotalDistance),
		RemainingDuration: FormatDuration(p.RemainingTotalDuration),
		ETA:               ETA(now, p.RemainingTotalDuration),
		PercentComplete:   int(math.Round(p.Fraction * 100)),
		OffRoute:          p.OffRoute,
	}
}
