package cache

import (
	"encoding/json"
	"fmt"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/geo"
)

// Cached directions are stored as JSON with every polyline encoded at
// six-decimal precision, which keeps entries small.
type storedDirections struct {
	Polyline        string       `json:"polyline"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	Steps           []storedStep `json:"steps,omitempty"`
}

type storedStep struct {
	Instruction     string  `json:"instruction"`
	IconHint        string  `json:"icon_hint,omitempty"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Polyline        string  `json:"polyline"`
}

func encodeDirections(d domain.Directions) ([]byte, error) {
	s := storedDirections{
		Polyline:        geo.EncodePolyline(geo.PrecisePolyline, d.Polyline),
		DistanceMeters:  d.DistanceMeters,
		DurationSeconds: d.DurationSeconds,
	}
	for _, st := range d.Steps {
		s.Steps = append(s.Steps, storedStep{
			Instruction:     st.Instruction,
			IconHint:        st.IconHint,
			DistanceMeters:  st.DistanceMeters,
			DurationSeconds: st.DurationSeconds,
			Polyline:        geo.EncodePolyline(geo.PrecisePolyline, st.Polyline),
		})
	}

	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode directions: %w", err)
	}
	return b, nil
}

func decodeDirections(b []byte) (domain.Directions, error) {
	var s storedDirections
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.Directions{}, fmt.Errorf("decode directions: %w", err)
	}

	line, err := geo.DecodePolyline(geo.PrecisePolyline, s.Polyline)
	if err != nil {
		return domain.Directions{}, fmt.Errorf("decode directions: %w", err)
	}

	d := domain.Directions{
		Polyline:        line,
		DistanceMeters:  s.DistanceMeters,
		DurationSeconds: s.DurationSeconds,
	}
	for i, st := range s.Steps {
		stepLine, err := geo.DecodePolyline(geo.PrecisePolyline, st.Polyline)
		if err != nil {
			return domain.Directions{}, fmt.Errorf("decode directions: step %d: %w", i, err)
		}
		d.Steps = append(d.Steps, domain.Step{
			Instruction:     st.Instruction,
			IconHint:        st.IconHint,
			DistanceMeters:  st.DistanceMeters,
			DurationSeconds: st.DurationSeconds,
			Polyline:        stepLine,
		})
	}
	return d, nil
}
