package domain

// Active maneuver as seen from a position on a route.
type Instruction struct {
	Text               string  `json:"text"`
	IconHint           string  `json:"icon_hint"`
	DistanceToManeuver float64 `json:"distance_to_maneuver"`
}

// Snapshot of navigation progress for one location sample.
// It is recomputed on every sample and never persisted.
type ProgressState struct {
	NearestIndex           int     `json:"nearest_index"`
	RemainingInCurrentUnit float64 `json:"remaining_in_current_unit"`
	RemainingTotalDistance float64 `json:"remaining_total_distance"`
	RemainingTotalDuration float64 `json:"remaining_total_duration"`
	Fraction               float64 `json:"fraction"`
	ActiveInstructionText  string  `json:"active_instruction_text"`
	ActiveIconHint         string  `json:"active_icon_hint"`
	DistanceToRoute        float64 `json:"distance_to_route"`
	OffRoute               bool    `json:"off_route"`
}
