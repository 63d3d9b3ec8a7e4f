package services

import (
	"slices"
	"strings"
	"unicode"
)

const (
	IconStraight  = "arrow.up"
	IconTurnLeft  = "arrow.turn.left"
	IconTurnRight = "arrow.turn.right"

	ContinueStraight = "Continue straight"
	Depart           = "Depart"
)

// IconHint picks a maneuver icon from the instruction text. English
// directions must be whole words so street names like "Brighton" do not
// match; CJK text has no word breaks and is matched by character.
func IconHint(text string) string {
	t := strings.ToLower(text)
	words := strings.FieldsFunc(t, func(r rune) bool { return !unicode.IsLetter(r) })
	switch {
	case slices.Contains(words, "left") || strings.Contains(t, "左"):
		return IconTurnLeft
	case slices.Contains(words, "right") || strings.Contains(t, "右"):
		return IconTurnRight
	default:
		return IconStraight
	}
}

// instructionText falls back to ContinueStraight for empty router instructions.
func instructionText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ContinueStraight
	}
	return text
}
