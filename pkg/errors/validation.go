package errors

import (
	"math"
	"unicode"
)

// maxIDLength bounds vertex identifiers read from external graph files.
const maxIDLength = 256

// ValidateVertexID validates a vertex identifier read from an external source.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateVertexID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "vertex id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "vertex id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "vertex id %q contains invalid control characters", id)
		}
	}

	return nil
}

// ValidateColor checks that color lies in [0, colors).
func ValidateColor(color, colors int) error {
	if colors <= 0 {
		return New(ErrCodeInvalidColor, "graph declares %d colors", colors)
	}
	if color < 0 || color >= colors {
		return New(ErrCodeInvalidColor, "color %d out of range [0, %d)", color, colors)
	}
	return nil
}

// ValidateWeight rejects NaN and infinite loss weights.
func ValidateWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return New(ErrCodeInvalidInput, "loss weight must be finite, got %v", w)
	}
	return nil
}
