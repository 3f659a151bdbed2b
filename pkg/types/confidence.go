// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Confidence grades a filtering or classification decision. Levels are
// ordered (high > medium > low) but carry no numeric meaning.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank returns an ordinal for comparing confidence levels. Unknown values
// rank below low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Valid reports whether c is one of the three defined levels.
func (c Confidence) Valid() bool {
	return c.Rank() > 0
}
