package detection

import (
	"fmt"
	"strings"
)

// Sensitivity scales the spoiler threshold. Higher sensitivity blocks more.
type Sensitivity string

const (
	// SensitivityLow requires strong evidence before blocking.
	SensitivityLow Sensitivity = "low"
	// SensitivityMedium is the baseline.
	SensitivityMedium Sensitivity = "medium"
	// SensitivityHigh blocks on weak evidence.
	SensitivityHigh Sensitivity = "high"
)

// ParseSensitivity parses a sensitivity name. The empty string means medium.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch Sensitivity(strings.ToLower(strings.TrimSpace(s))) {
	case "", SensitivityMedium:
		return SensitivityMedium, nil
	case SensitivityLow:
		return SensitivityLow, nil
	case SensitivityHigh:
		return SensitivityHigh, nil
	default:
		return "", fmt.Errorf("unknown sensitivity %q (want low, medium or high)", s)
	}
}

// Valid reports whether s is one of the known sensitivities.
func (s Sensitivity) Valid() bool {
	switch s {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
		return true
	}
	return false
}

// RiskLevel is a coarse bucket derived from confidence, used for display and
// reporting only.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskFor maps a confidence in 0..100 to its risk tier.
func RiskFor(confidence int) RiskLevel {
	switch {
	case confidence > 70:
		return RiskHigh
	case confidence > 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ActionPatternMarker is reported in MatchedTerms when the subject + outcome
// verb pattern fires. The matched words themselves are never reported.
const ActionPatternMarker = "action_pattern"

// Result is the verdict for one scored text unit.
type Result struct {
	// IsSpoiler is true when RawScore reaches the sensitivity threshold.
	IsSpoiler bool `json:"isSpoiler"`

	// Confidence is RawScore*10 clamped to 0..100.
	Confidence int `json:"confidence"`

	// RiskLevel is derived from Confidence.
	RiskLevel RiskLevel `json:"riskLevel"`

	// MatchedTerms lists what contributed, in first-seen order without
	// duplicates (compared case-insensitively).
	MatchedTerms []string `json:"matchedTerms"`

	// RawScore is the unclamped accumulator.
	RawScore int `json:"rawScore"`
}

// Thresholds holds the minimum raw score for a spoiler verdict per sensitivity.
type Thresholds struct {
	Low    int `yaml:"low"`
	Medium int `yaml:"medium"`
	High   int `yaml:"high"`
}

// DefaultThresholds returns the baseline thresholds (low=7, medium=5, high=3).
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 7, Medium: 5, High: 3}
}

// For returns the threshold for a sensitivity. Unknown values use medium.
func (t Thresholds) For(s Sensitivity) int {
	switch s {
	case SensitivityLow:
		return t.Low
	case SensitivityHigh:
		return t.High
	default:
		return t.Medium
	}
}

// Weights holds the points each rule contributes to the raw score.
type Weights struct {
	Keyword          int
	Context          int
	Generic          int
	GenericInContext int
	ActionPattern    int
}

// DefaultWeights returns the baseline rule weights.
func DefaultWeights() Weights {
	return Weights{
		Keyword:          5,
		Context:          3,
		Generic:          1,
		GenericInContext: 4,
		ActionPattern:    4,
	}
}
