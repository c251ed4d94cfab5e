package report

import (
	"strings"

	"github.com/Veraticus/finfraudx/internal/model"
)

// Level is a display severity. Renderers map it to a color.
type Level int

// Display severities.
const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelHigh:
		return "high"
	case LevelMedium:
		return "medium"
	default:
		return "low"
	}
}

// Thresholds used by the dashboard's colored indicators.
const (
	HighProbability         = 0.7
	MediumProbability       = 0.5
	AvgRiskThreshold        = 0.5
	ConfidenceGoodThreshold = 70.0
)

// ProbabilityLevel colors a fraud probability bar: above 0.7 is high, above
// 0.5 is medium, anything else is low.
func ProbabilityLevel(p float64) Level {
	switch {
	case p > HighProbability:
		return LevelHigh
	case p > MediumProbability:
		return LevelMedium
	default:
		return LevelLow
	}
}

// AvgRiskLevel colors the average risk gauge.
func AvgRiskLevel(avg float64) Level {
	if avg > AvgRiskThreshold {
		return LevelHigh
	}
	return LevelLow
}

// ConfidenceLevel colors the average confidence gauge. Confidence is on a
// 0..100 scale; above 70 is good, anything else is a warning.
func ConfidenceLevel(confidence float64) Level {
	if confidence > ConfidenceGoodThreshold {
		return LevelLow
	}
	return LevelMedium
}

// BadgeLevel colors a risk level badge.
func BadgeLevel(risk model.RiskLevel) Level {
	switch strings.ToLower(string(risk)) {
	case "high", "critical":
		return LevelHigh
	case "medium":
		return LevelMedium
	default:
		return LevelLow
	}
}
