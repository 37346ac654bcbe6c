package usecase

import (
	"math"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

// ConfidenceThresholds are the fixed band boundaries. They are exposed as
// configuration but never derived per query; tests depend on the exact 40
// and 70 cutoffs.
type ConfidenceThresholds struct {
	High   int
	Medium int
}

func DefaultConfidenceThresholds() ConfidenceThresholds {
	return ConfidenceThresholds{High: 70, Medium: 40}
}

func (t ConfidenceThresholds) normalize() ConfidenceThresholds {
	if t.High <= 0 || t.Medium <= 0 || t.Medium >= t.High {
		return DefaultConfidenceThresholds()
	}
	return t
}

// scoreConfidence maps a fused match score onto the 0-100 scale and its
// band. confidence == High threshold is already High, one below is Medium.
func scoreConfidence(matchScore float64, thresholds ConfidenceThresholds) (int, domain.ConfidenceBand) {
	thresholds = thresholds.normalize()

	confidence := int(math.Round(clamp01(matchScore) * 100))
	switch {
	case confidence >= thresholds.High:
		return confidence, domain.BandHigh
	case confidence >= thresholds.Medium:
		return confidence, domain.BandMedium
	default:
		return confidence, domain.BandLow
	}
}
