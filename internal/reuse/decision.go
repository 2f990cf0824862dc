// Package reuse turns similarity results into actionable strategy decisions
// and ranks candidate modules for reuse against a target requirement.
package reuse

import (
	"fmt"
	"strings"

	"github.com/modforge/modforge/internal/similarity"
	"github.com/modforge/modforge/internal/types"
)

// Thresholds are the weighted-score cutoffs for the simple strategy ladder.
type Thresholds struct {
	Direct float64 // at or above: direct reuse
	Medium float64 // at or above: partial reuse; below: new generation
}

// DefaultThresholds returns the standard cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Direct: 0.75, Medium: 0.50}
}

// Validate checks the cutoffs are ordered and in range.
func (t Thresholds) Validate() error {
	if t.Direct < 0.0 || t.Direct > 1.0 {
		return fmt.Errorf("direct threshold must be between 0.0 and 1.0 (got %.2f)", t.Direct)
	}
	if t.Medium < 0.0 || t.Medium > 1.0 {
		return fmt.Errorf("medium threshold must be between 0.0 and 1.0 (got %.2f)", t.Medium)
	}
	if t.Medium > t.Direct {
		return fmt.Errorf("medium threshold (%.2f) cannot exceed direct threshold (%.2f)", t.Medium, t.Direct)
	}
	return nil
}

// LayerVerdict summarizes one layer for decision output.
type LayerVerdict struct {
	Score        float64 `json:"score"`
	TagA         string  `json:"tag1,omitempty"`
	TagB         string  `json:"tag2,omitempty"`
	MatchQuality string  `json:"match_quality"` // "strong" or "weak"
}

// Decision is a strategy verdict with its supporting explanation.
type Decision struct {
	Strategy        types.Strategy                  `json:"strategy"`
	Confidence      float64                         `json:"confidence"`
	Rationale       string                          `json:"rationale"`
	Recommendations []string                        `json:"recommendations"`
	LayerBreakdown  map[types.TagLayer]LayerVerdict `json:"layer_breakdown"`
}

// Decide maps a similarity result to a strategy using the threshold ladder.
// The weighted score picks the band; individual layer scores refine the
// guidance inside the partial-reuse and new-generation bands.
func Decide(result similarity.Result, th Thresholds) Decision {
	weighted := result.WeightedScore
	l1 := result.LayerScores[types.LayerIntent]
	l2 := result.LayerScores[types.LayerConstraint]
	l3 := result.LayerScores[types.LayerContext]

	var (
		strategy        types.Strategy
		rationale       string
		recommendations []string
	)

	switch {
	case weighted >= th.Direct:
		strategy = types.StrategyDirect
		rationale = fmt.Sprintf("High similarity (weighted: %.1f%%). Can reuse with minor customization.", weighted*100)
		recommendations = []string{
			"Reuse core logic directly",
			"Adapt naming and configuration",
			"Review and test thoroughly",
		}

	case weighted >= th.Medium:
		strategy = types.StrategyPartialReuse
		switch {
		case l1 >= 0.7 && l2 < 0.5:
			rationale = fmt.Sprintf("Intent matches (%.1f%%) but tech differs (%.1f%%). Adapt tech stack.", l1*100, l2*100)
			recommendations = []string{
				fmt.Sprintf("Keep business logic (intent: %.1f%% match)", l1*100),
				fmt.Sprintf("Port to target tech stack (tech: %.1f%% match)", l2*100),
				"Test thoroughly after tech migration",
			}
		case l1 >= 0.7 && l3 < 0.5:
			rationale = fmt.Sprintf("Intent matches (%.1f%%) but domain differs (%.1f%%). Adapt business rules.", l1*100, l3*100)
			recommendations = []string{
				fmt.Sprintf("Keep technical approach (intent: %.1f%% match)", l1*100),
				fmt.Sprintf("Adapt domain-specific logic (domain: %.1f%% match)", l3*100),
				"Review compliance and business rules",
			}
		case l1 >= 0.7:
			rationale = fmt.Sprintf("Moderate match (weighted: %.1f%%). Reuse patterns and adapt details.", weighted*100)
			recommendations = []string{
				"Reuse architecture patterns",
				"Adapt implementation details",
				"Test edge cases carefully",
			}
		default:
			rationale = fmt.Sprintf("Low intent match (%.1f%%). Extract specific patterns only.", l1*100)
			buildRec := "Build new solution"
			if l2 >= 0.6 {
				buildRec = "Build new with similar tech stack"
			}
			recommendations = []string{
				"Study implementation patterns",
				buildRec,
				"Don't force reuse - intent differs",
			}
		}

	default:
		strategy = types.StrategyNewGen
		var useful []string
		if l1 >= 0.4 {
			useful = append(useful, fmt.Sprintf("intent patterns (%.1f%%)", l1*100))
		}
		if l2 >= 0.6 {
			useful = append(useful, fmt.Sprintf("tech stack (%.1f%%)", l2*100))
		}
		if l3 >= 0.6 {
			useful = append(useful, fmt.Sprintf("domain knowledge (%.1f%%)", l3*100))
		}

		if len(useful) > 0 {
			rationale = fmt.Sprintf("Low match (weighted: %.1f%%). Build new but learn from: %s.", weighted*100, strings.Join(useful, ", "))
			recommendations = []string{
				"Generate new module",
				fmt.Sprintf("Reference for inspiration: %s", strings.Join(useful, ", ")),
				"Don't reuse code - too different",
			}
		} else {
			rationale = fmt.Sprintf("No meaningful match (weighted: %.1f%%). Generate fresh.", weighted*100)
			recommendations = []string{
				"Generate completely new module",
				"No relevant reference found",
				"Full creative freedom",
			}
		}
	}

	breakdown := make(map[types.TagLayer]LayerVerdict, len(types.ScoredLayers))
	for _, layer := range types.ScoredLayers {
		comparison := result.Breakdown[layer]
		quality := "weak"
		if result.LayerScores[layer] >= 0.7 {
			quality = "strong"
		}
		breakdown[layer] = LayerVerdict{
			Score:        result.LayerScores[layer],
			TagA:         comparison.TagA,
			TagB:         comparison.TagB,
			MatchQuality: quality,
		}
	}

	return Decision{
		Strategy:        strategy,
		Confidence:      weighted,
		Rationale:       rationale,
		Recommendations: recommendations,
		LayerBreakdown:  breakdown,
	}
}
