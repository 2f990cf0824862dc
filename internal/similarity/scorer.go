package similarity

import (
	"context"
	"fmt"

	"github.com/modforge/modforge/internal/types"
)

// Weights assigns each scored layer its share of the weighted score. Intent
// dominates: two modules that do the same thing are worth finding even when
// their stacks and domains differ.
type Weights struct {
	Intent float64 `json:"L1_intent"`
	Tech   float64 `json:"L2_constraint"`
	Domain float64 `json:"L3_context"`
}

// DefaultWeights returns the standard intent-heavy weighting.
func DefaultWeights() Weights {
	return Weights{Intent: 0.60, Tech: 0.25, Domain: 0.15}
}

// Validate checks that no weight is negative. Weights are never renormalized,
// so callers that want scores comparable to the standard thresholds should
// keep the sum near 1.0.
func (w Weights) Validate() error {
	for _, entry := range []struct {
		name  string
		value float64
	}{
		{"intent", w.Intent},
		{"tech", w.Tech},
		{"domain", w.Domain},
	} {
		if entry.value < 0.0 {
			return fmt.Errorf("%s weight cannot be negative (got %.3f)", entry.name, entry.value)
		}
	}
	return nil
}

// Sum returns the total weight across layers.
func (w Weights) Sum() float64 {
	return w.Intent + w.Tech + w.Domain
}

// For returns the weight assigned to a layer (0 for unscored layers).
func (w Weights) For(layer types.TagLayer) float64 {
	switch layer {
	case types.LayerIntent:
		return w.Intent
	case types.LayerConstraint:
		return w.Tech
	case types.LayerContext:
		return w.Domain
	}
	return 0.0
}

// FromConfig builds weights from a stored scoring config.
func FromConfig(cfg *types.ScoringConfig) Weights {
	return Weights{Intent: cfg.WeightIntent, Tech: cfg.WeightTech, Domain: cfg.WeightDomain}
}

// LayerComparison records how a single layer scored, for explainability.
type LayerComparison struct {
	TagA      string  `json:"tag1,omitempty"`
	TagB      string  `json:"tag2,omitempty"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// Result is the full similarity verdict between two tag sets.
type Result struct {
	// WeightedScore drives strategy decisions and search ranking.
	WeightedScore float64 `json:"weighted_score"`

	// OverallScore is the unweighted mean across scored layers. Ranking and
	// the threshold ladder never read it; the layer-quality tree uses it only
	// to cap its direct-reuse confidence.
	OverallScore float64 `json:"overall_score"`

	LayerScores map[types.TagLayer]float64         `json:"layer_scores"`
	Breakdown   map[types.TagLayer]LayerComparison `json:"breakdown"`
	Weights     Weights                            `json:"weights_used"`
}

// Scorer compares module tag sets through an oracle.
type Scorer struct {
	oracle  *Oracle
	weights Weights
}

// NewScorer creates a scorer. Invalid weights are rejected.
func NewScorer(oracle *Oracle, weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return &Scorer{oracle: oracle, weights: weights}, nil
}

// Weights returns the scorer's active weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score compares two tag sets layer by layer. A layer where either side has
// no tag scores 0.0; missing information never reads as similarity.
func (s *Scorer) Score(ctx context.Context, tagsA, tagsB types.TagSet) Result {
	layerScores := make(map[types.TagLayer]float64, len(types.ScoredLayers))
	breakdown := make(map[types.TagLayer]LayerComparison, len(types.ScoredLayers))

	for _, layer := range types.ScoredLayers {
		tagA, okA := tagsA[layer]
		tagB, okB := tagsB[layer]

		if !okA || !okB || tagA.Value == "" || tagB.Value == "" {
			layerScores[layer] = 0.0
			breakdown[layer] = LayerComparison{
				TagA:      tagA.Value,
				TagB:      tagB.Value,
				Score:     0.0,
				Reasoning: "One or both tags missing",
			}
			continue
		}

		score := s.oracle.TagSimilarity(ctx, tagA.Value, tagB.Value, layer, tagA.Reasoning, tagB.Reasoning)
		layerScores[layer] = score
		breakdown[layer] = LayerComparison{
			TagA:      tagA.Value,
			TagB:      tagB.Value,
			Score:     score,
			Reasoning: fmt.Sprintf("Semantic similarity between '%s' and '%s'", tagA.Value, tagB.Value),
		}
	}

	weighted := 0.0
	overall := 0.0
	for _, layer := range types.ScoredLayers {
		weighted += layerScores[layer] * s.weights.For(layer)
		overall += layerScores[layer]
	}
	overall /= float64(len(types.ScoredLayers))

	return Result{
		WeightedScore: weighted,
		OverallScore:  overall,
		LayerScores:   layerScores,
		Breakdown:     breakdown,
		Weights:       s.weights,
	}
}
