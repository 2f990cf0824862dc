package reuse

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/modforge/modforge/internal/types"
)

// Match-quality bands for a single layer.
const (
	strongThreshold     = 0.7
	acceptableThreshold = 0.4
)

// analysisLayers is the layer order used by the quality tree. Unlike scoring,
// the tree also looks at L4 for its advisory warning.
var analysisLayers = []types.TagLayer{
	types.LayerIntent,
	types.LayerConstraint,
	types.LayerContext,
	types.LayerQuality,
}

// LayerMatchQuality is the per-layer assessment feeding the decision tree.
type LayerMatchQuality struct {
	Layer        types.TagLayer `json:"layer"`
	Score        float64        `json:"score"`
	IsStrong     bool           `json:"is_strong"`     // >= 0.7
	IsAcceptable bool           `json:"is_acceptable"` // >= 0.4
	MatchedTags  []string       `json:"matched_tags"`
	MissingTags  []string       `json:"missing_tags"`
}

// QualityDecision is the verdict of the intent-first decision tree, richer
// than the threshold ladder: it carries warnings and concrete actions.
type QualityDecision struct {
	Strategy           types.Strategy                       `json:"strategy"`
	Confidence         float64                              `json:"confidence"`
	Warnings           []string                             `json:"warnings"`
	Rationale          string                               `json:"rationale"`
	LayerAnalysis      map[types.TagLayer]LayerMatchQuality `json:"layer_analysis"`
	RecommendedActions []string                             `json:"recommended_actions"`
}

// AnalyzeLayerMatchQuality computes matched and missing tags per layer and
// bands each layer's score. Tag lists are compared as sets; output slices are
// sorted so repeated runs produce identical analyses.
func AnalyzeLayerMatchQuality(
	layerScores map[types.TagLayer]float64,
	targetTags map[types.TagLayer][]string,
	sourceTags map[types.TagLayer][]string,
) map[types.TagLayer]LayerMatchQuality {
	analysis := make(map[types.TagLayer]LayerMatchQuality, len(analysisLayers))

	for _, layer := range analysisLayers {
		score := layerScores[layer]

		sourceSet := make(map[string]struct{}, len(sourceTags[layer]))
		for _, tag := range sourceTags[layer] {
			sourceSet[tag] = struct{}{}
		}

		var matched, missing []string
		seen := make(map[string]struct{}, len(targetTags[layer]))
		for _, tag := range targetTags[layer] {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			if _, ok := sourceSet[tag]; ok {
				matched = append(matched, tag)
			} else {
				missing = append(missing, tag)
			}
		}
		sort.Strings(matched)
		sort.Strings(missing)

		analysis[layer] = LayerMatchQuality{
			Layer:        layer,
			Score:        score,
			IsStrong:     score >= strongThreshold,
			IsAcceptable: score >= acceptableThreshold,
			MatchedTags:  matched,
			MissingTags:  missing,
		}
	}

	return analysis
}

// DecideByLayerQuality runs the intent-first decision tree. The key principle
// is that L1 (intent) dominates: even when the overall score is low, a strong
// intent match means the module's logic is worth adapting.
//
// Rules, checked in order:
//  1. strong L1 + strong L2 + acceptable L3  -> direct
//  2. strong L1 + weak L2                    -> partial_reuse (tech adaptation)
//  3. strong L1 + unacceptable L3            -> partial_reuse (domain adaptation)
//  4. acceptable-but-not-strong L1           -> pattern_combination
//  5. everything else                        -> new_gen
//
// L4 never changes the strategy; it only adds a warning on the direct path.
//
// overallScore is the unweighted layer mean, not the weighted score: rule 1's
// confidence caps at min(0.95, overallScore), so the cap does not inherit the
// intent weighting that already decided the branch.
func DecideByLayerQuality(
	overallScore float64,
	layerScores map[types.TagLayer]float64,
	targetTags map[types.TagLayer][]string,
	sourceTags map[types.TagLayer][]string,
) QualityDecision {
	analysis := AnalyzeLayerMatchQuality(layerScores, targetTags, sourceTags)

	l1 := analysis[types.LayerIntent]
	l2 := analysis[types.LayerConstraint]
	l3 := analysis[types.LayerContext]
	l4 := analysis[types.LayerQuality]

	var (
		strategy   types.Strategy
		confidence float64
		rationale  string
		warnings   []string
		actions    []string
	)

	switch {
	case l1.IsStrong && l2.IsStrong && l3.IsAcceptable:
		strategy = types.StrategyDirect
		confidence = math.Min(0.95, overallScore)
		rationale = fmt.Sprintf(
			"Strong intent match (%.0f%%) and tech alignment (%.0f%%). Module can be copied with minor customization.",
			l1.Score*100, l2.Score*100)

		if !l4.IsStrong {
			warnings = append(warnings, fmt.Sprintf(
				"Quality attributes differ (score: %.0f%%). Review non-functional requirements.", l4.Score*100))
			actions = append(actions, fmt.Sprintf("Adapt quality aspects: %s", strings.Join(l4.MissingTags, ", ")))
		}

	case l1.IsStrong && !l2.IsStrong:
		strategy = types.StrategyPartialReuse
		confidence = 0.70
		rationale = fmt.Sprintf(
			"Intent matches well (%.0f%%) but tech stack differs (%.0f%%). Reuse business logic and architecture, but rewrite in target tech.",
			l1.Score*100, l2.Score*100)
		warnings = append(warnings, fmt.Sprintf(
			"Tech stack mismatch: need to translate from %v to %v",
			sourceTags[types.LayerConstraint], targetTags[types.LayerConstraint]))
		actions = append(actions,
			fmt.Sprintf("Port logic to: %s", strings.Join(l2.MissingTags, ", ")),
			"Keep: architecture, workflows, business rules",
			"Rewrite: implementation code, frameworks, libraries")

	case l1.IsStrong && !l3.IsAcceptable:
		strategy = types.StrategyPartialReuse
		confidence = 0.65
		rationale = fmt.Sprintf(
			"Intent matches (%.0f%%) but domain context differs (%.0f%%). Adapt business rules and compliance requirements for target domain.",
			l1.Score*100, l3.Score*100)
		warnings = append(warnings, fmt.Sprintf(
			"Domain mismatch: source %v, target %v",
			sourceTags[types.LayerContext], targetTags[types.LayerContext]))
		actions = append(actions,
			"Customize: business rules, validation logic, compliance",
			fmt.Sprintf("Add domain-specific features for: %s", strings.Join(l3.MissingTags, ", ")))

	case l1.IsAcceptable && !l1.IsStrong:
		strategy = types.StrategyPatternCombination
		confidence = 0.60
		rationale = fmt.Sprintf(
			"Partial intent match (%.0f%%). Extract specific patterns/components and combine with other references or new code.",
			l1.Score*100)
		warnings = append(warnings, "Partial match only. Focus on reusable patterns, not the full module.")
		actions = append(actions,
			fmt.Sprintf("Extract patterns for: %s", strings.Join(l1.MatchedTags, ", ")),
			fmt.Sprintf("Build new code for: %s", strings.Join(l1.MissingTags, ", ")))

	default:
		strategy = types.StrategyNewGen
		confidence = 0.30
		rationale = fmt.Sprintf(
			"Intent mismatch (%.0f%%). Generate new module from scratch, but consider patterns from similar modules.",
			l1.Score*100)
		warnings = append(warnings, "Low confidence match: intent differs significantly.")

		// Even for new generation, point at what can still be learned.
		if l2.IsStrong {
			actions = append(actions, fmt.Sprintf("Can reuse tech patterns: %s", strings.Join(l2.MatchedTags, ", ")))
		}
		if l3.IsAcceptable {
			actions = append(actions, fmt.Sprintf("Can learn domain patterns: %s", strings.Join(l3.MatchedTags, ", ")))
		}
		actions = append(actions, fmt.Sprintf("Must build new functionality: %s", strings.Join(l1.MissingTags, ", ")))
	}

	return QualityDecision{
		Strategy:           strategy,
		Confidence:         confidence,
		Warnings:           warnings,
		Rationale:          rationale,
		LayerAnalysis:      analysis,
		RecommendedActions: actions,
	}
}
