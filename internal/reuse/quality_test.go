package reuse

import (
	"strings"
	"testing"

	"github.com/modforge/modforge/internal/types"
)

func scores(l1, l2, l3, l4 float64) map[types.TagLayer]float64 {
	return map[types.TagLayer]float64{
		types.LayerIntent:     l1,
		types.LayerConstraint: l2,
		types.LayerContext:    l3,
		types.LayerQuality:    l4,
	}
}

func TestAnalyzeLayerMatchQuality(t *testing.T) {
	target := map[types.TagLayer][]string{
		types.LayerIntent:     {"auth", "user-management"},
		types.LayerConstraint: {"go", "postgresql"},
	}
	source := map[types.TagLayer][]string{
		types.LayerIntent:     {"auth", "payment"},
		types.LayerConstraint: {"nodejs", "postgresql"},
	}

	analysis := AnalyzeLayerMatchQuality(scores(0.8, 0.5, 0.0, 0.0), target, source)

	intent := analysis[types.LayerIntent]
	if !intent.IsStrong || !intent.IsAcceptable {
		t.Errorf("0.8 should be strong and acceptable: %+v", intent)
	}
	if len(intent.MatchedTags) != 1 || intent.MatchedTags[0] != "auth" {
		t.Errorf("matched = %v, want [auth]", intent.MatchedTags)
	}
	if len(intent.MissingTags) != 1 || intent.MissingTags[0] != "user-management" {
		t.Errorf("missing = %v, want [user-management]", intent.MissingTags)
	}

	tech := analysis[types.LayerConstraint]
	if tech.IsStrong || !tech.IsAcceptable {
		t.Errorf("0.5 should be acceptable but not strong: %+v", tech)
	}
	if len(tech.MatchedTags) != 1 || tech.MatchedTags[0] != "postgresql" {
		t.Errorf("matched = %v, want [postgresql]", tech.MatchedTags)
	}

	// layers absent from both sides still get an entry
	if _, ok := analysis[types.LayerQuality]; !ok {
		t.Error("quality layer should always be analyzed")
	}
}

func TestDecideByLayerQualityDirect(t *testing.T) {
	target := map[types.TagLayer][]string{
		types.LayerQuality: {"real-time", "high-traffic"},
	}
	source := map[types.TagLayer][]string{
		types.LayerQuality: {"real-time"},
	}

	d := DecideByLayerQuality(0.88, scores(0.9, 0.85, 0.5, 0.3), target, source)

	if d.Strategy != types.StrategyDirect {
		t.Fatalf("Strategy = %s, want direct", d.Strategy)
	}
	if d.Confidence != 0.88 {
		t.Errorf("Confidence = %v, want overall score 0.88", d.Confidence)
	}
	// weak L4 adds a warning but never changes the strategy
	if len(d.Warnings) != 1 || !strings.Contains(d.Warnings[0], "Quality attributes differ") {
		t.Errorf("expected quality warning, got %v", d.Warnings)
	}
	foundAction := false
	for _, a := range d.RecommendedActions {
		if strings.Contains(a, "high-traffic") {
			foundAction = true
		}
	}
	if !foundAction {
		t.Errorf("actions should name the missing quality tags, got %v", d.RecommendedActions)
	}
}

func TestDecideByLayerQualityConfidenceCap(t *testing.T) {
	d := DecideByLayerQuality(0.99, scores(0.95, 0.95, 0.9, 0.9), nil, nil)
	if d.Strategy != types.StrategyDirect {
		t.Fatalf("Strategy = %s, want direct", d.Strategy)
	}
	if d.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want capped at 0.95", d.Confidence)
	}
	if len(d.Warnings) != 0 {
		t.Errorf("strong L4 should produce no warnings, got %v", d.Warnings)
	}
}

func TestDecideByLayerQualityTechAdaptation(t *testing.T) {
	target := map[types.TagLayer][]string{types.LayerConstraint: {"go"}}
	source := map[types.TagLayer][]string{types.LayerConstraint: {"nodejs"}}

	d := DecideByLayerQuality(0.6, scores(0.9, 0.3, 0.8, 0.0), target, source)

	if d.Strategy != types.StrategyPartialReuse {
		t.Fatalf("Strategy = %s, want partial_reuse", d.Strategy)
	}
	if d.Confidence != 0.70 {
		t.Errorf("Confidence = %v, want 0.70", d.Confidence)
	}
	if !strings.Contains(d.Rationale, "tech stack differs") {
		t.Errorf("unexpected rationale: %q", d.Rationale)
	}
	if len(d.Warnings) == 0 || !strings.Contains(d.Warnings[0], "Tech stack mismatch") {
		t.Errorf("expected tech mismatch warning, got %v", d.Warnings)
	}
}

func TestDecideByLayerQualityDomainAdaptation(t *testing.T) {
	target := map[types.TagLayer][]string{types.LayerContext: {"healthcare"}}
	source := map[types.TagLayer][]string{types.LayerContext: {"fintech"}}

	// strong L1, strong L2, L3 below acceptable
	d := DecideByLayerQuality(0.6, scores(0.9, 0.8, 0.2, 0.0), target, source)

	if d.Strategy != types.StrategyPartialReuse {
		t.Fatalf("Strategy = %s, want partial_reuse", d.Strategy)
	}
	if d.Confidence != 0.65 {
		t.Errorf("Confidence = %v, want 0.65", d.Confidence)
	}
	if !strings.Contains(d.Rationale, "domain context differs") {
		t.Errorf("unexpected rationale: %q", d.Rationale)
	}
}

func TestDecideByLayerQualityPatternCombination(t *testing.T) {
	target := map[types.TagLayer][]string{types.LayerIntent: {"auth", "search"}}
	source := map[types.TagLayer][]string{types.LayerIntent: {"auth"}}

	d := DecideByLayerQuality(0.5, scores(0.55, 0.9, 0.9, 0.0), target, source)

	if d.Strategy != types.StrategyPatternCombination {
		t.Fatalf("Strategy = %s, want pattern_combination", d.Strategy)
	}
	if d.Confidence != 0.60 {
		t.Errorf("Confidence = %v, want 0.60", d.Confidence)
	}
}

func TestDecideByLayerQualityNewGen(t *testing.T) {
	target := map[types.TagLayer][]string{
		types.LayerIntent:     {"video-processing"},
		types.LayerConstraint: {"go"},
		types.LayerContext:    {"gaming"},
	}
	source := map[types.TagLayer][]string{
		types.LayerIntent:     {"auth"},
		types.LayerConstraint: {"go"},
		types.LayerContext:    {"gaming"},
	}

	d := DecideByLayerQuality(0.35, scores(0.2, 0.9, 0.6, 0.0), target, source)

	if d.Strategy != types.StrategyNewGen {
		t.Fatalf("Strategy = %s, want new_gen", d.Strategy)
	}
	if d.Confidence != 0.30 {
		t.Errorf("Confidence = %v, want 0.30", d.Confidence)
	}

	// strong L2 and acceptable L3 still surface learnable patterns
	joined := strings.Join(d.RecommendedActions, " | ")
	if !strings.Contains(joined, "tech patterns") || !strings.Contains(joined, "domain patterns") {
		t.Errorf("expected learnable-pattern actions, got %v", d.RecommendedActions)
	}
	if !strings.Contains(joined, "video-processing") {
		t.Errorf("missing functionality should be named, got %v", d.RecommendedActions)
	}
}
