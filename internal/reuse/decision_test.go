package reuse

import (
	"strings"
	"testing"

	"github.com/modforge/modforge/internal/similarity"
	"github.com/modforge/modforge/internal/types"
)

func resultWithScores(l1, l2, l3 float64) similarity.Result {
	w := similarity.DefaultWeights()
	scores := map[types.TagLayer]float64{
		types.LayerIntent:     l1,
		types.LayerConstraint: l2,
		types.LayerContext:    l3,
	}
	weighted := l1*w.Intent + l2*w.Tech + l3*w.Domain
	return similarity.Result{
		WeightedScore: weighted,
		OverallScore:  (l1 + l2 + l3) / 3.0,
		LayerScores:   scores,
		Breakdown: map[types.TagLayer]similarity.LayerComparison{
			types.LayerIntent:     {TagA: "auth", TagB: "auth", Score: l1},
			types.LayerConstraint: {TagA: "nodejs", TagB: "python", Score: l2},
			types.LayerContext:    {TagA: "saas", TagB: "fintech", Score: l3},
		},
		Weights: w,
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("default thresholds rejected: %v", err)
	}
	if err := (Thresholds{Direct: 0.5, Medium: 0.8}).Validate(); err == nil {
		t.Error("inverted thresholds accepted")
	}
	if err := (Thresholds{Direct: 1.2, Medium: 0.5}).Validate(); err == nil {
		t.Error("out-of-range threshold accepted")
	}
}

func TestDecideStrategyBands(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		l1       float64
		l2       float64
		l3       float64
		want     types.Strategy
		rationale string
	}{
		{
			name: "high similarity goes direct",
			l1:   0.95, l2: 0.90, l3: 0.90,
			want:      types.StrategyDirect,
			rationale: "High similarity",
		},
		{
			name: "exactly at direct threshold",
			l1:   1.0, l2: 1.0, l3: 0.0, // weighted 0.85
			want: types.StrategyDirect,
		},
		{
			name: "tech mismatch in middle band",
			l1:   0.9, l2: 0.2, l3: 0.6, // weighted 0.68
			want:      types.StrategyPartialReuse,
			rationale: "tech differs",
		},
		{
			name: "domain mismatch in middle band",
			l1:   0.9, l2: 0.6, l3: 0.2, // weighted 0.72
			want:      types.StrategyPartialReuse,
			rationale: "domain differs",
		},
		{
			name: "moderate middle band",
			l1:   0.75, l2: 0.6, l3: 0.6, // weighted 0.69
			want:      types.StrategyPartialReuse,
			rationale: "Moderate match",
		},
		{
			name: "weak intent in middle band",
			l1:   0.5, l2: 0.9, l3: 0.9, // weighted 0.66
			want:      types.StrategyPartialReuse,
			rationale: "Extract specific patterns",
		},
		{
			name: "low match with learnable patterns",
			l1:   0.45, l2: 0.3, l3: 0.3, // weighted 0.39
			want:      types.StrategyNewGen,
			rationale: "learn from",
		},
		{
			name: "no meaningful match",
			l1:   0.1, l2: 0.1, l3: 0.1,
			want:      types.StrategyNewGen,
			rationale: "Generate fresh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(resultWithScores(tt.l1, tt.l2, tt.l3), th)
			if d.Strategy != tt.want {
				t.Errorf("Strategy = %s, want %s", d.Strategy, tt.want)
			}
			if tt.rationale != "" && !strings.Contains(d.Rationale, tt.rationale) {
				t.Errorf("Rationale = %q, want substring %q", d.Rationale, tt.rationale)
			}
			if len(d.Recommendations) == 0 {
				t.Error("decision should carry recommendations")
			}
		})
	}
}

func TestDecideConfidenceIsWeightedScore(t *testing.T) {
	result := resultWithScores(0.9, 0.8, 0.7)
	d := Decide(result, DefaultThresholds())
	if d.Confidence != result.WeightedScore {
		t.Errorf("Confidence = %v, want %v", d.Confidence, result.WeightedScore)
	}
}

func TestDecideMonotonicity(t *testing.T) {
	th := DefaultThresholds()

	// Uniform layer scores: the strategy must never get weaker as
	// similarity rises.
	prev := -1
	for _, s := range []float64{0.40, 0.60, 0.90} {
		d := Decide(resultWithScores(s, s, s), th)
		if d.Strategy.Rank() < prev {
			t.Fatalf("strategy weakened as score rose (score %.2f, strategy %s)", s, d.Strategy)
		}
		prev = d.Strategy.Rank()
	}

	// Spot-check the expected bands.
	if d := Decide(resultWithScores(0.40, 0.40, 0.40), th); d.Strategy != types.StrategyNewGen {
		t.Errorf("0.40 uniform: got %s, want new_gen", d.Strategy)
	}
	if d := Decide(resultWithScores(0.60, 0.60, 0.60), th); d.Strategy != types.StrategyPartialReuse {
		t.Errorf("0.60 uniform: got %s, want partial_reuse", d.Strategy)
	}
	if d := Decide(resultWithScores(0.90, 0.90, 0.90), th); d.Strategy != types.StrategyDirect {
		t.Errorf("0.90 uniform: got %s, want direct", d.Strategy)
	}
}

func TestDecideLayerBreakdown(t *testing.T) {
	d := Decide(resultWithScores(0.9, 0.3, 0.8), DefaultThresholds())

	intent := d.LayerBreakdown[types.LayerIntent]
	if intent.MatchQuality != "strong" || intent.TagA != "auth" {
		t.Errorf("unexpected intent verdict: %+v", intent)
	}
	tech := d.LayerBreakdown[types.LayerConstraint]
	if tech.MatchQuality != "weak" {
		t.Errorf("tech at 0.3 should be weak, got %+v", tech)
	}
}
