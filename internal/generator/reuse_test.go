package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/modforge/modforge/internal/reuse"
	"github.com/modforge/modforge/internal/similarity"
	"github.com/modforge/modforge/internal/types"
)

const adaptedModuleResponse = `{
  "name": "Adapted Authentication",
  "description": "Auth adapted for the new platform.",
  "scope": "Login and sessions.",
  "dependencies": "",
  "features": "JWT login",
  "requirements": "",
  "technical_specs": "Go, Redis"
}`

func sourceTagSet() types.TagSet {
	return types.TagSet{
		types.LayerIntent:     {Layer: types.LayerIntent, Value: "auth", Confidence: 0.9},
		types.LayerConstraint: {Layer: types.LayerConstraint, Value: "nodejs", Confidence: 0.8},
		types.LayerContext:    {Layer: types.LayerContext, Value: "saas", Confidence: 0.8},
	}
}

func matchWithScores(module types.Module, l1, l2, l3 float64) reuse.Match {
	weights := similarity.DefaultWeights()
	weighted := l1*weights.Intent + l2*weights.Tech + l3*weights.Domain
	return reuse.Match{
		Module: module,
		Similarity: similarity.Result{
			WeightedScore: weighted,
			OverallScore:  (l1 + l2 + l3) / 3,
			LayerScores: map[types.TagLayer]float64{
				types.LayerIntent:     l1,
				types.LayerConstraint: l2,
				types.LayerContext:    l3,
			},
			Weights: weights,
		},
	}
}

func TestReuseModuleDirect(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{adaptedModuleResponse}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)

	source := &types.Module{
		ProjectID:  project.ID,
		Name:       "user-auth",
		SourceType: types.SourceAIGenerated,
		Tags:       sourceTagSet(),
	}
	if err := store.CreateModule(ctx, source); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}

	match := matchWithScores(*source, 0.9, 0.85, 0.8)
	module, err := gen.ReuseModule(ctx, project.ID, "Build auth for a new SaaS app.", sourceTagSet(), match)
	if err != nil {
		t.Fatalf("ReuseModule failed: %v", err)
	}

	if module.SourceType != types.SourceReused {
		t.Errorf("source_type = %s, want reused", module.SourceType)
	}
	if module.ReusedFromModuleID != source.ID {
		t.Errorf("reused_from = %q, want %q", module.ReusedFromModuleID, source.ID)
	}
	if module.ReuseStrategy != types.StrategyDirect {
		t.Errorf("strategy = %s, want direct", module.ReuseStrategy)
	}
	if !strings.Contains(completer.prompts[0], "DIRECT REUSE") {
		t.Error("prompt missing direct reuse guidance")
	}

	history, err := store.GetReuseHistory(ctx, source.ID)
	if err != nil {
		t.Fatalf("GetReuseHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history))
	}
	record := history[0]
	if record.TargetModuleID != module.ID {
		t.Errorf("history target = %q, want %q", record.TargetModuleID, module.ID)
	}
	wantScore := match.Similarity.WeightedScore
	if diff := record.WeightedScore - wantScore; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("history score = %v, want %v", record.WeightedScore, wantScore)
	}
	if record.LayerScores[types.LayerIntent] != 0.9 {
		t.Errorf("history intent score = %v", record.LayerScores[types.LayerIntent])
	}
}

func TestReuseModulePartialPromptGuidance(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{adaptedModuleResponse}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)

	source := &types.Module{
		ProjectID:  project.ID,
		Name:       "node-auth",
		SourceType: types.SourceAIGenerated,
		Tags:       sourceTagSet(),
	}
	if err := store.CreateModule(ctx, source); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}

	targetTags := types.TagSet{
		types.LayerIntent:     {Layer: types.LayerIntent, Value: "auth", Confidence: 0.9},
		types.LayerConstraint: {Layer: types.LayerConstraint, Value: "go", Confidence: 0.9},
		types.LayerContext:    {Layer: types.LayerContext, Value: "saas", Confidence: 0.8},
	}
	// Strong intent, weak tech: the quality tree picks partial reuse.
	match := matchWithScores(*source, 0.9, 0.3, 0.8)
	module, err := gen.ReuseModule(ctx, project.ID, "Port auth to Go.", targetTags, match)
	if err != nil {
		t.Fatalf("ReuseModule failed: %v", err)
	}
	if module.ReuseStrategy != types.StrategyPartialReuse {
		t.Errorf("strategy = %s, want partial_reuse", module.ReuseStrategy)
	}
	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "PARTIAL REUSE") {
		t.Error("prompt missing partial reuse guidance")
	}
	if !strings.Contains(prompt, "go") {
		t.Error("prompt should name the target tech stack")
	}
}

func TestReuseModulePlaceholderOnUnparseable(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{"no json", "still no json"}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)

	source := &types.Module{
		ProjectID:  project.ID,
		Name:       "user-auth",
		SourceType: types.SourceAIGenerated,
		Tags:       sourceTagSet(),
	}
	if err := store.CreateModule(ctx, source); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}

	match := matchWithScores(*source, 0.9, 0.85, 0.8)
	module, err := gen.ReuseModule(ctx, project.ID, "requirements", sourceTagSet(), match)
	if err != nil {
		t.Fatalf("ReuseModule failed: %v", err)
	}
	if !strings.Contains(module.Name, "needs review") {
		t.Errorf("expected placeholder module, got %q", module.Name)
	}
	if module.SourceType != types.SourceReused {
		t.Error("placeholder must still carry reuse lineage")
	}

	history, err := store.GetReuseHistory(ctx, source.ID)
	if err != nil {
		t.Fatalf("GetReuseHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected history record even for placeholder, got %d", len(history))
	}
}

func TestSynthesizeModule(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{adaptedModuleResponse}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)

	var matches []reuse.Match
	for i, spec := range []struct {
		name string
		l1   float64
	}{
		{"order-service", 0.55},
		{"billing-core", 0.45},
	} {
		source := &types.Module{
			ProjectID:  project.ID,
			Name:       spec.name,
			SourceType: types.SourceAIGenerated,
			Tags:       sourceTagSet(),
		}
		if err := store.CreateModule(ctx, source); err != nil {
			t.Fatalf("CreateModule %d failed: %v", i, err)
		}
		matches = append(matches, matchWithScores(*source, spec.l1, 0.5, 0.5))
	}

	module, err := gen.SynthesizeModule(ctx, project.ID, "Combine ordering and billing.", matches)
	if err != nil {
		t.Fatalf("SynthesizeModule failed: %v", err)
	}
	if module.ReuseStrategy != types.StrategyPatternCombination {
		t.Errorf("strategy = %s, want pattern_combination", module.ReuseStrategy)
	}
	if module.ReusedFromModuleID != "" {
		t.Error("synthesis lineage lives in history, not the module row")
	}
	if module.GenerationMetadata["source_count"] != "2" {
		t.Errorf("source_count = %q", module.GenerationMetadata["source_count"])
	}

	history, err := store.GetReuseHistory(ctx, module.ID)
	if err != nil {
		t.Fatalf("GetReuseHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(history))
	}
	seen := make(map[string]float64)
	for _, record := range history {
		seen[record.SourceModuleID] = record.WeightedScore
	}
	for _, match := range matches {
		got, ok := seen[match.Module.ID]
		if !ok {
			t.Errorf("missing history record for source %s", match.Module.Name)
			continue
		}
		want := match.Similarity.WeightedScore
		if diff := got - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("history score for %s = %v, want %v", match.Module.Name, got, want)
		}
	}
}

func TestSynthesizeModuleRequiresSources(t *testing.T) {
	gen, store := newTestGenerator(t, &scriptedCompleter{responses: []string{"{}"}})
	project := createProject(t, store)
	_, err := gen.SynthesizeModule(context.Background(), project.ID, "req", nil)
	if err == nil {
		t.Fatal("expected error for empty source list")
	}
}
