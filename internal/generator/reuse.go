package generator

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/modforge/modforge/internal/ai"
	"github.com/modforge/modforge/internal/reuse"
	"github.com/modforge/modforge/internal/types"
)

// ReuseModule adapts a matched source module into a new module for the given
// project. The adaptation prompt is built from the layer-quality decision so
// the model knows what to keep, what to adapt and what to build new. A reuse
// history record is appended afterward; history failures are logged and never
// roll back the created module.
func (g *Generator) ReuseModule(
	ctx context.Context,
	projectID, requirements string,
	targetTags types.TagSet,
	match reuse.Match,
) (*types.Module, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	source := match.Module

	decision := reuse.DecideByLayerQuality(
		match.Similarity.OverallScore,
		match.Similarity.LayerScores,
		tagValues(targetTags),
		tagValues(source.Tags),
	)

	prompt := buildReuseGuidancePrompt(&source, decision, requirements)
	draft, err := g.requestDraft(ctx, "reuse_module", prompt)
	if err != nil {
		if !isUnparseable(err) {
			return nil, err
		}
		g.logger.Warn("reuse generation response unparseable after retry",
			zap.String("source_module_id", source.ID),
			zap.Error(err))
		draft = placeholderDraft("Adapted "+source.Name, err)
	}

	module := g.moduleFromDraft(projectID, draft, 0)
	module.SourceType = types.SourceReused
	module.ReusedFromModuleID = source.ID
	module.ReuseStrategy = decision.Strategy
	module.GenerationMetadata["reuse_strategy"] = string(decision.Strategy)
	module.GenerationMetadata["reuse_confidence"] = formatScore(decision.Confidence)

	if err := g.store.CreateModule(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to store reused module: %w", err)
	}

	g.recordHistory(ctx, &types.ReuseRecord{
		SourceModuleID: source.ID,
		TargetModuleID: module.ID,
		WeightedScore:  match.Similarity.WeightedScore,
		LayerScores:    match.Similarity.LayerScores,
		Strategy:       decision.Strategy,
		Rationale:      decision.Rationale,
	})

	return module, nil
}

// SynthesizeModule combines several partially matching sources into one new
// module (pattern combination). Lineage is carried entirely by reuse history:
// one record per source with that source's real computed score.
func (g *Generator) SynthesizeModule(
	ctx context.Context,
	projectID, requirements string,
	matches []reuse.Match,
) (*types.Module, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("at least one source match is required")
	}

	prompt := buildSynthesisPrompt(matches, requirements)
	draft, err := g.requestDraft(ctx, "synthesize_module", prompt)
	if err != nil {
		if !isUnparseable(err) {
			return nil, err
		}
		g.logger.Warn("synthesis response unparseable after retry",
			zap.Int("sources", len(matches)),
			zap.Error(err))
		draft = placeholderDraft("Synthesized Module", err)
	}

	module := g.moduleFromDraft(projectID, draft, 0)
	module.ReuseStrategy = types.StrategyPatternCombination
	module.GenerationMetadata["reuse_strategy"] = string(types.StrategyPatternCombination)
	module.GenerationMetadata["source_count"] = strconv.Itoa(len(matches))

	if err := g.store.CreateModule(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to store synthesized module: %w", err)
	}

	for _, match := range matches {
		g.recordHistory(ctx, &types.ReuseRecord{
			SourceModuleID: match.Module.ID,
			TargetModuleID: module.ID,
			WeightedScore:  match.Similarity.WeightedScore,
			LayerScores:    match.Similarity.LayerScores,
			Strategy:       types.StrategyPatternCombination,
			Rationale: fmt.Sprintf("Pattern source %s contributed at %.1f%% similarity.",
				match.Module.Name, match.Similarity.WeightedScore*100),
		})
	}

	return module, nil
}

// requestDraft asks the model for a single module object, retrying once with
// a stricter JSON reminder.
func (g *Generator) requestDraft(ctx context.Context, operation, prompt string) (moduleDraft, error) {
	for attempt, p := range []string{prompt, prompt + strictJSONReminder} {
		text, err := g.completer.Complete(ctx, ai.Request{
			Prompt:    p,
			Operation: operation,
			Model:     g.model,
			MaxTokens: moduleMaxTokens,
		})
		if err != nil {
			return moduleDraft{}, fmt.Errorf("completion failed: %w", err)
		}
		result := ai.Parse[moduleDraft](text, ai.ParseOptions{Context: operation})
		if result.Success {
			return result.Data, nil
		}
		g.logger.Debug("module draft parse failed",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.String("error", result.Error))
	}
	return moduleDraft{}, fmt.Errorf("%s: %w", operation, errUnparseable)
}

// recordHistory appends to the reuse log best-effort. The history is an audit
// trail; a failed append must never undo a created module.
func (g *Generator) recordHistory(ctx context.Context, record *types.ReuseRecord) {
	if err := g.store.RecordReuse(ctx, record); err != nil {
		g.logger.Warn("failed to record reuse history",
			zap.String("source_module_id", record.SourceModuleID),
			zap.String("target_module_id", record.TargetModuleID),
			zap.Error(err))
	}
}

func isUnparseable(err error) bool {
	return errors.Is(err, errUnparseable)
}

func tagValues(ts types.TagSet) map[types.TagLayer][]string {
	out := make(map[types.TagLayer][]string, len(ts))
	for layer, tag := range ts {
		out[layer] = []string{tag.Value}
	}
	return out
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
