// Package generator orchestrates AI-backed generation: modules from project
// documentation, tasks from modules, 3-layer tags, and the reuse pipeline.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/modforge/modforge/internal/ai"
	"github.com/modforge/modforge/internal/storage"
	"github.com/modforge/modforge/internal/taxonomy"
	"github.com/modforge/modforge/internal/types"
)

const (
	promptVersion = "1.0"

	moduleMaxTokens = 4096
	taskMaxTokens   = 4096
	tagMaxTokens    = 1024
)

// Generator runs generation flows against a Completer and persists results.
type Generator struct {
	store     storage.Storage
	completer ai.Completer
	taxonomy  *taxonomy.Taxonomy
	logger    *zap.Logger
	model     string
}

// New creates a generator. A nil taxonomy falls back to the built-in default
// and a nil logger to a no-op logger.
func New(store storage.Storage, completer ai.Completer, tax *taxonomy.Taxonomy, logger *zap.Logger) (*Generator, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if tax == nil {
		tax = taxonomy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		store:     store,
		completer: completer,
		taxonomy:  tax,
		logger:    logger,
		model:     ai.GetDefaultModel(),
	}, nil
}

// moduleDraft is the JSON shape the model returns for one module.
type moduleDraft struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Scope          string `json:"scope"`
	Dependencies   string `json:"dependencies"`
	Features       string `json:"features"`
	Requirements   string `json:"requirements"`
	TechnicalSpecs string `json:"technical_specs"`
}

// GenerateModules breaks project documentation into modules and stores them.
// A response that cannot be parsed triggers one retry with a stricter prompt;
// if that also fails, a single placeholder module is created so the caller
// always gets something reviewable instead of an aborted batch.
func (g *Generator) GenerateModules(ctx context.Context, projectID, documentation string) ([]*types.Module, error) {
	if strings.TrimSpace(documentation) == "" {
		return nil, fmt.Errorf("documentation is required")
	}

	prompt := buildModuleGenerationPrompt(documentation)
	drafts, parseErr := g.requestDrafts(ctx, "generate_modules", prompt)
	if parseErr != nil {
		if !errors.Is(parseErr, errUnparseable) {
			return nil, parseErr
		}
		g.logger.Warn("module generation response unparseable after retry",
			zap.String("project_id", projectID),
			zap.Error(parseErr))
		drafts = []moduleDraft{placeholderDraft("Generated Modules", parseErr)}
	}

	var modules []*types.Module
	for i, draft := range drafts {
		module := g.moduleFromDraft(projectID, draft, i)
		if parseErr != nil {
			module.GenerationMetadata["warning"] = "model response unparseable; placeholder content"
		}
		if err := g.store.CreateModule(ctx, module); err != nil {
			g.logger.Warn("failed to store generated module",
				zap.String("project_id", projectID),
				zap.String("name", module.Name),
				zap.Error(err))
			continue
		}
		modules = append(modules, module)
	}

	if len(modules) == 0 {
		return nil, fmt.Errorf("no modules could be stored for project %s", projectID)
	}
	return modules, nil
}

// errUnparseable marks responses that survived both parse attempts without
// yielding usable JSON. Callers degrade to placeholders on this error only;
// transport failures still propagate.
var errUnparseable = errors.New("model response was not parseable JSON")

// requestDrafts asks the model for a module array, retrying once with a
// stricter JSON reminder if the first response cannot be parsed.
func (g *Generator) requestDrafts(ctx context.Context, operation, prompt string) ([]moduleDraft, error) {
	for attempt, p := range []string{prompt, prompt + strictJSONReminder} {
		text, err := g.completer.Complete(ctx, ai.Request{
			Prompt:    p,
			Operation: operation,
			Model:     g.model,
			MaxTokens: moduleMaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("completion failed: %w", err)
		}
		result := ai.Parse[[]moduleDraft](text, ai.ParseOptions{Context: operation})
		if result.Success && len(result.Data) > 0 {
			return result.Data, nil
		}
		g.logger.Debug("module draft parse failed",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.String("error", result.Error))
	}
	return nil, fmt.Errorf("%s: %w", operation, errUnparseable)
}

func (g *Generator) moduleFromDraft(projectID string, draft moduleDraft, index int) *types.Module {
	name := strings.TrimSpace(draft.Name)
	meta := map[string]string{
		"model":          g.model,
		"prompt_version": promptVersion,
	}
	if name == "" {
		name = fmt.Sprintf("Module %d (needs review)", index+1)
		meta["warning"] = "model omitted the module name; placeholder assigned"
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return &types.Module{
		ProjectID:          projectID,
		Name:               name,
		Description:        draft.Description,
		Scope:              draft.Scope,
		Dependencies:       draft.Dependencies,
		Features:           draft.Features,
		Requirements:       draft.Requirements,
		TechnicalSpecs:     draft.TechnicalSpecs,
		SourceType:         types.SourceAIGenerated,
		GenerationMetadata: meta,
	}
}

func placeholderDraft(name string, cause error) moduleDraft {
	return moduleDraft{
		Name:        name + " (needs review)",
		Description: "Automatic generation failed; this placeholder needs manual replacement.",
		Requirements: fmt.Sprintf(
			"Generation failed with: %v. Re-run generation or fill this module in by hand.", cause),
	}
}

// tagChoice is one layer's classification in the model response.
type tagChoice struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// tagResponse is the JSON shape the model returns for tag classification.
type tagResponse struct {
	Intent     *tagChoice `json:"L1_intent"`
	Constraint *tagChoice `json:"L2_constraint"`
	Context    *tagChoice `json:"L3_context"`
}

// GenerateTags classifies a module into the 3-layer taxonomy, normalizes each
// tag, and stores the tag set atomically with the module's metadata blob.
func (g *Generator) GenerateTags(ctx context.Context, module *types.Module) (types.TagSet, error) {
	if module == nil || module.ID == "" {
		return nil, fmt.Errorf("module with ID is required")
	}

	prompt := buildTagGenerationPrompt(module, g.taxonomy)
	text, err := g.completer.Complete(ctx, ai.Request{
		Prompt:    prompt,
		Operation: "generate_tags",
		Model:     g.model,
		MaxTokens: tagMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	result := ai.Parse[tagResponse](text, ai.ParseOptions{Context: "generate_tags"})
	if !result.Success {
		return nil, fmt.Errorf("tag response unparseable: %s", result.Error)
	}

	tags := make(types.TagSet, 3)
	for _, entry := range []struct {
		layer  types.TagLayer
		choice *tagChoice
	}{
		{types.LayerIntent, result.Data.Intent},
		{types.LayerConstraint, result.Data.Constraint},
		{types.LayerContext, result.Data.Context},
	} {
		if entry.choice == nil || strings.TrimSpace(entry.choice.Tag) == "" {
			continue
		}
		tags[entry.layer] = types.Tag{
			Layer:      entry.layer,
			Value:      g.taxonomy.Normalize(entry.choice.Tag, entry.layer),
			Confidence: clampConfidence(entry.choice.Confidence),
			Reasoning:  entry.choice.Reasoning,
		}
	}
	if tags.IsEmpty() {
		return nil, fmt.Errorf("model returned no usable tags for module %s", module.ID)
	}

	if err := g.store.SetModuleTags(ctx, module.ID, tags); err != nil {
		return nil, fmt.Errorf("failed to store tags: %w", err)
	}
	module.Tags = tags

	g.logger.Debug("tags generated",
		zap.String("module_id", module.ID),
		zap.Int("layers", len(tags)))
	return tags, nil
}

// taskDraft is the JSON shape the model returns for one task.
type taskDraft struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Priority     string  `json:"priority"`
	Difficulty   int     `json:"difficulty"`
	TimeEstimate float64 `json:"time_estimate"`
	Assignee     string  `json:"assignee"`
}

// GenerateTasks breaks a module into tasks and stores them. Malformed batch
// items degrade to placeholders rather than aborting the batch.
func (g *Generator) GenerateTasks(ctx context.Context, module *types.Module) ([]*types.Task, error) {
	if module == nil || module.ID == "" {
		return nil, fmt.Errorf("module with ID is required")
	}

	prompt := buildTaskGenerationPrompt(module)
	var drafts []taskDraft
	for attempt, p := range []string{prompt, prompt + strictJSONReminder} {
		text, err := g.completer.Complete(ctx, ai.Request{
			Prompt:    p,
			Operation: "generate_tasks",
			Model:     g.model,
			MaxTokens: taskMaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("completion failed: %w", err)
		}
		result := ai.Parse[[]taskDraft](text, ai.ParseOptions{Context: "generate_tasks"})
		if result.Success && len(result.Data) > 0 {
			drafts = result.Data
			break
		}
		g.logger.Debug("task draft parse failed",
			zap.String("module_id", module.ID),
			zap.Int("attempt", attempt+1),
			zap.String("error", result.Error))
	}
	if drafts == nil {
		return nil, fmt.Errorf("generate_tasks: %w", errUnparseable)
	}

	var tasks []*types.Task
	for i, draft := range drafts {
		task := taskFromDraft(module.ID, draft, i)
		if err := g.store.CreateTask(ctx, task); err != nil {
			g.logger.Warn("failed to store generated task",
				zap.String("module_id", module.ID),
				zap.String("name", task.Name),
				zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks could be stored for module %s", module.ID)
	}
	return tasks, nil
}

func taskFromDraft(moduleID string, draft taskDraft, index int) *types.Task {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		name = fmt.Sprintf("Task %d (needs review)", index+1)
	}
	if len(name) > 255 {
		name = name[:255]
	}

	priority := types.TaskPriority(strings.ToLower(strings.TrimSpace(draft.Priority)))
	if !priority.IsValid() {
		priority = types.PriorityMedium
	}

	difficulty := draft.Difficulty
	if difficulty < 0 {
		difficulty = 0
	}
	if difficulty > 5 {
		difficulty = 5
	}

	hours := int(math.Ceil(draft.TimeEstimate))
	if hours < 0 {
		hours = 0
	}

	return &types.Task{
		ModuleID:      moduleID,
		Name:          name,
		Description:   draft.Description,
		Assignee:      strings.TrimSpace(draft.Assignee),
		Status:        types.TaskTodo,
		Priority:      priority,
		Difficulty:    difficulty,
		TimeEstimate:  hours,
		GeneratedByAI: true,
	}
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
