package generator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/modforge/modforge/internal/ai"
	"github.com/modforge/modforge/internal/storage/sqlite"
	"github.com/modforge/modforge/internal/types"
)

// scriptedCompleter replays canned responses in order; the last response is
// sticky once the script runs out.
type scriptedCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (c *scriptedCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.prompts = append(c.prompts, req.Prompt)
	if c.err != nil {
		return "", c.err
	}
	idx := c.calls - 1
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

const twoModuleResponse = `[
  {
    "name": "User Authentication",
    "description": "Handles registration, login and sessions.",
    "scope": "All auth flows.",
    "dependencies": "Database Module",
    "features": "JWT login, password reset",
    "requirements": "Support 10k concurrent users",
    "technical_specs": "Node.js, Express, JWT, Redis"
  },
  {
    "name": "Payment Processing",
    "description": "Charges cards and reconciles payouts.",
    "scope": "Payments only.",
    "dependencies": "User Authentication",
    "features": "Card charges, refunds",
    "requirements": "PCI compliance",
    "technical_specs": "Go, Stripe API"
  }
]`

func newTestGenerator(t *testing.T, completer ai.Completer) (*Generator, *sqlite.SQLiteStorage) {
	t.Helper()
	store, err := sqlite.New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gen, err := New(store, completer, nil, nil)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	return gen, store
}

func createProject(t *testing.T, store *sqlite.SQLiteStorage) *types.Project {
	t.Helper()
	project := &types.Project{Name: "test-project"}
	if err := store.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

func TestGenerateModules(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{twoModuleResponse}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)

	modules, err := gen.GenerateModules(ctx, project.ID, "Build an ecommerce platform.")
	if err != nil {
		t.Fatalf("GenerateModules failed: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if completer.calls != 1 {
		t.Errorf("expected 1 completion call, got %d", completer.calls)
	}

	stored, err := store.ListModules(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListModules failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored modules, got %d", len(stored))
	}
	for _, m := range stored {
		if m.SourceType != types.SourceAIGenerated {
			t.Errorf("source_type = %s, want ai_generated", m.SourceType)
		}
		if m.GenerationMetadata["model"] == "" {
			t.Error("expected model in generation metadata")
		}
		if m.GenerationMetadata["prompt_version"] != "1.0" {
			t.Errorf("prompt_version = %q", m.GenerationMetadata["prompt_version"])
		}
	}
}

func TestGenerateModulesRetriesWithStricterPrompt(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{
		"Sure! Here are the modules you asked for.",
		twoModuleResponse,
	}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)

	modules, err := gen.GenerateModules(ctx, project.ID, "docs")
	if err != nil {
		t.Fatalf("GenerateModules failed: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if completer.calls != 2 {
		t.Fatalf("expected 2 completion calls, got %d", completer.calls)
	}
	if !strings.Contains(completer.prompts[1], "could not be parsed") {
		t.Error("retry prompt missing strict JSON reminder")
	}
}

func TestGenerateModulesPlaceholderOnDoubleFailure(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{"garbage", "still garbage"}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)

	modules, err := gen.GenerateModules(ctx, project.ID, "docs")
	if err != nil {
		t.Fatalf("GenerateModules failed: %v", err)
	}
	if len(modules) != 1 {
		t.Fatalf("expected 1 placeholder module, got %d", len(modules))
	}
	if !strings.Contains(modules[0].Name, "needs review") {
		t.Errorf("placeholder name = %q", modules[0].Name)
	}
	if modules[0].GenerationMetadata["warning"] == "" {
		t.Error("expected warning in placeholder metadata")
	}
}

func TestGenerateModulesRequiresDocumentation(t *testing.T) {
	gen, store := newTestGenerator(t, &scriptedCompleter{responses: []string{"{}"}})
	project := createProject(t, store)

	_, err := gen.GenerateModules(context.Background(), project.ID, "   ")
	if err == nil {
		t.Fatal("expected error for empty documentation")
	}
}

func TestGenerateTagsNormalizesAndStores(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{`{
	  "L1_intent": {"tag": "Authentication", "confidence": 0.95, "reasoning": "validates identity"},
	  "L2_constraint": {"tag": "cache", "confidence": 0.9, "reasoning": "redis session store"},
	  "L3_context": {"tag": "SaaS", "confidence": 1.4, "reasoning": "multi-tenant"}
	}`}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)

	module := &types.Module{
		ProjectID:  project.ID,
		Name:       "session-service",
		SourceType: types.SourceAIGenerated,
	}
	if err := store.CreateModule(ctx, module); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}

	tags, err := gen.GenerateTags(ctx, module)
	if err != nil {
		t.Fatalf("GenerateTags failed: %v", err)
	}
	if tags[types.LayerIntent].Value != "auth" {
		t.Errorf("intent = %q, want auth", tags[types.LayerIntent].Value)
	}
	if tags[types.LayerConstraint].Value != "redis" {
		t.Errorf("constraint = %q, want redis", tags[types.LayerConstraint].Value)
	}
	if tags[types.LayerContext].Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamp to 1.0", tags[types.LayerContext].Confidence)
	}

	stored, err := store.GetModule(ctx, module.ID)
	if err != nil {
		t.Fatalf("GetModule failed: %v", err)
	}
	if stored.Tags[types.LayerIntent].Value != "auth" {
		t.Error("tags not persisted through storage")
	}
	if stored.Tags[types.LayerIntent].Reasoning != "validates identity" {
		t.Error("tag reasoning not persisted")
	}
}

func TestGenerateTagsPromptConstrainedToTaxonomy(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{`{
	  "L1_intent": {"tag": "auth", "confidence": 0.9, "reasoning": "r"}
	}`}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)
	module := &types.Module{ProjectID: project.ID, Name: "m", SourceType: types.SourceAIGenerated}
	if err := store.CreateModule(context.Background(), module); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}

	if _, err := gen.GenerateTags(context.Background(), module); err != nil {
		t.Fatalf("GenerateTags failed: %v", err)
	}
	prompt := completer.prompts[0]
	for _, want := range []string{"payment", "postgresql", "fintech", "EXACTLY ONE tag"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("tag prompt missing %q", want)
		}
	}
}

func TestGenerateTagsUnparseable(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"not json at all"}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)
	module := &types.Module{ProjectID: project.ID, Name: "m", SourceType: types.SourceAIGenerated}
	if err := store.CreateModule(context.Background(), module); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}

	if _, err := gen.GenerateTags(context.Background(), module); err == nil {
		t.Fatal("expected error for unparseable tag response")
	}
}

func TestGenerateTasksDegradesBadItems(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{responses: []string{`[
	  {"name": "[Backend] Create login endpoint", "description": "d", "priority": "high", "difficulty": 2, "time_estimate": 2.5, "assignee": ""},
	  {"name": "", "description": "d", "priority": "urgent", "difficulty": 9, "time_estimate": -1, "assignee": ""}
	]`}}
	gen, store := newTestGenerator(t, completer)
	project := createProject(t, store)
	module := &types.Module{ProjectID: project.ID, Name: "auth", SourceType: types.SourceAIGenerated}
	if err := store.CreateModule(ctx, module); err != nil {
		t.Fatalf("CreateModule failed: %v", err)
	}

	tasks, err := gen.GenerateTasks(ctx, module)
	if err != nil {
		t.Fatalf("GenerateTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	first, second := tasks[0], tasks[1]
	if first.Priority != types.PriorityHigh || first.TimeEstimate != 3 {
		t.Errorf("first task: priority=%s estimate=%d", first.Priority, first.TimeEstimate)
	}
	if !strings.Contains(second.Name, "needs review") {
		t.Errorf("expected placeholder name, got %q", second.Name)
	}
	if second.Priority != types.PriorityMedium {
		t.Errorf("invalid priority should default to medium, got %s", second.Priority)
	}
	if second.Difficulty != 5 {
		t.Errorf("difficulty should clamp to 5, got %d", second.Difficulty)
	}
	if !first.GeneratedByAI {
		t.Error("expected generated_by_ai to be set")
	}

	stored, err := store.GetModule(ctx, module.ID)
	if err != nil {
		t.Fatalf("GetModule failed: %v", err)
	}
	if stored.TaskCount != 2 {
		t.Errorf("module task_count = %d, want 2", stored.TaskCount)
	}
}
