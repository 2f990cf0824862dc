// Package types defines the record types shared across the modforge backend:
// projects, documents, modules, tasks, tags, reuse history and scoring configs.
package types

import (
	"fmt"
	"strings"
	"time"
)

// TagLayer identifies one of the tagging dimensions in the 3-layer
// classification scheme. L4_quality exists only as an advisory layer for the
// layer-quality analysis; storage and scoring operate on L1-L3.
type TagLayer string

const (
	LayerIntent     TagLayer = "L1_intent"     // functional purpose
	LayerConstraint TagLayer = "L2_constraint" // primary tech stack
	LayerContext    TagLayer = "L3_context"    // business domain
	LayerQuality    TagLayer = "L4_quality"    // non-functional characteristics (advisory)
)

// ScoredLayers lists the layers that participate in similarity scoring, in
// canonical order. Iteration over TagSet maps must go through this slice so
// output ordering stays deterministic.
var ScoredLayers = []TagLayer{LayerIntent, LayerConstraint, LayerContext}

// IsValid checks if the layer value is one of the fixed layers.
func (l TagLayer) IsValid() bool {
	switch l {
	case LayerIntent, LayerConstraint, LayerContext, LayerQuality:
		return true
	}
	return false
}

// IsScored reports whether the layer participates in weighted scoring.
func (l TagLayer) IsScored() bool {
	switch l {
	case LayerIntent, LayerConstraint, LayerContext:
		return true
	}
	return false
}

// Tag is a single classification value assigned to a module within one layer.
// Reasoning is not decorative: it is passed back to the similarity oracle as
// disambiguating context when two tags' surface strings differ.
type Tag struct {
	Layer      TagLayer `json:"layer"`
	Value      string   `json:"tag"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// Validate checks if the tag has valid field values.
func (t *Tag) Validate() error {
	if !t.Layer.IsValid() {
		return fmt.Errorf("invalid tag layer: %s", t.Layer)
	}
	if strings.TrimSpace(t.Value) == "" {
		return fmt.Errorf("tag value is required")
	}
	if t.Confidence < 0.0 || t.Confidence > 1.0 {
		return fmt.Errorf("tag confidence must be between 0.0 and 1.0 (got %.2f)", t.Confidence)
	}
	return nil
}

// TagSet holds at most one tag per layer (single-responsibility tagging).
type TagSet map[TagLayer]Tag

// Validate checks every tag and that each tag sits under its own layer key.
func (ts TagSet) Validate() error {
	for layer, tag := range ts {
		if tag.Layer != layer {
			return fmt.Errorf("tag filed under layer %s declares layer %s", layer, tag.Layer)
		}
		if err := tag.Validate(); err != nil {
			return fmt.Errorf("layer %s: %w", layer, err)
		}
	}
	return nil
}

// IsEmpty reports whether no scored layer carries a tag.
func (ts TagSet) IsEmpty() bool {
	for _, layer := range ScoredLayers {
		if _, ok := ts[layer]; ok {
			return false
		}
	}
	return true
}

// Clone returns a copy; mutating the copy never touches the original.
func (ts TagSet) Clone() TagSet {
	out := make(TagSet, len(ts))
	for k, v := range ts {
		out[k] = v
	}
	return out
}

// SourceType records how a module came into existence.
type SourceType string

const (
	SourceGitAnalyzed  SourceType = "git_analyzed"
	SourceManualUpload SourceType = "manual_upload"
	SourceAIGenerated  SourceType = "ai_generated"
	SourceReused       SourceType = "reused"
)

// IsValid checks if the source type value is valid.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceGitAnalyzed, SourceManualUpload, SourceAIGenerated, SourceReused:
		return true
	}
	return false
}

// Strategy is the recommended reuse action for a similarity result.
type Strategy string

const (
	StrategyDirect             Strategy = "direct"
	StrategyPartialReuse       Strategy = "partial_reuse"
	StrategyPatternCombination Strategy = "pattern_combination"
	StrategyNewGen             Strategy = "new_gen"
)

// IsValid checks if the strategy value is valid.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyDirect, StrategyPartialReuse, StrategyPatternCombination, StrategyNewGen:
		return true
	}
	return false
}

// Rank orders strategies from least to most reuse: new_gen <
// pattern_combination < partial_reuse < direct.
func (s Strategy) Rank() int {
	switch s {
	case StrategyNewGen:
		return 0
	case StrategyPatternCombination:
		return 1
	case StrategyPartialReuse:
		return 2
	case StrategyDirect:
		return 3
	default:
		return -1
	}
}

// Project groups documents and modules.
type Project struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required,min=1,max=255"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Document is an uploaded piece of project documentation, the raw input for
// AI module generation.
type Document struct {
	ID        string    `json:"id" validate:"required"`
	ProjectID string    `json:"project_id" validate:"required"`
	Name      string    `json:"name" validate:"required,min=1,max=255"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Module is a generated or hand-written unit of project scope. It carries a
// denormalized copy of its tags; storage keeps that copy and the canonical
// per-layer tag rows in sync inside a single transaction.
type Module struct {
	ID             string     `json:"id" validate:"required"`
	ProjectID      string     `json:"project_id" validate:"required"`
	Name           string     `json:"name" validate:"required,min=1,max=255"`
	Description    string     `json:"description,omitempty"`
	Scope          string     `json:"scope,omitempty"`
	Dependencies   string     `json:"dependencies,omitempty"`
	Features       string     `json:"features,omitempty"`
	Requirements   string     `json:"requirements,omitempty"`
	TechnicalSpecs string     `json:"technical_specs,omitempty"`
	Progress       int        `json:"progress"`
	TaskCount      int        `json:"task_count"`
	CompletedTasks int        `json:"completed_tasks"`
	SourceType     SourceType `json:"source_type"`

	// Reuse lineage. ReusedFromModuleID is set only for single-source reuse;
	// synthesis from multiple sources is recorded through reuse history rows.
	ReusedFromModuleID string   `json:"reused_from_module_id,omitempty"`
	ReuseStrategy      Strategy `json:"reuse_strategy,omitempty"`

	Tags               TagSet            `json:"tags_metadata,omitempty"`
	GenerationMetadata map[string]string `json:"generation_metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the module has valid field values.
func (m *Module) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(m.Name) > 255 {
		return fmt.Errorf("name must be 255 characters or less (got %d)", len(m.Name))
	}
	if m.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if !m.SourceType.IsValid() {
		return fmt.Errorf("invalid source type: %s", m.SourceType)
	}
	if m.ReuseStrategy != "" && !m.ReuseStrategy.IsValid() {
		return fmt.Errorf("invalid reuse strategy: %s", m.ReuseStrategy)
	}
	if m.SourceType != SourceReused && m.ReusedFromModuleID != "" {
		return fmt.Errorf("reused_from_module_id requires source_type=reused (got %s)", m.SourceType)
	}
	if m.Progress < 0 || m.Progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100 (got %d)", m.Progress)
	}
	if err := m.Tags.Validate(); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	return nil
}

// TaskStatus represents the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// IsValid checks if the task status value is valid.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// TaskPriority represents how urgent a task is.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValid checks if the priority value is valid.
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work inside a module.
type Task struct {
	ID            string       `json:"id" validate:"required"`
	ModuleID      string       `json:"module_id" validate:"required"`
	Name          string       `json:"name" validate:"required,min=1,max=255"`
	Description   string       `json:"description,omitempty"`
	Assignee      string       `json:"assignee,omitempty"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	Difficulty    int          `json:"difficulty"`    // 1-5, 0 means unset
	TimeEstimate  int          `json:"time_estimate"` // hours
	GeneratedByAI bool         `json:"generated_by_ai"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Validate checks if the task has valid field values.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if t.ModuleID == "" {
		return fmt.Errorf("module_id is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", t.Priority)
	}
	if t.Difficulty < 0 || t.Difficulty > 5 {
		return fmt.Errorf("difficulty must be between 0 and 5 (got %d)", t.Difficulty)
	}
	if t.TimeEstimate < 0 {
		return fmt.Errorf("time_estimate cannot be negative (got %d)", t.TimeEstimate)
	}
	return nil
}

// ReuseRecord is one entry in the append-only reuse history log. Entries are
// written once per reuse decision and never mutated afterward.
type ReuseRecord struct {
	ID             string               `json:"id"`
	SourceModuleID string               `json:"source_module_id" validate:"required"`
	TargetModuleID string               `json:"target_module_id" validate:"required"`
	WeightedScore  float64              `json:"weighted_score"`
	LayerScores    map[TagLayer]float64 `json:"layer_scores,omitempty"`
	Strategy       Strategy             `json:"strategy"`
	Rationale      string               `json:"rationale,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Validate checks if the reuse record has valid field values.
func (r *ReuseRecord) Validate() error {
	if r.SourceModuleID == "" {
		return fmt.Errorf("source_module_id is required")
	}
	if r.TargetModuleID == "" {
		return fmt.Errorf("target_module_id is required")
	}
	if r.WeightedScore < 0.0 || r.WeightedScore > 1.0 {
		return fmt.Errorf("weighted_score must be between 0.0 and 1.0 (got %.2f)", r.WeightedScore)
	}
	if !r.Strategy.IsValid() {
		return fmt.Errorf("invalid strategy: %s", r.Strategy)
	}
	return nil
}

// ScoringConfig is a named, versioned set of layer weights and strategy
// thresholds. Exactly one config may be the default at a time; the storage
// update path enforces that, not callers.
type ScoringConfig struct {
	ID              string    `json:"id"`
	Name            string    `json:"name" validate:"required,min=1,max=255"`
	Version         int       `json:"version"`
	WeightIntent    float64   `json:"weight_intent"`
	WeightTech      float64   `json:"weight_tech"`
	WeightDomain    float64   `json:"weight_domain"`
	ThresholdDirect float64   `json:"threshold_direct"`
	ThresholdMedium float64   `json:"threshold_medium"`
	MinScore        float64   `json:"min_score"`
	IsDefault       bool      `json:"is_default"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks if the scoring config has valid field values.
func (c *ScoringConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"weight_intent", c.WeightIntent},
		{"weight_tech", c.WeightTech},
		{"weight_domain", c.WeightDomain},
	} {
		if w.value < 0.0 {
			return fmt.Errorf("%s cannot be negative (got %.3f)", w.name, w.value)
		}
	}
	if c.ThresholdDirect < 0.0 || c.ThresholdDirect > 1.0 {
		return fmt.Errorf("threshold_direct must be between 0.0 and 1.0 (got %.2f)", c.ThresholdDirect)
	}
	if c.ThresholdMedium < 0.0 || c.ThresholdMedium > 1.0 {
		return fmt.Errorf("threshold_medium must be between 0.0 and 1.0 (got %.2f)", c.ThresholdMedium)
	}
	if c.ThresholdMedium > c.ThresholdDirect {
		return fmt.Errorf("threshold_medium (%.2f) cannot exceed threshold_direct (%.2f)",
			c.ThresholdMedium, c.ThresholdDirect)
	}
	if c.MinScore < 0.0 || c.MinScore > 1.0 {
		return fmt.Errorf("min_score must be between 0.0 and 1.0 (got %.2f)", c.MinScore)
	}
	return nil
}
