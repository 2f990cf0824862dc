package types

import (
	"strings"
	"testing"
)

func TestTagValidate(t *testing.T) {
	tests := []struct {
		name    string
		tag     Tag
		wantErr bool
	}{
		{
			name: "valid intent tag",
			tag:  Tag{Layer: LayerIntent, Value: "user-authentication", Confidence: 0.9},
		},
		{
			name: "valid quality tag",
			tag:  Tag{Layer: LayerQuality, Value: "high-security", Confidence: 0.8},
		},
		{
			name:    "unknown layer",
			tag:     Tag{Layer: "L5_mystery", Value: "x", Confidence: 0.5},
			wantErr: true,
		},
		{
			name:    "empty value",
			tag:     Tag{Layer: LayerIntent, Value: "   ", Confidence: 0.5},
			wantErr: true,
		},
		{
			name:    "confidence above range",
			tag:     Tag{Layer: LayerIntent, Value: "x", Confidence: 1.5},
			wantErr: true,
		},
		{
			name:    "confidence below range",
			tag:     Tag{Layer: LayerIntent, Value: "x", Confidence: -0.1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tag.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTagSetValidate(t *testing.T) {
	good := TagSet{
		LayerIntent:     {Layer: LayerIntent, Value: "data-processing", Confidence: 0.9},
		LayerConstraint: {Layer: LayerConstraint, Value: "python-fastapi", Confidence: 0.8},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() on consistent set: %v", err)
	}

	misfiled := TagSet{
		LayerIntent: {Layer: LayerContext, Value: "e-commerce", Confidence: 0.9},
	}
	err := misfiled.Validate()
	if err == nil {
		t.Fatal("expected error for tag filed under the wrong layer")
	}
	if !strings.Contains(err.Error(), "declares layer") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestTagSetIsEmpty(t *testing.T) {
	if !(TagSet{}).IsEmpty() {
		t.Error("empty set should be empty")
	}
	qualityOnly := TagSet{
		LayerQuality: {Layer: LayerQuality, Value: "high-performance", Confidence: 0.7},
	}
	if !qualityOnly.IsEmpty() {
		t.Error("set with only an advisory tag carries nothing scoreable")
	}
	withIntent := TagSet{
		LayerIntent: {Layer: LayerIntent, Value: "user-authentication", Confidence: 0.9},
	}
	if withIntent.IsEmpty() {
		t.Error("set with a scored tag is not empty")
	}
}

func TestModuleValidate(t *testing.T) {
	valid := func() Module {
		return Module{
			ID:         "mod-1",
			ProjectID:  "proj-1",
			Name:       "Payment Processing",
			SourceType: SourceAIGenerated,
			Progress:   40,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Module)
		wantErr string
	}{
		{
			name:   "valid module",
			mutate: func(m *Module) {},
		},
		{
			name:    "missing name",
			mutate:  func(m *Module) { m.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "name too long",
			mutate:  func(m *Module) { m.Name = strings.Repeat("a", 256) },
			wantErr: "255 characters",
		},
		{
			name:    "missing project",
			mutate:  func(m *Module) { m.ProjectID = "" },
			wantErr: "project_id is required",
		},
		{
			name:    "bad source type",
			mutate:  func(m *Module) { m.SourceType = "cloned" },
			wantErr: "invalid source type",
		},
		{
			name:    "bad strategy",
			mutate:  func(m *Module) { m.ReuseStrategy = "wholesale" },
			wantErr: "invalid reuse strategy",
		},
		{
			name: "lineage without reused source type",
			mutate: func(m *Module) {
				m.ReusedFromModuleID = "mod-0"
			},
			wantErr: "requires source_type=reused",
		},
		{
			name: "lineage with reused source type",
			mutate: func(m *Module) {
				m.SourceType = SourceReused
				m.ReusedFromModuleID = "mod-0"
				m.ReuseStrategy = StrategyDirect
			},
		},
		{
			name:    "progress out of range",
			mutate:  func(m *Module) { m.Progress = 101 },
			wantErr: "progress must be",
		},
		{
			name: "bad tag inside set",
			mutate: func(m *Module) {
				m.Tags = TagSet{LayerIntent: {Layer: LayerIntent, Value: "", Confidence: 0.5}}
			},
			wantErr: "tags:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestStrategyRank(t *testing.T) {
	order := []Strategy{StrategyNewGen, StrategyPatternCombination, StrategyPartialReuse, StrategyDirect}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("Rank(%s)=%d should be below Rank(%s)=%d",
				order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
	if Strategy("bogus").Rank() != -1 {
		t.Error("unknown strategy should rank -1")
	}
}

func TestScoringConfigValidate(t *testing.T) {
	valid := func() ScoringConfig {
		return ScoringConfig{
			Name:            "default",
			WeightIntent:    0.60,
			WeightTech:      0.25,
			WeightDomain:    0.15,
			ThresholdDirect: 0.75,
			ThresholdMedium: 0.50,
			MinScore:        0.30,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ScoringConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *ScoringConfig) {}},
		{name: "empty name", mutate: func(c *ScoringConfig) { c.Name = "" }, wantErr: true},
		{name: "negative weight", mutate: func(c *ScoringConfig) { c.WeightTech = -0.1 }, wantErr: true},
		{name: "direct threshold out of range", mutate: func(c *ScoringConfig) { c.ThresholdDirect = 1.1 }, wantErr: true},
		{name: "inverted thresholds", mutate: func(c *ScoringConfig) { c.ThresholdMedium = 0.9 }, wantErr: true},
		{name: "min score out of range", mutate: func(c *ScoringConfig) { c.MinScore = -0.2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskValidate(t *testing.T) {
	task := Task{
		ID:       "task-1",
		ModuleID: "mod-1",
		Name:     "Implement session store",
		Status:   TaskTodo,
		Priority: PriorityMedium,
	}
	if err := task.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	task.Difficulty = 6
	if err := task.Validate(); err == nil {
		t.Error("expected error for difficulty out of range")
	}
}

func TestReuseRecordValidate(t *testing.T) {
	rec := ReuseRecord{
		SourceModuleID: "mod-a",
		TargetModuleID: "mod-b",
		WeightedScore:  0.82,
		Strategy:       StrategyDirect,
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	rec.Strategy = ""
	if err := rec.Validate(); err == nil {
		t.Error("expected error for missing strategy")
	}
}
