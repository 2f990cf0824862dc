package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modforge/modforge/internal/types"
)

func TestClean(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Authentication", "authentication"},
		{"File Upload Service", "file-upload"},
		{"user_management", "user"},
		{"  Payment System  ", "payment"},
		{"auth-module", "auth"},
		{"inventory-management", "inventory"},
		{"react", "react"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Clean(tt.raw); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tax := Default()

	tests := []struct {
		name  string
		raw   string
		layer types.TagLayer
		want  string
	}{
		{"synonym maps to canonical", "Authentication", types.LayerIntent, "auth"},
		{"login maps to auth", "login", types.LayerIntent, "auth"},
		{"suffix stripped then matched", "auth-service", types.LayerIntent, "auth"},
		{"node.js maps to nodejs", "Node.js", types.LayerConstraint, "nodejs"},
		{"postgres maps to postgresql", "postgres", types.LayerConstraint, "postgresql"},
		{"b2b maps to saas", "B2B", types.LayerContext, "saas"},
		{"unknown tag survives cleaned", "Video Streaming", types.LayerIntent, "video-streaming"},
		{"layer scoping applies", "cache", types.LayerConstraint, "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tax.Normalize(tt.raw, tt.layer); got != tt.want {
				t.Errorf("Normalize(%q, %s) = %q, want %q", tt.raw, tt.layer, got, tt.want)
			}
		})
	}
}

func TestNormalizeSet(t *testing.T) {
	tax := Default()
	in := types.TagSet{
		types.LayerIntent:     {Layer: types.LayerIntent, Value: "Login", Confidence: 0.9},
		types.LayerConstraint: {Layer: types.LayerConstraint, Value: "Express", Confidence: 0.8},
	}
	out := tax.NormalizeSet(in)

	if out[types.LayerIntent].Value != "auth" {
		t.Errorf("intent = %q, want auth", out[types.LayerIntent].Value)
	}
	if out[types.LayerConstraint].Value != "nodejs" {
		t.Errorf("constraint = %q, want nodejs", out[types.LayerConstraint].Value)
	}
	// original untouched
	if in[types.LayerIntent].Value != "Login" {
		t.Error("NormalizeSet mutated its input")
	}
}

func TestContains(t *testing.T) {
	tax := Default()
	if !tax.Contains("Authentication", types.LayerIntent) {
		t.Error("authentication should normalize into the intent vocabulary")
	}
	if tax.Contains("blockchain", types.LayerConstraint) {
		t.Error("blockchain is not in the constraint vocabulary")
	}
}

func TestLoadOverridesSingleLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	content := []byte(`vocabulary:
  L3_context:
    - aerospace
    - defense
synonyms:
  L3_context:
    aerospace:
      - aerospace
      - aviation
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	tax, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !tax.Contains("aviation", types.LayerContext) {
		t.Error("override layer should accept new synonym")
	}
	if tax.Contains("fintech", types.LayerContext) {
		t.Error("override should replace the layer's vocabulary")
	}
	// untouched layer keeps defaults
	if !tax.Contains("auth", types.LayerIntent) {
		t.Error("intent layer should keep the built-in vocabulary")
	}
}

func TestLoadRejectsUnknownLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	if err := os.WriteFile(path, []byte("vocabulary:\n  L9_bogus: [x]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown layer name")
	}
}
