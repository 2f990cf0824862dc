// Package taxonomy holds the constrained tag vocabulary for the 3-layer
// classification scheme and the normalization rules that collapse synonym
// spellings onto canonical tags before any similarity comparison.
package taxonomy

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modforge/modforge/internal/types"
)

// defaultVocabulary is the built-in tag list per scored layer. The tag
// generator instructs the model to pick from these; free-form tags are still
// accepted downstream but normalized first.
var defaultVocabulary = map[types.TagLayer][]string{
	types.LayerIntent: {
		"auth", "payment", "chat", "search", "analytics", "notification",
		"workflow", "integration", "data-sync", "reporting", "user-management",
		"content-management", "file-storage", "email", "sms", "logging",
		"monitoring", "cache", "queue", "api-gateway", "load-balancer",
		"document-management", "inventory", "order-management", "shipping",
		"billing", "subscription", "crm", "hr", "project-management",
		"task-management", "calendar", "booking", "marketplace", "recommendation",
		"ai-assistant", "ocr", "video-processing", "image-processing",
	},
	types.LayerConstraint: {
		"nodejs", "python", "go", "java", "react", "vue", "angular",
		"postgresql", "mongodb", "redis", "mysql", "elasticsearch",
		"docker", "kubernetes", "aws", "gcp", "azure", "rest-api",
		"graphql", "grpc", "websocket", "oauth2", "jwt", "microservices",
		"monolith", "fastapi", "express", "django", "flask", "springboot",
		"nextjs", "typescript", "supabase", "firebase",
	},
	types.LayerContext: {
		"fintech", "ecommerce", "healthcare", "education", "saas",
		"logistics", "real-estate", "social-media", "gaming", "iot",
		"enterprise", "b2b", "b2c", "internal-tools", "warehouse",
		"retail", "manufacturing", "travel", "hospitality", "legal",
	},
}

// synonyms maps canonical tag -> accepted spellings, per layer. Lookup is on
// the cleaned form, so entries here are already lowercase and hyphenated.
var synonyms = map[types.TagLayer]map[string][]string{
	types.LayerIntent: {
		"auth":                {"auth", "authentication", "login", "user-auth", "identity", "sso"},
		"document-management": {"document-management", "doc-mgmt", "file-management", "content-management"},
		"file-upload":         {"file-upload", "upload", "upload-files", "file-input"},
		"payment":             {"payment", "billing", "checkout", "transaction", "payment-processing"},
		"search":              {"search", "query", "find", "filter", "discovery"},
		"notification":        {"notification", "alert", "messaging", "push-notification"},
		"analytics":           {"analytics", "reporting", "dashboard", "metrics", "insights"},
		"inventory":           {"inventory", "stock", "warehouse", "inventory-management"},
		"order":               {"order", "order-management", "purchase", "procurement"},
		"user-management":     {"user-management", "user-admin", "account-management"},
		"api":                 {"api", "rest-api", "graphql", "endpoint"},
		"data-export":         {"data-export", "export", "download", "extract"},
		"data-import":         {"data-import", "import", "upload-data", "batch-upload"},
		"chat":                {"chat", "messaging", "conversation", "real-time-chat"},
		"email":               {"email", "mail", "smtp", "email-service"},
		"workflow":            {"workflow", "approval", "process", "automation"},
	},
	types.LayerConstraint: {
		"nodejs":     {"nodejs", "node.js", "node", "express", "nestjs"},
		"react":      {"react", "reactjs", "react.js", "react-18"},
		"typescript": {"typescript", "ts"},
		"python":     {"python", "python3", "py"},
		"postgresql": {"postgresql", "postgres", "pg", "psql"},
		"mongodb":    {"mongodb", "mongo", "nosql"},
		"redis":      {"redis", "cache"},
		"docker":     {"docker", "containerization"},
		"aws":        {"aws", "amazon-web-services", "cloud"},
		"nextjs":     {"nextjs", "next.js", "next"},
		"tailwind":   {"tailwind", "tailwindcss"},
		"materialui": {"materialui", "material-ui", "mui"},
	},
	types.LayerContext: {
		"saas":          {"saas", "b2b", "enterprise"},
		"ecommerce":     {"ecommerce", "e-commerce", "online-store", "retail"},
		"fintech":       {"fintech", "finance", "banking", "financial-services"},
		"healthcare":    {"healthcare", "medical", "health", "clinic"},
		"education":     {"education", "edtech", "learning", "e-learning"},
		"logistics":     {"logistics", "shipping", "delivery", "transportation"},
		"manufacturing": {"manufacturing", "factory", "production"},
	},
	types.LayerQuality: {
		"real-time":         {"real-time", "realtime", "live", "websocket"},
		"high-traffic":      {"high-traffic", "scalable", "high-performance"},
		"security-critical": {"security-critical", "secure", "encryption", "compliance"},
		"multilingual":      {"multilingual", "i18n", "internationalization", "localization"},
		"mobile-first":      {"mobile-first", "responsive", "mobile-responsive"},
	},
}

var suffixRe = regexp.MustCompile(`-(service|module|system|management)$`)

// Taxonomy is the active vocabulary plus synonym rules. The zero value is not
// usable; construct with Default or Load.
type Taxonomy struct {
	vocabulary map[types.TagLayer][]string
	synonyms   map[types.TagLayer]map[string][]string
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	return &Taxonomy{vocabulary: defaultVocabulary, synonyms: synonyms}
}

// fileFormat mirrors the on-disk yaml layout for vocabulary overrides.
type fileFormat struct {
	Vocabulary map[string][]string            `yaml:"vocabulary"`
	Synonyms   map[string]map[string][]string `yaml:"synonyms"`
}

// Load reads a yaml vocabulary file. Layers absent from the file keep their
// built-in lists, so a file can override just one layer.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}

	t := &Taxonomy{
		vocabulary: make(map[types.TagLayer][]string, len(defaultVocabulary)),
		synonyms:   make(map[types.TagLayer]map[string][]string, len(synonyms)),
	}
	for layer, tags := range defaultVocabulary {
		t.vocabulary[layer] = tags
	}
	for layer, m := range synonyms {
		t.synonyms[layer] = m
	}

	for layerName, tags := range ff.Vocabulary {
		layer := types.TagLayer(layerName)
		if !layer.IsValid() {
			return nil, fmt.Errorf("unknown layer in taxonomy file: %s", layerName)
		}
		t.vocabulary[layer] = tags
	}
	for layerName, m := range ff.Synonyms {
		layer := types.TagLayer(layerName)
		if !layer.IsValid() {
			return nil, fmt.Errorf("unknown layer in taxonomy file: %s", layerName)
		}
		t.synonyms[layer] = m
	}

	return t, nil
}

// Clean lowercases a raw tag, converts spaces and underscores to hyphens, and
// strips trailing -service/-module/-system/-management suffixes.
func Clean(raw string) string {
	cleaned := strings.TrimSpace(strings.ToLower(raw))
	cleaned = strings.ReplaceAll(cleaned, " ", "-")
	cleaned = strings.ReplaceAll(cleaned, "_", "-")
	return suffixRe.ReplaceAllString(cleaned, "")
}

// Normalize maps a raw tag onto its canonical form for the given layer. Tags
// with no synonym entry come back cleaned but otherwise untouched, so
// out-of-vocabulary tags survive normalization.
func (t *Taxonomy) Normalize(raw string, layer types.TagLayer) string {
	cleaned := Clean(raw)
	for canonical, syns := range t.synonyms[layer] {
		for _, s := range syns {
			if cleaned == s {
				return canonical
			}
		}
	}
	return cleaned
}

// NormalizeSet returns a copy of the tag set with every value normalized.
func (t *Taxonomy) NormalizeSet(ts types.TagSet) types.TagSet {
	out := make(types.TagSet, len(ts))
	for layer, tag := range ts {
		tag.Value = t.Normalize(tag.Value, layer)
		out[layer] = tag
	}
	return out
}

// Vocabulary returns the tag list for a layer, sorted for stable prompt text.
func (t *Taxonomy) Vocabulary(layer types.TagLayer) []string {
	out := append([]string(nil), t.vocabulary[layer]...)
	sort.Strings(out)
	return out
}

// Contains reports whether a tag (after normalization) is in the layer's
// vocabulary.
func (t *Taxonomy) Contains(tag string, layer types.TagLayer) bool {
	normalized := t.Normalize(tag, layer)
	for _, v := range t.vocabulary[layer] {
		if v == normalized {
			return true
		}
	}
	return false
}
