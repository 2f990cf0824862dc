// Package similarity scores how alike two modules are, layer by layer. The
// oracle asks a model to judge tag pairs and falls back to lexical matching
// when the API is unavailable; the scorer combines per-layer judgments into a
// weighted module score.
package similarity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/modforge/modforge/internal/ai"
	"github.com/modforge/modforge/internal/types"
)

// layerFraming describes what a layer means inside the judgment prompt.
var layerFraming = map[types.TagLayer]string{
	types.LayerIntent:     "functional purpose (what the module does)",
	types.LayerConstraint: "technical stack (technologies used)",
	types.LayerContext:    "business domain (industry/use case)",
}

type cacheKey struct {
	tagA  string
	tagB  string
	layer types.TagLayer
}

// Oracle judges semantic similarity between tag pairs. Results are cached
// symmetrically: (a, b, layer) and (b, a, layer) share one entry. The zero
// value is not usable; construct with NewOracle.
type Oracle struct {
	completer ai.Completer
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[cacheKey]float64
	calls int
}

// NewOracle creates an oracle backed by the given completer.
func NewOracle(completer ai.Completer, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{
		completer: completer,
		logger:    logger,
		cache:     make(map[cacheKey]float64),
	}
}

// similarityResponse is the JSON shape the judgment prompt asks for.
type similarityResponse struct {
	Similarity float64 `json:"similarity"`
	Reasoning  string  `json:"reasoning"`
}

// TagSimilarity returns a similarity score in [0, 1] for two tags within a
// layer. Identical tags (after lowercasing and trimming) score 1.0 without a
// model call. Reasoning strings, when available, are included in the prompt
// so the judgment sees the intent behind each tag and not just its spelling.
//
// The method never fails: if the model call errors out it falls back to
// lexical matching and logs the degradation.
func (o *Oracle) TagSimilarity(ctx context.Context, tagA, tagB string, layer types.TagLayer, reasoningA, reasoningB string) float64 {
	a := strings.TrimSpace(strings.ToLower(tagA))
	b := strings.TrimSpace(strings.ToLower(tagB))

	if a == b {
		return 1.0
	}

	o.mu.Lock()
	if score, ok := o.cache[cacheKey{a, b, layer}]; ok {
		o.mu.Unlock()
		return score
	}
	if score, ok := o.cache[cacheKey{b, a, layer}]; ok {
		o.mu.Unlock()
		return score
	}
	o.mu.Unlock()

	score, ok := o.judge(ctx, a, b, layer, reasoningA, reasoningB)

	// Cache successful judgments only, under the forward key; lookup checks
	// both orderings. A fallback score from a failed call is never cached, so
	// the pair is judged again once the outage clears. Reasoning is not part
	// of the key, which is an accepted imprecision.
	if ok {
		o.mu.Lock()
		o.cache[cacheKey{a, b, layer}] = score
		o.mu.Unlock()
	}

	return score
}

// judge asks the model for a score, falling back to lexical matching on any
// failure. The second return reports whether the model judgment succeeded.
func (o *Oracle) judge(ctx context.Context, tagA, tagB string, layer types.TagLayer, reasoningA, reasoningB string) (float64, bool) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()

	prompt := buildJudgmentPrompt(tagA, tagB, layer, reasoningA, reasoningB)

	text, err := o.completer.Complete(ctx, ai.Request{
		Prompt:    prompt,
		Operation: "tag similarity",
		Model:     ai.GetJudgmentModel(),
		MaxTokens: 256,
	})
	if err != nil {
		o.logger.Warn("similarity judgment failed, using lexical fallback",
			zap.String("tag_a", tagA),
			zap.String("tag_b", tagB),
			zap.String("layer", string(layer)),
			zap.Error(err))
		return lexicalSimilarity(tagA, tagB), false
	}

	result := ai.Parse[similarityResponse](text, ai.ParseOptions{Context: "tag similarity"})
	if !result.Success {
		o.logger.Warn("similarity response unparseable, using lexical fallback",
			zap.String("tag_a", tagA),
			zap.String("tag_b", tagB),
			zap.String("error", result.Error))
		return lexicalSimilarity(tagA, tagB), false
	}

	return clamp01(result.Data.Similarity), true
}

// ModelCalls reports how many judgment calls have gone to the model. Exact
// matches and cache hits do not count.
func (o *Oracle) ModelCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// CacheSize reports the number of cached pair judgments.
func (o *Oracle) CacheSize() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.cache)
}

func buildJudgmentPrompt(tagA, tagB string, layer types.TagLayer, reasoningA, reasoningB string) string {
	framing, ok := layerFraming[layer]
	if !ok {
		framing = "general classification"
	}

	contextA := ""
	if reasoningA != "" {
		contextA = fmt.Sprintf("\nTag 1 Reasoning: %s", reasoningA)
	}
	contextB := ""
	if reasoningB != "" {
		contextB = fmt.Sprintf("\nTag 2 Reasoning: %s", reasoningB)
	}

	return fmt.Sprintf(`You are a semantic similarity expert for software module tags.

Assess the semantic similarity between these two tags in the context of %s:

Tag 1: "%s"%s
Tag 2: "%s"%s

Consider:
- Are these synonyms or closely related concepts?
- Would a module with tag1 be relevant when searching for tag2?
- Do they serve the same or similar purposes?
- **IMPORTANT**: Use the reasoning to understand the INTENT behind each tag, not just the tag name

Return ONLY a JSON object with the similarity score:

{
  "similarity": 0.95,
  "reasoning": "Brief explanation of the similarity"
}

Scoring guide:
- 1.0: Exact match or perfect synonyms (e.g., "auth" and "authentication")
- 0.9-0.95: Very close semantics (e.g., "user-management" and "auth")
- 0.7-0.85: Related concepts (e.g., "payment" and "billing")
- 0.4-0.65: Somewhat related (e.g., "auth" and "api-gateway")
- 0.0-0.35: Different concepts (e.g., "auth" and "payment")

Return ONLY the JSON object.`, framing, tagA, contextA, tagB, contextB)
}

// lexicalSimilarity is the deterministic fallback used when no model is
// reachable: containment scores 0.8, otherwise scaled word overlap.
func lexicalSimilarity(tagA, tagB string) float64 {
	if tagA == tagB {
		return 1.0
	}

	if strings.Contains(tagA, tagB) || strings.Contains(tagB, tagA) {
		return 0.8
	}

	wordsA := tagWords(tagA)
	wordsB := tagWords(tagB)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0.0
	}

	// Scaled down since word overlap is a weak signal.
	return float64(intersection) / float64(union) * 0.7
}

func tagWords(tag string) map[string]struct{} {
	replaced := strings.NewReplacer("-", " ", "_", " ").Replace(tag)
	words := make(map[string]struct{})
	for _, w := range strings.Fields(replaced) {
		words[w] = struct{}{}
	}
	return words
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
