package reuse

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/modforge/modforge/internal/similarity"
	"github.com/modforge/modforge/internal/types"
)

// Search defaults.
const (
	DefaultMinScore    = 0.3
	DefaultTopK        = 10
	defaultMaxParallel = 4
)

// Match is one ranked search result.
type Match struct {
	Module     types.Module      `json:"module"`
	Similarity similarity.Result `json:"similarity"`
	Decision   Decision          `json:"decision"`
}

// SearchOptions tunes a ranking run. Zero values take the defaults above.
type SearchOptions struct {
	MinScore         float64 // floor on weighted score; 0 means DefaultMinScore, negative disables the floor
	TopK             int     // result cap; 0 means DefaultTopK
	ExcludeProjectID string  // skip candidates from this project
}

// Searcher ranks candidate modules against a target tag set.
type Searcher struct {
	scorer      *similarity.Scorer
	thresholds  Thresholds
	logger      *zap.Logger
	maxParallel int
}

// NewSearcher creates a searcher.
func NewSearcher(scorer *similarity.Scorer, thresholds Thresholds, logger *zap.Logger) (*Searcher, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		scorer:      scorer,
		thresholds:  thresholds,
		logger:      logger,
		maxParallel: defaultMaxParallel,
	}, nil
}

// Rank scores every candidate against the target and returns matches above
// the floor, best first. Candidates without tags are skipped. Scoring runs
// concurrently but results land in pool order before sorting, so equal scores
// keep the candidate pool's relative order and repeated runs are identical.
func (s *Searcher) Rank(ctx context.Context, target types.TagSet, candidates []types.Module, opts SearchOptions) ([]Match, error) {
	minScore := opts.MinScore
	if minScore == 0 {
		minScore = DefaultMinScore
	} else if minScore < 0 {
		minScore = 0
	}
	topK := opts.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	if target.IsEmpty() {
		return nil, fmt.Errorf("target has no scoreable tags")
	}

	scored := make([]*Match, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for i, candidate := range candidates {
		if candidate.Tags.IsEmpty() {
			continue
		}
		if opts.ExcludeProjectID != "" && candidate.ProjectID == opts.ExcludeProjectID {
			continue
		}

		i, candidate := i, candidate
		g.Go(func() error {
			result := s.scorer.Score(gctx, candidate.Tags, target)
			scored[i] = &Match{
				Module:     candidate,
				Similarity: result,
				Decision:   Decide(result, s.thresholds),
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ranking canceled: %w", err)
	}

	matches := make([]Match, 0, len(candidates))
	for _, m := range scored {
		if m == nil {
			continue
		}
		if m.Similarity.WeightedScore >= minScore {
			matches = append(matches, *m)
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Similarity.WeightedScore > matches[b].Similarity.WeightedScore
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	s.logger.Debug("ranked reuse candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.Float64("min_score", minScore))

	return matches, nil
}
