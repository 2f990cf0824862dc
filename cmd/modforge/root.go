package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/modforge/modforge/internal/ai"
	"github.com/modforge/modforge/internal/config"
	"github.com/modforge/modforge/internal/generator"
	"github.com/modforge/modforge/internal/reuse"
	"github.com/modforge/modforge/internal/similarity"
	"github.com/modforge/modforge/internal/storage"
	"github.com/modforge/modforge/internal/storage/sqlite"
	"github.com/modforge/modforge/internal/taxonomy"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "modforge",
	Short: "AI-assisted project module planning with reuse recommendations",
	Long: `modforge breaks project documentation into modules and tasks with Claude,
classifies every module into a 3-layer tag taxonomy, and recommends reusing
previously generated modules when a new one would duplicate them.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./.modforge.yaml or $HOME/.modforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// app bundles the long-lived dependencies every command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  storage.Storage
}

// newApp loads config, builds the logger and opens the database.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(ctx, cfg.Database.Path)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to open database (run 'modforge init' first?): %w", err)
	}

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// newCompleter builds the production Anthropic client from config.
func (a *app) newCompleter() (ai.Completer, error) {
	retry := ai.DefaultRetryConfig()
	if a.cfg.AI.MaxRetries > 0 {
		retry.MaxRetries = a.cfg.AI.MaxRetries
	}
	return ai.NewClient(&ai.Config{
		Model:             a.cfg.AI.Model,
		Retry:             retry,
		Logger:            a.logger,
		RequestsPerSecond: a.cfg.AI.RequestsPerSecond,
	})
}

// loadTaxonomy returns the configured taxonomy override or the default.
func (a *app) loadTaxonomy() (*taxonomy.Taxonomy, error) {
	if a.cfg.Taxonomy.Path == "" {
		return taxonomy.Default(), nil
	}
	return taxonomy.Load(a.cfg.Taxonomy.Path)
}

// newGenerator wires the generation orchestrator.
func (a *app) newGenerator() (*generator.Generator, error) {
	completer, err := a.newCompleter()
	if err != nil {
		return nil, err
	}
	tax, err := a.loadTaxonomy()
	if err != nil {
		return nil, err
	}
	return generator.New(a.store, completer, tax, a.logger)
}

// scoringSettings resolves weights, thresholds and search options: the stored
// default scoring config wins, the file config fills the rest.
func (a *app) scoringSettings(ctx context.Context) (similarity.Weights, reuse.Thresholds, reuse.SearchOptions, error) {
	weights := similarity.Weights{
		Intent: a.cfg.Scoring.WeightIntent,
		Tech:   a.cfg.Scoring.WeightTech,
		Domain: a.cfg.Scoring.WeightDomain,
	}
	thresholds := reuse.Thresholds{
		Direct: a.cfg.Scoring.ThresholdDirect,
		Medium: a.cfg.Scoring.ThresholdMedium,
	}
	opts := reuse.SearchOptions{
		MinScore: a.cfg.Scoring.MinScore,
		TopK:     a.cfg.Scoring.TopK,
	}

	stored, err := a.store.GetDefaultScoringConfig(ctx)
	if err != nil {
		return weights, thresholds, opts, fmt.Errorf("failed to load scoring config: %w", err)
	}
	if stored != nil {
		weights = similarity.FromConfig(stored)
		thresholds = reuse.Thresholds{Direct: stored.ThresholdDirect, Medium: stored.ThresholdMedium}
		opts.MinScore = stored.MinScore
	}
	return weights, thresholds, opts, nil
}

// newSearcher wires the similarity pipeline end to end.
func (a *app) newSearcher(ctx context.Context) (*reuse.Searcher, *similarity.Scorer, reuse.SearchOptions, error) {
	completer, err := a.newCompleter()
	if err != nil {
		return nil, nil, reuse.SearchOptions{}, err
	}

	weights, thresholds, opts, err := a.scoringSettings(ctx)
	if err != nil {
		return nil, nil, reuse.SearchOptions{}, err
	}

	oracle := similarity.NewOracle(completer, a.logger)
	scorer, err := similarity.NewScorer(oracle, weights)
	if err != nil {
		return nil, nil, reuse.SearchOptions{}, err
	}
	searcher, err := reuse.NewSearcher(scorer, thresholds, a.logger)
	if err != nil {
		return nil, nil, reuse.SearchOptions{}, err
	}
	return searcher, scorer, opts, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
