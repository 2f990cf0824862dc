package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/reuse"
	"github.com/modforge/modforge/internal/types"
)

var reuseRequirementsFile string

var reuseCmd = &cobra.Command{
	Use:   "reuse <target-module-id> <source-module-id> [source-module-id...]",
	Short: "Adapt one or more existing modules into a new implementation",
	Long: `Reuse scores the target module against each source, picks a strategy
from the layer match quality, and generates an adapted module. With a
single source the new module records its lineage directly; with several
sources the patterns are combined into a fresh module and each source is
credited in the reuse history.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		target, err := a.store.GetModule(ctx, args[0])
		if err != nil {
			fatal("%v", err)
		}
		if target == nil {
			fatal("module not found: %s", args[0])
		}
		if target.Tags.IsEmpty() {
			fatal("module %s has no tags; run 'modforge tag %s' first", target.Name, target.ID)
		}

		requirements := target.Requirements
		if reuseRequirementsFile != "" {
			data, err := os.ReadFile(reuseRequirementsFile)
			if err != nil {
				fatal("read requirements: %v", err)
			}
			requirements = string(data)
		}
		if strings.TrimSpace(requirements) == "" {
			requirements = target.Description
		}
		if strings.TrimSpace(requirements) == "" {
			fatal("module %s has no requirements or description; pass --requirements", target.Name)
		}

		_, thresholds, _, err := a.scoringSettings(ctx)
		if err != nil {
			fatal("%v", err)
		}
		_, scorer, _, err := a.newSearcher(ctx)
		if err != nil {
			fatal("%v", err)
		}

		matches := make([]reuse.Match, 0, len(args)-1)
		for _, sourceID := range args[1:] {
			source, err := a.store.GetModule(ctx, sourceID)
			if err != nil {
				fatal("%v", err)
			}
			if source == nil {
				fatal("module not found: %s", sourceID)
			}
			if source.Tags.IsEmpty() {
				fatal("source module %s has no tags", source.Name)
			}
			result := scorer.Score(ctx, target.Tags, source.Tags)
			matches = append(matches, reuse.Match{
				Module:     *source,
				Similarity: result,
				Decision:   reuse.Decide(result, thresholds),
			})
		}

		gen, err := a.newGenerator()
		if err != nil {
			fatal("%v", err)
		}

		var created *types.Module
		if len(matches) == 1 {
			m := matches[0]
			fmt.Printf("Source %s scored %.1f%%, strategy: %s\n",
				m.Module.Name, m.Similarity.WeightedScore*100, strategyLabel(m.Decision.Strategy))
			created, err = gen.ReuseModule(ctx, target.ProjectID, requirements, target.Tags, m)
		} else {
			for _, m := range matches {
				fmt.Printf("Source %s scored %.1f%%\n", m.Module.Name, m.Similarity.WeightedScore*100)
			}
			fmt.Printf("Combining patterns from %d sources\n", len(matches))
			created, err = gen.SynthesizeModule(ctx, target.ProjectID, requirements, matches)
		}
		if err != nil {
			fatal("%v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("\n%s Created module %s (%s)\n", green("✓"), created.Name, created.ID)
		if warning, ok := created.GenerationMetadata["warning"]; ok {
			fmt.Printf("%s %s\n", color.YellowString("!"), warning)
		}
	},
}

func init() {
	reuseCmd.Flags().StringVar(&reuseRequirementsFile, "requirements", "", "file with requirements for the adapted module")
	rootCmd.AddCommand(reuseCmd)
}
