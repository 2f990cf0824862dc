package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/reuse"
	"github.com/modforge/modforge/internal/types"
)

var (
	searchMinScore   float64
	searchTopK       int
	searchExcludeOwn bool
)

var searchCmd = &cobra.Command{
	Use:   "search <module-id>",
	Short: "Find existing modules worth reusing for a target module",
	Long: `Search ranks every tagged module in the database against the target
module's tags and reports reuse candidates with a recommended strategy.
The target module must be tagged first (see 'modforge tag').`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		module, err := a.store.GetModule(ctx, args[0])
		if err != nil {
			fatal("%v", err)
		}
		if module == nil {
			fatal("module not found: %s", args[0])
		}
		if module.Tags.IsEmpty() {
			fatal("module %s has no tags; run 'modforge tag %s' first", module.Name, module.ID)
		}

		searcher, _, opts, err := a.newSearcher(ctx)
		if err != nil {
			fatal("%v", err)
		}
		if cmd.Flags().Changed("min-score") {
			opts.MinScore = searchMinScore
			if searchMinScore == 0 {
				// An explicit zero means no floor, not the default.
				opts.MinScore = -1
			}
		}
		if cmd.Flags().Changed("top") {
			opts.TopK = searchTopK
		}
		if searchExcludeOwn {
			opts.ExcludeProjectID = module.ProjectID
		}

		pool, err := a.store.ListTaggedModules(ctx)
		if err != nil {
			fatal("%v", err)
		}
		candidates := make([]types.Module, 0, len(pool))
		for _, candidate := range pool {
			if candidate.ID == module.ID {
				continue
			}
			candidates = append(candidates, *candidate)
		}
		if len(candidates) == 0 {
			fmt.Println("No tagged modules to search against.")
			return
		}

		matches, err := searcher.Rank(ctx, module.Tags, candidates, opts)
		if err != nil {
			fatal("%v", err)
		}
		printMatches(module, matches)
	},
}

func printMatches(target *types.Module, matches []reuse.Match) {
	if len(matches) == 0 {
		fmt.Printf("No reuse candidates above the score floor for %s.\n", target.Name)
		return
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("Reuse candidates for %s:\n\n", target.Name)
	for i, m := range matches {
		fmt.Printf("%2d. %s %s  %.1f%%  %s\n",
			i+1, cyan(m.Module.ID[:8]), m.Module.Name,
			m.Similarity.WeightedScore*100, strategyLabel(m.Decision.Strategy))
		if verbose {
			for _, layer := range []types.TagLayer{types.LayerIntent, types.LayerConstraint, types.LayerContext} {
				if v, ok := m.Decision.LayerBreakdown[layer]; ok {
					fmt.Printf("      %s %-13s %.2f  %s ~ %s\n",
						gray("·"), layer, v.Score, v.TagA, v.TagB)
				}
			}
			fmt.Printf("      %s\n", gray(m.Decision.Rationale))
		}
	}
}

func strategyLabel(s types.Strategy) string {
	switch s {
	case types.StrategyDirect:
		return color.GreenString("direct reuse")
	case types.StrategyPartialReuse:
		return color.YellowString("partial reuse")
	case types.StrategyPatternCombination:
		return color.CyanString("pattern combination")
	default:
		return color.RedString("new generation")
	}
}

func init() {
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", reuse.DefaultMinScore, "minimum weighted score to report")
	searchCmd.Flags().IntVar(&searchTopK, "top", reuse.DefaultTopK, "maximum number of candidates to report")
	searchCmd.Flags().BoolVar(&searchExcludeOwn, "exclude-own", false, "skip modules from the target's own project")
	rootCmd.AddCommand(searchCmd)
}
