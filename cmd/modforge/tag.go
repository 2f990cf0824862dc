package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/types"
)

var tagCmd = &cobra.Command{
	Use:   "tag <module-id>",
	Short: "Classify a module into the 3-layer tag taxonomy",
	Long: `Assign one tag per layer (intent, tech constraint, business domain) to a
module, constrained to the taxonomy. Tags power reuse search.`,
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

		gen, err := a.newGenerator()
		if err != nil {
			fatal("%v", err)
		}

		tags, err := gen.GenerateTags(ctx, module)
		if err != nil {
			fatal("%v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Tagged %s\n\n", green("✓"), module.Name)
		for _, layer := range []types.TagLayer{types.LayerIntent, types.LayerConstraint, types.LayerContext} {
			tag, ok := tags[layer]
			if !ok {
				fmt.Printf("  %-13s %s\n", layer, gray("(none)"))
				continue
			}
			fmt.Printf("  %-13s %s %s\n", layer, cyan(tag.Value), gray(fmt.Sprintf("(%.0f%%)", tag.Confidence*100)))
			if verbose && tag.Reasoning != "" {
				fmt.Printf("      %s\n", gray(tag.Reasoning))
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
}
