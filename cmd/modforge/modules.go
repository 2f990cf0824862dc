package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/types"
)

var modulesProjectID string

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List a project's modules",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		project, err := a.store.GetProject(ctx, modulesProjectID)
		if err != nil {
			fatal("%v", err)
		}
		if project == nil {
			fatal("project not found: %s", modulesProjectID)
		}

		modules, err := a.store.ListModules(ctx, project.ID)
		if err != nil {
			fatal("%v", err)
		}
		if len(modules) == 0 {
			fmt.Printf("Project %s has no modules yet.\n", project.Name)
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("Modules in %s:\n\n", project.Name)
		for _, m := range modules {
			fmt.Printf("%s %s  %3d%%  %d/%d tasks%s\n",
				cyan(m.ID[:8]), m.Name, m.Progress, m.CompletedTasks, m.TaskCount, moduleOrigin(m))
			if verbose {
				if !m.Tags.IsEmpty() {
					fmt.Printf("    %s\n", gray(tagSummary(m.Tags)))
				}
				if m.Description != "" {
					fmt.Printf("    %s\n", m.Description)
				}
			}
		}
	},
}

func moduleOrigin(m *types.Module) string {
	switch m.SourceType {
	case types.SourceReused:
		if m.ReusedFromModuleID != "" {
			return color.YellowString("  reused from %s", m.ReusedFromModuleID[:8])
		}
		return color.YellowString("  reused")
	case types.SourceAIGenerated:
		if m.ReuseStrategy == types.StrategyPatternCombination {
			return color.YellowString("  synthesized")
		}
		return ""
	default:
		return ""
	}
}

func tagSummary(tags types.TagSet) string {
	parts := make([]string, 0, 4)
	for _, layer := range []types.TagLayer{
		types.LayerIntent, types.LayerConstraint, types.LayerContext, types.LayerQuality,
	} {
		if tag, ok := tags[layer]; ok && tag.Value != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", layer, tag.Value))
		}
	}
	return strings.Join(parts, " ")
}

func init() {
	modulesCmd.Flags().StringVar(&modulesProjectID, "project", "", "project id (required)")
	_ = modulesCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(modulesCmd)
}
