package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/types"
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Initialize the modforge database and create a project",
	Long: `Initialize the modforge database at the configured path, seed the default
scoring configuration, and optionally create a first project.

Example:
  modforge init                 # create the database only
  modforge init my-platform     # create the database and a project`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		// Seed the default scoring config on first run.
		existing, err := a.store.GetDefaultScoringConfig(ctx)
		if err != nil {
			fatal("%v", err)
		}
		if existing == nil {
			seed := &types.ScoringConfig{
				Name:            "standard",
				WeightIntent:    a.cfg.Scoring.WeightIntent,
				WeightTech:      a.cfg.Scoring.WeightTech,
				WeightDomain:    a.cfg.Scoring.WeightDomain,
				ThresholdDirect: a.cfg.Scoring.ThresholdDirect,
				ThresholdMedium: a.cfg.Scoring.ThresholdMedium,
				MinScore:        a.cfg.Scoring.MinScore,
				IsDefault:       true,
				IsActive:        true,
			}
			if err := a.store.CreateScoringConfig(ctx, seed); err != nil {
				fatal("failed to seed scoring config: %v", err)
			}
		}

		fmt.Printf("\n%s Initialized modforge\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(a.cfg.Database.Path))

		if len(args) > 0 {
			project := &types.Project{Name: args[0]}
			if err := a.store.CreateProject(ctx, project); err != nil {
				fatal("failed to create project: %v", err)
			}
			fmt.Printf("  Project:  %s (%s)\n", cyan(project.Name), project.ID)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
