package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/types"
)

var (
	scoringWeightIntent    float64
	scoringWeightTech      float64
	scoringWeightDomain    float64
	scoringThresholdDirect float64
	scoringThresholdMedium float64
	scoringMinScore        float64
	scoringSetDefault      bool
)

var scoringCmd = &cobra.Command{
	Use:   "scoring",
	Short: "Manage stored scoring configurations",
	Long: `Scoring configurations hold the layer weights and strategy thresholds
used by search and reuse. The stored default, when one exists, overrides
the values from the config file.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var scoringListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scoring configurations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		configs, err := a.store.ListScoringConfigs(ctx)
		if err != nil {
			fatal("%v", err)
		}
		if len(configs) == 0 {
			fmt.Println("No scoring configurations stored. Run 'modforge init' to seed one.")
			return
		}
		for _, c := range configs {
			printScoringConfig(c)
		}
	},
}

var scoringShowCmd = &cobra.Command{
	Use:   "show [config-id]",
	Short: "Show a scoring configuration (the default when no id is given)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		var config *types.ScoringConfig
		if len(args) == 1 {
			config, err = a.store.GetScoringConfig(ctx, args[0])
		} else {
			config, err = a.store.GetDefaultScoringConfig(ctx)
		}
		if err != nil {
			fatal("%v", err)
		}
		if config == nil {
			fatal("no such scoring configuration")
		}
		printScoringConfig(config)
	},
}

var scoringCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a scoring configuration",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		config := &types.ScoringConfig{
			Name:            args[0],
			WeightIntent:    scoringWeightIntent,
			WeightTech:      scoringWeightTech,
			WeightDomain:    scoringWeightDomain,
			ThresholdDirect: scoringThresholdDirect,
			ThresholdMedium: scoringThresholdMedium,
			MinScore:        scoringMinScore,
			IsDefault:       scoringSetDefault,
			IsActive:        true,
		}
		if err := a.store.CreateScoringConfig(ctx, config); err != nil {
			fatal("%v", err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Created scoring configuration %s (%s)\n", green("✓"), config.Name, config.ID)
	},
}

var scoringDefaultCmd = &cobra.Command{
	Use:   "set-default <config-id>",
	Short: "Make a scoring configuration the default",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		if err := a.store.SetDefaultScoringConfig(ctx, args[0]); err != nil {
			fatal("%v", err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Default scoring configuration is now %s\n", green("✓"), args[0])
	},
}

func printScoringConfig(c *types.ScoringConfig) {
	cyan := color.New(color.FgCyan).SprintFunc()
	marker := " "
	if c.IsDefault {
		marker = color.GreenString("*")
	}
	state := ""
	if !c.IsActive {
		state = color.New(color.FgHiBlack).Sprint(" (inactive)")
	}
	fmt.Printf("%s %s %s v%d%s\n", marker, cyan(c.ID[:8]), c.Name, c.Version, state)
	fmt.Printf("    weights  intent %.2f / tech %.2f / domain %.2f\n",
		c.WeightIntent, c.WeightTech, c.WeightDomain)
	fmt.Printf("    bands    direct >= %.2f, partial >= %.2f, floor %.2f\n",
		c.ThresholdDirect, c.ThresholdMedium, c.MinScore)
}

func init() {
	scoringCreateCmd.Flags().Float64Var(&scoringWeightIntent, "weight-intent", 0.60, "weight for the intent layer")
	scoringCreateCmd.Flags().Float64Var(&scoringWeightTech, "weight-tech", 0.25, "weight for the tech constraint layer")
	scoringCreateCmd.Flags().Float64Var(&scoringWeightDomain, "weight-domain", 0.15, "weight for the domain context layer")
	scoringCreateCmd.Flags().Float64Var(&scoringThresholdDirect, "threshold-direct", 0.75, "weighted score for direct reuse")
	scoringCreateCmd.Flags().Float64Var(&scoringThresholdMedium, "threshold-medium", 0.50, "weighted score for partial reuse")
	scoringCreateCmd.Flags().Float64Var(&scoringMinScore, "min-score", 0.30, "search score floor")
	scoringCreateCmd.Flags().BoolVar(&scoringSetDefault, "default", false, "make this the default configuration")

	scoringCmd.AddCommand(scoringListCmd)
	scoringCmd.AddCommand(scoringShowCmd)
	scoringCmd.AddCommand(scoringCreateCmd)
	scoringCmd.AddCommand(scoringDefaultCmd)
	rootCmd.AddCommand(scoringCmd)
}
