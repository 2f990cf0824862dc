package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [module-id]",
	Short: "Show the reuse history log",
	Long: `History lists reuse decisions, newest first. With a module id it shows
only the records where that module was the source or the target.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		var records []*types.ReuseRecord
		if len(args) == 1 {
			records, err = a.store.GetReuseHistory(ctx, args[0])
		} else {
			records, err = a.store.ListReuseHistory(ctx, historyLimit)
		}
		if err != nil {
			fatal("%v", err)
		}
		if len(records) == 0 {
			fmt.Println("No reuse history.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, r := range records {
			fmt.Printf("%s  %s -> %s  %.1f%%  %s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				cyan(r.SourceModuleID[:8]), cyan(r.TargetModuleID[:8]),
				r.WeightedScore*100, strategyLabel(r.Strategy))
			if verbose && r.Rationale != "" {
				fmt.Printf("    %s\n", gray(r.Rationale))
			}
		}
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum records to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
