package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/types"
)

var tasksList bool

var tasksCmd = &cobra.Command{
	Use:   "tasks <module-id>",
	Short: "Generate tasks for a module, or list existing ones",
	Args:  cobra.ExactArgs(1),
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

		if tasksList {
			tasks, err := a.store.ListTasks(ctx, module.ID)
			if err != nil {
				fatal("%v", err)
			}
			printTasks(module.Name, tasks)
			return
		}

		gen, err := a.newGenerator()
		if err != nil {
			fatal("%v", err)
		}

		fmt.Printf("Generating tasks for %s...\n", module.Name)
		tasks, err := gen.GenerateTasks(ctx, module)
		if err != nil {
			fatal("%v", err)
		}
		printTasks(module.Name, tasks)
	},
}

func printTasks(moduleName string, tasks []*types.Task) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Printf("\n%s %d tasks for %s\n\n", green("✓"), len(tasks), moduleName)
	for _, task := range tasks {
		marker := " "
		if task.Status == types.TaskDone {
			marker = green("x")
		}
		fmt.Printf("  [%s] %s %s\n", marker, cyan(task.ID[:8]), task.Name)
		fmt.Printf("      priority %s, difficulty %d/5, ~%dh\n",
			yellow(string(task.Priority)), task.Difficulty, task.TimeEstimate)
		if verbose && task.Description != "" {
			fmt.Printf("      %s\n", task.Description)
		}
	}
}

func init() {
	tasksCmd.Flags().BoolVar(&tasksList, "list", false, "list stored tasks instead of generating")
	rootCmd.AddCommand(tasksCmd)
}
