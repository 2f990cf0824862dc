package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		projects, err := a.store.ListProjects(ctx)
		if err != nil {
			fatal("%v", err)
		}
		if len(projects) == 0 {
			fmt.Println("No projects. Create one with 'modforge init <name>'.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		for _, p := range projects {
			fmt.Printf("%s %s\n", cyan(p.ID[:8]), p.Name)
			if verbose && p.Description != "" {
				fmt.Printf("    %s\n", p.Description)
			}
		}
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and everything in it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		project, err := a.store.GetProject(ctx, args[0])
		if err != nil {
			fatal("%v", err)
		}
		if project == nil {
			fatal("project not found: %s", args[0])
		}
		if err := a.store.DeleteProject(ctx, project.ID); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Deleted project %s\n", project.Name)
	},
}

func init() {
	projectsCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}
