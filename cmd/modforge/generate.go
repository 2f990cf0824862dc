package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modforge/modforge/internal/types"
)

var generateProjectID string

var generateCmd = &cobra.Command{
	Use:   "generate <documentation-file>",
	Short: "Generate modules from a project documentation file",
	Long: `Read a documentation file, store it as a project document, and break it
into modules with Claude.

Example:
  modforge generate --project <project-id> docs/requirements.md`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		project, err := a.store.GetProject(ctx, generateProjectID)
		if err != nil {
			fatal("%v", err)
		}
		if project == nil {
			fatal("project not found: %s", generateProjectID)
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			fatal("failed to read documentation: %v", err)
		}

		doc := &types.Document{
			ProjectID: project.ID,
			Name:      filepath.Base(args[0]),
			Content:   string(content),
		}
		if err := a.store.CreateDocument(ctx, doc); err != nil {
			fatal("failed to store document: %v", err)
		}

		gen, err := a.newGenerator()
		if err != nil {
			fatal("%v", err)
		}

		fmt.Printf("Generating modules for %s...\n", project.Name)
		modules, err := gen.GenerateModules(ctx, project.ID, doc.Content)
		if err != nil {
			fatal("%v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("\n%s Generated %d modules\n\n", green("✓"), len(modules))
		for _, m := range modules {
			fmt.Printf("  %s  %s\n", cyan(m.ID), m.Name)
			if warning := m.GenerationMetadata["warning"]; warning != "" {
				fmt.Printf("      %s %s\n", yellow("!"), warning)
			}
		}
		fmt.Println()
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateProjectID, "project", "", "project ID (required)")
	_ = generateCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(generateCmd)
}
