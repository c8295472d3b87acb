package main

import (
	"fmt"

	"github.com/aretw0/contentgraph/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the dependency graph visualization",
	Long:  `Fetches the site and outputs a Mermaid diagram (graph LR) linking data sources to the views that read them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		focus, _ := cmd.Flags().GetString("focus")
		cached, _ := cmd.Flags().GetBool("cached")

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		descs, err := app.Descriptors(cmd.Context(), !cached)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if focus != "" {
			overlay = &graph.Overlay{Focus: focus}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(descs, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("focus", "", "Key of a descriptor to highlight with its dependencies")
	graphCmd.Flags().Bool("cached", false, "Read the configured catalog instead of fetching the site")
}
