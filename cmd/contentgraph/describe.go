package main

import (
	"fmt"
	"os"

	"github.com/aretw0/contentgraph/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Summarize the site's views and data sources",
	Long: `Fetches the site and prints a Markdown summary of every view and data source.
On a terminal the summary is rendered with glamour; use --plain to print raw Markdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
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
		md := tui.DescribeMarkdown(app.Workspace.SiteName(), descs)

		if plain || !tui.IsTerminal(os.Stdout) {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		render, err := tui.NewRenderer()
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("plain", false, "Print raw Markdown")
	describeCmd.Flags().Bool("cached", false, "Read the configured catalog instead of fetching the site")
}
