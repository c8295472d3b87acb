package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Fetch the site and register its descriptors in the configured catalog",
	Long: `Runs one fetch-translate cycle and registers every descriptor in the catalog named
by catalog.kind (memory, redis or loam). Nothing is registered if fetching or
translation fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.Refresh(cmd.Context())
		if err != nil {
			return fmt.Errorf("load failed after %d descriptors: %w", n, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %d descriptors from site %q\n", n, app.Workspace.SiteName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
