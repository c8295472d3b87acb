package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch the site and print its descriptors",
	Long: `Runs one fetch-translate cycle and prints the descriptors to stdout without
registering them. Views come first, in fetch order, followed by data sources.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format %q (supported: json, yaml)", format)
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		descs, err := app.Workspace.BuildDescriptors(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == "yaml" {
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(descs); err != nil {
				return err
			}
			return enc.Close()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(descs)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
}
