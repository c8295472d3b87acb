package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/contentgraph/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "contentgraph",
	Short: "contentgraph maps a Tableau site into dependency-linked descriptors",
	Long: `contentgraph signs in to a Tableau site, reads its workbooks, views and published
data sources, and turns them into flat descriptors keyed by path, each listing the
descriptors it depends on.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "contentgraph.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// newApp loads the configuration named by the persistent flags and builds the application.
func newApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := cli.LoadConfig(path, level)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, opts...)
}
