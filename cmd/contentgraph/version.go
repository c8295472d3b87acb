package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/contentgraph"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of contentgraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "contentgraph version %s\n", strings.TrimSpace(contentgraph.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
