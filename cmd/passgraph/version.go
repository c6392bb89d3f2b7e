package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/passgraph"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of passgraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "passgraph version %s\n", strings.TrimSpace(passgraph.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
