package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/passgraph/internal/cli"
	"github.com/aretw0/passgraph/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "passgraph",
	Short: "passgraph maps the states reachable by applying program transformations",
	Long: `passgraph explores, breadth first, every program state reachable from a root by
applying a catalogue of transformations. States an equivalence oracle cannot tell apart
are merged, and the resulting graph is exported with its strongly and weakly connected
components.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "passgraph.yaml", "Configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the --config file and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.CreateLogger(cfg, debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
