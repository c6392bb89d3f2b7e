package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/aretw0/passgraph/internal/cli"
	"github.com/aretw0/passgraph/internal/config"
	"github.com/aretw0/passgraph/internal/presentation/tui"
)

var exploreCmd = &cobra.Command{
	Use:   "explore [paths...]",
	Short: "Explore the transformation graph of every root under the given paths",
	Long: `Discovers roots under each path (files are taken as given, directories are searched
with the discovery pattern), explores each one independently and writes graphN.gml,
graphN.json, graphN.html and graphN.mmd into the output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyExploreFlags(cmd, cfg); err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		stack, err := cli.NewStack(cfg, logger, reg)
		if err != nil {
			return err
		}
		defer stack.Close()

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		if metricsAddr != "" {
			srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server failed", "err", err)
				}
			}()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()
		}

		frontend, _ := cmd.Flags().GetBool("frontend")
		jobs, _ := cmd.Flags().GetInt("jobs")
		quiet, _ := cmd.Flags().GetBool("quiet")

		opts := cli.ExploreOptions{
			Paths:    args,
			Frontend: frontend,
			Jobs:     jobs,
			Quiet:    quiet,
			Out:      cmd.OutOrStdout(),
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if !quiet {
				tui.PrintBanner(cmd.OutOrStdout())
			}
			opts.Render = tui.NewRenderer()
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		batch, err := cli.Explore(ctx, stack, opts)
		if err != nil {
			return err
		}
		if sig := ctx.Signal(); sig != nil {
			logger.Warn("interrupted, partial graphs were kept", "signal", sig)
		}
		logger.Info("batch finished", "roots", len(batch.Roots), "explored", batch.Explored())
		return nil
	},
}

// applyExploreFlags overlays explicitly set flags on the configuration file.
func applyExploreFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir, _ = flags.GetString("out")
	}
	if flags.Changed("max-nodes") {
		cfg.Bounds.MaxNodes, _ = flags.GetInt("max-nodes")
	}
	if flags.Changed("max-duration") {
		cfg.Bounds.MaxDuration, _ = flags.GetDuration("max-duration")
	}
	if flags.Changed("parallelism") {
		cfg.Parallelism, _ = flags.GetInt("parallelism")
	}
	if flags.Changed("format") {
		cfg.Output.Formats, _ = flags.GetStringSlice("format")
	}
	if flags.Changed("catalogue") {
		cfg.Catalogue = nil
		cfg.CataloguePreset = ""
		cfg.CatalogueFile, _ = flags.GetString("catalogue")
	}
	if flags.Changed("preset") {
		if flags.Changed("catalogue") {
			return fmt.Errorf("--catalogue and --preset are mutually exclusive")
		}
		cfg.Catalogue = nil
		cfg.CatalogueFile = ""
		cfg.CataloguePreset, _ = flags.GetString("preset")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	addExploreFlags(exploreCmd.Flags())
}

func addExploreFlags(f *pflag.FlagSet) {
	f.Bool("frontend", false, "Lower source files with the frontend tool before exploring")
	f.StringP("out", "o", "out", "Output directory")
	f.IntP("jobs", "j", 1, "Roots explored concurrently")
	f.Int("max-nodes", 10000, "Maximum number of states per root (0 disables)")
	f.Duration("max-duration", 10000*time.Second, "Maximum exploration time per root (0 disables)")
	f.Int("parallelism", 1, "Concurrent equivalence probes per candidate")
	f.StringSlice("format", nil, "Output formats (gml, json, html, mermaid)")
	f.String("catalogue", "", "File listing one transformation per line")
	f.String("preset", "", "Built-in catalogue (o1, loop, small)")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address while exploring")
	f.BoolP("quiet", "q", false, "Do not print run summaries")
}
