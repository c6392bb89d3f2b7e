package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aretw0/passgraph/internal/cli"
	"github.com/aretw0/passgraph/internal/config"
)

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Inspect transformation catalogues",
}

var catalogueListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the resolved catalogue, one transformation per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if preset, _ := cmd.Flags().GetString("preset"); preset != "" {
			cfg.Catalogue, cfg.CatalogueFile, cfg.CataloguePreset = nil, "", preset
		}
		names, err := cfg.ResolveCatalogue()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var catalogueValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Apply each transformation once to a sample and report the ones the tool rejects",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if preset, _ := cmd.Flags().GetString("preset"); preset != "" {
			cfg.Catalogue, cfg.CatalogueFile, cfg.CataloguePreset = nil, "", preset
		}
		sample, _ := cmd.Flags().GetString("sample")
		cfg.Store = config.BackendConfig{Backend: config.BackendMemory}

		stack, err := cli.NewStack(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer stack.Close()

		check, err := cli.CheckCatalogue(cmd.Context(), stack, sample, filepath.Join(cfg.Output.Dir, "validate"))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, n := range check.Valid {
			fmt.Fprintln(out, n)
		}
		invalid := make([]string, 0, len(check.Invalid))
		for n := range check.Invalid {
			invalid = append(invalid, n)
		}
		sort.Strings(invalid)
		for _, n := range invalid {
			logger.Warn("invalid transformation", "transformation", n, "err", check.Invalid[n])
		}
		if len(invalid) > 0 {
			return fmt.Errorf("%d of %d transformations were rejected", len(invalid), len(stack.Catalogue))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogueCmd)
	catalogueCmd.AddCommand(catalogueListCmd, catalogueValidateCmd)
	catalogueCmd.PersistentFlags().String("preset", "", "Built-in catalogue (o1, loop, small)")
	catalogueValidateCmd.Flags().String("sample", "", "Program the transformations are applied to")
	_ = catalogueValidateCmd.MarkFlagRequired("sample")
}
