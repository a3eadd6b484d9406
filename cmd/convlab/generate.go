package main

import (
	"fmt"
	"strings"

	"convlab/internal/testkit"

	"github.com/spf13/cobra"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var outDir, format string
	var seed int64
	cfg := testkit.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic conversions / non-conversions pair",
		Long: `Generate a deterministic synthetic dataset for trying the other commands.

Example: convlab generate --out-dir data --format xlsx --conversions-rows 600 --non-conversions-rows 1400
         convlab stats --conversions data/conversions.xlsx --non-conversions data/non_conversions.xlsx --by OS`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			} else {
				cfg.Seed = c.cfg.Training.Seed
			}
			if outDir == "" {
				outDir = c.cfg.Output.Dir
			}

			ds, err := testkit.Generate(cfg)
			if err != nil {
				return fmt.Errorf("error generating dataset: %w", err)
			}
			convPath, nonConvPath, err := testkit.Write(outDir, strings.ToLower(format), ds)
			if err != nil {
				return err
			}
			fmt.Printf("Conversions: %s (%d rows)\n", convPath, ds.Conversions.Len())
			fmt.Printf("Non-conversions: %s (%d rows)\n", nonConvPath, ds.NonConversions.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory; default OUTPUT_DIR")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (default SEED)")
	cmd.Flags().IntVar(&cfg.Conversions, "conversions-rows", cfg.Conversions, "Conversion rows")
	cmd.Flags().IntVar(&cfg.NonConversions, "non-conversions-rows", cfg.NonConversions, "Non-conversion rows")
	cmd.Flags().IntVar(&cfg.Sites, "sites", cfg.Sites, "Distinct sites")
	return cmd
}
