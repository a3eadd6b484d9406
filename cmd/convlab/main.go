package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"convlab/domain/record"
	"convlab/internal"
	"convlab/internal/config"
	"convlab/internal/dataset"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cli carries configuration shared by every subcommand.
type cli struct {
	cfg            *config.Config
	conversions    string
	nonConversions string
	logLevel       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "convlab",
		Short: "Explore conversion data and evaluate conversion classifiers",
		Long: `convlab merges a conversions file and a non-conversions file (CSV or XLSX,
columns Site, Format, Browser, Vendor, Metro, OS, Hours in that order) into one
labeled table, then describes it, charts it, or trains and evaluates
gradient-boosted-tree classifiers on it (random forests as an alternative).

Settings are read from the environment and an optional .env file:
CONVERSIONS_FILE, NON_CONVERSIONS_FILE, TEST_FRACTION, SEED, CV_FOLDS,
GRID_WORKERS, MODEL, NUM_LEAVES, LEARNING_RATE, NUM_ESTIMATORS, NUM_TREES,
MAX_DEPTH, LEAF_SIZE, MODEL_FILE, OUTPUT_DIR, CHART_WIDTH, CHART_HEIGHT,
LOG_LEVEL. Flags override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.conversions, "conversions", "", "Conversions file (overrides CONVERSIONS_FILE)")
	rootCmd.PersistentFlags().StringVar(&c.nonConversions, "non-conversions", "", "Non-conversions file (overrides NON_CONVERSIONS_FILE)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		newStatsCmd(c),
		newDescribeCmd(c),
		newCountsCmd(c),
		newPlotCmd(c),
		newTrainCmd(c),
		newGridSearchCmd(c),
		newGenerateCmd(c),
	)
	return rootCmd
}

func (c *cli) init() error {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("No .env file found, using system environment variables")
	}
	if c.logLevel != "" {
		internal.DefaultLogger.SetLevel(internal.ParseLogLevel(strings.ToUpper(c.logLevel)))
	} else if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		internal.DefaultLogger.SetLevel(internal.ParseLogLevel(strings.ToUpper(lvl)))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.conversions != "" {
		cfg.Data.ConversionsFile = c.conversions
	}
	if c.nonConversions != "" {
		cfg.Data.NonConversionsFile = c.nonConversions
	}
	c.cfg = cfg
	return nil
}

// loadTable assembles the record table from the configured files.
func (c *cli) loadTable(ctx context.Context) (*record.Table, error) {
	if err := c.cfg.RequireDataFiles(); err != nil {
		return nil, err
	}
	return dataset.Load(ctx, c.cfg.Data.ConversionsFile, c.cfg.Data.NonConversionsFile)
}

func parseField(name string) (record.Field, error) {
	if name == "" {
		return "", nil
	}
	return record.ParseField(name)
}
