package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"convlab/adapters/chart"
	"convlab/adapters/tabular"
	"convlab/domain/record"
	"convlab/domain/stats"
	"convlab/internal/analysis"

	"github.com/spf13/cobra"
)

func newStatsCmd(c *cli) *cobra.Command {
	var numeric, by, out string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Mean, median, std dev, skew and kurtosis of a numeric field",
		Long: `Compute descriptive statistics of a numeric field, over the whole table or
per level of a categorical field.

Example: convlab stats --numeric Hours --by OS --out os_hours.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			numField, err := record.ParseField(numeric)
			if err != nil {
				return err
			}
			byField, err := parseField(by)
			if err != nil {
				return err
			}
			table, err := c.loadTable(cmd.Context())
			if err != nil {
				return err
			}

			var result stats.StatsResult
			if byField == "" {
				result, err = analysis.GlobalStats(table, numField)
			} else {
				result, err = analysis.GroupedStats(table, numField, byField)
			}
			if err != nil {
				return err
			}
			printStats(result)
			if out != "" {
				return tabular.WriteStats(out, result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&numeric, "numeric", string(record.Hours), "Numeric field")
	cmd.Flags().StringVar(&by, "by", "", "Categorical field to group by")
	cmd.Flags().StringVar(&out, "out", "", "Export the result as .csv or .xlsx")
	return cmd
}

func newDescribeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Statistics of every numeric field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := c.loadTable(cmd.Context())
			if err != nil {
				return err
			}
			result, err := analysis.Describe(table)
			if err != nil {
				return err
			}
			fmt.Printf("%d records\n", table.Len())
			printStats(result)
			return nil
		},
	}
}

func newCountsCmd(c *cli) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Row count and conversion rate per level of a categorical field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := record.ParseField(by)
			if err != nil {
				return err
			}
			table, err := c.loadTable(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := analysis.ValueCounts(table, field)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(w, "%s\tCount\tConversions\tRate\t\n", field)
			for _, vc := range counts {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t\n", vc.Level, vc.Count, vc.Conversions, vc.ConversionRate)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&by, "by", string(record.OS), "Categorical field")
	return cmd
}

func newPlotCmd(c *cli) *cobra.Command {
	var by, numeric, out string
	var start, end int

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Bar chart of a numeric mean per category",
		Long: `Draw the mean of a numeric field for a slice of the categories of a
categorical field. Categories are sorted by value and sliced [start, end).

Example: convlab plot --by OS --numeric Hours --start 0 --end 6 --out os.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catField, err := record.ParseField(by)
			if err != nil {
				return err
			}
			numField, err := record.ParseField(numeric)
			if err != nil {
				return err
			}
			table, err := c.loadTable(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				name := fmt.Sprintf("mean_%s_by_%s.png", strings.ToLower(string(numField)), strings.ToLower(string(catField)))
				out = filepath.Join(c.cfg.Output.Dir, name)
			}

			renderer := chart.NewRenderer(c.cfg.Output.ChartWidth, c.cfg.Output.ChartHeight)
			series, err := analysis.PlotCategoryMeans(renderer, table, catField, numField, start, end, out)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d of %d categories -> %s\n", series.Title, series.Len(), series.Total, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", string(record.OS), "Categorical field")
	cmd.Flags().StringVar(&numeric, "numeric", string(record.Hours), "Numeric field")
	cmd.Flags().IntVar(&start, "start", 0, "First category index")
	cmd.Flags().IntVar(&end, "end", 6, "Category index to stop before")
	cmd.Flags().StringVar(&out, "out", "", "Output image (.png, .svg, .pdf); default under OUTPUT_DIR")
	return cmd
}

func printStats(result stats.StatsResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, strings.Join(result.Header(), "\t")+"\t")
	for _, row := range result.Records() {
		for i, cell := range row {
			if cell == "" && i > 1 {
				row[i] = "NaN"
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	w.Flush()
}
