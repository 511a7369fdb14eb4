package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dendralab/dendra/internal/features"
	"github.com/dendralab/dendra/internal/plot"
	"github.com/dendralab/dendra/pkg/models"
)

func newCompareCmd() *cobra.Command {
	var (
		xCol    string
		yCol    string
		species string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two features across dendrite types",
		Long:  "Renders a scatter plot of two feature columns colored by dendrite type and prints per-group statistics for both. The defaults separate excitatory from inhibitory cells.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, xCol, yCol, species, outPath)
		},
	}

	cmd.Flags().StringVar(&xCol, "x", defaultScatterX, "feature column for the x axis")
	cmd.Flags().StringVar(&yCol, "y", defaultScatterY, "feature column for the y axis")
	cmd.Flags().StringVar(&species, "species", "", "filter by donor species")
	cmd.Flags().StringVar(&outPath, "out", "compare.png", "output path for the scatter plot")
	return cmd
}

func runCompare(cmd *cobra.Command, xCol, yCol, species, outPath string) error {
	for _, col := range []string{xCol, yCol} {
		if !features.IsColumn(col) {
			return fmt.Errorf("unknown feature column %q (valid: %s)", col, strings.Join(features.Columns, ", "))
		}
	}

	rows, err := loadFeatureRows(cmd, species, "")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No feature rows found. Run 'dendra sync' first.")
		return nil
	}

	dt := features.Table(rows)
	groups, err := features.ScatterData(dt, xCol, yCol)
	if err != nil {
		return err
	}

	png, err := plot.RenderScatter(groups, xCol, yCol)
	if err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	if err := os.WriteFile(outPath, png, 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}

	for _, col := range []string{xCol, yCol} {
		stats, err := features.Summary(dt, col)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", col)
		if len(stats) == 0 {
			fmt.Fprintln(out, "no measurements")
		} else {
			printGroupStats(out, stats)
		}
		fmt.Fprintln(out)
	}

	// The headline comparison: spiny (excitatory) vs aspiny (inhibitory)
	// means on the x axis.
	spiny := features.GroupMean(dt, models.DendriteSpiny, xCol)
	aspiny := features.GroupMean(dt, models.DendriteAspiny, xCol)
	if !math.IsNaN(spiny) && !math.IsNaN(aspiny) {
		fmt.Fprintf(out, "Mean %s: %s spiny vs %s aspiny\n\n", xCol, formatCell(spiny), formatCell(aspiny))
	}

	fmt.Fprintf(out, "Wrote %s\n", outPath)
	return nil
}
