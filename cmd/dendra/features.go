package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dendralab/dendra/internal/exporter"
	"github.com/dendralab/dendra/internal/features"
	"github.com/dendralab/dendra/internal/plot"
	"github.com/dendralab/dendra/internal/repository/postgres"
	"github.com/dendralab/dendra/pkg/models"
)

// defaultScatterX and defaultScatterY are the classic excitatory/inhibitory
// separation axes, also the default summary column for exports.
const (
	defaultScatterX = "upstroke_downstroke_ratio_long_square"
	defaultScatterY = "fast_trough_v_long_square"
)

func newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Inspect and export the ephys feature table",
	}

	cmd.AddCommand(newFeaturesShowCmd())
	cmd.AddCommand(newFeaturesSummaryCmd())
	cmd.AddCommand(newFeaturesHistCmd())
	cmd.AddCommand(newFeaturesExportCmd())
	return cmd
}

func newFeaturesShowCmd() *cobra.Command {
	var (
		species  string
		dendrite string
		columns  string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print feature rows",
		Long:  "Prints the synced feature table, one row per specimen. Select feature columns with --columns.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeaturesShow(cmd, species, dendrite, columns, limit)
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "filter by donor species")
	cmd.Flags().StringVar(&dendrite, "dendrite", "", "filter by dendrite type")
	cmd.Flags().StringVar(&columns, "columns", "vrest,tau,ri,"+defaultScatterX, "comma-separated feature columns")
	cmd.Flags().IntVar(&limit, "limit", 25, "max rows to print (0 prints all)")
	return cmd
}

func runFeaturesShow(cmd *cobra.Command, species, dendrite, columns string, limit int) error {
	cols, err := parseColumns(columns)
	if err != nil {
		return err
	}

	rows, err := loadFeatureRows(cmd, species, dendrite)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No feature rows found. Run 'dendra sync' first.")
		return nil
	}

	total := len(rows)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SPECIMEN\tSPECIES\tDENDRITE\t%s\n", strings.ToUpper(strings.Join(cols, "\t")))
	for _, row := range rows {
		cells := make([]string, 0, len(cols))
		for _, col := range cols {
			cells = append(cells, formatCell(features.Value(row.Features, col)))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			row.SpecimenID, row.Species, row.DendriteType, strings.Join(cells, "\t"))
	}
	w.Flush()

	if len(rows) < total {
		fmt.Fprintf(out, "\nShowing %d of %d rows\n", len(rows), total)
	}
	return nil
}

func newFeaturesSummaryCmd() *cobra.Command {
	var (
		species  string
		dendrite string
		feature  string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize one feature by dendrite type",
		Long:  "Prints per-group descriptive statistics (count, mean, standard error, range) for one feature column.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeaturesSummary(cmd, species, dendrite, feature)
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "filter by donor species")
	cmd.Flags().StringVar(&dendrite, "dendrite", "", "filter by dendrite type")
	cmd.Flags().StringVar(&feature, "feature", "", "feature column to summarize (required)")
	cmd.MarkFlagRequired("feature")
	return cmd
}

func runFeaturesSummary(cmd *cobra.Command, species, dendrite, feature string) error {
	if !features.IsColumn(feature) {
		return fmt.Errorf("unknown feature column %q (valid: %s)", feature, strings.Join(features.Columns, ", "))
	}

	rows, err := loadFeatureRows(cmd, species, dendrite)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No feature rows found. Run 'dendra sync' first.")
		return nil
	}

	stats, err := features.Summary(features.Table(rows), feature)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintf(out, "No measurements for %s.\n", feature)
		return nil
	}

	fmt.Fprintf(out, "%s\n\n", feature)
	printGroupStats(out, stats)
	return nil
}

func newFeaturesHistCmd() *cobra.Command {
	var (
		species  string
		dendrite string
		feature  string
		bins     int
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "hist",
		Short: "Render a feature distribution as a PNG",
		Long:  "Bins one feature column across the synced cells and renders the distribution to a PNG file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeaturesHist(cmd, species, dendrite, feature, bins, outPath)
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "filter by donor species")
	cmd.Flags().StringVar(&dendrite, "dendrite", "", "filter by dendrite type")
	cmd.Flags().StringVar(&feature, "feature", defaultScatterX, "feature column to bin")
	cmd.Flags().IntVar(&bins, "bins", 0, "number of bins (0 uses the default)")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to hist-<feature>.png)")
	return cmd
}

func runFeaturesHist(cmd *cobra.Command, species, dendrite, feature string, bins int, outPath string) error {
	if !features.IsColumn(feature) {
		return fmt.Errorf("unknown feature column %q (valid: %s)", feature, strings.Join(features.Columns, ", "))
	}
	if outPath == "" {
		outPath = fmt.Sprintf("hist-%s.png", feature)
	}

	rows, err := loadFeatureRows(cmd, species, dendrite)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No feature rows found. Run 'dendra sync' first.")
		return nil
	}

	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		values = append(values, features.Value(row.Features, feature))
	}

	png, err := plot.RenderHistogram(values, feature, bins)
	if err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	if err := os.WriteFile(outPath, png, 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}

	fmt.Fprintf(out, "Wrote %s\n", outPath)
	return nil
}

func newFeaturesExportCmd() *cobra.Command {
	var (
		species  string
		dendrite string
		format   string
		outPath  string
		feature  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the feature table to a file",
		Long:  "Writes the synced feature table as CSV or as an xlsx workbook. The workbook carries a second sheet summarizing one feature by dendrite type.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeaturesExport(cmd, species, dendrite, format, outPath, feature)
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "filter by donor species")
	cmd.Flags().StringVar(&dendrite, "dendrite", "", "filter by dendrite type")
	cmd.Flags().StringVar(&format, "format", "csv", "export format (csv or xlsx)")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to features.csv or features.xlsx)")
	cmd.Flags().StringVar(&feature, "feature", defaultScatterX, "feature column for the xlsx summary sheet")
	return cmd
}

func runFeaturesExport(cmd *cobra.Command, species, dendrite, format, outPath, feature string) error {
	if !features.IsColumn(feature) {
		return fmt.Errorf("unknown feature column %q (valid: %s)", feature, strings.Join(features.Columns, ", "))
	}
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unknown format %q (use csv or xlsx)", format)
	}
	if outPath == "" {
		outPath = "features." + format
	}

	rows, err := loadFeatureRows(cmd, species, dendrite)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No feature rows to export. Run 'dendra sync' first.")
		return nil
	}

	switch format {
	case "csv":
		dir, name := filepath.Split(outPath)
		if dir == "" {
			dir = "."
		}
		w := exporter.NewCSVWriter(dir)
		if err := w.WriteSimpleCSV(name, exporter.FeatureHeaders(), exporter.FeatureRecords(rows)); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	case "xlsx":
		stats, err := features.Summary(features.Table(rows), feature)
		if err != nil {
			return err
		}
		if err := exporter.WriteWorkbook(outPath, rows, feature, stats); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
	}

	fmt.Fprintf(out, "Wrote %d rows to %s\n", len(rows), outPath)
	return nil
}

// loadFeatureRows pulls the filtered feature table from the local database.
func loadFeatureRows(cmd *cobra.Command, species, dendrite string) ([]models.FeatureRow, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := postgres.NewPostgresFeatureRepository(db)
	return repo.ListRows(cmd.Context(), models.CellFilter{
		Species:      species,
		DendriteType: dendrite,
	})
}

// parseColumns splits and validates a comma-separated feature column list.
func parseColumns(columns string) ([]string, error) {
	var cols []string
	for _, col := range strings.Split(columns, ",") {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if !features.IsColumn(col) {
			return nil, fmt.Errorf("unknown feature column %q (valid: %s)", col, strings.Join(features.Columns, ", "))
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no feature columns selected")
	}
	return cols, nil
}

// printGroupStats renders per-group summary statistics as a table.
func printGroupStats(out io.Writer, stats []models.FeatureGroupStat) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tN\tMEAN\tSEM\tMIN\tMAX")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			s.DendriteType, s.N, formatCell(s.Mean), formatCell(s.SEM), formatCell(s.Min), formatCell(s.Max))
	}
	w.Flush()
}

// formatCell renders one table value, "-" when unmeasured.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'g', 5, 64)
}
