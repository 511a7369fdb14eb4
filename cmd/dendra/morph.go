package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/internal/morph"
	"github.com/dendralab/dendra/internal/plot"
	"github.com/dendralab/dendra/internal/repository/postgres"
)

func newMorphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "morph",
		Short: "Inspect neuron reconstructions",
	}

	cmd.AddCommand(newMorphShowCmd())
	cmd.AddCommand(newMorphPlotCmd())
	return cmd
}

func newMorphShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <specimen-id>",
		Short: "Show reconstruction metrics for a specimen",
		Long:  "Displays the morphology metrics computed from a specimen's SWC reconstruction during sync.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMorphShow(cmd, args[0])
		},
	}
}

func runMorphShow(cmd *cobra.Command, idArg string) error {
	id, err := parseSpecimenID(idArg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewPostgresFeatureRepository(db)
	m, err := repo.GetMorphology(cmd.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("no reconstruction metrics for specimen %d (run 'dendra sync' first)", id)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Specimen:        %d\n", m.SpecimenID)
	fmt.Fprintf(out, "Total length:    %.1f\n", m.TotalLength)
	fmt.Fprintf(out, "Total surface:   %.1f\n", m.TotalSurface)
	fmt.Fprintf(out, "Total volume:    %.1f\n", m.TotalVolume)
	fmt.Fprintf(out, "Soma surface:    %.1f\n", m.SomaSurface)
	fmt.Fprintf(out, "Max distance:    %.1f\n", m.MaxEuclideanDist)
	fmt.Fprintf(out, "Stems:           %d\n", m.NumberStems)
	fmt.Fprintf(out, "Bifurcations:    %d\n", m.NumberBifurcations)
	fmt.Fprintf(out, "Tips:            %d\n", m.NumberTips)
	fmt.Fprintf(out, "Nodes:           %d\n", m.NumberNodes)
	fmt.Fprintf(out, "Max order:       %d\n", m.MaxBranchOrder)
	fmt.Fprintf(out, "Width:           %.1f\n", m.OverallWidth)
	fmt.Fprintf(out, "Height:          %.1f\n", m.OverallHeight)
	fmt.Fprintf(out, "Depth:           %.1f\n", m.OverallDepth)
	fmt.Fprintf(out, "Avg diameter:    %.2f\n", m.AverageDiameter)
	if m.CutDendriteCount > 0 {
		fmt.Fprintf(out, "Cut dendrites:   %d\n", m.CutDendriteCount)
	}
	if m.NoReconstruction {
		fmt.Fprintln(out, "Flagged as having no usable reconstruction")
	}
	return nil
}

func newMorphPlotCmd() *cobra.Command {
	var (
		plane   string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "plot <specimen-id>",
		Short: "Render a reconstruction projection as a PNG",
		Long:  "Downloads (or reuses the cached) SWC reconstruction, centers it on the soma, and renders a 2D projection to a PNG file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMorphPlot(cmd, args[0], plane, outPath)
		},
	}

	cmd.Flags().StringVar(&plane, "plane", "xy", "projection plane (xy, xz, or zy)")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to morphology-<id>-<plane>.png)")
	return cmd
}

func runMorphPlot(cmd *cobra.Command, idArg, plane, outPath string) error {
	id, err := parseSpecimenID(idArg)
	if err != nil {
		return err
	}
	switch plane {
	case "xy", "xz", "zy":
	default:
		return fmt.Errorf("unknown projection plane %q (use xy, xz, or zy)", plane)
	}
	if outPath == "" {
		outPath = fmt.Sprintf("morphology-%d-%s.png", id, plane)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fileCache, err := openCache(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client := atlas.New(cfg.Atlas.BaseURL, cfg.Atlas.RPS, cfg.Atlas.PageSize)
	recon, err := client.GetReconstruction(ctx, id)
	if err != nil {
		return fmt.Errorf("look up reconstruction: %w", err)
	}
	if recon == nil || recon.SWCFileID() == 0 {
		return fmt.Errorf("no reconstruction for specimen %d", id)
	}

	path, err := fileCache.EnsureWellKnownFile(ctx, client, id, recon.SWCFileID(), cache.SWCFile)
	if err != nil {
		return fmt.Errorf("fetch reconstruction: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := morph.ParseSWC(f)
	if err != nil {
		return fmt.Errorf("parse reconstruction: %w", err)
	}

	markers := loadPlotMarkers(ctx, client, fileCache, id, recon)

	// Plots draw in soma-centered coordinates, so markers shift by the
	// same offset to stay aligned with the neurites.
	offset := m.CenterOnSoma()
	for i := range markers {
		markers[i].Pos = markers[i].Pos.Sub(offset)
	}

	png, err := plot.RenderMorphology(m, markers, plane)
	if err != nil {
		return fmt.Errorf("render morphology: %w", err)
	}
	if err := os.WriteFile(outPath, png, 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
	return nil
}

// loadPlotMarkers fetches cut-site markers for the plot. Markers only
// decorate the projection, so any failure just drops them.
func loadPlotMarkers(ctx context.Context, client *atlas.Client, fileCache *cache.Cache, id int64, recon *atlas.ReconstructionRecord) []morph.Marker {
	if recon.MarkerFileID() == 0 {
		return nil
	}
	path, err := fileCache.EnsureWellKnownFile(ctx, client, id, recon.MarkerFileID(), cache.MarkerFile)
	if err != nil {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	markers, err := morph.ParseMarkers(f)
	if err != nil {
		return nil
	}
	return markers
}
