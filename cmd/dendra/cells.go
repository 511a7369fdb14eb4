package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dendralab/dendra/internal/repository/postgres"
	"github.com/dendralab/dendra/pkg/models"
)

func newCellsCmd() *cobra.Command {
	var (
		species   string
		dendrite  string
		withMorph bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "cells",
		Short: "List synced catalog cells",
		Long:  "Lists cells from the local catalog with optional filters. Output is formatted as a table with a dendrite-type summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCells(cmd, models.CellFilter{
				Species:      species,
				DendriteType: dendrite,
				RequireMorph: withMorph,
				Limit:        limit,
			})
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "filter by donor species")
	cmd.Flags().StringVar(&dendrite, "dendrite", "", "filter by dendrite type (spiny, aspiny, sparsely spiny, NA)")
	cmd.Flags().BoolVar(&withMorph, "has-morphology", false, "only cells with a reconstruction")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows to print (0 prints all)")
	return cmd
}

func runCells(cmd *cobra.Command, filter models.CellFilter) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	repo := postgres.NewPostgresCellRepository(db)
	cells, err := repo.List(ctx, filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(cells) == 0 {
		fmt.Fprintln(out, "No cells found. Run 'dendra sync' first.")
		return nil
	}

	total, err := repo.Count(ctx, filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSPECIES\tSTRUCTURE\tLAYER\tDENDRITE\tMORPH\tEPHYS")
	byDendrite := make(map[string]int)
	for _, c := range cells {
		byDendrite[c.DendriteType]++
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, truncate(c.Name, 30), c.Species, c.Structure, c.StructureLayer,
			c.DendriteType, yesNo(c.HasMorphology), yesNo(c.HasEphys))
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d of %d cells (%s)\n", len(cells), total, dendriteSummary(byDendrite))
	return nil
}

// dendriteSummary renders per-type counts in the canonical group order.
func dendriteSummary(counts map[string]int) string {
	order := []string{models.DendriteSpiny, models.DendriteAspiny, models.DendriteSparselySpiny, models.DendriteNotApplicable}
	parts := []string{}
	for _, d := range order {
		if n := counts[d]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, d))
		}
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
