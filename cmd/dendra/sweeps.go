package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/plot"
	"github.com/dendralab/dendra/internal/sweep"
	"github.com/dendralab/dendra/pkg/models"
)

func newSweepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweeps",
		Short: "Inspect recorded sweeps for one specimen",
	}

	cmd.AddCommand(newSweepsListCmd())
	cmd.AddCommand(newSweepsPlotCmd())
	cmd.AddCommand(newSweepsFICmd())
	return cmd
}

func newSweepsListCmd() *cobra.Command {
	var stimulus string

	cmd := &cobra.Command{
		Use:   "list <specimen-id>",
		Short: "List sweeps recorded for a specimen",
		Long:  "Queries the upstream API for a specimen's sweep inventory. Filter by stimulus name with --stimulus.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweepsList(cmd, args[0], stimulus)
		},
	}

	cmd.Flags().StringVar(&stimulus, "stimulus", "", "filter by stimulus name substring")
	return cmd
}

func runSweepsList(cmd *cobra.Command, idArg, stimulus string) error {
	id, err := parseSpecimenID(idArg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := atlas.New(cfg.Atlas.BaseURL, cfg.Atlas.RPS, cfg.Atlas.PageSize)
	records, err := client.ListSweeps(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("list sweeps: %w", err)
	}

	infos := make([]models.SweepInfo, 0, len(records))
	for i := range records {
		if stimulus != "" && !strings.Contains(strings.ToLower(records[i].StimulusName), strings.ToLower(stimulus)) {
			continue
		}
		infos = append(infos, sweep.InfoFromRecord(&records[i]))
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintf(out, "No sweeps found for specimen %d\n", id)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tSTIMULUS\tAMPLITUDE\tRATE\tSPIKES\tPASSED")
	for _, info := range infos {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f Hz\t%s\t%s\n",
			info.SweepNumber, info.StimulusName, formatAmplitude(info),
			info.SamplingRate, formatSpikes(info.NumSpikes), yesNo(info.Passed))
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d sweeps\n", len(infos))
	return nil
}

func newSweepsPlotCmd() *cobra.Command {
	var (
		startS  float64
		endS    float64
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "plot <specimen-id> <sweep-number>",
		Short: "Render one sweep as a PNG",
		Long:  "Fetches the sweep trace (cached after the first download) and renders voltage and current panels to a PNG file.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweepsPlot(cmd, args[0], args[1], startS, endS, outPath)
		},
	}

	cmd.Flags().Float64Var(&startS, "start", 0, "window start in seconds (0 uses the stimulus epoch)")
	cmd.Flags().Float64Var(&endS, "end", 0, "window end in seconds (0 uses the stimulus epoch)")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to sweep-<id>-<number>.png)")
	return cmd
}

func runSweepsPlot(cmd *cobra.Command, idArg, numberArg string, startS, endS float64, outPath string) error {
	id, err := parseSpecimenID(idArg)
	if err != nil {
		return err
	}
	number, err := strconv.Atoi(numberArg)
	if err != nil {
		return fmt.Errorf("invalid sweep number %q", numberArg)
	}
	if endS > 0 && startS >= endS {
		return fmt.Errorf("window start %.3fs is not before end %.3fs", startS, endS)
	}
	if outPath == "" {
		outPath = fmt.Sprintf("sweep-%d-%d.png", id, number)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fileCache, err := openCache(cfg)
	if err != nil {
		return err
	}

	client := atlas.New(cfg.Atlas.BaseURL, cfg.Atlas.RPS, cfg.Atlas.PageSize)
	rec, err := fileCache.SweepTrace(cmd.Context(), client, id, number)
	if errors.Is(err, atlas.ErrNotFound) {
		return fmt.Errorf("sweep %d not found for specimen %d", number, id)
	}
	if err != nil {
		return fmt.Errorf("fetch sweep trace: %w", err)
	}

	trace := sweep.TraceFromRecord(id, number, rec)
	png, err := plot.RenderSweep(trace, startS, endS)
	if err != nil {
		return fmt.Errorf("render sweep: %w", err)
	}
	if err := os.WriteFile(outPath, png, 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
	return nil
}

func newSweepsFICmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "fi <specimen-id>",
		Short: "Render a specimen's f-I curve as a PNG",
		Long:  "Plots spike count against injected current across a specimen's sweeps, the classic frequency-current relationship.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweepsFI(cmd, args[0], outPath)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to fi-curve-<id>.png)")
	return cmd
}

func runSweepsFI(cmd *cobra.Command, idArg, outPath string) error {
	id, err := parseSpecimenID(idArg)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = fmt.Sprintf("fi-curve-%d.png", id)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := atlas.New(cfg.Atlas.BaseURL, cfg.Atlas.RPS, cfg.Atlas.PageSize)
	records, err := client.ListSweeps(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("list sweeps: %w", err)
	}

	infos := make([]models.SweepInfo, 0, len(records))
	for i := range records {
		infos = append(infos, sweep.InfoFromRecord(&records[i]))
	}

	png, err := plot.RenderFICurve(id, infos)
	if err != nil {
		return fmt.Errorf("render f-I curve: %w", err)
	}
	if err := os.WriteFile(outPath, png, 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
	return nil
}

// parseSpecimenID parses a numeric specimen ID argument.
func parseSpecimenID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid specimen ID %q", arg)
	}
	return id, nil
}

func formatAmplitude(info models.SweepInfo) string {
	if info.StimulusAmplitude == nil {
		return "-"
	}
	return strings.TrimSpace(fmt.Sprintf("%.1f %s", *info.StimulusAmplitude, info.StimulusUnits))
}

func formatSpikes(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}
