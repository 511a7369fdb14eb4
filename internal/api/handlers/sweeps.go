package handlers

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/internal/plot"
	"github.com/dendralab/dendra/internal/sweep"
	"github.com/dendralab/dendra/pkg/models"
)

// Atlas is the slice of the upstream client the API reads live data through
type Atlas interface {
	ListSweeps(ctx context.Context, specimenID int64) ([]atlas.SweepRecord, error)
	GetSweepTrace(ctx context.Context, specimenID int64, sweepNumber int) (*atlas.SweepTraceRecord, error)
	GetReconstruction(ctx context.Context, specimenID int64) (*atlas.ReconstructionRecord, error)
	DownloadFile(ctx context.Context, fileID int64, w io.Writer) (int64, error)
}

// SweepsHandler handles sweep index and trace HTTP requests
type SweepsHandler struct {
	upstream Atlas
	cache    *cache.Cache
}

// NewSweepsHandler creates a new sweep handler
func NewSweepsHandler(upstream Atlas, fileCache *cache.Cache) *SweepsHandler {
	return &SweepsHandler{
		upstream: upstream,
		cache:    fileCache,
	}
}

// ListSweeps returns the sweep index recorded for a specimen
func (h *SweepsHandler) ListSweeps(ctx context.Context, req *models.ListSweepsRequest) (*models.ListSweepsResponse, error) {
	records, err := h.upstream.ListSweeps(ctx, req.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list sweeps", err)
	}

	sweeps := make([]models.SweepInfo, 0, len(records))
	for i := range records {
		if req.Stimulus != "" && !stimulusMatches(records[i].StimulusName, req.Stimulus) {
			continue
		}
		sweeps = append(sweeps, sweep.InfoFromRecord(&records[i]))
	}

	log.Info().Int64("specimen_id", req.ID).Int("sweeps", len(sweeps)).Msg("Returning sweep index")
	return &models.ListSweepsResponse{
		Body: models.ListSweepsResponseBody{
			SpecimenID: req.ID,
			Sweeps:     sweeps,
		},
	}, nil
}

// GetSweepTrace returns one sweep's samples converted to plotting units
func (h *SweepsHandler) GetSweepTrace(ctx context.Context, req *models.GetSweepTraceRequest) (*models.GetSweepTraceResponse, error) {
	rec, err := h.cache.SweepTrace(ctx, h.upstream, req.ID, req.Number)
	if err != nil {
		if errors.Is(err, atlas.ErrNotFound) {
			return nil, huma.Error404NotFound("Sweep not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to fetch sweep trace", err)
	}

	trace := sweep.TraceFromRecord(req.ID, req.Number, rec)
	points, err := sweep.Points(trace, req.StartS, req.EndS, req.MaxPoints)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid trace window", err)
	}

	spikes, err := sweep.DetectSpikes(trace)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to detect spikes", err)
	}

	log.Info().Int64("specimen_id", req.ID).Int("sweep", req.Number).Int("points", len(points)).Int("spikes", len(spikes)).Msg("Returning sweep trace")
	return &models.GetSweepTraceResponse{
		Body: models.GetSweepTraceResponseBody{
			SpecimenID:   req.ID,
			SweepNumber:  req.Number,
			SamplingRate: rec.SamplingRate,
			Points:       points,
			SpikeTimesS:  sweep.SpikeTimes(trace, spikes),
		},
	}, nil
}

// SweepPlot renders one sweep's response and stimulus as a PNG
func (h *SweepsHandler) SweepPlot(ctx context.Context, req *models.SweepPlotRequest) (*models.PlotResponse, error) {
	if req.EndS > 0 && req.StartS >= req.EndS {
		return nil, huma.Error400BadRequest("Invalid trace window", nil)
	}

	rec, err := h.cache.SweepTrace(ctx, h.upstream, req.ID, req.Number)
	if err != nil {
		if errors.Is(err, atlas.ErrNotFound) {
			return nil, huma.Error404NotFound("Sweep not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to fetch sweep trace", err)
	}

	png, err := plot.RenderSweep(sweep.TraceFromRecord(req.ID, req.Number, rec), req.StartS, req.EndS)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to render sweep plot", err)
	}

	log.Info().Int64("specimen_id", req.ID).Int("sweep", req.Number).Msg("Rendered sweep plot")
	return &models.PlotResponse{
		ContentType: "image/png",
		Body:        png,
	}, nil
}

// stimulusMatches reports whether a sweep's stimulus name matches the
// filter, case-insensitively and on substrings so "square" finds both long
// and short square protocols
func stimulusMatches(name, filter string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}
