package handlers

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/internal/morph"
	"github.com/dendralab/dendra/internal/plot"
	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/pkg/models"
)

// MorphologyHandler handles reconstruction HTTP requests
type MorphologyHandler struct {
	features repository.FeatureRepository
	upstream Atlas
	cache    *cache.Cache
}

// NewMorphologyHandler creates a new morphology handler
func NewMorphologyHandler(features repository.FeatureRepository, upstream Atlas, fileCache *cache.Cache) *MorphologyHandler {
	return &MorphologyHandler{
		features: features,
		upstream: upstream,
		cache:    fileCache,
	}
}

// GetMorphology returns stored reconstruction metrics together with node
// counts per compartment type from the SWC file
func (h *MorphologyHandler) GetMorphology(ctx context.Context, req *models.GetMorphologyRequest) (*models.GetMorphologyResponse, error) {
	stored, err := h.features.GetMorphology(ctx, req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, huma.Error404NotFound("No reconstruction for specimen", err)
		}
		return nil, huma.Error500InternalServerError("Failed to get morphology features", err)
	}

	m, _, err := h.loadReconstruction(ctx, req.ID)
	if err != nil {
		if errors.Is(err, atlas.ErrNotFound) {
			return nil, huma.Error404NotFound("No reconstruction for specimen", err)
		}
		return nil, huma.Error500InternalServerError("Failed to load reconstruction", err)
	}

	return &models.GetMorphologyResponse{
		Body: models.GetMorphologyResponseBody{
			SpecimenID:        req.ID,
			Features:          *stored,
			CompartmentCounts: m.CompartmentCounts(),
		},
	}, nil
}

// MorphologyPlot renders a 2D projection of the reconstruction as a PNG
func (h *MorphologyHandler) MorphologyPlot(ctx context.Context, req *models.MorphologyPlotRequest) (*models.PlotResponse, error) {
	m, markers, err := h.loadReconstruction(ctx, req.ID)
	if err != nil {
		if errors.Is(err, atlas.ErrNotFound) {
			return nil, huma.Error404NotFound("No reconstruction for specimen", err)
		}
		return nil, huma.Error500InternalServerError("Failed to load reconstruction", err)
	}

	// Plots draw in soma-centered coordinates, so markers shift by the
	// same offset to stay aligned with the neurites.
	offset := m.CenterOnSoma()
	for i := range markers {
		markers[i].Pos = markers[i].Pos.Sub(offset)
	}

	png, err := plot.RenderMorphology(m, markers, req.Plane)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to render morphology plot", err)
	}

	log.Info().Int64("specimen_id", req.ID).Str("plane", req.Plane).Msg("Rendered morphology plot")
	return &models.PlotResponse{
		ContentType: "image/png",
		Body:        png,
	}, nil
}

// loadReconstruction fetches and parses a specimen's SWC and marker files,
// reading cached copies when a sync already downloaded them. Returns
// atlas.ErrNotFound when the specimen has no reconstruction.
func (h *MorphologyHandler) loadReconstruction(ctx context.Context, specimenID int64) (*morph.Morphology, []morph.Marker, error) {
	recon, err := h.upstream.GetReconstruction(ctx, specimenID)
	if err != nil {
		return nil, nil, err
	}
	if recon == nil || recon.SWCFileID() == 0 {
		return nil, nil, atlas.ErrNotFound
	}

	swcPath, err := h.cache.EnsureWellKnownFile(ctx, h.upstream, specimenID, recon.SWCFileID(), cache.SWCFile)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(swcPath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	m, err := morph.ParseSWC(f)
	if err != nil {
		return nil, nil, err
	}

	var markers []morph.Marker
	if markerID := recon.MarkerFileID(); markerID != 0 {
		markers, err = h.loadMarkers(ctx, specimenID, markerID)
		if err != nil {
			// Markers only decorate plots, so a bad file is not fatal.
			log.Warn().Err(err).Int64("specimen_id", specimenID).Msg("Marker file skipped")
			markers = nil
		}
	}

	return m, markers, nil
}

func (h *MorphologyHandler) loadMarkers(ctx context.Context, specimenID, fileID int64) ([]morph.Marker, error) {
	markerPath, err := h.cache.EnsureWellKnownFile(ctx, h.upstream, specimenID, fileID, cache.MarkerFile)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(markerPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return morph.ParseMarkers(f)
}
