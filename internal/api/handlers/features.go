package handlers

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/dendralab/dendra/internal/features"
	"github.com/dendralab/dendra/internal/plot"
	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/pkg/models"
)

// FeaturesHandler handles feature table HTTP requests
type FeaturesHandler struct {
	repo repository.FeatureRepository
}

// NewFeaturesHandler creates a new feature table handler
func NewFeaturesHandler(repo repository.FeatureRepository) *FeaturesHandler {
	return &FeaturesHandler{repo: repo}
}

// ListFeatures returns a page of the joined feature table
func (h *FeaturesHandler) ListFeatures(ctx context.Context, req *models.ListFeaturesRequest) (*models.ListFeaturesResponse, error) {
	rows, err := h.repo.ListRows(ctx, models.CellFilter{
		Species:      req.Species,
		DendriteType: req.DendriteType,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list features", err)
	}

	// ListRows returns the full filtered table, so the page is cut here.
	total := len(rows)
	if req.Offset > 0 {
		if req.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[req.Offset:]
		}
	}
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	if rows == nil {
		rows = []models.FeatureRow{}
	}

	return &models.ListFeaturesResponse{
		Body: models.ListFeaturesResponseBody{
			Rows:  rows,
			Total: total,
		},
	}, nil
}

// GetFeatureSummary returns per-dendrite-type statistics for one feature
func (h *FeaturesHandler) GetFeatureSummary(ctx context.Context, req *models.FeatureSummaryRequest) (*models.FeatureSummaryResponse, error) {
	// Validate the column explicitly in case the request skipped schema
	// validation.
	if !features.IsColumn(req.Feature) {
		return nil, huma.Error400BadRequest("Unknown feature column", fmt.Errorf("no feature column named %q", req.Feature))
	}

	rows, err := h.repo.ListRows(ctx, models.CellFilter{Species: req.Species})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list features", err)
	}

	groups, err := features.Summary(features.Table(rows), req.Feature)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to summarize feature", err)
	}

	log.Info().Str("feature", req.Feature).Int("rows", len(rows)).Int("groups", len(groups)).Msg("Returning feature summary")
	return &models.FeatureSummaryResponse{
		Body: models.FeatureSummaryResponseBody{
			Feature: req.Feature,
			Groups:  groups,
		},
	}, nil
}

// FeatureScatter renders two feature columns against each other as a PNG,
// one point per cell grouped by dendrite type
func (h *FeaturesHandler) FeatureScatter(ctx context.Context, req *models.FeatureScatterRequest) (*models.PlotResponse, error) {
	if !features.IsColumn(req.X) || !features.IsColumn(req.Y) {
		return nil, huma.Error400BadRequest("Unknown feature column", fmt.Errorf("axes must name feature columns"))
	}

	rows, err := h.repo.ListRows(ctx, models.CellFilter{Species: req.Species})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list features", err)
	}
	if len(rows) == 0 {
		return nil, huma.Error404NotFound("No feature rows to plot", nil)
	}

	groups, err := features.ScatterData(features.Table(rows), req.X, req.Y)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to build scatter data", err)
	}

	png, err := plot.RenderScatter(groups, req.X, req.Y)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to render scatter plot", err)
	}

	log.Info().Str("x", req.X).Str("y", req.Y).Int("rows", len(rows)).Msg("Rendered feature scatter")
	return &models.PlotResponse{
		ContentType: "image/png",
		Body:        png,
	}, nil
}
