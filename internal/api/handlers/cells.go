package handlers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/pkg/models"
)

// CellsHandler handles cell catalog HTTP requests
type CellsHandler struct {
	cells    repository.CellRepository
	features repository.FeatureRepository
}

// NewCellsHandler creates a new cell catalog handler
func NewCellsHandler(cells repository.CellRepository, features repository.FeatureRepository) *CellsHandler {
	return &CellsHandler{
		cells:    cells,
		features: features,
	}
}

// ListCells returns a page of catalog cells matching the filter
func (h *CellsHandler) ListCells(ctx context.Context, req *models.ListCellsRequest) (*models.ListCellsResponse, error) {
	filter := models.CellFilter{
		Species:      req.Species,
		DendriteType: req.DendriteType,
		RequireMorph: req.RequireMorph,
		Limit:        req.Limit,
		Offset:       req.Offset,
	}

	cells, err := h.cells.List(ctx, filter)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list cells", err)
	}

	total, err := h.cells.Count(ctx, filter)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to count cells", err)
	}

	summaries := make([]models.CellSummary, 0, len(cells))
	for _, cell := range cells {
		summaries = append(summaries, models.CellSummary{
			ID:            cell.ID,
			Name:          cell.Name,
			Species:       cell.Species,
			Structure:     cell.Structure,
			Layer:         cell.StructureLayer,
			DendriteType:  cell.DendriteType,
			HasMorphology: cell.HasMorphology,
			HasEphys:      cell.HasEphys,
		})
	}

	log.Info().Str("species", req.Species).Int("returned", len(summaries)).Int("total", total).Msg("Returning cell list")
	return &models.ListCellsResponse{
		Body: models.ListCellsResponseBody{
			Cells: summaries,
			Total: total,
		},
	}, nil
}

// GetCell returns one catalog record with any stored feature rows
func (h *CellsHandler) GetCell(ctx context.Context, req *models.GetCellRequest) (*models.GetCellResponse, error) {
	cell, err := h.cells.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, huma.Error404NotFound("Cell not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to get cell", err)
	}

	body := models.GetCellResponseBody{Cell: *cell}

	// Not every cell has measurements, so feature lookups are best effort.
	if ephys, err := h.features.GetEphys(ctx, req.ID); err == nil {
		body.Ephys = ephys
	}
	if morphology, err := h.features.GetMorphology(ctx, req.ID); err == nil {
		body.Morphology = morphology
	}

	return &models.GetCellResponse{Body: body}, nil
}
