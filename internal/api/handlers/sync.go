package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dendralab/dendra/internal/processing"
	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/pkg/models"
)

// SyncHandler handles catalog sync HTTP requests
type SyncHandler struct {
	jobs    repository.SyncJobRepository
	syncSvc processing.SyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(jobs repository.SyncJobRepository, syncSvc processing.SyncService) *SyncHandler {
	return &SyncHandler{
		jobs:    jobs,
		syncSvc: syncSvc,
	}
}

// StartSync creates a sync job and runs it in the background. Syncs are
// single-flight per species, so a repeat start returns the running job's ID
// as a conflict instead of queuing a duplicate.
func (h *SyncHandler) StartSync(ctx context.Context, req *models.StartSyncRequest) (*models.StartSyncResponse, error) {
	log.Info().Str("species", req.Body.Species).Int("limit", req.Body.Limit).Msg("Sync start request received")

	active, err := h.jobs.GetActive(ctx, req.Body.Species)
	if err == nil {
		return nil, huma.Error409Conflict(fmt.Sprintf("A sync for this species is already running, job %s", active.ID), nil)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, huma.Error500InternalServerError("Failed to check for running syncs", err)
	}

	jobID := uuid.New()
	job := &models.SyncJob{
		ID:        jobID.String(),
		Species:   req.Body.Species,
		Limit:     req.Body.Limit,
		Status:    "pending",
		Progress:  0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := h.jobs.Create(ctx, job); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create sync job", err)
	}

	// Run the sync in background (don't wait for completion)
	log.Info().Str("jobID", jobID.String()).Msg("Starting background sync goroutine")
	go func() {
		if err := h.syncSvc.ProcessSync(context.Background(), jobID); err != nil {
			h.jobs.UpdateError(context.Background(), jobID, fmt.Sprintf("Sync failed: %v", err))
		}
	}()

	resp := &models.StartSyncResponse{}
	resp.Body.ID = jobID.String()
	resp.Body.Message = "Sync started successfully"
	return resp, nil
}

// GetSyncStatus returns the current status of a sync job
func (h *SyncHandler) GetSyncStatus(ctx context.Context, req *models.GetSyncStatusRequest) (*models.GetSyncStatusResponse, error) {
	jobID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid sync job ID", err)
	}

	job, err := h.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, huma.Error404NotFound("Sync job not found", err)
	}

	log.Info().Str("jobID", job.ID).Str("status", job.Status).Int("progress", job.Progress).Msg("Returning sync status")
	return &models.GetSyncStatusResponse{
		Body: models.GetSyncStatusResponseBody{
			ID:          job.ID,
			Status:      job.Status,
			Progress:    job.Progress,
			CellsTotal:  job.CellsTotal,
			CellsSynced: job.CellsSynced,
			Message:     h.generateStatusMessage(job.Status, job.Progress),
			Error:       job.ErrorMsg,
		},
	}, nil
}

// generateStatusMessage creates a human-readable status message
func (h *SyncHandler) generateStatusMessage(status string, progress int) string {
	switch status {
	case "pending":
		return "Sync queued..."
	case "running":
		if progress < 25 {
			return "Querying the cell catalog..."
		} else if progress < 50 {
			return "Fetching ephys features..."
		} else if progress < 75 {
			return "Downloading reconstruction files..."
		}
		return "Writing catalog snapshots..."
	case "completed":
		return "Sync complete!"
	case "failed":
		return "Sync failed. See error detail."
	default:
		return "Unknown status"
	}
}
