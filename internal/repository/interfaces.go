package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/dendralab/dendra/pkg/models"
)

// CellRepository defines the interface for cell catalog operations
type CellRepository interface {
	Upsert(ctx context.Context, cell *models.Cell) error
	GetByID(ctx context.Context, id int64) (*models.Cell, error)
	List(ctx context.Context, filter models.CellFilter) ([]*models.Cell, error)
	Count(ctx context.Context, filter models.CellFilter) (int, error)
	UpdateFileKeys(ctx context.Context, id int64, nwbKey, swcKey, markerKey *string) error
}

// FeatureRepository defines the interface for feature table operations
type FeatureRepository interface {
	UpsertEphys(ctx context.Context, features *models.EphysFeatures) error
	UpsertMorphology(ctx context.Context, features *models.MorphologyFeatures) error
	GetEphys(ctx context.Context, specimenID int64) (*models.EphysFeatures, error)
	GetMorphology(ctx context.Context, specimenID int64) (*models.MorphologyFeatures, error)
	ListRows(ctx context.Context, filter models.CellFilter) ([]models.FeatureRow, error)
}

// SyncJobRepository defines the interface for sync job tracking
type SyncJobRepository interface {
	Create(ctx context.Context, job *models.SyncJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SyncJob, error)
	GetActive(ctx context.Context, species string) (*models.SyncJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
	UpdateCounts(ctx context.Context, id uuid.UUID, cellsTotal, cellsSynced int) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
}
