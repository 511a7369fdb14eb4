package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/pkg/models"
)

// PostgresSyncJobRepository implements SyncJobRepository for PostgreSQL
type PostgresSyncJobRepository struct {
	db *sql.DB
}

// NewPostgresSyncJobRepository creates a new PostgreSQL sync job repository
func NewPostgresSyncJobRepository(db *sql.DB) repository.SyncJobRepository {
	return &PostgresSyncJobRepository{db: db}
}

// Create inserts a new sync job record
func (r *PostgresSyncJobRepository) Create(ctx context.Context, job *models.SyncJob) error {
	query := `
		INSERT INTO sync_jobs (id, species, cell_limit, status, progress, cells_total, cells_synced, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.Species,
		job.Limit,
		job.Status,
		job.Progress,
		job.CellsTotal,
		job.CellsSynced,
		job.CreatedAt,
		job.UpdatedAt)

	return err
}

// GetByID retrieves a sync job by ID
func (r *PostgresSyncJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncJob, error) {
	query := `
		SELECT id, species, cell_limit, status, progress, cells_total, cells_synced, error_message, created_at, updated_at, completed_at
		FROM sync_jobs
		WHERE id = $1`

	var job models.SyncJob
	var errorMsg sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.Species,
		&job.Limit,
		&job.Status,
		&job.Progress,
		&job.CellsTotal,
		&job.CellsSynced,
		&errorMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt)

	if err != nil {
		return nil, err
	}

	if errorMsg.Valid {
		job.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

// GetActive retrieves the most recent pending or running job for a species.
// Returns sql.ErrNoRows when no sync is in flight.
func (r *PostgresSyncJobRepository) GetActive(ctx context.Context, species string) (*models.SyncJob, error) {
	query := `
		SELECT id, species, cell_limit, status, progress, cells_total, cells_synced, error_message, created_at, updated_at, completed_at
		FROM sync_jobs
		WHERE species = $1 AND status IN ('pending', 'running')
		ORDER BY created_at DESC
		LIMIT 1`

	var job models.SyncJob
	var errorMsg sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, species).Scan(
		&job.ID,
		&job.Species,
		&job.Limit,
		&job.Status,
		&job.Progress,
		&job.CellsTotal,
		&job.CellsSynced,
		&errorMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt)

	if err != nil {
		return nil, err
	}

	if errorMsg.Valid {
		job.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

// UpdateStatus updates the status and progress of a sync job
func (r *PostgresSyncJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	query := `
		UPDATE sync_jobs
		SET status = $1, progress = $2, updated_at = NOW(),
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, status, progress, id)
	return err
}

// UpdateCounts updates the cell totals of a sync job
func (r *PostgresSyncJobRepository) UpdateCounts(ctx context.Context, id uuid.UUID, cellsTotal, cellsSynced int) error {
	query := `
		UPDATE sync_jobs
		SET cells_total = $1, cells_synced = $2, updated_at = NOW()
		WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, cellsTotal, cellsSynced, id)
	return err
}

// UpdateError updates the error message for a sync job
func (r *PostgresSyncJobRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE sync_jobs
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, errorMsg, id)
	return err
}
