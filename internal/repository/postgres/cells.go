package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/pkg/models"
)

const cellColumns = `id, name, species, structure, structure_layer, hemisphere,
	dendrite_type, apical_status, transgenic_line, reporter_status,
	has_morphology, has_ephys, nwb_key, swc_key, marker_key,
	created_at, updated_at, last_synced_at`

// PostgresCellRepository implements CellRepository for PostgreSQL
type PostgresCellRepository struct {
	db *sql.DB
}

// NewPostgresCellRepository creates a new PostgreSQL cell repository
func NewPostgresCellRepository(db *sql.DB) repository.CellRepository {
	return &PostgresCellRepository{db: db}
}

// Upsert inserts or refreshes one catalog record
func (r *PostgresCellRepository) Upsert(ctx context.Context, cell *models.Cell) error {
	query := `
		INSERT INTO cells (id, name, species, structure, structure_layer, hemisphere,
			dendrite_type, apical_status, transgenic_line, reporter_status,
			has_morphology, has_ephys, created_at, updated_at, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			species = EXCLUDED.species,
			structure = EXCLUDED.structure,
			structure_layer = EXCLUDED.structure_layer,
			hemisphere = EXCLUDED.hemisphere,
			dendrite_type = EXCLUDED.dendrite_type,
			apical_status = EXCLUDED.apical_status,
			transgenic_line = EXCLUDED.transgenic_line,
			reporter_status = EXCLUDED.reporter_status,
			has_morphology = EXCLUDED.has_morphology,
			has_ephys = EXCLUDED.has_ephys,
			updated_at = NOW(),
			last_synced_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		cell.ID,
		cell.Name,
		cell.Species,
		cell.Structure,
		cell.StructureLayer,
		cell.Hemisphere,
		cell.DendriteType,
		cell.ApicalStatus,
		cell.TransgenicLine,
		cell.ReporterStatus,
		cell.HasMorphology,
		cell.HasEphys)

	return err
}

// GetByID retrieves a cell by specimen ID
func (r *PostgresCellRepository) GetByID(ctx context.Context, id int64) (*models.Cell, error) {
	query := `SELECT ` + cellColumns + ` FROM cells WHERE id = $1`
	return scanCell(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves catalog records matching the filter ordered by specimen ID
func (r *PostgresCellRepository) List(ctx context.Context, filter models.CellFilter) ([]*models.Cell, error) {
	args := []interface{}{}
	query := `SELECT ` + cellColumns + ` FROM cells` + cellFilterClause(filter, &args) + ` ORDER BY id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []*models.Cell
	for rows.Next() {
		cell, err := scanCell(rows)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}

	return cells, rows.Err()
}

// Count returns the number of catalog records matching the filter
func (r *PostgresCellRepository) Count(ctx context.Context, filter models.CellFilter) (int, error) {
	args := []interface{}{}
	query := `SELECT COUNT(*) FROM cells` + cellFilterClause(filter, &args)

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// UpdateFileKeys records mirror object keys for a cell. Nil keys leave the
// stored value unchanged.
func (r *PostgresCellRepository) UpdateFileKeys(ctx context.Context, id int64, nwbKey, swcKey, markerKey *string) error {
	query := `
		UPDATE cells
		SET nwb_key = COALESCE($1, nwb_key),
		    swc_key = COALESCE($2, swc_key),
		    marker_key = COALESCE($3, marker_key),
		    updated_at = NOW()
		WHERE id = $4`

	_, err := r.db.ExecContext(ctx, query, nwbKey, swcKey, markerKey, id)
	return err
}

func cellFilterClause(filter models.CellFilter, args *[]interface{}) string {
	var conditions []string
	if filter.Species != "" {
		*args = append(*args, filter.Species)
		conditions = append(conditions, fmt.Sprintf("species = $%d", len(*args)))
	}
	if filter.DendriteType != "" {
		*args = append(*args, filter.DendriteType)
		conditions = append(conditions, fmt.Sprintf("dendrite_type = $%d", len(*args)))
	}
	if filter.RequireMorph {
		conditions = append(conditions, "has_morphology")
	}
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCell(row rowScanner) (*models.Cell, error) {
	var cell models.Cell
	var transgenicLine, reporterStatus, nwbKey, swcKey, markerKey sql.NullString
	var lastSyncedAt sql.NullTime

	err := row.Scan(
		&cell.ID,
		&cell.Name,
		&cell.Species,
		&cell.Structure,
		&cell.StructureLayer,
		&cell.Hemisphere,
		&cell.DendriteType,
		&cell.ApicalStatus,
		&transgenicLine,
		&reporterStatus,
		&cell.HasMorphology,
		&cell.HasEphys,
		&nwbKey,
		&swcKey,
		&markerKey,
		&cell.CreatedAt,
		&cell.UpdatedAt,
		&lastSyncedAt)

	if err != nil {
		return nil, err
	}

	if transgenicLine.Valid {
		cell.TransgenicLine = &transgenicLine.String
	}
	if reporterStatus.Valid {
		cell.ReporterStatus = &reporterStatus.String
	}
	if nwbKey.Valid {
		cell.NWBKey = &nwbKey.String
	}
	if swcKey.Valid {
		cell.SWCKey = &swcKey.String
	}
	if markerKey.Valid {
		cell.MarkerKey = &markerKey.String
	}
	if lastSyncedAt.Valid {
		cell.LastSyncedAt = &lastSyncedAt.Time
	}

	return &cell, nil
}
