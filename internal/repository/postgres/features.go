package postgres

import (
	"context"
	"database/sql"

	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/pkg/models"
)

const ephysColumns = `id, specimen_id, vrest, tau, ri, sag,
	threshold_i_long_square, threshold_v_long_square, peak_v_long_square,
	fast_trough_v_long_square, trough_v_long_square,
	upstroke_downstroke_ratio_long_square, upstroke_downstroke_ratio_short_square,
	adaptation, avg_isi, f_i_curve_slope, latency, created_at`

// PostgresFeatureRepository implements FeatureRepository for PostgreSQL
type PostgresFeatureRepository struct {
	db *sql.DB
}

// NewPostgresFeatureRepository creates a new PostgreSQL feature repository
func NewPostgresFeatureRepository(db *sql.DB) repository.FeatureRepository {
	return &PostgresFeatureRepository{db: db}
}

// UpsertEphys inserts or refreshes a specimen's ephys feature row
func (r *PostgresFeatureRepository) UpsertEphys(ctx context.Context, features *models.EphysFeatures) error {
	query := `
		INSERT INTO ephys_features (id, specimen_id, vrest, tau, ri, sag,
			threshold_i_long_square, threshold_v_long_square, peak_v_long_square,
			fast_trough_v_long_square, trough_v_long_square,
			upstroke_downstroke_ratio_long_square,
			upstroke_downstroke_ratio_short_square, adaptation, avg_isi,
			f_i_curve_slope, latency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		ON CONFLICT (specimen_id) DO UPDATE SET
			id = EXCLUDED.id,
			vrest = EXCLUDED.vrest,
			tau = EXCLUDED.tau,
			ri = EXCLUDED.ri,
			sag = EXCLUDED.sag,
			threshold_i_long_square = EXCLUDED.threshold_i_long_square,
			threshold_v_long_square = EXCLUDED.threshold_v_long_square,
			peak_v_long_square = EXCLUDED.peak_v_long_square,
			fast_trough_v_long_square = EXCLUDED.fast_trough_v_long_square,
			trough_v_long_square = EXCLUDED.trough_v_long_square,
			upstroke_downstroke_ratio_long_square = EXCLUDED.upstroke_downstroke_ratio_long_square,
			upstroke_downstroke_ratio_short_square = EXCLUDED.upstroke_downstroke_ratio_short_square,
			adaptation = EXCLUDED.adaptation,
			avg_isi = EXCLUDED.avg_isi,
			f_i_curve_slope = EXCLUDED.f_i_curve_slope,
			latency = EXCLUDED.latency`

	_, err := r.db.ExecContext(ctx, query,
		features.ID,
		features.SpecimenID,
		features.Vrest,
		features.Tau,
		features.Ri,
		features.Sag,
		features.ThresholdILongSquare,
		features.ThresholdVLongSquare,
		features.PeakVLongSquare,
		features.FastTroughVLongSquare,
		features.TroughVLongSquare,
		features.UpstrokeDownstrokeRatioLongSquare,
		features.UpstrokeDownstrokeRatioShortSquare,
		features.Adaptation,
		features.AvgISI,
		features.FICurveSlope,
		features.Latency)

	return err
}

// UpsertMorphology inserts or refreshes a specimen's morphology feature row
func (r *PostgresFeatureRepository) UpsertMorphology(ctx context.Context, features *models.MorphologyFeatures) error {
	query := `
		INSERT INTO morphology_features (specimen_id, total_length, total_surface,
			total_volume, soma_surface, max_euclidean_distance, number_stems,
			number_bifurcations, number_tips, number_nodes, max_branch_order,
			overall_width, overall_height, overall_depth, average_diameter,
			cut_dendrite_count, no_reconstruction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		ON CONFLICT (specimen_id) DO UPDATE SET
			total_length = EXCLUDED.total_length,
			total_surface = EXCLUDED.total_surface,
			total_volume = EXCLUDED.total_volume,
			soma_surface = EXCLUDED.soma_surface,
			max_euclidean_distance = EXCLUDED.max_euclidean_distance,
			number_stems = EXCLUDED.number_stems,
			number_bifurcations = EXCLUDED.number_bifurcations,
			number_tips = EXCLUDED.number_tips,
			number_nodes = EXCLUDED.number_nodes,
			max_branch_order = EXCLUDED.max_branch_order,
			overall_width = EXCLUDED.overall_width,
			overall_height = EXCLUDED.overall_height,
			overall_depth = EXCLUDED.overall_depth,
			average_diameter = EXCLUDED.average_diameter,
			cut_dendrite_count = EXCLUDED.cut_dendrite_count,
			no_reconstruction = EXCLUDED.no_reconstruction`

	_, err := r.db.ExecContext(ctx, query,
		features.SpecimenID,
		features.TotalLength,
		features.TotalSurface,
		features.TotalVolume,
		features.SomaSurface,
		features.MaxEuclideanDist,
		features.NumberStems,
		features.NumberBifurcations,
		features.NumberTips,
		features.NumberNodes,
		features.MaxBranchOrder,
		features.OverallWidth,
		features.OverallHeight,
		features.OverallDepth,
		features.AverageDiameter,
		features.CutDendriteCount,
		features.NoReconstruction)

	return err
}

// GetEphys retrieves a specimen's ephys features
func (r *PostgresFeatureRepository) GetEphys(ctx context.Context, specimenID int64) (*models.EphysFeatures, error) {
	query := `SELECT ` + ephysColumns + ` FROM ephys_features WHERE specimen_id = $1`
	return scanEphys(r.db.QueryRowContext(ctx, query, specimenID))
}

// GetMorphology retrieves a specimen's morphology features
func (r *PostgresFeatureRepository) GetMorphology(ctx context.Context, specimenID int64) (*models.MorphologyFeatures, error) {
	query := `
		SELECT specimen_id, total_length, total_surface, total_volume,
			soma_surface, max_euclidean_distance, number_stems, number_bifurcations,
			number_tips, number_nodes, max_branch_order, overall_width,
			overall_height, overall_depth, average_diameter, cut_dendrite_count,
			no_reconstruction, created_at
		FROM morphology_features
		WHERE specimen_id = $1`

	var features models.MorphologyFeatures
	err := r.db.QueryRowContext(ctx, query, specimenID).Scan(
		&features.SpecimenID,
		&features.TotalLength,
		&features.TotalSurface,
		&features.TotalVolume,
		&features.SomaSurface,
		&features.MaxEuclideanDist,
		&features.NumberStems,
		&features.NumberBifurcations,
		&features.NumberTips,
		&features.NumberNodes,
		&features.MaxBranchOrder,
		&features.OverallWidth,
		&features.OverallHeight,
		&features.OverallDepth,
		&features.AverageDiameter,
		&features.CutDendriteCount,
		&features.NoReconstruction,
		&features.CreatedAt)

	if err != nil {
		return nil, err
	}

	return &features, nil
}

// ListRows retrieves the joined feature table used for plotting and export
func (r *PostgresFeatureRepository) ListRows(ctx context.Context, filter models.CellFilter) ([]models.FeatureRow, error) {
	args := []interface{}{}
	query := `
		SELECT c.species, c.dendrite_type, f.id, f.specimen_id, f.vrest, f.tau,
			f.ri, f.sag, f.threshold_i_long_square, f.threshold_v_long_square,
			f.peak_v_long_square, f.fast_trough_v_long_square,
			f.trough_v_long_square, f.upstroke_downstroke_ratio_long_square,
			f.upstroke_downstroke_ratio_short_square, f.adaptation, f.avg_isi,
			f.f_i_curve_slope, f.latency, f.created_at
		FROM ephys_features f
		JOIN cells c ON c.id = f.specimen_id` + cellFilterClause(filter, &args) + `
		ORDER BY c.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.FeatureRow
	for rows.Next() {
		var row models.FeatureRow
		features, err := scanFeatureRow(rows, &row)
		if err != nil {
			return nil, err
		}
		row.Features = *features
		row.SpecimenID = features.SpecimenID
		result = append(result, row)
	}

	return result, rows.Err()
}

func scanEphys(row rowScanner) (*models.EphysFeatures, error) {
	var features models.EphysFeatures
	var vals [15]sql.NullFloat64

	err := row.Scan(
		&features.ID,
		&features.SpecimenID,
		&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6],
		&vals[7], &vals[8], &vals[9], &vals[10], &vals[11], &vals[12], &vals[13],
		&vals[14],
		&features.CreatedAt)

	if err != nil {
		return nil, err
	}

	assignEphysValues(&features, vals)
	return &features, nil
}

func scanFeatureRow(row rowScanner, out *models.FeatureRow) (*models.EphysFeatures, error) {
	var features models.EphysFeatures
	var vals [15]sql.NullFloat64

	err := row.Scan(
		&out.Species,
		&out.DendriteType,
		&features.ID,
		&features.SpecimenID,
		&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6],
		&vals[7], &vals[8], &vals[9], &vals[10], &vals[11], &vals[12], &vals[13],
		&vals[14],
		&features.CreatedAt)

	if err != nil {
		return nil, err
	}

	assignEphysValues(&features, vals)
	return &features, nil
}

// assignEphysValues maps scanned columns onto the feature struct in the
// ephysColumns order
func assignEphysValues(features *models.EphysFeatures, vals [15]sql.NullFloat64) {
	features.Vrest = nullFloat(vals[0])
	features.Tau = nullFloat(vals[1])
	features.Ri = nullFloat(vals[2])
	features.Sag = nullFloat(vals[3])
	features.ThresholdILongSquare = nullFloat(vals[4])
	features.ThresholdVLongSquare = nullFloat(vals[5])
	features.PeakVLongSquare = nullFloat(vals[6])
	features.FastTroughVLongSquare = nullFloat(vals[7])
	features.TroughVLongSquare = nullFloat(vals[8])
	features.UpstrokeDownstrokeRatioLongSquare = nullFloat(vals[9])
	features.UpstrokeDownstrokeRatioShortSquare = nullFloat(vals[10])
	features.Adaptation = nullFloat(vals[11])
	features.AvgISI = nullFloat(vals[12])
	features.FICurveSlope = nullFloat(vals[13])
	features.Latency = nullFloat(vals[14])
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
