package exporter

import (
	"math"
	"strconv"

	"github.com/dendralab/dendra/internal/features"
	"github.com/dendralab/dendra/pkg/models"
)

// FeatureHeaders returns the export column order: identity columns followed
// by every feature column
func FeatureHeaders() []string {
	headers := []string{"specimen_id", "species", "dendrite_type"}
	return append(headers, features.Columns...)
}

// FeatureRecords flattens feature rows for delimited export. Missing
// measurements become empty cells.
func FeatureRecords(rows []models.FeatureRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, 0, len(features.Columns)+3)
		record = append(record,
			strconv.FormatInt(row.SpecimenID, 10),
			row.Species,
			row.DendriteType,
		)
		for _, col := range features.Columns {
			record = append(record, formatValue(features.Value(row.Features, col)))
		}
		records = append(records, record)
	}
	return records
}

// MorphologyHeaders returns the morphology export column order
func MorphologyHeaders() []string {
	return []string{
		"specimen_id", "total_length", "total_surface", "total_volume",
		"soma_surface", "max_euclidean_distance", "number_stems",
		"number_bifurcations", "number_tips", "number_nodes",
		"max_branch_order", "overall_width", "overall_height", "overall_depth",
		"average_diameter", "cut_dendrite_count", "no_reconstruction",
	}
}

// MorphologyRecords flattens morphology metrics for delimited export
func MorphologyRecords(rows []models.MorphologyFeatures) [][]string {
	records := make([][]string, 0, len(rows))
	for _, m := range rows {
		records = append(records, []string{
			strconv.FormatInt(m.SpecimenID, 10),
			formatValue(m.TotalLength),
			formatValue(m.TotalSurface),
			formatValue(m.TotalVolume),
			formatValue(m.SomaSurface),
			formatValue(m.MaxEuclideanDist),
			strconv.Itoa(m.NumberStems),
			strconv.Itoa(m.NumberBifurcations),
			strconv.Itoa(m.NumberTips),
			strconv.Itoa(m.NumberNodes),
			strconv.Itoa(m.MaxBranchOrder),
			formatValue(m.OverallWidth),
			formatValue(m.OverallHeight),
			formatValue(m.OverallDepth),
			formatValue(m.AverageDiameter),
			strconv.Itoa(m.CutDendriteCount),
			strconv.FormatBool(m.NoReconstruction),
		})
	}
	return records
}

// SummaryHeaders returns the group-summary export columns
func SummaryHeaders() []string {
	return []string{"feature", "dendrite_type", "n", "mean", "sem", "min", "max"}
}

// SummaryRecords flattens per-group statistics for one feature
func SummaryRecords(feature string, stats []models.FeatureGroupStat) [][]string {
	records := make([][]string, 0, len(stats))
	for _, s := range stats {
		records = append(records, []string{
			feature,
			s.DendriteType,
			strconv.Itoa(s.N),
			formatValue(s.Mean),
			formatValue(s.SEM),
			formatValue(s.Min),
			formatValue(s.Max),
		})
	}
	return records
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
