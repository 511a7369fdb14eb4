package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dendralab/dendra/pkg/models"
)

func fp(v float64) *float64 { return &v }

func testRows() []models.FeatureRow {
	return []models.FeatureRow{
		{
			SpecimenID:   464212183,
			Species:      "Homo Sapiens",
			DendriteType: models.DendriteSpiny,
			Features: models.EphysFeatures{
				Vrest:                             fp(-71.5),
				FastTroughVLongSquare:             fp(-55.0),
				UpstrokeDownstrokeRatioLongSquare: fp(3.2),
			},
		},
		{
			SpecimenID:   525011903,
			Species:      "Mus musculus",
			DendriteType: models.DendriteAspiny,
			Features: models.EphysFeatures{
				UpstrokeDownstrokeRatioLongSquare: fp(1.5),
			},
		},
	}
}

func TestFeatureRecords(t *testing.T) {
	records := FeatureRecords(testRows())
	require.Len(t, records, 2)
	require.Len(t, records[0], len(FeatureHeaders()))

	assert.Equal(t, "464212183", records[0][0])
	assert.Equal(t, "Homo Sapiens", records[0][1])
	assert.Equal(t, models.DendriteSpiny, records[0][2])

	// vrest is the first feature column.
	assert.Equal(t, "-71.5", records[0][3])

	// Missing measurements export as empty cells.
	assert.Equal(t, "", records[1][3])
}

func TestMorphologyRecords(t *testing.T) {
	rows := []models.MorphologyFeatures{
		{
			SpecimenID:     464212183,
			TotalLength:    1203.5,
			NumberStems:    4,
			MaxBranchOrder: 6,
		},
	}

	records := MorphologyRecords(rows)
	require.Len(t, records, 1)
	require.Len(t, records[0], len(MorphologyHeaders()))
	assert.Equal(t, "464212183", records[0][0])
	assert.Equal(t, "1203.5", records[0][1])
	assert.Equal(t, "4", records[0][6])
	assert.Equal(t, "6", records[0][10])
	assert.Equal(t, "false", records[0][16])
}

func TestSummaryRecords(t *testing.T) {
	stats := []models.FeatureGroupStat{
		{DendriteType: models.DendriteSpiny, N: 2, Mean: 4, SEM: 1, Min: 3, Max: 5},
	}

	records := SummaryRecords("upstroke_downstroke_ratio_long_square", stats)
	require.Len(t, records, 1)
	assert.Equal(t, []string{
		"upstroke_downstroke_ratio_long_square", "spiny", "2", "4", "1", "3", "5",
	}, records[0])
}

func TestWriteSimpleCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	err := w.WriteSimpleCSV("exports/ephys_features.csv", FeatureHeaders(), FeatureRecords(testRows()))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "exports", "ephys_features.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "specimen_id,species,dendrite_type,vrest")
	assert.Contains(t, lines[1], "464212183")
}

func TestAppendToCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteSimpleCSV("f.csv", []string{"a", "b"}, [][]string{{"1", "2"}}))
	require.NoError(t, w.AppendToCSV("f.csv", [][]string{{"3", "4"}}))

	raw, err := os.ReadFile(filepath.Join(dir, "f.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 3)
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.xlsx")
	stats := []models.FeatureGroupStat{
		{DendriteType: models.DendriteSpiny, N: 1, Mean: 3.2, SEM: 0, Min: 3.2, Max: 3.2},
	}

	err := WriteWorkbook(path, testRows(), "upstroke_downstroke_ratio_long_square", stats)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(featureSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "specimen_id", rows[0][0])
	assert.Equal(t, "464212183", rows[1][0])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "spiny", summary[1][1])
	assert.Equal(t, "1", summary[1][2])
}

func TestWriteWorkbookNoSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.xlsx")

	err := WriteWorkbook(path, testRows(), "", nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{featureSheet}, f.GetSheetList())
}
