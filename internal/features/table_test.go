package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendralab/dendra/pkg/models"
)

func fp(v float64) *float64 { return &v }

func testRows() []models.FeatureRow {
	return []models.FeatureRow{
		{
			SpecimenID:   1,
			Species:      "Homo Sapiens",
			DendriteType: models.DendriteSpiny,
			Features: models.EphysFeatures{
				UpstrokeDownstrokeRatioLongSquare: fp(3.0),
				FastTroughVLongSquare:             fp(-55.0),
				Vrest:                             fp(-72.0),
			},
		},
		{
			SpecimenID:   2,
			Species:      "Homo Sapiens",
			DendriteType: models.DendriteSpiny,
			Features: models.EphysFeatures{
				UpstrokeDownstrokeRatioLongSquare: fp(5.0),
				FastTroughVLongSquare:             fp(-65.0),
				Vrest:                             fp(-70.0),
			},
		},
		{
			SpecimenID:   3,
			Species:      "Homo Sapiens",
			DendriteType: models.DendriteAspiny,
			Features: models.EphysFeatures{
				UpstrokeDownstrokeRatioLongSquare: fp(1.5),
				FastTroughVLongSquare:             fp(-60.0),
			},
		},
		{
			SpecimenID:   4,
			Species:      "Homo Sapiens",
			DendriteType: models.DendriteNotApplicable,
			Features:     models.EphysFeatures{},
		},
	}
}

func TestTable(t *testing.T) {
	dt := Table(testRows())

	assert.Equal(t, 4, dt.Rows)
	assert.Equal(t, float64(1), dt.CellFloat(ColSpecimenID, 0))
	assert.Equal(t, models.DendriteSpiny, dt.CellString(ColDendriteType, 0))
	assert.Equal(t, 3.0, dt.CellFloat("upstroke_downstroke_ratio_long_square", 0))

	// Missing measurements become NaN.
	assert.True(t, math.IsNaN(dt.CellFloat("vrest", 2)))
	assert.True(t, math.IsNaN(dt.CellFloat("upstroke_downstroke_ratio_long_square", 3)))
}

func TestValue(t *testing.T) {
	f := models.EphysFeatures{Vrest: fp(-70.0)}
	assert.Equal(t, -70.0, Value(f, "vrest"))
	assert.True(t, math.IsNaN(Value(f, "tau")))
	assert.True(t, math.IsNaN(Value(f, "no_such_column")))
}

func TestIsColumn(t *testing.T) {
	assert.True(t, IsColumn("vrest"))
	assert.True(t, IsColumn("upstroke_downstroke_ratio_long_square"))
	assert.False(t, IsColumn("SpecimenID"))
	assert.False(t, IsColumn(""))
}

func TestSummary(t *testing.T) {
	dt := Table(testRows())

	stats, err := Summary(dt, "upstroke_downstroke_ratio_long_square")
	require.NoError(t, err)

	// The NA group has no measured values and is dropped.
	require.Len(t, stats, 2)

	spiny := stats[0]
	assert.Equal(t, models.DendriteSpiny, spiny.DendriteType)
	assert.Equal(t, 2, spiny.N)
	assert.InDelta(t, 4.0, spiny.Mean, 1e-9)
	assert.InDelta(t, 1.0, spiny.SEM, 1e-9)
	assert.InDelta(t, 3.0, spiny.Min, 1e-9)
	assert.InDelta(t, 5.0, spiny.Max, 1e-9)

	aspiny := stats[1]
	assert.Equal(t, models.DendriteAspiny, aspiny.DendriteType)
	assert.Equal(t, 1, aspiny.N)
	assert.InDelta(t, 1.5, aspiny.Mean, 1e-9)
	assert.Zero(t, aspiny.SEM)
}

func TestSummaryUnknownColumn(t *testing.T) {
	dt := Table(testRows())
	_, err := Summary(dt, "bogus")
	assert.Error(t, err)
}

func TestSummaryEmptyTable(t *testing.T) {
	dt := Table(nil)
	stats, err := Summary(dt, "vrest")
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestGroupMean(t *testing.T) {
	dt := Table(testRows())

	mean := GroupMean(dt, models.DendriteSpiny, "upstroke_downstroke_ratio_long_square")
	assert.InDelta(t, 4.0, mean, 1e-9)

	// No aspiny vrest values were recorded.
	assert.True(t, math.IsNaN(GroupMean(dt, models.DendriteAspiny, "vrest")))

	// No sparsely spiny cells at all.
	assert.True(t, math.IsNaN(GroupMean(dt, models.DendriteSparselySpiny, "vrest")))
}

func TestScatterData(t *testing.T) {
	dt := Table(testRows())

	groups, err := ScatterData(dt, "fast_trough_v_long_square", "upstroke_downstroke_ratio_long_square")
	require.NoError(t, err)

	// Specimen 4 has neither value; spiny sorts before aspiny.
	require.Len(t, groups, 2)
	assert.Equal(t, models.DendriteSpiny, groups[0].DendriteType)
	assert.Equal(t, []float64{-55, -65}, groups[0].X)
	assert.Equal(t, []float64{3, 5}, groups[0].Y)
	assert.Equal(t, models.DendriteAspiny, groups[1].DendriteType)
	assert.Equal(t, []float64{-60}, groups[1].X)
}

func TestScatterDataDropsIncompletePairs(t *testing.T) {
	rows := testRows()
	rows[0].Features.FastTroughVLongSquare = nil
	dt := Table(rows)

	groups, err := ScatterData(dt, "fast_trough_v_long_square", "upstroke_downstroke_ratio_long_square")
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, []float64{-65}, groups[0].X)
}

func TestScatterDataUnknownColumn(t *testing.T) {
	dt := Table(testRows())
	_, err := ScatterData(dt, "bogus", "vrest")
	assert.Error(t, err)
	_, err = ScatterData(dt, "vrest", "bogus")
	assert.Error(t, err)
}
