package plot

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendralab/dendra/internal/features"
	"github.com/dendralab/dendra/internal/morph"
	"github.com/dendralab/dendra/pkg/models"
)

func testTrace() *models.SweepTrace {
	n := 200
	trace := &models.SweepTrace{
		SpecimenID:   464212183,
		SweepNumber:  35,
		SamplingRate: 2000,
		IndexRange:   [2]int{20, 180},
		Response:     make([]float64, n),
		Stimulus:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		trace.Response[i] = -0.070
		if i >= 40 && i < 160 {
			trace.Stimulus[i] = 1e-10
		}
	}
	return trace
}

func decodeDims(t *testing.T, img []byte) (int, int) {
	t.Helper()
	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	b := decoded.Bounds()
	return b.Dx(), b.Dy()
}

func TestRenderSweep(t *testing.T) {
	img, err := RenderSweep(testTrace(), 0, 0)
	require.NoError(t, err)

	w, h := decodeDims(t, img)
	assert.Equal(t, chartWidth, w)
	assert.Equal(t, voltageHeight+currentHeight, h)
}

func TestRenderSweepInvalidTrace(t *testing.T) {
	trace := testTrace()
	trace.SamplingRate = 0

	_, err := RenderSweep(trace, 0, 0)
	assert.Error(t, err)
}

func TestRenderSweepEmptyWindow(t *testing.T) {
	_, err := RenderSweep(testTrace(), 5.0, 6.0)
	assert.Error(t, err)
}

func TestRenderScatter(t *testing.T) {
	groups := []features.XY{
		{DendriteType: models.DendriteSpiny, X: []float64{1, 2, 3}, Y: []float64{2.1, 3.4, 4.2}},
		{DendriteType: models.DendriteAspiny, X: []float64{1.5}, Y: []float64{2.5}},
	}

	img, err := RenderScatter(groups, "fast_trough_v_long_square", "upstroke_downstroke_ratio_long_square")
	require.NoError(t, err)

	w, h := decodeDims(t, img)
	assert.Equal(t, chartWidth, w)
	assert.Equal(t, voltageHeight+currentHeight, h)
}

func TestRenderScatterNoData(t *testing.T) {
	_, err := RenderScatter([]features.XY{{DendriteType: models.DendriteSpiny}}, "x", "y")
	assert.ErrorContains(t, err, "no complete feature pairs")
}

const plotSWC = `# test reconstruction
1 1 0 0 0 5 -1
2 3 0 10 0 1 1
3 3 0 20 0 1 2
4 2 10 0 0 1 1
5 4 0 -15 5 1 1
`

func TestRenderMorphology(t *testing.T) {
	m, err := morph.ParseSWC(strings.NewReader(plotSWC))
	require.NoError(t, err)
	markers := []morph.Marker{
		{Radius: 2, Name: morph.MarkerCutDendrite},
	}

	for _, plane := range []string{"xy", "xz", "zy"} {
		img, err := RenderMorphology(m, markers, plane)
		require.NoError(t, err, "plane %s", plane)

		w, h := decodeDims(t, img)
		assert.Equal(t, morphSize, w)
		assert.Equal(t, morphSize, h)
	}
}

func TestRenderMorphologyBadPlane(t *testing.T) {
	m, err := morph.ParseSWC(strings.NewReader(plotSWC))
	require.NoError(t, err)

	_, err = RenderMorphology(m, nil, "yy")
	assert.ErrorContains(t, err, "projection plane")
}

func TestRenderFICurve(t *testing.T) {
	fp := func(v float64) *float64 { return &v }
	ip := func(v int) *int { return &v }
	sweeps := []models.SweepInfo{
		{SweepNumber: 1, StimulusAmplitude: fp(150), NumSpikes: ip(4)},
		{SweepNumber: 2, StimulusAmplitude: fp(50), NumSpikes: ip(0)},
		{SweepNumber: 3, StimulusAmplitude: fp(100)},
		{SweepNumber: 4, StimulusAmplitude: fp(250), NumSpikes: ip(11)},
	}

	img, err := RenderFICurve(464212183, sweeps)
	require.NoError(t, err)

	w, h := decodeDims(t, img)
	assert.Equal(t, chartWidth, w)
	assert.Equal(t, voltageHeight, h)
}

func TestRenderFICurveNoData(t *testing.T) {
	_, err := RenderFICurve(1, []models.SweepInfo{{SweepNumber: 1}})
	assert.ErrorContains(t, err, "amplitude and spike count")
}

func TestRenderHistogram(t *testing.T) {
	values := []float64{1, 1.2, 1.4, 2.0, 2.1, 3.5, math.NaN(), 4.2, 4.3}

	img, err := RenderHistogram(values, "upstroke_downstroke_ratio_long_square", 0)
	require.NoError(t, err)

	w, h := decodeDims(t, img)
	assert.Equal(t, chartWidth, w)
	assert.Equal(t, voltageHeight, h)
}

func TestRenderHistogramNoValues(t *testing.T) {
	_, err := RenderHistogram([]float64{math.NaN()}, "vrest", 5)
	assert.ErrorContains(t, err, "no values")
}

func TestPaddedRangeFlatSeries(t *testing.T) {
	r := paddedRange(-70, -70)
	assert.Less(t, r.Min, -70.0)
	assert.Greater(t, r.Max, -70.0)
}
