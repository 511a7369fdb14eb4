package plot

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
)

const defaultHistogramBins = 12

// RenderHistogram draws a binned distribution of one feature column. NaN
// values are dropped before binning.
func RenderHistogram(values []float64, label string, bins int) ([]byte, error) {
	var clean []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("no values to bin")
	}
	if bins <= 0 {
		bins = defaultHistogramBins
	}

	min, max := minMax(clean)
	if min == max {
		min--
		max++
	}
	binWidth := (max - min) / float64(bins)
	counts := make([]int, bins)
	for _, v := range clean {
		idx := int((v - min) / binWidth)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	maxCount := 0
	bars := make([]chart.Value, bins)
	for i, c := range counts {
		center := min + (float64(i)+0.5)*binWidth
		bars[i] = chart.Value{
			Value: float64(c),
			Label: strconv.FormatFloat(center, 'g', 3, 64),
		}
		if c > maxCount {
			maxCount = c
		}
	}

	bc := chart.BarChart{
		Title:  fmt.Sprintf("%s distribution", label),
		Width:  chartWidth,
		Height: voltageHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 8},
		},
		BarWidth: chartWidth / (bins + 3),
		YAxis: chart.YAxis{
			Name:  "Cells",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) + 1},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render histogram: %w", err)
	}
	return buf.Bytes(), nil
}
