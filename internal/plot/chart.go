package plot

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Canvas sizes in pixels.
const (
	chartWidth    = 900
	voltageHeight = 360
	currentHeight = 180
	morphSize     = 800

	// Rendering more samples than pixels buys nothing.
	maxPlotPoints = 3000
)

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

// lineStyle returns a thin connected-line style
func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 1.25,
	}
}

// paddedRange widens [min,max] by 5% so flat series still have a drawable
// span. go-chart rejects zero-size ranges.
func paddedRange(min, max float64) *chart.ContinuousRange {
	span := max - min
	if span == 0 {
		span = 2
		min--
		max++
	}
	pad := span * 0.05
	return &chart.ContinuousRange{Min: min - pad, Max: max + pad}
}

func minMax(vals []float64) (min, max float64) {
	min, max = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
