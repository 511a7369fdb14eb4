package plot

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dendralab/dendra/internal/features"
	"github.com/dendralab/dendra/pkg/models"
)

// Group colors follow the dendrite-type ranking; unknown labels fall back
// to gray.
var groupColors = map[string]drawing.Color{
	models.DendriteSpiny:         chart.ColorBlue,
	models.DendriteAspiny:        chart.ColorRed,
	models.DendriteSparselySpiny: chart.ColorGreen,
	models.DendriteNotApplicable: chart.ColorAlternateGray,
}

// RenderScatter draws one point per cell, colored by dendrite type
func RenderScatter(groups []features.XY, xLabel, yLabel string) ([]byte, error) {
	var xs, ys []float64
	series := make([]chart.Series, 0, len(groups))
	for _, g := range groups {
		if len(g.X) == 0 {
			continue
		}
		col, ok := groupColors[g.DendriteType]
		if !ok {
			col = chart.ColorAlternateGray
		}
		series = append(series, chart.ContinuousSeries{
			Name:    g.DendriteType,
			XValues: g.X,
			YValues: g.Y,
			Style:   pointStyle(col),
		})
		xs = append(xs, g.X...)
		ys = append(ys, g.Y...)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no complete feature pairs to plot")
	}

	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)
	ch := chart.Chart{
		Title:  fmt.Sprintf("%s vs %s", yLabel, xLabel),
		Width:  chartWidth,
		Height: voltageHeight + currentHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 8},
		},
		XAxis:  chart.XAxis{Name: xLabel, Range: paddedRange(xMin, xMax)},
		YAxis:  chart.YAxis{Name: yLabel, Range: paddedRange(yMin, yMax)},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render scatter: %w", err)
	}
	return buf.Bytes(), nil
}
