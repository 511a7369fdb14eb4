package plot

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/dendralab/dendra/pkg/models"
)

// RenderFICurve plots spike count against injected current amplitude, one
// point per sweep. Sweeps missing either value are skipped.
func RenderFICurve(specimenID int64, sweeps []models.SweepInfo) ([]byte, error) {
	type point struct {
		amp    float64
		spikes float64
	}
	var pts []point
	for _, s := range sweeps {
		if s.StimulusAmplitude == nil || s.NumSpikes == nil {
			continue
		}
		pts = append(pts, point{*s.StimulusAmplitude, float64(*s.NumSpikes)})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no sweeps carry both amplitude and spike count")
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].amp < pts[j].amp })

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.amp
		ys[i] = p.spikes
	}

	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)
	ch := chart.Chart{
		Title:  fmt.Sprintf("Specimen %d f-I curve", specimenID),
		Width:  chartWidth,
		Height: voltageHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 8},
		},
		XAxis: chart.XAxis{Name: "Stimulus amplitude (pA)", Range: paddedRange(xMin, xMax)},
		YAxis: chart.YAxis{Name: "Spikes per sweep", Range: paddedRange(yMin, yMax)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "spikes",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 1.5,
					DotWidth:    4,
					DotColor:    chart.ColorBlue,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render f-I curve: %w", err)
	}
	return buf.Bytes(), nil
}
