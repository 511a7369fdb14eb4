package plot

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/dendralab/dendra/internal/sweep"
	"github.com/dendralab/dendra/pkg/models"
)

// RenderSweep draws one sweep as two stacked panels: membrane voltage on
// top, injected current below, sharing the time axis. Zero window bounds
// default to the stimulus epoch.
func RenderSweep(trace *models.SweepTrace, startS, endS float64) ([]byte, error) {
	points, err := sweep.Points(trace, startS, endS, maxPlotPoints)
	if err != nil {
		return nil, err
	}

	times := make([]float64, len(points))
	volts := make([]float64, len(points))
	currents := make([]float64, len(points))
	for i, p := range points {
		times[i] = p.TimeS
		volts[i] = p.VoltageMV
		currents[i] = p.CurrentPA
	}

	vMin, vMax := minMax(volts)
	voltage := chart.Chart{
		Title:  fmt.Sprintf("Specimen %d sweep %d", trace.SpecimenID, trace.SweepNumber),
		Width:  chartWidth,
		Height: voltageHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 8},
		},
		XAxis: chart.XAxis{Name: "Time (s)"},
		YAxis: chart.YAxis{Name: "Membrane potential (mV)", Range: paddedRange(vMin, vMax)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Vm",
				XValues: times,
				YValues: volts,
				Style:   lineStyle(chart.ColorBlue),
			},
		},
	}

	cMin, cMax := minMax(currents)
	current := chart.Chart{
		Width:  chartWidth,
		Height: currentHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 8, Left: 16, Right: 12, Bottom: 8},
		},
		XAxis: chart.XAxis{Name: "Time (s)"},
		YAxis: chart.YAxis{Name: "Injected current (pA)", Range: paddedRange(cMin, cMax)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "I",
				XValues: times,
				YValues: currents,
				Style:   lineStyle(chart.ColorAlternateGray),
			},
		},
	}

	var vBuf, cBuf bytes.Buffer
	if err := voltage.Render(chart.PNG, &vBuf); err != nil {
		return nil, fmt.Errorf("failed to render voltage panel: %w", err)
	}
	if err := current.Render(chart.PNG, &cBuf); err != nil {
		return nil, fmt.Errorf("failed to render current panel: %w", err)
	}

	return stackPNGs(vBuf.Bytes(), cBuf.Bytes())
}
