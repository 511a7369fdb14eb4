package sweep

import (
	"fmt"
	"math"

	"github.com/dendralab/dendra/pkg/models"
)

// Traces arrive in SI units; plots and responses use mV and pA.
const (
	VoltsToMillivolts = 1e3
	AmpsToPicoamps    = 1e12
)

// Validate checks a raw trace for structural problems before any window or
// feature math runs on it
func Validate(t *models.SweepTrace) error {
	if t.SamplingRate <= 0 {
		return fmt.Errorf("sweep %d: sampling rate must be positive, got %g", t.SweepNumber, t.SamplingRate)
	}
	if len(t.Response) == 0 {
		return fmt.Errorf("sweep %d: empty response", t.SweepNumber)
	}
	if len(t.Stimulus) != len(t.Response) {
		return fmt.Errorf("sweep %d: stimulus length %d does not match response length %d",
			t.SweepNumber, len(t.Stimulus), len(t.Response))
	}
	i0, i1 := t.IndexRange[0], t.IndexRange[1]
	if i0 < 0 || i1 < i0 || i1 >= len(t.Response) {
		return fmt.Errorf("sweep %d: index range [%d,%d] outside %d samples",
			t.SweepNumber, i0, i1, len(t.Response))
	}
	return nil
}

// EpochBounds returns the stimulus epoch in seconds
func EpochBounds(t *models.SweepTrace) (startS, endS float64) {
	return float64(t.IndexRange[0]) / t.SamplingRate, float64(t.IndexRange[1]) / t.SamplingRate
}

// windowIndices resolves a second-based window to sample indices. Zero
// bounds fall back to the stimulus epoch; explicit bounds are clamped to the
// recording.
func windowIndices(t *models.SweepTrace, startS, endS float64) (int, int, error) {
	i0, i1 := t.IndexRange[0], t.IndexRange[1]
	if startS > 0 {
		i0 = int(math.Round(startS * t.SamplingRate))
	}
	if endS > 0 {
		i1 = int(math.Round(endS * t.SamplingRate))
	}
	if i0 < 0 {
		i0 = 0
	}
	if i1 >= len(t.Response) {
		i1 = len(t.Response) - 1
	}
	if i1 <= i0 {
		return 0, 0, fmt.Errorf("sweep %d: empty window [%gs,%gs]", t.SweepNumber, startS, endS)
	}
	return i0, i1, nil
}

// Points converts the requested window to plotting units, decimating evenly
// so at most maxPoints samples are returned. Zero window bounds default to
// the stimulus epoch.
func Points(t *models.SweepTrace, startS, endS float64, maxPoints int) ([]models.TracePoint, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	i0, i1, err := windowIndices(t, startS, endS)
	if err != nil {
		return nil, err
	}

	n := i1 - i0 + 1
	stride := 1
	if maxPoints > 0 && n > maxPoints {
		stride = (n + maxPoints - 1) / maxPoints
	}

	points := make([]models.TracePoint, 0, n/stride+1)
	for i := i0; i <= i1; i += stride {
		points = append(points, models.TracePoint{
			TimeS:     float64(i) / t.SamplingRate,
			VoltageMV: t.Response[i] * VoltsToMillivolts,
			CurrentPA: t.Stimulus[i] * AmpsToPicoamps,
		})
	}
	return points, nil
}
