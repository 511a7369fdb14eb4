package sweep

import (
	"math"

	"github.com/dendralab/dendra/pkg/models"
)

// Spike detection parameters, following the conventions used for
// patch-clamp feature extraction: a spike starts where dV/dt crosses
// 20 V/s, its peak must clear -30 mV, and the fast trough is the minimum
// within 5 ms after the peak.
const (
	dvdtCutoff   = 20.0   // V/s
	peakMinV     = -0.030 // V
	troughWindow = 0.005  // s
)

// Spike holds per-spike indices and derived measurements for one action
// potential. Voltages are in mV, slopes in V/s; indices refer to the raw
// trace.
type Spike struct {
	ThresholdIdx int
	PeakIdx      int
	TroughIdx    int
	ThresholdV   float64
	PeakV        float64
	FastTroughV  float64
	UpstrokeVS   float64
	DownstrokeVS float64
	Ratio        float64
}

// DetectSpikes finds action potentials within the stimulus epoch. Candidates
// whose peak stays below the peak floor are rejected, and a spike truncated
// by the epoch edge is dropped.
func DetectSpikes(t *models.SweepTrace) ([]Spike, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}

	v := t.Response
	rate := t.SamplingRate
	i0, i1 := t.IndexRange[0], t.IndexRange[1]

	// Forward difference in V/s, defined on [0, len(v)-2].
	dvdt := func(i int) float64 {
		return (v[i+1] - v[i]) * rate
	}

	var spikes []Spike
	for i := i0 + 1; i < i1; i++ {
		if dvdt(i) < dvdtCutoff || dvdt(i-1) >= dvdtCutoff {
			continue
		}
		threshold := i

		// Climb to the local maximum.
		peak := threshold
		for peak < i1 && v[peak+1] >= v[peak] {
			peak++
		}
		if peak >= i1 {
			break // truncated at the epoch edge
		}
		if v[peak] < peakMinV {
			i = peak
			continue
		}

		// Fast trough: minimum within the trough window after the peak.
		troughEnd := peak + int(math.Round(troughWindow*rate))
		if troughEnd > i1 {
			troughEnd = i1
		}
		if troughEnd == peak {
			break
		}
		trough := peak + 1
		for k := peak + 1; k <= troughEnd; k++ {
			if v[k] < v[trough] {
				trough = k
			}
		}

		upstroke := dvdt(threshold)
		for k := threshold; k < peak; k++ {
			if d := dvdt(k); d > upstroke {
				upstroke = d
			}
		}
		downstroke := dvdt(peak)
		for k := peak; k < trough; k++ {
			if d := dvdt(k); d < downstroke {
				downstroke = d
			}
		}

		s := Spike{
			ThresholdIdx: threshold,
			PeakIdx:      peak,
			TroughIdx:    trough,
			ThresholdV:   v[threshold] * VoltsToMillivolts,
			PeakV:        v[peak] * VoltsToMillivolts,
			FastTroughV:  v[trough] * VoltsToMillivolts,
			UpstrokeVS:   upstroke,
			DownstrokeVS: downstroke,
		}
		if downstroke < 0 {
			s.Ratio = upstroke / -downstroke
		}
		spikes = append(spikes, s)

		i = trough
	}
	return spikes, nil
}

// SpikeTimes returns threshold-crossing times in seconds
func SpikeTimes(t *models.SweepTrace, spikes []Spike) []float64 {
	times := make([]float64, len(spikes))
	for i, s := range spikes {
		times[i] = float64(s.ThresholdIdx) / t.SamplingRate
	}
	return times
}
