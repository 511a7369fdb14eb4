package models

// SweepInfo represents one recorded sweep's metadata as catalogued upstream
type SweepInfo struct {
	SpecimenID        int64    `json:"specimen_id"`
	SweepNumber       int      `json:"sweep_number"`
	StimulusName      string   `json:"stimulus_name"`
	StimulusUnits     string   `json:"stimulus_units"`
	StimulusAmplitude *float64 `json:"stimulus_absolute_amplitude,omitempty"`
	StimulusStart     *float64 `json:"stimulus_start_time,omitempty"`
	StimulusDuration  *float64 `json:"stimulus_duration,omitempty"`
	SamplingRate      float64  `json:"sampling_rate"`
	NumSpikes         *int     `json:"num_spikes,omitempty"`
	PreVmMV           *float64 `json:"pre_vm_mv,omitempty"`
	Passed            bool     `json:"passed"`
}

// SweepTrace represents the raw recorded samples for one sweep. Values are in
// SI units as delivered upstream: volts for the response, amps for the
// stimulus.
type SweepTrace struct {
	SpecimenID   int64     `json:"specimen_id"`
	SweepNumber  int       `json:"sweep_number"`
	SamplingRate float64   `json:"sampling_rate"`
	IndexRange   [2]int    `json:"index_range"`
	Response     []float64 `json:"response"`
	Stimulus     []float64 `json:"stimulus"`
}
