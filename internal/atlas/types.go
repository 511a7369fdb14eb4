package atlas

import (
	"encoding/json"
)

// Upstream model names used in RMA queries.
const (
	ModelSpecimenDetail = "ApiCellTypesSpecimenDetail"
	ModelEphysFeature   = "EphysFeature"
	ModelEphysSweep     = "EphysSweep"
	ModelReconstruction = "NeuronReconstruction"
)

// Well-known file type names attached to reconstructions.
const (
	FileType3DReconstruction = "3DNeuronReconstruction"
	FileType3DMarker         = "3DNeuronMarker"
)

// envelope is the RMA response wrapper. msg carries the row array on
// success and an error string on failure.
type envelope struct {
	Success   bool            `json:"success"`
	StartRow  int             `json:"start_row"`
	NumRows   int             `json:"num_rows"`
	TotalRows int             `json:"total_rows"`
	Msg       json.RawMessage `json:"msg"`
}

// SpecimenDetail mirrors one ApiCellTypesSpecimenDetail row: the flattened
// per-cell catalog record joining specimen, donor, structure, and file IDs
type SpecimenDetail struct {
	ID             int64   `json:"specimen__id"`
	Name           string  `json:"specimen__name"`
	Hemisphere     string  `json:"specimen__hemisphere"`
	Structure      string  `json:"structure__acronym"`
	Layer          string  `json:"structure__layer"`
	Species        string  `json:"donor__species"`
	LineName       *string `json:"line_name"`
	ReporterStatus *string `json:"cell_reporter_status"`
	DendriteType   *string `json:"dendrite_type"`
	Apical         *string `json:"apical"`
	ReconType      *string `json:"nr__reconstruction_type"`
	ReconFileID    *int64  `json:"nrwkf__id"`
	EphysFileID    *int64  `json:"erwkf__id"`
}

// EphysFeatureRecord mirrors one EphysFeature row. Every measurement can be
// null upstream
type EphysFeatureRecord struct {
	ID                                 int64    `json:"id"`
	SpecimenID                         int64    `json:"specimen_id"`
	Vrest                              *float64 `json:"vrest"`
	Tau                                *float64 `json:"tau"`
	Ri                                 *float64 `json:"ri"`
	Sag                                *float64 `json:"sag"`
	ThresholdILongSquare               *float64 `json:"threshold_i_long_square"`
	ThresholdVLongSquare               *float64 `json:"threshold_v_long_square"`
	PeakVLongSquare                    *float64 `json:"peak_v_long_square"`
	FastTroughVLongSquare              *float64 `json:"fast_trough_v_long_square"`
	TroughVLongSquare                  *float64 `json:"trough_v_long_square"`
	UpstrokeDownstrokeRatioLongSquare  *float64 `json:"upstroke_downstroke_ratio_long_square"`
	UpstrokeDownstrokeRatioShortSquare *float64 `json:"upstroke_downstroke_ratio_short_square"`
	Adaptation                         *float64 `json:"adaptation"`
	AvgISI                             *float64 `json:"avg_isi"`
	FICurveSlope                       *float64 `json:"f_i_curve_slope"`
	Latency                            *float64 `json:"latency"`
}

// SweepRecord mirrors one EphysSweep row
type SweepRecord struct {
	ID                int64    `json:"id"`
	SpecimenID        int64    `json:"specimen_id"`
	SweepNumber       int      `json:"sweep_number"`
	StimulusName      string   `json:"stimulus_name"`
	StimulusUnits     string   `json:"stimulus_units"`
	StimulusAmplitude *float64 `json:"stimulus_absolute_amplitude"`
	StimulusStart     *float64 `json:"stimulus_start_time"`
	StimulusDuration  *float64 `json:"stimulus_duration"`
	SamplingRate      float64  `json:"sampling_rate"`
	NumSpikes         *int     `json:"num_spikes"`
	PreVmMV           *float64 `json:"pre_vm_mv"`
	WorkflowState     string   `json:"workflow_state"`
}

// WellKnownFileType identifies the kind of a downloadable file
type WellKnownFileType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WellKnownFile is one downloadable file attached to an upstream record
type WellKnownFile struct {
	ID       int64              `json:"id"`
	Path     string             `json:"path"`
	FileType *WellKnownFileType `json:"well_known_file_type"`
}

// ReconstructionRecord mirrors one NeuronReconstruction row with its
// attached files included
type ReconstructionRecord struct {
	ID             int64           `json:"id"`
	SpecimenID     int64           `json:"specimen_id"`
	NumberNodes    int             `json:"number_nodes"`
	NumberBranches int             `json:"number_branches"`
	WellKnownFiles []WellKnownFile `json:"well_known_files"`
}

// SWCFileID returns the ID of the attached SWC reconstruction file, or 0
func (r *ReconstructionRecord) SWCFileID() int64 {
	return r.fileIDByType(FileType3DReconstruction)
}

// MarkerFileID returns the ID of the attached marker file, or 0
func (r *ReconstructionRecord) MarkerFileID() int64 {
	return r.fileIDByType(FileType3DMarker)
}

func (r *ReconstructionRecord) fileIDByType(name string) int64 {
	for _, f := range r.WellKnownFiles {
		if f.FileType != nil && f.FileType.Name == name {
			return f.ID
		}
	}
	return 0
}

// SweepTraceRecord is the raw sample payload for one sweep. Response values
// are volts and stimulus values are amps; index_range brackets the stimulus
// epoch within the full recording.
type SweepTraceRecord struct {
	SamplingRate float64   `json:"sampling_rate"`
	IndexRange   [2]int    `json:"index_range"`
	Response     []float64 `json:"response"`
	Stimulus     []float64 `json:"stimulus"`
}
