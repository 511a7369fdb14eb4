package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// CellSummary represents one catalog row in list responses
type CellSummary struct {
	ID            int64  `json:"id" doc:"Specimen ID"`
	Name          string `json:"name" doc:"Specimen name"`
	Species       string `json:"species" doc:"Donor species"`
	Structure     string `json:"structure" doc:"Brain structure acronym"`
	Layer         string `json:"structure_layer" doc:"Cortical layer"`
	DendriteType  string `json:"dendrite_type" enum:"spiny,aspiny,sparsely spiny,NA" doc:"Dendrite type"`
	HasMorphology bool   `json:"has_morphology" doc:"Whether a reconstruction exists"`
	HasEphys      bool   `json:"has_ephys" doc:"Whether an ephys recording exists"`
}

// ListCellsRequest represents a request to list catalog cells
type ListCellsRequest struct {
	Species      string `query:"species" doc:"Filter by donor species (e.g. 'Homo Sapiens')"`
	DendriteType string `query:"dendrite_type" enum:",spiny,aspiny,sparsely spiny,NA" doc:"Filter by dendrite type"`
	RequireMorph bool   `query:"has_morphology" doc:"Only return cells with a reconstruction"`
	Limit        int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Page size"`
	Offset       int    `query:"offset" minimum:"0" doc:"Page offset"`
}

// ListCellsResponseBody is the body of the cell list response
type ListCellsResponseBody struct {
	Cells []CellSummary `json:"cells" doc:"Matching catalog cells"`
	Total int           `json:"total" doc:"Total matching cells before paging"`
}

// ListCellsResponse represents a page of catalog cells
type ListCellsResponse struct {
	Body ListCellsResponseBody
}

// GetCellRequest represents a request for one cell's detail record
type GetCellRequest struct {
	ID int64 `path:"id" doc:"Specimen ID"`
}

// GetCellResponseBody is the body of the cell detail response
type GetCellResponseBody struct {
	Cell       Cell                `json:"cell" doc:"Catalog record"`
	Ephys      *EphysFeatures      `json:"ephys_features,omitempty" doc:"Precomputed ephys features, if measured"`
	Morphology *MorphologyFeatures `json:"morphology_features,omitempty" doc:"Reconstruction metrics, if reconstructed"`
}

// GetCellResponse represents one cell's detail record
type GetCellResponse struct {
	Body GetCellResponseBody
}

// FeatureRow pairs a specimen's identity with its summary features
type FeatureRow struct {
	SpecimenID   int64         `json:"specimen_id" doc:"Specimen ID"`
	Species      string        `json:"species" doc:"Donor species"`
	DendriteType string        `json:"dendrite_type" doc:"Dendrite type"`
	Features     EphysFeatures `json:"features" doc:"Summary features"`
}

// ListFeaturesRequest represents a request for the feature table
type ListFeaturesRequest struct {
	Species      string `query:"species" doc:"Filter by donor species"`
	DendriteType string `query:"dendrite_type" enum:",spiny,aspiny,sparsely spiny,NA" doc:"Filter by dendrite type"`
	Limit        int    `query:"limit" default:"500" minimum:"1" maximum:"5000" doc:"Page size"`
	Offset       int    `query:"offset" minimum:"0" doc:"Page offset"`
}

// ListFeaturesResponseBody is the body of the feature table response
type ListFeaturesResponseBody struct {
	Rows  []FeatureRow `json:"rows" doc:"Feature rows"`
	Total int          `json:"total" doc:"Total rows before paging"`
}

// ListFeaturesResponse represents a page of the feature table
type ListFeaturesResponse struct {
	Body ListFeaturesResponseBody
}

// FeatureGroupStat represents one dendrite-type group in a feature summary
type FeatureGroupStat struct {
	DendriteType string  `json:"dendrite_type" doc:"Group label"`
	N            int     `json:"n" doc:"Cells with a value for this feature"`
	Mean         float64 `json:"mean" doc:"Group mean"`
	SEM          float64 `json:"sem" doc:"Standard error of the mean"`
	Min          float64 `json:"min" doc:"Group minimum"`
	Max          float64 `json:"max" doc:"Group maximum"`
}

// FeatureSummaryRequest represents a request for per-group feature statistics
type FeatureSummaryRequest struct {
	Feature string `query:"feature" required:"true" enum:"vrest,tau,ri,sag,threshold_i_long_square,threshold_v_long_square,peak_v_long_square,fast_trough_v_long_square,trough_v_long_square,upstroke_downstroke_ratio_long_square,upstroke_downstroke_ratio_short_square,adaptation,avg_isi,f_i_curve_slope,latency" doc:"Feature column to summarize"`
	Species string `query:"species" doc:"Filter by donor species"`
}

// FeatureSummaryResponseBody is the body of the feature summary response
type FeatureSummaryResponseBody struct {
	Feature string             `json:"feature" doc:"Summarized feature column"`
	Groups  []FeatureGroupStat `json:"groups" doc:"Statistics per dendrite type"`
}

// FeatureSummaryResponse represents per-dendrite-type feature statistics
type FeatureSummaryResponse struct {
	Body FeatureSummaryResponseBody
}

// ListSweepsRequest represents a request for a specimen's sweep index
type ListSweepsRequest struct {
	ID       int64  `path:"id" doc:"Specimen ID"`
	Stimulus string `query:"stimulus" doc:"Filter by stimulus name (e.g. 'Long Square')"`
}

// ListSweepsResponseBody is the body of the sweep index response
type ListSweepsResponseBody struct {
	SpecimenID int64       `json:"specimen_id" doc:"Specimen ID"`
	Sweeps     []SweepInfo `json:"sweeps" doc:"Recorded sweeps"`
}

// ListSweepsResponse represents a specimen's sweep index
type ListSweepsResponse struct {
	Body ListSweepsResponseBody
}

// GetSweepTraceRequest represents a request for one sweep's samples
type GetSweepTraceRequest struct {
	ID        int64   `path:"id" doc:"Specimen ID"`
	Number    int     `path:"number" doc:"Sweep number"`
	StartS    float64 `query:"start_s" minimum:"0" doc:"Window start in seconds (0 = stimulus epoch start)"`
	EndS      float64 `query:"end_s" minimum:"0" doc:"Window end in seconds (0 = stimulus epoch end)"`
	MaxPoints int     `query:"max_points" default:"5000" minimum:"100" maximum:"100000" doc:"Downsampling cap on returned points"`
}

// GetSweepTraceResponseBody is the body of the sweep trace response
type GetSweepTraceResponseBody struct {
	SpecimenID   int64        `json:"specimen_id" doc:"Specimen ID"`
	SweepNumber  int          `json:"sweep_number" doc:"Sweep number"`
	SamplingRate float64      `json:"sampling_rate" doc:"Samples per second"`
	Points       []TracePoint `json:"points" doc:"Samples in plotting units (mV, pA)"`
	SpikeTimesS  []float64    `json:"spike_times_s,omitempty" doc:"Detected spike times in seconds"`
}

// GetSweepTraceResponse represents one sweep's samples in plotting units
type GetSweepTraceResponse struct {
	Body GetSweepTraceResponseBody
}

// GetMorphologyRequest represents a request for a specimen's reconstruction
// metrics
type GetMorphologyRequest struct {
	ID int64 `path:"id" doc:"Specimen ID"`
}

// GetMorphologyResponseBody is the body of the morphology response
type GetMorphologyResponseBody struct {
	SpecimenID        int64              `json:"specimen_id" doc:"Specimen ID"`
	Features          MorphologyFeatures `json:"features" doc:"Reconstruction metrics"`
	CompartmentCounts map[string]int     `json:"compartment_counts" doc:"Node counts by compartment type"`
}

// GetMorphologyResponse represents a specimen's reconstruction metrics
type GetMorphologyResponse struct {
	Body GetMorphologyResponseBody
}

// SweepPlotRequest represents a request to render one sweep as a PNG
type SweepPlotRequest struct {
	ID     int64   `path:"id" doc:"Specimen ID"`
	Number int     `path:"number" doc:"Sweep number"`
	StartS float64 `query:"start_s" minimum:"0" doc:"Window start in seconds (0 = stimulus epoch start)"`
	EndS   float64 `query:"end_s" minimum:"0" doc:"Window end in seconds (0 = stimulus epoch end)"`
}

// MorphologyPlotRequest represents a request to render a reconstruction
// projection as a PNG
type MorphologyPlotRequest struct {
	ID    int64  `path:"id" doc:"Specimen ID"`
	Plane string `query:"plane" enum:"xy,xz,zy" default:"xy" doc:"Projection plane"`
}

// FeatureScatterRequest represents a request to render a feature scatterplot
// as a PNG
type FeatureScatterRequest struct {
	X       string `query:"x" default:"fast_trough_v_long_square" enum:"vrest,tau,ri,sag,threshold_i_long_square,threshold_v_long_square,peak_v_long_square,fast_trough_v_long_square,trough_v_long_square,upstroke_downstroke_ratio_long_square,upstroke_downstroke_ratio_short_square,adaptation,avg_isi,f_i_curve_slope,latency" doc:"X axis feature"`
	Y       string `query:"y" default:"upstroke_downstroke_ratio_long_square" enum:"vrest,tau,ri,sag,threshold_i_long_square,threshold_v_long_square,peak_v_long_square,fast_trough_v_long_square,trough_v_long_square,upstroke_downstroke_ratio_long_square,upstroke_downstroke_ratio_short_square,adaptation,avg_isi,f_i_curve_slope,latency" doc:"Y axis feature"`
	Species string `query:"species" doc:"Filter by donor species"`
}

// PlotResponse represents a rendered PNG image
type PlotResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// StartSyncRequest represents a request to start a catalog sync
type StartSyncRequest struct {
	Body struct {
		Species string `json:"species" enum:"Homo Sapiens,Mus musculus" required:"true" doc:"Donor species to sync"`
		Limit   int    `json:"limit" minimum:"1" maximum:"1000" default:"20" doc:"Maximum cells to sync"`
	}
}

// StartSyncResponse represents the response from starting a sync
type StartSyncResponse struct {
	Body struct {
		ID      string `json:"id" doc:"Sync job unique identifier"`
		Message string `json:"message" doc:"Confirmation message"`
	}
}

// GetSyncStatusRequest represents a request to get sync job status
type GetSyncStatusRequest struct {
	ID string `path:"id" doc:"Sync job ID"`
}

// GetSyncStatusResponseBody is the body of the sync status response
type GetSyncStatusResponseBody struct {
	ID          string  `json:"id" doc:"Sync job ID"`
	Status      string  `json:"status" enum:"pending,running,completed,failed" doc:"Job status"`
	Progress    int     `json:"progress" minimum:"0" maximum:"100" doc:"Job progress percentage"`
	CellsTotal  int     `json:"cells_total" doc:"Cells selected for this run"`
	CellsSynced int     `json:"cells_synced" doc:"Cells fully mirrored so far"`
	Message     string  `json:"message,omitempty" doc:"Human-readable status message"`
	Error       *string `json:"error,omitempty" doc:"Failure detail when status is failed"`
}

// GetSyncStatusResponse represents the current status of a sync job
type GetSyncStatusResponse struct {
	Body GetSyncStatusResponseBody
}
