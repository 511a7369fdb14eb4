package models

import (
	"time"
)

// EphysFeatures represents the precomputed electrophysiology summary features
// for one specimen. Every measurement is nullable upstream, so all fields are
// pointers.
type EphysFeatures struct {
	ID                                 int64     `json:"id"`
	SpecimenID                         int64     `json:"specimen_id"`
	Vrest                              *float64  `json:"vrest,omitempty"`
	Tau                                *float64  `json:"tau,omitempty"`
	Ri                                 *float64  `json:"ri,omitempty"`
	Sag                                *float64  `json:"sag,omitempty"`
	ThresholdILongSquare               *float64  `json:"threshold_i_long_square,omitempty"`
	ThresholdVLongSquare               *float64  `json:"threshold_v_long_square,omitempty"`
	PeakVLongSquare                    *float64  `json:"peak_v_long_square,omitempty"`
	FastTroughVLongSquare              *float64  `json:"fast_trough_v_long_square,omitempty"`
	TroughVLongSquare                  *float64  `json:"trough_v_long_square,omitempty"`
	UpstrokeDownstrokeRatioLongSquare  *float64  `json:"upstroke_downstroke_ratio_long_square,omitempty"`
	UpstrokeDownstrokeRatioShortSquare *float64  `json:"upstroke_downstroke_ratio_short_square,omitempty"`
	Adaptation                         *float64  `json:"adaptation,omitempty"`
	AvgISI                             *float64  `json:"avg_isi,omitempty"`
	FICurveSlope                       *float64  `json:"f_i_curve_slope,omitempty"`
	Latency                            *float64  `json:"latency,omitempty"`
	CreatedAt                          time.Time `json:"created_at"`
}

// MorphologyFeatures represents metrics derived from a specimen's SWC
// reconstruction
type MorphologyFeatures struct {
	SpecimenID         int64     `json:"specimen_id"`
	TotalLength        float64   `json:"total_length"`
	TotalSurface       float64   `json:"total_surface"`
	TotalVolume        float64   `json:"total_volume"`
	SomaSurface        float64   `json:"soma_surface"`
	MaxEuclideanDist   float64   `json:"max_euclidean_distance"`
	NumberStems        int       `json:"number_stems"`
	NumberBifurcations int       `json:"number_bifurcations"`
	NumberTips         int       `json:"number_tips"`
	NumberNodes        int       `json:"number_nodes"`
	MaxBranchOrder     int       `json:"max_branch_order"`
	OverallWidth       float64   `json:"overall_width"`
	OverallHeight      float64   `json:"overall_height"`
	OverallDepth       float64   `json:"overall_depth"`
	AverageDiameter    float64   `json:"average_diameter"`
	CutDendriteCount   int       `json:"cut_dendrite_count"`
	NoReconstruction   bool      `json:"no_reconstruction"`
	CreatedAt          time.Time `json:"created_at"`
}
