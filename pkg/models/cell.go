package models

import (
	"time"
)

// Dendrite type labels as reported by the upstream catalog.
const (
	DendriteSpiny         = "spiny"
	DendriteAspiny        = "aspiny"
	DendriteSparselySpiny = "sparsely spiny"
	DendriteNotApplicable = "NA"
)

// CellFilter narrows catalog queries. Zero values mean no filtering and
// Limit 0 means no page cap.
type CellFilter struct {
	Species      string
	DendriteType string
	RequireMorph bool
	Limit        int
	Offset       int
}

// Cell represents one specimen from the upstream cell catalog (for internal use)
type Cell struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Species        string     `json:"species"`
	Structure      string     `json:"structure"`
	StructureLayer string     `json:"structure_layer"`
	Hemisphere     string     `json:"hemisphere"`
	DendriteType   string     `json:"dendrite_type"`
	ApicalStatus   string     `json:"apical_status"`
	TransgenicLine *string    `json:"transgenic_line,omitempty"`
	ReporterStatus *string    `json:"reporter_status,omitempty"`
	HasMorphology  bool       `json:"has_morphology"`
	HasEphys       bool       `json:"has_ephys"`
	NWBKey         *string    `json:"nwb_key,omitempty"`
	SWCKey         *string    `json:"swc_key,omitempty"`
	MarkerKey      *string    `json:"marker_key,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
}
