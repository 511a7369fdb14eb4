package models

// TracePoint represents a single sweep sample in plotting units
type TracePoint struct {
	TimeS     float64 `json:"time_s" doc:"Time in seconds"`
	VoltageMV float64 `json:"voltage_mv" doc:"Membrane voltage in millivolts"`
	CurrentPA float64 `json:"current_pa" doc:"Injected current in picoamps"`
}
