package sweep

import (
	"strings"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/pkg/models"
)

// InfoFromRecord maps an upstream sweep row onto the API model. A sweep
// counts as passed when its workflow state ends in "passed", which covers
// both manual and auto review outcomes.
func InfoFromRecord(rec *atlas.SweepRecord) models.SweepInfo {
	return models.SweepInfo{
		SpecimenID:        rec.SpecimenID,
		SweepNumber:       rec.SweepNumber,
		StimulusName:      rec.StimulusName,
		StimulusUnits:     rec.StimulusUnits,
		StimulusAmplitude: rec.StimulusAmplitude,
		StimulusStart:     rec.StimulusStart,
		StimulusDuration:  rec.StimulusDuration,
		SamplingRate:      rec.SamplingRate,
		NumSpikes:         rec.NumSpikes,
		PreVmMV:           rec.PreVmMV,
		Passed:            strings.HasSuffix(rec.WorkflowState, "passed"),
	}
}

// TraceFromRecord attaches specimen identity to a raw trace payload
func TraceFromRecord(specimenID int64, sweepNumber int, rec *atlas.SweepTraceRecord) *models.SweepTrace {
	return &models.SweepTrace{
		SpecimenID:   specimenID,
		SweepNumber:  sweepNumber,
		SamplingRate: rec.SamplingRate,
		IndexRange:   rec.IndexRange,
		Response:     rec.Response,
		Stimulus:     rec.Stimulus,
	}
}
