package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendralab/dendra/pkg/models"
)

func TestParseSpecimenID(t *testing.T) {
	id, err := parseSpecimenID("464212183")
	require.NoError(t, err)
	assert.Equal(t, int64(464212183), id)
}

func TestParseSpecimenIDInvalid(t *testing.T) {
	_, err := parseSpecimenID("not-a-number")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid specimen ID")
}

func TestSweepsPlotInvalidWindow(t *testing.T) {
	_, err := runCLI(t, "sweeps", "plot", "1", "2", "--start", "2", "--end", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not before end")
}

func TestSweepsFIInvalidSpecimenID(t *testing.T) {
	_, err := runCLI(t, "sweeps", "fi", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid specimen ID")
}

func TestSweepsFIFlagDefaults(t *testing.T) {
	cmd := newSweepsFICmd()
	assert.Equal(t, "", cmd.Flags().Lookup("out").DefValue)
}

func TestSweepsPlotInvalidSweepNumber(t *testing.T) {
	_, err := runCLI(t, "sweeps", "plot", "1", "two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sweep number")
}

func TestFormatAmplitude(t *testing.T) {
	amp := 150.0
	info := models.SweepInfo{StimulusAmplitude: &amp, StimulusUnits: "pA"}
	assert.Equal(t, "150.0 pA", formatAmplitude(info))
}

func TestFormatAmplitudeMissing(t *testing.T) {
	assert.Equal(t, "-", formatAmplitude(models.SweepInfo{}))
}

func TestFormatSpikes(t *testing.T) {
	n := 4
	assert.Equal(t, "4", formatSpikes(&n))
	assert.Equal(t, "-", formatSpikes(nil))
}
