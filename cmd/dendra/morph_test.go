package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMorphPlotUnknownPlane(t *testing.T) {
	_, err := runCLI(t, "morph", "plot", "1", "--plane", "ab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown projection plane")
}

func TestMorphPlotFlagDefaults(t *testing.T) {
	cmd := newMorphPlotCmd()
	assert.Equal(t, "xy", cmd.Flags().Lookup("plane").DefValue)
	assert.Equal(t, "", cmd.Flags().Lookup("out").DefValue)
}
