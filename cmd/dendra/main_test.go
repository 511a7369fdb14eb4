package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dendra dev")
	assert.Contains(t, out, "commit: none")
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.2.0", "abc123", "2026-02-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dendra 1.2.0 (commit: abc123, built: 2026-02-01)\n", out)
}

func TestRootCmdListsSubcommands(t *testing.T) {
	out, err := runCLI(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"version", "doctor", "sync", "cells", "features", "sweeps", "morph", "compare"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmdNoArgs(t *testing.T) {
	// Root command with no args should print help (not error)
	_, err := runCLI(t)
	require.NoError(t, err)
}

func TestExecuteSuccess(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"version"})

	assert.Equal(t, 0, execute(cmd))
}

func TestExecuteError(t *testing.T) {
	cmd := &cobra.Command{
		Use:           "failing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("intentional error")
		},
	}
	assert.Equal(t, 1, execute(cmd))
}
