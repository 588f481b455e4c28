package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tleonardi/pycoQC/pkg/seqsummary"
)

// executeCommand executes the command with args and captures its output.
func executeCommand(root *cobra.Command, args ...string) (stdout string, stderr string, err error) {
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)
	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetArgs(args)

	err = root.Execute()

	return stdoutBuf.String(), stderrBuf.String(), err
}

func TestRootCmdHelp(t *testing.T) {
	stdout, stderr, err := executeCommand(newRootCmd(), "--help")

	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "fast5-to-seq-summary -f <fast5Dir> -s <seqSummaryFn>")
	assert.Contains(t, stdout, "read_id", "Help lists the valid field names")
}

func TestRootCmdHelp_AllFlagsPresent(t *testing.T) {
	cmd := newRootCmd()
	stdout, _, err := executeCommand(cmd, "--help")
	require.NoError(t, err)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, stdout, "--"+f.Name, "Help output should contain flag --%s", f.Name)
		if f.Shorthand != "" && f.ShorthandDeprecated == "" {
			assert.Contains(t, stdout, "-"+f.Shorthand+",", "Help output should contain shorthand -%s", f.Shorthand)
		}
	})
}

func TestRootCmdVersion(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	version, commit, date = "test-1.2.3", "testcommit123", "2024-01-01T10:00:00Z"
	defer func() {
		version, commit, date = originalVersion, originalCommit, originalDate
	}()

	stdout, stderr, err := executeCommand(newRootCmd(), "--version")

	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, fmt.Sprintf("fast5-to-seq-summary version %s (commit: %s, built: %s)\n", version, commit, date), stdout)
}

func TestRootCmdFlagParsingErrors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		errorMsg string
	}{
		{name: "Unknown flag", args: []string{"--unknown-flag"}, errorMsg: "unknown flag: --unknown-flag"},
		{name: "Invalid int", args: []string{"-t", "abc"}, errorMsg: `invalid argument "abc" for "-t, --threads" flag`},
		{name: "Positional args", args: []string{"extra"}, errorMsg: `unknown command "extra"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, stderr, err := executeCommand(newRootCmd(), tc.args...)
			require.Error(t, err)
			assert.Contains(t, stderr, tc.errorMsg)
		})
	}
}

func TestRootCmd_Run(t *testing.T) {
	t.Run("MissingInputDirectory", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "summary.tsv")
		_, _, err := executeCommand(newRootCmd(), "-f", filepath.Join(t.TempDir(), "absent"), "-s", out, "--no-tui")
		require.Error(t, err)
		assert.ErrorIs(t, err, seqsummary.ErrConfigValidation)
		assert.Equal(t, exitConfig, exitCode(err))
		assert.NoFileExists(t, out)
	})

	t.Run("MissingRequiredPaths", func(t *testing.T) {
		_, _, err := executeCommand(newRootCmd(), "--no-tui")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--fast5-dir is required")
	})

	t.Run("EmptyInputDirectory", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "summary.tsv")
		stdout, _, err := executeCommand(newRootCmd(), "-f", t.TempDir(), "-s", out, "--no-tui", "--report-format", "yaml")
		require.Error(t, err)
		assert.ErrorIs(t, err, seqsummary.ErrNoInputFiles)
		assert.Equal(t, exitFailure, exitCode(err))
		assert.Contains(t, stdout, "state: terminated")
		assert.NoFileExists(t, out)
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitConfig, exitCode(fmt.Errorf("wrapped: %w", seqsummary.ErrConfigValidation)))
	assert.Equal(t, exitInterrupted, exitCode(fmt.Errorf("%w: %w", seqsummary.ErrRunAborted, seqsummary.ErrInterrupted)))
	assert.Equal(t, exitInterrupted, exitCode(fmt.Errorf("%w: %w", seqsummary.ErrInterrupted, context.Canceled)))
}
