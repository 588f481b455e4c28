package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tleonardi/pycoQC/pkg/seqsummary"
)

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, content string, format string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), fmt.Sprintf("config.%s", format))
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	return filePath
}

// defineAllFlags mirrors the flag definitions of cmd/fast5-to-seq-summary/root.go.
func defineAllFlags(flags *pflag.FlagSet) {
	flags.StringP("fast5-dir", "f", "", "Input directory")
	flags.StringP("seq-summary-fn", "s", "", "Output file")
	flags.String("config", "", "Config file")
	flags.String("profile", "", "Config profile")
	flags.Int("max-fast5", seqsummary.DefaultMaxFiles, "Maximum number of files")
	flags.IntP("threads", "t", seqsummary.DefaultThreads, "Total threads")
	flags.Int("basecall-id", seqsummary.DefaultBasecallID, "Basecall group index")
	flags.StringSlice("fields", nil, "Fields to extract")
	flags.Bool("include-path", seqsummary.DefaultIncludePath, "Add path column")
	flags.Int("verbose-level", seqsummary.DefaultVerbosity, "Verbosity")
	flags.String("report-format", string(seqsummary.DefaultReportFormat), "Report format")
	flags.String("sqlite", "", "SQLite export")
	flags.Int("queue-size", seqsummary.DefaultQueueSize, "Queue size")
	flags.Bool("no-tui", false, "Disable TUI")
}

func newFlags(t *testing.T, in, out string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	defineAllFlags(flags)
	if in != "" {
		require.NoError(t, flags.Set("fast5-dir", in))
	}
	if out != "" {
		require.NoError(t, flags.Set("seq-summary-fn", out))
	}
	return flags
}

func TestLoadAndValidate_Defaults(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "summary.tsv")

	opts, logger, err := LoadAndValidate("", "", "1.2.3", newFlags(t, in, out))

	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NotNil(t, opts.Logger)
	assert.Equal(t, in, opts.InputPath)
	assert.Equal(t, out, opts.OutputPath)
	assert.Equal(t, seqsummary.DefaultThreads, opts.Threads)
	assert.Equal(t, seqsummary.DefaultMaxFiles, opts.MaxFiles)
	assert.Equal(t, seqsummary.DefaultBasecallID, opts.BasecallID)
	assert.Equal(t, seqsummary.DefaultFields, opts.Fields)
	assert.Equal(t, seqsummary.DefaultQueueSize, opts.QueueSize)
	assert.Equal(t, seqsummary.ReportFormatText, opts.ReportFormat)
	assert.False(t, opts.IncludePath)
	assert.True(t, opts.TuiEnabled, "TUI should be enabled by default")
	assert.Empty(t, opts.SQLitePath)
	assert.Empty(t, opts.ConfigFilePath)
	assert.Equal(t, "1.2.3", opts.AppVersion)
}

func TestLoadAndValidate_ConfigFile_YAML(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "summary.tsv")
	cfgFile := createTempConfigFile(t, `
threads: 8
maxFast5: 100
basecallId: 1
includePath: true
reportFormat: json
fields:
  - read_id
  - sequence_length_template
verboseLevel: 1
`, "yaml")

	opts, _, err := LoadAndValidate(cfgFile, "", "dev", newFlags(t, in, out))

	require.NoError(t, err)
	assert.Equal(t, cfgFile, opts.ConfigFilePath)
	assert.Equal(t, 8, opts.Threads)
	assert.Equal(t, 100, opts.MaxFiles)
	assert.Equal(t, 1, opts.BasecallID)
	assert.True(t, opts.IncludePath)
	assert.Equal(t, seqsummary.ReportFormatJSON, opts.ReportFormat)
	assert.Equal(t, []string{"read_id", "sequence_length_template"}, opts.Fields)
	assert.Equal(t, 1, opts.Verbosity)
}

func TestLoadAndValidate_ConfigFileProvidesPaths(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "summary.tsv")
	cfgFile := createTempConfigFile(t, fmt.Sprintf("fast5Dir: %q\nseqSummaryFn: %q\n", in, out), "yaml")

	opts, _, err := LoadAndValidate(cfgFile, "", "dev", newFlags(t, "", ""))

	require.NoError(t, err)
	assert.Equal(t, in, opts.InputPath)
	assert.Equal(t, out, opts.OutputPath)
}

func TestLoadAndValidate_Profile(t *testing.T) {
	cfgFile := createTempConfigFile(t, `
threads: 8
includePath: false
profiles:
  ci:
    threads: 3
    includePath: true
`, "yaml")

	t.Run("ProfileOverridesBase", func(t *testing.T) {
		opts, _, err := LoadAndValidate(cfgFile, "ci", "dev", newFlags(t, t.TempDir(), filepath.Join(t.TempDir(), "o.tsv")))
		require.NoError(t, err)
		assert.Equal(t, "ci", opts.ProfileName)
		assert.Equal(t, 3, opts.Threads)
		assert.True(t, opts.IncludePath)
	})

	t.Run("FlagOverridesProfile", func(t *testing.T) {
		flags := newFlags(t, t.TempDir(), filepath.Join(t.TempDir(), "o.tsv"))
		require.NoError(t, flags.Set("threads", "6"))
		opts, _, err := LoadAndValidate(cfgFile, "ci", "dev", flags)
		require.NoError(t, err)
		assert.Equal(t, 6, opts.Threads)
	})

	t.Run("UnknownProfile", func(t *testing.T) {
		_, _, err := LoadAndValidate(cfgFile, "nightly", "dev", newFlags(t, t.TempDir(), filepath.Join(t.TempDir(), "o.tsv")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profile 'nightly' not found")
	})
}

func TestLoadAndValidate_EnvOverridesConfig(t *testing.T) {
	cfgFile := createTempConfigFile(t, "threads: 8\n", "yaml")
	t.Setenv(EnvPrefix+"_THREADS", "5")
	t.Setenv(EnvPrefix+"_REPORTFORMAT", "yaml")

	opts, _, err := LoadAndValidate(cfgFile, "", "dev", newFlags(t, t.TempDir(), filepath.Join(t.TempDir(), "o.tsv")))

	require.NoError(t, err)
	assert.Equal(t, 5, opts.Threads)
	assert.Equal(t, seqsummary.ReportFormatYAML, opts.ReportFormat)
}

func TestLoadAndValidate_Flags(t *testing.T) {
	flags := newFlags(t, t.TempDir(), filepath.Join(t.TempDir(), "o.tsv"))
	require.NoError(t, flags.Set("fields", "read_id,channel"))
	require.NoError(t, flags.Set("fields", "start_time"))
	require.NoError(t, flags.Set("no-tui", "true"))
	require.NoError(t, flags.Set("sqlite", "/tmp/runs.db"))
	require.NoError(t, flags.Set("max-fast5", "10"))

	opts, _, err := LoadAndValidate("", "", "dev", flags)

	require.NoError(t, err)
	assert.Equal(t, []string{"read_id", "channel", "start_time"}, opts.Fields)
	assert.False(t, opts.TuiEnabled)
	assert.Equal(t, "/tmp/runs.db", opts.SQLitePath)
	assert.Equal(t, 10, opts.MaxFiles)
}

func TestLoadAndValidate_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		setup   func(flags *pflag.FlagSet)
		wantMsg string
	}{
		{
			name:    "MissingInput",
			setup:   func(flags *pflag.FlagSet) { _ = flags.Set("fast5-dir", "") },
			wantMsg: "--fast5-dir is required",
		},
		{
			name:    "MissingOutput",
			setup:   func(flags *pflag.FlagSet) { _ = flags.Set("seq-summary-fn", "") },
			wantMsg: "--seq-summary-fn is required",
		},
		{
			name:    "TooFewThreads",
			setup:   func(flags *pflag.FlagSet) { _ = flags.Set("threads", "2") },
			wantMsg: "at least 3 threads",
		},
		{
			name:    "BadVerbosity",
			setup:   func(flags *pflag.FlagSet) { _ = flags.Set("verbose-level", "5") },
			wantMsg: "verbose level",
		},
		{
			name:    "BadReportFormat",
			setup:   func(flags *pflag.FlagSet) { _ = flags.Set("report-format", "xml") },
			wantMsg: "invalid report format",
		},
		{
			name:    "UnknownField",
			setup:   func(flags *pflag.FlagSet) { _ = flags.Set("fields", "read_id,not_a_field") },
			wantMsg: "not_a_field",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flags := newFlags(t, t.TempDir(), filepath.Join(t.TempDir(), "o.tsv"))
			tc.setup(flags)
			_, logger, err := LoadAndValidate("", "", "dev", flags)
			require.Error(t, err)
			assert.NotNil(t, logger, "A logger is returned even on failure")
			assert.ErrorIs(t, err, seqsummary.ErrConfigValidation)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLoadAndValidate_MissingExplicitConfigFile(t *testing.T) {
	_, _, err := LoadAndValidate(filepath.Join(t.TempDir(), "nope.yaml"), "", "dev", newFlags(t, t.TempDir(), "o.tsv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LogLevel(0))
	assert.Equal(t, slog.LevelInfo, LogLevel(1))
	assert.Equal(t, slog.LevelDebug, LogLevel(2))
	assert.Equal(t, slog.LevelDebug, LogLevel(7))
}

func TestSplitFields(t *testing.T) {
	assert.Nil(t, splitFields(nil))
	assert.Equal(t, []string{"a", "b", "c"}, splitFields([]string{"a, b", "", "c"}))
}
