package seqsummary

import (
	"context"
	"log/slog"
	"time"

	"github.com/tleonardi/pycoQC/pkg/seqsummary/container"
)

// Hooks defines callbacks for progress updates during a run.
// Implementations MUST be thread-safe: OnFileDiscovered is called from the lister
// while OnProgress is called from the writer.
type Hooks interface {
	OnFileDiscovered(path string) error
	OnProgress(records int, elapsed time.Duration) error
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnFileDiscovered implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileDiscovered(path string) error { return nil }

// OnProgress implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnProgress(records int, elapsed time.Duration) error { return nil }

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// TableSink receives the final summary table in addition to the TSV file.
type TableSink interface {
	WriteTable(ctx context.Context, runID string, table *Table, counters Counters) error
}

// Options holds all configuration for a Generate run.
type Options struct {
	// --- Core Paths ---
	InputPath  string `mapstructure:"fast5Dir"`     // Required: directory scanned recursively for .fast5 files
	OutputPath string `mapstructure:"seqSummaryFn"` // Required: destination TSV file

	// --- Extraction ---
	MaxFiles    int      `mapstructure:"maxFast5"`    // Stop discovery after this many files (0 = unlimited)
	Threads     int      `mapstructure:"threads"`     // Total threads: 1 lister + 1 writer + extractors
	BasecallID  int      `mapstructure:"basecallId"`  // Basecall group index used in group path templates
	Fields      []string `mapstructure:"fields"`      // Requested catalog fields (nil = DefaultFields)
	IncludePath bool     `mapstructure:"includePath"` // Append the absolute input path column

	// --- Behavior & Control ---
	Verbosity        int           `mapstructure:"verboseLevel"` // 0 warnings, 1 info, 2 debug
	QueueSize        int           `mapstructure:"queueSize"`    // Capacity of the work and output channels
	ProgressInterval time.Duration `mapstructure:"-"`            // Minimum delay between progress hooks
	ReportFormat     ReportFormat  `mapstructure:"reportFormat"` // CLI report rendering
	SQLitePath       string        `mapstructure:"sqlite"`       // Optional SQLite export destination
	TuiEnabled       bool          `mapstructure:"tuiEnabled"`   // Hint for CLI to show the progress UI
	ConfigFilePath   string        `mapstructure:"-"`            // Path to the loaded config file (for reporting)
	ProfileName      string        `mapstructure:"-"`            // Name of the profile used (for reporting)
	AppVersion       string        `mapstructure:"-"`

	// --- Injected Dependencies ---
	RunID  string           `mapstructure:"-"` // Optional: generated when empty
	Logger slog.Handler     `mapstructure:"-"` // Required: logging backend
	Hooks  Hooks            `mapstructure:"-"` // Optional: progress callbacks
	Opener container.Opener `mapstructure:"-"` // Required: container file reader
	Sink   TableSink        `mapstructure:"-"` // Optional: extra destination for the table
}

// Extractors returns the number of extractor goroutines for the configured thread
// count.
func (o *Options) Extractors() int { return o.Threads - 2 }
