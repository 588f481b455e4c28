package hooks

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tleonardi/pycoQC/pkg/seqsummary"
)

// --- TUI Message Structs ---

// FileDiscoveredMsg signals that the lister queued a container file.
type FileDiscoveredMsg struct{ Path string }

// ProgressMsg carries the number of records received by the writer so far.
type ProgressMsg struct {
	Records int
	Elapsed time.Duration
}

// RunCompleteMsg signals the end of the run, successful or not.
type RunCompleteMsg struct{ Report seqsummary.Report }

// --- Hook Implementation ---

// CLIHooks implements the seqsummary.Hooks interface, bridging library events
// to the CLI's UI layer (TUI, progress bar or logger).
type CLIHooks struct {
	logger         *slog.Logger
	tuiEnabled     bool
	verboseEnabled bool
	tuiProgram     TUIProgram
	progressBar    ProgressBar
	mu             sync.Mutex // guards progressBar
}

// TUIProgram defines the interface needed to interact with the Bubble Tea program.
type TUIProgram interface {
	Send(msg interface{})
}

// NoOpTUIProgram provides a default null implementation.
type NoOpTUIProgram struct{}

// Send implements TUIProgram.
func (n *NoOpTUIProgram) Send(msg interface{}) {}

// ProgressBar is the plain terminal progress display used when the TUI is off.
// The count passed to Set is cumulative.
type ProgressBar interface {
	Set(num int) error
	Close() error
}

// NoOpProgressBar provides a default null implementation.
type NoOpProgressBar struct{}

// Set implements ProgressBar.
func (n *NoOpProgressBar) Set(num int) error { return nil }

// Close implements ProgressBar.
func (n *NoOpProgressBar) Close() error { return nil }

// NewCLIHooks creates a new CLIHooks instance. Pass nil for tuiProg when the TUI is
// not running and nil for progress when no progress bar should be drawn.
func NewCLIHooks(logger *slog.Logger, tuiEnabled, verboseEnabled bool, tuiProg TUIProgram, progress ProgressBar) seqsummary.Hooks {
	if tuiProg == nil {
		tuiProg = &NoOpTUIProgram{}
	}
	if progress == nil {
		progress = &NoOpProgressBar{}
	}
	return &CLIHooks{
		logger:         logger,
		tuiEnabled:     tuiEnabled,
		verboseEnabled: verboseEnabled,
		tuiProgram:     tuiProg,
		progressBar:    progress,
	}
}

// OnFileDiscovered is called by the lister for every queued file.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(FileDiscoveredMsg{Path: path})
	} else if h.verboseEnabled {
		h.logger.Debug("File discovered", "path", path)
	}
	return nil
}

// OnProgress is called by the writer, at most once per progress interval.
func (h *CLIHooks) OnProgress(records int, elapsed time.Duration) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(ProgressMsg{Records: records, Elapsed: elapsed})
		return nil
	}
	if h.verboseEnabled {
		h.logger.Debug("Records collected",
			slog.Int("records", records),
			slog.Duration("elapsed", elapsed.Round(time.Millisecond)),
		)
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.progressBar.Set(records); err != nil {
		h.logger.Debug("Progress bar update failed", slog.String("error", err.Error()))
	}
	return nil
}

// OnRunComplete forwards the final report to the TUI. Outside of TUI mode the
// report is printed by the CLI itself.
func (h *CLIHooks) OnRunComplete(report seqsummary.Report) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(RunCompleteMsg{Report: report})
		return nil
	}
	if h.verboseEnabled {
		h.logger.Debug("Run complete",
			slog.String("state", string(report.Summary.State)),
			slog.Int("records", report.Summary.RecordCount),
		)
	}
	return nil
}
