package seqsummary

import "errors"

// --- Exported Error Variables ---
// Callers can check against these using errors.Is.

var (
	// ErrConfigValidation indicates that the provided Options failed validation before
	// any pipeline goroutine was started (unreadable input directory, unwritable
	// destination, fewer than MinThreads threads, unknown field name, ...).
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrNoInputFiles indicates that discovery found no fast5 file under the input
	// directory. No output file is written.
	ErrNoInputFiles = errors.New("no valid input files found")

	// ErrContainerOpen indicates that a discovered file could not be opened as a
	// container. It aborts the whole run.
	ErrContainerOpen = errors.New("failed to open container file")

	// ErrProtocolViolation indicates that the channel protocol between components was
	// broken, e.g. the number of statistics messages did not match the worker count.
	ErrProtocolViolation = errors.New("pipeline protocol violation")

	// ErrWriteFailed indicates a failure writing the summary table or exporting it to
	// the configured sink.
	ErrWriteFailed = errors.New("failed to write summary output")

	// ErrInterrupted indicates the run was cancelled from outside (signal or parent
	// context) before it completed.
	ErrInterrupted = errors.New("run interrupted")

	// ErrRunAborted wraps every error returned by a run that was terminated by the
	// supervisor. The first failure is wrapped alongside it.
	ErrRunAborted = errors.New("run aborted, all components were terminated")
)
