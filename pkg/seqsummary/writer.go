package seqsummary

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tleonardi/pycoQC/pkg/util"
)

// WriterResult is what the writer produced for a completed run.
type WriterResult struct {
	Table    *Table
	Counters Counters
	Elapsed  time.Duration
	Written  bool
}

// Writer drains the output channel, writes the summary file, merges worker
// statistics and signals the end of the run on the error bus.
type Writer struct {
	opts       *Options
	runID      string
	outChan    <-chan Message[*Record]
	statsChan  <-chan Counters
	extractors int
	bus        *ErrorBus
	hooks      Hooks
	logger     *slog.Logger
	result     WriterResult
}

// NewWriter creates the aggregator for extractors workers.
func NewWriter(opts *Options, runID string, outChan <-chan Message[*Record], statsChan <-chan Counters, bus *ErrorBus, loggerHandler slog.Handler) *Writer {
	return &Writer{
		opts:       opts,
		runID:      runID,
		outChan:    outChan,
		statsChan:  statsChan,
		extractors: opts.Extractors(),
		bus:        bus,
		hooks:      opts.Hooks,
		logger:     slog.New(loggerHandler).With(slog.String("component", ComponentWriter)),
	}
}

// Result returns the outcome of Run. Only valid after Run returns.
func (w *Writer) Result() WriterResult { return w.result }

// Run executes the write phase. The terminal sentinel is posted on the error bus on
// every exit path.
func (w *Writer) Run(ctx context.Context) {
	defer w.bus.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Writer panicked", slog.Any("panic", r))
			w.bus.Post(newComponentError(ComponentWriter, 0, "", panicError(r)))
		}
	}()

	start := time.Now()
	records, ok := w.collect(ctx, start)
	if !ok {
		return
	}
	if err := w.bus.Err(); err != nil {
		w.logger.Debug("Error already reported, summary file not written", slog.String("error", err.Error()))
		return
	}

	counters, err := w.mergeStats()
	if err != nil {
		w.bus.Post(newComponentError(ComponentWriter, 0, "", err))
		return
	}

	table := BuildTable(records)
	w.logger.Info("Writing summary file", slog.String("path", w.opts.OutputPath), slog.Int("rows", len(table.Rows)), slog.Int("columns", len(table.Columns)))
	if err := w.writeFile(table); err != nil {
		w.bus.Post(newComponentError(ComponentWriter, 0, w.opts.OutputPath, fmt.Errorf("%w: %w", ErrWriteFailed, err)))
		return
	}

	if w.opts.Sink != nil {
		if err := w.opts.Sink.WriteTable(ctx, w.runID, table, counters); err != nil {
			RemoveOutput(w.opts.OutputPath, w.logger)
			w.bus.Post(newComponentError(ComponentWriter, 0, "", fmt.Errorf("%w: exporting table: %w", ErrWriteFailed, err)))
			return
		}
		w.logger.Debug("Summary exported to sink")
	}

	elapsed := time.Since(start)
	w.logSummary(counters, len(records), elapsed)
	w.result = WriterResult{Table: table, Counters: counters, Elapsed: elapsed, Written: true}
}

// RemoveOutput deletes a summary file written by a run that did not complete.
func RemoveOutput(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Could not remove summary file of failed run", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	logger.Debug("Removed summary file of failed run", slog.String("path", path))
}

// collect buffers records until one sentinel per extractor has been seen.
func (w *Writer) collect(ctx context.Context, start time.Time) ([]*Record, bool) {
	var records []*Record
	interval := w.opts.ProgressInterval
	lastProgress := time.Time{}
	for seen := 0; seen < w.extractors; {
		var msg Message[*Record]
		select {
		case msg = <-w.outChan:
		case <-ctx.Done():
			w.logger.Debug("Write phase cancelled", slog.Int("records", len(records)))
			return nil, false
		}
		if msg.IsSentinel() {
			seen++
			w.logger.Debug("Extractor finished", slog.Int("sentinels", seen), slog.Int("expected", w.extractors))
			continue
		}
		records = append(records, msg.Value())
		if now := time.Now(); now.Sub(lastProgress) >= interval {
			lastProgress = now
			w.progress(len(records), now.Sub(start))
		}
	}
	w.progress(len(records), time.Since(start))
	return records, true
}

func (w *Writer) progress(records int, elapsed time.Duration) {
	if err := w.hooks.OnProgress(records, elapsed); err != nil {
		w.logger.Warn("Event hook OnProgress failed", slog.String("error", err.Error()))
	}
}

func (w *Writer) writeFile(table *Table) error {
	return util.WriteFileAtomic(w.opts.OutputPath, func(f *os.File) error {
		bw := bufio.NewWriter(f)
		if err := table.WriteTSV(bw); err != nil {
			return err
		}
		return bw.Flush()
	})
}

// mergeStats reads exactly one Counters per extractor without blocking. Every
// extractor posts its statistics before its sentinel, so all of them are already
// buffered once the last sentinel has been seen.
func (w *Writer) mergeStats() (Counters, error) {
	merged := NewCounters()
	for i := 0; i < w.extractors; i++ {
		select {
		case c := <-w.statsChan:
			merged.Merge(c)
		default:
			return Counters{}, fmt.Errorf("%w: received %d statistics messages, expected %d", ErrProtocolViolation, i, w.extractors)
		}
	}
	select {
	case <-w.statsChan:
		return Counters{}, fmt.Errorf("%w: more statistics messages than the %d extractors", ErrProtocolViolation, w.extractors)
	default:
	}
	return merged, nil
}

func (w *Writer) logSummary(c Counters, records int, elapsed time.Duration) {
	w.logger.Info("Overall counts", slog.String("counts", c.Overall.String()))
	w.logger.Info("Fields found", slog.String("counts", c.FieldsFound.String()))
	w.logger.Info("Fields not found", slog.String("counts", c.FieldsNotFound.String()))
	w.logger.Warn("Summary written",
		slog.Int("total_reads", records),
		slog.String("average_speed", fmt.Sprintf("%.2f reads/s", readsPerSecond(records, elapsed))),
		slog.String("path", w.opts.OutputPath),
	)
}

func readsPerSecond(records int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(records) / elapsed.Seconds()
}
