// Package seqsummary extracts per-read metadata from a directory of fast5 container
// files and writes it as a single tab-separated sequencing summary.
//
// A run is a lister goroutine feeding file paths to a pool of extractors, whose
// records are collected by a single writer. Failures from any component are posted on
// an error bus; the first one cancels the whole run.
package seqsummary

import (
	"context"
	"log/slog"
)

// Generate is the main entry point of the library. It validates opts, runs the
// pipeline and returns the run report.
func Generate(ctx context.Context, opts Options) (Report, error) {
	engine, err := NewEngine(ctx, opts)
	if err != nil {
		if opts.Logger != nil {
			slog.New(opts.Logger).Error("Invalid configuration", slog.String("error", err.Error()))
		}
		return Report{}, err
	}
	return engine.Run()
}
