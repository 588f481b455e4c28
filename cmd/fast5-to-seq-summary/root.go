package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tleonardi/pycoQC/internal/cli"
	"github.com/tleonardi/pycoQC/internal/cli/config"
	"github.com/tleonardi/pycoQC/pkg/seqsummary"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitInterrupted = 130
)

// newRootCmd builds the root command with all of its flags. A fresh command is built
// per execution so tests do not share flag state.
func newRootCmd() *cobra.Command {
	var cfgFile, profileName string

	cmd := &cobra.Command{
		Use:   "fast5-to-seq-summary -f <fast5Dir> -s <seqSummaryFn>",
		Short: "Generates a sequencing summary file from a directory of basecalled fast5 files.",
		Long: `fast5-to-seq-summary walks a directory tree of single-read fast5 files,
extracts per-read metadata from each of them in parallel and writes one
tab-separated sequencing summary, with one row per file.

One thread lists the files, one thread writes the table and the remaining
threads extract records. The first failure of any of them aborts the run
without writing the summary.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, logger, err := config.LoadAndValidate(cfgFile, profileName, version, cmd.Flags())
			if err != nil {
				return err
			}
			// Flags parsed fine from here on, usage would only hide the real error.
			cmd.SilenceUsage = true
			return cli.Run(ctx, opts, logger, cmd.OutOrStdout())
		},
	}
	cmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "Configuration file path (default is search ., $HOME/.config/"+config.DefaultConfigName+"/)")
	flags.StringVar(&profileName, "profile", "", "Name of configuration profile to use")

	flags.StringP("fast5-dir", "f", "", "Directory containing fast5 files. Can contain multiple subdirectories")
	flags.StringP("seq-summary-fn", "s", "", "Path of the summary sequencing file where to write the data extracted from the fast5 files")
	flags.Int("max-fast5", seqsummary.DefaultMaxFiles, "Maximum number of file to process (0 for no limit)")
	flags.IntP("threads", "t", seqsummary.DefaultThreads, "Total number of threads to use. 1 thread is used for the reader and 1 for the writer. Minimum 3")
	flags.Int("basecall-id", seqsummary.DefaultBasecallID, "id of the basecalling group. By default use the first one (000)")
	flags.StringSlice("fields", nil, "list of field names corresponding to attributes to try to fetch in the fast5 files ("+strings.Join(seqsummary.FieldNames(), ",")+")")
	flags.Bool("include-path", seqsummary.DefaultIncludePath, "If given, the absolute path to the corresponding file is added in an extra column")
	flags.Int("verbose-level", seqsummary.DefaultVerbosity, "Level of verbosity, from 2 (Chatty) to 0 (Nothing)")
	flags.String("report-format", string(seqsummary.DefaultReportFormat), `Final run report format ("text", "json", "yaml")`)
	flags.String("sqlite", "", "Also store the summary table in this SQLite database")
	flags.Int("queue-size", seqsummary.DefaultQueueSize, "Capacity of the path and record queues")
	flags.Bool("no-tui", false, "Disable the terminal progress display even if stderr is a TTY")

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, seqsummary.ErrInterrupted):
		return exitInterrupted
	case errors.Is(err, seqsummary.ErrConfigValidation):
		return exitConfig
	default:
		return exitFailure
	}
}
