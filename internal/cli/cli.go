package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/tleonardi/pycoQC/internal/cli/hooks"
	"github.com/tleonardi/pycoQC/internal/cli/ui"
	"github.com/tleonardi/pycoQC/pkg/seqsummary"
	"github.com/tleonardi/pycoQC/pkg/seqsummary/container/hdf5"
	"github.com/tleonardi/pycoQC/pkg/seqsummary/store"
)

// isTerminal is replaced in tests.
var isTerminal = func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }

// newProgressBar draws the plain progress display on w. Replaced in tests.
var newProgressBar = func(w io.Writer) hooks.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Extracting reads"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("reads"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

// programSender adapts *tea.Program to hooks.TUIProgram.
type programSender struct{ p *tea.Program }

func (s programSender) Send(msg interface{}) { s.p.Send(msg) }

// Run wires the production dependencies into opts, runs the extraction and prints
// the final report to out. It receives the application context, the validated
// options and the logger built by the config package.
func Run(ctx context.Context, opts seqsummary.Options, logger *slog.Logger, out io.Writer) error {
	if opts.Opener == nil {
		opts.Opener = hdf5.NewOpener()
	}

	if opts.SQLitePath != "" && opts.Sink == nil {
		sink, err := store.Open(opts.SQLitePath)
		if err != nil {
			return fmt.Errorf("%w: opening SQLite export %q: %w", seqsummary.ErrConfigValidation, opts.SQLitePath, err)
		}
		defer func() {
			if cerr := sink.Close(); cerr != nil {
				logger.Warn("Closing SQLite export failed", slog.String("error", cerr.Error()))
			}
		}()
		opts.Sink = sink
	}

	useTUI := opts.TuiEnabled && opts.Verbosity < 2 && isTerminal(os.Stderr)
	var (
		program *tea.Program
		tuiProg hooks.TUIProgram
		tuiDone chan struct{}
	)
	if useTUI {
		program = tea.NewProgram(ui.NewModel(opts.AppVersion, opts.InputPath),
			tea.WithOutput(os.Stderr),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		)
		tuiProg = programSender{p: program}
		tuiDone = make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := program.Run(); err != nil {
				logger.Warn("Terminal UI stopped", slog.String("error", err.Error()))
			}
		}()
	}
	var bar hooks.ProgressBar
	if !useTUI && opts.Verbosity < 2 {
		bar = newProgressBar(os.Stderr)
	}
	opts.Hooks = hooks.NewCLIHooks(logger, useTUI, opts.Verbosity >= 2, tuiProg, bar)

	report, err := seqsummary.Generate(ctx, opts)

	if program != nil {
		program.Quit()
		<-tuiDone
	}
	if bar != nil {
		if cerr := bar.Close(); cerr != nil {
			logger.Debug("Closing progress bar failed", slog.String("error", cerr.Error()))
		}
	}

	if report.Summary.State != "" {
		if renderErr := report.Render(out, opts.ReportFormat); renderErr != nil {
			logger.Error("Failed to render run report", slog.String("error", renderErr.Error()))
			if err == nil {
				err = renderErr
			}
		}
	}
	return err
}
