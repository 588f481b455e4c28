package seqsummary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tleonardi/pycoQC/pkg/util"
)

// Engine supervises one run of the lister, extractor pool and writer.
type Engine struct {
	opts       *Options
	fields     []FieldDescriptor
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	state      RunState
	mu         sync.Mutex
}

// NewEngine validates opts and prepares a run. No goroutine is started before Run,
// so every configuration error is reported here.
func NewEngine(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	if opts.Hooks == nil {
		opts.Hooks = &NoOpHooks{}
	}
	logger := slog.New(opts.Logger).With(slog.String("component", ComponentSupervisor))

	if opts.Opener == nil {
		return nil, fmt.Errorf("%w: container Opener cannot be nil", ErrConfigValidation)
	}

	// --- Paths ---
	if opts.InputPath == "" {
		return nil, fmt.Errorf("%w: input directory cannot be empty", ErrConfigValidation)
	}
	absInput, err := filepath.Abs(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving input directory %q: %w", ErrConfigValidation, opts.InputPath, err)
	}
	if err := util.IsReadableDir(absInput); err != nil {
		return nil, fmt.Errorf("%w: input directory %q is not readable: %w", ErrConfigValidation, opts.InputPath, err)
	}
	opts.InputPath = absInput

	if opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: output file cannot be empty", ErrConfigValidation)
	}
	absOutput, err := filepath.Abs(opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving output file %q: %w", ErrConfigValidation, opts.OutputPath, err)
	}
	if info, statErr := os.Stat(absOutput); statErr == nil && info.IsDir() {
		return nil, fmt.Errorf("%w: output file %q is a directory", ErrConfigValidation, opts.OutputPath)
	}
	if err := util.IsWritableDir(filepath.Dir(absOutput)); err != nil {
		return nil, fmt.Errorf("%w: output directory %q is not writable: %w", ErrConfigValidation, filepath.Dir(absOutput), err)
	}
	opts.OutputPath = absOutput

	// --- Numeric options ---
	if opts.Threads < MinThreads {
		return nil, fmt.Errorf("%w: at least %d threads are required (1 lister, 1 writer, 1 extractor), got %d", ErrConfigValidation, MinThreads, opts.Threads)
	}
	if opts.MaxFiles < 0 {
		return nil, fmt.Errorf("%w: maximum number of files cannot be negative, got %d", ErrConfigValidation, opts.MaxFiles)
	}
	if opts.BasecallID < 0 {
		return nil, fmt.Errorf("%w: basecall id cannot be negative, got %d", ErrConfigValidation, opts.BasecallID)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.ReportFormat == "" {
		opts.ReportFormat = DefaultReportFormat
	}

	// --- Fields ---
	if opts.Fields == nil {
		opts.Fields = append([]string(nil), DefaultFields...)
	}
	if err := ValidateFields(opts.Fields); err != nil {
		return nil, err
	}
	fields := make([]FieldDescriptor, len(opts.Fields))
	for i, name := range opts.Fields {
		fields[i], _ = LookupField(name)
	}

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	engineCtx, cancelFunc := context.WithCancel(ctx)
	return &Engine{
		opts:       &opts,
		fields:     fields,
		logger:     logger.With(slog.String("run", opts.RunID)),
		ctx:        engineCtx,
		cancelFunc: cancelFunc,
		state:      StateRunning,
	}, nil
}

// Options returns the validated options of the engine.
func (e *Engine) Options() Options { return *e.opts }

// State returns the current supervisor state.
func (e *Engine) State() RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s RunState) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	e.logger.Debug("Supervisor state changed", slog.String("from", string(prev)), slog.String("to", string(s)))
}

// Run launches every component and supervises them until the writer signals the end
// of the run or the first failure is reported. A failure cancels every component and
// is returned wrapped in ErrRunAborted once all of them have exited. Run must be
// called at most once.
func (e *Engine) Run() (Report, error) {
	startTime := time.Now()
	defer e.cancelFunc()

	n := e.opts.Extractors()
	e.logger.Info("Starting sequencing summary run",
		slog.String("input", e.opts.InputPath),
		slog.String("output", e.opts.OutputPath),
		slog.Int("extractors", n),
		slog.Any("fields", e.opts.Fields),
	)

	bus := NewErrorBus()
	workChan := make(chan Message[string], e.opts.QueueSize)
	outChan := make(chan Message[*Record], e.opts.QueueSize)
	statsChan := make(chan Counters, n)

	handler := e.opts.Logger
	lister := NewLister(e.opts, workChan, bus, handler)
	writer := NewWriter(e.opts, e.opts.RunID, outChan, statsChan, bus, handler)

	var wg sync.WaitGroup
	wg.Add(n + 2)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				bus.Post(newComponentError(ComponentLister, 0, "", panicError(r)))
			}
		}()
		lister.Run(e.ctx)
	}()
	for i := 0; i < n; i++ {
		x := NewExtractor(i+1, e.opts, e.fields, workChan, outChan, statsChan, bus, handler)
		go func() {
			defer wg.Done()
			x.Run(e.ctx)
		}()
	}
	go func() {
		defer wg.Done()
		writer.Run(e.ctx)
	}()

	cause := e.supervise(bus)
	if cause != nil {
		e.cancelFunc()
	}
	wg.Wait()
	if cause == nil {
		e.setState(StateDrained)
	} else {
		e.setState(StateTerminated)
	}

	res := writer.Result()
	if cause != nil && res.Written {
		// Interrupted after the summary was renamed into place.
		RemoveOutput(e.opts.OutputPath, e.logger)
		res.Written = false
	}

	report := e.buildReport(startTime, lister, res)
	var finalErr error
	if cause != nil {
		finalErr = fmt.Errorf("%w: %w", ErrRunAborted, cause)
		e.logger.Error("Run aborted", slog.String("error", cause.Error()))
		e.logger.Debug("Failure details", slog.String("trace", fmt.Sprintf("%+v", cause)))
	} else {
		e.logger.Info("Run finished",
			slog.Duration("duration", time.Since(startTime)),
			slog.Int("records", report.Summary.RecordCount),
		)
	}

	if hookErr := e.opts.Hooks.OnRunComplete(report); hookErr != nil {
		e.logger.Warn("OnRunComplete hook returned an error", slog.String("error", hookErr.Error()))
	}
	return report, finalErr
}

// supervise blocks on the error bus. It returns nil when the writer posted the
// terminal sentinel with no prior failure, or the first failure otherwise.
func (e *Engine) supervise(bus *ErrorBus) error {
	msg, err := bus.Next(e.ctx)
	if err != nil {
		e.setState(StateErrorDetected)
		cause := context.Cause(e.ctx)
		if cause == nil || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		return fmt.Errorf("%w: %w", ErrInterrupted, cause)
	}
	if msg.IsSentinel() {
		if ctxErr := e.ctx.Err(); ctxErr != nil {
			e.setState(StateErrorDetected)
			return fmt.Errorf("%w: %w", ErrInterrupted, ctxErr)
		}
		return nil
	}
	e.setState(StateErrorDetected)
	e.logger.Debug("Failure reported, terminating all components", slog.String("error", msg.Value().Error()))
	return msg.Value()
}

func (e *Engine) buildReport(startTime time.Time, lister *Lister, res WriterResult) Report {
	duration := time.Since(startTime)
	counters := res.Counters
	if counters.Overall == nil {
		counters = NewCounters()
	}
	records := 0
	var columns []string
	if res.Table != nil {
		records = len(res.Table.Rows)
		columns = res.Table.Columns
	}
	return Report{
		Summary: ReportSummary{
			RunID:           e.opts.RunID,
			InputPath:       e.opts.InputPath,
			OutputPath:      e.opts.OutputPath,
			SQLitePath:      e.opts.SQLitePath,
			ProfileUsed:     e.opts.ProfileName,
			ConfigFilePath:  e.opts.ConfigFilePath,
			Fields:          e.opts.Fields,
			BasecallID:      e.opts.BasecallID,
			IncludePath:     e.opts.IncludePath,
			Threads:         e.opts.Threads,
			Extractors:      e.opts.Extractors(),
			FilesDiscovered: lister.Found(),
			RecordCount:     records,
			ValidFiles:      counters.ValidFiles(),
			InvalidFiles:    counters.InvalidFiles(),
			DurationSeconds: duration.Seconds(),
			ReadsPerSecond:  readsPerSecond(records, duration),
			State:           e.State(),
			Timestamp:       startTime.UTC(),
			AppVersion:      e.opts.AppVersion,
			SchemaVersion:   ReportSchemaVersion,
		},
		Columns:  columns,
		Counters: counters,
	}
}
