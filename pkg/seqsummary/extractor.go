package seqsummary

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/tleonardi/pycoQC/pkg/seqsummary/container"
)

// Extractor is one worker of the extractor pool. It turns container file paths into
// Records and keeps private Counters that are handed to the writer once its input is
// exhausted.
type Extractor struct {
	id        int
	opts      *Options
	fields    []FieldDescriptor
	opener    container.Opener
	workChan  <-chan Message[string]
	outChan   chan<- Message[*Record]
	statsChan chan<- Counters
	bus       *ErrorBus
	logger    *slog.Logger
	counters  Counters
	current   string
}

// NewExtractor creates worker id. fields must already be validated.
func NewExtractor(id int, opts *Options, fields []FieldDescriptor, workChan <-chan Message[string], outChan chan<- Message[*Record], statsChan chan<- Counters, bus *ErrorBus, loggerHandler slog.Handler) *Extractor {
	return &Extractor{
		id:        id,
		opts:      opts,
		fields:    fields,
		opener:    opts.Opener,
		workChan:  workChan,
		outChan:   outChan,
		statsChan: statsChan,
		bus:       bus,
		logger: slog.New(loggerHandler).With(
			slog.String("component", ComponentExtractor),
			slog.Int("worker", id),
		),
		counters: NewCounters(),
	}
}

// Run consumes paths until a sentinel is received. Its Counters and then its
// sentinel are always sent on exit unless the run is cancelled.
func (e *Extractor) Run(ctx context.Context) {
	defer e.finish(ctx)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Extractor panicked", slog.String("path", e.current), slog.Any("panic", r))
			e.bus.Post(newComponentError(ComponentExtractor, e.id, e.current, panicError(r)))
		}
	}()

	e.logger.Debug("Starting extractor")
	for {
		var msg Message[string]
		select {
		case msg = <-e.workChan:
		case <-ctx.Done():
			return
		}
		if msg.IsSentinel() {
			e.logger.Debug("Sentinel received, stopping extractor")
			return
		}
		path := msg.Value()
		e.current = path
		record, err := e.ExtractFile(path)
		if err != nil {
			e.logger.Error("Failed to process file", slog.String("path", path), slog.String("error", err.Error()))
			e.bus.Post(newComponentError(ComponentExtractor, e.id, path, err))
			return
		}
		if record.Len() == 0 {
			e.logger.Debug("No requested field found in file", slog.String("path", path))
			e.counters.Overall.Inc(OutcomeInvalid)
			continue
		}
		if e.opts.IncludePath {
			record.Set(PathColumn, path)
		}
		select {
		case e.outChan <- Data(record):
		case <-ctx.Done():
			return
		}
		e.counters.Overall.Inc(OutcomeValid)
	}
}

// finish posts the worker statistics followed by its sentinel.
func (e *Extractor) finish(ctx context.Context) {
	select {
	case e.statsChan <- e.counters:
	case <-ctx.Done():
		return
	}
	select {
	case e.outChan <- Sentinel[*Record]():
	case <-ctx.Done():
	}
}

// Counters returns the worker statistics accumulated so far.
func (e *Extractor) Counters() Counters { return e.counters }

// ExtractFile reads every requested field from one container file. Fields that
// cannot be resolved are counted as not found. An error means the file could not be
// read at all and is fatal for the run.
func (e *Extractor) ExtractFile(path string) (*Record, error) {
	c, err := e.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrContainerOpen, path, err)
	}
	defer c.Close()

	readGroup, err := firstReadGroup(c)
	if err != nil {
		return nil, err
	}
	gp := NewGroupPaths(e.opts.BasecallID, readGroup)

	record := NewRecord(len(e.fields) + 1)
	for _, fd := range e.fields {
		var (
			v     any
			found bool
		)
		if fd.Name == FieldStartTime {
			v, found, err = startTimeSeconds(c, gp)
		} else {
			v, found, err = readField(c, gp, fd)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading field %s", fd.Name)
		}
		if !found {
			e.counters.FieldsNotFound.Inc(fd.Name)
			continue
		}
		e.counters.FieldsFound.Inc(fd.Name)
		record.Set(fd.Name, v)
	}
	return record, nil
}

// firstReadGroup returns the name of the first child of the raw reads group, or ""
// when the group is missing or empty.
func firstReadGroup(c container.Container) (string, error) {
	children, ok, err := c.Children(RawReadsGroup)
	if err != nil {
		return "", errors.Wrapf(err, "listing %s", RawReadsGroup)
	}
	if !ok || len(children) == 0 {
		return "", nil
	}
	return children[0], nil
}

func readField(c container.Container, gp GroupPaths, fd FieldDescriptor) (any, bool, error) {
	group, ok := gp.Path(fd.Group)
	if !ok {
		return nil, false, nil
	}
	return c.Attr(group, fd.Attribute)
}

// startTimeSeconds derives the read start offset in seconds from the raw start time
// (in samples) and the channel sampling rate. A zero start or rate counts as absent.
func startTimeSeconds(c container.Container, gp GroupPaths) (any, bool, error) {
	rawFD, _ := LookupField(FieldStartTime)
	rateFD, _ := LookupField(FieldSamplingRate)

	raw, found, err := readField(c, gp, rawFD)
	if err != nil || !found {
		return nil, false, err
	}
	rate, found, err := readField(c, gp, rateFD)
	if err != nil || !found {
		return nil, false, err
	}
	start, ok := toFloat(raw)
	if !ok || start == 0 {
		return nil, false, nil
	}
	r, ok := toFloat(rate)
	if !ok || r == 0 {
		return nil, false, nil
	}
	q := math.Floor(start / r)
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return nil, false, nil
	}
	return int64(q), true, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
