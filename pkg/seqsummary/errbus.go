package seqsummary

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// ComponentError is what components post on the error bus: the failing component,
// the file being processed (if any) and the cause with the stack captured at the
// failure site. Format with %+v to print the stack.
type ComponentError struct {
	Component string
	WorkerID  int
	Path      string
	Err       error
}

// Error implements error.
func (e *ComponentError) Error() string {
	who := e.Component
	if e.Component == ComponentExtractor {
		who = fmt.Sprintf("%s %02d", e.Component, e.WorkerID)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s failed on %s: %v", who, e.Path, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", who, e.Err)
}

// Unwrap supports errors.Is/As on the cause.
func (e *ComponentError) Unwrap() error { return e.Err }

// Format prints the cause stack with %+v.
func (e *ComponentError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%+v", e.Error(), e.Err)
		return
	}
	fmt.Fprint(s, e.Error())
}

// newComponentError attaches a stack to err unless it already carries one.
func newComponentError(component string, workerID int, path string, err error) *ComponentError {
	type stackTracer interface{ StackTrace() errors.StackTrace }
	if _, ok := err.(stackTracer); !ok {
		err = errors.WithStack(err)
	}
	return &ComponentError{Component: component, WorkerID: workerID, Path: path, Err: err}
}

// panicError converts a recovered panic value into an error with a stack.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, "panic")
	}
	return errors.Errorf("panic: %v", r)
}

// busMessage is either an error or the terminal sentinel.
type busMessage = Message[error]

// ErrorBus is an unbounded multi-producer queue of failures. Post never blocks, so
// no component can be prevented from reporting.
type ErrorBus struct {
	mu     sync.Mutex
	queue  []busMessage
	first  error
	notify chan struct{}
}

// NewErrorBus returns an empty bus.
func NewErrorBus() *ErrorBus {
	return &ErrorBus{notify: make(chan struct{}, 1)}
}

func (b *ErrorBus) push(m busMessage) {
	b.mu.Lock()
	b.queue = append(b.queue, m)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Post queues a failure.
func (b *ErrorBus) Post(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	if b.first == nil {
		b.first = err
	}
	b.mu.Unlock()
	b.push(Data(err))
}

// Done queues the terminal sentinel that tells the supervisor monitoring can stop.
func (b *ErrorBus) Done() { b.push(Sentinel[error]()) }

// Next blocks until a message is available or ctx is done.
func (b *ErrorBus) Next(ctx context.Context) (busMessage, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			m := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return m, nil
		}
		b.mu.Unlock()
		select {
		case <-b.notify:
		case <-ctx.Done():
			return busMessage{}, ctx.Err()
		}
	}
}

// Err returns the first error ever posted, whether or not it has been consumed.
func (b *ErrorBus) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.first
}
