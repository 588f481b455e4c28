package seqsummary

// Message is the element type of every pipeline channel: either a payload or the
// termination sentinel. Consumers never have to reserve an "impossible" payload
// value to detect termination.
type Message[T any] struct {
	value    T
	sentinel bool
}

// Data wraps a payload.
func Data[T any](v T) Message[T] { return Message[T]{value: v} }

// Sentinel returns the termination marker for a channel of T.
func Sentinel[T any]() Message[T] { return Message[T]{sentinel: true} }

// IsSentinel reports whether m marks the end of a producer's stream.
func (m Message[T]) IsSentinel() bool { return m.sentinel }

// Value returns the payload. It is the zero value for sentinels.
func (m Message[T]) Value() T { return m.value }

// ReportFormat defines the format of the final run report printed by the CLI.
type ReportFormat string

const (
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
	ReportFormatYAML ReportFormat = "yaml"
)

// RunState is a state of the supervisor state machine.
type RunState string

const (
	StateRunning       RunState = "running"
	StateErrorDetected RunState = "error-detected"
	StateTerminated    RunState = "terminated"
	StateDrained       RunState = "drained"
)
