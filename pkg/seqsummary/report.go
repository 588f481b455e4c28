package seqsummary

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Report summarizes the result of a single Generate run.
type Report struct {
	Summary  ReportSummary `json:"summary" yaml:"summary"`
	Columns  []string      `json:"columns" yaml:"columns"`
	Counters Counters      `json:"counters" yaml:"counters"`
}

// ReportSummary contains aggregated statistics for a Generate run.
type ReportSummary struct {
	RunID           string    `json:"runId" yaml:"runId"`
	InputPath       string    `json:"inputPath" yaml:"inputPath"`
	OutputPath      string    `json:"outputPath" yaml:"outputPath"`
	SQLitePath      string    `json:"sqlitePath,omitempty" yaml:"sqlitePath,omitempty"`
	ProfileUsed     string    `json:"profileUsed,omitempty" yaml:"profileUsed,omitempty"`
	ConfigFilePath  string    `json:"configFilePath,omitempty" yaml:"configFilePath,omitempty"`
	Fields          []string  `json:"fields" yaml:"fields"`
	BasecallID      int       `json:"basecallId" yaml:"basecallId"`
	IncludePath     bool      `json:"includePath" yaml:"includePath"`
	Threads         int       `json:"threads" yaml:"threads"`
	Extractors      int       `json:"extractors" yaml:"extractors"`
	FilesDiscovered int       `json:"filesDiscovered" yaml:"filesDiscovered"`
	RecordCount     int       `json:"recordCount" yaml:"recordCount"`
	ValidFiles      int       `json:"validFiles" yaml:"validFiles"`
	InvalidFiles    int       `json:"invalidFiles" yaml:"invalidFiles"`
	DurationSeconds float64   `json:"durationSeconds" yaml:"durationSeconds"`
	ReadsPerSecond  float64   `json:"readsPerSecond" yaml:"readsPerSecond"`
	State           RunState  `json:"state" yaml:"state"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
	AppVersion      string    `json:"appVersion,omitempty" yaml:"appVersion,omitempty"`
	SchemaVersion   string    `json:"schemaVersion" yaml:"schemaVersion"`
}

// Render writes the report to w in the requested format.
func (r Report) Render(w io.Writer, format ReportFormat) error {
	switch format {
	case ReportFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case ReportFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case ReportFormatText, "":
		return r.renderText(w)
	default:
		return fmt.Errorf("%w: unknown report format %q", ErrConfigValidation, format)
	}
}

func (r Report) renderText(w io.Writer) error {
	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s)\n", s.RunID, s.State)
	fmt.Fprintf(&b, "  Input:       %s\n", s.InputPath)
	fmt.Fprintf(&b, "  Output:      %s\n", s.OutputPath)
	if s.SQLitePath != "" {
		fmt.Fprintf(&b, "  SQLite:      %s\n", s.SQLitePath)
	}
	if s.ProfileUsed != "" {
		fmt.Fprintf(&b, "  Profile:     %s\n", s.ProfileUsed)
	}
	fmt.Fprintf(&b, "  Extractors:  %d\n", s.Extractors)
	fmt.Fprintf(&b, "  Files:       %d discovered, %d valid, %d invalid\n", s.FilesDiscovered, s.ValidFiles, s.InvalidFiles)
	fmt.Fprintf(&b, "  Reads:       %d in %.2fs (%.2f reads/s)\n", s.RecordCount, s.DurationSeconds, s.ReadsPerSecond)
	fmt.Fprintf(&b, "  Columns:     %s\n", strings.Join(r.Columns, ", "))
	fmt.Fprintf(&b, "  Found:       %s\n", r.Counters.FieldsFound)
	fmt.Fprintf(&b, "  Not found:   %s\n", r.Counters.FieldsNotFound)
	_, err := io.WriteString(w, b.String())
	return err
}
