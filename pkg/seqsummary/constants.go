package seqsummary

import "time"

// Constants defining default values for configuration options.
// These are used when setting up Viper defaults in the configuration loading process.
const (
	// MinThreads is the smallest accepted thread count: one lister, one writer and at
	// least one extractor.
	MinThreads = 3
	// DefaultThreads is the default total thread count.
	DefaultThreads = 4
	// DefaultMaxFiles disables the discovery limit.
	DefaultMaxFiles = 0
	// DefaultBasecallID selects the first basecalling group (Basecall_1D_000).
	DefaultBasecallID = 0
	// DefaultQueueSize bounds the number of in-flight paths and records.
	DefaultQueueSize = 1000
	// DefaultProgressInterval is the minimum delay between two progress updates.
	DefaultProgressInterval = 100 * time.Millisecond
	// DefaultVerbosity logs warnings only.
	DefaultVerbosity = 0
	// DefaultIncludePath controls the extra "path" column.
	DefaultIncludePath = false
	// DefaultReportFormat is the format of the final run report.
	DefaultReportFormat = ReportFormatText
)

// File discovery and table layout.
const (
	// Fast5Extension is the extension of discovered container files.
	Fast5Extension = ".fast5"
	// PathColumn is the column holding the absolute input path when IncludePath is set.
	PathColumn = "path"
	// ReportSchemaVersion indicates the version of the JSON/YAML report structure.
	ReportSchemaVersion = "1.0"
)

// Keys of the overall outcome tally.
const (
	OutcomeValid   = "valid files"
	OutcomeInvalid = "invalid files"
)

// Component names used in logs and ComponentError.
const (
	ComponentLister     = "lister"
	ComponentExtractor  = "extractor"
	ComponentWriter     = "writer"
	ComponentSupervisor = "supervisor"
)
