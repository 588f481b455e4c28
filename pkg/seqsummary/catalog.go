package seqsummary

import (
	"fmt"
	"strings"

	"github.com/tleonardi/pycoQC/pkg/seqsummary/container"
)

// Group identifies one of the container groups that hold summary attributes.
type Group int

// Container groups referenced by the field catalog.
const (
	GroupRawRead Group = iota
	GroupBasecallSummary
	GroupCalibrationSummary
	GroupBarcodingSummary
	GroupTrackingID
	GroupChannelID
)

var groupNames = [...]string{
	GroupRawRead:            "raw_read",
	GroupBasecallSummary:    "summary_basecall",
	GroupCalibrationSummary: "summary_calibration",
	GroupBarcodingSummary:   "summary_barcoding",
	GroupTrackingID:         "tracking_id",
	GroupChannelID:          "channel_id",
}

// String returns the short group name.
func (g Group) String() string {
	if g < 0 || int(g) >= len(groupNames) {
		return fmt.Sprintf("Group(%d)", int(g))
	}
	return groupNames[g]
}

// FieldDescriptor locates a logical field inside a container file.
type FieldDescriptor struct {
	Name      string
	Group     Group
	Attribute string
}

// Field names with special handling.
const (
	FieldStartTime    = "start_time"
	FieldSamplingRate = "channel_sampling_rate"
	FieldReadID       = "read_id"
)

// catalog is the ordered list of every field that can be requested. It is never
// mutated after package initialisation.
var catalog = []FieldDescriptor{
	{"mean_qscore_template", GroupBasecallSummary, "mean_qscore"},
	{"sequence_length_template", GroupBasecallSummary, "sequence_length"},
	{"called_events", GroupBasecallSummary, "called_events"},
	{"skip_prob", GroupBasecallSummary, "skip_prob"},
	{"stay_prob", GroupBasecallSummary, "stay_prob"},
	{"step_prob", GroupBasecallSummary, "step_prob"},
	{"strand_score", GroupBasecallSummary, "strand_score"},
	{FieldReadID, GroupRawRead, "read_id"},
	{FieldStartTime, GroupRawRead, "start_time"},
	{"duration", GroupRawRead, "duration"},
	{"start_mux", GroupRawRead, "start_mux"},
	{"read_number", GroupRawRead, "read_number"},
	{"channel", GroupChannelID, "channel_number"},
	{"channel_digitisation", GroupChannelID, "digitisation"},
	{"channel_offset", GroupChannelID, "offset"},
	{"channel_range", GroupChannelID, "range"},
	{FieldSamplingRate, GroupChannelID, "sampling_rate"},
	{"run_id", GroupTrackingID, "run_id"},
	{"sample_id", GroupTrackingID, "sample_id"},
	{"device_id", GroupTrackingID, "device_id"},
	{"protocol_run_id", GroupTrackingID, "protocol_run_id"},
	{"flow_cell_id", GroupTrackingID, "flow_cell_id"},
	{"calibration_strand_genome_template", GroupCalibrationSummary, "genome"},
	{"calibration_strand_end", GroupCalibrationSummary, "genome_end"},
	{"calibration_strand_start", GroupCalibrationSummary, "genome_start"},
	{"calibration_strand_identity", GroupCalibrationSummary, "identity"},
	{"barcode_arrangement", GroupBarcodingSummary, "barcode_arrangement"},
	{"barcode_full_arrangement", GroupBarcodingSummary, "barcode_full_arrangement"},
	{"barcode_score", GroupBarcodingSummary, "barcode_score"},
}

var catalogIndex = func() map[string]FieldDescriptor {
	m := make(map[string]FieldDescriptor, len(catalog))
	for _, fd := range catalog {
		m[fd.Name] = fd
	}
	return m
}()

// DefaultFields is the field list used when the caller does not request any.
var DefaultFields = []string{
	"read_id", "run_id", "channel", "start_time",
	"sequence_length_template", "mean_qscore_template",
	"calibration_strand_genome_template", "barcode_arrangement",
}

// LookupField returns the descriptor registered under name.
func LookupField(name string) (FieldDescriptor, bool) {
	fd, ok := catalogIndex[name]
	return fd, ok
}

// FieldNames returns every catalog field name in catalog order.
func FieldNames() []string {
	names := make([]string, len(catalog))
	for i, fd := range catalog {
		names[i] = fd.Name
	}
	return names
}

// ValidateFields checks that every requested name exists in the catalog and that no
// name is repeated.
func ValidateFields(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: at least one field must be requested", ErrConfigValidation)
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := catalogIndex[f]; !ok {
			return fmt.Errorf("%w: field %q is not valid, please choose among the following valid fields: %s",
				ErrConfigValidation, f, strings.Join(FieldNames(), ","))
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: field %q requested more than once", ErrConfigValidation, f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// RawReadsGroup is the parent of the per-read raw group; its first child names the
// read stored in the file.
const RawReadsGroup = "Raw/Reads"

// GroupPaths holds the resolved container path of every group for one file.
type GroupPaths struct {
	paths   [len(groupNames)]string
	hasRead bool
}

// NewGroupPaths resolves the group path templates for a basecall group index and the
// raw-read subgroup name discovered in the file. An empty readGroup means the file
// has no raw read, so every RawRead field resolves as absent.
func NewGroupPaths(basecallID int, readGroup string) GroupPaths {
	var gp GroupPaths
	gp.paths[GroupBasecallSummary] = fmt.Sprintf("Analyses/Basecall_1D_%03d/Summary/basecall_1d_template", basecallID)
	gp.paths[GroupCalibrationSummary] = fmt.Sprintf("Analyses/Calibration_Strand_Detection_%03d/Summary/calibration_strand_template", basecallID)
	gp.paths[GroupBarcodingSummary] = fmt.Sprintf("Analyses/Barcoding_%03d/Summary/barcoding", basecallID)
	gp.paths[GroupTrackingID] = "UniqueGlobalKey/tracking_id"
	gp.paths[GroupChannelID] = "UniqueGlobalKey/channel_id"
	if readGroup != "" {
		gp.paths[GroupRawRead] = container.JoinPath(RawReadsGroup, readGroup)
		gp.hasRead = true
	}
	return gp
}

// Path returns the container path of g and whether it can be looked up at all.
func (gp GroupPaths) Path(g Group) (string, bool) {
	if g < 0 || int(g) >= len(gp.paths) {
		return "", false
	}
	if g == GroupRawRead && !gp.hasRead {
		return "", false
	}
	return gp.paths[g], true
}
