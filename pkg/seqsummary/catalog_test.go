package seqsummary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_DefaultFieldsAreRegistered(t *testing.T) {
	require.Len(t, DefaultFields, 8)
	for _, name := range DefaultFields {
		_, ok := LookupField(name)
		assert.True(t, ok, "default field %q must exist in the catalog", name)
	}
	assert.NoError(t, ValidateFields(DefaultFields))
}

func TestCatalog_Lookup(t *testing.T) {
	fd, ok := LookupField("channel")
	require.True(t, ok)
	assert.Equal(t, GroupChannelID, fd.Group)
	assert.Equal(t, "channel_number", fd.Attribute)

	fd, ok = LookupField("calibration_strand_end")
	require.True(t, ok)
	assert.Equal(t, GroupCalibrationSummary, fd.Group)
	assert.Equal(t, "genome_end", fd.Attribute)

	_, ok = LookupField("no_such_field")
	assert.False(t, ok)
}

func TestCatalog_FieldNames(t *testing.T) {
	names := FieldNames()
	assert.Len(t, names, len(catalog))
	assert.Equal(t, "mean_qscore_template", names[0], "Names are returned in catalog order")
	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate catalog entry %q", n)
		seen[n] = true
	}
}

func TestValidateFields(t *testing.T) {
	testCases := []struct {
		name    string
		fields  []string
		wantErr string
	}{
		{name: "Valid subset", fields: []string{"read_id", "barcode_score"}},
		{name: "Empty list", fields: []string{}, wantErr: "at least one field"},
		{name: "Unknown field", fields: []string{"read_id", "qscore"}, wantErr: `field "qscore" is not valid`},
		{name: "Duplicate field", fields: []string{"read_id", "read_id"}, wantErr: "more than once"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFields(tc.fields)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfigValidation)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateFields_ListsValidFields(t *testing.T) {
	err := ValidateFields([]string{"bogus"})
	require.Error(t, err)
	for _, name := range FieldNames() {
		assert.Contains(t, err.Error(), name)
	}
}

func TestGroupPaths(t *testing.T) {
	gp := NewGroupPaths(2, "Read_42")

	path, ok := gp.Path(GroupRawRead)
	require.True(t, ok)
	assert.Equal(t, "Raw/Reads/Read_42", path)

	path, ok = gp.Path(GroupBasecallSummary)
	require.True(t, ok)
	assert.Equal(t, "Analyses/Basecall_1D_002/Summary/basecall_1d_template", path)

	path, _ = gp.Path(GroupCalibrationSummary)
	assert.Equal(t, "Analyses/Calibration_Strand_Detection_002/Summary/calibration_strand_template", path)

	path, _ = gp.Path(GroupBarcodingSummary)
	assert.Equal(t, "Analyses/Barcoding_002/Summary/barcoding", path)

	path, _ = gp.Path(GroupTrackingID)
	assert.Equal(t, "UniqueGlobalKey/tracking_id", path)

	path, _ = gp.Path(GroupChannelID)
	assert.Equal(t, "UniqueGlobalKey/channel_id", path)

	_, ok = gp.Path(Group(99))
	assert.False(t, ok)
}

func TestGroupPaths_NoReadGroup(t *testing.T) {
	gp := NewGroupPaths(0, "")
	_, ok := gp.Path(GroupRawRead)
	assert.False(t, ok, "RawRead fields cannot resolve without a read group")
	_, ok = gp.Path(GroupTrackingID)
	assert.True(t, ok)
}

func TestGroup_String(t *testing.T) {
	assert.Equal(t, "raw_read", GroupRawRead.String())
	assert.Equal(t, "channel_id", GroupChannelID.String())
	assert.Equal(t, "Group(42)", Group(42).String())
}
