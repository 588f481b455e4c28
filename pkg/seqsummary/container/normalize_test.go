package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want any
	}{
		{name: "plain bytes", in: []byte("a0b1c2d3"), want: "a0b1c2d3"},
		{name: "nul padded bytes", in: []byte("FAK12345\x00\x00\x00"), want: "FAK12345"},
		{name: "invalid utf8 replaced", in: []byte{'r', 'u', 'n', 0xff}, want: "run�"},
		{name: "single element byte array", in: [][]byte{[]byte("sample")}, want: "sample"},
		{name: "int passes through", in: int64(42), want: int64(42)},
		{name: "float passes through", in: 4000.0, want: 4000.0},
		{name: "string passes through", in: "already text", want: "already text"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "Raw/Reads/Read_12", JoinPath("/Raw/Reads/", "Read_12"))
	assert.Equal(t, "UniqueGlobalKey/tracking_id", JoinPath("UniqueGlobalKey", "", "tracking_id/"))
	assert.Equal(t, "", JoinPath("", "/"))
}
