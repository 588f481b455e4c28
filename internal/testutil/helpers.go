package testutil

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateDummyFile creates a file with the given content, creating parent directories
// as needed.
func CreateDummyFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	dir := filepath.Dir(fullPath)
	err := os.MkdirAll(dir, 0755)
	require.NoError(t, err, "Failed to create directory %s for dummy file", dir)
	err = os.WriteFile(fullPath, []byte(content), 0644)
	require.NoError(t, err, "Failed to write dummy file %s", fullPath)
}

// CreateDummyDir ensures a directory exists at the given path, creating parents if needed.
func CreateDummyDir(t *testing.T, path string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	err := os.MkdirAll(fullPath, 0755)
	require.NoError(t, err, "Failed to create dummy directory %s", fullPath)
}

// ReadFixture describes the content of one synthetic fast5 file.
type ReadFixture struct {
	ReadID         string
	ReadNumber     int64
	RunID          string
	Channel        string
	StartTime      int64
	SamplingRate   float64
	SequenceLength int64
	MeanQScore     float64
	Genome         string
	Barcode        string
}

// DefaultRead returns a complete fixture for read number n.
func DefaultRead(n int) ReadFixture {
	return ReadFixture{
		ReadID:         fmt.Sprintf("0a1b2c3d-0000-4000-8000-%012d", n),
		ReadNumber:     int64(n),
		RunID:          "e3f1b9a0c4d5",
		Channel:        fmt.Sprintf("%d", 100+n),
		StartTime:      int64(4000*n + 1234),
		SamplingRate:   4000,
		SequenceLength: int64(1000 + n),
		MeanQScore:     9.5,
		Genome:         "filtered_out",
		Barcode:        "unclassified",
	}
}

// Container builds the FakeContainer layout of a real single-read fast5 file for
// basecall group 000. Strings are stored as NUL padded byte strings.
func (r ReadFixture) Container() *FakeContainer {
	c := NewFakeContainer()
	read := fmt.Sprintf("Raw/Reads/Read_%d", r.ReadNumber)
	c.SetAttr(read, "read_id", padded(r.ReadID))
	c.SetAttr(read, "read_number", r.ReadNumber)
	c.SetAttr(read, "start_time", r.StartTime)
	c.SetAttr(read, "duration", int64(8000))
	c.SetAttr(read, "start_mux", int64(1))
	c.SetAttr("UniqueGlobalKey/channel_id", "channel_number", padded(r.Channel))
	c.SetAttr("UniqueGlobalKey/channel_id", "sampling_rate", r.SamplingRate)
	c.SetAttr("UniqueGlobalKey/channel_id", "digitisation", float64(8192))
	c.SetAttr("UniqueGlobalKey/tracking_id", "run_id", padded(r.RunID))
	c.SetAttr("UniqueGlobalKey/tracking_id", "flow_cell_id", padded("FAK00000"))
	c.SetAttr("Analyses/Basecall_1D_000/Summary/basecall_1d_template", "sequence_length", r.SequenceLength)
	c.SetAttr("Analyses/Basecall_1D_000/Summary/basecall_1d_template", "mean_qscore", r.MeanQScore)
	c.SetAttr("Analyses/Calibration_Strand_Detection_000/Summary/calibration_strand_template", "genome", padded(r.Genome))
	c.SetAttr("Analyses/Barcoding_000/Summary/barcoding", "barcode_arrangement", padded(r.Barcode))
	return c
}

func padded(s string) []byte {
	b := make([]byte, len(s)+3)
	copy(b, s)
	return b
}

// EmptyContainer returns a container without any of the catalog groups.
func EmptyContainer() *FakeContainer {
	return NewFakeContainer().AddGroup("Raw").AddGroup("UniqueGlobalKey")
}

// WriteFast5Tree creates count empty files named <batch>_<i>.fast5 under
// dir/<batch> and registers a DefaultRead container for each of them. batch must be
// unique per opener since containers are keyed by base name. It returns the absolute
// file paths in creation order.
func WriteFast5Tree(t *testing.T, opener *MemoryOpener, dir, batch string, count int) []string {
	t.Helper()
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, batch, fmt.Sprintf("%s_%d.fast5", batch, i))
		CreateDummyFile(t, path, "")
		opener.Add(path, DefaultRead(i).Container())
		abs, err := filepath.Abs(path)
		require.NoError(t, err)
		paths = append(paths, abs)
	}
	return paths
}

// DiscardLogger returns a handler dropping every record.
func DiscardLogger() slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// LogBuffer is a concurrency safe buffer for capturing log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// BufferLogger returns a text handler writing into a new LogBuffer at level.
func BufferLogger(level slog.Level) (slog.Handler, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level}), buf
}
