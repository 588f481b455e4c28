package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestView_Initializing(t *testing.T) {
	m := NewModel("test", "")
	assert.Equal(t, "Initializing...", m.View())
}

func TestView_Quitting(t *testing.T) {
	m := newTestModel(80, 25)
	m.quitting = true
	assert.Equal(t, "Exiting...\n", m.View())
}

func TestView_Running(t *testing.T) {
	m := newTestModel(120, 25)
	m.phaseMessage = "Extracting..."
	m.summary.Discovered = 12
	m.summary.Records = 9
	m.summary.ReadsPerSecond = 4.5
	m.summary.StartTime = time.Now().Add(-2 * time.Second)

	view := m.View()
	assert.Contains(t, view, "fast5-to-seq-summary test")
	assert.Contains(t, view, "Extracting...")
	assert.Contains(t, view, "Discovered: 12")
	assert.Contains(t, view, "Records: 9")
	assert.Contains(t, view, "4.5 reads/s")
	assert.NotContains(t, view, "Valid:")
}

func TestView_Complete(t *testing.T) {
	m := newTestModel(140, 25)
	m.phaseMessage = "Complete"
	m.summary.Done = true
	m.summary.Records = 7
	m.summary.ValidFiles = 6
	m.summary.InvalidFiles = 1
	m.summary.Elapsed = 1500 * time.Millisecond

	view := m.View()
	assert.Contains(t, view, "Complete")
	assert.Contains(t, view, "Valid: 6 | Invalid: 1")
	assert.Contains(t, view, "Elapsed: 1.5s")
}

func TestView_FatalError(t *testing.T) {
	m := newTestModel(120, 25)
	m.summary.Done = true
	m.phaseMessage = "Aborted"
	m.fatalError = `Run ended in state "terminated", no summary written.`

	view := m.View()
	assert.Contains(t, view, "no summary written")
	lines := strings.Split(view, "\n")
	assert.Greater(t, len(lines), 2)
}
