// Package testutil provides test doubles for the seqsummary library: an in-memory
// container tree standing in for fast5 files, fixture builders, and testify mocks of
// the injectable interfaces.
package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tleonardi/pycoQC/pkg/seqsummary"
)

// MockHooks provides a mock implementation of the seqsummary.Hooks interface.
// Configure expectations using testify/mock methods (e.g., .On("OnProgress", ...).Return(...)).
// OnFileDiscovered and OnProgress are called from different goroutines; testify/mock
// records calls under its own lock.
type MockHooks struct {
	mock.Mock
}

// OnFileDiscovered mocks the OnFileDiscovered method.
func (m *MockHooks) OnFileDiscovered(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// OnProgress mocks the OnProgress method.
func (m *MockHooks) OnProgress(records int, elapsed time.Duration) error {
	args := m.Called(records, elapsed)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report seqsummary.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

// MockSink provides a mock implementation of the seqsummary.TableSink interface.
type MockSink struct {
	mock.Mock
}

// WriteTable mocks the WriteTable method.
func (m *MockSink) WriteTable(ctx context.Context, runID string, table *seqsummary.Table, counters seqsummary.Counters) error {
	args := m.Called(ctx, runID, table, counters)
	return args.Error(0)
}

// MockTUIProgram records messages sent to the progress UI.
type MockTUIProgram struct {
	mock.Mock
}

// Send mocks the Send method.
func (m *MockTUIProgram) Send(msg interface{}) {
	m.Called(msg)
}

// MockProgressBar records progress bar updates.
type MockProgressBar struct {
	mock.Mock
}

// Set mocks the Set method.
func (m *MockProgressBar) Set(num int) error {
	args := m.Called(num)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockProgressBar) Close() error {
	args := m.Called()
	return args.Error(0)
}
