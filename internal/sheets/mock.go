package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/charge-tax-intel/internal/report"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, rep report.Report) error
	WriteCalls     []WriteCall
	LastReport     report.Report
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error  error
	Report report.Report
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write implements the ReportWriter interface.
func (m *MockWriter) Write(ctx context.Context, rep report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastReport = rep

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, rep)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Report: rep,
		Error:  err,
	})

	return err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = make([]WriteCall, 0)
	m.LastReport = report.Report{}
}

var _ ReportWriter = (*MockWriter)(nil)
var _ ReportWriter = (*Writer)(nil)
