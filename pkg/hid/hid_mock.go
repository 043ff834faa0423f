package hid

import (
	"context"
	"errors"
	"sync"
)

// MockDevice implements Device in memory for tests. It records every
// output and feature report it is handed and replays input reports via
// Emit. Feature report reads are served from the Feature map.
type MockDevice struct {
	mu       sync.Mutex
	writes   [][]byte
	features [][]byte
	closed   bool

	// Feature maps a report ID to the canned response for
	// GetFeatureReport, report ID byte excluded.
	Feature map[byte][]byte

	// WriteErr, when set, is returned by every write path.
	WriteErr error

	reports chan Report
}

func NewMockDevice() *MockDevice {
	return &MockDevice{
		Feature: make(map[byte][]byte),
		reports: make(chan Report),
	}
}

func (m *MockDevice) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (m *MockDevice) SendFeatureReport(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.features = append(m.features, append([]byte(nil), p...))
	return len(p), nil
}

func (m *MockDevice) GetFeatureReport(reportID byte, length int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Feature[reportID]
	if !ok {
		return nil, errors.New("no feature report configured")
	}
	report := make([]byte, length)
	report[0] = reportID
	copy(report[1:], data)
	return report, nil
}

func (m *MockDevice) PollReports(ctx context.Context) <-chan Report {
	go func() {
		<-ctx.Done()
		close(m.reports)
	}()
	return m.reports
}

// Emit delivers one input report to the poll channel.
func (m *MockDevice) Emit(r Report) {
	m.reports <- r
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Writes returns the recorded output reports.
func (m *MockDevice) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.writes...)
}

// FeatureWrites returns the recorded feature reports.
func (m *MockDevice) FeatureWrites() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.features...)
}

// Closed reports whether Close has been called.
func (m *MockDevice) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
