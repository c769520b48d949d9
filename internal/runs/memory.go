package runs

import (
	"context"
	"sync"
)

// MemoryProvider keeps run records in process memory. It backs the API
// when no database is configured and doubles as a test fake.
type MemoryProvider struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

// RecordRun appends the record.
func (m *MemoryProvider) RecordRun(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// LatestRun returns the most recently recorded run.
func (m *MemoryProvider) LatestRun(context.Context) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return Record{}, ErrNoRuns
	}
	return m.records[len(m.records)-1], nil
}

// All returns a copy of every recorded run in insertion order.
func (m *MemoryProvider) All() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Close is a no-op.
func (*MemoryProvider) Close() {}
