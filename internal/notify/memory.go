package notify

import (
	"context"
	"sync"
)

// MemoryProvider collects messages in process memory for tests.
type MemoryProvider struct {
	mu       sync.Mutex
	messages []Message
	closed   bool
}

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

// Publish records the message.
func (m *MemoryProvider) Publish(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of everything published so far.
func (m *MemoryProvider) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Closed reports whether Close has been called.
func (m *MemoryProvider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the provider closed.
func (m *MemoryProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
