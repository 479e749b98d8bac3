package tracking

import (
	"context"
	"sync"
)

// MockSource is a Source driven by tests. Messages passed to Send are delivered on the
// current stream's channel.
type MockSource struct {
	mu     sync.Mutex
	ch     chan Message
	err    error
	starts int
	stops  int
}

// NewMockSource creates a new MockSource instance.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// SetError makes the next Start calls fail with err.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Start opens a new stream.
func (m *MockSource) Start(_ context.Context) (<-chan Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.starts++
	m.ch = make(chan Message, 16)
	return m.ch, nil
}

// Stop closes the current stream.
func (m *MockSource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	if m.ch != nil {
		close(m.ch)
		m.ch = nil
	}
}

// Send delivers msg on the current stream. It reports false when no stream is open.
func (m *MockSource) Send(msg Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ch == nil {
		return false
	}
	m.ch <- msg
	return true
}

// End closes the current stream as if the upstream had gone away.
func (m *MockSource) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ch != nil {
		close(m.ch)
		m.ch = nil
	}
}

// Running reports whether a stream is open.
func (m *MockSource) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ch != nil
}

// Starts returns how many streams were opened.
func (m *MockSource) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// Stops returns how many times Stop was called.
func (m *MockSource) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
