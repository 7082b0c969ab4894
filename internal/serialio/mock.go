package serialio

import (
	"sync"
	"time"
)

// MockHandle is a scriptable Handle used by unit tests: reads are
// served from a preloaded queue of byte chunks (one chunk per logical
// "device response"), writes are captured for later assertion.
type MockHandle struct {
	mu       sync.Mutex
	queue    [][]byte
	written  []byte
	writes   [][]byte
	timeout  time.Duration
	closed   bool
	failRead error
	failWrit error
}

// NewMockHandle returns a handle with no queued input.
func NewMockHandle() *MockHandle {
	return &MockHandle{timeout: time.Second}
}

// QueueRead appends a chunk to be returned by a future Read call.
func (m *MockHandle) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := append([]byte(nil), data...)
	m.queue = append(m.queue, cp)
}

// FailNextRead makes the next Read return err instead of consuming the queue.
func (m *MockHandle) FailNextRead(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead = err
}

// FailNextWrite makes the next Write return err.
func (m *MockHandle) FailNextWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrit = err
}

// Writes returns every chunk handed to Write so far, in order.
func (m *MockHandle) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// WrittenBytes returns the concatenation of every Write call so far.
func (m *MockHandle) WrittenBytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written...)
}

func (m *MockHandle) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	if m.failWrit != nil {
		err := m.failWrit
		m.failWrit = nil
		return 0, err
	}
	m.written = append(m.written, data...)
	m.writes = append(m.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (m *MockHandle) Read(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	if m.failRead != nil {
		err := m.failRead
		m.failRead = nil
		return 0, err
	}
	if len(m.queue) == 0 {
		return 0, nil // timeout: nothing queued
	}
	chunk := m.queue[0]
	m.queue = m.queue[1:]
	n := copy(buf, chunk)
	return n, nil
}

func (m *MockHandle) SetTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = d
}

func (m *MockHandle) ClearInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.queue = nil
	return nil
}

func (m *MockHandle) ClearOutputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.written = nil
	m.writes = nil
	return nil
}

func (m *MockHandle) BytesAvailable() (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	var n uint32
	for _, c := range m.queue {
		n += uint32(len(c))
	}
	return n, nil
}

func (m *MockHandle) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	return nil
}

var _ Handle = (*MockHandle)(nil)
