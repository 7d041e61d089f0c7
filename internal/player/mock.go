package player

import "sync"

// Mock is a scriptable Source for tests.
type Mock struct {
	mu     sync.Mutex
	status Status
	err    error
	events chan Status
}

// NewMock creates a mock source reporting the given initial status.
func NewMock(status Status) *Mock {
	return &Mock{status: status, events: make(chan Status, 8)}
}

// Set changes what subsequent Sample calls return.
func (m *Mock) Set(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.err = nil
}

// Fail makes subsequent Sample calls return err.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Emit pushes a change notification, as a real player would on a state
// change, and makes it the sampled status too.
func (m *Mock) Emit(status Status) {
	m.Set(status)
	m.events <- status
}

func (m *Mock) Sample() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.err
}

func (m *Mock) Events() <-chan Status { return m.events }

func (m *Mock) Close() error { return nil }
