package engine

import "sync"

// mailbox is an unbounded FIFO of functions that other goroutines hand to
// the tick goroutine.
//
// The signal channel is buffered with size 1 so bursts of posts coalesce
// into one wake-up of Run.
type mailbox struct {
	mu     sync.Mutex
	fns    []func()
	closed bool
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{
		fns:    make([]func(), 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// post appends fn. It returns false once the mailbox is closed.
func (m *mailbox) post(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.fns = append(m.fns, fn)

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

// take removes and returns everything queued.
func (m *mailbox) take() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.fns) == 0 {
		return nil
	}
	fns := m.fns
	m.fns = make([]func(), 0, cap(fns))
	return fns
}

// wait returns a channel that receives when work may be queued.
func (m *mailbox) wait() <-chan struct{} {
	return m.signal
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fns)
}

// close rejects further posts and returns what was still queued.
func (m *mailbox) close() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	fns := m.fns
	m.fns = nil
	return fns
}
