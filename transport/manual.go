package transport

import (
	"sync"
	"time"
)

// Manual fires callbacks only when its virtual time is advanced.
type Manual struct {
	mu      sync.Mutex
	pending []item
	seq     int
	now     time.Duration
	started bool
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Schedule(at time.Duration, fn func()) error {
	if err := check(at, fn); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending = append(m.pending, item{at: at, seq: m.seq, fn: fn})
	return nil
}

// Start rewinds virtual time to zero.
func (m *Manual) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrRunning
	}
	m.started = true
	m.now = 0
	return nil
}

func (m *Manual) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.started = false
}

// next removes and returns the earliest callback due by limit.
func (m *Manual) next(limit time.Duration) (item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || len(m.pending) == 0 {
		return item{}, false
	}
	sortItems(m.pending)
	it := m.pending[0]
	if it.at > limit {
		return item{}, false
	}
	m.pending = m.pending[1:]
	m.now = it.at
	return it, true
}

// Advance moves virtual time forward by d, firing every callback due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	limit := m.now + d
	m.mu.Unlock()

	for {
		it, ok := m.next(limit)
		if !ok {
			break
		}
		it.fn()
	}

	m.mu.Lock()
	if m.now < limit {
		m.now = limit
	}
	m.mu.Unlock()
}

// RunAll fires everything that is scheduled, including callbacks scheduled
// by callbacks.
func (m *Manual) RunAll() {
	for {
		it, ok := m.next(1<<63 - 1)
		if !ok {
			return
		}
		it.fn()
	}
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
