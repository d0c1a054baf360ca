package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFiresInTimeThenScheduleOrder(t *testing.T) {
	m := NewManual()
	var fired []string
	add := func(at time.Duration, name string) {
		assert.NoError(t, m.Schedule(at, func() { fired = append(fired, name) }))
	}
	add(time.Second, "c")
	add(0, "a")
	add(time.Second, "d")
	add(0, "b")
	assert.NoError(t, m.Start())

	m.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 500*time.Millisecond, m.Now())

	m.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c", "d"}, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManualNothingFiresBeforeStart(t *testing.T) {
	m := NewManual()
	fired := false
	assert.NoError(t, m.Schedule(0, func() { fired = true }))
	m.RunAll()
	assert.False(t, fired)
}

func TestManualCancelFromCallback(t *testing.T) {
	m := NewManual()
	var fired []int
	assert.NoError(t, m.Schedule(0, func() { fired = append(fired, 1); m.Cancel() }))
	assert.NoError(t, m.Schedule(time.Second, func() { fired = append(fired, 2) }))
	assert.NoError(t, m.Start())

	m.RunAll()
	assert.Equal(t, []int{1}, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestScheduleRejectsBadInput(t *testing.T) {
	for _, tr := range []Transport{NewManual(), NewClock()} {
		assert.ErrorIs(t, tr.Schedule(-time.Second, func() {}), ErrNegativeTime)
		assert.ErrorIs(t, tr.Schedule(0, nil), ErrNilCallback)
	}
}

func TestClockFiresInOrder(t *testing.T) {
	c := NewClock()
	var mu sync.Mutex
	var fired []string
	done := make(chan struct{})
	add := func(at time.Duration, name string) {
		assert.NoError(t, c.Schedule(at, func() {
			mu.Lock()
			fired = append(fired, name)
			mu.Unlock()
			if name == "last" {
				close(done)
			}
		}))
	}
	add(20*time.Millisecond, "late")
	add(0, "first")
	add(0, "second")
	add(30*time.Millisecond, "last")
	assert.NoError(t, c.Start())
	assert.ErrorIs(t, c.Start(), ErrRunning)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("clock never finished")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "late", "last"}, fired)
}

func TestClockCancelStopsPendingCallbacks(t *testing.T) {
	c := NewClock()
	fired := make(chan struct{}, 1)
	assert.NoError(t, c.Schedule(50*time.Millisecond, func() { fired <- struct{}{} }))
	assert.NoError(t, c.Start())
	assert.True(t, c.Running())

	c.Cancel()
	c.Cancel()

	select {
	case <-fired:
		t.Fatal("cancelled callback fired")
	case <-time.After(100 * time.Millisecond):
	}
	assert.False(t, c.Running())
	// a cancelled clock can be reused
	assert.NoError(t, c.Schedule(0, func() {}))
	assert.NoError(t, c.Start())
	c.Cancel()
}
