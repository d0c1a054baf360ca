package transport

import (
	"sync"
	"time"
)

// Clock fires callbacks in real time on its own goroutine.
type Clock struct {
	mu      sync.Mutex
	pending []item
	seq     int
	stop    chan struct{}
}

func NewClock() *Clock {
	return &Clock{}
}

func (c *Clock) Schedule(at time.Duration, fn func()) error {
	if err := check(at, fn); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return ErrRunning
	}
	c.seq++
	c.pending = append(c.pending, item{at: at, seq: c.seq, fn: fn})
	return nil
}

func (c *Clock) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return ErrRunning
	}
	items := c.pending
	c.pending = nil
	sortItems(items)
	stop := make(chan struct{})
	c.stop = stop
	go c.run(time.Now(), items, stop)
	return nil
}

func (c *Clock) run(start time.Time, items []item, stop chan struct{}) {
	defer c.finish(stop)
	for _, it := range items {
		if wait := it.at - time.Now().Sub(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		select {
		case <-stop:
			return
		default:
		}
		it.fn()
	}
}

func (c *Clock) finish(stop chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == stop {
		c.stop = nil
	}
}

func (c *Clock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Running reports whether callbacks are still due.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}
