// Package transport fires scheduled callbacks at offsets from a start time.
// Callbacks with equal offsets fire in the order they were scheduled.
package transport

import (
	"errors"
	"sort"
	"time"
)

type Transport interface {
	// Schedule registers fn to run at offset at after Start.
	Schedule(at time.Duration, fn func()) error
	Start() error
	// Cancel drops every callback that has not fired yet. It never blocks on
	// a running callback, so callbacks may call it.
	Cancel()
}

var (
	ErrRunning      = errors.New("transport already running")
	ErrNegativeTime = errors.New("negative schedule time")
	ErrNilCallback  = errors.New("nil callback")
)

type item struct {
	at  time.Duration
	seq int
	fn  func()
}

func sortItems(items []item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].at != items[j].at {
			return items[i].at < items[j].at
		}
		return items[i].seq < items[j].seq
	})
}

func check(at time.Duration, fn func()) error {
	if at < 0 {
		return ErrNegativeTime
	}
	if fn == nil {
		return ErrNilCallback
	}
	return nil
}
