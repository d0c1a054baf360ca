// Package history keeps a bounded stack of document snapshots for undo.
package history

import (
	"github.com/jsphweid/scorepad/model"
)

// Snapshot carries the meter and tempo with the measures, so an undo never
// pairs measures with a meter they do not fit.
type Snapshot struct {
	Measures            []model.Measure
	CurrentMeasureIndex int
	Tempo               float64
	TimeSignature       model.TimeSignature
}

func (s Snapshot) Copy() Snapshot {
	res := s
	res.Measures = model.CopyMeasures(s.Measures)
	return res
}

// Manager holds at most depth snapshots. The bottom entry is the floor that
// undo never removes.
type Manager struct {
	stack []Snapshot
	depth int
}

func New(depth int) *Manager {
	if depth < 2 {
		depth = 2
	}
	return &Manager{depth: depth}
}

// Push stores a deep copy of s, dropping the oldest snapshot when full.
func (h *Manager) Push(s Snapshot) {
	h.stack = append(h.stack, s.Copy())
	if len(h.stack) > h.depth {
		copy(h.stack, h.stack[len(h.stack)-h.depth:])
		h.stack = h.stack[:h.depth]
	}
}

// Drop discards the most recent snapshot, used when the edit it guarded
// failed. The floor is kept.
func (h *Manager) Drop() {
	if len(h.stack) > 1 {
		h.stack = h.stack[:len(h.stack)-1]
	}
}

// Undo pops the snapshot taken before the last edit and returns a copy of it.
// It returns false when only the floor remains.
func (h *Manager) Undo() (Snapshot, bool) {
	if len(h.stack) <= 1 {
		return Snapshot{}, false
	}
	top := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]
	return top.Copy(), true
}

// Reset empties the stack and makes s the new floor.
func (h *Manager) Reset(s Snapshot) {
	h.stack = []Snapshot{s.Copy()}
}

func (h *Manager) Len() int {
	return len(h.stack)
}
