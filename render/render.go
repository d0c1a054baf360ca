// Package render draws a score as plain text. It stands in for a notation
// view: it redraws on every edit and follows the playback cursor.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jsphweid/scorepad/model"
)

type Renderer interface {
	Render(measures []model.Measure) error
	ScrollToMeasure(index int)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName spells a MIDI key in scientific notation, 60 is C4.
func PitchName(p model.Pitch) string {
	return fmt.Sprintf("%s%d", noteNames[int(p)%12], int(p)/12-1)
}

// Entry formats one note, chord or rest.
func Entry(n model.Note) string {
	if n.IsRest {
		return "r" + string(n.Duration)
	}
	names := make([]string, len(n.Pitches))
	for i, p := range n.Pitches {
		names[i] = PitchName(p)
	}
	res := strings.Join(names, "+")
	if len(names) > 1 {
		res = "<" + res + ">"
	}
	return res + "/" + string(n.Duration)
}

// Line formats a measure, an empty one as a whole-bar rest.
func Line(m model.Measure) string {
	if len(m) == 0 {
		return "-"
	}
	parts := make([]string, len(m))
	for i, n := range m {
		parts[i] = Entry(n)
	}
	return strings.Join(parts, " ")
}

// Text writes one line per measure, marking the measure under the cursor.
type Text struct {
	mu      sync.Mutex
	w       io.Writer
	cursor  int
	lastLen int
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Render(measures []model.Measure) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastLen = len(measures)
	var sb strings.Builder
	for i, m := range measures {
		marker := " "
		if i == t.cursor {
			marker = ">"
		}
		fmt.Fprintf(&sb, "%s%3d | %s |\n", marker, i+1, Line(m))
	}
	_, err := io.WriteString(t.w, sb.String())
	return err
}

func (t *Text) ScrollToMeasure(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor = index
	fmt.Fprintf(t.w, "> measure %d/%d\n", index+1, t.lastLen)
}

type Nop struct{}

func (Nop) Render([]model.Measure) error { return nil }
func (Nop) ScrollToMeasure(int)          {}
