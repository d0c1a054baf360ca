package model

// Pitch is a MIDI key number, 0..127.
type Pitch int

const (
	MinPitch Pitch = 0
	MaxPitch Pitch = 127
)

func (p Pitch) Valid() bool {
	return p >= MinPitch && p <= MaxPitch
}

type Duration string

const (
	Whole              Duration = "w"
	WholeDotted        Duration = "w."
	Half               Duration = "h"
	HalfDotted         Duration = "h."
	Quarter            Duration = "q"
	QuarterDotted      Duration = "q."
	Eighth             Duration = "8"
	EighthDotted       Duration = "8."
	Sixteenth          Duration = "16"
	SixteenthDotted    Duration = "16."
	ThirtySecond       Duration = "32"
	ThirtySecondDotted Duration = "32."
)

type Clef string

const (
	Treble Clef = "treble"
	Bass   Clef = "bass"
)

// Note is one entry of a measure: a single pitch, a chord or a rest.
type Note struct {
	ID        string         `json:"id" yaml:"id"`
	Pitches   []Pitch        `json:"pitches,omitempty" yaml:"pitches,omitempty,flow"`
	Duration  Duration       `json:"duration" yaml:"duration"`
	IsRest    bool           `json:"isRest" yaml:"isRest"`
	Clef      Clef           `json:"clef,omitempty" yaml:"clef,omitempty"`
	Technique string         `json:"technique,omitempty" yaml:"technique,omitempty"`
	Velocity  float64        `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NoteVelocity returns the velocity in 0..1, defaulting to full velocity.
func (n Note) NoteVelocity() float64 {
	if n.Velocity <= 0 {
		return 1
	}
	if n.Velocity > 1 {
		return 1
	}
	return n.Velocity
}

func (n Note) Copy() Note {
	res := n
	if n.Pitches != nil {
		res.Pitches = append([]Pitch(nil), n.Pitches...)
	}
	if n.Metadata != nil {
		res.Metadata = copyMap(n.Metadata)
	}
	return res
}

func copyMap(m map[string]any) map[string]any {
	res := make(map[string]any, len(m))
	for k, v := range m {
		res[k] = copyValue(v)
	}
	return res
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		res := make([]any, len(t))
		for i, e := range t {
			res[i] = copyValue(e)
		}
		return res
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	default:
		return v
	}
}
