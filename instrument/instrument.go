// Package instrument holds the per-instrument capability records the score
// document and scheduler are configured with.
package instrument

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jsphweid/scorepad/duration"
	"github.com/jsphweid/scorepad/model"
)

// Params describe a note to create. Fields an instrument does not use are
// ignored.
type Params = model.NoteParams

type Instrument struct {
	Name string
	// Validate returns nil when the note is structurally valid for this instrument.
	Validate func(model.Note) error
	// NewNote builds a note from params, filling instrument defaults.
	NewNote func(Params) (model.Note, error)
	// Channel routes a sounding note to a MIDI channel.
	Channel func(model.Note) uint8
}

var ErrUnknownInstrument = errors.New("unknown instrument")

var registry = map[string]func() Instrument{
	"piano":  Piano,
	"drums":  Drums,
	"guitar": Guitar,
}

func ByName(name string) (Instrument, error) {
	f, ok := registry[name]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, name)
	}
	return f(), nil
}

func Names() []string {
	res := make([]string, 0, len(registry))
	for k := range registry {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// validateCommon checks what every instrument requires: a known duration,
// rest/pitch consistency, pitch range and velocity range.
func validateCommon(n model.Note) error {
	if n.Duration == "" {
		return errors.New("missing duration")
	}
	if !duration.IsValid(n.Duration) {
		return fmt.Errorf("unknown duration %q", n.Duration)
	}
	if n.IsRest && len(n.Pitches) > 0 {
		return errors.New("rest cannot carry pitches")
	}
	if !n.IsRest && len(n.Pitches) == 0 {
		return errors.New("note has no pitches")
	}
	for _, p := range n.Pitches {
		if !p.Valid() {
			return fmt.Errorf("pitch %d out of range", p)
		}
	}
	if n.Velocity < 0 || n.Velocity > 1 {
		return fmt.Errorf("velocity %v out of range 0..1", n.Velocity)
	}
	return nil
}

func validateTechnique(technique string, allowed []string, required bool) error {
	if technique == "" {
		if required {
			return errors.New("missing technique")
		}
		return nil
	}
	for _, t := range allowed {
		if t == technique {
			return nil
		}
	}
	return fmt.Errorf("unknown technique %q", technique)
}

func defaultDuration(d model.Duration) model.Duration {
	if d == "" {
		return model.Quarter
	}
	return d
}

// metaInt reads an integer that may have been decoded from JSON as float64.
func metaInt(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
