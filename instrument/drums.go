package instrument

import (
	"errors"
	"fmt"

	"github.com/jsphweid/scorepad/model"
)

var DrumTechniques = []string{"normal", "accent", "ghost", "flam", "roll", "choke"}

// General MIDI percussion keys.
var DrumKit = map[string]model.Pitch{
	"kick":         36,
	"rimshot":      37,
	"snare":        38,
	"clap":         39,
	"tom-floor":    43,
	"hihat-closed": 42,
	"hihat-pedal":  44,
	"tom-low":      45,
	"hihat-open":   46,
	"tom-mid":      47,
	"crash":        49,
	"tom-high":     50,
	"ride":         51,
}

const drumChannel = 9

func Drums() Instrument {
	return Instrument{
		Name:     "drums",
		Validate: validateDrum,
		NewNote:  newDrumNote,
		Channel:  func(model.Note) uint8 { return drumChannel },
	}
}

func validateDrum(n model.Note) error {
	if err := validateCommon(n); err != nil {
		return err
	}
	if err := validateTechnique(n.Technique, DrumTechniques, true); err != nil {
		return err
	}
	if n.IsRest {
		return nil
	}
	name, _ := n.Metadata["drum"].(string)
	key, ok := DrumKit[name]
	if !ok {
		return fmt.Errorf("unknown drum %q", name)
	}
	if len(n.Pitches) != 1 || n.Pitches[0] != key {
		return errors.New("drum pitch does not match kit piece")
	}
	return nil
}

func newDrumNote(p Params) (model.Note, error) {
	n := model.Note{
		Duration:  defaultDuration(p.Duration),
		IsRest:    p.IsRest,
		Technique: p.Technique,
		Velocity:  p.Velocity,
		Clef:      model.Bass,
	}
	if n.Technique == "" {
		n.Technique = "normal"
	}
	if n.Velocity == 0 {
		n.Velocity = 0.8
	}
	if !p.IsRest {
		key, ok := DrumKit[p.Drum]
		if !ok {
			return model.Note{}, fmt.Errorf("unknown drum %q", p.Drum)
		}
		n.Pitches = []model.Pitch{key}
		n.Metadata = map[string]any{"drum": p.Drum}
	}
	return n, validateDrum(n)
}
