package instrument

import (
	"fmt"

	"github.com/jsphweid/scorepad/chord"
	"github.com/jsphweid/scorepad/model"
)

var PianoTechniques = []string{"normal", "staccato", "tenuto", "accent"}

// notes below middle C go on the bass staff
const middleC model.Pitch = 60

func Piano() Instrument {
	return Instrument{
		Name:     "piano",
		Validate: validatePiano,
		NewNote:  newPianoNote,
		Channel: func(n model.Note) uint8 {
			if n.Clef == model.Bass {
				return 1
			}
			return 0
		},
	}
}

func validatePiano(n model.Note) error {
	if err := validateCommon(n); err != nil {
		return err
	}
	if n.Clef != "" && n.Clef != model.Treble && n.Clef != model.Bass {
		return fmt.Errorf("unknown clef %q", n.Clef)
	}
	return validateTechnique(n.Technique, PianoTechniques, false)
}

func newPianoNote(p Params) (model.Note, error) {
	n := model.Note{
		Duration:  defaultDuration(p.Duration),
		IsRest:    p.IsRest,
		Clef:      p.Clef,
		Technique: p.Technique,
		Velocity:  p.Velocity,
	}
	if n.Technique == "" {
		n.Technique = "normal"
	}
	if !p.IsRest {
		n.Pitches = chord.Normalize(p.Pitches)
		if n.Clef == "" && len(n.Pitches) > 0 {
			n.Clef = ClefFor(n.Pitches)
		}
	}
	if n.Clef == "" {
		n.Clef = model.Treble
	}
	return n, validatePiano(n)
}

// ClefFor picks the staff by the lowest pitch.
func ClefFor(pitches []model.Pitch) model.Clef {
	for _, p := range pitches {
		if p < middleC {
			return model.Bass
		}
	}
	return model.Treble
}
