package instrument

import (
	"errors"
	"fmt"

	"github.com/jsphweid/scorepad/chord"
	"github.com/jsphweid/scorepad/model"
)

var GuitarTechniques = []string{"normal", "bend", "slide", "hammer-on", "pull-off", "vibrato", "mute", "harmonic"}

// Standard tuning, string 1 (high E) to string 6 (low E).
var GuitarTuning = [6]model.Pitch{64, 59, 55, 50, 45, 40}

const (
	MinFret = 0
	MaxFret = 24
)

func Guitar() Instrument {
	return Instrument{
		Name:     "guitar",
		Validate: validateGuitar,
		NewNote:  newGuitarNote,
		Channel:  func(model.Note) uint8 { return 0 },
	}
}

// GuitarPitch returns the sounding pitch of a fretted string.
func GuitarPitch(str, fret int) (model.Pitch, error) {
	if str < 1 || str > 6 {
		return 0, fmt.Errorf("string %d out of range", str)
	}
	if fret < MinFret || fret > MaxFret {
		return 0, fmt.Errorf("fret %d out of range", fret)
	}
	return GuitarTuning[str-1] + model.Pitch(fret), nil
}

func validateGuitar(n model.Note) error {
	if err := validateCommon(n); err != nil {
		return err
	}
	if err := validateTechnique(n.Technique, GuitarTechniques, true); err != nil {
		return err
	}
	if n.IsRest {
		return nil
	}
	if len(n.Pitches) > 1 {
		if shape, _ := n.Metadata["chordShape"].(string); shape == "" {
			return errors.New("chord is missing its shape")
		}
		return nil
	}
	str, ok1 := metaInt(n.Metadata, "string")
	fret, ok2 := metaInt(n.Metadata, "fret")
	if !ok1 || !ok2 {
		return errors.New("guitar note needs string and fret")
	}
	p, err := GuitarPitch(str, fret)
	if err != nil {
		return err
	}
	if n.Pitches[0] != p {
		return fmt.Errorf("pitch %d does not match string %d fret %d", n.Pitches[0], str, fret)
	}
	return nil
}

func newGuitarNote(p Params) (model.Note, error) {
	n := model.Note{
		Duration:  defaultDuration(p.Duration),
		IsRest:    p.IsRest,
		Technique: p.Technique,
		Velocity:  p.Velocity,
		Clef:      model.Treble,
	}
	if n.Technique == "" {
		n.Technique = "normal"
	}
	switch {
	case p.IsRest:
	case p.Chord != "":
		n.Pitches = chord.Normalize(p.Pitches)
		n.Metadata = map[string]any{"chordShape": p.Chord}
	default:
		pitch, err := GuitarPitch(p.String, p.Fret)
		if err != nil {
			return model.Note{}, err
		}
		n.Pitches = []model.Pitch{pitch}
		n.Metadata = map[string]any{"string": p.String, "fret": p.Fret}
	}
	return n, validateGuitar(n)
}
