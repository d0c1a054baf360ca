package cmd

import (
	"path/filepath"
	"strings"

	"github.com/jsphweid/scorepad/midi"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/store"
)

func isMidiPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return true
	default:
		return false
	}
}

// loadScore reads a score file, importing MIDI files on the way.
func loadScore(path string) (model.ScoreData, error) {
	if isMidiPath(path) {
		s, err := midi.ReadMidiFile(path)
		if err != nil {
			return model.ScoreData{}, err
		}
		return midi.Import(s), nil
	}
	return store.ReadFile(path)
}
