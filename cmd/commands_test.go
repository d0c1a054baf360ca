package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/midi"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScore() model.ScoreData {
	return model.ScoreData{
		Measures: []model.Measure{
			{
				{ID: "a", Pitches: []model.Pitch{60, 64, 67}, Duration: model.Half},
				{ID: "r", IsRest: true, Duration: model.Half},
			},
			{{ID: "b", Pitches: []model.Pitch{48}, Duration: model.Whole, Clef: model.Bass}},
		},
		Tempo:         120,
		TimeSignature: model.CommonTime,
		SavedAt:       1700000000000,
	}
}

func writeMidi(t *testing.T, path string, data model.ScoreData) {
	s, err := midi.Export(data.Score(), instrument.Piano())
	require.NoError(t, err)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, midi.WriteMidi(s, f))
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, store.WriteFile(filepath.Join(dir, "song.json"), testScore()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	var out bytes.Buffer
	require.NoError(t, report(store.NewFile(dir, store.JSON), &out))

	assert := assert.New(t)
	assert.Contains(out.String(), "song")
	assert.Contains(out.String(), "unreadable")
	assert.Contains(out.String(), "4s")
	assert.Contains(out.String(), "2 scores, 2 notes")
}

func TestAnalyzeScore(t *testing.T) {
	r := analyzeScore("song", testScore())
	assert.Equal(t, 2, r.measures)
	assert.Equal(t, 2, r.notes)
	assert.Equal(t, 1, r.rests)
	assert.False(t, r.savedAt.IsZero())
}

func TestInspectScore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.yaml")
	require.NoError(t, store.WriteFile(path, testScore()))

	var out bytes.Buffer
	require.NoError(t, inspect(path, &out))
	assert.Contains(t, out.String(), "2 measures, 3 entries")
	assert.Contains(t, out.String(), "<C4+E4+G4>")
}

func TestInspectMidi(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	writeMidi(t, path, testScore())

	var out bytes.Buffer
	require.NoError(t, inspect(path, &out))

	assert := assert.New(t)
	assert.Contains(out.String(), "channel  0")
	assert.Contains(out.String(), "channel  1")
	assert.Contains(out.String(), "chords: 2")
	assert.Contains(out.String(), "60-64-67")
}

func TestGatherMidiPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.mid", "a.MIDI", "sub/c.mid", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	paths, err := gatherMidiPaths(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.MIDI"),
		filepath.Join(dir, "b.mid"),
		filepath.Join(dir, "sub", "c.mid"),
	}, paths)

	paths, err = gatherMidiPaths(dir, 1)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestImportFileValidates(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "song.mid")
	writeMidi(t, in, testScore())

	out := filepath.Join(dir, "song.json")
	require.NoError(t, importFile(in, out, newLogger()))
	data, err := store.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, data.Measures, 2)

	importOpts.instrument = "kazoo"
	defer func() { importOpts.instrument = "piano" }()
	assert.Error(t, importFile(in, out, newLogger()))
}
