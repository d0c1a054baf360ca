package chord

import (
	"testing"

	"github.com/jsphweid/scorepad/model"
	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestNormalizeSortsAndDedupes(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]model.Pitch{60, 64, 67}, Normalize([]model.Pitch{67, 60, 64, 60}))
	assert.Nil(Normalize(nil))
}

func TestCreateChordKey(t *testing.T) {
	assert.Equal(t, "60-64-67", CreateChordKey([]model.Pitch{64, 67, 60}))
}

func TestGroupMergesSimultaneousNotes(t *testing.T) {
	notes := []model.TimedNote{
		{Pitches: []model.Pitch{48}, Start: 0, Length: 480, Velocity: 90},
		{Pitches: []model.Pitch{64}, Start: 10, Length: 960, Velocity: 100},
		{Pitches: []model.Pitch{67}, Start: 480, Length: 480, Velocity: 70},
	}
	chords := Group(notes, DefaultTolerance)

	assert := assert.New(t)
	assert.Len(chords, 2)
	assert.Equal([]model.Pitch{48, 64}, chords[0].Pitches)
	assert.Equal(720.0, chords[0].Length)
	assert.Equal(uint8(100), chords[0].Velocity)
	assert.Equal(model.Bass, chords[0].Clef)
	assert.Equal(model.Treble, chords[1].Clef)
	assert.Equal(480.0, chords[1].Start)
}

func TestGetTimedNotesRescalesTicks(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Add(960, midi.NoteOff(0, 60))
	track.Add(0, midi.NoteOn(0, 62, 90))
	track.Add(480, midi.NoteOn(0, 62, 0))
	track.Close(0)
	assert.NoError(t, s.Add(track))

	notes := GetTimedNotes(s, 480)

	assert := assert.New(t)
	assert.Len(notes, 2)
	assert.Equal(model.TimedNote{Pitches: []model.Pitch{60}, Start: 0, Length: 480, Velocity: 100}, notes[0])
	assert.Equal(model.TimedNote{Pitches: []model.Pitch{62}, Start: 480, Length: 240, Velocity: 90}, notes[1])
}

func TestGetTimedNotesUnterminatedNoteLastsOneBeat(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 72, 64))
	track.Close(0)
	assert.NoError(t, s.Add(track))

	notes := GetTimedNotes(s, 480)
	assert.Len(t, notes, 1)
	assert.Equal(t, 480.0, notes[0].Length)
}
