package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/model"
	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"
)

func TestReadinessResolvesOnce(t *testing.T) {
	r := NewReadiness()
	assert := assert.New(t)
	assert.False(r.IsReady())
	assert.ErrorIs(r.Err(), ErrNotResolved)

	r.Resolve()
	r.Fail(errors.New("too late"))

	<-r.Ready()
	assert.True(r.IsReady())
	assert.NoError(r.Err())
}

func TestReadinessFailAfter(t *testing.T) {
	r := NewReadiness()
	timeout := errors.New("audio unlock timed out")
	r.FailAfter(10*time.Millisecond, timeout)

	select {
	case <-r.Ready():
	case <-time.After(time.Second):
		t.Fatal("readiness never resolved")
	}
	assert.False(t, r.IsReady())
	assert.ErrorIs(t, r.Err(), timeout)
}

func TestVoiceFor(t *testing.T) {
	piano := instrument.Piano()
	n := model.Note{ID: "a", Pitches: []model.Pitch{40, 43}, Duration: model.Quarter, Clef: model.Bass}

	v := VoiceFor(n, piano)
	assert := assert.New(t)
	assert.Equal(Voice{NoteID: "a", Keys: []model.Pitch{40, 43}, Velocity: 80, Channel: 1}, v)

	n.Velocity = 0.5
	assert.Equal(uint8(64), VoiceFor(n, piano).Velocity)
	assert.Equal(uint8(9), VoiceFor(n, instrument.Drums()).Channel)
}

type sentMessage struct {
	on       bool
	channel  uint8
	key      uint8
	velocity uint8
}

func capture(sent *[]sentMessage) func(midi.Message) error {
	return func(msg midi.Message) error {
		var s sentMessage
		switch {
		case msg.GetNoteStart(&s.channel, &s.key, &s.velocity):
			s.on = true
		case msg.GetNoteEnd(&s.channel, &s.key):
		}
		*sent = append(*sent, s)
		return nil
	}
}

func TestMIDIOutTracksSoundingKeys(t *testing.T) {
	var sent []sentMessage
	m := NewMIDIOutFunc(capture(&sent), logging.Nop())
	chord := Voice{NoteID: "c", Keys: []model.Pitch{60, 64}, Velocity: 100}

	m.NoteOn(chord, 0)
	assert.Equal(t, 2, m.Sounding())
	m.NoteOff(Voice{Keys: []model.Pitch{60}}, time.Second)
	assert.Equal(t, 1, m.Sounding())

	m.ReleaseAll()
	m.ReleaseAll()

	assert := assert.New(t)
	assert.Equal(0, m.Sounding())
	assert.Equal([]sentMessage{
		{on: true, key: 60, velocity: 100},
		{on: true, key: 64, velocity: 100},
		{key: 60},
		{key: 64},
	}, sent)
}

func TestMIDIOutIgnoresNoteOffForSilentKey(t *testing.T) {
	var sent []sentMessage
	m := NewMIDIOutFunc(capture(&sent), logging.Nop())
	m.NoteOff(Voice{Keys: []model.Pitch{60}}, 0)
	assert.Empty(t, sent)
}
