// Package audio defines the sound output the playback scheduler drives and
// ships a MIDI output and a logging engine.
package audio

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/util"
)

// Voice is one sounding entry: a single key or a chord.
type Voice struct {
	NoteID   string
	Keys     []model.Pitch
	Velocity uint8
	Channel  uint8
}

// VoiceFor routes n through inst. A note without velocity plays at the
// default MIDI velocity.
func VoiceFor(n model.Note, inst instrument.Instrument) Voice {
	v := Voice{
		NoteID:   n.ID,
		Keys:     append([]model.Pitch(nil), n.Pitches...),
		Velocity: constants.DefaultVelocity,
	}
	if n.Velocity > 0 {
		// 0 would turn the note on as a note off
		v.Velocity = uint8(util.Clamp(math.Round(n.NoteVelocity()*127), 1, 127))
	}
	if inst.Channel != nil {
		v.Channel = inst.Channel(n)
	}
	return v
}

// Engine receives note calls at their scheduled times. at is the offset from
// the start of playback.
type Engine interface {
	IsReady() bool
	// Ready is closed once the engine has either become ready or failed.
	Ready() <-chan struct{}
	// Err reports why the engine will never become ready.
	Err() error
	NoteOn(v Voice, at time.Duration)
	NoteOff(v Voice, at time.Duration)
	ReleaseAll()
}

var ErrNotResolved = errors.New("audio engine not ready yet")

// Readiness resolves exactly once, either ready or failed.
type Readiness struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

func (r *Readiness) Resolve() {
	r.once.Do(func() { close(r.done) })
}

func (r *Readiness) Fail(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// FailAfter fails r if it is still pending after d.
func (r *Readiness) FailAfter(d time.Duration, err error) {
	go func() {
		select {
		case <-r.done:
		case <-time.After(d):
			r.Fail(err)
		}
	}()
}

func (r *Readiness) Ready() <-chan struct{} {
	return r.done
}

func (r *Readiness) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return ErrNotResolved
	}
}

func (r *Readiness) IsReady() bool {
	return r.Err() == nil
}
