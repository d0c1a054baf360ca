package chord

import (
	"fmt"
	"sort"

	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/util"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// notes starting within this many ticks of each other form one chord
const DefaultTolerance = 20

// Normalize sorts pitches ascending and drops duplicates.
func Normalize(pitches []model.Pitch) []model.Pitch {
	if len(pitches) == 0 {
		return nil
	}
	res := util.Dedupe(append([]model.Pitch(nil), pitches...))
	sort.Slice(res, func(i, j int) bool {
		return res[i] < res[j]
	})
	return res
}

func CreateChordKey(notes []model.Pitch) string {
	notes = Normalize(notes)
	var res string
	for i, note := range notes {
		res += fmt.Sprintf("%v", note)
		if i < len(notes)-1 {
			res += "-"
		}
	}
	return res
}

func resolution(s *smf.SMF) float64 {
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok && mt > 0 {
		return float64(mt)
	}
	return 960
}

func reduceEvents(s *smf.SMF) []model.ReducedEvent {
	var reducedEvents []model.ReducedEvent
	for trackNum, events := range s.Tracks {
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			msg := midi.Message(event.Message)
			var channel, key, velocity uint8
			switch {
			case msg.GetNoteStart(&channel, &key, &velocity):
				reducedEvents = append(reducedEvents, model.ReducedEvent{
					Tick:     absTicks,
					Note:     model.Pitch(key),
					Velocity: velocity,
					TrackNum: trackNum,
				})
			case msg.GetNoteEnd(&channel, &key):
				reducedEvents = append(reducedEvents, model.ReducedEvent{
					Tick:      absTicks,
					IsNoteOff: true,
					Note:      model.Pitch(key),
					TrackNum:  trackNum,
				})
			}
		}
	}

	// prioritize smaller offset values then note off
	sort.SliceStable(reducedEvents, func(i, j int) bool {
		if reducedEvents[i].Tick != reducedEvents[j].Tick {
			return reducedEvents[i].Tick < reducedEvents[j].Tick
		}
		return reducedEvents[i].IsNoteOff && !reducedEvents[j].IsNoteOff
	})
	return reducedEvents
}

// GetTimedNotes pairs note starts and ends per key and track, with ticks
// rescaled to ticksPerBeat. A note that never ends lasts one beat.
func GetTimedNotes(s *smf.SMF, ticksPerBeat int) []model.TimedNote {
	factor := float64(ticksPerBeat) / resolution(s)

	type voiceKey struct {
		note  model.Pitch
		track int
	}
	pressed := make(map[voiceKey]model.ReducedEvent)
	var res []model.TimedNote
	for _, evt := range reduceEvents(s) {
		k := voiceKey{note: evt.Note, track: evt.TrackNum}
		if !evt.IsNoteOff {
			pressed[k] = evt
			continue
		}
		on, ok := pressed[k]
		if !ok {
			continue
		}
		delete(pressed, k)
		if evt.Tick <= on.Tick {
			continue
		}
		res = append(res, model.TimedNote{
			Pitches:  []model.Pitch{on.Note},
			Start:    float64(on.Tick) * factor,
			Length:   float64(evt.Tick-on.Tick) * factor,
			Velocity: on.Velocity,
			TrackNum: on.TrackNum,
		})
	}
	for _, on := range pressed {
		res = append(res, model.TimedNote{
			Pitches:  []model.Pitch{on.Note},
			Start:    float64(on.Tick) * factor,
			Length:   float64(ticksPerBeat),
			Velocity: on.Velocity,
			TrackNum: on.TrackNum,
		})
	}

	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Start != res[j].Start {
			return res[i].Start < res[j].Start
		}
		return res[i].Pitches[0] < res[j].Pitches[0]
	})
	return res
}

// Group merges notes whose start lies within tolerance ticks of the first
// note of the group. The chord lasts the average of its notes and sits on the
// bass staff when any pitch is below middle C.
func Group(notes []model.TimedNote, tolerance float64) []model.Chord {
	var chords []model.Chord
	var current []model.TimedNote

	flush := func() {
		if len(current) == 0 {
			return
		}
		var c model.Chord
		c.Start = current[0].Start
		for _, n := range current {
			c.Pitches = append(c.Pitches, n.Pitches...)
			c.Length += n.Length
			c.Velocity = util.Max(c.Velocity, n.Velocity)
		}
		c.Length /= float64(len(current))
		c.Pitches = Normalize(c.Pitches)
		c.Clef = model.Treble
		if c.Pitches[0] < 60 {
			c.Clef = model.Bass
		}
		chords = append(chords, c)
		current = current[:0]
	}

	for _, n := range notes {
		if len(current) > 0 && n.Start-current[0].Start > tolerance {
			flush()
		}
		current = append(current, n)
	}
	flush()
	return chords
}
