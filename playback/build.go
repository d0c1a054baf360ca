package playback

import (
	"sort"
	"time"

	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/duration"
	"github.com/jsphweid/scorepad/model"
)

type Kind int

const (
	MeasureEnter Kind = iota
	NoteOn
	NoteOff
	End
)

func (k Kind) String() string {
	switch k {
	case MeasureEnter:
		return "measureEnter"
	case NoteOn:
		return "noteOn"
	case NoteOff:
		return "noteOff"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Event is one timed step of a playback run. Beat is the position in
// quarter-note beats from the start of the score.
type Event struct {
	At           time.Duration
	Beat         float64
	Kind         Kind
	MeasureIndex int
	Note         model.Note
}

// Build walks s and returns its events ordered by time. Every measure takes
// its full declared width, so short measures end in silence. Events sharing a
// time keep the order they were produced in: a measure marker precedes the
// notes it starts and a note's end precedes the next note's start.
func Build(s model.Score) []Event {
	perMeasure := duration.BeatsPerMeasure(s.TimeSignature)
	at := func(beat float64) time.Duration {
		return duration.ToTime(beat, s.Tempo)
	}

	var events []Event
	measureStart := 0.0
	for i, m := range s.Measures {
		events = append(events, Event{At: at(measureStart), Beat: measureStart, Kind: MeasureEnter, MeasureIndex: i})
		offset := 0.0
		for _, n := range m {
			beats := duration.BeatsOf(n.Duration)
			if !n.IsRest {
				on := measureStart + offset
				off := on + beats
				events = append(events,
					Event{At: at(on), Beat: on, Kind: NoteOn, MeasureIndex: i, Note: n},
					Event{At: at(off), Beat: off, Kind: NoteOff, MeasureIndex: i, Note: n},
				)
			}
			offset += beats
		}
		measureStart += perMeasure
	}
	events = append(events, Event{
		At:           at(measureStart) + constants.EndMarkerDelay,
		Beat:         measureStart,
		Kind:         End,
		MeasureIndex: len(s.Measures) - 1,
	})

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At < events[j].At
	})
	return events
}
