package midi

import (
	"math"

	"github.com/jsphweid/scorepad/chord"
	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/duration"
	"github.com/jsphweid/scorepad/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

// gaps shorter than this many ticks are not written as rests
const restThreshold = 1

// Import turns a file into score data. Simultaneous notes become chords,
// gaps become rests and notes crossing a bar line are split into tied parts.
func Import(s *smf.SMF) model.ScoreData {
	data := model.ScoreData{
		Tempo:         constants.DefaultTempo,
		TimeSignature: model.CommonTime,
	}
	readMeta(s, &data)

	b := &measureBuilder{
		measureTicks: duration.BeatsPerMeasure(data.TimeSignature) * constants.TicksPerBeat,
	}
	cursor := 0.0
	for _, c := range chord.Group(chord.GetTimedNotes(s, constants.TicksPerBeat), chord.DefaultTolerance) {
		if gap := c.Start - cursor; gap > restThreshold {
			b.add(model.Note{IsRest: true}, gap)
		}
		b.add(model.Note{Pitches: c.Pitches, Clef: c.Clef, Velocity: velocity(c.Velocity)}, c.Length)
		cursor = c.Start + c.Length
	}
	b.closeMeasure()

	data.Measures = b.measures
	if len(data.Measures) == 0 {
		data.Measures = []model.Measure{{}}
	}
	return data
}

func velocity(v uint8) float64 {
	return math.Round(float64(v)/127*100) / 100
}

// readMeta takes the first time signature and tempo found.
func readMeta(s *smf.SMF, data *model.ScoreData) {
	var meterFound, tempoFound bool
	for _, track := range s.Tracks {
		for _, ev := range track {
			var num, denom uint8
			var bpm float64
			switch {
			case !meterFound && ev.Message.GetMetaMeter(&num, &denom):
				ts := model.TimeSignature{Numerator: int(num), Denominator: int(denom)}
				if ts.Valid() {
					data.TimeSignature = ts
					meterFound = true
				}
			case !tempoFound && ev.Message.GetMetaTempo(&bpm):
				if bpm > 0 {
					data.Tempo = bpm
					tempoFound = true
				}
			}
		}
	}
}

type measureBuilder struct {
	measures     []model.Measure
	current      model.Measure
	used         float64
	measureTicks float64
}

func (b *measureBuilder) remaining() float64 {
	return b.measureTicks - b.used
}

func (b *measureBuilder) add(item model.Note, ticks float64) {
	sym := duration.Nearest(ticks, constants.TicksPerBeat)
	symTicks := float64(duration.Ticks(sym, constants.TicksPerBeat))
	if symTicks <= b.remaining() {
		b.append(item, sym, symTicks)
		return
	}

	parts := duration.Split(ticks, b.remaining(), b.measureTicks, constants.TicksPerBeat)
	for i, part := range parts {
		partTicks := float64(duration.Ticks(part, constants.TicksPerBeat))
		if partTicks > b.remaining() {
			b.closeMeasure()
		}
		n := item
		if i < len(parts)-1 && !item.IsRest {
			n.Metadata = map[string]any{"tied": true}
		}
		b.append(n, part, partTicks)
	}
}

func (b *measureBuilder) append(item model.Note, sym model.Duration, ticks float64) {
	n := item.Copy()
	n.Duration = sym
	b.current = append(b.current, n)
	b.used += ticks
}

// closeMeasure pads the open measure with rests and starts a new one.
func (b *measureBuilder) closeMeasure() {
	if len(b.current) == 0 {
		return
	}
	if space := b.remaining(); space > 0 {
		for _, sym := range duration.Split(space, space, b.measureTicks, constants.TicksPerBeat) {
			t := float64(duration.Ticks(sym, constants.TicksPerBeat))
			if t > b.remaining() {
				break
			}
			b.append(model.Note{IsRest: true}, sym, t)
		}
	}
	b.measures = append(b.measures, b.current)
	b.current = nil
	b.used = 0
}
