// Package duration converts note durations and time signatures into beats,
// seconds and MIDI ticks. A quarter note is one beat.
package duration

import (
	"math"
	"sort"
	"time"

	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/util"
)

var beatValues = map[model.Duration]float64{
	model.Whole:              4,
	model.WholeDotted:        6,
	model.Half:               2,
	model.HalfDotted:         3,
	model.Quarter:            1,
	model.QuarterDotted:      1.5,
	model.Eighth:             0.5,
	model.EighthDotted:       0.75,
	model.Sixteenth:          0.25,
	model.SixteenthDotted:    0.375,
	model.ThirtySecond:       0.125,
	model.ThirtySecondDotted: 0.1875,
}

// Lookup returns the beat count of d and whether d is a known symbol.
func Lookup(d model.Duration) (float64, bool) {
	b, ok := beatValues[d]
	return b, ok
}

// BeatsOf returns the beat count of d. Unknown symbols count as a quarter note.
func BeatsOf(d model.Duration) float64 {
	if b, ok := beatValues[d]; ok {
		return b
	}
	return 1
}

func IsValid(d model.Duration) bool {
	_, ok := beatValues[d]
	return ok
}

// All returns every known symbol, longest first.
func All() []model.Duration {
	res := make([]model.Duration, 0, len(beatValues))
	for d := range beatValues {
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool {
		return beatValues[res[i]] > beatValues[res[j]]
	})
	return res
}

func BeatsPerMeasure(ts model.TimeSignature) float64 {
	return float64(ts.Numerator)
}

func SecondsPerBeat(tempo float64) float64 {
	return 60 / tempo
}

// MeasureBeats sums the beats of every entry in m.
func MeasureBeats(m model.Measure) float64 {
	return util.SumBy(m, func(n model.Note) float64 { return BeatsOf(n.Duration) })
}

// Overflows reports whether m exceeds the capacity of ts.
func Overflows(m model.Measure, ts model.TimeSignature) bool {
	return MeasureBeats(m) > BeatsPerMeasure(ts)
}

// ToTime converts a beat position into elapsed time at tempo.
func ToTime(beats float64, tempo float64) time.Duration {
	return time.Duration(math.Round(beats * SecondsPerBeat(tempo) * float64(time.Second)))
}

func Ticks(d model.Duration, ticksPerBeat int) int {
	return int(math.Round(BeatsOf(d) * float64(ticksPerBeat)))
}

// Nearest returns the symbol whose length is closest to ticks, preferring
// the longer symbol on a tie.
func Nearest(ticks float64, ticksPerBeat int) model.Duration {
	best := model.Quarter
	bestDiff := math.Inf(1)
	for _, d := range All() {
		diff := math.Abs(float64(Ticks(d, ticksPerBeat)) - ticks)
		if diff < bestDiff {
			best = d
			bestDiff = diff
		}
	}
	return best
}

// Split breaks a length of ticks into symbols that respect bar lines, given
// the space left in the current measure. It gives up after a bounded number of
// parts, so tiny remainders are dropped.
func Split(ticks float64, space float64, measureTicks float64, ticksPerBeat int) []model.Duration {
	const maxParts = 20
	smallest := float64(Ticks(model.ThirtySecond, ticksPerBeat))

	var parts []model.Duration
	remaining := ticks
	for i := 0; i < maxParts && remaining >= smallest/2; i++ {
		if space < smallest {
			space = measureTicks
		}
		want := util.Min(remaining, space)
		var pick model.Duration
		pickTicks := 0.0
		for _, d := range All() {
			t := float64(Ticks(d, ticksPerBeat))
			if t <= space && math.Abs(t-want) < math.Abs(pickTicks-want) {
				pick, pickTicks = d, t
			}
		}
		if pick == "" {
			space = measureTicks
			continue
		}
		parts = append(parts, pick)
		remaining -= pickTicks
		space -= pickTicks
	}
	return parts
}
