package duration

import (
	"fmt"
	"testing"
	"time"

	"github.com/jsphweid/scorepad/model"
	"github.com/stretchr/testify/assert"
)

func TestBeatsOf(t *testing.T) {
	cases := map[model.Duration]float64{
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
	for d, want := range cases {
		t.Run(fmt.Sprintf("beats of %v", d), func(t *testing.T) {
			assert.Equal(t, want, BeatsOf(d))
			assert.True(t, IsValid(d))
		})
	}
}

func TestUnknownDurationFallsBackToQuarter(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(1.0, BeatsOf("64"))
	assert.False(IsValid("64"))
	_, ok := Lookup("64")
	assert.False(ok)
}

func TestBeatsPerMeasureAndSecondsPerBeat(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(3.0, BeatsPerMeasure(model.TimeSignature{Numerator: 3, Denominator: 4}))
	assert.Equal(0.5, SecondsPerBeat(120))
	assert.Equal(time.Second, ToTime(2, 120))
	assert.Equal(93750*time.Microsecond, ToTime(0.1875, 120))
}

func TestMeasureBeatsAndOverflow(t *testing.T) {
	m := model.Measure{{Duration: model.Quarter}, {Duration: model.Quarter}, {Duration: model.Half}}
	assert := assert.New(t)
	assert.Equal(4.0, MeasureBeats(m))
	assert.False(Overflows(m, model.CommonTime))
	assert.True(Overflows(m, model.TimeSignature{Numerator: 3, Denominator: 4}))
}

func TestAllIsLongestFirst(t *testing.T) {
	all := All()
	assert.Len(t, all, 12)
	assert.Equal(t, model.WholeDotted, all[0])
	assert.Equal(t, model.ThirtySecond, all[len(all)-1])
}

func TestNearest(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(model.Quarter, Nearest(480, 480))
	assert.Equal(model.Quarter, Nearest(470, 480))
	assert.Equal(model.HalfDotted, Nearest(1440, 480))
	assert.Equal(model.ThirtySecond, Nearest(10, 480))
}

func TestSplitAcrossBarLine(t *testing.T) {
	// a half note starting on beat 4 of a 4/4 measure
	parts := Split(960, 480, 1920, 480)
	assert.Equal(t, []model.Duration{model.Quarter, model.Quarter}, parts)
}

func TestSplitFitsWhole(t *testing.T) {
	assert.Equal(t, []model.Duration{model.Whole}, Split(1920, 1920, 1920, 480))
}
