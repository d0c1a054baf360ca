package score

import (
	"fmt"

	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/duration"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/model"
)

// WithDefaults fills in what a partially specified score leaves out: the
// default tempo, common time and a single empty measure.
func WithDefaults(sc model.Score) model.Score {
	if sc.Tempo == 0 {
		sc.Tempo = constants.DefaultTempo
	}
	if sc.TimeSignature == (model.TimeSignature{}) {
		sc.TimeSignature = model.CommonTime
	}
	if len(sc.Measures) == 0 {
		sc.Measures = []model.Measure{{}}
	}
	return sc
}

// Validate checks sc the way the document checks its own edits: tempo,
// meter, length, every entry against inst and every measure's capacity.
func Validate(inst instrument.Instrument, sc model.Score) error {
	if !validTempo(sc.Tempo) {
		return fmt.Errorf("%v: %w", sc.Tempo, ErrInvalidTempo)
	}
	ts := sc.TimeSignature
	if !ts.Valid() {
		return fmt.Errorf("%d/%d: %w", ts.Numerator, ts.Denominator, ErrInvalidTimeSignature)
	}
	if len(sc.Measures) > constants.MaxMeasures {
		return fmt.Errorf("%d measures, at most %d: %w", len(sc.Measures), constants.MaxMeasures, ErrTooManyMeasures)
	}
	for i, m := range sc.Measures {
		for j, n := range m {
			if err := inst.Validate(n); err != nil {
				return fmt.Errorf("measure %d entry %d: %w: %v", i, j, ErrInvalidNote, err)
			}
		}
		if duration.Overflows(m, ts) {
			return fmt.Errorf("measure %d: %w", i, ErrMeasureOverflow)
		}
	}
	return nil
}
