package model

type Measure []Note

// IndexOf returns the position of the note with the given id, or -1.
func (m Measure) IndexOf(id string) int {
	for i, n := range m {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (m Measure) Copy() Measure {
	if m == nil {
		return Measure{}
	}
	res := make(Measure, len(m))
	for i, n := range m {
		res[i] = n.Copy()
	}
	return res
}

type TimeSignature struct {
	Numerator   int `json:"numerator" yaml:"numerator"`
	Denominator int `json:"denominator" yaml:"denominator"`
}

func (ts TimeSignature) Valid() bool {
	if ts.Numerator <= 0 || ts.Denominator <= 0 {
		return false
	}
	// denominator must be a power of two
	return ts.Denominator&(ts.Denominator-1) == 0
}

var CommonTime = TimeSignature{Numerator: 4, Denominator: 4}

type Score struct {
	Measures      []Measure
	Tempo         float64
	TimeSignature TimeSignature
}

func CopyMeasures(measures []Measure) []Measure {
	res := make([]Measure, len(measures))
	for i, m := range measures {
		res[i] = m.Copy()
	}
	return res
}

func (s Score) Copy() Score {
	res := s
	res.Measures = CopyMeasures(s.Measures)
	return res
}

// HasContent reports whether any measure holds at least one entry.
func (s Score) HasContent() bool {
	for _, m := range s.Measures {
		if len(m) > 0 {
			return true
		}
	}
	return false
}

// ScoreData is the persisted shape of a score.
type ScoreData struct {
	Measures            []Measure     `json:"measures" yaml:"measures"`
	Tempo               float64       `json:"tempo" yaml:"tempo"`
	TimeSignature       TimeSignature `json:"timeSignature" yaml:"timeSignature"`
	CurrentMeasureIndex int           `json:"currentMeasureIndex" yaml:"currentMeasureIndex"`
	// unix millis
	SavedAt int64 `json:"savedAt" yaml:"savedAt"`
}

func (d ScoreData) Score() Score {
	return Score{
		Measures:      CopyMeasures(d.Measures),
		Tempo:         d.Tempo,
		TimeSignature: d.TimeSignature,
	}
}
