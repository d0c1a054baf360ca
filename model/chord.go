package model

// TimedNote is a sounding note recovered from a MIDI file, in ticks normalised
// to the score resolution.
type TimedNote struct {
	Pitches  []Pitch
	Start    float64
	Length   float64
	Velocity uint8
	TrackNum int
}

// Chord is a group of notes starting together (within a tolerance).
type Chord struct {
	Pitches  []Pitch
	Start    float64
	Length   float64
	Velocity uint8
	Clef     Clef
}

type ReducedEvent struct {
	Tick      int64
	IsNoteOff bool
	Note      Pitch
	Velocity  uint8
	TrackNum  int
}
