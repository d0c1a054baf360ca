package model

type ErrorResponse struct {
	Error string `json:"detail"`
}

// AddNoteRequest carries either a complete note or the params the
// instrument builds one from.
type AddNoteRequest struct {
	// nil means the current measure
	MeasureIndex   *int        `json:"measureIndex,omitempty"`
	Note           Note        `json:"note"`
	Params         *NoteParams `json:"params,omitempty"`
	InsertBeforeID string      `json:"insertBeforeId,omitempty"`
}

// NoteParams describes a note by what the player picks: keys, a drum, a
// string and fret, or a named chord.
type NoteParams struct {
	Pitches   []Pitch  `json:"pitches,omitempty"`
	Duration  Duration `json:"duration,omitempty"`
	IsRest    bool     `json:"isRest,omitempty"`
	Clef      Clef     `json:"clef,omitempty"`
	Technique string   `json:"technique,omitempty"`
	Velocity  float64  `json:"velocity,omitempty"`
	Drum      string   `json:"drum,omitempty"`
	String    int      `json:"string,omitempty"`
	Fret      int      `json:"fret,omitempty"`
	Chord     string   `json:"chord,omitempty"`
}

type AddNoteResponse struct {
	ID           string `json:"id"`
	MeasureIndex int    `json:"measureIndex"`
	Spilled      bool   `json:"spilled"`
}

type NotePatch struct {
	Pitches   *[]Pitch        `json:"pitches,omitempty"`
	Duration  *Duration       `json:"duration,omitempty"`
	IsRest    *bool           `json:"isRest,omitempty"`
	Clef      *Clef           `json:"clef,omitempty"`
	Technique *string         `json:"technique,omitempty"`
	Velocity  *float64        `json:"velocity,omitempty"`
	Metadata  *map[string]any `json:"metadata,omitempty"`
}

type TempoRequest struct {
	Tempo         float64        `json:"tempo"`
	TimeSignature *TimeSignature `json:"timeSignature,omitempty"`
}

type UndoResponse struct {
	Undone bool `json:"undone"`
}

type PlaybackStatus struct {
	State       string   `json:"state"`
	ActiveNotes []string `json:"activeNotes"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
