// Package score owns the authoritative measure list of one session. Every
// successful edit is snapshotted for undo, redrawn and handed to the saver.
package score

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/duration"
	"github.com/jsphweid/scorepad/event"
	"github.com/jsphweid/scorepad/history"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/model"
	"golang.org/x/exp/slices"
)

// Current addresses the measure the cursor is on.
const Current = -1

var (
	ErrInvalidNote          = errors.New("invalid note")
	ErrMeasureOverflow      = errors.New("measure overflow")
	ErrNotFound             = errors.New("not found")
	ErrInvalidTempo         = errors.New("invalid tempo")
	ErrInvalidTimeSignature = errors.New("invalid time signature")
	ErrTooManyMeasures      = errors.New("too many measures")
)

const (
	NoteAdded            event.Name = "noteAdded"
	NoteRemoved          event.Name = "noteRemoved"
	NoteUpdated          event.Name = "noteUpdated"
	ScoreCleared         event.Name = "scoreCleared"
	UndoPerformed        event.Name = "undoPerformed"
	MeasureAdded         event.Name = "measureAdded"
	CurrentMeasureChange event.Name = "currentMeasureChanged"
	TempoChanged         event.Name = "tempoChanged"
	ScoreLoaded          event.Name = "scoreLoaded"
	ScoreSaved           event.Name = "scoreSaved"
	Rendered             event.Name = "rendered"
	RenderError          event.Name = "renderError"
	SaveError            event.Name = "saveError"
)

type Renderer interface {
	Render(measures []model.Measure) error
}

type Saver interface {
	Save(data model.ScoreData) error
}

type OverflowPolicy int

const (
	// SpillToNewMeasure appends a fresh measure holding the note.
	SpillToNewMeasure OverflowPolicy = iota
	// RejectOverflow fails the edit with ErrMeasureOverflow.
	RejectOverflow
)

// Placement tells where AddNote put a note.
type Placement struct {
	ID           string
	MeasureIndex int
	Spilled      bool
}

type Document struct {
	mu sync.Mutex

	inst     instrument.Instrument
	measures []model.Measure
	current  int
	tempo    float64
	timeSig  model.TimeSignature

	history  *history.Manager
	events   *event.Emitter
	renderer Renderer
	saver    Saver
	log      *logging.Logger
	policy   OverflowPolicy
	newID    func() string
}

type Option func(*Document)

func WithRenderer(r Renderer) Option {
	return func(d *Document) { d.renderer = r }
}

func WithSaver(s Saver) Option {
	return func(d *Document) { d.saver = s }
}

func WithLogger(l *logging.Logger) Option {
	return func(d *Document) { d.log = l }
}

func WithHistoryDepth(depth int) Option {
	return func(d *Document) { d.history = history.New(depth) }
}

func WithTempo(bpm float64) Option {
	return func(d *Document) { d.tempo = bpm }
}

func WithTimeSignature(ts model.TimeSignature) Option {
	return func(d *Document) { d.timeSig = ts }
}

func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(d *Document) { d.policy = p }
}

func WithIDGenerator(f func() string) Option {
	return func(d *Document) { d.newID = f }
}

// New returns a document holding one empty measure. The empty state is the
// history floor.
func New(inst instrument.Instrument, opts ...Option) *Document {
	d := &Document{
		inst:     inst,
		measures: []model.Measure{{}},
		tempo:    constants.DefaultTempo,
		timeSig:  model.CommonTime,
		log:      logging.Nop(),
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.history == nil {
		d.history = history.New(constants.DefaultHistoryDepth)
	}
	if !validTempo(d.tempo) {
		d.tempo = constants.DefaultTempo
	}
	if !d.timeSig.Valid() {
		d.timeSig = model.CommonTime
	}
	d.events = event.NewEmitter(d.log)
	d.history.Push(d.snapshot())
	return d
}

func (d *Document) Subscribe(name event.Name, fn event.Listener) func() {
	return d.events.Subscribe(name, fn)
}

func (d *Document) Instrument() instrument.Instrument {
	return d.inst
}

func (d *Document) snapshot() history.Snapshot {
	return history.Snapshot{
		Measures:            d.measures,
		CurrentMeasureIndex: d.current,
		Tempo:               d.tempo,
		TimeSignature:       d.timeSig,
	}
}

func (d *Document) capacity() float64 {
	return duration.BeatsPerMeasure(d.timeSig)
}

func (d *Document) resolve(measureIndex int) int {
	if measureIndex == Current {
		return d.current
	}
	return measureIndex
}

// AddNote validates note and inserts it into the measure at measureIndex,
// before the entry with insertBeforeID when one exists. Missing measures up to
// the index are created. A note that would overflow its measure is handled
// per the overflow policy.
func (d *Document) AddNote(measureIndex int, note model.Note, insertBeforeID string) (Placement, error) {
	if err := d.inst.Validate(note); err != nil {
		return Placement{}, fmt.Errorf("%w: %v", ErrInvalidNote, err)
	}
	note = note.Copy()

	d.mu.Lock()
	idx := d.resolve(measureIndex)
	if idx < 0 || idx >= constants.MaxMeasures {
		d.mu.Unlock()
		return Placement{}, fmt.Errorf("measure %d: %w", measureIndex, ErrNotFound)
	}
	beats := duration.BeatsOf(note.Duration)
	if beats > d.capacity() {
		d.mu.Unlock()
		return Placement{}, fmt.Errorf("%s needs %v beats, measure holds %v: %w",
			note.Duration, beats, d.capacity(), ErrMeasureOverflow)
	}
	if note.ID == "" {
		note.ID = d.newID()
	}

	d.history.Push(d.snapshot())

	measures := d.measures
	for len(measures) <= idx {
		measures = append(measures, model.Measure{})
	}
	target := measures[idx]
	pos := len(target)
	if insertBeforeID != "" {
		if i := target.IndexOf(insertBeforeID); i >= 0 {
			pos = i
		}
	}

	placement := Placement{ID: note.ID, MeasureIndex: idx}
	if duration.MeasureBeats(target)+beats > d.capacity() {
		if d.policy == RejectOverflow {
			d.history.Drop()
			d.mu.Unlock()
			return Placement{}, fmt.Errorf("measure %d: %w", idx, ErrMeasureOverflow)
		}
		if len(measures) >= constants.MaxMeasures {
			d.history.Drop()
			d.mu.Unlock()
			return Placement{}, fmt.Errorf("no room to spill past measure %d: %w", idx, ErrTooManyMeasures)
		}
		measures = append(measures, model.Measure{note})
		placement.MeasureIndex = len(measures) - 1
		placement.Spilled = true
		d.current = placement.MeasureIndex
	} else {
		measures[idx] = slices.Insert(target, pos, note)
	}
	d.measures = measures
	d.mu.Unlock()

	d.log.Debugf("added %s to measure %d", note.ID, placement.MeasureIndex)
	if placement.Spilled {
		d.events.Emit(MeasureAdded, map[string]any{"measureIndex": placement.MeasureIndex})
	}
	d.changed(NoteAdded, map[string]any{
		"id":           note.ID,
		"measureIndex": placement.MeasureIndex,
		"spilled":      placement.Spilled,
	})
	return placement, nil
}

// RemoveNote deletes the entry and returns it. A measure left empty is
// removed unless it is the first one.
func (d *Document) RemoveNote(measureIndex int, id string) (model.Note, error) {
	d.mu.Lock()
	idx := d.resolve(measureIndex)
	if idx < 0 || idx >= len(d.measures) {
		d.mu.Unlock()
		return model.Note{}, fmt.Errorf("measure %d: %w", measureIndex, ErrNotFound)
	}
	pos := d.measures[idx].IndexOf(id)
	if pos < 0 {
		d.mu.Unlock()
		return model.Note{}, fmt.Errorf("note %q in measure %d: %w", id, idx, ErrNotFound)
	}

	d.history.Push(d.snapshot())

	removed := d.measures[idx][pos]
	d.measures[idx] = slices.Delete(d.measures[idx].Copy(), pos, pos+1)
	measureRemoved := false
	if len(d.measures[idx]) == 0 && idx > 0 {
		d.measures = slices.Delete(d.measures, idx, idx+1)
		measureRemoved = true
		if d.current >= idx {
			d.current--
		}
	}
	if d.current < 0 {
		d.current = 0
	}
	if d.current >= len(d.measures) {
		d.current = len(d.measures) - 1
	}
	d.mu.Unlock()

	d.changed(NoteRemoved, map[string]any{
		"id":             id,
		"measureIndex":   idx,
		"measureRemoved": measureRemoved,
	})
	return removed, nil
}

// UpdateNote merges patch into the entry. The merged note must validate and
// still fit its measure, otherwise nothing changes.
func (d *Document) UpdateNote(measureIndex int, id string, patch model.NotePatch) error {
	d.mu.Lock()
	idx := d.resolve(measureIndex)
	if idx < 0 || idx >= len(d.measures) {
		d.mu.Unlock()
		return fmt.Errorf("measure %d: %w", measureIndex, ErrNotFound)
	}
	pos := d.measures[idx].IndexOf(id)
	if pos < 0 {
		d.mu.Unlock()
		return fmt.Errorf("note %q in measure %d: %w", id, idx, ErrNotFound)
	}

	d.history.Push(d.snapshot())

	old := d.measures[idx][pos]
	merged := applyPatch(old, patch)
	if err := d.inst.Validate(merged); err != nil {
		d.history.Drop()
		d.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidNote, err)
	}
	total := duration.MeasureBeats(d.measures[idx]) - duration.BeatsOf(old.Duration) + duration.BeatsOf(merged.Duration)
	if total > d.capacity() {
		d.history.Drop()
		d.mu.Unlock()
		return fmt.Errorf("measure %d: %w", idx, ErrMeasureOverflow)
	}
	m := d.measures[idx].Copy()
	m[pos] = merged
	d.measures[idx] = m
	d.mu.Unlock()

	d.changed(NoteUpdated, map[string]any{"id": id, "measureIndex": idx})
	return nil
}

func applyPatch(n model.Note, p model.NotePatch) model.Note {
	res := n.Copy()
	if p.Pitches != nil {
		res.Pitches = append([]model.Pitch(nil), (*p.Pitches)...)
	}
	if p.Duration != nil {
		res.Duration = *p.Duration
	}
	if p.IsRest != nil {
		res.IsRest = *p.IsRest
		if res.IsRest && p.Pitches == nil {
			res.Pitches = nil
		}
	}
	if p.Clef != nil {
		res.Clef = *p.Clef
	}
	if p.Technique != nil {
		res.Technique = *p.Technique
	}
	if p.Velocity != nil {
		res.Velocity = *p.Velocity
	}
	if p.Metadata != nil {
		res.Metadata = model.Note{Metadata: *p.Metadata}.Copy().Metadata
	}
	return res
}

// ClearScore resets to one empty measure. It can be undone.
func (d *Document) ClearScore() {
	d.mu.Lock()
	d.history.Push(d.snapshot())
	d.measures = []model.Measure{{}}
	d.current = 0
	d.mu.Unlock()

	d.changed(ScoreCleared, nil)
}

// Undo restores the state from before the last edit. It returns false when
// there is nothing to undo.
func (d *Document) Undo() bool {
	d.mu.Lock()
	snap, ok := d.history.Undo()
	if !ok {
		d.mu.Unlock()
		return false
	}
	d.measures = snap.Measures
	if len(d.measures) == 0 {
		d.measures = []model.Measure{{}}
	}
	d.current = snap.CurrentMeasureIndex
	d.tempo = snap.Tempo
	d.timeSig = snap.TimeSignature
	d.mu.Unlock()

	d.changed(UndoPerformed, map[string]any{"measureIndex": snap.CurrentMeasureIndex})
	return true
}

// AddMeasure appends an empty measure, moves the cursor to it and returns its
// index.
func (d *Document) AddMeasure() (int, error) {
	d.mu.Lock()
	if len(d.measures) >= constants.MaxMeasures {
		d.mu.Unlock()
		return 0, fmt.Errorf("score has %d measures: %w", constants.MaxMeasures, ErrTooManyMeasures)
	}
	d.history.Push(d.snapshot())
	d.measures = append(d.measures, model.Measure{})
	d.current = len(d.measures) - 1
	idx := d.current
	d.mu.Unlock()

	d.changed(MeasureAdded, map[string]any{"measureIndex": idx})
	return idx, nil
}

func (d *Document) SetCurrentMeasure(i int) error {
	d.mu.Lock()
	if i < 0 || i >= len(d.measures) {
		d.mu.Unlock()
		return fmt.Errorf("measure %d: %w", i, ErrNotFound)
	}
	d.current = i
	d.mu.Unlock()

	d.events.Emit(CurrentMeasureChange, map[string]any{"measureIndex": i})
	d.persist(d.Data())
	return nil
}

func validTempo(bpm float64) bool {
	return bpm > 0 && !math.IsInf(bpm, 0) && !math.IsNaN(bpm)
}

// SetTempo changes the tempo. It can be undone.
func (d *Document) SetTempo(bpm float64) error {
	if !validTempo(bpm) {
		return fmt.Errorf("%v: %w", bpm, ErrInvalidTempo)
	}
	d.mu.Lock()
	d.history.Push(d.snapshot())
	d.tempo = bpm
	d.mu.Unlock()

	d.changed(TempoChanged, map[string]any{"tempo": bpm})
	return nil
}

// SetTimeSignature changes the meter. It fails when an existing measure would
// no longer fit. It can be undone.
func (d *Document) SetTimeSignature(ts model.TimeSignature) error {
	if !ts.Valid() {
		return fmt.Errorf("%d/%d: %w", ts.Numerator, ts.Denominator, ErrInvalidTimeSignature)
	}
	d.mu.Lock()
	for i, m := range d.measures {
		if duration.Overflows(m, ts) {
			d.mu.Unlock()
			return fmt.Errorf("measure %d under %d/%d: %w", i, ts.Numerator, ts.Denominator, ErrMeasureOverflow)
		}
	}
	d.history.Push(d.snapshot())
	d.timeSig = ts
	d.mu.Unlock()

	d.changed(TempoChanged, map[string]any{"tempo": d.Tempo(), "timeSignature": ts})
	return nil
}

// Restore replaces the whole document with data, typically loaded from a
// store or an import. History starts over from the restored state.
func (d *Document) Restore(data model.ScoreData) error {
	sc := WithDefaults(data.Score())
	if err := Validate(d.inst, sc); err != nil {
		return err
	}
	measures := sc.Measures
	for i, m := range measures {
		for j, n := range m {
			if n.ID == "" {
				measures[i][j].ID = d.newID()
			}
		}
	}
	current := data.CurrentMeasureIndex
	if current < 0 || current >= len(measures) {
		current = 0
	}

	d.mu.Lock()
	d.measures = measures
	d.current = current
	d.tempo = sc.Tempo
	d.timeSig = sc.TimeSignature
	d.history.Reset(d.snapshot())
	d.mu.Unlock()

	d.events.Emit(ScoreLoaded, map[string]any{"measures": len(measures)})
	d.render()
	return nil
}

func (d *Document) Tempo() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tempo
}

func (d *Document) TimeSignature() model.TimeSignature {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timeSig
}

func (d *Document) CurrentMeasureIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Score returns a deep copy for readers such as the playback scheduler.
func (d *Document) Score() model.Score {
	d.mu.Lock()
	defer d.mu.Unlock()
	return model.Score{
		Measures:      model.CopyMeasures(d.measures),
		Tempo:         d.tempo,
		TimeSignature: d.timeSig,
	}
}

// Data returns the persisted form, stamped with the current time.
func (d *Document) Data() model.ScoreData {
	d.mu.Lock()
	defer d.mu.Unlock()
	return model.ScoreData{
		Measures:            model.CopyMeasures(d.measures),
		Tempo:               d.tempo,
		TimeSignature:       d.timeSig,
		CurrentMeasureIndex: d.current,
		SavedAt:             time.Now().UnixMilli(),
	}
}

// Save hands the current state to the saver and reports its error.
func (d *Document) Save() error {
	if d.saver == nil {
		return nil
	}
	data := d.Data()
	if err := d.saver.Save(data); err != nil {
		return err
	}
	d.events.Emit(ScoreSaved, map[string]any{"savedAt": data.SavedAt})
	return nil
}

// changed runs the side effects shared by every successful edit.
func (d *Document) changed(name event.Name, data map[string]any) {
	d.render()
	d.persist(d.Data())
	d.events.Emit(name, data)
}

func (d *Document) render() {
	if d.renderer == nil {
		return
	}
	d.mu.Lock()
	measures := model.CopyMeasures(d.measures)
	d.mu.Unlock()

	if err := d.renderer.Render(measures); err != nil {
		d.log.Warnf("render failed: %v", err)
		d.events.Emit(RenderError, map[string]any{"error": err.Error()})
		return
	}
	d.events.Emit(Rendered, map[string]any{"measures": len(measures)})
}

// persist never fails the edit that triggered it.
func (d *Document) persist(data model.ScoreData) {
	if d.saver == nil {
		return
	}
	if err := d.saver.Save(data); err != nil {
		d.log.Warnf("save failed: %v", err)
		d.events.Emit(SaveError, map[string]any{"error": err.Error()})
	}
}
