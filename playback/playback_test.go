package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/scorepad/audio"
	"github.com/jsphweid/scorepad/event"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind string
	id   string
	at   time.Duration
}

type fakeEngine struct {
	*audio.Readiness
	mu    sync.Mutex
	calls []call
}

func readyEngine() *fakeEngine {
	e := &fakeEngine{Readiness: audio.NewReadiness()}
	e.Resolve()
	return e
}

func (e *fakeEngine) record(c call) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, c)
}

func (e *fakeEngine) NoteOn(v audio.Voice, at time.Duration)  { e.record(call{"on", v.NoteID, at}) }
func (e *fakeEngine) NoteOff(v audio.Voice, at time.Duration) { e.record(call{"off", v.NoteID, at}) }
func (e *fakeEngine) ReleaseAll()                             { e.record(call{kind: "releaseAll"}) }

func (e *fakeEngine) count(kind string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

type fakeScroller struct {
	measures []int
}

func (f *fakeScroller) ScrollToMeasure(i int) { f.measures = append(f.measures, i) }

type staticSource struct {
	score model.Score
}

func (s *staticSource) Score() model.Score { return s.score.Copy() }

type failingTransport struct {
	*transport.Manual
	failAfter int
	scheduled int
}

func (f *failingTransport) Schedule(at time.Duration, fn func()) error {
	if f.scheduled >= f.failAfter {
		return errors.New("timer queue full")
	}
	f.scheduled++
	return f.Manual.Schedule(at, fn)
}

func note(id string, d model.Duration, pitches ...model.Pitch) model.Note {
	return model.Note{ID: id, Pitches: pitches, Duration: d}
}

func rest(id string, d model.Duration) model.Note {
	return model.Note{ID: id, Duration: d, IsRest: true}
}

func oneQuarterScore() model.Score {
	return model.Score{
		Measures:      []model.Measure{{note("a", model.Quarter, 60)}},
		Tempo:         120,
		TimeSignature: model.CommonTime,
	}
}

func TestBuildSingleQuarter(t *testing.T) {
	events := Build(oneQuarterScore())

	assert := assert.New(t)
	require.Len(t, events, 4)
	assert.Equal(MeasureEnter, events[0].Kind)
	assert.Equal(time.Duration(0), events[0].At)
	assert.Equal(NoteOn, events[1].Kind)
	assert.Equal(time.Duration(0), events[1].At)
	assert.Equal(NoteOff, events[2].Kind)
	assert.Equal(500*time.Millisecond, events[2].At)
	assert.Equal(End, events[3].Kind)
	assert.Equal(2100*time.Millisecond, events[3].At)
	assert.Equal(4.0, events[3].Beat)
}

func TestBuildOrdersTiesAndSkipsRests(t *testing.T) {
	s := model.Score{
		Measures: []model.Measure{
			{note("a", model.Half, 60), rest("r", model.Quarter), note("b", model.Quarter, 62)},
			{note("c", model.Whole, 64)},
			{},
		},
		Tempo:         60,
		TimeSignature: model.CommonTime,
	}
	events := Build(s)

	type step struct {
		kind Kind
		id   string
		at   time.Duration
	}
	var got []step
	for _, ev := range events {
		got = append(got, step{ev.Kind, ev.Note.ID, ev.At})
	}
	assert.Equal(t, []step{
		{MeasureEnter, "", 0},
		{NoteOn, "a", 0},
		{NoteOff, "a", 2 * time.Second},
		{NoteOn, "b", 3 * time.Second},
		{NoteOff, "b", 4 * time.Second},
		{MeasureEnter, "", 4 * time.Second},
		{NoteOn, "c", 4 * time.Second},
		{NoteOff, "c", 8 * time.Second},
		{MeasureEnter, "", 8 * time.Second},
		{End, "", 12*time.Second + 100*time.Millisecond},
	}, got)
}

func TestBuildMeasuresHaveDeclaredWidth(t *testing.T) {
	s := model.Score{
		Measures: []model.Measure{
			{note("a", model.Eighth, 60)},
			{note("b", model.Eighth, 62)},
		},
		Tempo:         120,
		TimeSignature: model.TimeSignature{Numerator: 3, Denominator: 4},
	}
	events := Build(s)
	assert.Equal(t, 1500*time.Millisecond, events[3].At)
	assert.Equal(t, MeasureEnter, events[3].Kind)
	assert.Equal(t, 1, events[3].MeasureIndex)
}

func newScheduler(sc model.Score, engine audio.Engine, tr transport.Transport) (*Scheduler, *fakeScroller) {
	scroller := &fakeScroller{}
	return New(&staticSource{score: sc}, instrument.Piano(), engine, tr, WithScroller(scroller)), scroller
}

func TestPlayThroughToEnd(t *testing.T) {
	engine := readyEngine()
	tr := transport.NewManual()
	s, scroller := newScheduler(oneQuarterScore(), engine, tr)
	var names []event.Name
	for _, name := range []event.Name{PlaybackStarted, ScrolledToMeasure, PlaybackFinished} {
		s.Subscribe(name, func(e event.Event) { names = append(names, e.Name) })
	}

	require.NoError(t, s.Start())
	assert.Equal(t, Playing, s.State())

	tr.Advance(0)
	assert.Equal(t, []string{"a"}, s.ActiveNotes())
	tr.Advance(500 * time.Millisecond)
	assert.Empty(t, s.ActiveNotes())
	assert.Equal(t, Playing, s.State())
	tr.Advance(1600 * time.Millisecond)

	assert := assert.New(t)
	assert.Equal(Stopped, s.State())
	assert.Equal([]call{{"on", "a", 0}, {"off", "a", 500 * time.Millisecond}}, engine.calls)
	assert.Equal([]int{0}, scroller.measures)
	assert.Equal([]event.Name{PlaybackStarted, ScrolledToMeasure, PlaybackFinished}, names)

	// a finished run can be started again
	assert.NoError(s.Start())
}

func TestStartRejectsReentry(t *testing.T) {
	s, _ := newScheduler(oneQuarterScore(), readyEngine(), transport.NewManual())
	require.NoError(t, s.Start())

	err := s.Start()
	assert.ErrorIs(t, err, ErrAlreadyPlaying)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, Playing, s.State())
}

func TestStartRejectsEmptyScore(t *testing.T) {
	sc := model.Score{Measures: []model.Measure{{}, {}}, Tempo: 120, TimeSignature: model.CommonTime}
	s, _ := newScheduler(sc, readyEngine(), transport.NewManual())

	assert.ErrorIs(t, s.Start(), ErrNothingToPlay)
	assert.Equal(t, Stopped, s.State())
}

func TestStartRequiresReadyAudio(t *testing.T) {
	engine := &fakeEngine{Readiness: audio.NewReadiness()}
	tr := transport.NewManual()
	s, _ := newScheduler(oneQuarterScore(), engine, tr)

	assert.ErrorIs(t, s.Start(), ErrAudioNotReady)
	assert.Equal(t, Stopped, s.State())
	assert.Equal(t, 0, tr.Pending())
}

func TestStopCancelsPendingEvents(t *testing.T) {
	engine := readyEngine()
	tr := transport.NewManual()
	s, scroller := newScheduler(oneQuarterScore(), engine, tr)
	stopped := 0
	s.Subscribe(PlaybackStopped, func(event.Event) { stopped++ })

	require.NoError(t, s.Start())
	tr.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a"}, s.ActiveNotes())

	s.Stop()
	s.Stop()
	tr.RunAll()

	assert := assert.New(t)
	assert.Equal(Stopped, s.State())
	assert.Empty(s.ActiveNotes())
	assert.Equal(1, engine.count("releaseAll"))
	assert.Equal(0, engine.count("off"))
	assert.Equal(1, stopped)
	assert.Equal([]int{0}, scroller.measures)
}

func TestStaleCallbacksAreIgnored(t *testing.T) {
	engine := readyEngine()
	var callbacks []func()
	tr := &capturingTransport{Manual: transport.NewManual(), captured: &callbacks}
	s, _ := newScheduler(oneQuarterScore(), engine, tr)

	require.NoError(t, s.Start())
	s.Stop()
	require.NoError(t, s.Start())

	// fire the first run's callbacks directly, as a transport that cannot
	// unschedule would
	for _, fn := range callbacks[:4] {
		fn()
	}
	assert.Equal(t, 0, engine.count("on"))
	assert.Equal(t, Playing, s.State())
}

type capturingTransport struct {
	*transport.Manual
	captured *[]func()
}

func (c *capturingTransport) Schedule(at time.Duration, fn func()) error {
	*c.captured = append(*c.captured, fn)
	return c.Manual.Schedule(at, fn)
}

func TestTransportFailureAbortsToStopped(t *testing.T) {
	engine := readyEngine()
	tr := &failingTransport{Manual: transport.NewManual(), failAfter: 2}
	s, _ := newScheduler(oneQuarterScore(), engine, tr)
	var reported error
	s.Subscribe(PlaybackError, func(e event.Event) { reported = errors.New(e.Data["error"].(string)) })

	err := s.Start()

	assert := assert.New(t)
	assert.ErrorIs(err, ErrTransportFailure)
	var te *TransportError
	assert.True(errors.As(err, &te))
	assert.EqualError(te.Err, "timer queue full")
	assert.Equal(Stopped, s.State())
	assert.Equal(1, engine.count("releaseAll"))
	assert.Equal(0, tr.Pending())
	assert.Error(reported)
}

func TestEditsAfterStopAreReflectedInNextStart(t *testing.T) {
	src := &staticSource{score: oneQuarterScore()}
	engine := readyEngine()
	tr := transport.NewManual()
	s := New(src, instrument.Piano(), engine, tr)

	require.NoError(t, s.Start())
	src.score.Measures[0] = append(src.score.Measures[0], note("b", model.Quarter, 62))
	tr.Advance(time.Second)
	assert.Equal(t, 1, engine.count("on"))
	s.Stop()

	require.NoError(t, s.Start())
	tr.RunAll()
	assert.Equal(t, 3, engine.count("on"))
}

func TestStartWhenReadyWaitsForAudio(t *testing.T) {
	engine := &fakeEngine{Readiness: audio.NewReadiness()}
	tr := transport.NewManual()
	s, _ := newScheduler(oneQuarterScore(), engine, tr)

	done := make(chan error, 1)
	go func() { done <- s.StartWhenReady(context.Background()) }()

	select {
	case <-done:
		t.Fatal("started before audio was ready")
	case <-time.After(20 * time.Millisecond):
	}
	engine.Resolve()

	assert.NoError(t, <-done)
	assert.Equal(t, Playing, s.State())
}

func TestStartWhenReadySupersededByLaterRequest(t *testing.T) {
	engine := &fakeEngine{Readiness: audio.NewReadiness()}
	s, _ := newScheduler(oneQuarterScore(), engine, transport.NewManual())

	first := make(chan error, 1)
	go func() { first <- s.StartWhenReady(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	second := make(chan error, 1)
	go func() { second <- s.StartWhenReady(context.Background()) }()

	assert.ErrorIs(t, <-first, context.Canceled)
	engine.Resolve()
	assert.NoError(t, <-second)
}

func TestStartWhenReadyFailedAudio(t *testing.T) {
	engine := &fakeEngine{Readiness: audio.NewReadiness()}
	engine.Fail(errors.New("no output device"))
	s, _ := newScheduler(oneQuarterScore(), engine, transport.NewManual())

	err := s.StartWhenReady(context.Background())
	assert.ErrorIs(t, err, ErrAudioNotReady)
	assert.Equal(t, Stopped, s.State())
}

func TestStopCancelsPendingWait(t *testing.T) {
	engine := &fakeEngine{Readiness: audio.NewReadiness()}
	s, _ := newScheduler(oneQuarterScore(), engine, transport.NewManual())

	done := make(chan error, 1)
	go func() { done <- s.StartWhenReady(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, Stopped, s.State())
}

type orderingTransport struct {
	*transport.Manual
	sched         *Scheduler
	stateAtCancel []State
}

// Cancel runs while the scheduler holds its lock, so state is read directly.
func (o *orderingTransport) Cancel() {
	o.stateAtCancel = append(o.stateAtCancel, o.sched.state)
	o.Manual.Cancel()
}

func TestTransportReleasedBeforeStopped(t *testing.T) {
	assert := assert.New(t)
	tr := &orderingTransport{Manual: transport.NewManual()}
	s, _ := newScheduler(oneQuarterScore(), readyEngine(), tr)
	tr.sched = s

	require.NoError(t, s.Start())
	tr.RunAll()
	assert.Equal([]State{Playing}, tr.stateAtCancel)
	assert.Equal(Stopped, s.State())

	require.NoError(t, s.Start())
	s.Stop()
	assert.Equal([]State{Playing, Playing}, tr.stateAtCancel)
	assert.NoError(s.Start())
}

func TestRestartAsSoonAsStoppedWithClock(t *testing.T) {
	sc := oneQuarterScore()
	sc.Tempo = 600
	s, _ := newScheduler(sc, readyEngine(), transport.NewClock())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Start())
		require.Eventually(t, func() bool { return s.State() == Stopped }, 2*time.Second, time.Millisecond)
	}
	require.NoError(t, s.Start())
	s.Stop()
	assert.NoError(t, s.Start())
	s.Stop()
}
