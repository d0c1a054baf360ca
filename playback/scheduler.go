// Package playback turns a score into timed note and cursor events and plays
// them through a transport.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jsphweid/scorepad/audio"
	"github.com/jsphweid/scorepad/event"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/transport"
)

type State int

const (
	Stopped State = iota
	Scheduling
	Playing
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Scheduling:
		return "scheduling"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

const (
	PlaybackStarted   event.Name = "playbackStarted"
	PlaybackStopped   event.Name = "playbackStopped"
	PlaybackFinished  event.Name = "playbackFinished"
	PlaybackError     event.Name = "playbackError"
	ScrolledToMeasure event.Name = "scrolledToMeasure"
	NoteStarted       event.Name = "noteStarted"
	NoteEnded         event.Name = "noteEnded"
)

var (
	// ErrRejected marks a start request that was ignored.
	ErrRejected       = errors.New("playback rejected")
	ErrAlreadyPlaying = fmt.Errorf("%w: already playing", ErrRejected)
	ErrNothingToPlay  = fmt.Errorf("%w: score is empty", ErrRejected)

	ErrAudioNotReady    = errors.New("audio engine not ready")
	ErrTransportFailure = errors.New("transport failure")
)

// TransportError carries the failure reported by the transport. It matches
// ErrTransportFailure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return ErrTransportFailure.Error() + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

// Source is read once per Start.
type Source interface {
	Score() model.Score
}

type Scroller interface {
	ScrollToMeasure(index int)
}

type Scheduler struct {
	mu     sync.Mutex
	state  State
	gen    uint64
	active map[string]audio.Voice

	waitSeq    uint64
	waitCancel context.CancelFunc

	src       Source
	inst      instrument.Instrument
	engine    audio.Engine
	transport transport.Transport
	scroller  Scroller
	events    *event.Emitter
	log       *logging.Logger
}

type Option func(*Scheduler)

func WithScroller(s Scroller) Option {
	return func(sc *Scheduler) { sc.scroller = s }
}

func WithLogger(l *logging.Logger) Option {
	return func(sc *Scheduler) { sc.log = l }
}

func New(src Source, inst instrument.Instrument, engine audio.Engine, tr transport.Transport, opts ...Option) *Scheduler {
	s := &Scheduler{
		active:    make(map[string]audio.Voice),
		src:       src,
		inst:      inst,
		engine:    engine,
		transport: tr,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = event.NewEmitter(s.log)
	return s
}

func (s *Scheduler) Subscribe(name event.Name, fn event.Listener) func() {
	return s.events.Subscribe(name, fn)
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveNotes returns the ids of the notes sounding now.
func (s *Scheduler) ActiveNotes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]string, 0, len(s.active))
	for id := range s.active {
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}

// Start reads the score and schedules a full run from the beginning.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.state != Stopped {
		s.mu.Unlock()
		s.log.Warnf("start ignored: %v", ErrAlreadyPlaying)
		return ErrAlreadyPlaying
	}
	if !s.engine.IsReady() {
		s.mu.Unlock()
		return ErrAudioNotReady
	}
	sc := s.src.Score()
	if !sc.HasContent() {
		s.mu.Unlock()
		s.log.Warnf("start ignored: %v", ErrNothingToPlay)
		return ErrNothingToPlay
	}
	s.state = Scheduling
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	events := Build(sc)
	for _, ev := range events {
		if err := s.transport.Schedule(ev.At, s.fire(gen, ev)); err != nil {
			return s.abort(gen, err)
		}
	}
	if err := s.transport.Start(); err != nil {
		return s.abort(gen, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		// stopped while scheduling
		s.mu.Unlock()
		s.transport.Cancel()
		return nil
	}
	s.state = Playing
	s.mu.Unlock()

	last := events[len(events)-1]
	s.log.Infof("playing %d measures at %v bpm, %v", len(sc.Measures), sc.Tempo, last.At)
	s.events.Emit(PlaybackStarted, map[string]any{
		"measures": len(sc.Measures),
		"events":   len(events),
		"duration": last.At,
	})
	return nil
}

func (s *Scheduler) abort(gen uint64, cause error) error {
	s.transport.Cancel()
	s.mu.Lock()
	if s.gen == gen {
		s.gen++
		s.state = Stopped
		s.active = make(map[string]audio.Voice)
		s.engine.ReleaseAll()
	}
	s.mu.Unlock()

	err := &TransportError{Err: cause}
	s.log.Errorf("%v", err)
	s.events.Emit(PlaybackError, map[string]any{"error": err.Error()})
	return err
}

// fire returns the callback for ev. It does nothing once the run it belongs
// to has been stopped or replaced.
func (s *Scheduler) fire(gen uint64, ev Event) func() {
	return func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		switch ev.Kind {
		case MeasureEnter:
			s.mu.Unlock()
			if s.scroller != nil {
				s.scroller.ScrollToMeasure(ev.MeasureIndex)
			}
			s.events.Emit(ScrolledToMeasure, map[string]any{"measureIndex": ev.MeasureIndex})
		case NoteOn:
			v := audio.VoiceFor(ev.Note, s.inst)
			s.active[ev.Note.ID] = v
			s.engine.NoteOn(v, ev.At)
			s.mu.Unlock()
			s.events.Emit(NoteStarted, map[string]any{"id": ev.Note.ID, "measureIndex": ev.MeasureIndex})
		case NoteOff:
			v, ok := s.active[ev.Note.ID]
			if !ok {
				v = audio.VoiceFor(ev.Note, s.inst)
			}
			delete(s.active, ev.Note.ID)
			s.engine.NoteOff(v, ev.At)
			s.mu.Unlock()
			s.events.Emit(NoteEnded, map[string]any{"id": ev.Note.ID, "measureIndex": ev.MeasureIndex})
		case End:
			// the transport must be free again before Stopped is visible
			s.transport.Cancel()
			s.gen++
			s.state = Stopped
			s.active = make(map[string]audio.Voice)
			s.mu.Unlock()
			s.log.Debugf("playback finished")
			s.events.Emit(PlaybackFinished, nil)
		default:
			s.mu.Unlock()
		}
	}
}

// Stop cancels the run, silences every sounding note and returns to Stopped.
// Stopping an idle scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.waitCancel != nil {
		s.waitCancel()
		s.waitCancel = nil
	}
	if s.state == Stopped && len(s.active) == 0 {
		s.mu.Unlock()
		return
	}
	s.transport.Cancel()
	s.gen++
	s.state = Stopped
	s.active = make(map[string]audio.Voice)
	s.engine.ReleaseAll()
	s.mu.Unlock()

	s.events.Emit(PlaybackStopped, nil)
}

// StartWhenReady waits for the audio engine before starting. A newer call
// supersedes a pending one, which then returns context.Canceled.
func (s *Scheduler) StartWhenReady(ctx context.Context) error {
	s.mu.Lock()
	if s.waitCancel != nil {
		s.waitCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.waitSeq++
	seq := s.waitSeq
	s.waitCancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.waitSeq == seq {
			s.waitCancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	select {
	case <-s.engine.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.engine.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAudioNotReady, err)
	}
	return s.Start()
}
