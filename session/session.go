// Package session wires one score document to its player, its adapters and
// its persistence. Nothing in it is global: each session owns its parts.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/jsphweid/scorepad/audio"
	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/playback"
	"github.com/jsphweid/scorepad/render"
	"github.com/jsphweid/scorepad/score"
	"github.com/jsphweid/scorepad/store"
	"github.com/jsphweid/scorepad/transport"
)

type Config struct {
	Instrument     string
	Key            string
	HistoryDepth   int
	OverflowPolicy score.OverflowPolicy

	// Store is optional; without it nothing is persisted.
	Store        store.Store
	AutosaveWait time.Duration

	Engine    audio.Engine
	Transport transport.Transport
	Renderer  render.Renderer
	Log       *logging.Logger
}

type Session struct {
	Doc    *score.Document
	Player *playback.Scheduler

	key       string
	autosaver *store.Autosaver
	log       *logging.Logger
}

func New(cfg Config) (*Session, error) {
	if cfg.Instrument == "" {
		cfg.Instrument = constants.GetInstrument()
	}
	if cfg.Key == "" {
		cfg.Key = "default"
	}
	if cfg.HistoryDepth == 0 {
		cfg.HistoryDepth = constants.DefaultHistoryDepth
	}
	if cfg.Log == nil {
		cfg.Log = logging.Nop()
	}
	if cfg.Engine == nil {
		cfg.Engine = audio.NewLog(cfg.Log.With("audio"))
	}
	if cfg.Transport == nil {
		cfg.Transport = transport.NewClock()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.Nop{}
	}

	inst, err := instrument.ByName(cfg.Instrument)
	if err != nil {
		return nil, err
	}

	s := &Session{key: cfg.Key, log: cfg.Log}
	opts := []score.Option{
		score.WithRenderer(cfg.Renderer),
		score.WithLogger(cfg.Log.With("score")),
		score.WithHistoryDepth(cfg.HistoryDepth),
		score.WithOverflowPolicy(cfg.OverflowPolicy),
	}
	if cfg.Store != nil {
		if cfg.AutosaveWait <= 0 {
			cfg.AutosaveWait = constants.GetAutosaveWait()
		}
		s.autosaver = store.NewAutosaver(cfg.Store, cfg.Key, cfg.AutosaveWait, cfg.Log.With("store"))
		opts = append(opts, score.WithSaver(s.autosaver))
	}
	s.Doc = score.New(inst, opts...)

	if s.autosaver != nil {
		data, err := s.autosaver.Load()
		switch {
		case errors.Is(err, store.ErrNotFound):
			cfg.Log.Infof("starting new score %q", cfg.Key)
		case err != nil:
			return nil, fmt.Errorf("could not load score %q: %w", cfg.Key, err)
		default:
			if err := s.Doc.Restore(data); err != nil {
				return nil, fmt.Errorf("could not restore score %q: %w", cfg.Key, err)
			}
			cfg.Log.Infof("loaded score %q with %d measures", cfg.Key, len(data.Measures))
		}
	}

	s.Player = playback.New(s.Doc, inst, cfg.Engine, cfg.Transport,
		playback.WithScroller(cfg.Renderer),
		playback.WithLogger(cfg.Log.With("playback")),
	)
	return s, nil
}

func (s *Session) Key() string {
	return s.key
}

// Save writes the score to the store right away.
func (s *Session) Save() error {
	if err := s.Doc.Save(); err != nil {
		return err
	}
	if s.autosaver == nil {
		return nil
	}
	return s.autosaver.Flush()
}

// Close stops playback and writes any pending autosave.
func (s *Session) Close() error {
	s.Player.Stop()
	if s.autosaver == nil {
		return nil
	}
	return s.autosaver.Flush()
}
