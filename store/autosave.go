package store

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/model"
)

// Autosaver coalesces bursts of edits into one write after wait has passed
// without a new one.
type Autosaver struct {
	store     Store
	key       string
	debounced func(f func())
	log       *logging.Logger

	mu      sync.Mutex
	pending *model.ScoreData
}

func NewAutosaver(s Store, key string, wait time.Duration, log *logging.Logger) *Autosaver {
	return &Autosaver{
		store:     s,
		key:       key,
		debounced: debounce.New(wait),
		log:       log,
	}
}

// Save queues data. Write errors are logged when the write happens.
func (a *Autosaver) Save(data model.ScoreData) error {
	a.mu.Lock()
	a.pending = &data
	a.mu.Unlock()
	a.debounced(func() {
		if err := a.Flush(); err != nil {
			a.log.Errorf("autosave of %s failed: %v", a.key, err)
		}
	})
	return nil
}

// Flush writes the queued data now, if any.
func (a *Autosaver) Flush() error {
	a.mu.Lock()
	data := a.pending
	a.pending = nil
	a.mu.Unlock()
	if data == nil {
		return nil
	}
	if err := a.store.Save(a.key, *data); err != nil {
		a.mu.Lock()
		if a.pending == nil {
			a.pending = data
		}
		a.mu.Unlock()
		return err
	}
	a.log.Debugf("saved %s", a.key)
	return nil
}

func (a *Autosaver) Load() (model.ScoreData, error) {
	return a.store.Load(a.key)
}
