// Package event is a synchronous, named observer registry. Listeners run in
// registration order on the goroutine that emits.
package event

import (
	"sync"

	"github.com/jsphweid/scorepad/logging"
)

type Name string

type Event struct {
	Name Name
	Data map[string]any
}

type Listener func(Event)

type Emitter struct {
	mu        sync.Mutex
	nextID    int
	listeners map[Name][]registration
	log       *logging.Logger
}

type registration struct {
	id int
	fn Listener
}

func NewEmitter(log *logging.Logger) *Emitter {
	return &Emitter{listeners: make(map[Name][]registration), log: log}
}

// Subscribe registers fn for name and returns a function that removes it.
func (e *Emitter) Subscribe(name Name, fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners[name] = append(e.listeners[name], registration{id: id, fn: fn})
	return func() { e.unsubscribe(name, id) }
}

func (e *Emitter) unsubscribe(name Name, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	regs := e.listeners[name]
	for i, r := range regs {
		if r.id == id {
			e.listeners[name] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Emit calls every listener for name. A panicking listener is logged and
// does not stop the others.
func (e *Emitter) Emit(name Name, data map[string]any) {
	e.mu.Lock()
	regs := append([]registration(nil), e.listeners[name]...)
	e.mu.Unlock()

	evt := Event{Name: name, Data: data}
	for _, r := range regs {
		e.call(r.fn, evt)
	}
}

func (e *Emitter) call(fn Listener, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("listener for %v panicked: %v", evt.Name, r)
		}
	}()
	fn(evt)
}
