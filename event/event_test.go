package event

import (
	"testing"

	"github.com/jsphweid/scorepad/logging"
	"github.com/stretchr/testify/assert"
)

func TestListenersRunInRegistrationOrder(t *testing.T) {
	e := NewEmitter(logging.Nop())
	var calls []string
	e.Subscribe("noteAdded", func(Event) { calls = append(calls, "first") })
	e.Subscribe("noteAdded", func(Event) { calls = append(calls, "second") })
	e.Subscribe("other", func(Event) { calls = append(calls, "other") })

	e.Emit("noteAdded", nil)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestUnsubscribe(t *testing.T) {
	e := NewEmitter(logging.Nop())
	count := 0
	unsubscribe := e.Subscribe("x", func(Event) { count++ })
	e.Emit("x", nil)
	unsubscribe()
	e.Emit("x", nil)
	assert.Equal(t, 1, count)
}

func TestPanickingListenerDoesNotStopOthers(t *testing.T) {
	e := NewEmitter(logging.Nop())
	var got map[string]any
	e.Subscribe("x", func(Event) { panic("boom") })
	e.Subscribe("x", func(evt Event) { got = evt.Data })

	e.Emit("x", map[string]any{"measureIndex": 2})
	assert.Equal(t, map[string]any{"measureIndex": 2}, got)
}
