package audio

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/model"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type soundingKey struct {
	channel uint8
	key     uint8
}

// MIDIOut plays voices on a MIDI output port.
type MIDIOut struct {
	*Readiness

	mu       sync.Mutex
	send     func(msg midi.Message) error
	sounding map[soundingKey]int
	log      *logging.Logger
}

func NewMIDIOut(log *logging.Logger) *MIDIOut {
	return &MIDIOut{
		Readiness: NewReadiness(),
		sounding:  make(map[soundingKey]int),
		log:       log,
	}
}

// NewMIDIOutFunc sends through send and is ready immediately.
func NewMIDIOutFunc(send func(msg midi.Message) error, log *logging.Logger) *MIDIOut {
	m := NewMIDIOut(log)
	m.send = send
	m.Resolve()
	return m
}

// FindOutPort returns the first output port whose name contains name, or
// the first port when name is empty.
func FindOutPort(name string) (drivers.Out, error) {
	for _, port := range midi.GetOutPorts() {
		if name == "" || strings.Contains(strings.ToLower(port.String()), strings.ToLower(name)) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output port matching %q", name)
}

// Connect opens out and resolves readiness. A failure is final.
func (m *MIDIOut) Connect(out drivers.Out) error {
	send, err := midi.SendTo(out)
	if err != nil {
		err = fmt.Errorf("open output: %w", err)
		m.Fail(err)
		return err
	}
	m.mu.Lock()
	m.send = send
	m.mu.Unlock()
	m.log.Infof("connected to MIDI output %v", out)
	m.Resolve()
	return nil
}

var ErrConnectTimeout = errors.New("MIDI output did not open in time")

// ConnectWithin opens out in the background. Readiness fails with
// ErrConnectTimeout when the port is still not open after d.
func (m *MIDIOut) ConnectWithin(out drivers.Out, d time.Duration) {
	m.FailAfter(d, ErrConnectTimeout)
	go func() {
		if err := m.Connect(out); err != nil {
			m.log.Errorf("%v", err)
		}
	}()
}

func (m *MIDIOut) write(msg midi.Message) {
	if m.send == nil {
		return
	}
	if err := m.send(msg); err != nil {
		m.log.Warnf("could not send %v: %v", msg, err)
	}
}

func (m *MIDIOut) NoteOn(v Voice, at time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range v.Keys {
		k := soundingKey{channel: v.Channel, key: uint8(key)}
		m.sounding[k]++
		m.write(midi.NoteOn(v.Channel, uint8(key), v.Velocity))
	}
}

func (m *MIDIOut) NoteOff(v Voice, at time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range v.Keys {
		m.release(soundingKey{channel: v.Channel, key: uint8(key)})
	}
}

func (m *MIDIOut) release(k soundingKey) {
	n, ok := m.sounding[k]
	if !ok {
		return
	}
	if n <= 1 {
		delete(m.sounding, k)
	} else {
		m.sounding[k] = n - 1
	}
	m.write(midi.NoteOff(k.channel, k.key))
}

// ReleaseAll turns off every key still sounding.
func (m *MIDIOut) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, n := range m.sounding {
		for i := 0; i < n; i++ {
			m.write(midi.NoteOff(k.channel, k.key))
		}
		delete(m.sounding, k)
	}
}

// Sounding returns how many keys are held down.
func (m *MIDIOut) Sounding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.sounding {
		total += n
	}
	return total
}

// Log is an engine that only logs what it would play.
type Log struct {
	*Readiness
	log *logging.Logger
}

func NewLog(log *logging.Logger) *Log {
	l := &Log{Readiness: NewReadiness(), log: log}
	l.Resolve()
	return l
}

func keyNames(keys []model.Pitch) []int {
	res := make([]int, len(keys))
	for i, k := range keys {
		res[i] = int(k)
	}
	return res
}

func (l *Log) NoteOn(v Voice, at time.Duration) {
	l.log.Infof("%8v noteOn  %s keys=%v ch=%d vel=%d", at, v.NoteID, keyNames(v.Keys), v.Channel, v.Velocity)
}

func (l *Log) NoteOff(v Voice, at time.Duration) {
	l.log.Infof("%8v noteOff %s keys=%v ch=%d", at, v.NoteID, keyNames(v.Keys), v.Channel)
}

func (l *Log) ReleaseAll() {
	l.log.Infof("release all")
}
