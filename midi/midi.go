package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading midi file: %w", err)
	}
	return ReadMidi(bytes.NewReader(dat))
}

func ReadMidi(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if msg, ok := recover().(string); ok {
			s, e = nil, errors.New(msg)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing midi file: %w", err)
	}
	return res, nil
}

func WriteMidi(s *smf.SMF, w io.Writer) error {
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("error writing midi: %w", err)
	}
	return nil
}

// ChannelOf reports the channel of note and program messages.
func ChannelOf(msg gomidi.Message) (uint8, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel), msg.GetNoteOff(&ch, &key, &vel):
		return ch, true
	case msg.GetProgramChange(&ch, &key):
		return ch, true
	default:
		return 0, false
	}
}
