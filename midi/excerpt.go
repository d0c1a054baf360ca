package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type soundingNote struct {
	channel uint8
	key     uint8
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}

// Excerpt copies up to maxNotes notes per track starting at fromTick. Other
// messages before fromTick are kept at the start so meter, tempo and
// programs still apply. Notes still sounding at the limit keep their ends.
func Excerpt(s *smf.SMF, fromTick int64, maxNotes int) (*smf.SMF, error) {
	res := smf.New()
	res.TimeFormat = s.TimeFormat

	for _, track := range s.Tracks {
		var out smf.Track
		var abs, last int64
		notes := 0
		sounding := make(map[soundingNote]bool)

		keep := func(ev smf.Event) {
			pos := abs - fromTick
			if pos < 0 {
				pos = 0
			}
			out.Add(uint32(pos-last), ev.Message)
			last = pos
		}

	TrackEventLoop:
		for _, ev := range track {
			abs += int64(ev.Delta)
			var ch, key, vel uint8
			msg := gomidi.Message(ev.Message)
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				if abs < fromTick {
					continue
				}
				if maxNotes > 0 && notes >= maxNotes {
					continue
				}
				notes++
				sounding[soundingNote{ch, key}] = true
				keep(ev)
			case msg.GetNoteEnd(&ch, &key):
				k := soundingNote{ch, key}
				if !sounding[k] {
					continue
				}
				delete(sounding, k)
				keep(ev)
				if maxNotes > 0 && notes >= maxNotes && len(sounding) == 0 {
					break TrackEventLoop
				}
			case isEndOfTrack(ev.Message):
			default:
				keep(ev)
			}
		}
		out.Close(0)
		if err := res.Add(out); err != nil {
			return nil, fmt.Errorf("error adding track: %w", err)
		}
	}
	return res, nil
}
