package midi

import (
	"fmt"
	"math"
	"sort"

	"github.com/jsphweid/scorepad/audio"
	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/playback"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const percussionChannel = 9

// Export writes sc as a single-track file at constants.TicksPerBeat. Note
// positions come from the same walk playback uses.
func Export(sc model.Score, inst instrument.Instrument) (*smf.SMF, error) {
	if !sc.TimeSignature.Valid() || sc.TimeSignature.Numerator > 255 || sc.TimeSignature.Denominator > 255 {
		return nil, fmt.Errorf("cannot export time signature %d/%d", sc.TimeSignature.Numerator, sc.TimeSignature.Denominator)
	}
	if sc.Tempo <= 0 {
		return nil, fmt.Errorf("cannot export tempo %v", sc.Tempo)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(constants.TicksPerBeat)

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(inst.Name))
	track.Add(0, smf.MetaMeter(uint8(sc.TimeSignature.Numerator), uint8(sc.TimeSignature.Denominator)))
	track.Add(0, smf.MetaTempo(sc.Tempo))
	for _, ch := range programChannels(sc, inst) {
		track.Add(0, gomidi.ProgramChange(ch, 0))
	}

	var last int64
	var end int64
	for _, ev := range playback.Build(sc) {
		tick := int64(math.Round(ev.Beat * constants.TicksPerBeat))
		if ev.Kind == playback.End {
			end = tick
			continue
		}
		if ev.Kind != playback.NoteOn && ev.Kind != playback.NoteOff {
			continue
		}
		v := audio.VoiceFor(ev.Note, inst)
		for _, key := range v.Keys {
			var msg gomidi.Message
			if ev.Kind == playback.NoteOn {
				msg = gomidi.NoteOn(v.Channel, uint8(key), v.Velocity)
			} else {
				msg = gomidi.NoteOff(v.Channel, uint8(key))
			}
			track.Add(uint32(tick-last), msg)
			last = tick
		}
	}
	track.Close(uint32(end - last))

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("error adding track: %w", err)
	}
	return s, nil
}

func programChannels(sc model.Score, inst instrument.Instrument) []uint8 {
	seen := map[uint8]bool{}
	for _, m := range sc.Measures {
		for _, n := range m {
			if !n.IsRest {
				seen[audio.VoiceFor(n, inst).Channel] = true
			}
		}
	}
	var res []uint8
	for ch := range seen {
		if ch != percussionChannel {
			res = append(res, ch)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
