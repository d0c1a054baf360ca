package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/jsphweid/scorepad/chord"
	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/duration"
	"github.com/jsphweid/scorepad/midi"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/render"
	"github.com/jsphweid/scorepad/store"
	"github.com/jsphweid/scorepad/util"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Inspects a score or MIDI file",
	Long:  `Prints a score measure by measure. MIDI files also get a per track summary and the chords found in them.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0], os.Stdout)
	},
}

func inspect(path string, w io.Writer) error {
	if !isMidiPath(path) {
		data, err := store.ReadFile(path)
		if err != nil {
			return err
		}
		return printScore(w, data)
	}

	s, err := midi.ReadMidiFile(path)
	if err != nil {
		return err
	}
	printTracks(w, s)
	chords := chord.Group(chord.GetTimedNotes(s, constants.TicksPerBeat), chord.DefaultTolerance)
	fmt.Fprintf(w, "chords: %d\n", len(chords))
	for _, c := range chords {
		fmt.Fprintf(w, "  beat %6.2f  %-12s %s\n", c.Start/constants.TicksPerBeat, chord.CreateChordKey(c.Pitches), c.Clef)
	}
	return printScore(w, midi.Import(s))
}

func printTracks(w io.Writer, s *smf.SMF) {
	fmt.Fprintf(w, "%d tracks, %v\n", len(s.Tracks), s.TimeFormat)
	for i, tr := range s.Tracks {
		perChannel := make(map[uint8]int)
		for _, ev := range tr {
			if ch, ok := midi.ChannelOf(gomidi.Message(ev.Message)); ok {
				perChannel[ch]++
			}
		}
		fmt.Fprintf(w, "track %d: %d events\n", i, len(tr))
		for _, ch := range util.GetKeys(perChannel) {
			fmt.Fprintf(w, "  channel %2d: %d messages\n", ch, perChannel[ch])
		}
	}
}

func printScore(w io.Writer, data model.ScoreData) error {
	sc := data.Score()
	if sc.Tempo <= 0 {
		sc.Tempo = constants.DefaultTempo
	}
	beats := util.SumBy(sc.Measures, duration.MeasureBeats)
	entries := util.SumBy(sc.Measures, func(m model.Measure) int { return len(m) })
	fmt.Fprintf(w, "%d/%d at %v bpm, %d measures, %d entries, %.2f beats (%v)\n",
		sc.TimeSignature.Numerator, sc.TimeSignature.Denominator, sc.Tempo,
		len(sc.Measures), entries, beats, duration.ToTime(beats, sc.Tempo))
	return render.NewText(w).Render(sc.Measures)
}
