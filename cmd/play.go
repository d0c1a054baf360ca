package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/jsphweid/scorepad/audio"
	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/event"
	"github.com/jsphweid/scorepad/playback"
	"github.com/jsphweid/scorepad/render"
	"github.com/jsphweid/scorepad/session"
	"github.com/jsphweid/scorepad/transport"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
)

var playOpts struct {
	instrument string
	midiPort   string
	dryRun     bool
}

func init() {
	f := playCmd.Flags()
	f.StringVar(&playOpts.instrument, "instrument", constants.GetInstrument(), "piano, drums or guitar")
	f.StringVar(&playOpts.midiPort, "midi-port", "", "MIDI output to play through, first port when empty")
	f.BoolVar(&playOpts.dryRun, "dry-run", false, "print the events instead of waiting for them")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <score>",
	Short: "Plays a score file",
	Long:  `Plays a JSON, YAML or MIDI score through a MIDI output, following along measure by measure.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(args[0])
	},
}

func play(path string) error {
	log := newLogger()
	data, err := loadScore(path)
	if err != nil {
		return err
	}

	var engine audio.Engine
	var tr transport.Transport
	manual := transport.NewManual()
	if playOpts.dryRun {
		engine = audio.NewLog(log.With("audio"))
		tr = manual
	} else {
		defer gomidi.CloseDriver()
		out, err := audio.FindOutPort(playOpts.midiPort)
		if err != nil {
			return err
		}
		midiOut := audio.NewMIDIOut(log.With("audio"))
		midiOut.ConnectWithin(out, constants.ConnectTimeout)
		engine = midiOut
		tr = transport.NewClock()
	}

	s, err := session.New(session.Config{
		Instrument: playOpts.instrument,
		Engine:     engine,
		Transport:  tr,
		Renderer:   render.NewText(os.Stdout),
		Log:        log,
	})
	if err != nil {
		return err
	}
	if err := s.Doc.Restore(data); err != nil {
		return err
	}

	finished := make(chan struct{})
	s.Player.Subscribe(playback.PlaybackFinished, func(event.Event) { close(finished) })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := s.Player.StartWhenReady(ctx); err != nil {
		return err
	}
	if playOpts.dryRun {
		manual.RunAll()
		return s.Close()
	}

	select {
	case <-finished:
	case <-ctx.Done():
		log.Infof("interrupted")
	}
	return s.Close()
}
