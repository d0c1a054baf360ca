package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsphweid/scorepad/audio"
	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/render"
	"github.com/jsphweid/scorepad/session"
	"github.com/jsphweid/scorepad/store"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
)

var serveOpts struct {
	addr       string
	instrument string
	key        string
	storeDir   string
	format     string
	midiPort   string
	echo       bool
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.addr, "addr", constants.GetAddr(), "listen address")
	f.StringVar(&serveOpts.instrument, "instrument", constants.GetInstrument(), "piano, drums or guitar")
	f.StringVar(&serveOpts.key, "key", "default", "name the score is saved under")
	f.StringVar(&serveOpts.storeDir, "store-dir", constants.GetStoreDir(), "directory for saved scores")
	f.StringVar(&serveOpts.format, "format", "json", "file format for saved scores, json or yaml")
	f.StringVar(&serveOpts.midiPort, "midi-port", "", "play through the MIDI output whose name contains this")
	f.BoolVar(&serveOpts.echo, "echo", false, "print the score to stdout after every edit")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the score editing API",
	Long:  `Serves one editing session over HTTP: edit notes, undo, play back and convert to and from MIDI.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(newLogger())
	},
}

// openStore prefers DynamoDB when an endpoint is configured.
func openStore(log *logging.Logger) (store.Store, error) {
	if endpoint := constants.GetDynamoEndpoint(); endpoint != "" {
		log.Infof("storing scores in DynamoDB table %s at %s", constants.GetDynamoTable(), endpoint)
		return store.NewDynamo(endpoint, constants.GetDynamoRegion(), constants.GetDynamoTable())
	}
	log.Infof("storing scores in %s", serveOpts.storeDir)
	return store.NewFile(serveOpts.storeDir, store.Format(serveOpts.format)), nil
}

func openEngine(port string, log *logging.Logger) (audio.Engine, error) {
	if port == "" {
		return audio.NewLog(log.With("audio")), nil
	}
	out, err := audio.FindOutPort(port)
	if err != nil {
		return nil, err
	}
	engine := audio.NewMIDIOut(log.With("audio"))
	engine.ConnectWithin(out, constants.ConnectTimeout)
	return engine, nil
}

func serve(log *logging.Logger) error {
	st, err := openStore(log)
	if err != nil {
		return err
	}
	engine, err := openEngine(serveOpts.midiPort, log)
	if err != nil {
		return err
	}
	if serveOpts.midiPort != "" {
		defer gomidi.CloseDriver()
	}
	var renderer render.Renderer = render.Nop{}
	if serveOpts.echo {
		renderer = render.NewText(os.Stdout)
	}

	s, err := session.New(session.Config{
		Instrument:   serveOpts.instrument,
		Key:          serveOpts.key,
		HistoryDepth: constants.GetHistoryDepth(),
		Store:        st,
		AutosaveWait: constants.GetAutosaveWait(),
		Engine:       engine,
		Renderer:     renderer,
		Log:          log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Errorf("could not save on shutdown: %v", err)
		}
	}()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	})
	httpServer := &http.Server{
		Addr:    serveOpts.addr,
		Handler: c.Handler(NewRouter(s, log.With("http"))),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Infof("serving %s score %q on %s", serveOpts.instrument, serveOpts.key, serveOpts.addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
