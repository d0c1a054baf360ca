package cmd

import (
	"os"

	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/midi"
	"github.com/jsphweid/scorepad/score"
	"github.com/spf13/cobra"
)

var exportOpts struct {
	instrument  string
	fromMeasure int
	maxNotes    int
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.instrument, "instrument", constants.GetInstrument(), "piano, drums or guitar")
	f.IntVar(&exportOpts.fromMeasure, "from-measure", 0, "start the file at this measure")
	f.IntVar(&exportOpts.maxNotes, "max-notes", 0, "only write this many notes, 0 for all")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <score> <out.mid>",
	Short: "Exports a score as a MIDI file",
	Long:  `Validates a JSON or YAML score against its instrument and writes it as a standard MIDI file, or a short excerpt of it.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return export(args[0], args[1])
	},
}

func export(in, out string) error {
	inst, err := instrument.ByName(exportOpts.instrument)
	if err != nil {
		return err
	}
	data, err := loadScore(in)
	if err != nil {
		return err
	}
	doc := score.New(inst)
	if err := doc.Restore(data); err != nil {
		return err
	}
	sc := doc.Score()
	s, err := midi.Export(sc, inst)
	if err != nil {
		return err
	}
	if exportOpts.fromMeasure > 0 || exportOpts.maxNotes > 0 {
		from := int64(exportOpts.fromMeasure * sc.TimeSignature.Numerator * constants.TicksPerBeat)
		if s, err = midi.Excerpt(s, from, exportOpts.maxNotes); err != nil {
			return err
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := midi.WriteMidi(s, f); err != nil {
		return err
	}
	newLogger().Infof("wrote %s", out)
	return nil
}
