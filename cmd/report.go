package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/duration"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/store"
	"github.com/jsphweid/scorepad/util"
	"github.com/spf13/cobra"
)

var reportOpts struct {
	storeDir string
	format   string
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportOpts.storeDir, "store-dir", constants.GetStoreDir(), "directory of saved scores")
	f.StringVar(&reportOpts.format, "format", "json", "json or yaml")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarizes the saved scores",
	Long:  `Lists every saved score with its size, length and when it was last saved.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(store.NewFile(reportOpts.storeDir, store.Format(reportOpts.format)), os.Stdout)
	},
}

type scoreReport struct {
	key      string
	measures int
	notes    int
	rests    int
	length   time.Duration
	savedAt  time.Time
}

func analyzeScore(key string, data model.ScoreData) scoreReport {
	r := scoreReport{key: key, measures: len(data.Measures)}
	tempo := data.Tempo
	if tempo <= 0 {
		tempo = constants.DefaultTempo
	}
	for _, m := range data.Measures {
		for _, n := range m {
			if n.IsRest {
				r.rests++
			} else {
				r.notes++
			}
		}
	}
	r.length = duration.ToTime(util.SumBy(data.Measures, duration.MeasureBeats), tempo)
	if data.SavedAt > 0 {
		r.savedAt = time.UnixMilli(data.SavedAt)
	}
	return r
}

func report(files *store.File, out io.Writer) error {
	keys, err := files.Keys()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tMEASURES\tNOTES\tRESTS\tLENGTH\tSAVED")
	var notes []int
	for _, key := range keys {
		data, err := files.Load(key)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\tunreadable: %v\n", key, err)
			continue
		}
		r := analyzeScore(key, data)
		notes = append(notes, r.notes)
		saved := "-"
		if !r.savedAt.IsZero() {
			saved = r.savedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\t%s\n", r.key, r.measures, r.notes, r.rests, r.length, saved)
	}
	fmt.Fprintf(w, "\n%d scores, %d notes\n", len(keys), util.Sum(notes))
	return w.Flush()
}
