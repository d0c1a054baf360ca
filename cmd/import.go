package cmd

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/instrument"
	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/score"
	"github.com/jsphweid/scorepad/store"
	"github.com/spf13/cobra"
)

var importOpts struct {
	storeDir   string
	format     string
	instrument string
	maxNum     int
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importOpts.storeDir, "store-dir", constants.GetStoreDir(), "directory to write imported scores to")
	f.StringVar(&importOpts.format, "format", "json", "json or yaml")
	f.StringVar(&importOpts.instrument, "instrument", "piano", "instrument to validate against")
	f.IntVar(&importOpts.maxNum, "max", 0, "stop after this many files, 0 for all")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.mid|dir> [out]",
	Short: "Imports MIDI files as scores",
	Long: `Imports a MIDI file, or every MIDI file under a directory, into the score store.
With a single file an output path can be given instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		if len(args) == 2 {
			return importFile(args[0], args[1], log)
		}
		paths, err := gatherMidiPaths(args[0], importOpts.maxNum)
		if err != nil {
			return err
		}
		files := store.NewFile(importOpts.storeDir, store.Format(importOpts.format))
		failed := 0
		for _, p := range paths {
			key := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
			if err := importFile(p, filepath.Join(files.Dir, key+"."+string(files.Format)), log); err != nil {
				log.Warnf("skipping %s: %v", p, err)
				failed++
			}
		}
		log.Infof("imported %d of %d files", len(paths)-failed, len(paths))
		return nil
	},
}

// gatherMidiPaths returns root itself or the MIDI files below it, sorted.
func gatherMidiPaths(root string, maxNum int) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isMidiPath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	if maxNum > 0 && len(paths) > maxNum {
		paths = paths[:maxNum]
	}
	return paths, nil
}

func importFile(in, out string, log *logging.Logger) error {
	inst, err := instrument.ByName(importOpts.instrument)
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
	if err := store.WriteFile(out, doc.Data()); err != nil {
		return err
	}
	log.Infof("%s -> %s (%d measures)", in, out, len(data.Measures))
	return nil
}
