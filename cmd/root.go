package cmd

import (
	"github.com/jsphweid/scorepad/constants"
	"github.com/jsphweid/scorepad/logging"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "scorepad",
	Short: "Score editor and player",
	Long:  `scorepad edits scores of notes, rests and chords, plays them back in time and converts them to and from MIDI.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", constants.GetLogLevel(), "DEBUG, INFO, WARN, ERROR or NONE")
}

func newLogger() *logging.Logger {
	return logging.Default(logLevel)
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
