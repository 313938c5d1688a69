package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kaagaz",
	Short: "Paper trading for NSE equities against Zerodha and Dhan data",
	Long: `Kaagaz runs simulated trading sessions with no real capital movement.

It provides tools for:
  - Running a paper-trading session over historical or synthetic bars
  - Live paper trading driven by polled quotes during market hours
  - Authenticating against the Zerodha Kite Connect API
  - Fetching historical candles from Zerodha or Dhan
  - Browsing session results in a local web dashboard`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// logger builds the CLI logger honouring --verbose.
func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
