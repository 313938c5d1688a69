package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rdholakia/kaagaz/config"
	"github.com/rdholakia/kaagaz/feed"
	"github.com/rdholakia/kaagaz/market"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch historical candles and write them as CSV",
	Long: `Fetch historical candles for one or more symbols and dump them to
CSV, one file per symbol.

Examples:
  kaagaz fetch -c kaagaz.yaml -o ./data
  kaagaz fetch -c kaagaz.yaml --days 10`,
	RunE: runFetch,
}

var (
	fetchConfigPath string
	fetchEnvFile    string
	fetchOutDir     string
	fetchDays       int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchConfigPath, "config", "c", "kaagaz.yaml", "session config file")
	fetchCmd.Flags().StringVar(&fetchEnvFile, "env", "", "env file with broker credentials")
	fetchCmd.Flags().StringVarP(&fetchOutDir, "output", "o", ".", "output directory")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 0, "override historical_days from config")
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := logger()

	cfg, err := config.LoadFromFile(fetchConfigPath)
	if err != nil {
		return err
	}
	if fetchDays > 0 {
		cfg.Data.HistoricalDays = fetchDays
	}

	runEnvFile = fetchEnvFile

	instruments, err := resolveInstruments(cfg.Data.Symbols)
	if err != nil {
		return err
	}

	source, _, err := buildSource(cfg, log)
	if err != nil {
		return err
	}

	to := time.Now()
	from := to.AddDate(0, 0, -cfg.Data.HistoricalDays)

	series, err := feed.Load(cmd.Context(), source, instruments, feed.LoadOptions{
		Interval:          cfg.Interval(),
		From:              from,
		To:                to,
		SyntheticFallback: cfg.Data.SyntheticFallback,
		SyntheticBars:     cfg.Data.SyntheticBars,
		Seed:              cfg.Data.Seed,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	for symbol, bars := range series {
		path := fmt.Sprintf("%s/%s.csv", fetchOutDir, symbol)
		if err := writeBarsCSV(path, bars); err != nil {
			return err
		}
		fmt.Printf("Wrote %d bars to %s\n", len(bars), path)
	}

	return nil
}

func writeBarsCSV(path string, bars []market.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}

	for _, b := range bars {
		err := w.Write([]string{
			b.Time.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', 2, 64),
			strconv.FormatFloat(b.High, 'f', 2, 64),
			strconv.FormatFloat(b.Low, 'f', 2, 64),
			strconv.FormatFloat(b.Close, 'f', 2, 64),
			strconv.FormatInt(b.Volume, 10),
		})
		if err != nil {
			return err
		}
	}

	return w.Error()
}
