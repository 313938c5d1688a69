package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/broker/dhan"
	"github.com/rdholakia/kaagaz/broker/paper"
	"github.com/rdholakia/kaagaz/broker/zerodha"
	"github.com/rdholakia/kaagaz/config"
	"github.com/rdholakia/kaagaz/feed"
	"github.com/rdholakia/kaagaz/journal"
	"github.com/rdholakia/kaagaz/market"
	"github.com/rdholakia/kaagaz/session"
	"github.com/rdholakia/kaagaz/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a paper-trading session",
	Long: `Run one paper-trading session from a YAML configuration.

Bars come from Zerodha, Dhan or a synthetic random walk; orders fill
against the in-process accounting broker; everything is journaled.

Examples:
  kaagaz run -c kaagaz.yaml
  kaagaz run -c kaagaz.yaml --env .env`,
	RunE: runSession,
}

var (
	runConfigPath string
	runEnvFile    string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "kaagaz.yaml", "session config file")
	runCmd.Flags().StringVar(&runEnvFile, "env", "", "env file with broker credentials")
}

func runSession(cmd *cobra.Command, args []string) error {
	log := logger()

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instruments, err := resolveInstruments(cfg.Data.Symbols)
	if err != nil {
		return err
	}

	// Journal.
	jnl, closeJournal, err := buildJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer closeJournal()

	counted := journal.WithCounts(jnl)

	// Broker.
	b, err := paper.NewBroker(paper.Config{
		InitialCash: cfg.Session.InitialCash,
		Commission:  buildCommission(cfg.Session),
		Journal:     counted,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	var acct broker.Broker = b
	if cfg.Session.SlippagePct > 0 {
		acct = paper.WithSlippage(b, cfg.Session.SlippagePct)
	}

	// Strategy.
	strat, err := strategy.ByName(cfg.Strategy.Name, strategy.Config{
		FastPeriod:   cfg.Strategy.FastPeriod,
		SlowPeriod:   cfg.Strategy.SlowPeriod,
		RSIPeriod:    cfg.Strategy.RSIPeriod,
		RSIEntryMax:  cfg.Strategy.RSIEntryMax,
		RSIExitMin:   cfg.Strategy.RSIExitMin,
		Quantity:     cfg.Strategy.Quantity,
		MaxPositions: cfg.Strategy.MaxPositions,
	}, counted)
	if err != nil {
		return err
	}

	// Feed.
	f, err := buildFeed(ctx, cfg, instruments, log)
	if err != nil {
		return err
	}

	runner := &session.Runner{
		Broker:        acct,
		Feed:          f,
		Strategy:      strat,
		Journal:       counted,
		Logger:        log,
		InitialCash:   cfg.Session.InitialCash,
		SnapshotEvery: cfg.Session.SnapshotEvery,
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	printResult(res)
	return nil
}

func resolveInstruments(symbols []string) ([]market.Instrument, error) {
	out := make([]market.Instrument, 0, len(symbols))
	for _, sym := range symbols {
		inst, err := market.Lookup(sym)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

func buildCommission(s config.SessionConfig) paper.CommissionPolicy {
	switch s.Commission {
	case "flat":
		return paper.NewFlat(s.CommissionFlat)
	case "percent":
		return paper.NewPercent(s.CommissionRate)
	default:
		return paper.None{}
	}
}

func buildJournal(j config.JournalConfig) (journal.Journal, func(), error) {
	switch j.Type {
	case "sqlite":
		sq, err := journal.NewSQLite(j.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return sq, func() { sq.Close() }, nil

	case "csv":
		c, err := journal.NewCSV(j.TradesFile, j.SignalsFile, j.SnapshotsFile)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil

	default:
		return nil, func() {}, nil
	}
}

// buildFeed assembles the bar stream: a historical batch by default, a
// quote poller when data.live is set.
func buildFeed(ctx context.Context, cfg *config.Config, instruments []market.Instrument, log zerolog.Logger) (feed.Feed, error) {
	source, quoter, err := buildSource(cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.Data.Live {
		if quoter == nil {
			return nil, fmt.Errorf("data.live requires a zerodha or dhan source")
		}

		every := time.Duration(cfg.Data.PollSeconds) * time.Second
		if every <= 0 {
			every = 30 * time.Second
		}

		var f feed.Feed = feed.NewLive(ctx, quoter, instruments, every, log)
		if cfg.Data.LiveMaxBars > 0 {
			f = feed.Limit(f, cfg.Data.LiveMaxBars)
		}
		return f, nil
	}

	to := time.Now()
	from := to.AddDate(0, 0, -cfg.Data.HistoricalDays)

	series, err := feed.Load(ctx, source, instruments, feed.LoadOptions{
		Interval:          cfg.Interval(),
		From:              from,
		To:                to,
		SyntheticFallback: cfg.Data.SyntheticFallback,
		SyntheticBars:     cfg.Data.SyntheticBars,
		Seed:              cfg.Data.Seed,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	return feed.NewSlice(series), nil
}

// buildSource returns the configured bar source and quoter; both are nil
// for synthetic data.
func buildSource(cfg *config.Config, log zerolog.Logger) (broker.BarSource, broker.Quoter, error) {
	switch cfg.Data.Source {
	case "zerodha":
		creds, err := config.LoadCredentials(runEnvFile)
		if err != nil {
			return nil, nil, err
		}
		if err := creds.RequireZerodha(); err != nil {
			return nil, nil, err
		}

		client := zerodha.NewClient(creds.KiteAPIKey, creds.KiteAPISecret)

		token, err := (config.TokenStore{Path: kiteTokenPath}).Load()
		if err != nil {
			return nil, nil, err
		}
		if token == "" {
			return nil, nil, fmt.Errorf("no saved access token, run 'kaagaz auth' first")
		}
		client.SetAccessToken(token)

		return client, client, nil

	case "dhan":
		creds, err := config.LoadCredentials(runEnvFile)
		if err != nil {
			return nil, nil, err
		}
		if err := creds.RequireDhan(); err != nil {
			return nil, nil, err
		}

		client := dhan.NewClient(creds.DhanClientID, creds.DhanAccessToken)
		return client, client, nil

	default: // synthetic
		return nil, nil, nil
	}
}

func printResult(res session.Result) {
	fmt.Println()
	fmt.Println("Session summary")
	fmt.Println("---------------")
	if res.SessionID != "" {
		fmt.Printf("  Session:         %s\n", res.SessionID)
	}
	fmt.Printf("  Bars processed:  %d\n", res.Bars)
	fmt.Printf("  Trades:          %d\n", res.Trades)
	fmt.Printf("  Signals:         %d\n", res.Signals)
	fmt.Printf("  Initial cash:    %.2f\n", res.InitialCash)
	fmt.Printf("  Final cash:      %.2f\n", res.FinalCash)
	fmt.Printf("  Portfolio value: %.2f\n", res.FinalValue)
	fmt.Printf("  Return:          %.2f (%.2f%%)\n", res.Return, res.ReturnPct)
}
