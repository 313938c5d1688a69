// Package session drives one paper-trading run end to end: it pulls bars
// from a feed, marks the broker, hands each bar to the strategy, snapshots
// the portfolio on a cadence and closes the journal out with a summary.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/feed"
	"github.com/rdholakia/kaagaz/journal"
	"github.com/rdholakia/kaagaz/strategy"
)

// Runner wires the collaborators for one session. Build one per run;
// nothing is shared across sessions.
type Runner struct {
	Broker   broker.Broker
	Feed     feed.Feed
	Strategy strategy.Strategy
	Journal  journal.Journal // optional
	Logger   zerolog.Logger

	InitialCash float64

	// SnapshotEvery is the snapshot cadence in bars; <= 0 means every 10.
	SnapshotEvery int
}

// Result is the end-of-session summary.
type Result struct {
	SessionID   string
	StartTime   time.Time
	EndTime     time.Time
	InitialCash float64
	FinalCash   float64
	FinalValue  float64
	Return      float64
	ReturnPct   float64
	Bars        int
	Trades      int
	Signals     int
}

// Run processes the whole feed. Strategy errors abort the run; domain
// rejections do not reach here, the broker absorbs them order by order.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Broker == nil || r.Feed == nil || r.Strategy == nil {
		return Result{}, fmt.Errorf("session runner needs a broker, a feed and a strategy")
	}

	every := r.SnapshotEvery
	if every <= 0 {
		every = 10
	}

	start := time.Now()
	res := Result{StartTime: start, InitialCash: r.InitialCash}

	if r.Journal != nil {
		id, err := r.Journal.StartSession(journal.SessionStart{StartTime: start, InitialCash: r.InitialCash})
		if err != nil {
			return Result{}, fmt.Errorf("start session: %w", err)
		}
		res.SessionID = id

		r.Logger.Info().Str("session_id", id).Float64("initial_cash", r.InitialCash).Msg("session started")
	}

	var lastBar time.Time

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		ev, ok := r.Feed.Next()
		if !ok {
			break
		}

		r.Broker.MarkPrice(ev.Symbol, ev.Bar.Close, ev.Bar.Time)

		if err := r.Strategy.OnBar(ctx, r.Broker, ev.Symbol, ev.Bar); err != nil {
			return res, fmt.Errorf("strategy on bar %s %s: %w", ev.Symbol, ev.Bar.Time, err)
		}

		res.Bars++
		lastBar = ev.Bar.Time

		if res.Bars%every == 0 {
			r.snapshot(ev.Bar.Time)
		}
	}

	if res.Bars > 0 {
		r.snapshot(lastBar)
	}

	res.EndTime = time.Now()
	res.FinalCash = toF(r.Broker.Cash())
	res.FinalValue = toF(r.Broker.PortfolioValue())
	res.Return = res.FinalValue - res.InitialCash
	if res.InitialCash > 0 {
		res.ReturnPct = res.Return / res.InitialCash * 100
	}
	// Counts flow through the shared counting journal when one is wired;
	// hand the same instance to the broker and the runner.
	if c, ok := r.Journal.(*journal.Counting); ok {
		res.Trades = c.Trades()
		res.Signals = c.Signals()
	}

	if r.Journal != nil {
		err := r.Journal.EndSession(journal.SessionEnd{
			EndTime:     res.EndTime,
			FinalCash:   res.FinalCash,
			FinalValue:  res.FinalValue,
			TotalReturn: res.Return,
			ReturnPct:   res.ReturnPct,
			TotalTrades: res.Trades,
		})
		if err != nil {
			return res, fmt.Errorf("end session: %w", err)
		}
	}

	r.Logger.Info().
		Int("bars", res.Bars).
		Int("trades", res.Trades).
		Int("signals", res.Signals).
		Float64("final_value", res.FinalValue).
		Float64("return_pct", res.ReturnPct).
		Msg("session finished")

	return res, nil
}

func toF(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func (r *Runner) snapshot(at time.Time) {
	if r.Journal == nil {
		return
	}

	positions := make(map[string]journal.PositionSnapshot)

	for sym, pos := range r.Broker.Positions() {
		last := toF(pos.LastPrice)
		positions[sym] = journal.PositionSnapshot{
			Quantity: pos.Quantity,
			AvgPrice: toF(pos.AvgPrice),
			Value:    last * float64(pos.Quantity),
		}
	}

	err := r.Journal.RecordSnapshot(journal.SnapshotRecord{
		Time:           at,
		Cash:           toF(r.Broker.Cash()),
		PortfolioValue: toF(r.Broker.PortfolioValue()),
		Positions:      positions,
	})
	if err != nil {
		r.Logger.Error().Err(err).Msg("snapshot failed")
	}
}
