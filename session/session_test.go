package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdholakia/kaagaz/broker/paper"
	"github.com/rdholakia/kaagaz/feed"
	"github.com/rdholakia/kaagaz/journal"
	"github.com/rdholakia/kaagaz/market"
	"github.com/rdholakia/kaagaz/strategy"
)

func TestRunnerValidates(t *testing.T) {
	t.Parallel()

	r := &Runner{}
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunnerNoopSession(t *testing.T) {
	t.Parallel()

	b, err := paper.NewBroker(paper.Config{InitialCash: 100000, Logger: zerolog.Nop()})
	require.NoError(t, err)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	r := &Runner{
		Broker:      b,
		Feed:        feed.NewSlice(map[string][]market.Bar{"TCS": market.Synthetic("TCS", 25, start, 42)}),
		Strategy:    strategy.Noop{},
		Logger:      zerolog.Nop(),
		InitialCash: 100000,
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, res.Bars)
	assert.Equal(t, 100000.0, res.FinalCash)
	assert.Equal(t, 100000.0, res.FinalValue)
	assert.Zero(t, res.Return)
	assert.Zero(t, res.Trades)
}

func TestRunnerFullSessionWithSQLite(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "journal.db")

	sqlite, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	defer sqlite.Close()

	jnl := journal.WithCounts(sqlite)

	b, err := paper.NewBroker(paper.Config{
		InitialCash: 500000,
		Commission:  paper.NewFlat(20),
		Journal:     jnl,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	series := map[string][]market.Bar{
		"RELIANCE": market.Synthetic("RELIANCE", 120, start, 42),
		"TCS":      market.Synthetic("TCS", 120, start, 7),
	}

	r := &Runner{
		Broker:        b,
		Feed:          feed.NewSlice(series),
		Strategy:      strategy.NewMACrossRSI(strategy.Defaults(), jnl),
		Journal:       jnl,
		Logger:        zerolog.Nop(),
		InitialCash:   500000,
		SnapshotEvery: 10,
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)
	assert.Equal(t, 240, res.Bars)
	assert.Equal(t, jnl.Trades(), res.Trades)
	assert.Equal(t, jnl.Signals(), res.Signals)
	assert.InDelta(t, res.Return, res.FinalValue-500000, 1e-6)

	// The journal's read side sees the same session.
	sum, err := sqlite.Summary(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 500000.0, sum.InitialCash)
	assert.Equal(t, res.Trades, sum.TradeCount)
	require.NotNil(t, sum.EndTime)

	snaps, err := sqlite.ListSnapshots(res.SessionID, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, snaps, "cadence snapshots recorded")
}

func TestRunnerHonoursContext(t *testing.T) {
	t.Parallel()

	b, err := paper.NewBroker(paper.Config{InitialCash: 100000, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{
		Broker:      b,
		Feed:        feed.NewSlice(map[string][]market.Bar{"TCS": market.Synthetic("TCS", 10, time.Now(), 1)}),
		Strategy:    strategy.Noop{},
		Logger:      zerolog.Nop(),
		InitialCash: 100000,
	}

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
