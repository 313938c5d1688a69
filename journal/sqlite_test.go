package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	return j
}

func TestSQLiteSessionLifecycle(t *testing.T) {
	j := newTestSQLite(t)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	id, err := j.StartSession(SessionStart{StartTime: start, InitialCash: 500000})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, j.RecordTrade(TradeRecord{
		OrderID: "o1", Time: start.Add(5 * time.Minute), Symbol: "RELIANCE",
		Side: "BUY", Status: "COMPLETED", Quantity: 5,
		Price: 2450, Commission: 20, Cash: 487730, PortfolioValue: 499980,
	}))
	require.NoError(t, j.RecordSignal(SignalRecord{
		Time: start.Add(5 * time.Minute), Symbol: "RELIANCE", Type: "BUY",
		Reason: "fast MA crossed above slow MA", Price: 2450,
		FastMA: 2448.2, SlowMA: 2447.9, RSI: 55.1, Executed: true,
	}))
	require.NoError(t, j.RecordSnapshot(SnapshotRecord{
		Time: start.Add(50 * time.Minute), Cash: 487730, PortfolioValue: 500100,
		Positions: map[string]PositionSnapshot{
			"RELIANCE": {Quantity: 5, AvgPrice: 2450, Value: 12370},
		},
	}))

	require.NoError(t, j.EndSession(SessionEnd{
		EndTime: start.Add(7 * time.Hour), FinalCash: 500210, FinalValue: 500210,
		TotalReturn: 210, ReturnPct: 0.042, TotalTrades: 2,
	}))

	sum, err := j.Summary(id)
	require.NoError(t, err)
	assert.Equal(t, id, sum.SessionID)
	assert.Equal(t, 500000.0, sum.InitialCash)
	assert.Equal(t, 500210.0, sum.FinalCash)
	assert.Equal(t, 1, sum.TradeCount)
	assert.Equal(t, 1, sum.SignalCount)
	require.NotNil(t, sum.EndTime)
	assert.Equal(t, start.Add(7*time.Hour), sum.EndTime.UTC())
}

func TestSQLiteSummaryOfOpenSession(t *testing.T) {
	j := newTestSQLite(t)

	id, err := j.StartSession(SessionStart{StartTime: time.Now().UTC(), InitialCash: 100000})
	require.NoError(t, err)

	sum, err := j.Summary(id)
	require.NoError(t, err)
	assert.Nil(t, sum.EndTime)
	assert.Zero(t, sum.FinalCash)
	assert.Zero(t, sum.TradeCount)
}

func TestSQLiteLatestSessionID(t *testing.T) {
	j := newTestSQLite(t)

	_, err := j.LatestSessionID()
	assert.Error(t, err)

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	_, err = j.StartSession(SessionStart{StartTime: base, InitialCash: 1})
	require.NoError(t, err)

	second, err := j.StartSession(SessionStart{StartTime: base.Add(time.Hour), InitialCash: 1})
	require.NoError(t, err)

	latest, err := j.LatestSessionID()
	require.NoError(t, err)
	assert.Equal(t, second, latest)
}

func TestSQLiteListTrades(t *testing.T) {
	j := newTestSQLite(t)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	id, err := j.StartSession(SessionStart{StartTime: start, InitialCash: 500000})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, j.RecordTrade(TradeRecord{
			OrderID: string(rune('a' + i)), Time: start.Add(time.Duration(i) * time.Minute),
			Symbol: "TCS", Side: "BUY", Status: "COMPLETED", Quantity: 1, Price: 3200,
		}))
	}

	trades, err := j.ListTrades(id, 2)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "a", trades[0].OrderID)
	assert.Equal(t, "b", trades[1].OrderID)
	assert.Equal(t, 3200.0, trades[0].Price)
}

func TestSQLiteListSnapshots(t *testing.T) {
	j := newTestSQLite(t)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	id, err := j.StartSession(SessionStart{StartTime: start, InitialCash: 500000})
	require.NoError(t, err)

	require.NoError(t, j.RecordSnapshot(SnapshotRecord{
		Time: start, Cash: 100, PortfolioValue: 200,
		Positions: map[string]PositionSnapshot{
			"INFY": {Quantity: 10, AvgPrice: 1800, Value: 18000},
		},
	}))

	snaps, err := j.ListSnapshots(id, 10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 100.0, snaps[0].Cash)
	assert.Equal(t, 10, snaps[0].Positions["INFY"].Quantity)
	assert.Equal(t, 1800.0, snaps[0].Positions["INFY"].AvgPrice)
}
