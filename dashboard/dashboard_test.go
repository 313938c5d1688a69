package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdholakia/kaagaz/journal"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	id, err := j.StartSession(journal.SessionStart{StartTime: start, InitialCash: 500000})
	require.NoError(t, err)

	require.NoError(t, j.RecordTrade(journal.TradeRecord{
		OrderID: "o1", Time: start.Add(time.Minute), Symbol: "RELIANCE",
		Side: "BUY", Status: "COMPLETED", Quantity: 5, Price: 2450, Commission: 20,
	}))
	require.NoError(t, j.RecordSnapshot(journal.SnapshotRecord{
		Time: start.Add(10 * time.Minute), Cash: 487730, PortfolioValue: 500100,
		Positions: map[string]journal.PositionSnapshot{
			"RELIANCE": {Quantity: 5, AvgPrice: 2450, Value: 12370},
		},
	}))
	require.NoError(t, j.EndSession(journal.SessionEnd{
		EndTime: start.Add(time.Hour), FinalCash: 500210, FinalValue: 500210,
		TotalReturn: 210, ReturnPct: 0.042, TotalTrades: 2,
	}))

	return New(j, zerolog.Nop()), id
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Paper Trading Dashboard")
}

func TestSummaryDefaultsToLatestSession(t *testing.T) {
	s, id := newTestServer(t)

	rec := get(t, s, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var sum journal.SessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, id, sum.SessionID)
	assert.Equal(t, 500000.0, sum.InitialCash)
	assert.Equal(t, 1, sum.TradeCount)
}

func TestTrades(t *testing.T) {
	s, id := newTestServer(t)

	rec := get(t, s, "/api/trades?session="+id)
	require.Equal(t, http.StatusOK, rec.Code)

	var trades []journal.TradeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "RELIANCE", trades[0].Symbol)
	assert.Equal(t, 2450.0, trades[0].Price)
}

func TestSnapshots(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/snapshots")
	require.Equal(t, http.StatusOK, rec.Code)

	var snaps []journal.SnapshotRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, 5, snaps[0].Positions["RELIANCE"].Quantity)
}

func TestUnknownSessionIs404(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/summary?session=does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyDatabaseIs404(t *testing.T) {
	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer j.Close()

	s := New(j, zerolog.Nop())

	rec := get(t, s, "/api/summary")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
