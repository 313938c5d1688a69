package journal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

// CSV journals trades, signals and snapshots to three flat files. It keeps
// no read side; use the SQLite journal when the dashboard should see the
// session.
type CSV struct {
	trades    *csv.Writer
	signals   *csv.Writer
	snapshots *csv.Writer
	files     []*os.File
	sessionID string
}

func NewCSV(tradesPath, signalsPath, snapshotsPath string) (*CSV, error) {
	j := &CSV{}

	open := func(path string, header []string) (*csv.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		j.files = append(j.files, f)

		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()

		return w, w.Error()
	}

	var err error

	j.trades, err = open(tradesPath, []string{
		"order_id", "timestamp", "symbol", "side", "status", "quantity",
		"price", "commission", "realized_pl", "cash", "portfolio_value",
	})
	if err != nil {
		return nil, err
	}

	j.signals, err = open(signalsPath, []string{
		"timestamp", "symbol", "signal_type", "reason", "price", "fast_ma", "slow_ma", "rsi", "executed",
	})
	if err != nil {
		return nil, err
	}

	j.snapshots, err = open(snapshotsPath, []string{
		"timestamp", "cash", "portfolio_value", "positions",
	})
	if err != nil {
		return nil, err
	}

	return j, nil
}

func (j *CSV) StartSession(s SessionStart) (string, error) {
	j.sessionID = ulid.MustNew(ulid.Timestamp(s.StartTime), rand.New(rand.NewSource(s.StartTime.UnixNano()))).String()
	return j.sessionID, nil
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.OrderID,
		t.Time.Format(time.RFC3339),
		t.Symbol,
		t.Side,
		t.Status,
		strconv.Itoa(t.Quantity),
		f(t.Price),
		f(t.Commission),
		f(t.RealizedPL),
		f(t.Cash),
		f(t.PortfolioValue),
	})
	if err != nil {
		return err
	}

	j.trades.Flush()

	return j.trades.Error()
}

func (j *CSV) RecordSignal(s SignalRecord) error {
	err := j.signals.Write([]string{
		s.Time.Format(time.RFC3339),
		s.Symbol,
		s.Type,
		s.Reason,
		f(s.Price),
		f(s.FastMA),
		f(s.SlowMA),
		f(s.RSI),
		strconv.FormatBool(s.Executed),
	})
	if err != nil {
		return err
	}

	j.signals.Flush()

	return j.signals.Error()
}

func (j *CSV) RecordSnapshot(s SnapshotRecord) error {
	positions, err := json.Marshal(s.Positions)
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}

	err = j.snapshots.Write([]string{
		s.Time.Format(time.RFC3339),
		f(s.Cash),
		f(s.PortfolioValue),
		string(positions),
	})
	if err != nil {
		return err
	}

	j.snapshots.Flush()

	return j.snapshots.Error()
}

// EndSession is a no-op for CSV; the files are the record.
func (j *CSV) EndSession(SessionEnd) error { return nil }

func (j *CSV) Close() error {
	for _, w := range []*csv.Writer{j.trades, j.signals, j.snapshots} {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}

	for _, f := range j.files {
		if err := f.Close(); err != nil {
			return err
		}
	}

	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
