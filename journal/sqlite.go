package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// SQLite journals to a local database, one row per record, and also serves
// the read side used by the dashboard and the end-of-session summary.
type SQLite struct {
	db        *sql.DB
	sessionID string
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) StartSession(s SessionStart) (string, error) {
	id := ulid.MustNew(ulid.Timestamp(s.StartTime), rand.New(rand.NewSource(s.StartTime.UnixNano()))).String()

	_, err := j.db.Exec(`
		INSERT INTO sessions (session_id, start_time, initial_cash, total_trades)
		VALUES (?, ?, ?, 0)`,
		id, s.StartTime, s.InitialCash,
	)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	j.sessionID = id

	return id, nil
}

func (j *SQLite) RecordSignal(s SignalRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO signals
		(session_id, timestamp, symbol, signal_type, reason, price, fast_ma, slow_ma, rsi, executed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.sessionID, s.Time, s.Symbol, s.Type, s.Reason,
		s.Price, s.FastMA, s.SlowMA, s.RSI, s.Executed,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(order_id, session_id, timestamp, symbol, side, status, quantity, price, commission, realized_pl, cash, portfolio_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OrderID, j.sessionID, t.Time, t.Symbol, t.Side, t.Status,
		t.Quantity, t.Price, t.Commission, t.RealizedPL, t.Cash, t.PortfolioValue,
	)
	return err
}

func (j *SQLite) RecordSnapshot(s SnapshotRecord) error {
	positions, err := json.Marshal(s.Positions)
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}

	_, err = j.db.Exec(`
		INSERT INTO portfolio_snapshots (session_id, timestamp, cash, portfolio_value, positions)
		VALUES (?, ?, ?, ?, ?)`,
		j.sessionID, s.Time, s.Cash, s.PortfolioValue, string(positions),
	)
	return err
}

func (j *SQLite) EndSession(e SessionEnd) error {
	_, err := j.db.Exec(`
		UPDATE sessions
		SET end_time = ?, final_cash = ?, final_portfolio_value = ?,
		    total_return = ?, return_percentage = ?, total_trades = ?
		WHERE session_id = ?`,
		e.EndTime, e.FinalCash, e.FinalValue,
		e.TotalReturn, e.ReturnPct, e.TotalTrades, j.sessionID,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// SessionSummary is the read-side view of one session.
type SessionSummary struct {
	SessionID   string     `json:"session_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	InitialCash float64    `json:"initial_cash"`
	FinalCash   float64    `json:"final_cash"`
	FinalValue  float64    `json:"final_portfolio_value"`
	TotalReturn float64    `json:"total_return"`
	ReturnPct   float64    `json:"return_percentage"`
	TradeCount  int        `json:"trade_count"`
	SignalCount int        `json:"signal_count"`
}

// LatestSessionID returns the most recently started session.
func (j *SQLite) LatestSessionID() (string, error) {
	var id string

	err := j.db.QueryRow(`SELECT session_id FROM sessions ORDER BY start_time DESC LIMIT 1`).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("latest session: %w", err)
	}

	return id, nil
}

// Summary loads session statistics plus trade/signal counts.
func (j *SQLite) Summary(sessionID string) (SessionSummary, error) {
	var (
		s          SessionSummary
		endTime    sql.NullTime
		finalCash  sql.NullFloat64
		finalValue sql.NullFloat64
		totalRet   sql.NullFloat64
		retPct     sql.NullFloat64
	)

	err := j.db.QueryRow(`
		SELECT session_id, start_time, end_time, initial_cash,
		       final_cash, final_portfolio_value, total_return, return_percentage
		FROM sessions WHERE session_id = ?`, sessionID).
		Scan(&s.SessionID, &s.StartTime, &endTime, &s.InitialCash,
			&finalCash, &finalValue, &totalRet, &retPct)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	s.FinalCash = finalCash.Float64
	s.FinalValue = finalValue.Float64
	s.TotalReturn = totalRet.Float64
	s.ReturnPct = retPct.Float64

	if err := j.db.QueryRow(`SELECT COUNT(*) FROM trades WHERE session_id = ?`, sessionID).Scan(&s.TradeCount); err != nil {
		return SessionSummary{}, err
	}
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM signals WHERE session_id = ?`, sessionID).Scan(&s.SignalCount); err != nil {
		return SessionSummary{}, err
	}

	return s, nil
}

// ListTrades returns up to limit trades for a session, oldest first.
func (j *SQLite) ListTrades(sessionID string, limit int) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, timestamp, symbol, side, status, quantity, price, commission, realized_pl, cash, portfolio_value
		FROM trades WHERE session_id = ? ORDER BY timestamp LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord

	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.OrderID, &t.Time, &t.Symbol, &t.Side, &t.Status,
			&t.Quantity, &t.Price, &t.Commission, &t.RealizedPL, &t.Cash, &t.PortfolioValue); err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

// ListSnapshots returns up to limit snapshots for a session, oldest first.
func (j *SQLite) ListSnapshots(sessionID string, limit int) ([]SnapshotRecord, error) {
	rows, err := j.db.Query(`
		SELECT timestamp, cash, portfolio_value, positions
		FROM portfolio_snapshots WHERE session_id = ? ORDER BY timestamp LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRecord

	for rows.Next() {
		var (
			s         SnapshotRecord
			positions string
		)
		if err := rows.Scan(&s.Time, &s.Cash, &s.PortfolioValue, &positions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(positions), &s.Positions); err != nil {
			return nil, fmt.Errorf("unmarshal positions: %w", err)
		}
		out = append(out, s)
	}

	return out, rows.Err()
}
