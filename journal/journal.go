// Package journal persists what a paper-trading session did: the signals
// the strategy saw, the trades the broker filled, periodic portfolio
// snapshots and the session bookkeeping itself.
package journal

import "time"

// SessionStart opens a new session row.
type SessionStart struct {
	StartTime   time.Time
	InitialCash float64
}

// SessionEnd closes a session with its final statistics.
type SessionEnd struct {
	EndTime     time.Time
	FinalCash   float64
	FinalValue  float64
	TotalReturn float64
	ReturnPct   float64
	TotalTrades int
}

// SignalRecord is one strategy signal, executed or not.
type SignalRecord struct {
	Time     time.Time
	Symbol   string
	Type     string // BUY or SELL
	Reason   string
	Price    float64
	FastMA   float64
	SlowMA   float64
	RSI      float64
	Executed bool
}

// TradeRecord is one completed or rejected order.
type TradeRecord struct {
	OrderID        string    `json:"order_id"`
	Time           time.Time `json:"timestamp"`
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`
	Status         string    `json:"status"`
	Quantity       int       `json:"quantity"`
	Price          float64   `json:"price"`
	Commission     float64   `json:"commission"`
	RealizedPL     float64   `json:"realized_pl"`
	Cash           float64   `json:"cash"`
	PortfolioValue float64   `json:"portfolio_value"`
}

// SnapshotRecord is a periodic portfolio snapshot.
type SnapshotRecord struct {
	Time           time.Time                   `json:"timestamp"`
	Cash           float64                     `json:"cash"`
	PortfolioValue float64                     `json:"portfolio_value"`
	Positions      map[string]PositionSnapshot `json:"positions"`
}

// PositionSnapshot is the per-symbol slice of a SnapshotRecord.
type PositionSnapshot struct {
	Quantity int     `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
	Value    float64 `json:"value"`
}

// Journal records session activity. StartSession must be called before any
// record method; implementations attach every record to that session.
type Journal interface {
	StartSession(s SessionStart) (sessionID string, err error)
	RecordSignal(SignalRecord) error
	RecordTrade(TradeRecord) error
	RecordSnapshot(SnapshotRecord) error
	EndSession(SessionEnd) error
	Close() error
}
