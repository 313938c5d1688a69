package journal

const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	start_time DATETIME NOT NULL,
	end_time DATETIME,
	initial_cash REAL NOT NULL,
	final_cash REAL,
	final_portfolio_value REAL,
	total_return REAL,
	return_percentage REAL,
	total_trades INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
	order_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	timestamp DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	status TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price REAL NOT NULL,
	commission REAL NOT NULL,
	realized_pl REAL NOT NULL,
	cash REAL NOT NULL,
	portfolio_value REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS signals (
	signal_id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	timestamp DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	signal_type TEXT NOT NULL,
	reason TEXT NOT NULL,
	price REAL NOT NULL,
	fast_ma REAL NOT NULL,
	slow_ma REAL NOT NULL,
	rsi REAL NOT NULL,
	executed BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolio_snapshots (
	snapshot_id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	timestamp DATETIME NOT NULL,
	cash REAL NOT NULL,
	portfolio_value REAL NOT NULL,
	positions TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_signals_session ON signals(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_snapshots_session ON portfolio_snapshots(session_id, timestamp);
`
