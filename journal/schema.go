package journal

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	ticker TEXT NOT NULL,
	type TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price REAL NOT NULL,
	status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	run_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	seq INTEGER NOT NULL,
	time DATETIME NOT NULL,
	quantity INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	fill_price REAL NOT NULL,
	unrealized_pnl REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	PRIMARY KEY (run_id, ticker, seq)
);

CREATE INDEX IF NOT EXISTS idx_orders_run ON orders(run_id);
CREATE INDEX IF NOT EXISTS idx_positions_run ON positions(run_id, ticker);
`
