package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordOrder(o OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(order_id, run_id, time, ticker, type, quantity, price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.RunID, o.Time, o.Ticker, o.Type, o.Quantity, o.Price, o.Status,
	)
	return err
}

func (j *SQLiteJournal) RecordPosition(p PositionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO positions
		(run_id, ticker, seq, time, quantity, entry_price, fill_price, unrealized_pnl, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RunID, p.Ticker, p.Seq, p.Time, p.Quantity,
		p.EntryPrice, p.FillPrice, p.UnrealizedPnL, p.RealizedPnL,
	)
	return err
}

// ListOrdersByRunID returns a run's order log in submission order.
// Order IDs are ULIDs, so lexicographic order is chronological.
func (j *SQLiteJournal) ListOrdersByRunID(runID string) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, run_id, time, ticker, type, quantity, price, status
		FROM orders WHERE run_id = ? ORDER BY order_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var o OrderRecord
		if err := rows.Scan(&o.OrderID, &o.RunID, &o.Time, &o.Ticker,
			&o.Type, &o.Quantity, &o.Price, &o.Status); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListPositionsByRun returns a ticker's position history for a run.
func (j *SQLiteJournal) ListPositionsByRun(runID, ticker string) ([]PositionRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, ticker, seq, time, quantity, entry_price, fill_price, unrealized_pnl, realized_pnl
		FROM positions WHERE run_id = ? AND ticker = ? ORDER BY seq`, runID, ticker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PositionRecord
	for rows.Next() {
		var p PositionRecord
		if err := rows.Scan(&p.RunID, &p.Ticker, &p.Seq, &p.Time, &p.Quantity,
			&p.EntryPrice, &p.FillPrice, &p.UnrealizedPnL, &p.RealizedPnL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
