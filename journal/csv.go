package journal

import (
	"encoding/csv"
	"os"
	"strconv"
)

type CSVJournal struct {
	orders    *csv.Writer
	positions *csv.Writer
	of, pf    *os.File
}

func NewCSV(ordersPath, positionsPath string) (*CSVJournal, error) {
	of, err := os.Create(ordersPath)
	if err != nil {
		return nil, err
	}
	pf, err := os.Create(positionsPath)
	if err != nil {
		of.Close()
		return nil, err
	}

	ow := csv.NewWriter(of)
	pw := csv.NewWriter(pf)

	if err := ow.Write([]string{"run_id", "order_id", "time", "ticker", "type", "quantity", "price", "status"}); err != nil {
		return nil, err
	}
	if err := pw.Write([]string{"run_id", "ticker", "seq", "time", "quantity", "entry_price", "fill_price", "unrealized_pnl", "realized_pnl"}); err != nil {
		return nil, err
	}

	ow.Flush()
	if err := ow.Error(); err != nil {
		return nil, err
	}
	pw.Flush()
	if err := pw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{ow, pw, of, pf}, nil
}

func (j *CSVJournal) RecordOrder(o OrderRecord) error {
	err := j.orders.Write([]string{
		o.RunID,
		o.OrderID,
		o.Time,
		o.Ticker,
		o.Type,
		strconv.Itoa(o.Quantity),
		f(o.Price),
		o.Status,
	})
	if err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) RecordPosition(p PositionRecord) error {
	err := j.positions.Write([]string{
		p.RunID,
		p.Ticker,
		strconv.Itoa(p.Seq),
		p.Time,
		strconv.Itoa(p.Quantity),
		f(p.EntryPrice),
		f(p.FillPrice),
		f(p.UnrealizedPnL),
		f(p.RealizedPnL),
	})
	if err != nil {
		return err
	}
	j.positions.Flush()
	return j.positions.Error()
}

func (j *CSVJournal) Close() error {
	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	j.positions.Flush()
	if err := j.positions.Error(); err != nil {
		return err
	}

	if err := j.of.Close(); err != nil {
		return err
	}
	return j.pf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
