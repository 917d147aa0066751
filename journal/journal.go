package journal

import (
	"time"

	"github.com/rustyeddy/backtester/ledger"
	"github.com/rustyeddy/backtester/sim"
)

const timeLayout = time.RFC3339

// OrderRecord is one executed order tagged with the run that produced it.
type OrderRecord struct {
	RunID    string
	OrderID  string
	Time     string
	Ticker   string
	Type     string
	Quantity int
	Price    float64
	Status   string
}

// PositionRecord is one position-history row tagged with its run.
type PositionRecord struct {
	RunID         string
	Ticker        string
	Seq           int // index within the ticker's history
	Time          string
	Quantity      int
	EntryPrice    float64
	FillPrice     float64
	UnrealizedPnL float64
	RealizedPnL   float64
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordPosition(PositionRecord) error
	Close() error
}

// Record writes a full run result into j: the order log in chronological
// order, then each ticker's position history.
func Record(j Journal, res *sim.Result) error {
	for _, o := range res.Orders {
		rec := OrderRecord{
			RunID:    res.RunID,
			OrderID:  o.ID,
			Time:     o.Time.Format(timeLayout),
			Ticker:   o.Ticker,
			Type:     string(o.Type),
			Quantity: o.Quantity,
			Price:    o.Price,
			Status:   string(o.Status),
		}
		if err := j.RecordOrder(rec); err != nil {
			return err
		}
	}

	for ticker, history := range res.Positions {
		for seq, p := range history {
			if err := j.RecordPosition(positionRecord(res.RunID, ticker, seq, p)); err != nil {
				return err
			}
		}
	}
	return nil
}

func positionRecord(runID, ticker string, seq int, p ledger.Position) PositionRecord {
	return PositionRecord{
		RunID:         runID,
		Ticker:        ticker,
		Seq:           seq,
		Time:          p.Time.Format(timeLayout),
		Quantity:      p.Quantity,
		EntryPrice:    p.EntryPrice,
		FillPrice:     p.FillPrice,
		UnrealizedPnL: p.UnrealizedPnL,
		RealizedPnL:   p.RealizedPnL,
	}
}
