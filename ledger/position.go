package ledger

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pricing"
)

// Position is one row of a ticker's position history. The zero value is
// the default position predating any trade. Rows are never mutated in
// place; every fill appends a freshly derived row.
type Position struct {
	Time          time.Time
	Quantity      int
	EntryPrice    float64 // volume-weighted average cost of the holding
	FillPrice     float64 // price of the most recent transaction
	UnrealizedPnL float64
	RealizedPnL   float64 // adjusted only on sells
}

// Update derives the next position row from the last row and a filled
// order. The unrealized P&L values the whole holding at the price it
// could be liquidated for on the latest visible bar, whichever side the
// triggering order was on.
func Update(last Position, exec broker.ExecutedOrder, bar market.Bar, model *pricing.Model) (Position, error) {
	next := Position{
		Time:        exec.Time,
		EntryPrice:  last.EntryPrice,
		FillPrice:   exec.Price,
		RealizedPnL: last.RealizedPnL,
	}

	switch exec.Type {
	case broker.Buy:
		next.Quantity = last.Quantity + exec.Quantity
		next.EntryPrice = averageEntryPrice(
			last.EntryPrice, exec.Price, last.Quantity, exec.Quantity)
	case broker.Sell:
		next.Quantity = last.Quantity - exec.Quantity
		next.RealizedPnL += (exec.Price - last.EntryPrice) * float64(exec.Quantity)
		if next.Quantity == 0 {
			next.EntryPrice = 0
		}
	default:
		return Position{}, fmt.Errorf("cannot update position for %s order", exec.Type)
	}

	liquidation, err := model.Price(exec.Ticker, pricing.Sell, next.Quantity, bar)
	if err != nil {
		return Position{}, err
	}
	next.UnrealizedPnL = float64(next.Quantity) * liquidation

	return next, nil
}

// averageEntryPrice folds a new purchase into the cost basis. A flat
// previous position reduces to the new fill price, so there is no
// division by zero.
func averageEntryPrice(p1, p2 float64, q1, q2 int) float64 {
	return (p1*float64(q1) + p2*float64(q2)) / float64(q1+q2)
}
