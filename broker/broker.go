package broker

import (
	"fmt"

	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pricing"
)

// Broker validates candidate orders against an account and applies their
// funds/holdings effects atomically with the fill decision.
type Broker struct {
	model *pricing.Model
}

func NewBroker(model *pricing.Model) *Broker {
	return &Broker{model: model}
}

// Execute prices order against the latest visible bar of its ticker and
// settles it against acct. Every order reaches a terminal status:
//
//   - filled: funds and holdings were adjusted by price * quantity
//   - rejected: non-positive quantity, limit price violated, funds short,
//     or holdings short
//   - unsupported: unrecognized order type, account untouched
//
// Orders from the same epoch must be executed in submission order; each
// prices against the same unchanged snapshot, seeing only the
// funds/holdings effects of earlier fills. The returned error is reserved
// for fatal conditions (undefined price, missing data) and aborts the run.
func (b *Broker) Execute(acct *Account, order Order, snapshot market.Data) (ExecutedOrder, error) {
	series, ok := snapshot[order.Ticker]
	if !ok || len(series) == 0 {
		return ExecutedOrder{}, fmt.Errorf("no visible bars for %s", order.Ticker)
	}
	bar := series.Latest()

	done := func(price float64, status OrderStatus) ExecutedOrder {
		return ExecutedOrder{
			ID:       id.New(),
			Time:     bar.Time,
			Ticker:   order.Ticker,
			Type:     order.Type,
			Quantity: order.Quantity,
			Price:    price,
			Status:   status,
		}
	}

	var side pricing.Side
	switch order.Type {
	case Buy:
		side = pricing.Buy
	case Sell:
		side = pricing.Sell
	default:
		return done(0, Unsupported), nil
	}

	if order.Quantity <= 0 {
		return done(0, Rejected), nil
	}

	price, err := b.model.Price(order.Ticker, side, order.Quantity, bar)
	if err != nil {
		return ExecutedOrder{}, err
	}

	if violatesLimit(order, price) {
		return done(price, Rejected), nil
	}

	total := price * float64(order.Quantity)
	switch order.Type {
	case Buy:
		if total > acct.Funds {
			return done(price, Rejected), nil
		}
		acct.Funds -= total
		acct.Portfolio[order.Ticker] += order.Quantity
	case Sell:
		if acct.Holding(order.Ticker) < order.Quantity {
			return done(price, Rejected), nil
		}
		acct.Funds += total
		acct.Portfolio[order.Ticker] -= order.Quantity
	}
	return done(price, Filled), nil
}

func violatesLimit(order Order, price float64) bool {
	if order.LimitPrice == nil {
		return false
	}
	if order.Type == Buy {
		return price > *order.LimitPrice
	}
	return price < *order.LimitPrice
}
