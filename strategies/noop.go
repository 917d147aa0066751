package strategies

import (
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/market"
)

// Noop declares a ticker but never trades. Baseline for wiring tests.
type Noop struct {
	Ticker string
}

func (n *Noop) Tickers() []string { return []string{n.Ticker} }

func (n *Noop) Precalc(data market.Data) error { return nil }

func (n *Noop) Run(snapshot market.Data) ([]broker.Order, error) {
	return nil, nil
}
