package strategies

import (
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/market"
)

// OpenOnce submits a single buy at the first epoch and then goes quiet.
type OpenOnce struct {
	Ticker   string
	Quantity int

	opened bool
}

func (s *OpenOnce) Tickers() []string { return []string{s.Ticker} }

func (s *OpenOnce) Precalc(data market.Data) error {
	s.opened = false
	return nil
}

func (s *OpenOnce) Run(snapshot market.Data) ([]broker.Order, error) {
	if s.opened {
		return nil, nil
	}
	s.opened = true
	return []broker.Order{{
		Ticker:   s.Ticker,
		Type:     broker.Buy,
		Quantity: s.Quantity,
	}}, nil
}
