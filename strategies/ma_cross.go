package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// MACross trades a fast/slow moving-average crossover on a single
// ticker: it buys when the fast average crosses above the slow one and
// liquidates the holding when it crosses back below.
type MACross struct {
	Ticker   string
	Quantity int
	Fast     int
	Slow     int

	acct     *broker.Account
	prevFast float64
	prevSlow float64
	primed   bool
}

func NewMACross(ticker string, quantity, fast, slow int, acct *broker.Account) *MACross {
	if fast <= 0 {
		fast = 10
	}
	if slow <= 0 {
		slow = 60
	}
	if quantity <= 0 {
		quantity = 1
	}
	return &MACross{
		Ticker:   ticker,
		Quantity: quantity,
		Fast:     fast,
		Slow:     slow,
		acct:     acct,
	}
}

func (s *MACross) Tickers() []string { return []string{s.Ticker} }

func (s *MACross) Precalc(data market.Data) error {
	if s.Fast >= s.Slow {
		return fmt.Errorf("fast period %d must be below slow period %d", s.Fast, s.Slow)
	}
	if len(data[s.Ticker]) < s.Slow+1 {
		return fmt.Errorf("%s: need at least %d bars for slow period %d",
			s.Ticker, s.Slow+1, s.Slow)
	}
	s.primed = false
	return nil
}

func (s *MACross) Run(snapshot market.Data) ([]broker.Order, error) {
	bars := snapshot[s.Ticker]
	if len(bars) < s.Slow {
		return nil, nil
	}

	fast, err := indicators.SMA(bars, s.Fast)
	if err != nil {
		return nil, err
	}
	slow, err := indicators.SMA(bars, s.Slow)
	if err != nil {
		return nil, err
	}

	defer func() {
		s.prevFast, s.prevSlow = fast, slow
		s.primed = true
	}()

	if !s.primed {
		return nil, nil
	}

	switch {
	case s.prevFast <= s.prevSlow && fast > slow:
		return []broker.Order{{
			Ticker:   s.Ticker,
			Type:     broker.Buy,
			Quantity: s.Quantity,
		}}, nil

	case s.prevFast >= s.prevSlow && fast < slow:
		held := s.acct.Holding(s.Ticker)
		if held == 0 {
			return nil, nil
		}
		return []broker.Order{{
			Ticker:   s.Ticker,
			Type:     broker.Sell,
			Quantity: held,
		}}, nil
	}
	return nil, nil
}
