package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/sim"
)

var registry = make(map[string]sim.Strategy)

// Register adds a strategy under name for later lookup.
func Register(name string, strat sim.Strategy) {
	registry[name] = strat
}

// Get returns a previously registered strategy, or nil.
func Get(name string) sim.Strategy {
	return registry[name]
}

// Params carries the construction parameters shared by the built-in
// strategies; each strategy reads the fields it cares about.
type Params struct {
	Ticker   string
	Quantity int
	Fast     int
	Slow     int
	Account  *broker.Account
}

// ByName builds one of the built-in strategies.
func ByName(name string, p Params) (sim.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return &Noop{Ticker: p.Ticker}, nil

	case "open-once":
		return &OpenOnce{
			Ticker:   p.Ticker,
			Quantity: p.Quantity,
		}, nil

	case "ma-cross", "macross":
		return NewMACross(p.Ticker, p.Quantity, p.Fast, p.Slow, p.Account), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, open-once, ma-cross)", name)
	}
}
