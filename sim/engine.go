package sim

import (
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/ledger"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pricing"
)

// Strategy is the capability a simulation drives. Precalc is invoked
// exactly once with the full market data before any epoch, so strategies
// can derive indicator state over the whole horizon. Run is invoked once
// per epoch with the snapshot of bars visible at that epoch and returns
// zero or more candidate orders.
//
// An error from either method is fatal and aborts the entire run.
type Strategy interface {
	Tickers() []string
	Precalc(data market.Data) error
	Run(snapshot market.Data) ([]broker.Order, error)
}

// Options tunes a single run.
type Options struct {
	// MaxEpochs caps the epoch count; 0 means the full series length.
	MaxEpochs int
}

// Result is the output of one completed run: the chronological order log
// and the per-ticker position histories. Each history starts with the
// default zero position, so its length is always the ticker's filled
// order count plus one.
type Result struct {
	RunID     string
	Epochs    int
	Orders    []broker.ExecutedOrder
	Positions map[string][]ledger.Position
}

// Engine steps a strategy through preloaded market data one epoch at a
// time. A run is fully synchronous and single-threaded: epochs execute in
// increasing order and orders within an epoch in submission order, each
// priced against the same unchanging snapshot. Engines are not safe for
// concurrent runs; give each simulation its own engine and account.
type Engine struct {
	data   market.Data
	model  *pricing.Model
	broker *broker.Broker
}

func NewEngine(model *pricing.Model) *Engine {
	return &Engine{
		data:   make(market.Data),
		model:  model,
		broker: broker.NewBroker(model),
	}
}

// SetSeries registers a preloaded series under ticker.
func (e *Engine) SetSeries(ticker string, series market.Series) {
	e.data[ticker] = series
}

// LoadFile loads a CSV (optionally .xz compressed) series. An empty
// ticker uses the file name stem.
func (e *Engine) LoadFile(path, ticker string) error {
	ticker, series, err := market.LoadFile(path, ticker)
	if err != nil {
		return err
	}
	e.data[ticker] = series
	return nil
}

// Data exposes the loaded market data, mainly for inspection in tests
// and tooling.
func (e *Engine) Data() market.Data {
	return e.data
}

// Run simulates strat against the loaded data, settling orders against
// acct. It returns the completed result or the first fatal error;
// there are no partial results.
func (e *Engine) Run(strat Strategy, acct *broker.Account, opts Options) (*Result, error) {
	if acct == nil || acct.Funds <= 0 {
		return nil, configErrorf("strategy funds must be greater than 0")
	}
	if len(e.data) == 0 {
		return nil, configErrorf("must provide data for backtesting")
	}
	tickers := strat.Tickers()
	if len(tickers) == 0 {
		return nil, configErrorf("strategy must have tickers to run strategy on")
	}
	if missing := e.missingTickers(tickers); len(missing) > 0 {
		return nil, configErrorf("data for tickers not found: %s", strings.Join(missing, ", "))
	}

	runID := id.New()

	if err := e.model.Calibrate(e.data); err != nil {
		return nil, err
	}
	if err := strat.Precalc(e.data); err != nil {
		return nil, err
	}

	epochs := e.epochCount(tickers, opts.MaxEpochs)
	log.WithFields(log.Fields{
		"run":     runID,
		"tickers": len(tickers),
		"epochs":  epochs,
	}).Info("preloaded data")

	res := &Result{
		RunID:     runID,
		Epochs:    epochs,
		Positions: make(map[string][]ledger.Position, len(tickers)),
	}
	for _, t := range tickers {
		res.Positions[t] = []ledger.Position{{}}
	}

	for i := 1; i <= epochs; i++ {
		snapshot := e.data.Snapshot(tickers, i)

		orders, err := strat.Run(snapshot)
		if err != nil {
			return nil, err
		}

		for _, order := range orders {
			exec, err := e.broker.Execute(acct, order, snapshot)
			if err != nil {
				return nil, err
			}
			res.Orders = append(res.Orders, exec)

			if exec.Status != broker.Filled {
				continue
			}

			history := res.Positions[exec.Ticker]
			last := history[len(history)-1]
			pos, err := ledger.Update(last, exec, snapshot[exec.Ticker].Latest(), e.model)
			if err != nil {
				return nil, err
			}
			res.Positions[exec.Ticker] = append(history, pos)

			log.WithFields(log.Fields{
				"run":    runID,
				"epoch":  i,
				"ticker": exec.Ticker,
				"type":   exec.Type,
				"qty":    exec.Quantity,
				"price":  exec.Price,
			}).Debug("order filled")
		}
	}

	return res, nil
}

func (e *Engine) missingTickers(tickers []string) []string {
	var missing []string
	for _, t := range tickers {
		if _, ok := e.data[t]; !ok {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)
	return missing
}

func (e *Engine) epochCount(tickers []string, limit int) int {
	n := len(e.data[tickers[0]])
	for _, t := range tickers[1:] {
		if l := len(e.data[t]); l < n {
			n = l
		}
	}
	if limit > 0 && limit < n {
		n = limit
	}
	return n
}
