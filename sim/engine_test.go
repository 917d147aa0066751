package sim

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pricing"
)

// scriptedStrategy drives the engine from tests. decide is called once
// per epoch with the visible snapshot.
type scriptedStrategy struct {
	tickers      []string
	precalcCalls int
	precalcErr   error
	decide       func(epoch int, snapshot market.Data) ([]broker.Order, error)

	epochsSeen int
}

func (s *scriptedStrategy) Tickers() []string { return s.tickers }

func (s *scriptedStrategy) Precalc(data market.Data) error {
	s.precalcCalls++
	return s.precalcErr
}

func (s *scriptedStrategy) Run(snapshot market.Data) ([]broker.Order, error) {
	s.epochsSeen++
	if s.decide == nil {
		return nil, nil
	}
	return s.decide(s.epochsSeen, snapshot)
}

func testSeries(n int) market.Series {
	s := make(market.Series, n)
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		px := 10 + float64(i)
		s[i] = market.Bar{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   px,
			High:   px,
			Low:    px,
			Close:  px,
			Volume: 1000,
		}
	}
	return s
}

func testEngine(series map[string]int) *Engine {
	e := NewEngine(pricing.NewModel(pricing.DefaultSlippageK, pricing.SpreadFixed))
	for ticker, n := range series {
		e.SetSeries(ticker, testSeries(n))
	}
	return e
}

func TestRunPreconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		engine  *Engine
		acct    *broker.Account
		tickers []string
		msg     string
	}{
		{
			name:    "no_funds",
			engine:  testEngine(map[string]int{"TEST": 5}),
			acct:    broker.NewAccount(0),
			tickers: []string{"TEST"},
			msg:     "funds must be greater than 0",
		},
		{
			name:    "nil_account",
			engine:  testEngine(map[string]int{"TEST": 5}),
			acct:    nil,
			tickers: []string{"TEST"},
			msg:     "funds must be greater than 0",
		},
		{
			name:    "no_data",
			engine:  testEngine(nil),
			acct:    broker.NewAccount(10000),
			tickers: []string{"TEST"},
			msg:     "must provide data",
		},
		{
			name:    "no_tickers",
			engine:  testEngine(map[string]int{"TEST": 5}),
			acct:    broker.NewAccount(10000),
			tickers: nil,
			msg:     "must have tickers",
		},
		{
			name:    "missing_ticker_data",
			engine:  testEngine(map[string]int{"TEST": 5}),
			acct:    broker.NewAccount(10000),
			tickers: []string{"TEST", "MISSING", "ALSO_MISSING"},
			msg:     "data for tickers not found: ALSO_MISSING, MISSING",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			strat := &scriptedStrategy{tickers: tt.tickers}

			_, err := tt.engine.Run(strat, tt.acct, Options{})
			require.Error(t, err)

			var cerr *ConfigError
			assert.True(t, errors.As(err, &cerr))
			assert.Contains(t, err.Error(), tt.msg)
			assert.Zero(t, strat.epochsSeen, "no epoch may run after a precondition failure")
		})
	}
}

func TestRunEpochCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		series   map[string]int
		max      int
		expected int
	}{
		{
			name:     "shortest_series_wins",
			series:   map[string]int{"A": 10, "B": 7, "C": 30},
			expected: 7,
		},
		{
			name:     "caller_cap_wins_when_smaller",
			series:   map[string]int{"A": 10, "B": 7},
			max:      3,
			expected: 3,
		},
		{
			name:     "caller_cap_ignored_when_larger",
			series:   map[string]int{"A": 5},
			max:      100,
			expected: 5,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := testEngine(tt.series)
			tickers := make([]string, 0, len(tt.series))
			for ticker := range tt.series {
				tickers = append(tickers, ticker)
			}
			strat := &scriptedStrategy{tickers: tickers}

			res, err := e.Run(strat, broker.NewAccount(10000), Options{MaxEpochs: tt.max})
			require.NoError(t, err)

			assert.Equal(t, tt.expected, res.Epochs)
			assert.Equal(t, tt.expected, strat.epochsSeen)
		})
	}
}

func TestRunSnapshotHasNoLookAhead(t *testing.T) {
	t.Parallel()

	e := testEngine(map[string]int{"TEST": 8})
	full := e.Data()["TEST"]

	strat := &scriptedStrategy{
		tickers: []string{"TEST"},
		decide: func(epoch int, snapshot market.Data) ([]broker.Order, error) {
			bars := snapshot["TEST"]
			if len(bars) != epoch {
				return nil, fmt.Errorf("epoch %d saw %d bars", epoch, len(bars))
			}
			if bars.Latest() != full[epoch-1] {
				return nil, fmt.Errorf("epoch %d latest bar is not row %d", epoch, epoch-1)
			}
			return nil, nil
		},
	}

	_, err := e.Run(strat, broker.NewAccount(10000), Options{})
	require.NoError(t, err)
}

func TestRunPrecalcCalledOnce(t *testing.T) {
	t.Parallel()

	e := testEngine(map[string]int{"TEST": 5})
	strat := &scriptedStrategy{tickers: []string{"TEST"}}

	_, err := e.Run(strat, broker.NewAccount(10000), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, strat.precalcCalls)
}

func TestRunPrecalcErrorIsFatal(t *testing.T) {
	t.Parallel()

	e := testEngine(map[string]int{"TEST": 5})
	boom := errors.New("indicator blew up")
	strat := &scriptedStrategy{tickers: []string{"TEST"}, precalcErr: boom}

	res, err := e.Run(strat, broker.NewAccount(10000), Options{})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)
	assert.Zero(t, strat.epochsSeen)
}

func TestRunStrategyErrorIsFatal(t *testing.T) {
	t.Parallel()

	e := testEngine(map[string]int{"TEST": 10})
	boom := errors.New("bad decision")
	strat := &scriptedStrategy{
		tickers: []string{"TEST"},
		decide: func(epoch int, _ market.Data) ([]broker.Order, error) {
			if epoch == 3 {
				return nil, boom
			}
			return nil, nil
		},
	}

	res, err := e.Run(strat, broker.NewAccount(10000), Options{})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res, "no partial results on fatal error")
}

func TestRunOrderLogAndPositions(t *testing.T) {
	t.Parallel()

	e := testEngine(map[string]int{"TEST": 6})
	strat := &scriptedStrategy{
		tickers: []string{"TEST"},
		decide: func(epoch int, _ market.Data) ([]broker.Order, error) {
			switch epoch {
			case 2:
				return []broker.Order{{Ticker: "TEST", Type: broker.Buy, Quantity: 2}}, nil
			case 3:
				// a fill and a rejection in the same epoch
				return []broker.Order{
					{Ticker: "TEST", Type: broker.Buy, Quantity: 1},
					{Ticker: "TEST", Type: broker.Sell, Quantity: 100},
				}, nil
			case 4:
				return []broker.Order{{Ticker: "TEST", Type: "hold", Quantity: 1}}, nil
			case 5:
				return []broker.Order{{Ticker: "TEST", Type: broker.Sell, Quantity: 3}}, nil
			}
			return nil, nil
		},
	}

	acct := broker.NewAccount(10000)
	res, err := e.Run(strat, acct, Options{})
	require.NoError(t, err)

	require.Len(t, res.Orders, 5)
	statuses := make([]broker.OrderStatus, len(res.Orders))
	for i, o := range res.Orders {
		statuses[i] = o.Status
	}
	assert.Equal(t, []broker.OrderStatus{
		broker.Filled,
		broker.Filled,
		broker.Rejected,
		broker.Unsupported,
		broker.Filled,
	}, statuses)

	// three fills => history of four rows starting from the zero position
	history := res.Positions["TEST"]
	require.Len(t, history, 4)
	assert.Equal(t, 0, history[0].Quantity)
	assert.Equal(t, 2, history[1].Quantity)
	assert.Equal(t, 3, history[2].Quantity)
	assert.Equal(t, 0, history[3].Quantity)
	assert.Zero(t, history[3].EntryPrice)

	assert.Equal(t, 0, acct.Holding("TEST"))
}

func TestRunRollingSpreadModeFails(t *testing.T) {
	t.Parallel()

	e := NewEngine(pricing.NewModel(pricing.DefaultSlippageK, pricing.SpreadRolling))
	e.SetSeries("TEST", testSeries(5))
	strat := &scriptedStrategy{tickers: []string{"TEST"}}

	_, err := e.Run(strat, broker.NewAccount(10000), Options{})
	assert.ErrorIs(t, err, pricing.ErrRollingSpread)
}

func TestRunNoOrdersNoPositions(t *testing.T) {
	t.Parallel()

	e := testEngine(map[string]int{"TEST": 5})
	strat := &scriptedStrategy{tickers: []string{"TEST"}}

	res, err := e.Run(strat, broker.NewAccount(10000), Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Orders)
	require.Len(t, res.Positions["TEST"], 1)
	assert.Equal(t, 0, res.Positions["TEST"][0].Quantity)
}

func TestLoadFileIntoEngine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := dir + "/TEST.csv"
	csv := "datetime,open,high,low,close,volume\n" +
		"2024-01-02T09:30:00Z,10,11,9,10.5,1000\n" +
		"2024-01-02T09:31:00Z,10.5,11.5,9.5,11,1100\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	e := testEngine(nil)
	require.NoError(t, e.LoadFile(path, ""))
	assert.Len(t, e.Data()["TEST"], 2)
}
