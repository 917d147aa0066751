package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/rustyeddy/backtester/market"
)

// Side selects which half of the modeled spread an execution crosses.
type Side int

const (
	Buy Side = iota
	Sell
)

// SpreadMode selects how the bid-ask spread estimate is maintained.
type SpreadMode string

const (
	// SpreadFixed estimates one spread per ticker from the full close
	// series at calibration time and applies it to every epoch.
	SpreadFixed SpreadMode = "fixed"

	// SpreadRolling would re-estimate the spread each epoch. It is a
	// declared extension point with no defined algorithm yet; selecting
	// it fails rather than silently approximating.
	SpreadRolling SpreadMode = "rolling"
)

// DefaultSlippageK is the default slippage sensitivity constant.
const DefaultSlippageK = 0.5

// ErrRollingSpread is returned when calibrating with SpreadRolling.
var ErrRollingSpread = errors.New("rolling spread mode is not implemented")

// DomainError reports market data that makes an execution price
// undefined, such as a zero-volume bar. It aborts the run.
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string { return e.Msg }

// Model computes deterministic execution prices from bars. The only state
// is the per-ticker spread fixed at calibration time; identical
// (side, quantity, bar, spread) inputs always price identically.
type Model struct {
	K       float64 // slippage sensitivity
	Mode    SpreadMode
	spreads map[string]float64
}

func NewModel(k float64, mode SpreadMode) *Model {
	if k == 0 {
		k = DefaultSlippageK
	}
	if mode == "" {
		mode = SpreadFixed
	}
	return &Model{
		K:       k,
		Mode:    mode,
		spreads: make(map[string]float64),
	}
}

// Calibrate estimates each ticker's implicit bid-ask spread from its full
// historical close series using the Roll estimator: with c the covariance
// of the first differences of the closes, spread = 2*sqrt(-c) when c is
// negative, otherwise 0.
func (m *Model) Calibrate(data market.Data) error {
	if m.Mode == SpreadRolling {
		return ErrRollingSpread
	}
	for ticker, series := range data {
		spread, err := estimateSpread(series.Closes())
		if err != nil {
			return fmt.Errorf("calibrate %s: %w", ticker, err)
		}
		m.spreads[ticker] = spread
	}
	return nil
}

// Spread returns the calibrated spread for ticker, 0 if never calibrated.
func (m *Model) Spread(ticker string) float64 {
	return m.spreads[ticker]
}

// SetSpread overrides the spread for ticker, for callers that estimate
// spreads out of band.
func (m *Model) SetSpread(ticker string, spread float64) {
	m.spreads[ticker] = spread
}

// Price computes the execution price for an order of the given side and
// quantity against the latest visible bar:
//
//	buy:  (midpoint + spread/2) * (1 + slippage)
//	sell: (midpoint - spread/2) * (1 - slippage)
//
// where slippage = K * quantity / volume. A zero-volume bar leaves the
// slippage fraction undefined and is a DomainError.
func (m *Model) Price(ticker string, side Side, quantity int, bar market.Bar) (float64, error) {
	if bar.Volume == 0 {
		return 0, &DomainError{
			Msg: fmt.Sprintf("zero volume bar for %s at %s", ticker, bar.Time),
		}
	}

	mid := bar.Midpoint()
	spread := m.spreads[ticker]
	slip := m.K * float64(quantity) / bar.Volume

	switch side {
	case Buy:
		return (mid + spread/2) * (1 + slip), nil
	case Sell:
		return (mid - spread/2) * (1 - slip), nil
	default:
		return 0, &DomainError{Msg: fmt.Sprintf("unknown order side %d", side)}
	}
}

func estimateSpread(closes []float64) (float64, error) {
	if len(closes) < 3 {
		return 0, nil
	}

	diff := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		diff[i-1] = closes[i] - closes[i-1]
	}

	c, err := stats.Covariance(diff, diff)
	if err != nil {
		return 0, fmt.Errorf("covariance of close differences: %w", err)
	}
	if c >= 0 {
		return 0, nil
	}
	return 2 * math.Sqrt(-c), nil
}
