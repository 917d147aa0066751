package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// SMA calculates the Simple Moving Average of the closes over the last
// period bars.
func SMA(bars market.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average over the full series,
// seeded with the SMA of the first period bars.
func EMA(bars market.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for i := 0; i < period; i++ {
		sma += bars[i].Close
	}
	ema := sma / float64(period)

	for i := period; i < len(bars); i++ {
		ema = (bars[i].Close-ema)*multiplier + ema
	}

	return ema, nil
}
