package market

import "time"

// Bar represents one OHLCV row of a regularly spaced time series.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Midpoint is the base reference price for execution modeling.
func (b Bar) Midpoint() float64 {
	return (b.High + b.Low) / 2
}
