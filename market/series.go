package market

// Series is an ordered, regularly time-spaced bar sequence for one ticker.
type Series []Bar

// Truncate returns the first n bars. It shares the backing array; callers
// must treat the result as read-only.
func (s Series) Truncate(n int) Series {
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Latest returns the last bar of the series. The series must be non-empty.
func (s Series) Latest() Bar {
	return s[len(s)-1]
}

// Closes extracts the close prices in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Data maps tickers to their loaded series.
type Data map[string]Series

// Snapshot returns a view of the data for the given tickers, each series
// truncated to its first n bars (the bars visible at epoch n).
func (d Data) Snapshot(tickers []string, n int) Data {
	snap := make(Data, len(tickers))
	for _, t := range tickers {
		snap[t] = d[t].Truncate(n)
	}
	return snap
}
