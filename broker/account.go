package broker

// Account holds a strategy's funds and holdings. It is the only mutable
// state in a run and is mutated exclusively by the broker; a run owns its
// account and accounts are never shared across simulations.
type Account struct {
	Funds     float64
	Portfolio map[string]int
}

func NewAccount(funds float64) *Account {
	return &Account{
		Funds:     funds,
		Portfolio: make(map[string]int),
	}
}

// Holding returns the held quantity for ticker, 0 when never traded.
func (a *Account) Holding(ticker string) int {
	return a.Portfolio[ticker]
}
