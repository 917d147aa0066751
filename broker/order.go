package broker

import "time"

// OrderType is the action a strategy requests for a ticker.
type OrderType string

const (
	Buy  OrderType = "buy"
	Sell OrderType = "sell"
)

// OrderStatus is the terminal status of an executed order.
type OrderStatus string

const (
	// Filled orders mutated the account and produce a position update.
	Filled OrderStatus = "filled"

	// Rejected orders failed the funds, holdings or limit-price check.
	// Rejection is a normal outcome, not an error.
	Rejected OrderStatus = "rejected"

	// Unsupported orders carry a type the broker does not recognize.
	// They never touch the account.
	Unsupported OrderStatus = "unsupported"
)

// Order is a candidate order produced by a strategy for the current
// epoch. It is ephemeral; only the resulting ExecutedOrder is retained.
type Order struct {
	Ticker   string
	Type     OrderType
	Quantity int

	// LimitPrice optionally bounds the acceptable execution price:
	// a buy is rejected above it, a sell below it.
	LimitPrice *float64
}

// ExecutedOrder is the immutable record of one broker decision. The
// chronological sequence of these records is a run's primary output.
type ExecutedOrder struct {
	ID       string
	Time     time.Time
	Ticker   string
	Type     OrderType
	Quantity int
	Price    float64
	Status   OrderStatus
}
