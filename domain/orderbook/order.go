package orderbook

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

type Kind uint8

const (
	Limit Kind = iota
	Market
)

func (k Kind) String() string {
	if k == Market {
		return "MARKET"
	}
	return "LIMIT"
}

type Status uint8

const (
	StatusNew Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	default:
		return "CANCELLED"
	}
}

// Rejection reasons surfaced by order construction. The book maps them
// to its sentinel rejection surface (order id 0 / empty trade list).
var (
	ErrZeroQuantity     = errors.New("orderbook: order quantity must be positive")
	ErrNegativePrice    = errors.New("orderbook: order price cannot be negative")
	ErrNonPositivePrice = errors.New("orderbook: limit order price must be positive")
)

// Order is one submitted order and its fill progress. All mutation
// happens inside the owning book's critical section; callers outside
// this package only ever observe it through accessors.
type Order struct {
	id        uint64
	limit     decimal.Decimal // meaningful only when kind == Limit
	qty       uint64
	filled    uint64
	side      Side
	kind      Kind
	status    Status
	createdAt time.Time

	// Intrusive FIFO links, owned by the resting price level.
	next *Order
	prev *Order
}

func newLimitOrder(side Side, price decimal.Decimal, qty uint64) (*Order, error) {
	if qty == 0 {
		return nil, ErrZeroQuantity
	}
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if !price.IsPositive() {
		return nil, ErrNonPositivePrice
	}
	return &Order{
		limit:     price,
		qty:       qty,
		side:      side,
		kind:      Limit,
		status:    StatusNew,
		createdAt: time.Now(),
	}, nil
}

func newMarketOrder(side Side, qty uint64) (*Order, error) {
	if qty == 0 {
		return nil, ErrZeroQuantity
	}
	return &Order{
		qty:       qty,
		side:      side,
		kind:      Market,
		status:    StatusNew,
		createdAt: time.Now(),
	}, nil
}

func (o *Order) ID() uint64           { return o.id }
func (o *Order) Side() Side           { return o.side }
func (o *Order) Kind() Kind           { return o.kind }
func (o *Order) Quantity() uint64     { return o.qty }
func (o *Order) FilledQty() uint64    { return o.filled }
func (o *Order) Remaining() uint64    { return o.qty - o.filled }
func (o *Order) Status() Status       { return o.status }
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// Limit returns the limit price. ok is false for market orders, which
// carry no price at all rather than a zero sentinel.
func (o *Order) Limit() (decimal.Decimal, bool) {
	if o.kind != Limit {
		return decimal.Decimal{}, false
	}
	return o.limit, true
}

// Next returns the order behind this one in its price level's queue.
func (o *Order) Next() *Order { return o.next }

// crosses reports whether the order may trade against the given
// opposite-side price.
func (o *Order) crosses(price decimal.Decimal) bool {
	if o.kind == Market {
		return true
	}
	if o.side == Buy {
		return o.limit.GreaterThanOrEqual(price)
	}
	return o.limit.LessThanOrEqual(price)
}

// fill advances the filled quantity. A fill of zero, a fill past the
// remaining quantity, or a fill on a terminal order is reachable only
// through an engine bug and halts rather than corrupting state.
func (o *Order) fill(qty uint64) {
	if qty == 0 || qty > o.Remaining() {
		panic(fmt.Sprintf("orderbook: fill %d outside remaining %d on order %d", qty, o.Remaining(), o.id))
	}
	if o.status == StatusFilled || o.status == StatusCancelled {
		panic(fmt.Sprintf("orderbook: fill on %s order %d", o.status, o.id))
	}
	o.filled += qty
	if o.filled == o.qty {
		o.status = StatusFilled
	} else {
		o.status = StatusPartiallyFilled
	}
}

// cancel marks the order cancelled. Terminal orders are left untouched,
// so repeated cancels are harmless.
func (o *Order) cancel() {
	if o.status == StatusNew || o.status == StatusPartiallyFilled {
		o.status = StatusCancelled
	}
}
