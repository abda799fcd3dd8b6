package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable record of one match between two orders. Price
// is always the resting order's price, so the aggressor may receive
// price improvement. Trades are created only by the matching loop and
// never mutated afterward.
type Trade struct {
	TradeID     uint64
	BuyOrderID  uint64
	SellOrderID uint64
	Price       decimal.Decimal
	Quantity    uint64
	Timestamp   time.Time
}
