package orderbook

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"matchbook/infra/sequence"
)

// OrderBook is the matching engine for one instrument. Both sides are
// price-ordered B-trees whose Min() is the best level, bids by highest
// price first and asks by lowest. The book exclusively owns every
// order it has accepted: the side trees and the id index hold handles
// into the same store, so a mutation through either path is visible
// through the other.
type OrderBook struct {
	mu sync.RWMutex

	bids *btree.BTreeG[*PriceLevel]
	asks *btree.BTreeG[*PriceLevel]

	// Resting orders only, keyed by order id for O(1) cancellation.
	orders map[uint64]*Order

	orderSeq *sequence.Sequencer
	tradeSeq *sequence.Sequencer

	totalTrades uint64
	totalVolume uint64
}

func bidLess(a, b *PriceLevel) bool { return a.price.GreaterThan(b.price) }
func askLess(a, b *PriceLevel) bool { return a.price.LessThan(b.price) }

// The book's RWMutex already serializes every tree access.
func newSideTree(less func(a, b *PriceLevel) bool) *btree.BTreeG[*PriceLevel] {
	return btree.NewBTreeGOptions(less, btree.Options{NoLocks: true})
}

// NewOrderBook creates an empty book. Order and trade numbering starts
// at 1 and stays monotonic for the book's whole lifetime.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids:     newSideTree(bidLess),
		asks:     newSideTree(askLess),
		orders:   make(map[uint64]*Order),
		orderSeq: sequence.New(0),
		tradeSeq: sequence.New(0),
	}
}

// SubmitOrder validates and submits an order, matching it against the
// opposite side and resting any limit remainder at its price. It
// returns the assigned order id, or 0 when the order was rejected with
// no state change. Market remainders are discarded, never rested.
func (b *OrderBook) SubmitOrder(price decimal.Decimal, qty uint64, side Side, kind Kind) uint64 {
	var (
		o   *Order
		err error
	)
	if kind == Market {
		o, err = newMarketOrder(side, qty)
	} else {
		o, err = newLimitOrder(side, price, qty)
	}
	if err != nil {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o.id = b.orderSeq.Next()
	trades := b.match(o)

	if o.kind == Limit && o.Remaining() > 0 && o.status != StatusCancelled {
		b.rest(o)
	}

	b.recordTrades(trades)
	return o.id
}

// SubmitMarketOrder submits a market order and returns the trades it
// produced, in execution order. Any unmatched remainder is dropped.
func (b *OrderBook) SubmitMarketOrder(qty uint64, side Side) []Trade {
	o, err := newMarketOrder(side, qty)
	if err != nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o.id = b.orderSeq.Next()
	trades := b.match(o)
	b.recordTrades(trades)
	return trades
}

// CancelOrder removes a resting order from the book. It returns false
// for unknown ids, including orders that already filled or were
// cancelled before.
func (b *OrderBook) CancelOrder(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return false
	}
	o.cancel()

	tree := b.sideTree(o.side)
	if lvl, found := tree.Get(&PriceLevel{price: o.limit}); found {
		lvl.remove(o)
		if lvl.Empty() {
			tree.Delete(lvl)
		}
	}
	delete(b.orders, id)
	return true
}

// match drains the best opposite levels while the incoming order still
// crosses. Stopping at the first non-crossing level is safe: no deeper
// level can be more favorable.
func (b *OrderBook) match(o *Order) []Trade {
	var trades []Trade

	opposite := b.asks
	if o.side == Sell {
		opposite = b.bids
	}

	for o.Remaining() > 0 {
		best, ok := opposite.Min()
		if !ok || !o.crosses(best.price) {
			break
		}
		b.drainLevel(o, best, &trades)
		if best.Empty() {
			opposite.Delete(best)
		}
	}
	return trades
}

// drainLevel fills the incoming order against the level's queue in
// arrival order. Trades execute at the level's price, so an aggressive
// limit order receives price improvement.
func (b *OrderBook) drainLevel(incoming *Order, lvl *PriceLevel, trades *[]Trade) {
	for !lvl.Empty() && incoming.Remaining() > 0 {
		resting := lvl.Head()
		qty := min(incoming.Remaining(), resting.Remaining())

		buyID, sellID := incoming.id, resting.id
		if incoming.side == Sell {
			buyID, sellID = resting.id, incoming.id
		}

		oldRemaining := resting.Remaining()
		incoming.fill(qty)
		resting.fill(qty)
		lvl.adjustAggregate(oldRemaining, resting.Remaining())

		*trades = append(*trades, Trade{
			TradeID:     b.tradeSeq.Next(),
			BuyOrderID:  buyID,
			SellOrderID: sellID,
			Price:       lvl.price,
			Quantity:    qty,
			Timestamp:   time.Now(),
		})

		if resting.status == StatusFilled {
			lvl.popFront()
			delete(b.orders, resting.id)
		}
	}
}

func (b *OrderBook) rest(o *Order) {
	tree := b.sideTree(o.side)
	lvl, ok := tree.Get(&PriceLevel{price: o.limit})
	if !ok {
		lvl = newPriceLevel(o.limit)
		tree.Set(lvl)
	}
	lvl.append(o)
	b.orders[o.id] = o
}

func (b *OrderBook) sideTree(side Side) *btree.BTreeG[*PriceLevel] {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func (b *OrderBook) recordTrades(trades []Trade) {
	b.totalTrades += uint64(len(trades))
	for i := range trades {
		b.totalVolume += trades[i].Quantity
	}
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return bestPrice(b.bids)
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return bestPrice(b.asks)
}

// Spread returns best ask minus best bid; ok is false unless both
// sides are non-empty.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.spreadLocked()
}

// TopOfBook returns both best prices under a single read lock, so the
// pair is one consistent snapshot rather than two interleavable reads.
func (b *OrderBook) TopOfBook() (bid, ask decimal.Decimal, hasBid, hasAsk bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, hasBid = bestPrice(b.bids)
	ask, hasAsk = bestPrice(b.asks)
	return bid, ask, hasBid, hasAsk
}

// DepthAtLevel returns the aggregate remaining quantity at the n-th
// best level (0-indexed) on a side, or 0 past the end of the book.
func (b *OrderBook) DepthAtLevel(side Side, level int) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if level < 0 {
		return 0
	}
	tree := b.sideTree(side)
	lvl, ok := tree.GetAt(level)
	if !ok {
		return 0
	}
	return lvl.totalQty
}

// TotalOrders returns the number of orders currently resting in the
// book.
func (b *OrderBook) TotalOrders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

// TotalTrades returns the cumulative trade count.
func (b *OrderBook) TotalTrades() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totalTrades
}

// TotalVolume returns the cumulative traded quantity.
func (b *OrderBook) TotalVolume() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totalVolume
}

// Clear atomically empties both sides and resets the cumulative
// statistics. The id and trade sequences keep running, so numbering
// stays monotonic across clears.
func (b *OrderBook) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = newSideTree(bidLess)
	b.asks = newSideTree(askLess)
	b.orders = make(map[uint64]*Order)
	b.totalTrades = 0
	b.totalVolume = 0
}

func (b *OrderBook) spreadLocked() (decimal.Decimal, bool) {
	bid, okBid := bestPrice(b.bids)
	ask, okAsk := bestPrice(b.asks)
	if !okBid || !okAsk {
		return decimal.Decimal{}, false
	}
	return ask.Sub(bid), true
}

func bestPrice(tree *btree.BTreeG[*PriceLevel]) (decimal.Decimal, bool) {
	lvl, ok := tree.Min()
	if !ok {
		return decimal.Decimal{}, false
	}
	return lvl.price, true
}
