package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"matchbook/domain/orderbook"
)

// OrderService is the entry point hosting processes use to drive one
// book. It carries no matching logic; every command delegates to the
// book's critical section and logs the outcome. The engine itself
// never logs, so all observability lives here.
type OrderService struct {
	session uuid.UUID
	book    *orderbook.OrderBook
	log     *zap.SugaredLogger
}

// NewOrderService wires a service around an existing book.
func NewOrderService(book *orderbook.OrderBook, log *zap.SugaredLogger) *OrderService {
	session := uuid.New()
	return &OrderService{
		session: session,
		book:    book,
		log:     log.With("session", session.String()),
	}
}

// Session identifies this service instance in log output.
func (s *OrderService) Session() uuid.UUID { return s.session }

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// PlaceLimit submits a limit order. It returns the assigned order id,
// or 0 when the order was rejected.
func (s *OrderService) PlaceLimit(side orderbook.Side, price decimal.Decimal, qty uint64) uint64 {
	id := s.book.SubmitOrder(price, qty, side, orderbook.Limit)
	if id == 0 {
		s.log.Warnw("order rejected",
			"side", side, "price", price, "qty", qty)
		return 0
	}
	s.log.Infow("order accepted",
		"order_id", id, "side", side, "price", price, "qty", qty)
	return id
}

// PlaceMarket submits a market order and returns its trades in
// execution order. An unfilled remainder is dropped by the book.
func (s *OrderService) PlaceMarket(side orderbook.Side, qty uint64) []orderbook.Trade {
	trades := s.book.SubmitMarketOrder(qty, side)
	var filled uint64
	for i := range trades {
		filled += trades[i].Quantity
	}
	s.log.Infow("market order executed",
		"side", side, "qty", qty, "filled", filled, "trades", len(trades))
	return trades
}

// Cancel removes a resting order. Unknown ids return false and change
// nothing.
func (s *OrderService) Cancel(id uint64) bool {
	ok := s.book.CancelOrder(id)
	s.log.Infow("cancel", "order_id", id, "removed", ok)
	return ok
}

// ClearBook empties the book. Order and trade numbering keeps running.
func (s *OrderService) ClearBook() {
	s.book.Clear()
	s.log.Infow("book cleared")
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// Quote is a point-in-time top-of-book view taken under one read lock.
type Quote struct {
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	HasBid bool
	HasAsk bool
}

// Spread returns ask minus bid; ok is false unless both sides exist.
func (q Quote) Spread() (decimal.Decimal, bool) {
	if !q.HasBid || !q.HasAsk {
		return decimal.Decimal{}, false
	}
	return q.Ask.Sub(q.Bid), true
}

// TopOfBook returns the current best prices as one consistent snapshot.
func (s *OrderService) TopOfBook() Quote {
	bid, ask, hasBid, hasAsk := s.book.TopOfBook()
	return Quote{Bid: bid, Ask: ask, HasBid: hasBid, HasAsk: hasAsk}
}

// Depth returns the aggregate quantity at the n-th best level on a
// side, 0 past the end of the book.
func (s *OrderService) Depth(side orderbook.Side, level int) uint64 {
	return s.book.DepthAtLevel(side, level)
}

// Stats returns resting order count and cumulative trade statistics.
func (s *OrderService) Stats() (orders int, trades, volume uint64) {
	return s.book.TotalOrders(), s.book.TotalTrades(), s.book.TotalVolume()
}

// Render returns the book's diagnostic dump of the top levels.
func (s *OrderService) Render(levels int) string {
	return s.book.Render(levels)
}
