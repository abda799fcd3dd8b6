package orderbook

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// checkAggregates verifies that every level's aggregate equals the sum
// of its members' remaining quantities and that no empty level is left
// in either tree.
func checkAggregates(t *testing.T, b *OrderBook) {
	t.Helper()
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, tree := range []interface{ Scan(func(*PriceLevel) bool) }{b.bids, b.asks} {
		tree.Scan(func(lvl *PriceLevel) bool {
			require.False(t, lvl.Empty(), "empty level %s left in book", lvl.price)
			var sum uint64
			for o := lvl.Head(); o != nil; o = o.Next() {
				sum += o.Remaining()
			}
			require.Equal(t, sum, lvl.TotalQty(), "aggregate diverged at %s", lvl.price)
			return true
		})
	}
}

func TestRestingBidsOrderedByPrice(t *testing.T) {
	b := NewOrderBook()
	id1 := b.SubmitOrder(d("99.50"), 500, Buy, Limit)
	id2 := b.SubmitOrder(d("99.00"), 300, Buy, Limit)
	require.NotZero(t, id1)
	require.Greater(t, id2, id1)

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(d("99.50")))
	assert.Equal(t, uint64(500), b.DepthAtLevel(Buy, 0))
	assert.Equal(t, uint64(300), b.DepthAtLevel(Buy, 1))
	assert.Equal(t, uint64(0), b.DepthAtLevel(Buy, 2))
	checkAggregates(t, b)
}

func TestCrossingBuyExecutesAtRestingPrice(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("100.00"), 200, Sell, Limit)

	id := b.SubmitOrder(d("101.00"), 100, Buy, Limit)
	require.NotZero(t, id)

	assert.Equal(t, uint64(1), b.TotalTrades())
	assert.Equal(t, uint64(100), b.TotalVolume())
	assert.Equal(t, uint64(100), b.DepthAtLevel(Sell, 0))

	// The aggressor filled completely and never rested.
	_, hasBid := b.BestBid()
	assert.False(t, hasBid)
	assert.Equal(t, 1, b.TotalOrders())
	assert.False(t, b.CancelOrder(id), "filled aggressor must not be cancellable")
	checkAggregates(t, b)
}

func TestSellCrossesMultipleLevels(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("100.00"), 100, Buy, Limit)
	b.SubmitOrder(d("99.50"), 200, Buy, Limit)
	b.SubmitOrder(d("99.00"), 300, Buy, Limit)

	b.SubmitOrder(d("99.00"), 250, Sell, Limit)

	assert.Equal(t, uint64(2), b.TotalTrades())
	assert.Equal(t, uint64(250), b.TotalVolume())

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(d("99.50")))
	assert.Equal(t, uint64(50), b.DepthAtLevel(Buy, 0))
	assert.Equal(t, uint64(300), b.DepthAtLevel(Buy, 1))
	assert.Equal(t, 2, b.TotalOrders())
	checkAggregates(t, b)
}

func TestPricePriorityBeatsArrivalOrder(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("101.00"), 10, Sell, Limit)
	b.SubmitOrder(d("100.00"), 10, Sell, Limit) // later arrival, better price

	trades := b.SubmitMarketOrder(10, Buy)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("100.00")))
	checkAggregates(t, b)
}

func TestTimePriorityWithinLevel(t *testing.T) {
	b := NewOrderBook()
	first := b.SubmitOrder(d("100.00"), 10, Sell, Limit)
	second := b.SubmitOrder(d("100.00"), 10, Sell, Limit)

	trades := b.SubmitMarketOrder(10, Buy)
	require.Len(t, trades, 1)
	assert.Equal(t, first, trades[0].SellOrderID)

	trades = b.SubmitMarketOrder(10, Buy)
	require.Len(t, trades, 1)
	assert.Equal(t, second, trades[0].SellOrderID)
}

func TestTradeSidesAssignedByActualSide(t *testing.T) {
	b := NewOrderBook()
	restingBuy := b.SubmitOrder(d("100.00"), 50, Buy, Limit)

	trades := b.SubmitMarketOrder(50, Sell)
	require.Len(t, trades, 1)
	assert.Equal(t, restingBuy, trades[0].BuyOrderID)
	assert.Greater(t, trades[0].SellOrderID, restingBuy)
	assert.True(t, trades[0].Price.Equal(d("100.00")))
	assert.False(t, trades[0].Timestamp.IsZero())
}

func TestPartialFillRestsRemainder(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("100.00"), 100, Sell, Limit)

	id := b.SubmitOrder(d("100.00"), 300, Buy, Limit)
	require.NotZero(t, id)

	// 100 traded, 200 rests as the new best bid.
	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(d("100.00")))
	assert.Equal(t, uint64(200), b.DepthAtLevel(Buy, 0))

	_, hasAsk := b.BestAsk()
	assert.False(t, hasAsk)
	checkAggregates(t, b)
}

func TestMarketOrderSweepsAndDropsRemainder(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("100.00"), 100, Sell, Limit)
	b.SubmitOrder(d("101.00"), 50, Sell, Limit)

	trades := b.SubmitMarketOrder(500, Buy)
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(100), trades[0].Quantity)
	assert.True(t, trades[0].Price.Equal(d("100.00")))
	assert.Equal(t, uint64(50), trades[1].Quantity)
	assert.True(t, trades[1].Price.Equal(d("101.00")))

	_, hasAsk := b.BestAsk()
	assert.False(t, hasAsk, "ask side must be exhausted")
	assert.Equal(t, uint64(150), b.TotalVolume())
	assert.Equal(t, 0, b.TotalOrders())
}

func TestMarketOrderOnEmptyBook(t *testing.T) {
	b := NewOrderBook()
	trades := b.SubmitMarketOrder(100, Buy)
	assert.Empty(t, trades)
	assert.Equal(t, uint64(0), b.TotalTrades())
}

func TestRejectionLeavesBookUntouched(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("100.00"), 100, Buy, Limit)
	ordersBefore, tradesBefore, volumeBefore := b.TotalOrders(), b.TotalTrades(), b.TotalVolume()

	assert.Zero(t, b.SubmitOrder(decimal.Zero, 100, Buy, Limit))
	assert.Zero(t, b.SubmitOrder(d("-1"), 100, Buy, Limit))
	assert.Zero(t, b.SubmitOrder(d("100.00"), 0, Buy, Limit))
	assert.Empty(t, b.SubmitMarketOrder(0, Sell))

	assert.Equal(t, ordersBefore, b.TotalOrders())
	assert.Equal(t, tradesBefore, b.TotalTrades())
	assert.Equal(t, volumeBefore, b.TotalVolume())
}

func TestCancelRemovesOrderAndPrunesLevel(t *testing.T) {
	b := NewOrderBook()
	id := b.SubmitOrder(d("100.00"), 100, Buy, Limit)
	require.NotZero(t, id)

	assert.True(t, b.CancelOrder(id))

	_, hasBid := b.BestBid()
	assert.False(t, hasBid)
	assert.Equal(t, 0, b.TotalOrders())
	assert.Equal(t, uint64(0), b.DepthAtLevel(Buy, 0))

	// Second cancel and unknown ids are NotFound, not errors.
	assert.False(t, b.CancelOrder(id))
	assert.False(t, b.CancelOrder(424242))
}

func TestCancelMidLevelKeepsFIFO(t *testing.T) {
	b := NewOrderBook()
	first := b.SubmitOrder(d("100.00"), 10, Sell, Limit)
	second := b.SubmitOrder(d("100.00"), 20, Sell, Limit)
	third := b.SubmitOrder(d("100.00"), 30, Sell, Limit)

	require.True(t, b.CancelOrder(second))
	assert.Equal(t, uint64(40), b.DepthAtLevel(Sell, 0))

	trades := b.SubmitMarketOrder(40, Buy)
	require.Len(t, trades, 2)
	assert.Equal(t, first, trades[0].SellOrderID)
	assert.Equal(t, third, trades[1].SellOrderID)
}

func TestNoCrossedBook(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("100.00"), 100, Buy, Limit)
	b.SubmitOrder(d("101.00"), 100, Sell, Limit)
	b.SubmitOrder(d("101.00"), 50, Buy, Limit)  // takes half the ask
	b.SubmitOrder(d("100.00"), 150, Sell, Limit) // takes the bid, rests

	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	if hasBid && hasAsk {
		assert.True(t, bid.LessThan(ask), "book crossed: bid %s >= ask %s", bid, ask)
	}
	checkAggregates(t, b)
}

func TestSpread(t *testing.T) {
	b := NewOrderBook()
	_, ok := b.Spread()
	assert.False(t, ok)

	b.SubmitOrder(d("99.50"), 100, Buy, Limit)
	_, ok = b.Spread()
	assert.False(t, ok, "spread needs both sides")

	b.SubmitOrder(d("100.25"), 100, Sell, Limit)
	spread, ok := b.Spread()
	require.True(t, ok)
	assert.True(t, spread.Equal(d("0.75")))

	bid, ask, hasBid, hasAsk := b.TopOfBook()
	require.True(t, hasBid)
	require.True(t, hasAsk)
	assert.True(t, bid.Equal(d("99.50")))
	assert.True(t, ask.Equal(d("100.25")))
}

func TestIdenticalPricePointsShareOneLevel(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("100.10"), 100, Buy, Limit)
	b.SubmitOrder(d("100.1"), 50, Buy, Limit) // same price, different rendering

	assert.Equal(t, uint64(150), b.DepthAtLevel(Buy, 0))
	assert.Equal(t, uint64(0), b.DepthAtLevel(Buy, 1))
}

func TestClearKeepsNumberingMonotonic(t *testing.T) {
	b := NewOrderBook()
	id1 := b.SubmitOrder(d("100.00"), 100, Buy, Limit)
	b.SubmitOrder(d("100.00"), 100, Sell, Limit) // trades against id1
	require.Equal(t, uint64(1), b.TotalTrades())

	b.Clear()

	assert.Equal(t, 0, b.TotalOrders())
	assert.Equal(t, uint64(0), b.TotalTrades())
	assert.Equal(t, uint64(0), b.TotalVolume())
	_, hasBid := b.BestBid()
	assert.False(t, hasBid)

	id3 := b.SubmitOrder(d("100.00"), 100, Buy, Limit)
	assert.Greater(t, id3, id1+1, "order ids must not restart after Clear")

	b.SubmitOrder(d("100.00"), 100, Sell, Limit)
	trades := b.SubmitMarketOrder(1, Buy)
	assert.Empty(t, trades) // both sides traded out above
	assert.Equal(t, uint64(1), b.TotalTrades())
}

func TestTradeIDsIncreaseAcrossSubmissions(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("100.00"), 10, Sell, Limit)
	b.SubmitOrder(d("100.00"), 10, Sell, Limit)

	first := b.SubmitMarketOrder(10, Buy)
	second := b.SubmitMarketOrder(10, Buy)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Greater(t, second[0].TradeID, first[0].TradeID)
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	b := NewOrderBook()
	const perSide = 500

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			b.SubmitOrder(d("99.00"), 10, Buy, Limit)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			b.SubmitOrder(d("101.00"), 10, Sell, Limit)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			b.BestBid()
			b.BestAsk()
			b.Spread()
			b.DepthAtLevel(Buy, 0)
			b.TotalOrders()
		}
	}()

	wg.Wait()

	// Prices never cross, so every order rests.
	assert.Equal(t, 2*perSide, b.TotalOrders())
	assert.Equal(t, uint64(perSide*10), b.DepthAtLevel(Buy, 0))
	assert.Equal(t, uint64(perSide*10), b.DepthAtLevel(Sell, 0))
	assert.Equal(t, uint64(0), b.TotalTrades())
	checkAggregates(t, b)
}

func TestRenderShowsLevelsAndStats(t *testing.T) {
	b := NewOrderBook()
	b.SubmitOrder(d("99.50"), 500, Buy, Limit)
	b.SubmitOrder(d("100.50"), 200, Sell, Limit)

	out := b.Render(5)
	assert.Contains(t, out, "BIDS")
	assert.Contains(t, out, "500@99.50")
	assert.Contains(t, out, "200@100.50")
	assert.Contains(t, out, "Total Orders: 2")
	assert.Contains(t, out, "Spread: 1.00")
}
