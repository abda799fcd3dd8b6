package orderbook

import (
	"fmt"
	"strings"
)

// Render returns a human-readable dump of the top levels on both sides
// plus summary statistics. The format is diagnostic only and carries
// no compatibility guarantee.
func (b *OrderBook) Render(levels int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("=== ORDER BOOK ===\n")
	fmt.Fprintf(&sb, "%-20s%s\n", "BIDS", "ASKS")

	for i := 0; i < levels; i++ {
		bid, okBid := b.bids.GetAt(i)
		ask, okAsk := b.asks.GetAt(i)
		if !okBid && !okAsk {
			break
		}

		var left, right string
		if okBid {
			left = fmt.Sprintf("%d@%s", bid.totalQty, bid.price.StringFixed(2))
		}
		if okAsk {
			right = fmt.Sprintf("%d@%s", ask.totalQty, ask.price.StringFixed(2))
		}
		fmt.Fprintf(&sb, "%-20s%s\n", left, right)
	}

	sb.WriteString("\nStatistics:\n")
	fmt.Fprintf(&sb, "Total Orders: %d\n", len(b.orders))
	fmt.Fprintf(&sb, "Total Trades: %d\n", b.totalTrades)
	fmt.Fprintf(&sb, "Total Volume: %d\n", b.totalVolume)
	if spread, ok := b.spreadLocked(); ok {
		fmt.Fprintf(&sb, "Spread: %s\n", spread.StringFixed(2))
	}
	return sb.String()
}
