// Command lobdemo drives the matching engine through its public
// operations: it seeds resting liquidity, crosses the book with limit
// and market orders, cancels an order, queries market data, and
// finishes with a small throughput run. It holds no matching logic of
// its own.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"matchbook/config"
	"matchbook/domain/orderbook"
	"matchbook/jobs/quoter"
	"matchbook/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	book := orderbook.NewOrderBook()
	svc := service.NewOrderService(book, sugar)

	q := quoter.New(svc, sugar)
	q.Start(cfg.QuoteInterval)
	defer q.Stop()

	price := decimal.RequireFromString

	fmt.Println("1. Adding initial limit orders...")
	svc.PlaceLimit(orderbook.Buy, price("100.00"), 500)
	buy2 := svc.PlaceLimit(orderbook.Buy, price("99.50"), 300)
	svc.PlaceLimit(orderbook.Buy, price("99.00"), 200)
	svc.PlaceLimit(orderbook.Sell, price("101.00"), 400)
	svc.PlaceLimit(orderbook.Sell, price("101.50"), 250)
	svc.PlaceLimit(orderbook.Sell, price("102.00"), 150)
	fmt.Println(svc.Render(cfg.RenderDepth))

	fmt.Println("2. Adding crossing limit order (Buy 250 @ 101.25)...")
	svc.PlaceLimit(orderbook.Buy, price("101.25"), 250)
	fmt.Println(svc.Render(cfg.RenderDepth))

	fmt.Println("3. Adding market order (Market Sell 150)...")
	trades := svc.PlaceMarket(orderbook.Sell, 150)
	for _, tr := range trades {
		fmt.Printf("  Trade %d: %d @ %s\n", tr.TradeID, tr.Quantity, tr.Price.StringFixed(2))
	}
	fmt.Println(svc.Render(cfg.RenderDepth))

	fmt.Println("4. Order cancellation...")
	if svc.Cancel(buy2) {
		fmt.Printf("  Cancelled order %d\n", buy2)
	}
	fmt.Println(svc.Render(cfg.RenderDepth))

	fmt.Println("5. Market data queries...")
	quote := svc.TopOfBook()
	if quote.HasBid {
		fmt.Printf("  Best Bid: %s\n", quote.Bid.StringFixed(2))
	}
	if quote.HasAsk {
		fmt.Printf("  Best Ask: %s\n", quote.Ask.StringFixed(2))
	}
	if spread, ok := quote.Spread(); ok {
		fmt.Printf("  Spread:   %s\n", spread.StringFixed(2))
	}
	for _, side := range []orderbook.Side{orderbook.Buy, orderbook.Sell} {
		for lvl := 0; lvl < 3; lvl++ {
			if depth := svc.Depth(side, lvl); depth > 0 {
				fmt.Printf("  %s depth level %d: %d\n", side, lvl, depth)
			}
		}
	}

	fmt.Println("6. Throughput run...")
	rnd := rand.New(rand.NewSource(cfg.Seed))
	start := time.Now()
	for i := 0; i < cfg.DemoOrders; i++ {
		variation := decimal.NewFromInt(int64(rnd.Intn(200))).Div(decimal.NewFromInt(100))
		base := price("100.00")
		if i%2 == 0 {
			svc.PlaceLimit(orderbook.Buy, base.Sub(variation), 100)
		} else {
			svc.PlaceLimit(orderbook.Sell, base.Add(variation), 100)
		}
	}
	elapsed := time.Since(start)

	orders, tradeCount, volume := svc.Stats()
	sugar.Infow("throughput run complete",
		"orders_submitted", cfg.DemoOrders,
		"elapsed", elapsed,
		"per_order", elapsed/time.Duration(cfg.DemoOrders),
		"resting_orders", orders,
		"total_trades", tradeCount,
		"total_volume", volume)
	fmt.Println(svc.Render(cfg.RenderDepth))
}
