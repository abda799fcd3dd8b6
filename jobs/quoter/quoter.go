// Package quoter implements a background job that periodically samples
// the top of the book and emits a quote log line. It exercises the
// book's shared read path while writers keep running.
package quoter

import (
	"time"

	"go.uber.org/zap"

	"matchbook/service"
)

type Quoter struct {
	svc  *service.OrderService
	log  *zap.SugaredLogger
	stop chan struct{}
	done chan struct{}
}

func New(svc *service.OrderService, log *zap.SugaredLogger) *Quoter {
	return &Quoter{
		svc:  svc,
		log:  log,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins periodic sampling. Call Stop to halt the job.
func (q *Quoter) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		defer close(q.done)
		for {
			select {
			case <-ticker.C:
				q.SampleOnce()
			case <-q.stop:
				return
			}
		}
	}()
}

// Stop halts the job and waits for the sampling goroutine to exit.
func (q *Quoter) Stop() {
	close(q.stop)
	<-q.done
}

// SampleOnce logs the current top of book.
func (q *Quoter) SampleOnce() {
	quote := q.svc.TopOfBook()
	switch {
	case quote.HasBid && quote.HasAsk:
		spread, _ := quote.Spread()
		q.log.Infow("quote",
			"bid", quote.Bid, "ask", quote.Ask, "spread", spread)
	case quote.HasBid:
		q.log.Infow("quote", "bid", quote.Bid)
	case quote.HasAsk:
		q.log.Infow("quote", "ask", quote.Ask)
	default:
		q.log.Infow("quote", "book", "empty")
	}
}
