package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceLevel is the FIFO queue of resting orders at a single price on
// one side. totalQty always equals the sum of the members' remaining
// quantities; it is adjusted incrementally so depth queries are O(1).
type PriceLevel struct {
	price decimal.Decimal

	head *Order
	tail *Order

	count    int
	totalQty uint64
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{price: price}
}

func (p *PriceLevel) Price() decimal.Decimal { return p.price }
func (p *PriceLevel) Count() int             { return p.count }
func (p *PriceLevel) TotalQty() uint64       { return p.totalQty }
func (p *PriceLevel) Empty() bool            { return p.head == nil }

// Head returns the earliest-arrived order without removing it, or nil
// when the level is empty.
func (p *PriceLevel) Head() *Order { return p.head }

// append links an order at the tail. Arrival order is exactly time
// priority at this price.
func (p *PriceLevel) append(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	p.totalQty += o.Remaining()
	p.count++
}

// remove unlinks an order from anywhere in the queue in O(1).
func (p *PriceLevel) remove(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	p.subtract(o.Remaining())
	p.count--
}

// popFront removes and returns the earliest-arrived order, or nil when
// the level is empty.
func (p *PriceLevel) popFront() *Order {
	o := p.head
	if o == nil {
		return nil
	}
	p.head = o.next
	if p.head != nil {
		p.head.prev = nil
	} else {
		p.tail = nil
	}
	o.next = nil
	o.prev = nil
	p.subtract(o.Remaining())
	p.count--
	return o
}

// adjustAggregate accounts for an in-place change to a member's
// remaining quantity (a fill) without rescanning the queue.
func (p *PriceLevel) adjustAggregate(oldRemaining, newRemaining uint64) {
	if oldRemaining >= newRemaining {
		p.subtract(oldRemaining - newRemaining)
	} else {
		p.totalQty += newRemaining - oldRemaining
	}
}

func (p *PriceLevel) subtract(qty uint64) {
	if qty > p.totalQty {
		panic(fmt.Sprintf("orderbook: level %s aggregate %d diverged from members (subtract %d)",
			p.price, p.totalQty, qty))
	}
	p.totalQty -= qty
}
