package engine

import (
	"container/list"
	"fmt"
	"sort"
)

// priceLevel holds FIFO orders for one price. Arrival order within a level
// plus the price ordering of the levels gives the composite
// (price, sequence) priority key.
type priceLevel struct {
	price  int64
	orders *list.List // of *Order, oldest first
}

// OrderBook holds the resting orders of one instrument.
type OrderBook struct {
	instrument string

	// key = price, value = *priceLevel
	bids map[int64]*priceLevel
	asks map[int64]*priceLevel

	// level prices kept sorted so the top of book is index 0
	bidPrices []int64 // sorted desc
	askPrices []int64 // sorted asc

	// live resting orders; an id stays here only while its order rests
	ordersByID map[string]*Order
}

func NewOrderBook(instrument string) *OrderBook {
	return &OrderBook{
		instrument: instrument,
		bids:       make(map[int64]*priceLevel),
		asks:       make(map[int64]*priceLevel),
		bidPrices:  make([]int64, 0),
		askPrices:  make([]int64, 0),
		ordersByID: make(map[string]*Order),
	}
}

func (b *OrderBook) Instrument() string { return b.instrument }

// Has reports whether id belongs to a currently resting order.
func (b *OrderBook) Has(id string) bool {
	_, ok := b.ordersByID[id]
	return ok
}

func (b *OrderBook) bestLevel(side Side) *priceLevel {
	if side == SideBuy {
		if len(b.bidPrices) == 0 {
			return nil
		}
		return b.bids[b.bidPrices[0]]
	}
	if len(b.askPrices) == 0 {
		return nil
	}
	return b.asks[b.askPrices[0]]
}

// BestBid returns the highest-priority resting buy order, or nil.
func (b *OrderBook) BestBid() *Order {
	lvl := b.bestLevel(SideBuy)
	if lvl == nil {
		return nil
	}
	return lvl.orders.Front().Value.(*Order)
}

// BestAsk returns the highest-priority resting sell order, or nil.
func (b *OrderBook) BestAsk() *Order {
	lvl := b.bestLevel(SideSell)
	if lvl == nil {
		return nil
	}
	return lvl.orders.Front().Value.(*Order)
}

func (b *OrderBook) best(side Side) *Order {
	if side == SideBuy {
		return b.BestBid()
	}
	return b.BestAsk()
}

// Insert rests an order on its own side. Inserting an exhausted order or a
// live id is a precondition violation, never a normal outcome.
func (b *OrderBook) Insert(o *Order) error {
	if o.Remaining <= 0 {
		return fmt.Errorf("insert order %s with remaining %d: %w", o.ID, o.Remaining, ErrInvalidQuantity)
	}
	if b.Has(o.ID) {
		return fmt.Errorf("insert order %s: %w", o.ID, ErrDuplicateOrderID)
	}

	levels, prices := b.bids, &b.bidPrices
	if o.Side == SideSell {
		levels, prices = b.asks, &b.askPrices
	}

	lvl, ok := levels[o.Price]
	if !ok {
		lvl = &priceLevel{price: o.Price, orders: list.New()}
		levels[o.Price] = lvl
		b.insertPrice(prices, o.Price, o.Side)
	}
	lvl.orders.PushBack(o)
	b.ordersByID[o.ID] = o
	return nil
}

// insertPrice keeps the price slice sorted, best first.
func (b *OrderBook) insertPrice(prices *[]int64, price int64, side Side) {
	idx := sort.Search(len(*prices), func(i int) bool {
		if side == SideBuy {
			return (*prices)[i] < price // desc
		}
		return (*prices)[i] > price // asc
	})
	*prices = append(*prices, 0)
	copy((*prices)[idx+1:], (*prices)[idx:])
	(*prices)[idx] = price
}

// RemoveBest pops the top-priority order of a side, or returns nil if the
// side is empty.
func (b *OrderBook) RemoveBest(side Side) *Order {
	lvl := b.bestLevel(side)
	if lvl == nil {
		return nil
	}
	o := lvl.orders.Remove(lvl.orders.Front()).(*Order)
	delete(b.ordersByID, o.ID)
	if lvl.orders.Len() == 0 {
		b.removeLevel(side, lvl.price)
	}
	return o
}

// ReduceBest decrements the top order of a side by filled, removing it when
// exhausted. A quantity reduction does not change the order's (price,
// sequence) key, so its rank is otherwise untouched.
func (b *OrderBook) ReduceBest(side Side, filled int64) error {
	top := b.best(side)
	if top == nil {
		return fmt.Errorf("reduce best of empty %s side on %s", side, b.instrument)
	}
	if filled <= 0 || filled > top.Remaining {
		return fmt.Errorf("reduce order %s by %d with remaining %d", top.ID, filled, top.Remaining)
	}
	if filled == top.Remaining {
		b.RemoveBest(side)
		return nil
	}
	top.Remaining -= filled
	return nil
}

func (b *OrderBook) removeLevel(side Side, price int64) {
	levels, prices := b.bids, &b.bidPrices
	if side == SideSell {
		levels, prices = b.asks, &b.askPrices
	}
	delete(levels, price)
	for i, p := range *prices {
		if p == price {
			*prices = append((*prices)[:i], (*prices)[i+1:]...)
			return
		}
	}
}

// Crossed reports a corrupted book: both sides non-empty with the best bid
// at or above the best ask. A healthy book is never crossed at rest.
func (b *OrderBook) Crossed() bool {
	if len(b.bidPrices) == 0 || len(b.askPrices) == 0 {
		return false
	}
	return b.bidPrices[0] >= b.askPrices[0]
}
