package engine

import (
	"errors"
	"testing"
	"time"
)

func newTestOrder(id string, side Side, price, qty int64) *Order {
	return &Order{
		ID:         id,
		Instrument: "AAPL",
		Side:       side,
		Price:      price,
		Quantity:   qty,
		Remaining:  qty,
		CreatedAt:  time.Now(),
	}
}

func TestInsertStoresInLookup(t *testing.T) {
	ob := NewOrderBook("AAPL")
	o := newTestOrder("o1", SideBuy, 100, 10)
	if err := ob.Insert(o); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if !ob.Has("o1") {
		t.Fatalf("order not found in ordersByID")
	}
	best := ob.BestBid()
	if best == nil || best.ID != "o1" || best.Price != 100 {
		t.Fatalf("unexpected best bid: %+v", best)
	}
}

func TestInsertRejectsExhaustedOrder(t *testing.T) {
	ob := NewOrderBook("AAPL")
	o := newTestOrder("o1", SideBuy, 100, 10)
	o.Remaining = 0

	if err := ob.Insert(o); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if ob.Has("o1") || len(ob.bidPrices) != 0 {
		t.Fatalf("rejected insert mutated the book")
	}
}

func TestInsertRejectsLiveDuplicateID(t *testing.T) {
	ob := NewOrderBook("AAPL")
	if err := ob.Insert(newTestOrder("o1", SideBuy, 100, 10)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	err := ob.Insert(newTestOrder("o1", SideSell, 120, 5))
	if !errors.Is(err, ErrDuplicateOrderID) {
		t.Fatalf("expected ErrDuplicateOrderID, got %v", err)
	}
}

func TestBestOrderedByPrice(t *testing.T) {
	ob := NewOrderBook("AAPL")
	for _, o := range []*Order{
		newTestOrder("b1", SideBuy, 100, 1),
		newTestOrder("b2", SideBuy, 105, 1),
		newTestOrder("b3", SideBuy, 101, 1),
		newTestOrder("a1", SideSell, 120, 1),
		newTestOrder("a2", SideSell, 110, 1),
		newTestOrder("a3", SideSell, 115, 1),
	} {
		if err := ob.Insert(o); err != nil {
			t.Fatalf("insert %s failed: %v", o.ID, err)
		}
	}

	if best := ob.BestBid(); best.ID != "b2" {
		t.Fatalf("expected best bid b2, got %s", best.ID)
	}
	if best := ob.BestAsk(); best.ID != "a2" {
		t.Fatalf("expected best ask a2, got %s", best.ID)
	}
	if len(ob.bidPrices) != 3 || len(ob.askPrices) != 3 {
		t.Fatalf("expected 3 levels per side, got %d/%d", len(ob.bidPrices), len(ob.askPrices))
	}
}

func TestRemoveBestPopsFIFO(t *testing.T) {
	ob := NewOrderBook("AAPL")
	_ = ob.Insert(newTestOrder("o1", SideSell, 105, 5))
	_ = ob.Insert(newTestOrder("o2", SideSell, 105, 5))

	got := ob.RemoveBest(SideSell)
	if got == nil || got.ID != "o1" {
		t.Fatalf("expected o1 first, got %+v", got)
	}
	if ob.Has("o1") {
		t.Fatalf("expected o1 removed from lookup")
	}

	// level survives while o2 rests
	if lvl := ob.asks[105]; lvl == nil || lvl.orders.Len() != 1 {
		t.Fatalf("expected one order left at level 105")
	}

	got = ob.RemoveBest(SideSell)
	if got == nil || got.ID != "o2" {
		t.Fatalf("expected o2 second, got %+v", got)
	}
	if len(ob.askPrices) != 0 {
		t.Fatalf("expected askPrices to be empty, got %v", ob.askPrices)
	}
	if ob.RemoveBest(SideSell) != nil {
		t.Fatalf("expected nil from empty side")
	}
}

func TestReduceBestKeepsRank(t *testing.T) {
	ob := NewOrderBook("AAPL")
	_ = ob.Insert(newTestOrder("o1", SideBuy, 100, 10))
	_ = ob.Insert(newTestOrder("o2", SideBuy, 100, 10))

	if err := ob.ReduceBest(SideBuy, 4); err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	best := ob.BestBid()
	if best.ID != "o1" || best.Remaining != 6 {
		t.Fatalf("expected o1 with 6 remaining at top, got %s/%d", best.ID, best.Remaining)
	}

	// full reduction pops the order, o2 takes the top
	if err := ob.ReduceBest(SideBuy, 6); err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if ob.Has("o1") {
		t.Fatalf("expected o1 removed")
	}
	if best := ob.BestBid(); best.ID != "o2" {
		t.Fatalf("expected o2 at top, got %s", best.ID)
	}
}

func TestReduceBestRejectsOverfill(t *testing.T) {
	ob := NewOrderBook("AAPL")
	_ = ob.Insert(newTestOrder("o1", SideSell, 100, 5))

	if err := ob.ReduceBest(SideSell, 6); err == nil {
		t.Fatalf("expected error reducing past remaining")
	}
	if err := ob.ReduceBest(SideBuy, 1); err == nil {
		t.Fatalf("expected error reducing empty side")
	}
	if best := ob.BestAsk(); best.Remaining != 5 {
		t.Fatalf("failed reduce mutated the order: %d", best.Remaining)
	}
}

func TestCrossedDetection(t *testing.T) {
	ob := NewOrderBook("AAPL")
	if ob.Crossed() {
		t.Fatalf("empty book reported crossed")
	}
	_ = ob.Insert(newTestOrder("b1", SideBuy, 105, 1))
	if ob.Crossed() {
		t.Fatalf("one-sided book reported crossed")
	}
	// raw inserts bypass matching, so a crossed state is constructible
	_ = ob.Insert(newTestOrder("a1", SideSell, 100, 1))
	if !ob.Crossed() {
		t.Fatalf("expected crossed book")
	}
}
