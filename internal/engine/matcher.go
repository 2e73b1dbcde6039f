package engine

import "fmt"

// Trade records one match event. The resting order sets the price.
type Trade struct {
	Instrument  string
	Price       int64
	Quantity    int64
	BuyOrderID  string
	SellOrderID string
}

type MatchResult struct {
	Trades      []Trade
	OrderFilled bool   // true if incoming is fully filled
	Remainder   *Order // if not fully filled, the now-resting order
}

// Matcher runs incoming orders against one instrument's book. It owns the
// arrival counter for that instrument, so time priority is well-defined
// across every order ever submitted to it.
type Matcher struct {
	book *OrderBook
	seq  uint64
}

func NewMatcher(book *OrderBook) *Matcher {
	return &Matcher{book: book}
}

// Submit validates the incoming order, matches it to exhaustion against the
// opposite side, and rests any remainder. Trades are returned in execution
// order. A rejected order leaves the book untouched.
func (m *Matcher) Submit(o *Order) (*MatchResult, error) {
	if o.Quantity <= 0 || o.Remaining <= 0 {
		return nil, fmt.Errorf("order %s: %w", o.ID, ErrInvalidQuantity)
	}
	if o.Price < 0 {
		return nil, fmt.Errorf("order %s: %w", o.ID, ErrInvalidPrice)
	}
	if m.book.Has(o.ID) {
		return nil, fmt.Errorf("order %s on %s: %w", o.ID, m.book.instrument, ErrDuplicateOrderID)
	}

	m.seq++
	o.Sequence = m.seq

	res := &MatchResult{Trades: make([]Trade, 0)}
	if err := m.cross(o, res); err != nil {
		return res, err
	}

	if o.Remaining == 0 {
		res.OrderFilled = true
	} else {
		if err := m.book.Insert(o); err != nil {
			return res, err
		}
		res.Remainder = o
	}

	if m.book.Crossed() {
		return res, fmt.Errorf("book %s: %w", m.book.instrument, ErrBookCrossed)
	}
	return res, nil
}

// cross walks the opposite top of book. The opposing side is price-ordered,
// so the first maker that cannot cross ends the loop: nothing behind it can
// cross either.
func (m *Matcher) cross(o *Order, res *MatchResult) error {
	makerSide := o.Side.Opposite()

	for o.Remaining > 0 {
		maker := m.book.best(makerSide)
		if maker == nil {
			break
		}
		if o.Side == SideBuy && maker.Price > o.Price {
			break
		}
		if o.Side == SideSell && maker.Price < o.Price {
			break
		}

		qty := min(o.Remaining, maker.Remaining)

		// maker price: the order already in the book sets the price
		t := Trade{
			Instrument: o.Instrument,
			Price:      maker.Price,
			Quantity:   qty,
		}
		if o.Side == SideBuy {
			t.BuyOrderID, t.SellOrderID = o.ID, maker.ID
		} else {
			t.BuyOrderID, t.SellOrderID = maker.ID, o.ID
		}
		res.Trades = append(res.Trades, t)

		o.Remaining -= qty
		if err := m.book.ReduceBest(makerSide, qty); err != nil {
			return fmt.Errorf("book %s: %v: %w", m.book.instrument, err, ErrBookCrossed)
		}
	}
	return nil
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
