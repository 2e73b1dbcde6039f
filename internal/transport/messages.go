package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkaraca/stockmatch/internal/engine"
)

// OrderMessage is the JSON payload carried on the orders subject. Prices
// travel as decimal strings ("10.50") and are converted to integer ticks
// at intake.
type OrderMessage struct {
	ID         string `json:"id"`
	Instrument string `json:"instrument"`
	Side       string `json:"side"` // "buy" | "sell"
	Price      string `json:"price"`
	Quantity   int64  `json:"quantity"`
}

// TradeMessage is the JSON payload published on the trades subject.
type TradeMessage struct {
	Instrument  string    `json:"instrument"`
	Price       string    `json:"price"`
	Quantity    int64     `json:"quantity"`
	BuyOrderID  string    `json:"buy_order_id"`
	SellOrderID string    `json:"sell_order_id"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// Scaler converts between wire decimal prices and the engine's integer
// ticks, per instrument.
type Scaler struct {
	ticks map[string]decimal.Decimal
}

func NewScaler(ticks map[string]decimal.Decimal) *Scaler {
	return &Scaler{ticks: ticks}
}

func (s *Scaler) ToTicks(instrument string, price decimal.Decimal) (int64, error) {
	tick, ok := s.ticks[instrument]
	if !ok {
		return 0, fmt.Errorf("instrument %q: %w", instrument, engine.ErrUnknownInstrument)
	}
	if price.IsNegative() {
		return 0, fmt.Errorf("price %s: %w", price, engine.ErrInvalidPrice)
	}
	q := price.Div(tick)
	if !q.IsInteger() {
		return 0, fmt.Errorf("price %s is not a multiple of tick size %s", price, tick)
	}
	return q.IntPart(), nil
}

func (s *Scaler) FromTicks(instrument string, ticks int64) (decimal.Decimal, error) {
	tick, ok := s.ticks[instrument]
	if !ok {
		return decimal.Zero, fmt.Errorf("instrument %q: %w", instrument, engine.ErrUnknownInstrument)
	}
	return tick.Mul(decimal.NewFromInt(ticks)), nil
}

// ToOrder decodes the wire order into an engine order. The engine
// revalidates; this only rejects what cannot be represented at all.
func (m OrderMessage) ToOrder(s *Scaler) (*engine.Order, error) {
	if m.ID == "" {
		return nil, errors.New("order message without id")
	}
	side, err := engine.ParseSide(m.Side)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", m.ID, err)
	}
	price, err := decimal.NewFromString(m.Price)
	if err != nil {
		return nil, fmt.Errorf("order %s: bad price %q: %w", m.ID, m.Price, err)
	}
	ticks, err := s.ToTicks(m.Instrument, price)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", m.ID, err)
	}
	return &engine.Order{
		ID:         m.ID,
		Instrument: m.Instrument,
		Side:       side,
		Price:      ticks,
		Quantity:   m.Quantity,
		Remaining:  m.Quantity,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// NewTradeMessage encodes an executed trade for publication.
func NewTradeMessage(t engine.Trade, s *Scaler) (TradeMessage, error) {
	price, err := s.FromTicks(t.Instrument, t.Price)
	if err != nil {
		return TradeMessage{}, err
	}
	return TradeMessage{
		Instrument:  t.Instrument,
		Price:       price.String(),
		Quantity:    t.Quantity,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		ExecutedAt:  time.Now().UTC(),
	}, nil
}
