package transport

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pkaraca/stockmatch/internal/engine"
)

func testScaler(t *testing.T) *Scaler {
	t.Helper()
	return NewScaler(map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("0.01"),
		"TSLA": decimal.RequireFromString("0.05"),
	})
}

func TestToOrderConvertsDecimalToTicks(t *testing.T) {
	s := testScaler(t)

	o, err := OrderMessage{
		ID:         "o1",
		Instrument: "AAPL",
		Side:       "buy",
		Price:      "10.50",
		Quantity:   100,
	}.ToOrder(s)
	require.NoError(t, err)

	require.Equal(t, "o1", o.ID)
	require.Equal(t, engine.SideBuy, o.Side)
	require.Equal(t, int64(1050), o.Price)
	require.Equal(t, int64(100), o.Quantity)
	require.Equal(t, int64(100), o.Remaining)
	require.False(t, o.CreatedAt.IsZero())
}

func TestToOrderRejections(t *testing.T) {
	s := testScaler(t)

	cases := []struct {
		name string
		msg  OrderMessage
	}{
		{"empty id", OrderMessage{Instrument: "AAPL", Side: "buy", Price: "1", Quantity: 1}},
		{"bad side", OrderMessage{ID: "x", Instrument: "AAPL", Side: "hold", Price: "1", Quantity: 1}},
		{"bad price", OrderMessage{ID: "x", Instrument: "AAPL", Side: "buy", Price: "ten", Quantity: 1}},
		{"off tick", OrderMessage{ID: "x", Instrument: "TSLA", Side: "buy", Price: "10.02", Quantity: 1}},
		{"unknown instrument", OrderMessage{ID: "x", Instrument: "MSFT", Side: "buy", Price: "1", Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.msg.ToOrder(s)
			require.Error(t, err)
		})
	}
}

func TestToTicksNegativePrice(t *testing.T) {
	s := testScaler(t)
	_, err := s.ToTicks("AAPL", decimal.RequireFromString("-0.01"))
	require.ErrorIs(t, err, engine.ErrInvalidPrice)
}

func TestNewTradeMessageRoundsTrip(t *testing.T) {
	s := testScaler(t)

	m, err := NewTradeMessage(engine.Trade{
		Instrument:  "AAPL",
		Price:       1050,
		Quantity:    60,
		BuyOrderID:  "b1",
		SellOrderID: "s1",
	}, s)
	require.NoError(t, err)

	price, err := decimal.NewFromString(m.Price)
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("10.5")), "got %s", m.Price)
	require.Equal(t, int64(60), m.Quantity)
	require.Equal(t, "b1", m.BuyOrderID)
	require.Equal(t, "s1", m.SellOrderID)
	require.False(t, m.ExecutedAt.IsZero())
}

func TestNewTradeMessageUnknownInstrument(t *testing.T) {
	s := testScaler(t)
	_, err := NewTradeMessage(engine.Trade{Instrument: "MSFT", Price: 1, Quantity: 1}, s)
	require.ErrorIs(t, err, engine.ErrUnknownInstrument)
}
