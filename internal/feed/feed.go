package feed

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkaraca/stockmatch/internal/engine"
	"github.com/pkaraca/stockmatch/internal/transport"
)

// TradeFeed turns executed trades into a live broadcast stream plus a
// last-price cache. It implements engine.TradeSink, so it can sit next to
// the broker publisher on the same engine.
type TradeFeed struct {
	scaler *transport.Scaler
	cache  *LastPriceCache
	hub    *Hub[transport.TradeMessage]
	log    *zap.Logger
}

func NewTradeFeed(scaler *transport.Scaler, log *zap.Logger) *TradeFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &TradeFeed{
		scaler: scaler,
		cache:  NewLastPriceCache(),
		hub:    NewHub[transport.TradeMessage](),
		log:    log,
	}
}

func (f *TradeFeed) PublishTrades(_ context.Context, trades []engine.Trade) error {
	var errs []error
	for _, t := range trades {
		m, err := transport.NewTradeMessage(t, f.scaler)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		price, err := f.scaler.FromTicks(t.Instrument, t.Price)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f.cache.Set(t.Instrument, price)
		f.hub.Broadcast(m)
	}
	return errors.Join(errs...)
}

// LastPrice returns the most recent execution price of an instrument.
func (f *TradeFeed) LastPrice(instrument string) (decimal.Decimal, bool) {
	return f.cache.Get(instrument)
}

func (f *TradeFeed) Subscribe(buffer int) *Subscription[transport.TradeMessage] {
	return f.hub.Subscribe(buffer)
}

func (f *TradeFeed) Unsubscribe(sub *Subscription[transport.TradeMessage]) {
	f.hub.Unsubscribe(sub)
}
