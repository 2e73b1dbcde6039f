package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pkaraca/stockmatch/internal/engine"
)

// TradePublisher publishes executed trades to the trades subject. It
// implements engine.TradeSink; delivery beyond the broker handoff is the
// downstream consumer's concern.
type TradePublisher struct {
	nc      *nats.Conn
	subject string
	scaler  *Scaler
	log     *zap.Logger
}

func NewTradePublisher(nc *nats.Conn, subject string, scaler *Scaler, log *zap.Logger) *TradePublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &TradePublisher{nc: nc, subject: subject, scaler: scaler, log: log}
}

func (p *TradePublisher) PublishTrades(_ context.Context, trades []engine.Trade) error {
	var errs []error
	for _, t := range trades {
		m, err := NewTradeMessage(t, p.scaler)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data, err := json.Marshal(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.nc.Publish(p.subject, data); err != nil {
			errs = append(errs, fmt.Errorf("publish trade %s/%s: %w", t.BuyOrderID, t.SellOrderID, err))
			continue
		}
		p.log.Debug("trade published",
			zap.String("instrument", t.Instrument),
			zap.String("price", m.Price),
			zap.Int64("quantity", t.Quantity))
	}
	return errors.Join(errs...)
}

// TradeSource consumes trade messages, for downstream recorders such as
// the trade log daemon.
type TradeSource struct {
	nc      *nats.Conn
	subject string
	queue   string
	log     *zap.Logger
}

func NewTradeSource(nc *nats.Conn, subject, queue string, log *zap.Logger) *TradeSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &TradeSource{nc: nc, subject: subject, queue: queue, log: log}
}

func (s *TradeSource) Run(ctx context.Context, handle func(ctx context.Context, m TradeMessage) error) error {
	sub, err := s.nc.QueueSubscribe(s.subject, s.queue, func(msg *nats.Msg) {
		var m TradeMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			s.log.Warn("dropping undecodable trade message", zap.Error(err))
			return
		}
		if err := handle(ctx, m); err != nil {
			s.log.Error("trade handler failed",
				zap.String("instrument", m.Instrument),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}

	s.log.Info("consuming trades",
		zap.String("subject", s.subject),
		zap.String("queue", s.queue))

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		s.log.Warn("drain failed", zap.Error(err))
	}
	return nil
}
