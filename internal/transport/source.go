package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pkaraca/stockmatch/internal/engine"
)

// SubmitFunc is the engine entry point an OrderSource feeds.
type SubmitFunc func(ctx context.Context, o *engine.Order) (*engine.MatchResult, error)

// OrderSource consumes order messages from the broker and submits them to
// the engine. The broker owns delivery guarantees; the source only decodes
// and forwards. Undecodable and rejected orders are logged and dropped,
// never retried, since matching is deterministic and a rejection is final.
type OrderSource struct {
	nc      *nats.Conn
	subject string
	queue   string
	scaler  *Scaler
	log     *zap.Logger
}

func NewOrderSource(nc *nats.Conn, subject, queue string, scaler *Scaler, log *zap.Logger) *OrderSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderSource{nc: nc, subject: subject, queue: queue, scaler: scaler, log: log}
}

// Run consumes until ctx is cancelled. Messages of one subscription are
// dispatched serially, which preserves arrival order into the engine.
func (s *OrderSource) Run(ctx context.Context, submit SubmitFunc) error {
	sub, err := s.nc.QueueSubscribe(s.subject, s.queue, func(msg *nats.Msg) {
		s.handle(ctx, msg.Data, submit)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}

	s.log.Info("consuming orders",
		zap.String("subject", s.subject),
		zap.String("queue", s.queue))

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		s.log.Warn("drain failed", zap.Error(err))
	}
	return nil
}

func (s *OrderSource) handle(ctx context.Context, data []byte, submit SubmitFunc) {
	var m OrderMessage
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Warn("dropping undecodable order message", zap.Error(err))
		return
	}

	o, err := m.ToOrder(s.scaler)
	if err != nil {
		s.log.Warn("dropping invalid order message",
			zap.String("order_id", m.ID),
			zap.Error(err))
		return
	}

	res, err := submit(ctx, o)
	if err != nil {
		if engine.IsInvalidOrder(err) {
			s.log.Warn("order rejected",
				zap.String("order_id", o.ID),
				zap.String("instrument", o.Instrument),
				zap.Error(err))
		} else {
			s.log.Error("order submission failed",
				zap.String("order_id", o.ID),
				zap.Error(err))
		}
		return
	}

	s.log.Info("order processed",
		zap.String("order_id", o.ID),
		zap.String("instrument", o.Instrument),
		zap.Int("trades", len(res.Trades)),
		zap.Bool("filled", res.OrderFilled))
}
