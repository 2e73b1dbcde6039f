package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkaraca/stockmatch/internal/config"
	"github.com/pkaraca/stockmatch/internal/logging"
	"github.com/pkaraca/stockmatch/internal/tradelog"
	"github.com/pkaraca/stockmatch/internal/transport"
)

// tradelogd consumes the trades subject and records every trade durably.
// It is the downstream sink; the engine never waits for it.
func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := tradelog.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer pool.Close()

	store := tradelog.NewStore(pool)
	if err := store.Init(ctx); err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("stockmatch-tradelogd"))
	if err != nil {
		logger.Fatal("nats connect failed", zap.String("url", cfg.NATS.URL), zap.Error(err))
	}
	defer nc.Close()

	source := transport.NewTradeSource(nc, cfg.NATS.TradesSubject, "tradelog", logger)
	err = source.Run(ctx, func(ctx context.Context, m transport.TradeMessage) error {
		price, err := decimal.NewFromString(m.Price)
		if err != nil {
			logger.Warn("dropping trade with bad price",
				zap.String("price", m.Price),
				zap.String("instrument", m.Instrument))
			return nil
		}
		if err := store.Insert(ctx, tradelog.Record{
			Instrument:  m.Instrument,
			Price:       price,
			Quantity:    m.Quantity,
			BuyOrderID:  m.BuyOrderID,
			SellOrderID: m.SellOrderID,
			ExecutedAt:  m.ExecutedAt,
		}); err != nil {
			return err
		}
		logger.Info("trade logged",
			zap.String("instrument", m.Instrument),
			zap.String("price", m.Price),
			zap.Int64("quantity", m.Quantity))
		return nil
	})
	if err != nil {
		logger.Error("terminated with error", zap.Error(err))
		return
	}
	logger.Info("shutdown complete")
}
