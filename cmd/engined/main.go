package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pkaraca/stockmatch/internal/config"
	"github.com/pkaraca/stockmatch/internal/engine"
	"github.com/pkaraca/stockmatch/internal/logging"
	"github.com/pkaraca/stockmatch/internal/transport"
)

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

	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("stockmatch-engined"))
	if err != nil {
		logger.Fatal("nats connect failed", zap.String("url", cfg.NATS.URL), zap.Error(err))
	}
	defer nc.Close()

	scaler := transport.NewScaler(cfg.TickSizes())
	publisher := transport.NewTradePublisher(nc, cfg.NATS.TradesSubject, scaler, logger)
	eng := engine.NewEngine(cfg.Symbols(), 1024, publisher, logger)
	source := transport.NewOrderSource(nc, cfg.NATS.OrdersSubject, cfg.NATS.OrdersQueue, scaler, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		eng.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return source.Run(ctx, eng.Place)
	})

	logger.Info("matching engine up", zap.Strings("instruments", cfg.Symbols()))
	if err := g.Wait(); err != nil {
		logger.Error("terminated with error", zap.Error(err))
		return
	}
	logger.Info("shutdown complete")
}
