package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pkaraca/stockmatch/internal/config"
	"github.com/pkaraca/stockmatch/internal/engine"
	"github.com/pkaraca/stockmatch/internal/feed"
	"github.com/pkaraca/stockmatch/internal/logging"
	"github.com/pkaraca/stockmatch/internal/tradelog"
	"github.com/pkaraca/stockmatch/internal/transport"
)

// server runs the engine in-process behind an HTTP gateway: orders in via
// POST, trades queried from the trade log, last prices and a live trade
// stream from the feed. Executed trades still go out on the broker so the
// trade log daemon records them.
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

	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("stockmatch-server"))
	if err != nil {
		logger.Fatal("nats connect failed", zap.String("url", cfg.NATS.URL), zap.Error(err))
	}
	defer nc.Close()

	scaler := transport.NewScaler(cfg.TickSizes())
	publisher := transport.NewTradePublisher(nc, cfg.NATS.TradesSubject, scaler, logger)
	tradeFeed := feed.NewTradeFeed(scaler, logger)

	eng := engine.NewEngine(cfg.Symbols(), 1024, engine.MultiSink{publisher, tradeFeed}, logger)
	go eng.Run(ctx)

	r := chi.NewRouter()

	// Hygiene stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	writeProblem := func(w http.ResponseWriter, r *http.Request, code int, title, detail string) {
		reqID := middleware.GetReqID(r.Context())
		w.Header().Set("Content-Type", "application/problem+json")
		w.Header().Set("X-Request-ID", reqID)
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"title":      title,
			"status":     code,
			"detail":     detail,
			"instance":   r.URL.Path,
			"request_id": reqID,
		})
	}

	// POST /orders
	r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
		var req transport.OrderMessage
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, r, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}

		order, err := req.ToOrder(scaler)
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		res, placeErr := eng.Place(r.Context(), order)
		if placeErr != nil {
			if engine.IsInvalidOrder(placeErr) {
				writeProblem(w, r, http.StatusBadRequest, "invalid_order", placeErr.Error())
				return
			}
			writeProblem(w, r, http.StatusInternalServerError, "engine_error", placeErr.Error())
			return
		}

		rid := middleware.GetReqID(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Location", "/orders/"+req.ID)
		w.Header().Set("X-Request-ID", rid)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toOrderCreateResponse(req, res, scaler, rid))
	})

	// GET /trades?order_id=...
	r.Get("/trades", func(w http.ResponseWriter, r *http.Request) {
		orderID := r.URL.Query().Get("order_id")
		if orderID == "" {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", "order_id required")
			return
		}

		rows, queryErr := store.ListByOrder(r.Context(), orderID)
		if queryErr != nil {
			writeProblem(w, r, http.StatusInternalServerError, "db_error", queryErr.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
		_ = json.NewEncoder(w).Encode(rows)
	})

	// GET /prices/{instrument}
	r.Get("/prices/{instrument}", func(w http.ResponseWriter, r *http.Request) {
		instrument := chi.URLParam(r, "instrument")
		price, ok := tradeFeed.LastPrice(instrument)
		if !ok {
			writeProblem(w, r, http.StatusNotFound, "not_found", "no trades yet for "+instrument)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"instrument": instrument,
			"price":      price.String(),
		})
	})

	// GET /ws/trades — live trade stream
	r.Method(http.MethodGet, "/ws/trades", feed.NewStreamHandler(tradeFeed, logger))

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

type orderCreateResponse struct {
	OrderID    string                   `json:"order_id"`
	Instrument string                   `json:"instrument"`
	Side       string                   `json:"side"`
	Quantity   int64                    `json:"quantity"`
	Filled     bool                     `json:"filled"`
	Remaining  int64                    `json:"remaining"`
	Resting    bool                     `json:"resting"`
	Trades     []transport.TradeMessage `json:"trades"`
	RequestID  string                   `json:"request_id"`
	ReceivedAt time.Time                `json:"received_at"`
}

func toOrderCreateResponse(req transport.OrderMessage, res *engine.MatchResult, scaler *transport.Scaler, requestID string) orderCreateResponse {
	remaining := int64(0)
	if res.Remainder != nil {
		remaining = res.Remainder.Remaining
	}
	trades := make([]transport.TradeMessage, 0, len(res.Trades))
	for _, t := range res.Trades {
		m, err := transport.NewTradeMessage(t, scaler)
		if err != nil {
			continue
		}
		trades = append(trades, m)
	}
	return orderCreateResponse{
		OrderID:    req.ID,
		Instrument: req.Instrument,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Filled:     res.OrderFilled,
		Remaining:  remaining,
		Resting:    res.Remainder != nil,
		Trades:     trades,
		RequestID:  requestID,
		ReceivedAt: time.Now().UTC(),
	}
}
