package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// TradeSink receives the trades of one submission, in execution order,
// after the matching step has completed. Implementations must not assume
// durable delivery; the engine only guarantees each trade is handed over
// exactly once per match event.
type TradeSink interface {
	PublishTrades(ctx context.Context, trades []Trade) error
}

// MultiSink fans one submission's trades out to several sinks.
type MultiSink []TradeSink

func (m MultiSink) PublishTrades(ctx context.Context, trades []Trade) error {
	var errs []error
	for _, s := range m {
		if err := s.PublishTrades(ctx, trades); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Engine routes incoming orders to per-instrument loops. Each loop is a
// single goroutine draining a command channel, so all mutations of one
// book are linearized and sequence assignment is monotone per instrument.
// Different instruments never coordinate.
type Engine struct {
	log   *zap.Logger
	sink  TradeSink
	loops map[string]*instrumentLoop
}

type instrumentLoop struct {
	instrument string
	matcher    *Matcher
	cmds       chan Command
	done       chan struct{}
}

func NewEngine(instruments []string, buffer int, sink TradeSink, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		log:   log,
		sink:  sink,
		loops: make(map[string]*instrumentLoop, len(instruments)),
	}
	for _, sym := range instruments {
		e.loops[sym] = &instrumentLoop{
			instrument: sym,
			matcher:    NewMatcher(NewOrderBook(sym)),
			cmds:       make(chan Command, buffer),
			done:       make(chan struct{}),
		}
	}
	return e
}

// Instruments returns the symbols this engine routes, sorted.
func (e *Engine) Instruments() []string {
	out := make([]string, 0, len(e.loops))
	for sym := range e.loops {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Run drives all instrument loops until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, lp := range e.loops {
		wg.Add(1)
		go func(lp *instrumentLoop) {
			defer wg.Done()
			e.runLoop(ctx, lp)
		}(lp)
	}
	wg.Wait()
}

func (e *Engine) runLoop(ctx context.Context, lp *instrumentLoop) {
	defer close(lp.done)

	for {
		select {
		case cmd := <-lp.cmds:
			res, err := lp.matcher.Submit(cmd.Order)

			// deliver trades after the matching step, never interleaved
			// with book mutation
			if err == nil && len(res.Trades) > 0 && e.sink != nil {
				if sinkErr := e.sink.PublishTrades(ctx, res.Trades); sinkErr != nil {
					e.log.Error("trade sink publish failed",
						zap.String("instrument", lp.instrument),
						zap.Error(sinkErr))
				}
			}

			cmd.Resp <- placeResponse{Result: res, Err: err}

			if errors.Is(err, ErrBookCrossed) {
				// any further match on a corrupted book is unsound
				e.log.Error("order book corrupted, halting instrument",
					zap.String("instrument", lp.instrument),
					zap.Error(err))
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Place submits one order and waits for its match result. Callers that
// submit concurrently are linearized by the instrument's command channel;
// for a fixed instrument, trades of an earlier submission are handed to
// the sink before trades of a later one.
func (e *Engine) Place(ctx context.Context, o *Order) (*MatchResult, error) {
	lp, ok := e.loops[o.Instrument]
	if !ok {
		return nil, fmt.Errorf("instrument %q: %w", o.Instrument, ErrUnknownInstrument)
	}

	resp := make(chan placeResponse, 1)
	select {
	case lp.cmds <- Command{Order: o, Resp: resp}:
	case <-lp.done:
		return nil, fmt.Errorf("instrument %q: %w", o.Instrument, ErrEngineStopped)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-resp:
		return r.Result, r.Err
	case <-lp.done:
		// the loop answers before halting, so drain resp first
		select {
		case r := <-resp:
			return r.Result, r.Err
		default:
		}
		return nil, fmt.Errorf("instrument %q: %w", o.Instrument, ErrEngineStopped)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
