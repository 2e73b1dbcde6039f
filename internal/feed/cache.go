package feed

import (
	"sync"

	"github.com/shopspring/decimal"
)

// LastPriceCache stores the latest execution price per instrument.
type LastPriceCache struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewLastPriceCache() *LastPriceCache {
	return &LastPriceCache{prices: make(map[string]decimal.Decimal)}
}

func (c *LastPriceCache) Set(instrument string, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[instrument] = price
}

func (c *LastPriceCache) Get(instrument string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[instrument]
	return p, ok
}
