package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Instrument declares one tradable symbol. TickSize is the smallest price
// increment; wire prices must be whole multiples of it.
type Instrument struct {
	Symbol   string `yaml:"symbol"`
	TickSize string `yaml:"tick_size"`
}

type Config struct {
	NATS struct {
		URL           string `yaml:"url"`
		OrdersSubject string `yaml:"orders_subject"`
		OrdersQueue   string `yaml:"orders_queue"`
		TradesSubject string `yaml:"trades_subject"`
	} `yaml:"nats"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Instruments []Instrument `yaml:"instruments"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.NATS.URL = "nats://127.0.0.1:4222"
	cfg.NATS.OrdersSubject = "orders"
	cfg.NATS.OrdersQueue = "matching"
	cfg.NATS.TradesSubject = "trades"
	cfg.HTTP.Addr = ":8080"
	cfg.Log.Level = "info"
	cfg.Instruments = []Instrument{
		{Symbol: "AAPL", TickSize: "0.01"},
		{Symbol: "TSLA", TickSize: "0.01"},
	}
	return cfg
}

// Load reads a YAML file over the defaults. An empty path keeps the
// defaults. DATABASE_URL and NATS_URL override the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("config: no instruments declared")
	}
	seen := make(map[string]struct{}, len(c.Instruments))
	for _, ins := range c.Instruments {
		if ins.Symbol == "" {
			return fmt.Errorf("config: instrument with empty symbol")
		}
		if _, dup := seen[ins.Symbol]; dup {
			return fmt.Errorf("config: duplicate instrument %s", ins.Symbol)
		}
		seen[ins.Symbol] = struct{}{}

		tick, err := decimal.NewFromString(ins.TickSize)
		if err != nil {
			return fmt.Errorf("config: instrument %s: bad tick size %q: %w", ins.Symbol, ins.TickSize, err)
		}
		if !tick.IsPositive() {
			return fmt.Errorf("config: instrument %s: tick size must be positive", ins.Symbol)
		}
	}
	return nil
}

func (c *Config) Symbols() []string {
	out := make([]string, 0, len(c.Instruments))
	for _, ins := range c.Instruments {
		out = append(out, ins.Symbol)
	}
	return out
}

// TickSizes returns symbol -> tick size. Call after Load, which validates
// every tick size parses.
func (c *Config) TickSizes() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Instruments))
	for _, ins := range c.Instruments {
		tick, err := decimal.NewFromString(ins.TickSize)
		if err != nil {
			continue
		}
		out[ins.Symbol] = tick
	}
	return out
}
