package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "TSLA"}, cfg.Symbols())
	require.Equal(t, "orders", cfg.NATS.OrdersSubject)
	require.Equal(t, "trades", cfg.NATS.TradesSubject)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
instruments:
  - symbol: MSFT
    tick_size: "0.05"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTP.Addr)
	require.Equal(t, []string{"MSFT"}, cfg.Symbols())

	ticks := cfg.TickSizes()
	require.True(t, ticks["MSFT"].Equal(decimal.RequireFromString("0.05")))
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("DATABASE_URL", "postgres://db/trades")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	require.Equal(t, "postgres://db/trades", cfg.Database.URL)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no instruments", "instruments: []"},
		{"empty symbol", "instruments:\n  - symbol: \"\"\n    tick_size: \"0.01\""},
		{"bad tick", "instruments:\n  - symbol: AAPL\n    tick_size: penny"},
		{"zero tick", "instruments:\n  - symbol: AAPL\n    tick_size: \"0\""},
		{"duplicate symbol", "instruments:\n  - symbol: AAPL\n    tick_size: \"0.01\"\n  - symbol: AAPL\n    tick_size: \"0.01\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}
