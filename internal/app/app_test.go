package app

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/config"
	"arbscan/internal/symbol"
)

func baseConfig() *config.Config {
	return &config.Config{
		Arbitrage: config.ArbitrageConfig{
			CapitalUSD:            1000,
			MaxProfitThresholdPct: 100,
			OrderBookDepth:        20,
			TopN:                  10,
			MinExchangesForPair:   2,
			ScanIntervalSeconds:   60,
			CallTimeoutSeconds:    10,
		},
		Exchanges: map[string]config.ExchangeConfig{
			"binance": {TakerFeePercent: 0.1},
			"gate":    {TakerFeePercent: 0.2},
		},
	}
}

func TestNewBuildsConfiguredExchanges(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	a, err := New(logger, baseConfig(), nil)
	require.NoError(t, err)
	assert.Len(t, a.clients, 2)
}

func TestNewRejectsUnknownExchange(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := baseConfig()
	cfg.Exchanges["bitfinex"] = config.ExchangeConfig{}

	_, err := New(logger, cfg, nil)
	assert.ErrorContains(t, err, "unknown exchange")
}

func TestNewRejectsUnknownConvention(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := baseConfig()
	cfg.Exchanges["binance"] = config.ExchangeConfig{SymbolConvention: "piped"}

	_, err := New(logger, cfg, nil)
	assert.ErrorContains(t, err, "unknown symbol convention")
}

func TestConventionDefaults(t *testing.T) {
	cases := []struct {
		exchange string
		want     symbol.Convention
	}{
		{"binance", symbol.ConventionConcatenated},
		{"mexc", symbol.ConventionConcatenated},
		{"kucoin", symbol.ConventionDash},
		{"okx", symbol.ConventionDash},
		{"gate", symbol.ConventionUnderscore},
	}
	for _, tc := range cases {
		t.Run(tc.exchange, func(t *testing.T) {
			got, err := conventionFor(tc.exchange, config.ExchangeConfig{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConventionOverride(t *testing.T) {
	got, err := conventionFor("binance", config.ExchangeConfig{SymbolConvention: "dash"})
	require.NoError(t, err)
	assert.Equal(t, symbol.ConventionDash, got)
}
