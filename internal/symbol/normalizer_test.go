package symbol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		native  string
		conv    Convention
		want    string
		wantErr bool
	}{
		{name: "binance concatenated usdt", native: "BTCUSDT", conv: ConventionConcatenated, want: "BTC/USDT"},
		{name: "usdt wins over usd", native: "AVAXUSDT", conv: ConventionConcatenated, want: "AVAX/USDT"},
		{name: "busd wins over usd", native: "ADABUSD", conv: ConventionConcatenated, want: "ADA/BUSD"},
		{name: "plain usd quote", native: "SOLUSD", conv: ConventionConcatenated, want: "SOL/USD"},
		{name: "btc quote", native: "ETHBTC", conv: ConventionConcatenated, want: "ETH/BTC"},
		{name: "lowercase htx style", native: "dogeusdt", conv: ConventionConcatenated, want: "DOGE/USDT"},
		{name: "kucoin dash", native: "BTC-USDT", conv: ConventionDash, want: "BTC/USDT"},
		{name: "gate underscore", native: "ETH_USDT", conv: ConventionUnderscore, want: "ETH/USDT"},
		{name: "unknown quote suffix", native: "FOOBARBAZ", conv: ConventionConcatenated, wantErr: true},
		{name: "bare quote only", native: "USDT", conv: ConventionConcatenated, wantErr: true},
		{name: "empty", native: "", conv: ConventionConcatenated, wantErr: true},
		{name: "missing delimiter", native: "BTCUSDT", conv: ConventionDash, wantErr: true},
		{name: "base equals quote", native: "USDT-USDT", conv: ConventionDash, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := Normalize(tt.native, tt.conv)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrUnparseableSymbol))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, pair.String())
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, conv := range []Convention{ConventionConcatenated, ConventionDash, ConventionUnderscore} {
		pair, err := Normalize("BTC/USDT", conv)
		require.NoError(t, err)
		assert.Equal(t, "BTC/USDT", pair.String())

		again, err := Normalize(pair.String(), conv)
		require.NoError(t, err)
		assert.Equal(t, pair, again)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	first, err := Normalize("LINKETH", ConventionConcatenated)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		got, err := Normalize("LINKETH", ConventionConcatenated)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestNormalizerPerExchange(t *testing.T) {
	n := NewNormalizer(map[string]Convention{
		"binance": ConventionConcatenated,
		"kucoin":  ConventionDash,
		"gate":    ConventionUnderscore,
	})

	pair, err := n.Normalize("binance", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", pair.String())

	pair, err = n.Normalize("kucoin", "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", pair.String())

	pair, err = n.Normalize("gate", "BTC_USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", pair.String())

	_, err = n.Normalize("unknown", "BTCUSDT")
	assert.ErrorIs(t, err, model.ErrUnparseableSymbol)
}
