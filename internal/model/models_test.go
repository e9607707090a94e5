package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	pair, err := ParsePair("btc/usdt")
	require.NoError(t, err)
	assert.Equal(t, CanonicalPair{Base: "BTC", Quote: "USDT"}, pair)
	assert.Equal(t, "BTC/USDT", pair.String())
}

func TestParsePairRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "BTCUSDT", "/USDT", "BTC/", "BTC/BTC", "btc/BTC"} {
		_, err := ParsePair(input)
		assert.ErrorIs(t, err, ErrUnparseableSymbol, "input %q", input)
	}
}

func TestAmountUSD(t *testing.T) {
	usd := Amount{Value: decimal.RequireFromString("1.5"), Denom: DenomUSD}
	assert.Equal(t, "1.5", usd.USD(decimal.RequireFromString("60000")).String(),
		"USD amounts ignore the asset price")

	tok := Amount{Value: decimal.RequireFromString("0.0005"), Denom: DenomToken}
	assert.Equal(t, "30", tok.USD(decimal.RequireFromString("60000")).String())
}

func TestNetworkInfoSupports(t *testing.T) {
	info := NetworkInfo{SupportedNetworks: []string{"TRC20", "ERC20"}}
	assert.True(t, info.Supports("TRC20"))
	assert.False(t, info.Supports("BEP20"))
}

func TestRejectReasonErr(t *testing.T) {
	cases := map[RejectReason]error{
		RejectInvalidPrice:     ErrInvalidPrice,
		RejectBelowVolumeFloor: ErrBelowVolumeFloor,
		RejectSpreadTooLow:     ErrSpreadTooLow,
		RejectSpreadTooHigh:    ErrSpreadTooHigh,
		RejectNoCommonNetwork:  ErrNoCommonNetwork,
		RejectSlippageExceeded: ErrSlippageExceeded,
		RejectROITooLow:        ErrROITooLow,
		RejectStaleData:        ErrStaleData,
		RejectNotProfitable:    ErrNotProfitable,
	}
	for reason, want := range cases {
		assert.ErrorIs(t, reason.Err(), want, "reason %s", reason)
	}
	assert.Nil(t, RejectReason("unknown").Err())
}
