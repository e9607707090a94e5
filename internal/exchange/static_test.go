package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/model"
)

func TestStaticNetworkSourceUSDT(t *testing.T) {
	infos, err := StaticNetworkSource(context.Background(), "USDT")
	require.NoError(t, err)

	binance, ok := infos["binance"]
	require.True(t, ok)
	assert.Equal(t, "USDT", binance.Asset)
	assert.True(t, binance.Supports("TRC20"))

	fee, ok := binance.WithdrawalFee["TRC20"]
	require.True(t, ok)
	assert.Equal(t, model.DenomUSD, fee.Denom)
	assert.Equal(t, "1", fee.Value.String())
}

func TestStaticNetworkSourceTokenDenominatedFee(t *testing.T) {
	infos, err := StaticNetworkSource(context.Background(), "BTC")
	require.NoError(t, err)

	fee := infos["gate"].WithdrawalFee["BTC"]
	assert.Equal(t, model.DenomToken, fee.Denom)
	assert.Equal(t, "0.0005", fee.Value.String())
}

func TestStaticNetworkSourceFallbackFee(t *testing.T) {
	// SOL has no entry in the withdrawal table, so its SOL network falls
	// back to the flat default.
	infos, err := StaticNetworkSource(context.Background(), "SOL")
	require.NoError(t, err)

	fee := infos["binance"].WithdrawalFee["SOL"]
	assert.Equal(t, model.DenomUSD, fee.Denom)
	assert.Equal(t, "5", fee.Value.String())
}

func TestStaticNetworkSourceUnknownAsset(t *testing.T) {
	infos, err := StaticNetworkSource(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestGasFeeTable(t *testing.T) {
	table, fallback := GasFeeTable()
	assert.Equal(t, "0.5", table["TRC20"].String())
	assert.Equal(t, "1", fallback.String())
}

func TestNetworkDirectoryCaches(t *testing.T) {
	calls := 0
	source := func(ctx context.Context, asset string) (map[string]model.NetworkInfo, error) {
		calls++
		return StaticNetworkSource(ctx, asset)
	}
	dir := NewNetworkDirectory(staticClock{at: time.Unix(1000, 0)}, source)

	for i := 0; i < 3; i++ {
		infos, err := dir.Networks(context.Background(), "USDT")
		require.NoError(t, err)
		assert.NotEmpty(t, infos)
	}
	assert.Equal(t, 1, calls)
}

func TestNetworkDirectorySourceError(t *testing.T) {
	wantErr := errors.New("upstream down")
	dir := NewNetworkDirectory(staticClock{at: time.Unix(1000, 0)}, func(context.Context, string) (map[string]model.NetworkInfo, error) {
		return nil, wantErr
	})

	_, err := dir.Networks(context.Background(), "USDT")
	assert.ErrorIs(t, err, wantErr)
}

type staticClock struct{ at time.Time }

func (c staticClock) Now() time.Time { return c.at }
