package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestGetOrRefresh(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTL[string, []string](clock)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) ([]string, error) {
		loads++
		return []string{"ERC20", "TRC20"}, nil
	}

	t.Run("miss then hit", func(t *testing.T) {
		got, err := c.GetOrRefresh(ctx, "USDT", time.Hour, loader)
		require.NoError(t, err)
		assert.Equal(t, []string{"ERC20", "TRC20"}, got)
		assert.Equal(t, 1, loads)

		_, err = c.GetOrRefresh(ctx, "USDT", time.Hour, loader)
		require.NoError(t, err)
		assert.Equal(t, 1, loads)
	})

	t.Run("expires after ttl", func(t *testing.T) {
		clock.Advance(time.Hour + time.Second)
		_, err := c.GetOrRefresh(ctx, "USDT", time.Hour, loader)
		require.NoError(t, err)
		assert.Equal(t, 2, loads)
	})

	t.Run("loader error is not cached", func(t *testing.T) {
		boom := errors.New("exchange unreachable")
		_, err := c.GetOrRefresh(ctx, "BTC", time.Hour, func(context.Context) ([]string, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := c.GetOrRefresh(ctx, "BTC", time.Hour, loader)
		require.NoError(t, err)
		assert.Equal(t, []string{"ERC20", "TRC20"}, got)
	})

	t.Run("invalidate forces reload", func(t *testing.T) {
		before := loads
		c.Invalidate("USDT")
		_, err := c.GetOrRefresh(ctx, "USDT", time.Hour, loader)
		require.NoError(t, err)
		assert.Equal(t, before+1, loads)
	})
}
