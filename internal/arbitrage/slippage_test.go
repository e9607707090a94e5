package arbitrage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/model"
)

func level(price, qty string) model.PriceLevel {
	return model.PriceLevel{
		Price: decimal.RequireFromString(price),
		Qty:   decimal.RequireFromString(qty),
	}
}

func TestWalkBook(t *testing.T) {
	e := NewSlippageEstimator(0.001, 100000)

	t.Run("uniform price returns that price", func(t *testing.T) {
		// Effectively infinite depth at a single price: the VWAP must
		// equal the level price for any requested quantity.
		book := &model.OrderBookSnapshot{
			Exchange: "binance",
			Asks:     []model.PriceLevel{level("100", "1000000")},
		}
		for _, qty := range []string{"0.001", "1", "500", "999999"} {
			got, err := e.WalkBook(book, SideBuy, decimal.RequireFromString(qty))
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString("100")), "qty %s got %s", qty, got)
		}
	})

	t.Run("partial last level", func(t *testing.T) {
		book := &model.OrderBookSnapshot{
			Exchange: "binance",
			Asks: []model.PriceLevel{
				level("100", "1"),
				level("101", "1"),
				level("102", "10"),
			},
		}
		// Buy 2.5: 1 @100 + 1 @101 + 0.5 @102 = 252 / 2.5 = 100.8
		got, err := e.WalkBook(book, SideBuy, decimal.RequireFromString("2.5"))
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString("100.8")), "got %s", got)
	})

	t.Run("sell walks bids", func(t *testing.T) {
		book := &model.OrderBookSnapshot{
			Exchange: "kucoin",
			Bids: []model.PriceLevel{
				level("99", "1"),
				level("98", "1"),
			},
		}
		// Sell 2: 1 @99 + 1 @98 = 197 / 2 = 98.5
		got, err := e.WalkBook(book, SideSell, decimal.RequireFromString("2"))
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString("98.5")), "got %s", got)
	})

	t.Run("insufficient depth", func(t *testing.T) {
		book := &model.OrderBookSnapshot{
			Exchange: "binance",
			Asks:     []model.PriceLevel{level("100", "1")},
		}
		_, err := e.WalkBook(book, SideBuy, decimal.RequireFromString("5"))
		assert.ErrorIs(t, err, model.ErrInsufficientLiquidity)
	})

	t.Run("empty book", func(t *testing.T) {
		_, err := e.WalkBook(&model.OrderBookSnapshot{}, SideBuy, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, model.ErrInsufficientLiquidity)

		_, err = e.WalkBook(nil, SideBuy, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, model.ErrInsufficientLiquidity)
	})
}

func TestHeuristic(t *testing.T) {
	e := NewSlippageEstimator(0.001, 100000)
	price := decimal.NewFromInt(100)

	t.Run("thin market slips the full factor", func(t *testing.T) {
		// volume below reference: liquidity_factor caps at 1.
		buy := e.Heuristic(price, decimal.NewFromInt(50000), SideBuy)
		assert.True(t, buy.Equal(decimal.RequireFromString("100.1")), "got %s", buy)

		sell := e.Heuristic(price, decimal.NewFromInt(50000), SideSell)
		assert.True(t, sell.Equal(decimal.RequireFromString("99.9")), "got %s", sell)
	})

	t.Run("deep market barely slips", func(t *testing.T) {
		// liquidity_factor = 100000 / 1000000 = 0.1
		buy := e.Heuristic(price, decimal.NewFromInt(1000000), SideBuy)
		assert.True(t, buy.Equal(decimal.RequireFromString("100.01")), "got %s", buy)
	})

	t.Run("zero volume does not divide by zero", func(t *testing.T) {
		buy := e.Heuristic(price, decimal.Zero, SideBuy)
		assert.True(t, buy.Equal(decimal.RequireFromString("100.1")), "got %s", buy)
	})
}

func TestEffectivePrice(t *testing.T) {
	e := NewSlippageEstimator(0.001, 100000)
	quote := model.ExchangeQuote{
		Exchange:     "binance",
		LastPrice:    decimal.NewFromInt(100),
		Volume24hUSD: decimal.NewFromInt(200000),
	}

	t.Run("prefers book walk", func(t *testing.T) {
		book := &model.OrderBookSnapshot{
			Asks: []model.PriceLevel{level("100", "1000000")},
		}
		est := e.EffectivePrice(book, quote, SideBuy, decimal.NewFromInt(10))
		assert.Equal(t, model.EstimateBook, est.Source)
		assert.True(t, est.Price.Equal(decimal.NewFromInt(100)))
	})

	t.Run("falls back to heuristic and records it", func(t *testing.T) {
		// Requested quantity exceeds total book depth.
		book := &model.OrderBookSnapshot{
			Asks: []model.PriceLevel{level("100", "1")},
		}
		est := e.EffectivePrice(book, quote, SideBuy, decimal.NewFromInt(10))
		assert.Equal(t, model.EstimateHeuristic, est.Source)
		assert.True(t, est.Price.GreaterThan(quote.LastPrice))
	})

	t.Run("no book at all", func(t *testing.T) {
		est := e.EffectivePrice(nil, quote, SideSell, decimal.NewFromInt(10))
		assert.Equal(t, model.EstimateHeuristic, est.Source)
		assert.True(t, est.Price.LessThan(quote.LastPrice))
	})
}
