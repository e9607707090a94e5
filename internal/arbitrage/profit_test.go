package arbitrage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeProfit(t *testing.T) {
	t.Run("reference computation", func(t *testing.T) {
		// $1000 capital, buy at 100, sell at 102, 0.1% fees, no
		// withdrawal cost.
		got := ComputeProfit(ProfitInput{
			CapitalUSD:         d("1000"),
			BuyPriceEffective:  d("100"),
			SellPriceEffective: d("102"),
			BuyFeePct:          d("0.1"),
			SellFeePct:         d("0.1"),
			WithdrawalFeeUSD:   decimal.Zero,
		})

		assert.True(t, got.Quantity.Equal(d("10")), "quantity %s", got.Quantity)
		assert.True(t, got.BuyFeeUSD.Equal(d("1")), "buy fee %s", got.BuyFeeUSD)
		assert.True(t, got.SellFeeUSD.Equal(d("1.02")), "sell fee %s", got.SellFeeUSD)
		assert.True(t, got.SellProceedsUSD.Equal(d("1018.98")), "proceeds %s", got.SellProceedsUSD)
		assert.True(t, got.GrossProfitUSD.Equal(d("17.98")), "gross %s", got.GrossProfitUSD)
		assert.True(t, got.NetProfitUSD.Equal(d("17.98")), "net %s", got.NetProfitUSD)
		assert.True(t, got.ROIPct.Equal(d("1.798")), "roi %s", got.ROIPct)
	})

	t.Run("withdrawal fee subtracted once", func(t *testing.T) {
		got := ComputeProfit(ProfitInput{
			CapitalUSD:         d("1000"),
			BuyPriceEffective:  d("100"),
			SellPriceEffective: d("102"),
			BuyFeePct:          d("0.1"),
			SellFeePct:         d("0.1"),
			WithdrawalFeeUSD:   d("5"),
		})
		assert.True(t, got.GrossProfitUSD.Equal(d("17.98")))
		assert.True(t, got.NetProfitUSD.Equal(d("12.98")))
		assert.True(t, got.ROIPct.Equal(d("1.298")))
	})

	t.Run("negative when fees swallow the spread", func(t *testing.T) {
		got := ComputeProfit(ProfitInput{
			CapitalUSD:         d("1000"),
			BuyPriceEffective:  d("100"),
			SellPriceEffective: d("100.05"),
			BuyFeePct:          d("0.1"),
			SellFeePct:         d("0.1"),
			WithdrawalFeeUSD:   decimal.Zero,
		})
		assert.True(t, got.NetProfitUSD.Sign() < 0, "net %s", got.NetProfitUSD)
	})

	t.Run("deterministic", func(t *testing.T) {
		in := ProfitInput{
			CapitalUSD:         d("1000"),
			BuyPriceEffective:  d("0.00000123"),
			SellPriceEffective: d("0.00000127"),
			BuyFeePct:          d("0.2"),
			SellFeePct:         d("0.26"),
			WithdrawalFeeUSD:   d("1.1"),
		}
		first := ComputeProfit(in)
		for i := 0; i < 50; i++ {
			assert.Equal(t, first, ComputeProfit(in))
		}
	})
}

func TestSpreadPct(t *testing.T) {
	assert.True(t, SpreadPct(d("100"), d("102")).Equal(d("2")))
	assert.True(t, SpreadPct(d("100"), d("100.2")).Equal(d("0.2")))
	assert.True(t, SpreadPct(d("100"), d("250")).Equal(d("150")))
}
