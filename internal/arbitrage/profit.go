package arbitrage

import "github.com/shopspring/decimal"

// ProfitInput carries everything the profit computation needs. Prices are
// effective (slippage-adjusted) execution prices; fee percentages are plain
// percent values (0.1 means 0.1%).
type ProfitInput struct {
	CapitalUSD         decimal.Decimal
	BuyPriceEffective  decimal.Decimal
	SellPriceEffective decimal.Decimal
	BuyFeePct          decimal.Decimal
	SellFeePct         decimal.Decimal
	WithdrawalFeeUSD   decimal.Decimal
}

// ProfitBreakdown is the result of the pure profit computation.
type ProfitBreakdown struct {
	Quantity        decimal.Decimal
	BuyFeeUSD       decimal.Decimal
	SellFeeUSD      decimal.Decimal
	SellProceedsUSD decimal.Decimal
	GrossProfitUSD  decimal.Decimal
	NetProfitUSD    decimal.Decimal
	ROIPct          decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ComputeProfit turns effective prices, fees and capital into gross/net
// profit and ROI. Pure function: no hidden state, identical inputs always
// yield identical outputs. The withdrawal/transfer cost is a single
// USD-denominated amount subtracted once from gross profit.
func ComputeProfit(in ProfitInput) ProfitBreakdown {
	quantity := in.CapitalUSD.Div(in.BuyPriceEffective)

	buyNotional := quantity.Mul(in.BuyPriceEffective)
	sellNotional := quantity.Mul(in.SellPriceEffective)

	buyFee := buyNotional.Mul(in.BuyFeePct).Div(hundred)
	sellFee := sellNotional.Mul(in.SellFeePct).Div(hundred)

	proceeds := sellNotional.Sub(sellFee)
	gross := proceeds.Sub(buyNotional).Sub(buyFee)
	net := gross.Sub(in.WithdrawalFeeUSD)
	roi := net.Div(in.CapitalUSD).Mul(hundred)

	return ProfitBreakdown{
		Quantity:        quantity,
		BuyFeeUSD:       buyFee,
		SellFeeUSD:      sellFee,
		SellProceedsUSD: proceeds,
		GrossProfitUSD:  gross,
		NetProfitUSD:    net,
		ROIPct:          roi,
	}
}

// SpreadPct is the percentage price difference between the cheaper and the
// more expensive venue: (sell - buy) / buy * 100.
func SpreadPct(buyPrice, sellPrice decimal.Decimal) decimal.Decimal {
	return sellPrice.Sub(buyPrice).Div(buyPrice).Mul(hundred)
}
