package arbitrage

import (
	"fmt"

	"github.com/shopspring/decimal"

	"arbscan/internal/model"
)

// Side is the direction of an estimated execution.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// PriceEstimate is an effective execution price together with how it was
// obtained.
type PriceEstimate struct {
	Price  decimal.Decimal
	Source model.EstimateSource
}

// SlippageEstimator converts a desired trade quantity into an expected
// volume-weighted execution price. It prefers walking order-book depth and
// falls back to a volume-based heuristic when no usable book is available.
type SlippageEstimator struct {
	// SlippageFactor scales the heuristic price adjustment.
	SlippageFactor decimal.Decimal
	// ReferenceVolumeUSD is the notional against which 24h volume is
	// compared in the heuristic's liquidity factor.
	ReferenceVolumeUSD decimal.Decimal
}

// NewSlippageEstimator creates an estimator with the given heuristic
// constants.
func NewSlippageEstimator(slippageFactor, referenceVolumeUSD float64) *SlippageEstimator {
	return &SlippageEstimator{
		SlippageFactor:     decimal.NewFromFloat(slippageFactor),
		ReferenceVolumeUSD: decimal.NewFromFloat(referenceVolumeUSD),
	}
}

// WalkBook consumes book levels in the relevant direction (asks ascending
// for a buy, bids descending for a sell) until the cumulative quantity
// covers quantity, partially consuming the last level. It returns the
// volume-weighted average price, or ErrInsufficientLiquidity when the book
// is shallower than the requested quantity.
func (e *SlippageEstimator) WalkBook(book *model.OrderBookSnapshot, side Side, quantity decimal.Decimal) (decimal.Decimal, error) {
	if book == nil || quantity.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: no book", model.ErrInsufficientLiquidity)
	}

	levels := book.Asks
	if side == SideSell {
		levels = book.Bids
	}

	remaining := quantity
	total := decimal.Zero
	for _, level := range levels {
		if level.Qty.Sign() <= 0 {
			continue
		}
		used := level.Qty
		if used.GreaterThan(remaining) {
			used = remaining
		}
		total = total.Add(level.Price.Mul(used))
		remaining = remaining.Sub(used)
		if remaining.Sign() <= 0 {
			return total.Div(quantity), nil
		}
	}

	return decimal.Zero, fmt.Errorf("%w: %s %s covers %s of %s",
		model.ErrInsufficientLiquidity, book.Exchange, side,
		quantity.Sub(remaining), quantity)
}

// Heuristic estimates the effective price from the reference price and 24h
// volume: price * (1 ± slippage_factor * liquidity_factor), plus for a buy
// and minus for a sell. Thin markets (low volume relative to the reference
// notional) slip the full factor; deep markets barely move.
func (e *SlippageEstimator) Heuristic(referencePrice, volume24hUSD decimal.Decimal, side Side) decimal.Decimal {
	denom := volume24hUSD
	if denom.LessThan(decimal.NewFromInt(1)) {
		denom = decimal.NewFromInt(1)
	}
	liquidityFactor := e.ReferenceVolumeUSD.Div(denom)
	one := decimal.NewFromInt(1)
	if liquidityFactor.GreaterThan(one) {
		liquidityFactor = one
	}

	adjust := referencePrice.Mul(e.SlippageFactor).Mul(liquidityFactor)
	if side == SideBuy {
		return referencePrice.Add(adjust)
	}
	return referencePrice.Sub(adjust)
}

// EffectivePrice returns the execution-price estimate for the given leg,
// walking the book when one is available and recording a heuristic fallback
// otherwise.
func (e *SlippageEstimator) EffectivePrice(book *model.OrderBookSnapshot, quote model.ExchangeQuote, side Side, quantity decimal.Decimal) PriceEstimate {
	if book != nil {
		price, err := e.WalkBook(book, side, quantity)
		if err == nil {
			return PriceEstimate{Price: price, Source: model.EstimateBook}
		}
	}
	return PriceEstimate{
		Price:  e.Heuristic(quote.LastPrice, quote.Volume24hUSD, side),
		Source: model.EstimateHeuristic,
	}
}
