package arbitrage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"arbscan/internal/model"
)

// Thresholds are the validation limits for a candidate opportunity.
type Thresholds struct {
	MinProfitPct   decimal.Decimal
	MaxProfitPct   decimal.Decimal
	MinVolumeUSD   decimal.Decimal
	MaxSlippagePct decimal.Decimal
	MinROIPct      decimal.Decimal
	OpportunityTTL time.Duration
}

// Candidate is a potential opportunity before validation: the two legs of a
// pair with their quotes, effective prices and fees.
type Candidate struct {
	Pair         model.CanonicalPair
	BuyExchange  string
	SellExchange string
	BuyQuote     model.ExchangeQuote
	SellQuote    model.ExchangeQuote
	BuyEstimate  PriceEstimate
	SellEstimate PriceEstimate
	BuyFeePct    decimal.Decimal
	SellFeePct   decimal.Decimal
	CapitalUSD   decimal.Decimal
}

// NetworkResolverFunc lazily resolves the transfer network for a candidate.
// It is only invoked once the cheaper checks have passed.
type NetworkResolverFunc func(c *Candidate) (model.NetworkChoice, error)

// Validator runs the ordered filter chain over candidates. The first failing
// check short-circuits with a typed rejection; the fixed order keeps
// diagnostics reproducible. Acceptance yields a finalized opportunity.
type Validator struct {
	thresholds     Thresholds
	resolveNetwork NetworkResolverFunc
	now            func() time.Time
}

// NewValidator creates a Validator. now may be nil, in which case time.Now
// is used.
func NewValidator(thresholds Thresholds, resolveNetwork NetworkResolverFunc, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{thresholds: thresholds, resolveNetwork: resolveNetwork, now: now}
}

// withResolver returns a copy of the validator using the given network
// resolution, leaving the original untouched.
func (v *Validator) withResolver(fn NetworkResolverFunc) *Validator {
	w := *v
	w.resolveNetwork = fn
	return &w
}

func (v *Validator) reject(c *Candidate, reason model.RejectReason, format string, args ...any) (*model.ArbitrageOpportunity, *model.Rejection) {
	return nil, &model.Rejection{
		Pair:   c.Pair,
		Reason: reason,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Validate accepts or rejects a candidate. Check order: price validity,
// volume floor, spread floor, spread ceiling, network resolvable, buy
// slippage cap, sell slippage cap, ROI floor, staleness, net profit.
func (v *Validator) Validate(c *Candidate) (*model.ArbitrageOpportunity, *model.Rejection) {
	t := v.thresholds

	if c.BuyQuote.LastPrice.Sign() <= 0 || c.SellQuote.LastPrice.Sign() <= 0 ||
		c.BuyEstimate.Price.Sign() <= 0 || c.SellEstimate.Price.Sign() <= 0 {
		return v.reject(c, model.RejectInvalidPrice, "buy=%s sell=%s",
			c.BuyQuote.LastPrice, c.SellQuote.LastPrice)
	}

	if c.BuyQuote.Volume24hUSD.LessThan(t.MinVolumeUSD) || c.SellQuote.Volume24hUSD.LessThan(t.MinVolumeUSD) {
		return v.reject(c, model.RejectBelowVolumeFloor, "buy=%s sell=%s floor=%s",
			c.BuyQuote.Volume24hUSD, c.SellQuote.Volume24hUSD, t.MinVolumeUSD)
	}

	spread := SpreadPct(c.BuyQuote.LastPrice, c.SellQuote.LastPrice)
	if spread.LessThan(t.MinProfitPct) {
		return v.reject(c, model.RejectSpreadTooLow, "spread=%s%% min=%s%%", spread, t.MinProfitPct)
	}
	if spread.GreaterThan(t.MaxProfitPct) {
		return v.reject(c, model.RejectSpreadTooHigh, "spread=%s%% max=%s%%", spread, t.MaxProfitPct)
	}

	network, err := v.resolveNetwork(c)
	if err != nil {
		return v.reject(c, model.RejectNoCommonNetwork, "%v", err)
	}

	buySlip := slippagePct(c.BuyQuote.LastPrice, c.BuyEstimate.Price)
	if buySlip.GreaterThan(t.MaxSlippagePct) {
		return v.reject(c, model.RejectSlippageExceeded, "buy leg slippage=%s%% cap=%s%%", buySlip, t.MaxSlippagePct)
	}
	sellSlip := slippagePct(c.SellQuote.LastPrice, c.SellEstimate.Price)
	if sellSlip.GreaterThan(t.MaxSlippagePct) {
		return v.reject(c, model.RejectSlippageExceeded, "sell leg slippage=%s%% cap=%s%%", sellSlip, t.MaxSlippagePct)
	}

	breakdown := ComputeProfit(ProfitInput{
		CapitalUSD:         c.CapitalUSD,
		BuyPriceEffective:  c.BuyEstimate.Price,
		SellPriceEffective: c.SellEstimate.Price,
		BuyFeePct:          c.BuyFeePct,
		SellFeePct:         c.SellFeePct,
		WithdrawalFeeUSD:   network.TotalFeeUSD,
	})
	if breakdown.ROIPct.LessThan(t.MinROIPct) {
		return v.reject(c, model.RejectROITooLow, "roi=%s%% min=%s%%", breakdown.ROIPct, t.MinROIPct)
	}

	now := v.now()
	if now.Sub(c.BuyQuote.ObservedAt) > t.OpportunityTTL || now.Sub(c.SellQuote.ObservedAt) > t.OpportunityTTL {
		return v.reject(c, model.RejectStaleData, "buy_age=%s sell_age=%s ttl=%s",
			now.Sub(c.BuyQuote.ObservedAt), now.Sub(c.SellQuote.ObservedAt), t.OpportunityTTL)
	}

	if breakdown.NetProfitUSD.Sign() <= 0 {
		return v.reject(c, model.RejectNotProfitable, "net=%s", breakdown.NetProfitUSD)
	}

	return &model.ArbitrageOpportunity{
		ID:                 uuid.New(),
		Pair:               c.Pair,
		BuyExchange:        c.BuyExchange,
		SellExchange:       c.SellExchange,
		BuyPriceEffective:  c.BuyEstimate.Price,
		SellPriceEffective: c.SellEstimate.Price,
		BuyEstimate:        c.BuyEstimate.Source,
		SellEstimate:       c.SellEstimate.Source,
		Quantity:           breakdown.Quantity,
		BuyFeeUSD:          breakdown.BuyFeeUSD,
		SellFeeUSD:         breakdown.SellFeeUSD,
		WithdrawalFeeUSD:   network.TotalFeeUSD,
		ChosenNetwork:      network.Network,
		TransferAsset:      network.Asset,
		SpreadPct:          spread,
		GrossProfitUSD:     breakdown.GrossProfitUSD,
		NetProfitUSD:       breakdown.NetProfitUSD,
		ROIPct:             breakdown.ROIPct,
		CreatedAt:          now,
	}, nil
}

// slippagePct is the absolute percentage distance between the unslipped
// reference price and the effective price.
func slippagePct(reference, effective decimal.Decimal) decimal.Decimal {
	return effective.Sub(reference).Abs().Div(reference).Mul(hundred)
}
