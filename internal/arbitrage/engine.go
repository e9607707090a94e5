package arbitrage

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"arbscan/internal/config"
	"arbscan/internal/model"
	"arbscan/internal/symbol"
)

// ErrNoMarketData is the cycle-level failure returned when no exchange
// produced any usable snapshot. Per-pair failures never surface here.
var ErrNoMarketData = errors.New("no usable market data in cycle")

// stableQuotes are quote assets treated as worth $1 when converting
// token-denominated withdrawal fees for a quote-asset transfer.
var stableQuotes = map[string]bool{
	"USDT": true, "USDC": true, "BUSD": true, "TUSD": true, "USD": true,
}

// CycleInput is the immutable snapshot a cycle evaluates: candidate pairs,
// per-exchange quotes and order books, and per-asset network info. The
// engine never mutates it.
type CycleInput struct {
	Pairs      symbol.PairSet
	Quotes     map[string]map[string]model.ExchangeQuote     // exchange -> native -> quote
	Books      map[string]map[string]*model.OrderBookSnapshot // exchange -> native -> book
	Networks   map[string]map[string]model.NetworkInfo       // asset -> exchange -> info
	CapitalUSD decimal.Decimal
}

type cycleResult struct {
	opportunities []model.ArbitrageOpportunity
	at            time.Time
}

// Engine is the arbitrage opportunity engine: a stateless transform over a
// cycle snapshot, plus an atomically replaced pointer to the last completed
// ranking. It holds no locks in the evaluation path.
type Engine struct {
	logger    *slog.Logger
	estimator *SlippageEstimator
	resolver  *NetworkResolver
	validator *Validator

	takerFeePct    map[string]decimal.Decimal
	defaultFeePct  decimal.Decimal
	topN           int
	opportunityTTL time.Duration
	now            func() time.Time

	last atomic.Pointer[cycleResult]
}

// NewEngine assembles an Engine from configuration. now may be nil, in which
// case time.Now is used.
func NewEngine(logger *slog.Logger, cfg *config.Config, gas GasFees, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}

	fees := make(map[string]decimal.Decimal, len(cfg.Exchanges))
	for name, ex := range cfg.Exchanges {
		fees[name] = decimal.NewFromFloat(ex.TakerFeePercent)
	}

	a := cfg.Arbitrage
	e := &Engine{
		logger:    logger,
		estimator: NewSlippageEstimator(a.SlippageFactor, a.ReferenceVolumeUSD),
		resolver:  NewNetworkResolver(gas),

		takerFeePct:    fees,
		defaultFeePct:  decimal.NewFromFloat(0.1),
		topN:           a.TopN,
		opportunityTTL: a.OpportunityTTL(),
		now:            now,
	}
	e.validator = NewValidator(Thresholds{
		MinProfitPct:   decimal.NewFromFloat(a.MinProfitThresholdPct),
		MaxProfitPct:   decimal.NewFromFloat(a.MaxProfitThresholdPct),
		MinVolumeUSD:   decimal.NewFromFloat(a.MinVolumeUSD),
		MaxSlippagePct: decimal.NewFromFloat(a.MaxSlippagePct),
		MinROIPct:      decimal.NewFromFloat(a.MinROIPct),
		OpportunityTTL: a.OpportunityTTL(),
	}, nil, now)
	return e
}

func (e *Engine) takerFee(exchange string) decimal.Decimal {
	if fee, ok := e.takerFeePct[exchange]; ok {
		return fee
	}
	return e.defaultFeePct
}

// EvaluateCycle recomputes the full opportunity set from the given snapshot,
// ranks it, atomically publishes it, and returns the ordered list. A
// cancelled context aborts the cycle without publishing anything. Per-pair
// failures are recorded in the stats and logged at debug; only the absence
// of any usable quote data is a cycle-level error.
func (e *Engine) EvaluateCycle(ctx context.Context, in CycleInput) ([]model.ArbitrageOpportunity, model.CycleStats, error) {
	stats := model.CycleStats{
		StartedAt:      e.now(),
		RejectByReason: make(map[model.RejectReason]int),
	}

	usable := 0
	for _, quotes := range in.Quotes {
		usable += len(quotes)
	}
	if usable == 0 {
		return nil, stats, ErrNoMarketData
	}

	// Deterministic pair order keeps logs and stats reproducible.
	pairs := make([]model.CanonicalPair, 0, len(in.Pairs))
	for pair := range in.Pairs {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })

	var accepted []model.ArbitrageOpportunity
	for _, pair := range pairs {
		if ctx.Err() != nil {
			// Abort without partial output.
			return nil, stats, ctx.Err()
		}
		stats.PairsChecked++

		candidate, ok := e.buildCandidate(pair, in)
		if !ok {
			continue
		}
		stats.Candidates++

		opp, rejection := e.validator.withResolver(e.resolveTransfer(in)).Validate(candidate)
		if rejection != nil {
			stats.Rejected++
			stats.RejectByReason[rejection.Reason]++
			e.logger.Debug("Engine: candidate rejected",
				"pair", rejection.Pair.String(),
				"reason", string(rejection.Reason),
				"detail", rejection.Detail,
			)
			continue
		}

		stats.Accepted++
		accepted = append(accepted, *opp)
		e.logger.Info("Engine: opportunity accepted",
			"pair", opp.Pair.String(),
			"buy", opp.BuyExchange,
			"sell", opp.SellExchange,
			"spread_pct", opp.SpreadPct.StringFixed(4),
			"net_profit_usd", opp.NetProfitUSD.StringFixed(2),
			"roi_pct", opp.ROIPct.StringFixed(4),
		)
	}

	if ctx.Err() != nil {
		return nil, stats, ctx.Err()
	}

	ranked := Rank(accepted, e.topN)
	stats.FinishedAt = e.now()
	e.last.Store(&cycleResult{opportunities: ranked, at: stats.FinishedAt})

	e.logger.Info("Engine: cycle complete",
		"pairs_checked", stats.PairsChecked,
		"candidates", stats.Candidates,
		"accepted", stats.Accepted,
		"rejected", stats.Rejected,
		"ranked", len(ranked),
	)
	return ranked, stats, nil
}

// LastOpportunities returns the ranking from the most recently completed
// cycle, or nothing once it is older than the opportunity TTL. The slice is
// read-only by convention; it is never mutated after publication.
func (e *Engine) LastOpportunities() []model.ArbitrageOpportunity {
	res := e.last.Load()
	if res == nil {
		return nil
	}
	if e.now().Sub(res.at) > e.opportunityTTL {
		return nil
	}
	return res.opportunities
}

// buildCandidate picks the cheapest and dearest tradable legs for a pair and
// estimates their effective execution prices. It returns false when fewer
// than two usable legs exist or there is no positive raw spread.
func (e *Engine) buildCandidate(pair model.CanonicalPair, in CycleInput) (*Candidate, bool) {
	listings := in.Pairs[pair]

	exchanges := make([]string, 0, len(listings))
	for exchange := range listings {
		exchanges = append(exchanges, exchange)
	}
	sort.Strings(exchanges)

	var (
		buyExchange, sellExchange string
		buyQuote, sellQuote       model.ExchangeQuote
	)
	legs := 0
	for _, exchange := range exchanges {
		native := listings[exchange]
		quote, ok := in.Quotes[exchange][native]
		if !ok || !quote.Tradable || quote.LastPrice.Sign() <= 0 {
			continue
		}
		legs++
		if buyExchange == "" || quote.LastPrice.LessThan(buyQuote.LastPrice) {
			buyExchange, buyQuote = exchange, quote
		}
		if sellExchange == "" || quote.LastPrice.GreaterThan(sellQuote.LastPrice) {
			sellExchange, sellQuote = exchange, quote
		}
	}
	if legs < 2 || buyExchange == sellExchange {
		return nil, false
	}
	if !buyQuote.LastPrice.LessThan(sellQuote.LastPrice) {
		return nil, false
	}

	// The walk quantity comes from the unslipped buy price; the final
	// quantity is re-derived from the effective price so that
	// quantity * buy_price_effective == capital.
	prelimQty := in.CapitalUSD.Div(buyQuote.LastPrice)
	buyEstimate := e.estimator.EffectivePrice(in.Books[buyExchange][listings[buyExchange]], buyQuote, SideBuy, prelimQty)
	if buyEstimate.Price.Sign() <= 0 {
		return nil, false
	}
	quantity := in.CapitalUSD.Div(buyEstimate.Price)
	sellEstimate := e.estimator.EffectivePrice(in.Books[sellExchange][listings[sellExchange]], sellQuote, SideSell, quantity)

	return &Candidate{
		Pair:         pair,
		BuyExchange:  buyExchange,
		SellExchange: sellExchange,
		BuyQuote:     buyQuote,
		SellQuote:    sellQuote,
		BuyEstimate:  buyEstimate,
		SellEstimate: sellEstimate,
		BuyFeePct:    e.takerFee(buyExchange),
		SellFeePct:   e.takerFee(sellExchange),
		CapitalUSD:   in.CapitalUSD,
	}, true
}

// resolveTransfer returns the lazy network resolution for a candidate. The
// transfer can go over the base asset (withdrawn from the buy exchange) or,
// when the quote asset is USD-stable, over the quote asset in the opposite
// direction; whichever common network is cheaper wins. Both legs failing
// means no common network exists.
func (e *Engine) resolveTransfer(in CycleInput) NetworkResolverFunc {
	return func(c *Candidate) (model.NetworkChoice, error) {
		baseChoice, baseErr := e.resolveAsset(in, c.Pair.Base, c.BuyExchange, c.SellExchange, c.BuyEstimate.Price)

		var (
			quoteChoice model.NetworkChoice
			quoteErr    = model.ErrNoCommonNetwork
		)
		if stableQuotes[c.Pair.Quote] {
			quoteChoice, quoteErr = e.resolveAsset(in, c.Pair.Quote, c.SellExchange, c.BuyExchange, decimal.NewFromInt(1))
		}

		switch {
		case baseErr == nil && quoteErr == nil:
			if quoteChoice.TotalFeeUSD.LessThan(baseChoice.TotalFeeUSD) {
				return quoteChoice, nil
			}
			return baseChoice, nil
		case baseErr == nil:
			return baseChoice, nil
		case quoteErr == nil:
			return quoteChoice, nil
		default:
			return model.NetworkChoice{}, baseErr
		}
	}
}

func (e *Engine) resolveAsset(in CycleInput, asset, fromExchange, toExchange string, assetPriceUSD decimal.Decimal) (model.NetworkChoice, error) {
	perExchange, ok := in.Networks[asset]
	if !ok {
		return model.NetworkChoice{}, model.ErrNoCommonNetwork
	}
	from, okFrom := perExchange[fromExchange]
	to, okTo := perExchange[toExchange]
	if !okFrom || !okTo {
		return model.NetworkChoice{}, model.ErrNoCommonNetwork
	}
	return e.resolver.Resolve(from, to, assetPriceUSD)
}
