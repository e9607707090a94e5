package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CanonicalPair is the exchange-independent Base/Quote identifier for a
// trading pair. Base and Quote are always uppercase and never equal.
type CanonicalPair struct {
	Base  string
	Quote string
}

// String renders the pair in its canonical "BASE/QUOTE" form.
func (p CanonicalPair) String() string {
	return p.Base + "/" + p.Quote
}

// ParsePair parses a canonical "BASE/QUOTE" string.
func ParsePair(s string) (CanonicalPair, error) {
	base, quote, ok := strings.Cut(s, "/")
	if !ok || base == "" || quote == "" || strings.EqualFold(base, quote) {
		return CanonicalPair{}, fmt.Errorf("%w: %q", ErrUnparseableSymbol, s)
	}
	return CanonicalPair{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote)}, nil
}

// ExchangeQuote is an immutable snapshot of the last trade price and 24h
// volume for one instrument on one exchange. The engine only reads these;
// connectors create and refresh them.
type ExchangeQuote struct {
	Exchange     string
	NativeSymbol string
	LastPrice    decimal.Decimal
	Volume24hUSD decimal.Decimal
	Tradable     bool
	ObservedAt   time.Time
}

// PriceLevel is one (price, quantity) level of an order book.
type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// OrderBookSnapshot holds one capture of an instrument's book: bids ordered
// price-descending, asks price-ascending.
type OrderBookSnapshot struct {
	Exchange     string
	NativeSymbol string
	Bids         []PriceLevel
	Asks         []PriceLevel
	Depth        int
	CapturedAt   time.Time
}

// Denomination tags how a fee amount is expressed.
type Denomination int

const (
	// DenomToken means the amount is in units of the withdrawn asset.
	DenomToken Denomination = iota
	// DenomUSD means the amount is already in US dollars.
	DenomUSD
)

// Amount is a fee amount tagged with its denomination.
type Amount struct {
	Value decimal.Decimal
	Denom Denomination
}

// USD converts the amount to US dollars. assetPriceUSD is the USD price of
// one unit of the asset and is only consulted for token-denominated amounts.
func (a Amount) USD(assetPriceUSD decimal.Decimal) decimal.Decimal {
	if a.Denom == DenomUSD {
		return a.Value
	}
	return a.Value.Mul(assetPriceUSD)
}

// NetworkInfo describes the withdrawal/deposit networks one exchange
// supports for one asset, with the per-network withdrawal fee.
type NetworkInfo struct {
	Asset             string
	Exchange          string
	SupportedNetworks []string
	WithdrawalFee     map[string]Amount
}

// Supports reports whether the exchange lists the given network for the asset.
func (n NetworkInfo) Supports(network string) bool {
	for _, net := range n.SupportedNetworks {
		if net == network {
			return true
		}
	}
	return false
}

// NetworkChoice is a resolved transfer route: the cheapest network common to
// both legs and its total cost in USD.
type NetworkChoice struct {
	Asset            string
	Network          string
	WithdrawalFeeUSD decimal.Decimal
	GasFeeUSD        decimal.Decimal
	TotalFeeUSD      decimal.Decimal
}

// EstimateSource records how an effective execution price was obtained.
type EstimateSource string

const (
	// EstimateBook means the price came from walking order-book depth.
	EstimateBook EstimateSource = "book"
	// EstimateHeuristic means the volume-based fallback was used.
	EstimateHeuristic EstimateSource = "heuristic"
)

// ArbitrageOpportunity is a fully validated, immutable result of one
// evaluation cycle. It is never mutated or incrementally updated after
// creation; each cycle recomputes the full set from scratch.
type ArbitrageOpportunity struct {
	ID                 uuid.UUID
	Pair               CanonicalPair
	BuyExchange        string
	SellExchange       string
	BuyPriceEffective  decimal.Decimal
	SellPriceEffective decimal.Decimal
	BuyEstimate        EstimateSource
	SellEstimate       EstimateSource
	Quantity           decimal.Decimal
	BuyFeeUSD          decimal.Decimal
	SellFeeUSD         decimal.Decimal
	WithdrawalFeeUSD   decimal.Decimal
	ChosenNetwork      string
	TransferAsset      string
	SpreadPct          decimal.Decimal
	GrossProfitUSD     decimal.Decimal
	NetProfitUSD       decimal.Decimal
	ROIPct             decimal.Decimal
	CreatedAt          time.Time
}

// CycleStats summarizes one evaluation cycle.
type CycleStats struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	PairsChecked   int
	Candidates     int
	Accepted       int
	Rejected       int
	RejectByReason map[RejectReason]int
}
