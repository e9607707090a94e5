package symbol

import (
	"fmt"
	"strings"

	"arbscan/internal/model"
)

// Convention describes how an exchange encodes an instrument name.
type Convention int

const (
	// ConventionConcatenated is base+quote with no separator (binance,
	// mexc, htx style, e.g. "BTCUSDT").
	ConventionConcatenated Convention = iota
	// ConventionDash is base-quote (kucoin, okx style, e.g. "BTC-USDT").
	ConventionDash
	// ConventionUnderscore is base_quote (gate style, e.g. "BTC_USDT").
	ConventionUnderscore
)

// ParseConvention maps a configuration string to a Convention.
func ParseConvention(s string) (Convention, error) {
	switch s {
	case "", "concatenated":
		return ConventionConcatenated, nil
	case "dash":
		return ConventionDash, nil
	case "underscore":
		return ConventionUnderscore, nil
	}
	return 0, fmt.Errorf("unknown symbol convention %q", s)
}

// quotePriority is the fixed candidate quote list for concatenated symbols,
// ordered longest/most-specific first. The ordering is a correctness-critical
// tie-break: "AVAXUSDT" must resolve to AVAX/USDT, never AVAXUSD+T, so USDT
// is tried before USD, BUSD before USD, and so on. Do not reorder.
var quotePriority = []string{
	"USDT", "USDC", "BUSD", "TUSD",
	"USD", "EUR",
	"BTC", "ETH", "BNB",
}

// Normalizer maps exchange-native instrument strings to canonical pairs.
// It is a pure lookup: identical input always yields identical output.
type Normalizer struct {
	conventions map[string]Convention
}

// NewNormalizer creates a Normalizer with per-exchange conventions.
func NewNormalizer(conventions map[string]Convention) *Normalizer {
	c := make(map[string]Convention, len(conventions))
	for k, v := range conventions {
		c[strings.ToLower(k)] = v
	}
	return &Normalizer{conventions: c}
}

// Normalize maps a native instrument string from the given exchange to a
// canonical pair. Normalizing an already-canonical "BASE/QUOTE" string is
// idempotent regardless of the exchange's convention.
func (n *Normalizer) Normalize(exchange, native string) (model.CanonicalPair, error) {
	conv, ok := n.conventions[strings.ToLower(exchange)]
	if !ok {
		return model.CanonicalPair{}, fmt.Errorf("%w: unknown exchange %q", model.ErrUnparseableSymbol, exchange)
	}
	return Normalize(native, conv)
}

// Normalize maps a native instrument string to a canonical pair under the
// given convention.
func Normalize(native string, conv Convention) (model.CanonicalPair, error) {
	s := strings.ToUpper(strings.TrimSpace(native))
	if s == "" {
		return model.CanonicalPair{}, fmt.Errorf("%w: empty symbol", model.ErrUnparseableSymbol)
	}

	// Already canonical, for any convention.
	if strings.Contains(s, "/") {
		return model.ParsePair(s)
	}

	switch conv {
	case ConventionDash:
		return splitOn(s, "-")
	case ConventionUnderscore:
		return splitOn(s, "_")
	case ConventionConcatenated:
		return splitConcatenated(s)
	}
	return model.CanonicalPair{}, fmt.Errorf("%w: %q", model.ErrUnparseableSymbol, native)
}

func splitOn(s, delim string) (model.CanonicalPair, error) {
	base, quote, ok := strings.Cut(s, delim)
	if !ok || base == "" || quote == "" || base == quote {
		return model.CanonicalPair{}, fmt.Errorf("%w: %q", model.ErrUnparseableSymbol, s)
	}
	return model.CanonicalPair{Base: base, Quote: quote}, nil
}

// splitConcatenated tries the candidate quote currencies in priority order;
// the first suffix match wins.
func splitConcatenated(s string) (model.CanonicalPair, error) {
	for _, quote := range quotePriority {
		if !strings.HasSuffix(s, quote) {
			continue
		}
		base := strings.TrimSuffix(s, quote)
		if base == "" || base == quote {
			continue
		}
		return model.CanonicalPair{Base: base, Quote: quote}, nil
	}
	return model.CanonicalPair{}, fmt.Errorf("%w: %q has no known quote suffix", model.ErrUnparseableSymbol, s)
}
