package arbitrage

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"arbscan/internal/model"
)

// GasFees maps a network to its fixed gas cost in USD. DefaultGasFeeUSD is
// used for networks not listed.
type GasFees struct {
	PerNetwork map[string]decimal.Decimal
	Default    decimal.Decimal
}

// For returns the gas fee for a network.
func (g GasFees) For(network string) decimal.Decimal {
	if fee, ok := g.PerNetwork[network]; ok {
		return fee
	}
	return g.Default
}

// NetworkResolver finds the lowest-total-fee withdrawal/deposit network
// common to the two exchanges involved in a transfer.
type NetworkResolver struct {
	gas GasFees
}

// NewNetworkResolver creates a resolver with the given gas fee table.
func NewNetworkResolver(gas GasFees) *NetworkResolver {
	return &NetworkResolver{gas: gas}
}

// Resolve intersects the supported networks of the withdrawing (from) and
// depositing (to) exchanges and returns the candidate with the lowest total
// fee: the from-side withdrawal fee converted to USD plus the network's gas
// fee. Ties are broken by lexical network name so the choice is
// deterministic. An empty intersection fails with ErrNoCommonNetwork; the
// resolver never silently falls back to a default network.
func (r *NetworkResolver) Resolve(from, to model.NetworkInfo, assetPriceUSD decimal.Decimal) (model.NetworkChoice, error) {
	var common []string
	for _, network := range from.SupportedNetworks {
		if to.Supports(network) {
			common = append(common, network)
		}
	}
	if len(common) == 0 {
		return model.NetworkChoice{}, fmt.Errorf("%w: %s has no overlap between %s and %s",
			model.ErrNoCommonNetwork, from.Asset, from.Exchange, to.Exchange)
	}
	sort.Strings(common)

	best := model.NetworkChoice{}
	found := false
	for _, network := range common {
		fee, ok := from.WithdrawalFee[network]
		if !ok {
			continue
		}
		withdrawalUSD := fee.USD(assetPriceUSD)
		gasUSD := r.gas.For(network)
		totalUSD := withdrawalUSD.Add(gasUSD)
		// Strict less-than keeps the lexically first name on equal fees.
		if !found || totalUSD.LessThan(best.TotalFeeUSD) {
			best = model.NetworkChoice{
				Asset:            from.Asset,
				Network:          network,
				WithdrawalFeeUSD: withdrawalUSD,
				GasFeeUSD:        gasUSD,
				TotalFeeUSD:      totalUSD,
			}
			found = true
		}
	}
	if !found {
		return model.NetworkChoice{}, fmt.Errorf("%w: %s common networks lack withdrawal fees on %s",
			model.ErrNoCommonNetwork, from.Asset, from.Exchange)
	}
	return best, nil
}
