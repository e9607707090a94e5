package arbitrage

import (
	"sort"

	"arbscan/internal/model"
)

// Rank stable-sorts opportunities by net profit descending, breaking ties by
// ROI descending and then by canonical pair name ascending, and truncates to
// the top n. The tie-breaks make the ordering fully deterministic.
func Rank(opps []model.ArbitrageOpportunity, n int) []model.ArbitrageOpportunity {
	ranked := append([]model.ArbitrageOpportunity(nil), opps...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.NetProfitUSD.Equal(b.NetProfitUSD) {
			return a.NetProfitUSD.GreaterThan(b.NetProfitUSD)
		}
		if !a.ROIPct.Equal(b.ROIPct) {
			return a.ROIPct.GreaterThan(b.ROIPct)
		}
		return a.Pair.String() < b.Pair.String()
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
