package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"arbscan/internal/cache"
	"arbscan/internal/model"
)

// networkDataTTL matches the refresh interval for network and fee data.
const networkDataTTL = time.Hour

// staticNetworks lists the supported transfer networks per asset per
// exchange for the assets that dominate cross-exchange flow.
var staticNetworks = map[string]map[string][]string{
	"USDT": {
		"binance": {"BEP20", "ERC20", "TRC20", "SOL", "MATIC", "ARBITRUM", "OPTIMISM", "AVAX"},
		"kucoin":  {"ERC20", "TRC20", "SOL", "MATIC", "ARBITRUM", "OPTIMISM", "AVAX"},
		"gate":    {"ERC20", "TRC20", "SOL", "ARBITRUM", "OPTIMISM", "BEP20"},
		"mexc":    {"ERC20", "TRC20", "SOL", "ARBITRUM", "OPTIMISM", "BEP20"},
		"htx":     {"ERC20", "TRC20", "SOL", "ARBITRUM", "OPTIMISM", "BEP20"},
		"okx":     {"ERC20", "TRC20", "SOL", "ARBITRUM", "OPTIMISM", "BEP20"},
	},
	"BTC": {
		"binance": {"BTC", "BEP20", "ERC20", "TRC20", "SOL"},
		"kucoin":  {"BTC", "ERC20", "TRC20", "SOL"},
		"gate":    {"BTC", "ERC20", "TRC20", "SOL"},
		"mexc":    {"BTC", "ERC20", "TRC20", "SOL"},
		"htx":     {"BTC", "ERC20", "TRC20", "SOL"},
		"okx":     {"BTC", "ERC20", "TRC20", "SOL"},
	},
	"ETH": {
		"binance": {"ETH", "BEP20", "ARBITRUM", "OPTIMISM"},
		"kucoin":  {"ETH", "ARBITRUM", "OPTIMISM"},
		"gate":    {"ETH", "ARBITRUM", "OPTIMISM", "BEP20"},
		"mexc":    {"ETH", "ARBITRUM", "OPTIMISM", "BEP20"},
		"htx":     {"ETH", "ARBITRUM", "OPTIMISM", "BEP20"},
		"okx":     {"ETH", "ARBITRUM", "OPTIMISM", "BEP20"},
	},
	"BNB": {
		"binance": {"BEP20", "BEP2"},
		"kucoin":  {"BEP20"},
		"gate":    {"BEP20"},
		"mexc":    {"BEP20"},
		"htx":     {"BEP20"},
		"okx":     {"BEP20"},
	},
	"SOL": {
		"binance": {"SOL", "BEP20"},
		"kucoin":  {"SOL"},
		"gate":    {"SOL"},
		"mexc":    {"SOL"},
		"htx":     {"SOL"},
		"okx":     {"SOL"},
	},
	"MATIC": {
		"binance": {"MATIC", "BEP20", "ERC20"},
		"kucoin":  {"MATIC", "ERC20"},
		"gate":    {"MATIC", "ERC20"},
		"mexc":    {"MATIC", "ERC20"},
		"htx":     {"MATIC", "ERC20"},
		"okx":     {"MATIC", "ERC20"},
	},
	"AVAX": {
		"binance": {"AVAX", "BEP20", "ERC20"},
		"kucoin":  {"AVAX", "ERC20"},
		"gate":    {"AVAX", "ERC20"},
		"mexc":    {"AVAX", "ERC20"},
		"htx":     {"AVAX", "ERC20"},
		"okx":     {"AVAX", "ERC20"},
	},
}

func usd(s string) model.Amount {
	return model.Amount{Value: decimal.RequireFromString(s), Denom: model.DenomUSD}
}

func token(s string) model.Amount {
	return model.Amount{Value: decimal.RequireFromString(s), Denom: model.DenomToken}
}

// withdrawalFees holds per-asset per-network withdrawal costs. BTC and ETH
// charge in the token itself; stablecoins charge flat USD.
var withdrawalFees = map[string]map[string]model.Amount{
	"BTC": {
		"BTC":   token("0.0005"),
		"BEP20": token("0.0000005"),
		"ERC20": token("0.0005"),
	},
	"ETH": {
		"ETH":      token("0.005"),
		"BEP20":    token("0.0001"),
		"ARBITRUM": token("0.0001"),
		"OPTIMISM": token("0.0001"),
	},
	"USDT": {
		"ERC20":    usd("15"),
		"TRC20":    usd("1"),
		"BEP20":    usd("1"),
		"SOL":      usd("1"),
		"MATIC":    usd("0.8"),
		"ARBITRUM": usd("0.8"),
		"OPTIMISM": usd("0.8"),
		"AVAX":     usd("0.8"),
	},
}

// defaultWithdrawalFees applies to assets without a specific entry.
var defaultWithdrawalFees = map[string]model.Amount{
	"ERC20": usd("15"),
	"TRC20": usd("1"),
	"BEP20": usd("1"),
}

// fallbackWithdrawalFee covers networks absent from every table.
var fallbackWithdrawalFee = usd("5")

// gasFees is the fixed per-network gas cost in USD.
var gasFees = map[string]decimal.Decimal{
	"ERC20":    decimal.RequireFromString("5"),
	"TRC20":    decimal.RequireFromString("0.5"),
	"BEP20":    decimal.RequireFromString("0.3"),
	"SOL":      decimal.RequireFromString("0.01"),
	"MATIC":    decimal.RequireFromString("0.1"),
	"ARBITRUM": decimal.RequireFromString("0.3"),
	"OPTIMISM": decimal.RequireFromString("0.2"),
	"AVAX":     decimal.RequireFromString("0.2"),
}

var defaultGasFee = decimal.RequireFromString("1")

// GasFeeTable returns the per-network gas costs in USD and the default for
// unlisted networks.
func GasFeeTable() (map[string]decimal.Decimal, decimal.Decimal) {
	table := make(map[string]decimal.Decimal, len(gasFees))
	for network, fee := range gasFees {
		table[network] = fee
	}
	return table, defaultGasFee
}

// NetworkSource loads per-exchange network info for one asset. The static
// seed below is the default; a live withdrawal-config API can replace it.
type NetworkSource func(ctx context.Context, asset string) (map[string]model.NetworkInfo, error)

// NetworkDirectory answers per-asset network questions, caching each asset's
// data for an hour the way the upstream withdrawal configs are cached.
type NetworkDirectory struct {
	cache  *cache.TTL[string, map[string]model.NetworkInfo]
	source NetworkSource
}

// NewNetworkDirectory creates a directory over the given source, or over the
// static seed when source is nil.
func NewNetworkDirectory(clock cache.Clock, source NetworkSource) *NetworkDirectory {
	if source == nil {
		source = StaticNetworkSource
	}
	return &NetworkDirectory{
		cache:  cache.NewTTL[string, map[string]model.NetworkInfo](clock),
		source: source,
	}
}

// Networks returns exchange -> network info for one asset. Unknown assets
// resolve to an empty map; the caller treats that as no common network.
func (d *NetworkDirectory) Networks(ctx context.Context, asset string) (map[string]model.NetworkInfo, error) {
	return d.cache.GetOrRefresh(ctx, asset, networkDataTTL, func(ctx context.Context) (map[string]model.NetworkInfo, error) {
		return d.source(ctx, asset)
	})
}

// StaticNetworkSource serves the built-in network and fee tables.
func StaticNetworkSource(_ context.Context, asset string) (map[string]model.NetworkInfo, error) {
	perExchange := staticNetworks[asset]
	infos := make(map[string]model.NetworkInfo, len(perExchange))
	for exchange, networks := range perExchange {
		fees := make(map[string]model.Amount, len(networks))
		for _, network := range networks {
			fees[network] = withdrawalFeeFor(asset, network)
		}
		infos[exchange] = model.NetworkInfo{
			Asset:             asset,
			Exchange:          exchange,
			SupportedNetworks: append([]string(nil), networks...),
			WithdrawalFee:     fees,
		}
	}
	return infos, nil
}

func withdrawalFeeFor(asset, network string) model.Amount {
	if perNetwork, ok := withdrawalFees[asset]; ok {
		if fee, ok := perNetwork[network]; ok {
			return fee
		}
	}
	if fee, ok := defaultWithdrawalFees[network]; ok {
		return fee
	}
	return fallbackWithdrawalFee
}
