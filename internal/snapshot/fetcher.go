package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"arbscan/internal/model"
	"arbscan/internal/symbol"
)

// Books is an exchange -> native symbol -> order book view.
type Books = map[string]map[string]*model.OrderBookSnapshot

// Networks is an asset -> exchange -> network info view.
type Networks = map[string]map[string]model.NetworkInfo

// BookSource serves order-book snapshots for one exchange.
type BookSource interface {
	Name() string
	OrderBook(ctx context.Context, nativeSymbol string, depth int) (*model.OrderBookSnapshot, error)
}

// NetworkLookup answers per-asset network questions across exchanges.
type NetworkLookup interface {
	Networks(ctx context.Context, asset string) (map[string]model.NetworkInfo, error)
}

// fetchConcurrency bounds in-flight requests across all exchanges.
const fetchConcurrency = 16

// Fetcher gathers the slow-path data a cycle needs: order books for every
// candidate pair leg and network info for every involved asset. Individual
// failures are logged and skipped so one flaky endpoint cannot starve the
// cycle; only cancellation aborts the whole collection.
type Fetcher struct {
	logger      *slog.Logger
	sources     map[string]BookSource
	networks    NetworkLookup
	depth       int
	callTimeout time.Duration
}

// NewFetcher creates a Fetcher over the given per-exchange book sources.
func NewFetcher(logger *slog.Logger, sources []BookSource, networks NetworkLookup, depth int, callTimeout time.Duration) *Fetcher {
	byName := make(map[string]BookSource, len(sources))
	for _, src := range sources {
		byName[src.Name()] = src
	}
	return &Fetcher{
		logger:      logger,
		sources:     byName,
		networks:    networks,
		depth:       depth,
		callTimeout: callTimeout,
	}
}

// Collect fetches order books for every listing of every candidate pair and
// network info for each pair's base and quote asset, concurrently. It
// returns whatever arrived; a cancelled context returns the error and no
// partial data.
func (f *Fetcher) Collect(ctx context.Context, pairs symbol.PairSet) (Books, Networks, error) {
	var (
		mu       sync.Mutex
		books    = make(Books)
		networks = make(Networks)
	)

	assets := make(map[string]bool)
	for pair := range pairs {
		assets[pair.Base] = true
		assets[pair.Quote] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for pair, listings := range pairs {
		for exchange, native := range listings {
			src, ok := f.sources[exchange]
			if !ok {
				continue
			}
			pairName := pair.String()
			g.Go(func() error {
				callCtx, cancel := context.WithTimeout(gctx, f.callTimeout)
				defer cancel()

				book, err := src.OrderBook(callCtx, native, f.depth)
				if err != nil {
					f.logger.Warn("Fetcher: order book fetch failed",
						"exchange", exchange, "symbol", native, "pair", pairName, "error", err)
					return nil
				}

				mu.Lock()
				if books[exchange] == nil {
					books[exchange] = make(map[string]*model.OrderBookSnapshot)
				}
				books[exchange][native] = book
				mu.Unlock()
				return nil
			})
		}
	}

	for asset := range assets {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, f.callTimeout)
			defer cancel()

			infos, err := f.networks.Networks(callCtx, asset)
			if err != nil {
				f.logger.Warn("Fetcher: network lookup failed", "asset", asset, "error", err)
				return nil
			}
			if len(infos) == 0 {
				return nil
			}

			mu.Lock()
			networks[asset] = infos
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return books, networks, nil
}
