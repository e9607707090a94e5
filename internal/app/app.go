// Package app wires the connectors, snapshot layer, engine and repository
// together and drives the scan loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"arbscan/internal/arbitrage"
	"arbscan/internal/cache"
	"arbscan/internal/config"
	"arbscan/internal/database"
	"arbscan/internal/exchange"
	"arbscan/internal/model"
	"arbscan/internal/snapshot"
	"arbscan/internal/symbol"
)

// quoteBufferSize absorbs ticker bursts from the all-market streams.
const quoteBufferSize = 4096

// App owns the long-running pieces of the scanner.
type App struct {
	logger     *slog.Logger
	cfg        *config.Config
	clients    []exchange.Client
	store      *snapshot.Store
	reconciler *symbol.Reconciler
	fetcher    *snapshot.Fetcher
	engine     *arbitrage.Engine
	repo       database.Repository
}

// New assembles the application from configuration. repo may be nil, in
// which case accepted opportunities are only logged.
func New(logger *slog.Logger, cfg *config.Config, repo database.Repository) (*App, error) {
	conventions := make(map[string]symbol.Convention, len(cfg.Exchanges))
	clients := make([]exchange.Client, 0, len(cfg.Exchanges))
	for name, exCfg := range cfg.Exchanges {
		conv, err := conventionFor(name, exCfg)
		if err != nil {
			return nil, fmt.Errorf("exchange %s: %w", name, err)
		}
		conventions[name] = conv

		client, err := exchange.NewClient(name, logger)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	normalizer := symbol.NewNormalizer(conventions)
	reconciler := symbol.NewReconciler(logger, normalizer, cfg.Arbitrage.MinExchangesForPair)

	directory := exchange.NewNetworkDirectory(cache.SystemClock{}, nil)
	sources := make([]snapshot.BookSource, 0, len(clients))
	for _, c := range clients {
		sources = append(sources, c)
	}
	fetcher := snapshot.NewFetcher(logger, sources, directory,
		cfg.Arbitrage.OrderBookDepth, cfg.Arbitrage.CallTimeout())

	gasTable, gasDefault := exchange.GasFeeTable()
	engine := arbitrage.NewEngine(logger, cfg, arbitrage.GasFees{
		PerNetwork: gasTable,
		Default:    gasDefault,
	}, nil)

	return &App{
		logger:     logger,
		cfg:        cfg,
		clients:    clients,
		store:      snapshot.NewStore(),
		reconciler: reconciler,
		fetcher:    fetcher,
		engine:     engine,
		repo:       repo,
	}, nil
}

func conventionFor(name string, cfg config.ExchangeConfig) (symbol.Convention, error) {
	if cfg.SymbolConvention != "" {
		return symbol.ParseConvention(cfg.SymbolConvention)
	}
	switch name {
	case "kucoin", "okx":
		return symbol.ConventionDash, nil
	case "gate":
		return symbol.ConventionUnderscore, nil
	default:
		return symbol.ConventionConcatenated, nil
	}
}

// Run starts the ticker streams, the quote collector and the scan loop, and
// blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	quotes := make(chan model.ExchangeQuote, quoteBufferSize)

	g, gctx := errgroup.WithContext(ctx)
	for _, client := range a.clients {
		g.Go(func() error {
			return client.StreamTickers(gctx, quotes)
		})
	}
	g.Go(func() error {
		if err := a.store.Run(gctx, quotes); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.scanLoop(gctx)
	})

	a.logger.Info("App: started", "exchanges", len(a.clients),
		"scan_interval", a.cfg.Arbitrage.ScanInterval().String())
	return g.Wait()
}

func (a *App) scanLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Arbitrage.ScanInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("App: scan loop stopped")
			return nil
		case <-ticker.C:
			if err := a.runCycle(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Error("App: cycle failed", "error", err)
			}
		}
	}
}

// runCycle executes one evaluation: reconcile the pair universe, collect the
// slow-path data, evaluate, and persist the results.
func (a *App) runCycle(ctx context.Context) error {
	// A cycle never outlives the scan interval.
	cycleCtx, cancel := context.WithTimeout(ctx, a.cfg.Arbitrage.ScanInterval())
	defer cancel()

	for _, client := range a.clients {
		a.reconciler.Update(client.Name(), a.store.Universe(client.Name()))
	}
	pairs := a.reconciler.Pairs()
	if len(pairs) == 0 {
		a.logger.Info("App: no common pairs yet, skipping cycle")
		return nil
	}

	books, networks, err := a.fetcher.Collect(cycleCtx, pairs)
	if err != nil {
		return fmt.Errorf("collect snapshots: %w", err)
	}

	input := arbitrage.CycleInput{
		Pairs:      pairs,
		Quotes:     a.store.Snapshot(),
		Books:      books,
		Networks:   networks,
		CapitalUSD: decimal.NewFromFloat(a.cfg.Arbitrage.CapitalUSD),
	}

	ranked, stats, err := a.engine.EvaluateCycle(cycleCtx, input)
	if err != nil {
		return fmt.Errorf("evaluate cycle: %w", err)
	}

	if a.repo != nil {
		if err := a.repo.SaveOpportunities(cycleCtx, ranked); err != nil {
			a.logger.Error("App: failed to save opportunities", "error", err)
		}
		if err := a.repo.LogCycleStats(cycleCtx, stats); err != nil {
			a.logger.Error("App: failed to log cycle stats", "error", err)
		}
	}
	return nil
}
