package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbscan/internal/model"
)

// Repository defines the standard interface for database operations.
type Repository interface {
	SaveOpportunities(ctx context.Context, opportunities []model.ArbitrageOpportunity) error
	LogCycleStats(ctx context.Context, stats model.CycleStats) error
}

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository connects a pool to the given DSN.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

// Close releases the underlying pool.
func (r *PostgresRepository) Close() {
	r.Pool.Close()
}

const createOpportunitiesSQL = `
CREATE TABLE IF NOT EXISTS opportunities (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	trading_pair VARCHAR(30) NOT NULL,
	buy_exchange VARCHAR(50) NOT NULL,
	sell_exchange VARCHAR(50) NOT NULL,
	buy_price_effective NUMERIC(30, 12) NOT NULL,
	sell_price_effective NUMERIC(30, 12) NOT NULL,
	buy_estimate VARCHAR(10) NOT NULL,
	sell_estimate VARCHAR(10) NOT NULL,
	quantity NUMERIC(30, 12) NOT NULL,
	buy_fee_usd NUMERIC(30, 12) NOT NULL,
	sell_fee_usd NUMERIC(30, 12) NOT NULL,
	withdrawal_fee_usd NUMERIC(30, 12) NOT NULL,
	chosen_network VARCHAR(20) NOT NULL,
	transfer_asset VARCHAR(20) NOT NULL,
	spread_pct NUMERIC(20, 8) NOT NULL,
	gross_profit_usd NUMERIC(30, 12) NOT NULL,
	net_profit_usd NUMERIC(30, 12) NOT NULL,
	roi_pct NUMERIC(20, 8) NOT NULL
);`

const createCycleStatsSQL = `
CREATE TABLE IF NOT EXISTS cycle_stats (
	id SERIAL PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	pairs_checked INT NOT NULL,
	candidates INT NOT NULL,
	accepted INT NOT NULL,
	rejected INT NOT NULL,
	reject_by_reason JSONB NOT NULL
);`

// Migrate creates the tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createOpportunitiesSQL, createCycleStatsSQL} {
		if _, err := r.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const insertOpportunitySQL = `
INSERT INTO opportunities (
	id, created_at, trading_pair, buy_exchange, sell_exchange,
	buy_price_effective, sell_price_effective, buy_estimate, sell_estimate,
	quantity, buy_fee_usd, sell_fee_usd, withdrawal_fee_usd,
	chosen_network, transfer_asset, spread_pct,
	gross_profit_usd, net_profit_usd, roi_pct
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

// SaveOpportunities inserts one cycle's accepted opportunities in a single
// batch.
func (r *PostgresRepository) SaveOpportunities(ctx context.Context, opportunities []model.ArbitrageOpportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, opp := range opportunities {
		batch.Queue(insertOpportunitySQL,
			opp.ID, opp.CreatedAt, opp.Pair.String(), opp.BuyExchange, opp.SellExchange,
			opp.BuyPriceEffective.String(), opp.SellPriceEffective.String(),
			string(opp.BuyEstimate), string(opp.SellEstimate),
			opp.Quantity.String(), opp.BuyFeeUSD.String(), opp.SellFeeUSD.String(),
			opp.WithdrawalFeeUSD.String(), opp.ChosenNetwork, opp.TransferAsset,
			opp.SpreadPct.String(), opp.GrossProfitUSD.String(),
			opp.NetProfitUSD.String(), opp.ROIPct.String(),
		)
	}

	results := r.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range opportunities {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert opportunity: %w", err)
		}
	}
	return nil
}

const insertCycleStatsSQL = `
INSERT INTO cycle_stats (
	started_at, finished_at, pairs_checked, candidates, accepted, rejected, reject_by_reason
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

// LogCycleStats records one cycle's counters.
func (r *PostgresRepository) LogCycleStats(ctx context.Context, stats model.CycleStats) error {
	reasons, err := json.Marshal(stats.RejectByReason)
	if err != nil {
		return fmt.Errorf("marshal reject reasons: %w", err)
	}
	_, err = r.Pool.Exec(ctx, insertCycleStatsSQL,
		stats.StartedAt, stats.FinishedAt,
		stats.PairsChecked, stats.Candidates, stats.Accepted, stats.Rejected,
		reasons,
	)
	if err != nil {
		return fmt.Errorf("insert cycle stats: %w", err)
	}
	return nil
}
