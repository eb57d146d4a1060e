package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"v4planner/internal/model"
)

// Store provides Postgres persistence for pool metadata, tick snapshots
// and quotes.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolRecord) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_id, currency0, currency1, fee, tick_spacing, hooks, first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (chain_id, pool_id)
			DO UPDATE SET
				currency0 = EXCLUDED.currency0,
				currency1 = EXCLUDED.currency1,
				fee = EXCLUDED.fee,
				tick_spacing = EXCLUDED.tick_spacing,
				hooks = EXCLUDED.hooks,
				first_seen_block = LEAST(pools.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(pool.ChainID),
			pool.PoolID,
			pool.Currency0,
			pool.Currency1,
			pool.Fee,
			pool.TickSpacing,
			pool.Hooks,
			int64(pool.FirstSeenBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertTicks inserts or updates tick snapshots for one pool and block.
func (s *Store) UpsertTicks(ctx context.Context, ticks []model.TickSnapshot) error {
	if len(ticks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range ticks {
		batch.Queue(`
			INSERT INTO tick_snapshots (
				chain_id, pool_id, block_number, tick,
				liquidity_gross, liquidity_net, fee_growth_outside0, fee_growth_outside1,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
			ON CONFLICT (chain_id, pool_id, block_number, tick)
			DO UPDATE SET
				liquidity_gross = EXCLUDED.liquidity_gross,
				liquidity_net = EXCLUDED.liquidity_net,
				fee_growth_outside0 = EXCLUDED.fee_growth_outside0,
				fee_growth_outside1 = EXCLUDED.fee_growth_outside1,
				updated_at = now()
		`,
			int64(t.ChainID),
			t.PoolID,
			int64(t.BlockNumber),
			t.Tick,
			t.LiquidityGross,
			t.LiquidityNet,
			t.FeeGrowthOutside0,
			t.FeeGrowthOutside1,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range ticks {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadTicks returns the tick snapshots for a pool at a block, ordered by
// tick.
func (s *Store) LoadTicks(ctx context.Context, chainID uint64, poolID string, blockNumber uint64) ([]model.TickSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tick, liquidity_gross, liquidity_net, fee_growth_outside0, fee_growth_outside1
		FROM tick_snapshots
		WHERE chain_id=$1 AND pool_id=$2 AND block_number=$3
		ORDER BY tick
	`, int64(chainID), poolID, int64(blockNumber))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []model.TickSnapshot
	for rows.Next() {
		t := model.TickSnapshot{ChainID: chainID, PoolID: poolID, BlockNumber: blockNumber}
		if err := rows.Scan(&t.Tick, &t.LiquidityGross, &t.LiquidityNet, &t.FeeGrowthOutside0, &t.FeeGrowthOutside1); err != nil {
			return nil, err
		}
		ticks = append(ticks, t)
	}
	return ticks, rows.Err()
}

// InsertQuotes appends quote records.
func (s *Store) InsertQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(`
			INSERT INTO quotes (
				chain_id, pool_id, trade_type, currency_in, currency_out,
				amount_in, amount_out, execution_price, price_impact,
				block_number, quoted_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			int64(q.ChainID),
			q.PoolID,
			q.TradeType,
			q.CurrencyIn,
			q.CurrencyOut,
			q.AmountIn,
			q.AmountOut,
			q.ExecutionPrice,
			q.PriceImpact,
			int64(q.BlockNumber),
			q.QuotedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range quotes {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_snapshot_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_snapshot_block FROM planner_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveState upserts last_snapshot_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO planner_state (name, last_snapshot_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_snapshot_block = EXCLUDED.last_snapshot_block, updated_at = now()
	`, name, block)
	return err
}
