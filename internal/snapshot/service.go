package snapshot

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"v4planner/internal/entity"
	"v4planner/internal/lens"
	"v4planner/internal/model"
	"v4planner/internal/tickmath"
)

// Store persists captured pool state.
type Store interface {
	UpsertPools(ctx context.Context, pools []model.PoolRecord) error
	UpsertTicks(ctx context.Context, ticks []model.TickSnapshot) error
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, block uint64) error
}

const stateKeyPrefix = "last_snapshot_block"

func stateName(poolID common.Hash) string {
	return stateKeyPrefix + ":" + poolID.Hex()
}

// Service captures a pool's initialized ticks at a block and persists them.
type Service struct {
	lens         *lens.Lens
	store        Store
	logger       *zap.Logger
	chainID      uint64
	maxRetries   int
	retryBackoff time.Duration
}

func NewService(l *lens.Lens, store Store, chainID uint64, maxRetries int, retryBackoff time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		lens:         l,
		store:        store,
		logger:       logger,
		chainID:      chainID,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

// Capture walks the pool's tick bitmap at block, stores every initialized
// tick, and records the block in the state table. A pool already captured
// at this block is skipped. It returns the number of ticks captured.
func (s *Service) Capture(ctx context.Context, key entity.PoolKey, block uint64) (int, error) {
	if block == 0 {
		return 0, fmt.Errorf("block number is required")
	}

	poolID := key.PoolID()
	if stored, ok, err := s.store.LoadState(ctx, stateName(poolID)); err != nil {
		return 0, fmt.Errorf("load state: %w", err)
	} else if ok && stored == block {
		s.logger.Info("snapshot current, skipping",
			zap.String("pool_id", poolID.Hex()),
			zap.Uint64("block", block),
		)
		return 0, nil
	}

	l := s.lens.AtBlock(new(big.Int).SetUint64(block))

	var slot0 lens.Slot0
	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		slot0, err = l.Slot0(ctx, poolID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("slot0: %w", err)
	}
	if slot0.SqrtRatioX96.Sign() == 0 {
		return 0, fmt.Errorf("pool %s not initialized at block %d", poolID, block)
	}

	ticks, err := s.collectTicks(ctx, l, poolID, key.TickSpacing, block)
	if err != nil {
		return 0, err
	}

	record := model.PoolRecord{
		ChainID:        s.chainID,
		PoolID:         poolID.Hex(),
		Currency0:      key.Currency0.Address.Hex(),
		Currency1:      key.Currency1.Address.Hex(),
		Fee:            key.Fee,
		TickSpacing:    int32(key.TickSpacing),
		Hooks:          key.Hooks.Hex(),
		FirstSeenBlock: block,
	}
	if err := s.store.UpsertPools(ctx, []model.PoolRecord{record}); err != nil {
		return 0, fmt.Errorf("upsert pool: %w", err)
	}
	if err := s.store.UpsertTicks(ctx, ticks); err != nil {
		return 0, fmt.Errorf("upsert ticks: %w", err)
	}
	if err := s.store.SaveState(ctx, stateName(poolID), block); err != nil {
		return 0, fmt.Errorf("save state: %w", err)
	}

	s.logger.Info("snapshot captured",
		zap.String("pool_id", poolID.Hex()),
		zap.Uint64("block", block),
		zap.Int("ticks", len(ticks)),
		zap.Int("current_tick", slot0.Tick),
	)

	return len(ticks), nil
}

// collectTicks scans every bitmap word the spacing allows and reads the
// state of each set bit.
func (s *Service) collectTicks(ctx context.Context, l *lens.Lens, poolID common.Hash, tickSpacing int, block uint64) ([]model.TickSnapshot, error) {
	minWord := floorDiv(floorDiv(tickmath.MinTick, tickSpacing), 256)
	maxWord := floorDiv(floorDiv(tickmath.MaxTick, tickSpacing), 256)

	var ticks []model.TickSnapshot
	for wordPos := minWord; wordPos <= maxWord; wordPos++ {
		var word *big.Int
		err := s.retry(ctx, func(ctx context.Context) error {
			var err error
			word, err = l.BitmapWord(ctx, poolID, wordPos)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("bitmap word %d: %w", wordPos, err)
		}
		if word.Sign() == 0 {
			continue
		}

		for bit := 0; bit < 256; bit++ {
			if word.Bit(bit) == 0 {
				continue
			}
			tick := (wordPos*256 + bit) * tickSpacing
			snap, err := s.readTick(ctx, l, poolID, tick, block)
			if err != nil {
				return nil, err
			}
			ticks = append(ticks, snap)
		}
	}

	return ticks, nil
}

func (s *Service) readTick(ctx context.Context, l *lens.Lens, poolID common.Hash, tick int, block uint64) (model.TickSnapshot, error) {
	var gross, net, fee0, fee1 *big.Int
	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		gross, net, err = l.TickLiquidity(ctx, poolID, tick)
		if err != nil {
			return err
		}
		fee0, fee1, err = l.TickFeeGrowthOutside(ctx, poolID, tick)
		return err
	})
	if err != nil {
		return model.TickSnapshot{}, fmt.Errorf("tick %d: %w", tick, err)
	}

	return model.TickSnapshot{
		ChainID:           s.chainID,
		PoolID:            poolID.Hex(),
		BlockNumber:       block,
		Tick:              int32(tick),
		LiquidityGross:    gross.String(),
		LiquidityNet:      net.String(),
		FeeGrowthOutside0: fee0.String(),
		FeeGrowthOutside1: fee1.String(),
	}, nil
}

func (s *Service) retry(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := s.maxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := s.retryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
