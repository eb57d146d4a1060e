package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"v4planner/internal/chain"
	"v4planner/internal/config"
	"v4planner/internal/lens"
	"v4planner/internal/snapshot"
	"v4planner/internal/storage/postgres"
)

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSnapshot(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.PoolManager == "" {
		return fmt.Errorf("pool manager address is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID := cfg.ChainID
	if chainID == 0 {
		id, err := chainClient.GetChainID(ctx)
		if err != nil {
			return fmt.Errorf("chain id: %w", err)
		}
		chainID = id.Uint64()
	}

	key, err := resolvePoolKey(ctx, chainClient, cfg.Currency0, cfg.Currency1, cfg.Fee, cfg.TickSpacing, cfg.Hooks, cfg.NativeDecimals, cfg.NativeSymbol, logger)
	if err != nil {
		return err
	}

	block := cfg.Block
	if block == 0 {
		block, err = chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("latest block: %w", err)
		}
	}

	manager, err := parseAddress("pool-manager", cfg.PoolManager)
	if err != nil {
		return err
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	poolLens := lens.New(chainClient, manager).AtBlock(new(big.Int).SetUint64(block))
	svc := snapshot.NewService(poolLens, store, chainID, cfg.MaxRetries, cfg.RetryBackoff, logger)

	logger.Info("snapshot start",
		zap.String("pool_id", key.PoolID().Hex()),
		zap.Uint64("block", block),
		zap.Uint64("chain_id", chainID),
	)

	count, err := svc.Capture(ctx, key, block)
	if err != nil {
		return err
	}

	logger.Info("snapshot done", zap.Int("ticks", count))
	return nil
}
