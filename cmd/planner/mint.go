package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"v4planner/internal/chain"
	"v4planner/internal/config"
	"v4planner/internal/entity"
	"v4planner/internal/lens"
	"v4planner/internal/planner"
)

func runMint(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadMint(cfgFile, cmd.Flags())
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
	if cfg.PositionManager == "" {
		return fmt.Errorf("position manager address is required")
	}
	if cfg.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if cfg.Deadline == 0 {
		return fmt.Errorf("deadline is required")
	}
	amount0, err := parseRawAmount("amount0", cfg.Amount0)
	if err != nil {
		return err
	}
	amount1, err := parseRawAmount("amount1", cfg.Amount1)
	if err != nil {
		return err
	}
	if amount0.Sign() == 0 && amount1.Sign() == 0 {
		return fmt.Errorf("at least one of amount0 and amount1 must be positive")
	}

	posManager, err := parseAddress("position-manager", cfg.PositionManager)
	if err != nil {
		return err
	}
	owner, err := parseAddress("owner", cfg.Owner)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

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
	poolLens := lens.New(chainClient, manager).AtBlock(new(big.Int).SetUint64(block))

	pool, err := poolLens.PoolSnapshot(ctx, key)
	if err != nil {
		return err
	}

	deadline := new(big.Int).SetUint64(cfg.Deadline)
	call, pos, err := buildMintCall(pool, cfg.TickLower, cfg.TickUpper, amount0, amount1, cfg.SlippageBips, owner, deadline)
	if err != nil {
		return err
	}

	logger.Info("mint planned",
		zap.String("pool_id", pool.PoolID().Hex()),
		zap.String("position_manager", posManager.Hex()),
		zap.Int("tick_lower", pos.TickLower),
		zap.Int("tick_upper", pos.TickUpper),
		zap.String("liquidity", pos.Liquidity.String()),
		zap.Uint64("block", block),
	)

	fmt.Println("0x" + hex.EncodeToString(call))

	return nil
}

// buildMintCall sizes the largest position the amounts can fund, caps the
// pulls with the slippage tolerance, and wraps the planned mint in a
// modifyLiquidities call for the position manager.
func buildMintCall(pool *entity.Pool, tickLower, tickUpper int, amount0, amount1 *big.Int, slippageBips int, owner common.Address, deadline *big.Int) ([]byte, *entity.Position, error) {
	if slippageBips < 0 {
		return nil, nil, fmt.Errorf("negative slippage tolerance")
	}

	pos, err := entity.PositionFromAmounts(pool, tickLower, tickUpper, amount0, amount1)
	if err != nil {
		return nil, nil, err
	}
	if pos.Liquidity.Sign() == 0 {
		return nil, nil, fmt.Errorf("amounts fund no liquidity in range [%d, %d]", tickLower, tickUpper)
	}

	need0, need1, err := pos.MintAmounts()
	if err != nil {
		return nil, nil, err
	}
	max0 := capWithSlippage(need0.Raw, slippageBips)
	max1 := capWithSlippage(need1.Raw, slippageBips)

	plan := planner.NewPositionPlanner()
	if err := plan.AddMint(pos, max0, max1, owner, nil); err != nil {
		return nil, nil, err
	}
	payload, err := plan.Finalize()
	if err != nil {
		return nil, nil, err
	}

	call, err := planner.EncodeModifyLiquidities(payload, deadline)
	if err != nil {
		return nil, nil, err
	}
	return call, pos, nil
}

// capWithSlippage scales a pull amount by (1 + tolerance), rounded up.
func capWithSlippage(raw *big.Int, bips int) *big.Int {
	grow := new(big.Int).Mul(raw, big.NewInt(10000+int64(bips)))
	rem := new(big.Int)
	grow.DivMod(grow, big.NewInt(10000), rem)
	if rem.Sign() != 0 {
		grow.Add(grow, big.NewInt(1))
	}
	return grow
}

func parseRawAmount(name, value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%s: malformed amount %q", name, value)
	}
	return amount, nil
}
