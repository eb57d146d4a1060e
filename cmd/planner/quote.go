package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"v4planner/internal/chain"
	"v4planner/internal/config"
	"v4planner/internal/entity"
	"v4planner/internal/lens"
	"v4planner/internal/model"
	"v4planner/internal/planner"
	"v4planner/internal/snapshot"
	"v4planner/internal/storage"
	"v4planner/internal/storage/postgres"
	"v4planner/internal/tokens"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
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
	if cfg.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(cfg.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return fmt.Errorf("malformed amount %q", cfg.Amount)
	}
	if cfg.FromDB && cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required with --from-db")
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
	poolLens := lens.New(chainClient, manager).AtBlock(new(big.Int).SetUint64(block))

	var pool *entity.Pool
	if cfg.FromDB {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		pool, err = poolFromStore(ctx, store, poolLens, key, chainID, block)
		if err != nil {
			return err
		}
	} else {
		pool, err = poolLens.PoolSnapshot(ctx, key)
		if err != nil {
			return err
		}
	}

	input, output := key.Currency0, key.Currency1
	if !cfg.ZeroForOne {
		input, output = output, input
	}
	route, err := entity.NewRoute([]*entity.Pool{pool}, input, output)
	if err != nil {
		return err
	}

	tradeType := entity.ExactInput
	tradeAmount := entity.NewCurrencyAmount(input, amount)
	if cfg.ExactOut {
		tradeType = entity.ExactOutput
		tradeAmount = entity.NewCurrencyAmount(output, amount)
	}
	trade, err := entity.TradeFromRoute(ctx, route, tradeAmount, tradeType)
	if err != nil {
		return err
	}

	impact, err := trade.PriceImpact()
	if err != nil {
		return err
	}

	quotedAt, err := chainClient.BlockTimestamp(ctx, block)
	if err != nil {
		return fmt.Errorf("block timestamp: %w", err)
	}

	record := model.QuoteRecord{
		ChainID:        chainID,
		PoolID:         pool.PoolID().Hex(),
		TradeType:      tradeType.String(),
		CurrencyIn:     input.Address.Hex(),
		CurrencyOut:    output.Address.Hex(),
		AmountIn:       trade.InputAmount().Raw.String(),
		AmountOut:      trade.OutputAmount().Raw.String(),
		ExecutionPrice: trade.ExecutionPrice().Decimal(18).String(),
		PriceImpact:    impact.Decimal(6).String(),
		BlockNumber:    block,
		QuotedAt:       time.Unix(int64(quotedAt), 0).UTC(),
	}

	var sink storage.Storage = storage.NewJsonlStorage(cfg.Out)
	if err := sink.PutQuoteBatch([]model.QuoteRecord{record}); err != nil {
		return fmt.Errorf("write quote: %w", err)
	}
	if cfg.PGDSN != "" && !cfg.FromDB {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.InsertQuotes(ctx, []model.QuoteRecord{record}); err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
	}

	logger.Info("quote",
		zap.String("pool_id", record.PoolID),
		zap.String("trade_type", record.TradeType),
		zap.String("amount_in", record.AmountIn),
		zap.String("amount_out", record.AmountOut),
		zap.String("execution_price", record.ExecutionPrice),
		zap.String("price_impact", record.PriceImpact),
		zap.Uint64("block", block),
	)

	if cfg.Plan {
		payload, err := planPayload(trade, cfg)
		if err != nil {
			return err
		}
		fmt.Println("0x" + hex.EncodeToString(payload))
	}

	return nil
}

// planPayload wraps the quoted trade in a settled unlock payload.
func planPayload(trade *entity.Trade, cfg config.QuoteConfig) ([]byte, error) {
	recipient, err := parseAddress("recipient", cfg.Recipient)
	if err != nil {
		return nil, err
	}

	p := planner.NewPlanner()
	slippage := entity.PercentFromBips(int64(cfg.SlippageBips))
	if err := p.AddTrade(trade, slippage); err != nil {
		return nil, err
	}
	if err := p.AddSettle(trade.InputCurrency(), nil, true); err != nil {
		return nil, err
	}
	if err := p.AddTake(trade.OutputCurrency(), recipient, nil); err != nil {
		return nil, err
	}
	return p.Finalize()
}

// poolFromStore reads price and liquidity from chain but serves tick data
// from previously captured rows.
func poolFromStore(ctx context.Context, store *postgres.Store, poolLens *lens.Lens, key entity.PoolKey, chainID, block uint64) (*entity.Pool, error) {
	poolID := key.PoolID()
	rows, err := store.LoadTicks(ctx, chainID, poolID.Hex(), block)
	if err != nil {
		return nil, fmt.Errorf("load ticks: %w", err)
	}
	provider, err := snapshot.ProviderFromRows(rows, key.TickSpacing)
	if err != nil {
		return nil, err
	}

	slot0, err := poolLens.Slot0(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if slot0.SqrtRatioX96.Sign() == 0 {
		return nil, fmt.Errorf("pool %s not initialized", poolID)
	}
	liquidity, err := poolLens.Liquidity(ctx, poolID)
	if err != nil {
		return nil, err
	}

	pool, err := entity.NewPool(key, slot0.SqrtRatioX96, slot0.Tick, liquidity, provider)
	if err != nil {
		return nil, err
	}
	fee0, fee1, err := poolLens.FeeGrowthGlobals(ctx, poolID)
	if err != nil {
		return nil, err
	}
	pool.FeeGrowthGlobal0X128 = fee0
	pool.FeeGrowthGlobal1X128 = fee1
	return pool, nil
}

// resolvePoolKey builds the pool key from flag addresses, fetching ERC20
// metadata for each token currency.
func resolvePoolKey(ctx context.Context, caller tokens.ContractCaller, currency0, currency1 string, fee uint32, tickSpacing int, hooks string, nativeDecimals uint8, nativeSymbol string, logger *zap.Logger) (entity.PoolKey, error) {
	addr0, err := parseAddress("currency0", currency0)
	if err != nil {
		return entity.PoolKey{}, err
	}
	addr1, err := parseAddress("currency1", currency1)
	if err != nil {
		return entity.PoolKey{}, err
	}
	hooksAddr, err := parseAddress("hooks", hooks)
	if err != nil {
		return entity.PoolKey{}, err
	}

	resolver := tokens.NewResolver(caller, entity.Native(nativeDecimals, nativeSymbol), logger)
	c0, err := resolver.Resolve(ctx, addr0)
	if err != nil {
		return entity.PoolKey{}, err
	}
	c1, err := resolver.Resolve(ctx, addr1)
	if err != nil {
		return entity.PoolKey{}, err
	}

	return entity.NewPoolKey(c0, c1, fee, tickSpacing, hooksAddr)
}
