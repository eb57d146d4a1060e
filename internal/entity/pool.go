package entity

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/hooks"
	"v4planner/internal/swapmath"
	"v4planner/internal/tickmath"
)

// Pool is an immutable snapshot of one pool's price, liquidity and tick
// state. Swap queries return the resulting pool as a new value.
type Pool struct {
	Key                  PoolKey
	SqrtRatioX96         *big.Int
	TickCurrent          int
	Liquidity            *big.Int
	FeeGrowthGlobal0X128 *big.Int
	FeeGrowthGlobal1X128 *big.Int
	TickData             TickDataProvider
}

// NewPool validates a snapshot: the sqrt ratio must lie inside the supported
// price range and agree with the current tick. A nil tick data provider
// means no initialized ticks.
func NewPool(key PoolKey, sqrtRatioX96 *big.Int, tickCurrent int, liquidity *big.Int, tickData TickDataProvider) (*Pool, error) {
	if sqrtRatioX96 == nil || sqrtRatioX96.Cmp(tickmath.MinSqrtRatio) < 0 || sqrtRatioX96.Cmp(tickmath.MaxSqrtRatio) >= 0 {
		return nil, fmt.Errorf("sqrt ratio %v outside supported price range: %w", sqrtRatioX96, tickmath.ErrInvalidRange)
	}
	tickRatio, err := tickmath.SqrtRatioAtTick(tickCurrent)
	if err != nil {
		return nil, err
	}
	if sqrtRatioX96.Cmp(tickRatio) < 0 {
		return nil, fmt.Errorf("sqrt ratio %v below tick %d: %w", sqrtRatioX96, tickCurrent, tickmath.ErrInvalidRange)
	}
	nextRatio, err := tickmath.SqrtRatioAtTick(tickCurrent + 1)
	if err == nil && sqrtRatioX96.Cmp(nextRatio) >= 0 {
		return nil, fmt.Errorf("sqrt ratio %v at or above tick %d: %w", sqrtRatioX96, tickCurrent+1, tickmath.ErrInvalidRange)
	}
	if liquidity == nil {
		liquidity = new(big.Int)
	}
	if tickData == nil {
		tickData = EmptyTickDataProvider{}
	}
	return &Pool{
		Key:                  key,
		SqrtRatioX96:         new(big.Int).Set(sqrtRatioX96),
		TickCurrent:          tickCurrent,
		Liquidity:            new(big.Int).Set(liquidity),
		FeeGrowthGlobal0X128: new(big.Int),
		FeeGrowthGlobal1X128: new(big.Int),
		TickData:             tickData,
	}, nil
}

// PoolID is the pool's identifier in the singleton manager.
func (p *Pool) PoolID() common.Hash {
	return p.Key.PoolID()
}

// InvolvesCurrency reports whether the currency is one of the pool's pair.
func (p *Pool) InvolvesCurrency(c Currency) bool {
	return p.Key.InvolvesCurrency(c)
}

// Currency0Price is the price of currency0 in terms of currency1 at the
// current pool price.
func (p *Pool) Currency0Price() Price {
	ratioX192 := new(big.Int).Mul(p.SqrtRatioX96, p.SqrtRatioX96)
	return NewPrice(p.Key.Currency0, p.Key.Currency1, tickmath.Q192, ratioX192)
}

// Currency1Price is the price of currency1 in terms of currency0.
func (p *Pool) Currency1Price() Price {
	return p.Currency0Price().Invert()
}

// PriceOf returns the price of the given pool currency in the other.
func (p *Pool) PriceOf(c Currency) (Price, error) {
	switch {
	case p.Key.Currency0.Equal(c):
		return p.Currency0Price(), nil
	case p.Key.Currency1.Equal(c):
		return p.Currency1Price(), nil
	default:
		return Price{}, fmt.Errorf("%w: %s not in pool", ErrInvalidCurrency, c)
	}
}

// swappable rejects pools whose execution this model cannot reproduce:
// dynamic fees and hooks that participate in swaps.
func (p *Pool) swappable() error {
	if p.Key.HasDynamicFee() {
		return fmt.Errorf("%w: dynamic fee pool", ErrUnsupportedHook)
	}
	if hooks.HasSwapPermissions(p.Key.Hooks) {
		return fmt.Errorf("%w: hook %s has swap permissions", ErrUnsupportedHook, p.Key.Hooks)
	}
	return nil
}

// GetOutputAmount simulates an exact-input swap and returns the output
// amount plus the pool state after the swap. A nil price limit means no
// limit beyond the supported range.
func (p *Pool) GetOutputAmount(ctx context.Context, input CurrencyAmount, sqrtPriceLimitX96 *big.Int) (CurrencyAmount, *Pool, error) {
	if !p.InvolvesCurrency(input.Currency) {
		return CurrencyAmount{}, nil, fmt.Errorf("%w: %s not in pool", ErrInvalidCurrency, input.Currency)
	}
	zeroForOne := input.Currency.Equal(p.Key.Currency0)
	output, next, err := p.swap(ctx, zeroForOne, new(big.Int).Set(input.Raw), sqrtPriceLimitX96)
	if err != nil {
		return CurrencyAmount{}, nil, err
	}
	outCurrency := p.Key.Currency1
	if !zeroForOne {
		outCurrency = p.Key.Currency0
	}
	return NewCurrencyAmount(outCurrency, new(big.Int).Neg(output)), next, nil
}

// GetInputAmount simulates an exact-output swap and returns the required
// input amount plus the pool state after the swap.
func (p *Pool) GetInputAmount(ctx context.Context, output CurrencyAmount, sqrtPriceLimitX96 *big.Int) (CurrencyAmount, *Pool, error) {
	if !p.InvolvesCurrency(output.Currency) {
		return CurrencyAmount{}, nil, fmt.Errorf("%w: %s not in pool", ErrInvalidCurrency, output.Currency)
	}
	zeroForOne := output.Currency.Equal(p.Key.Currency1)
	input, next, err := p.swap(ctx, zeroForOne, new(big.Int).Neg(output.Raw), sqrtPriceLimitX96)
	if err != nil {
		return CurrencyAmount{}, nil, err
	}
	inCurrency := p.Key.Currency0
	if !zeroForOne {
		inCurrency = p.Key.Currency1
	}
	return NewCurrencyAmount(inCurrency, input), next, nil
}

type swapState struct {
	amountRemaining  *big.Int
	amountCalculated *big.Int
	sqrtRatioX96     *big.Int
	tick             int
	liquidity        *big.Int
}

// swap runs the tick-crossing loop. A positive amountSpecified is exact
// input; negative is exact output. It returns the calculated side (negative
// for output received, positive for input owed) and the pool after the swap.
func (p *Pool) swap(ctx context.Context, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int) (*big.Int, *Pool, error) {
	if err := p.swappable(); err != nil {
		return nil, nil, err
	}
	if sqrtPriceLimitX96 == nil {
		if zeroForOne {
			sqrtPriceLimitX96 = new(big.Int).Add(tickmath.MinSqrtRatio, big.NewInt(1))
		} else {
			sqrtPriceLimitX96 = new(big.Int).Sub(tickmath.MaxSqrtRatio, big.NewInt(1))
		}
	}
	if zeroForOne {
		if sqrtPriceLimitX96.Cmp(tickmath.MinSqrtRatio) <= 0 || sqrtPriceLimitX96.Cmp(p.SqrtRatioX96) >= 0 {
			return nil, nil, fmt.Errorf("price limit %v invalid for zero-for-one swap: %w", sqrtPriceLimitX96, tickmath.ErrInvalidRange)
		}
	} else {
		if sqrtPriceLimitX96.Cmp(tickmath.MaxSqrtRatio) >= 0 || sqrtPriceLimitX96.Cmp(p.SqrtRatioX96) <= 0 {
			return nil, nil, fmt.Errorf("price limit %v invalid for one-for-zero swap: %w", sqrtPriceLimitX96, tickmath.ErrInvalidRange)
		}
	}

	exactInput := amountSpecified.Sign() > 0
	state := swapState{
		amountRemaining:  new(big.Int).Set(amountSpecified),
		amountCalculated: new(big.Int),
		sqrtRatioX96:     new(big.Int).Set(p.SqrtRatioX96),
		tick:             p.TickCurrent,
		liquidity:        new(big.Int).Set(p.Liquidity),
	}

	for state.amountRemaining.Sign() != 0 && state.sqrtRatioX96.Cmp(sqrtPriceLimitX96) != 0 {
		crossing, err := p.TickData.NextInitializedTick(ctx, state.tick, zeroForOne)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrDataSource, err)
		}
		tickNext := crossing.Tick
		if tickNext < tickmath.MinTick {
			tickNext = tickmath.MinTick
		} else if tickNext > tickmath.MaxTick {
			tickNext = tickmath.MaxTick
		}
		sqrtRatioNextX96, err := tickmath.SqrtRatioAtTick(tickNext)
		if err != nil {
			return nil, nil, err
		}

		target := sqrtRatioNextX96
		if zeroForOne {
			if sqrtRatioNextX96.Cmp(sqrtPriceLimitX96) < 0 {
				target = sqrtPriceLimitX96
			}
		} else {
			if sqrtRatioNextX96.Cmp(sqrtPriceLimitX96) > 0 {
				target = sqrtPriceLimitX96
			}
		}

		step, err := swapmath.ComputeSwapStep(state.sqrtRatioX96, target, state.liquidity, state.amountRemaining, p.Key.Fee)
		if err != nil {
			return nil, nil, err
		}
		state.sqrtRatioX96 = step.SqrtRatioNextX96

		if exactInput {
			consumed := new(big.Int).Add(step.AmountIn, step.FeeAmount)
			state.amountRemaining.Sub(state.amountRemaining, consumed)
			state.amountCalculated.Sub(state.amountCalculated, step.AmountOut)
		} else {
			state.amountRemaining.Add(state.amountRemaining, step.AmountOut)
			state.amountCalculated.Add(state.amountCalculated, new(big.Int).Add(step.AmountIn, step.FeeAmount))
		}

		if state.sqrtRatioX96.Cmp(sqrtRatioNextX96) == 0 {
			// Reached the next tick; cross it if it is initialized.
			if crossing.Initialized {
				net := new(big.Int).Set(crossing.LiquidityNet)
				if zeroForOne {
					net.Neg(net)
				}
				state.liquidity.Add(state.liquidity, net)
				if state.liquidity.Sign() < 0 {
					return nil, nil, fmt.Errorf("%w: liquidity underflow crossing tick %d", ErrInsufficientLiquidity, tickNext)
				}
			}
			if zeroForOne {
				state.tick = tickNext - 1
			} else {
				state.tick = tickNext
			}
		} else if state.sqrtRatioX96.Cmp(p.SqrtRatioX96) != 0 {
			state.tick, err = tickmath.TickAtSqrtRatio(state.sqrtRatioX96)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if !exactInput && state.amountRemaining.Sign() != 0 {
		return nil, nil, fmt.Errorf("%w: output not reachable within available ticks", ErrInsufficientLiquidity)
	}

	next := &Pool{
		Key:                  p.Key,
		SqrtRatioX96:         state.sqrtRatioX96,
		TickCurrent:          state.tick,
		Liquidity:            state.liquidity,
		FeeGrowthGlobal0X128: p.FeeGrowthGlobal0X128,
		FeeGrowthGlobal1X128: p.FeeGrowthGlobal1X128,
		TickData:             p.TickData,
	}
	return state.amountCalculated, next, nil
}

// FeeGrowthInside computes the fee growth accumulated inside a tick range
// since pool creation, per unit of liquidity, in X128 fixed point. The
// subtraction wraps modulo 2^256, matching the on-chain accumulators.
func (p *Pool) FeeGrowthInside(ctx context.Context, tickLower, tickUpper int) (*big.Int, *big.Int, error) {
	if tickLower >= tickUpper {
		return nil, nil, fmt.Errorf("tick range [%d, %d) inverted: %w", tickLower, tickUpper, tickmath.ErrInvalidRange)
	}
	lower0, lower1, err := p.TickData.FeeGrowthOutside(ctx, tickLower)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDataSource, err)
	}
	upper0, upper1, err := p.TickData.FeeGrowthOutside(ctx, tickUpper)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDataSource, err)
	}

	var below0, below1, above0, above1 *big.Int
	if p.TickCurrent >= tickLower {
		below0, below1 = lower0, lower1
	} else {
		below0 = wrapSub(p.FeeGrowthGlobal0X128, lower0)
		below1 = wrapSub(p.FeeGrowthGlobal1X128, lower1)
	}
	if p.TickCurrent < tickUpper {
		above0, above1 = upper0, upper1
	} else {
		above0 = wrapSub(p.FeeGrowthGlobal0X128, upper0)
		above1 = wrapSub(p.FeeGrowthGlobal1X128, upper1)
	}

	inside0 := wrapSub(wrapSub(p.FeeGrowthGlobal0X128, below0), above0)
	inside1 := wrapSub(wrapSub(p.FeeGrowthGlobal1X128, below1), above1)
	return inside0, inside1, nil
}

func wrapSub(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	return swapmath.Mod256(r)
}
