package entity

import (
	"context"
	"fmt"
	"math/big"

	"v4planner/internal/swapmath"
	"v4planner/internal/tickmath"
)

// Position is a liquidity position on a pool over a tick range.
type Position struct {
	Pool      *Pool
	TickLower int
	TickUpper int
	Liquidity *big.Int
}

// NewPosition validates the tick range against the pool's spacing.
func NewPosition(pool *Pool, tickLower, tickUpper int, liquidity *big.Int) (*Position, error) {
	if tickLower >= tickUpper {
		return nil, fmt.Errorf("tick range [%d, %d) inverted: %w", tickLower, tickUpper, tickmath.ErrInvalidRange)
	}
	if tickLower < tickmath.MinTick || tickUpper > tickmath.MaxTick {
		return nil, fmt.Errorf("tick range [%d, %d) out of bounds: %w", tickLower, tickUpper, tickmath.ErrInvalidRange)
	}
	spacing := pool.Key.TickSpacing
	if tickLower%spacing != 0 || tickUpper%spacing != 0 {
		return nil, fmt.Errorf("tick range [%d, %d) not aligned to spacing %d: %w", tickLower, tickUpper, spacing, tickmath.ErrInvalidRange)
	}
	if liquidity == nil || liquidity.Sign() < 0 {
		return nil, fmt.Errorf("liquidity %v negative: %w", liquidity, tickmath.ErrInvalidRange)
	}
	return &Position{
		Pool:      pool,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: new(big.Int).Set(liquidity),
	}, nil
}

func (p *Position) rangeRatios() (lower, upper *big.Int, err error) {
	lower, err = tickmath.SqrtRatioAtTick(p.TickLower)
	if err != nil {
		return nil, nil, err
	}
	upper, err = tickmath.SqrtRatioAtTick(p.TickUpper)
	if err != nil {
		return nil, nil, err
	}
	return lower, upper, nil
}

// Amount0 is the currency0 the position would return if burned now,
// rounded down.
func (p *Position) Amount0() (CurrencyAmount, error) {
	sqrtLower, sqrtUpper, err := p.rangeRatios()
	if err != nil {
		return CurrencyAmount{}, err
	}
	var raw *big.Int
	switch {
	case p.Pool.TickCurrent < p.TickLower:
		raw = swapmath.Amount0Delta(sqrtLower, sqrtUpper, p.Liquidity, false)
	case p.Pool.TickCurrent < p.TickUpper:
		raw = swapmath.Amount0Delta(p.Pool.SqrtRatioX96, sqrtUpper, p.Liquidity, false)
	default:
		raw = new(big.Int)
	}
	return NewCurrencyAmount(p.Pool.Key.Currency0, raw), nil
}

// Amount1 is the currency1 the position would return if burned now,
// rounded down.
func (p *Position) Amount1() (CurrencyAmount, error) {
	sqrtLower, sqrtUpper, err := p.rangeRatios()
	if err != nil {
		return CurrencyAmount{}, err
	}
	var raw *big.Int
	switch {
	case p.Pool.TickCurrent < p.TickLower:
		raw = new(big.Int)
	case p.Pool.TickCurrent < p.TickUpper:
		raw = swapmath.Amount1Delta(sqrtLower, p.Pool.SqrtRatioX96, p.Liquidity, false)
	default:
		raw = swapmath.Amount1Delta(sqrtLower, sqrtUpper, p.Liquidity, false)
	}
	return NewCurrencyAmount(p.Pool.Key.Currency1, raw), nil
}

// MintAmounts is the amounts the pool manager would pull to mint this
// position's liquidity, rounded up.
func (p *Position) MintAmounts() (amount0, amount1 CurrencyAmount, err error) {
	sqrtLower, sqrtUpper, err := p.rangeRatios()
	if err != nil {
		return CurrencyAmount{}, CurrencyAmount{}, err
	}
	raw0, raw1 := new(big.Int), new(big.Int)
	switch {
	case p.Pool.TickCurrent < p.TickLower:
		raw0 = swapmath.Amount0Delta(sqrtLower, sqrtUpper, p.Liquidity, true)
	case p.Pool.TickCurrent < p.TickUpper:
		raw0 = swapmath.Amount0Delta(p.Pool.SqrtRatioX96, sqrtUpper, p.Liquidity, true)
		raw1 = swapmath.Amount1Delta(sqrtLower, p.Pool.SqrtRatioX96, p.Liquidity, true)
	default:
		raw1 = swapmath.Amount1Delta(sqrtLower, sqrtUpper, p.Liquidity, true)
	}
	return NewCurrencyAmount(p.Pool.Key.Currency0, raw0), NewCurrencyAmount(p.Pool.Key.Currency1, raw1), nil
}

// AmountsAtPrice is the amounts the pool manager would pull for this
// position's liquidity if the pool sat at the given price, rounded up.
// It sizes worst-case funding for a slippage-bounded mint.
func (p *Position) AmountsAtPrice(sqrtRatioX96 *big.Int) (amount0, amount1 CurrencyAmount, err error) {
	if sqrtRatioX96 == nil || sqrtRatioX96.Sign() <= 0 {
		return CurrencyAmount{}, CurrencyAmount{}, fmt.Errorf("sqrt ratio %v not positive: %w", sqrtRatioX96, tickmath.ErrInvalidRange)
	}
	sqrtLower, sqrtUpper, err := p.rangeRatios()
	if err != nil {
		return CurrencyAmount{}, CurrencyAmount{}, err
	}
	raw0, raw1 := new(big.Int), new(big.Int)
	switch {
	case sqrtRatioX96.Cmp(sqrtLower) <= 0:
		raw0 = swapmath.Amount0Delta(sqrtLower, sqrtUpper, p.Liquidity, true)
	case sqrtRatioX96.Cmp(sqrtUpper) < 0:
		raw0 = swapmath.Amount0Delta(sqrtRatioX96, sqrtUpper, p.Liquidity, true)
		raw1 = swapmath.Amount1Delta(sqrtLower, sqrtRatioX96, p.Liquidity, true)
	default:
		raw1 = swapmath.Amount1Delta(sqrtLower, sqrtUpper, p.Liquidity, true)
	}
	return NewCurrencyAmount(p.Pool.Key.Currency0, raw0), NewCurrencyAmount(p.Pool.Key.Currency1, raw1), nil
}

// PositionFromAmounts builds the largest position the given amounts can
// fund at the pool's current price.
func PositionFromAmounts(pool *Pool, tickLower, tickUpper int, amount0, amount1 *big.Int) (*Position, error) {
	sqrtLower, err := tickmath.SqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, err
	}
	sqrtUpper, err := tickmath.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, err
	}
	liquidity := swapmath.MaxLiquidityForAmounts(pool.SqrtRatioX96, sqrtLower, sqrtUpper, amount0, amount1)
	return NewPosition(pool, tickLower, tickUpper, liquidity)
}

// FeesOwed computes the fees accrued since the given fee-growth-inside
// checkpoints. The accumulator difference wraps modulo 2^256.
func (p *Position) FeesOwed(ctx context.Context, feeGrowthInsideLast0X128, feeGrowthInsideLast1X128 *big.Int) (fees0, fees1 CurrencyAmount, err error) {
	inside0, inside1, err := p.Pool.FeeGrowthInside(ctx, p.TickLower, p.TickUpper)
	if err != nil {
		return CurrencyAmount{}, CurrencyAmount{}, err
	}
	delta0 := swapmath.Mod256(new(big.Int).Sub(inside0, feeGrowthInsideLast0X128))
	delta1 := swapmath.Mod256(new(big.Int).Sub(inside1, feeGrowthInsideLast1X128))
	raw0 := swapmath.MulDiv(delta0, p.Liquidity, tickmath.Q128)
	raw1 := swapmath.MulDiv(delta1, p.Liquidity, tickmath.Q128)
	return NewCurrencyAmount(p.Pool.Key.Currency0, raw0), NewCurrencyAmount(p.Pool.Key.Currency1, raw1), nil
}
