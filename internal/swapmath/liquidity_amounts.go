package swapmath

import (
	"math/big"

	"v4planner/internal/tickmath"
)

// LiquidityForAmount0 returns the largest liquidity amount for which amount0
// covers the range [sqrtRatioA, sqrtRatioB].
func LiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	intermediate := MulDiv(sqrtRatioAX96, sqrtRatioBX96, tickmath.Q96)
	return MulDiv(amount0, intermediate, new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96))
}

// LiquidityForAmount1 returns the largest liquidity amount for which amount1
// covers the range [sqrtRatioA, sqrtRatioB].
func LiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *big.Int) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	return MulDiv(amount1, tickmath.Q96, new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96))
}

// MaxLiquidityForAmounts returns the maximum liquidity that the given token
// balances can provide over a tick range at the current price.
func MaxLiquidityForAmounts(sqrtRatioCurrentX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *big.Int) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	switch {
	case sqrtRatioCurrentX96.Cmp(sqrtRatioAX96) <= 0:
		return LiquidityForAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0)
	case sqrtRatioCurrentX96.Cmp(sqrtRatioBX96) < 0:
		liquidity0 := LiquidityForAmount0(sqrtRatioCurrentX96, sqrtRatioBX96, amount0)
		liquidity1 := LiquidityForAmount1(sqrtRatioAX96, sqrtRatioCurrentX96, amount1)
		if liquidity0.Cmp(liquidity1) < 0 {
			return liquidity0
		}
		return liquidity1
	default:
		return LiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1)
	}
}
