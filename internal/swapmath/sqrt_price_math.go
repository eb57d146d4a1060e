package swapmath

import (
	"errors"
	"fmt"
	"math/big"

	"v4planner/internal/tickmath"
)

// ErrPriceOverflow is returned when a price computation leaves the uint160
// domain or an invariant of the reference math is violated.
var ErrPriceOverflow = errors.New("sqrt price computation out of bounds")

// Amount0Delta returns the amount0 required to move between two sqrt ratios at
// the given liquidity, rounding in the requested direction.
func Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return divRoundingUp(MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96), sqrtRatioAX96)
	}
	return new(big.Int).Div(MulDiv(numerator1, numerator2, sqrtRatioBX96), sqrtRatioAX96)
}

// Amount1Delta returns the amount1 required to move between two sqrt ratios at
// the given liquidity, rounding in the requested direction.
func Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	diff := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return MulDivRoundingUp(liquidity, diff, tickmath.Q96)
	}
	return MulDiv(liquidity, diff, tickmath.Q96)
}

// NextSqrtPriceFromInput returns the price after spending amountIn of the
// input currency, rounding so the protocol never undercharges.
func NextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPX96.Sign() <= 0 || liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: nonpositive price or liquidity", ErrPriceOverflow)
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput returns the price after withdrawing amountOut of the
// output currency.
func NextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPX96.Sign() <= 0 || liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: nonpositive price or liquidity", ErrPriceOverflow)
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

func nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPX96), nil
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)

	if add {
		product := mod256(new(big.Int).Mul(amount, sqrtPX96))
		if new(big.Int).Div(product, amount).Cmp(sqrtPX96) == 0 {
			denominator := mod256(new(big.Int).Add(numerator1, product))
			if denominator.Cmp(numerator1) >= 0 {
				return MulDivRoundingUp(numerator1, sqrtPX96, denominator), nil
			}
		}
		return divRoundingUp(numerator1, new(big.Int).Add(new(big.Int).Div(numerator1, sqrtPX96), amount)), nil
	}

	product := new(big.Int).Mul(amount, sqrtPX96)
	if numerator1.Cmp(product) <= 0 {
		return nil, fmt.Errorf("%w: output exceeds reserves", ErrPriceOverflow)
	}
	denominator := new(big.Int).Sub(numerator1, product)
	next := MulDivRoundingUp(numerator1, sqrtPX96, denominator)
	if next.Cmp(maxUint160) > 0 {
		return nil, fmt.Errorf("%w: uint160 overflow", ErrPriceOverflow)
	}
	return next, nil
}

func nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if add {
		quotient := MulDiv(amount, tickmath.Q96, liquidity)
		next := new(big.Int).Add(sqrtPX96, quotient)
		if next.Cmp(maxUint160) > 0 {
			return nil, fmt.Errorf("%w: uint160 overflow", ErrPriceOverflow)
		}
		return next, nil
	}

	quotient := MulDivRoundingUp(amount, tickmath.Q96, liquidity)
	if sqrtPX96.Cmp(quotient) <= 0 {
		return nil, fmt.Errorf("%w: output exceeds reserves", ErrPriceOverflow)
	}
	return new(big.Int).Sub(sqrtPX96, quotient), nil
}
