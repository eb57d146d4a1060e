package swapmath

import "math/big"

// MaxFeePips is the fee denominator: fees are expressed in hundredths of a bip
// of 1e6.
const MaxFeePips = 1_000_000

var maxFee = big.NewInt(MaxFeePips)

// StepResult is the outcome of swapping within a single tick range.
type StepResult struct {
	SqrtRatioNextX96 *big.Int
	AmountIn         *big.Int
	AmountOut        *big.Int
	FeeAmount        *big.Int
}

// ComputeSwapStep computes the result of swapping some amount in or out, given
// the current and target sqrt prices and available liquidity. A non-negative
// amountRemaining means exact input; negative means exact output.
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *big.Int, feePips uint32) (StepResult, error) {
	var res StepResult
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0
	fee := big.NewInt(int64(feePips))

	if exactIn {
		amountRemainingLessFee := MulDiv(amountRemaining, new(big.Int).Sub(maxFee, fee), maxFee)
		if zeroForOne {
			res.AmountIn = Amount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			res.AmountIn = Amount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if amountRemainingLessFee.Cmp(res.AmountIn) >= 0 {
			res.SqrtRatioNextX96 = new(big.Int).Set(sqrtRatioTargetX96)
		} else {
			next, err := NextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, amountRemainingLessFee, zeroForOne)
			if err != nil {
				return StepResult{}, err
			}
			res.SqrtRatioNextX96 = next
		}
	} else {
		amountOutRequested := new(big.Int).Neg(amountRemaining)
		if zeroForOne {
			res.AmountOut = Amount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			res.AmountOut = Amount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if amountOutRequested.Cmp(res.AmountOut) >= 0 {
			res.SqrtRatioNextX96 = new(big.Int).Set(sqrtRatioTargetX96)
		} else {
			next, err := NextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, amountOutRequested, zeroForOne)
			if err != nil {
				return StepResult{}, err
			}
			res.SqrtRatioNextX96 = next
		}
	}

	atTarget := sqrtRatioTargetX96.Cmp(res.SqrtRatioNextX96) == 0

	if zeroForOne {
		if !(atTarget && exactIn) {
			res.AmountIn = Amount0Delta(res.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
		}
		if !(atTarget && !exactIn) {
			res.AmountOut = Amount1Delta(res.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
		}
	} else {
		if !(atTarget && exactIn) {
			res.AmountIn = Amount1Delta(sqrtRatioCurrentX96, res.SqrtRatioNextX96, liquidity, true)
		}
		if !(atTarget && !exactIn) {
			res.AmountOut = Amount0Delta(sqrtRatioCurrentX96, res.SqrtRatioNextX96, liquidity, false)
		}
	}

	if !exactIn {
		amountOutRequested := new(big.Int).Neg(amountRemaining)
		if res.AmountOut.Cmp(amountOutRequested) > 0 {
			res.AmountOut = amountOutRequested
		}
	}

	if exactIn && !atTarget {
		// the remainder of the input is taken as fee
		res.FeeAmount = new(big.Int).Sub(amountRemaining, res.AmountIn)
	} else {
		res.FeeAmount = MulDivRoundingUp(res.AmountIn, fee, new(big.Int).Sub(maxFee, fee))
	}
	return res, nil
}
