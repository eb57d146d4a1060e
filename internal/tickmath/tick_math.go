package tickmath

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidRange is returned when a tick or sqrt ratio falls outside the
// protocol's supported bounds.
var ErrInvalidRange = errors.New("tick or sqrt ratio out of range")

const (
	// MinTick is the minimum tick that can be used on any pool.
	MinTick = -887272
	// MaxTick is the maximum tick that can be used on any pool.
	MaxTick = -MinTick
	// MaxTickSpacing is the maximum tick spacing a pool key may declare.
	MaxTickSpacing = 32767
)

var (
	// MinSqrtRatio is the sqrt ratio corresponding to MinTick.
	MinSqrtRatio = big.NewInt(4295128739)
	// MaxSqrtRatio is the sqrt ratio corresponding to MaxTick.
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	// Q32, Q96, Q128, Q192 are fixed-point scaling factors.
	Q32  = new(big.Int).Lsh(big.NewInt(1), 32)
	Q96  = new(big.Int).Lsh(big.NewInt(1), 96)
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)
	Q192 = new(big.Int).Lsh(big.NewInt(1), 192)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// ratio ladder: multiplier applied for bit i of |tick|, Q128 fixed point.
var tickRatios = func() []*big.Int {
	hexes := []string{
		"fffcb933bd6fad37aa2d162d1a594001",
		"fff97272373d413259a46990580e213a",
		"fff2e50f5f656932ef12357cf3c7fdcc",
		"ffe5caca7e10e4e61c3624eaa0941cd0",
		"ffcb9843d60f6159c9db58835c926644",
		"ff973b41fa98c081472e6896dfb254c0",
		"ff2ea16466c96a3843ec78b326b52861",
		"fe5dee046a99a2a811c461f1969c3053",
		"fcbe86c7900a88aedcffc83b479aa3a4",
		"f987a7253ac413176f2b074cf7815e54",
		"f3392b0822b70005940c7a398e4b70f3",
		"e7159475a2c29b7443b29c7fa6e889d9",
		"d097f3bdfd2022b8845ad8f792aa5825",
		"a9f746462d870fdf8a65dc1f90e061e5",
		"70d869a156d2a1b890bb3df62baf32f7",
		"31be135f97d08fd981231505542fcfa6",
		"9aa508b5b7a84e1c677de54f3e99bc9",
		"5d6af8dedb81196699c329225ee604",
		"2216e584f5fa1ea926041bedfe98",
		"48a170391f7dc42444e8fa2",
	}
	out := make([]*big.Int, len(hexes))
	for i, h := range hexes {
		out[i], _ = new(big.Int).SetString(h, 16)
	}
	return out
}()

var (
	logBase, _    = new(big.Int).SetString("255738958999603826347141", 10)
	tickLowErr, _ = new(big.Int).SetString("3402992956809132418596140100660247210", 10)
	tickHiErr, _  = new(big.Int).SetString("291339464771989622907027621153398088495", 10)
)

// SqrtRatioAtTick returns the sqrt ratio as a Q64.96 for the given tick,
// computed with the same ladder-multiply integer arithmetic as the protocol.
func SqrtRatioAtTick(tick int) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: tick %d", ErrInvalidRange, tick)
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(big.Int).Lsh(big.NewInt(1), 128)
	if absTick&1 != 0 {
		ratio.Set(tickRatios[0])
	}
	for i := 1; i < len(tickRatios); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, tickRatios[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// downcast Q128 to Q96, rounding up toward the tick boundary
	rem := new(big.Int).And(ratio, new(big.Int).Sub(Q32, big.NewInt(1)))
	ratio.Rsh(ratio, 32)
	if rem.Sign() != 0 {
		ratio.Add(ratio, big.NewInt(1))
	}
	return ratio, nil
}

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio is less than or
// equal to the input sqrt ratio.
func TickAtSqrtRatio(sqrtRatioX96 *big.Int) (int, error) {
	if sqrtRatioX96 == nil || sqrtRatioX96.Cmp(MinSqrtRatio) < 0 || sqrtRatioX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, fmt.Errorf("%w: sqrt ratio %v", ErrInvalidRange, sqrtRatioX96)
	}

	ratio := new(big.Int).Lsh(sqrtRatioX96, 32)
	msb := ratio.BitLen() - 1

	r := new(big.Int)
	if msb >= 128 {
		r.Rsh(ratio, uint(msb-127))
	} else {
		r.Lsh(ratio, uint(127-msb))
	}

	log2 := new(big.Int).Lsh(big.NewInt(int64(msb-128)), 64)

	for i := 0; i < 14; i++ {
		r.Mul(r, r)
		r.Rsh(r, 127)
		f := new(big.Int).Rsh(r, 128)
		log2.Or(log2, new(big.Int).Lsh(f, uint(63-i)))
		r.Rsh(r, uint(f.Uint64()))
	}

	logSqrt10001 := new(big.Int).Mul(log2, logBase)

	tickLow := bigToTick(new(big.Int).Rsh(new(big.Int).Sub(logSqrt10001, tickLowErr), 128))
	tickHi := bigToTick(new(big.Int).Rsh(new(big.Int).Add(logSqrt10001, tickHiErr), 128))

	if tickLow == tickHi {
		return tickLow, nil
	}
	ratioHi, err := SqrtRatioAtTick(tickHi)
	if err != nil {
		return 0, err
	}
	if ratioHi.Cmp(sqrtRatioX96) <= 0 {
		return tickHi, nil
	}
	return tickLow, nil
}

func bigToTick(v *big.Int) int {
	return int(v.Int64())
}

// NearestUsableTick rounds the tick to the closest multiple of tickSpacing,
// clamped inside the usable range.
func NearestUsableTick(tick, tickSpacing int) int {
	if tickSpacing <= 0 {
		return tick
	}
	rounded := divRoundNearest(tick, tickSpacing) * tickSpacing
	if rounded < MinTick {
		return rounded + tickSpacing
	}
	if rounded > MaxTick {
		return rounded - tickSpacing
	}
	return rounded
}

func divRoundNearest(a, b int) int {
	q, r := a/b, a%b
	if r == 0 {
		return q
	}
	if 2*abs(r) >= b {
		if (a < 0) != (b < 0) {
			return q - 1
		}
		return q + 1
	}
	return q
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// EncodeSqrtRatioX96 returns the floor sqrt of amount1/amount0 as a Q64.96.
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) *big.Int {
	numerator := new(big.Int).Lsh(amount1, 192)
	ratioX192 := new(big.Int).Div(numerator, amount0)
	return new(big.Int).Sqrt(ratioX192)
}
