package entity

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/tickmath"
)

var (
	testDAI  = Token(common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI")
	testUSDC = Token(common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC")
	testWETH = Token(common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH")
	testETH  = Native(18, "ETH")

	oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// fullRangePool builds a 0.3% pool at a 1:1 price with one ether of
// liquidity spread across the whole usable range.
func fullRangePool(t *testing.T, currencyA, currencyB Currency) *Pool {
	t.Helper()
	key, err := NewPoolKey(currencyA, currencyB, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	lower := tickmath.NearestUsableTick(tickmath.MinTick, 60)
	upper := tickmath.NearestUsableTick(tickmath.MaxTick, 60)
	ticks, err := NewTickListProvider([]Tick{
		{Index: lower, LiquidityGross: new(big.Int).Set(oneEther), LiquidityNet: new(big.Int).Set(oneEther)},
		{Index: upper, LiquidityGross: new(big.Int).Set(oneEther), LiquidityNet: new(big.Int).Neg(oneEther)},
	}, 60)
	if err != nil {
		t.Fatalf("NewTickListProvider: %v", err)
	}
	pool, err := NewPool(key, tickmath.Q96, 0, oneEther, ticks)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return pool
}

func TestNewPoolRejectsPriceOutsideRange(t *testing.T) {
	key, err := NewPoolKey(testDAI, testUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	if _, err := NewPool(key, big.NewInt(1), 0, nil, nil); !errors.Is(err, tickmath.ErrInvalidRange) {
		t.Fatalf("tiny sqrt ratio accepted: %v", err)
	}
	if _, err := NewPool(key, tickmath.MaxSqrtRatio, 0, nil, nil); !errors.Is(err, tickmath.ErrInvalidRange) {
		t.Fatalf("max sqrt ratio accepted: %v", err)
	}
}

func TestNewPoolRejectsTickPriceMismatch(t *testing.T) {
	key, err := NewPoolKey(testDAI, testUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	if _, err := NewPool(key, tickmath.Q96, 100, nil, nil); !errors.Is(err, tickmath.ErrInvalidRange) {
		t.Fatalf("tick above price accepted: %v", err)
	}
	if _, err := NewPool(key, tickmath.Q96, -100, nil, nil); !errors.Is(err, tickmath.ErrInvalidRange) {
		t.Fatalf("tick below price accepted: %v", err)
	}
}

func TestPoolPriceOf(t *testing.T) {
	pool := fullRangePool(t, testDAI, testUSDC)
	p0, err := pool.PriceOf(pool.Key.Currency0)
	if err != nil {
		t.Fatalf("PriceOf currency0: %v", err)
	}
	p1, err := pool.PriceOf(pool.Key.Currency1)
	if err != nil {
		t.Fatalf("PriceOf currency1: %v", err)
	}
	product := p0.Fraction.Mul(p1.Fraction)
	if !product.Equal(FractionFromInt(1)) {
		t.Fatalf("price * inverse price = %s/%s, want 1", product.Numerator, product.Denominator)
	}
	if _, err := pool.PriceOf(testWETH); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("PriceOf foreign currency: %v", err)
	}
}

func TestGetOutputAmount(t *testing.T) {
	pool := fullRangePool(t, testDAI, testUSDC)
	ctx := context.Background()

	in := NewCurrencyAmount(pool.Key.Currency0, big.NewInt(100))
	out, next, err := pool.GetOutputAmount(ctx, in, nil)
	if err != nil {
		t.Fatalf("GetOutputAmount: %v", err)
	}
	if !out.Currency.Equal(pool.Key.Currency1) {
		t.Fatalf("output currency = %s, want %s", out.Currency, pool.Key.Currency1)
	}
	if out.Raw.Cmp(big.NewInt(98)) != 0 {
		t.Fatalf("output = %s, want 98", out.Raw)
	}
	if next.SqrtRatioX96.Cmp(pool.SqrtRatioX96) >= 0 {
		t.Fatalf("zero-for-one swap did not lower the price")
	}
	if pool.SqrtRatioX96.Cmp(tickmath.Q96) != 0 {
		t.Fatalf("swap mutated the source pool")
	}
}

func TestGetInputAmount(t *testing.T) {
	pool := fullRangePool(t, testDAI, testUSDC)
	ctx := context.Background()

	out := NewCurrencyAmount(pool.Key.Currency1, big.NewInt(100))
	in, next, err := pool.GetInputAmount(ctx, out, nil)
	if err != nil {
		t.Fatalf("GetInputAmount: %v", err)
	}
	if !in.Currency.Equal(pool.Key.Currency0) {
		t.Fatalf("input currency = %s, want %s", in.Currency, pool.Key.Currency0)
	}
	if in.Raw.Cmp(big.NewInt(102)) != 0 {
		t.Fatalf("input = %s, want 102", in.Raw)
	}
	if next.SqrtRatioX96.Cmp(pool.SqrtRatioX96) >= 0 {
		t.Fatalf("zero-for-one swap did not lower the price")
	}
}

func TestSwapRoundTripCoversExactOutput(t *testing.T) {
	pool := fullRangePool(t, testDAI, testUSDC)
	ctx := context.Background()

	want := NewCurrencyAmount(pool.Key.Currency1, big.NewInt(12_345))
	in, _, err := pool.GetInputAmount(ctx, want, nil)
	if err != nil {
		t.Fatalf("GetInputAmount: %v", err)
	}
	got, _, err := pool.GetOutputAmount(ctx, in, nil)
	if err != nil {
		t.Fatalf("GetOutputAmount: %v", err)
	}
	if got.Raw.Cmp(want.Raw) < 0 {
		t.Fatalf("round trip output %s below requested %s", got.Raw, want.Raw)
	}
}

func TestSwapExactOutputInsufficientLiquidity(t *testing.T) {
	pool := fullRangePool(t, testDAI, testUSDC)
	ctx := context.Background()

	// More than the pool can ever pay out.
	out := NewCurrencyAmount(pool.Key.Currency1, new(big.Int).Lsh(oneEther, 40))
	if _, _, err := pool.GetInputAmount(ctx, out, nil); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("oversized exact output: %v", err)
	}
}

func TestSwapRejectsDynamicFeeAndSwapHooks(t *testing.T) {
	ctx := context.Background()
	lower := tickmath.NearestUsableTick(tickmath.MinTick, 60)
	upper := tickmath.NearestUsableTick(tickmath.MaxTick, 60)
	ticks, err := NewTickListProvider([]Tick{
		{Index: lower, LiquidityGross: oneEther, LiquidityNet: oneEther},
		{Index: upper, LiquidityGross: oneEther, LiquidityNet: new(big.Int).Neg(oneEther)},
	}, 60)
	if err != nil {
		t.Fatalf("NewTickListProvider: %v", err)
	}

	dynKey, err := NewPoolKey(testDAI, testUSDC, DynamicFeeFlag, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey dynamic: %v", err)
	}
	dynPool, err := NewPool(dynKey, tickmath.Q96, 0, oneEther, ticks)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	in := NewCurrencyAmount(dynPool.Key.Currency0, big.NewInt(100))
	if _, _, err := dynPool.GetOutputAmount(ctx, in, nil); !errors.Is(err, ErrUnsupportedHook) {
		t.Fatalf("dynamic fee swap: %v", err)
	}

	// Address with the before-swap permission bit set.
	hookAddr := common.HexToAddress("0x0000000000000000000000000000000000000080")
	hookKey, err := NewPoolKey(testDAI, testUSDC, 3000, 60, hookAddr)
	if err != nil {
		t.Fatalf("NewPoolKey hook: %v", err)
	}
	hookPool, err := NewPool(hookKey, tickmath.Q96, 0, oneEther, ticks)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if _, _, err := hookPool.GetOutputAmount(ctx, in, nil); !errors.Is(err, ErrUnsupportedHook) {
		t.Fatalf("swap-hook pool swap: %v", err)
	}
}

func TestSwapRejectsForeignCurrency(t *testing.T) {
	pool := fullRangePool(t, testDAI, testUSDC)
	in := NewCurrencyAmount(testWETH, big.NewInt(100))
	if _, _, err := pool.GetOutputAmount(context.Background(), in, nil); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("foreign input currency: %v", err)
	}
}

func TestFeeGrowthInside(t *testing.T) {
	key, err := NewPoolKey(testDAI, testUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	ticks, err := NewTickListProvider([]Tick{
		{Index: -60, LiquidityGross: oneEther, LiquidityNet: oneEther,
			FeeGrowthOutside0X128: big.NewInt(7), FeeGrowthOutside1X128: big.NewInt(11)},
		{Index: 60, LiquidityGross: oneEther, LiquidityNet: new(big.Int).Neg(oneEther),
			FeeGrowthOutside0X128: big.NewInt(3), FeeGrowthOutside1X128: big.NewInt(5)},
	}, 60)
	if err != nil {
		t.Fatalf("NewTickListProvider: %v", err)
	}
	pool, err := NewPool(key, tickmath.Q96, 0, oneEther, ticks)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	pool.FeeGrowthGlobal0X128 = big.NewInt(100)
	pool.FeeGrowthGlobal1X128 = big.NewInt(200)

	inside0, inside1, err := pool.FeeGrowthInside(context.Background(), -60, 60)
	if err != nil {
		t.Fatalf("FeeGrowthInside: %v", err)
	}
	// Current tick in range: inside = global - below(outside lower) - above(outside upper).
	if inside0.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("inside0 = %s, want 90", inside0)
	}
	if inside1.Cmp(big.NewInt(184)) != 0 {
		t.Fatalf("inside1 = %s, want 184", inside1)
	}
}

func TestFeeGrowthInsideWraps(t *testing.T) {
	key, err := NewPoolKey(testDAI, testUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	ticks, err := NewTickListProvider([]Tick{
		{Index: -60, LiquidityGross: oneEther, LiquidityNet: oneEther,
			FeeGrowthOutside0X128: big.NewInt(50), FeeGrowthOutside1X128: new(big.Int)},
		{Index: 60, LiquidityGross: oneEther, LiquidityNet: new(big.Int).Neg(oneEther),
			FeeGrowthOutside0X128: big.NewInt(60), FeeGrowthOutside1X128: new(big.Int)},
	}, 60)
	if err != nil {
		t.Fatalf("NewTickListProvider: %v", err)
	}
	pool, err := NewPool(key, tickmath.Q96, 0, oneEther, ticks)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	pool.FeeGrowthGlobal0X128 = big.NewInt(100)

	inside0, _, err := pool.FeeGrowthInside(context.Background(), -60, 60)
	if err != nil {
		t.Fatalf("FeeGrowthInside: %v", err)
	}
	// 100 - 50 - 60 underflows and wraps modulo 2^256.
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(10))
	if inside0.Cmp(want) != 0 {
		t.Fatalf("inside0 = %s, want %s", inside0, want)
	}
}
