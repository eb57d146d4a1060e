package planner

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/entity"
	"v4planner/internal/tickmath"
)

func testPool(t *testing.T, a, b entity.Currency) *entity.Pool {
	t.Helper()
	key, err := entity.NewPoolKey(a, b, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	liquidity := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	lower := tickmath.NearestUsableTick(tickmath.MinTick, 60)
	upper := tickmath.NearestUsableTick(tickmath.MaxTick, 60)
	ticks, err := entity.NewTickListProvider([]entity.Tick{
		{Index: lower, LiquidityGross: liquidity, LiquidityNet: liquidity},
		{Index: upper, LiquidityGross: liquidity, LiquidityNet: new(big.Int).Neg(liquidity)},
	}, 60)
	if err != nil {
		t.Fatalf("NewTickListProvider: %v", err)
	}
	pool, err := entity.NewPool(key, tickmath.Q96, 0, liquidity, ticks)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return pool
}

var (
	plannerDAI  = entity.Token(daiAddr, 18, "DAI")
	plannerUSDC = entity.Token(usdcAddr, 6, "USDC")
	plannerWETH = entity.Token(common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH")
)

func TestFinalizeRequiresSettledDeltas(t *testing.T) {
	key, err := entity.NewPoolKey(plannerDAI, plannerUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}

	p := NewPlanner()
	if err := p.Add(SwapExactInSingle{
		PoolKey:          key,
		ZeroForOne:       true,
		AmountIn:         big.NewInt(1000),
		AmountOutMinimum: big.NewInt(990),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := p.Finalize(); !errors.Is(err, ErrUnsettledCurrency) {
		t.Fatalf("swap without closing actions: %v", err)
	}

	if err := p.Add(SettleAll{Currency: daiAddr, MaxAmount: big.NewInt(1000)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := p.Finalize(); !errors.Is(err, ErrUnsettledCurrency) {
		t.Fatalf("output still open: %v", err)
	}

	if err := p.Add(TakeAll{Currency: usdcAddr, MinAmount: big.NewInt(990)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("fully closed plan rejected: %v", err)
	}
}

func TestOutputRequiresTakeEvenWithZeroMinimum(t *testing.T) {
	key, err := entity.NewPoolKey(plannerDAI, plannerUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	p := NewPlanner()
	if err := p.Add(SwapExactInSingle{
		PoolKey:          key,
		ZeroForOne:       true,
		AmountIn:         big.NewInt(1000),
		AmountOutMinimum: big.NewInt(0),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Add(SettleAll{Currency: daiAddr, MaxAmount: big.NewInt(1000)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// The tracked output delta is zero, but the real amount is unknown, so
	// the plan still owes a take.
	if _, err := p.Finalize(); !errors.Is(err, ErrUnsettledCurrency) {
		t.Fatalf("open output accepted: %v", err)
	}
}

func TestFinalizedPlanRejectsFurtherUse(t *testing.T) {
	p := NewPlanner()
	if err := p.Add(Sweep{Currency: daiAddr, To: bobAddr}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := p.Finalize(); !errors.Is(err, ErrFinalized) {
		t.Fatalf("second finalize: %v", err)
	}
	if err := p.Add(Sweep{Currency: daiAddr, To: bobAddr}); !errors.Is(err, ErrFinalized) {
		t.Fatalf("add after finalize: %v", err)
	}
}

func TestTakePortionLeavesRemainderOpen(t *testing.T) {
	p := NewPlanner()
	if err := p.Add(Settle{Currency: daiAddr, Amount: big.NewInt(0), PayerIsUser: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	key, err := entity.NewPoolKey(plannerDAI, plannerUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	if err := p.Add(SwapExactOutSingle{
		PoolKey:         key,
		ZeroForOne:      true,
		AmountOut:       big.NewInt(10_000),
		AmountInMaximum: big.NewInt(10_400),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Add(SettleAll{Currency: daiAddr, MaxAmount: big.NewInt(10_400)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Add(TakePortion{Currency: usdcAddr, Recipient: bobAddr, Bips: big.NewInt(25)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	deltas := p.Deltas()
	// 25 bips of 10000 is 25; 9975 remains owed.
	if got := deltas[usdcAddr]; got.Cmp(big.NewInt(9_975)) != 0 {
		t.Fatalf("remaining credit = %s, want 9975", got)
	}
	if _, err := p.Finalize(); !errors.Is(err, ErrUnsettledCurrency) {
		t.Fatalf("partial take accepted: %v", err)
	}
	if err := p.Add(TakeAll{Currency: usdcAddr, MinAmount: big.NewInt(0)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("closed plan rejected: %v", err)
	}
}

func TestCloseCurrencyClosesEitherDirection(t *testing.T) {
	p := NewPlanner()
	if err := p.Add(Settle{Currency: daiAddr, Amount: big.NewInt(50), PayerIsUser: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := p.Finalize(); !errors.Is(err, ErrUnsettledCurrency) {
		t.Fatalf("overpaid settle accepted: %v", err)
	}
	if err := p.Add(CloseCurrency{Currency: daiAddr}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("closed plan rejected: %v", err)
	}
}

func TestActionValidation(t *testing.T) {
	p := NewPlanner()
	overflow := new(big.Int).Lsh(big.NewInt(1), 128)
	key, err := entity.NewPoolKey(plannerDAI, plannerUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	if err := p.Add(SwapExactInSingle{PoolKey: key, AmountIn: overflow, AmountOutMinimum: big.NewInt(0)}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("uint128 overflow: %v", err)
	}
	if err := p.Add(SwapExactIn{CurrencyIn: daiAddr, AmountIn: big.NewInt(1), AmountOutMinimum: big.NewInt(0)}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("empty path: %v", err)
	}
	if err := p.Add(TakePortion{Currency: daiAddr, Recipient: bobAddr, Bips: big.NewInt(10_001)}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("oversized portion: %v", err)
	}
	if err := p.Add(MintPosition{PoolKey: key, TickLower: 60, TickUpper: -60, Liquidity: big.NewInt(1), Amount0Max: big.NewInt(1), Amount1Max: big.NewInt(1)}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("inverted mint range: %v", err)
	}
	if len(p.Actions()) != 0 {
		t.Fatalf("invalid actions were appended")
	}
}

func TestAddTradeSingleHop(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t, plannerDAI, plannerUSDC)
	route, err := entity.NewRoute([]*entity.Pool{pool}, plannerDAI, plannerUSDC)
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}
	trade, err := entity.TradeFromRoute(ctx, route, entity.NewCurrencyAmount(plannerDAI, big.NewInt(100_000)), entity.ExactInput)
	if err != nil {
		t.Fatalf("TradeFromRoute: %v", err)
	}

	p := NewPlanner()
	if err := p.AddTrade(trade, entity.NewPercent(1, 100)); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}
	swap, ok := p.Actions()[0].(SwapExactInSingle)
	if !ok {
		t.Fatalf("action is %T", p.Actions()[0])
	}
	if !swap.ZeroForOne {
		t.Fatalf("DAI->USDC should be zero for one")
	}
	minOut, err := trade.MinimumAmountOut(entity.NewPercent(1, 100))
	if err != nil {
		t.Fatalf("MinimumAmountOut: %v", err)
	}
	if swap.AmountOutMinimum.Cmp(minOut.Raw) != 0 {
		t.Fatalf("amountOutMinimum = %s, want %s", swap.AmountOutMinimum, minOut.Raw)
	}

	if err := p.AddSettle(plannerDAI, nil, true); err != nil {
		t.Fatalf("AddSettle: %v", err)
	}
	if err := p.AddTake(plannerUSDC, bobAddr, nil); err != nil {
		t.Fatalf("AddTake: %v", err)
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestAddTradeMultiHopExactOutput(t *testing.T) {
	ctx := context.Background()
	poolA := testPool(t, plannerDAI, plannerWETH)
	poolB := testPool(t, plannerWETH, plannerUSDC)
	route, err := entity.NewRoute([]*entity.Pool{poolA, poolB}, plannerDAI, plannerUSDC)
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}
	trade, err := entity.TradeFromRoute(ctx, route, entity.NewCurrencyAmount(plannerUSDC, big.NewInt(50_000)), entity.ExactOutput)
	if err != nil {
		t.Fatalf("TradeFromRoute: %v", err)
	}

	p := NewPlanner()
	if err := p.AddTrade(trade, entity.NewPercent(1, 100)); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}
	swap, ok := p.Actions()[0].(SwapExactOut)
	if !ok {
		t.Fatalf("action is %T", p.Actions()[0])
	}
	if swap.CurrencyOut != usdcAddr {
		t.Fatalf("currencyOut = %s", swap.CurrencyOut)
	}
	// Exact-output hops name their input side; the first hop names the
	// trade's input.
	if swap.Path[0].IntermediateCurrency != daiAddr {
		t.Fatalf("first hop currency = %s, want DAI", swap.Path[0].IntermediateCurrency)
	}
	if err := p.AddSettle(plannerDAI, nil, true); err != nil {
		t.Fatalf("AddSettle: %v", err)
	}
	if err := p.AddTake(plannerUSDC, bobAddr, nil); err != nil {
		t.Fatalf("AddTake: %v", err)
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestEncodeRouteToPath(t *testing.T) {
	poolA := testPool(t, plannerDAI, plannerWETH)
	poolB := testPool(t, plannerWETH, plannerUSDC)
	route, err := entity.NewRoute([]*entity.Pool{poolA, poolB}, plannerDAI, plannerUSDC)
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}

	exactIn := EncodeRouteToPath(route, false)
	if exactIn[0].IntermediateCurrency != plannerWETH.Address || exactIn[1].IntermediateCurrency != usdcAddr {
		t.Fatalf("exact-in path = %+v", exactIn)
	}
	exactOut := EncodeRouteToPath(route, true)
	if exactOut[0].IntermediateCurrency != daiAddr || exactOut[1].IntermediateCurrency != plannerWETH.Address {
		t.Fatalf("exact-out path = %+v", exactOut)
	}
}

func TestPositionPlannerMintSettlesPair(t *testing.T) {
	pool := testPool(t, plannerDAI, plannerUSDC)
	pos, err := entity.NewPosition(pool, -600, 600, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	p := NewPositionPlanner()
	if err := p.AddMint(pos, big.NewInt(100), big.NewInt(100), bobAddr, nil); err != nil {
		t.Fatalf("AddMint: %v", err)
	}
	if len(p.Actions()) != 2 {
		t.Fatalf("actions = %d, want mint + settle pair", len(p.Actions()))
	}
	if _, ok := p.Actions()[1].(SettlePair); !ok {
		t.Fatalf("second action is %T", p.Actions()[1])
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestPositionPlannerDecreaseTakesPair(t *testing.T) {
	pool := testPool(t, plannerDAI, plannerUSDC)
	p := NewPositionPlanner()
	if err := p.AddDecrease(pool.Key, big.NewInt(7), big.NewInt(500), big.NewInt(10), big.NewInt(10), bobAddr, nil); err != nil {
		t.Fatalf("AddDecrease: %v", err)
	}
	if _, ok := p.Actions()[1].(TakePair); !ok {
		t.Fatalf("second action is %T", p.Actions()[1])
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestPositionPlannerCollect(t *testing.T) {
	pool := testPool(t, plannerDAI, plannerUSDC)
	p := NewPositionPlanner()
	if err := p.AddCollect(pool.Key, big.NewInt(7), bobAddr, nil); err != nil {
		t.Fatalf("AddCollect: %v", err)
	}
	decrease, ok := p.Actions()[0].(DecreaseLiquidity)
	if !ok {
		t.Fatalf("first action is %T", p.Actions()[0])
	}
	if decrease.Liquidity.Sign() != 0 {
		t.Fatalf("collect decreased liquidity by %s", decrease.Liquidity)
	}
	if _, err := p.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}
