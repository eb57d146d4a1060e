package main

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"v4planner/internal/entity"
	"v4planner/internal/planner"
	"v4planner/internal/tickmath"
)

func mintTestPool(t *testing.T) *entity.Pool {
	t.Helper()
	key, err := entity.NewPoolKey(
		entity.Token(common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI"),
		entity.Token(common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC"),
		3000, 60, common.Address{},
	)
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

func TestBuildMintCall(t *testing.T) {
	pool := mintTestPool(t)
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	amount := big.NewInt(1_000_000)
	deadline := big.NewInt(1_700_000_000)

	call, pos, err := buildMintCall(pool, -60, 60, amount, amount, 50, owner, deadline)
	if err != nil {
		t.Fatalf("buildMintCall: %v", err)
	}
	if pos.Liquidity.Sign() <= 0 {
		t.Fatalf("liquidity = %v", pos.Liquidity)
	}

	selector := crypto.Keccak256([]byte("modifyLiquidities(bytes,uint256)"))[:4]
	if !bytes.Equal(call[:4], selector) {
		t.Fatalf("selector = %x, want %x", call[:4], selector)
	}

	// (bytes, uint256) args: offset word, deadline word, then length-prefixed
	// payload.
	args := call[4:]
	if got := new(big.Int).SetBytes(args[32:64]); got.Cmp(deadline) != 0 {
		t.Fatalf("deadline = %v, want %v", got, deadline)
	}
	payloadLen := new(big.Int).SetBytes(args[64:96]).Int64()
	payload := args[96 : 96+payloadLen]

	actions, err := planner.ParseCalldata(payload)
	if err != nil {
		t.Fatalf("ParseCalldata: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(actions))
	}
	mint, ok := actions[0].(planner.MintPosition)
	if !ok {
		t.Fatalf("first action = %T", actions[0])
	}
	if mint.TickLower != -60 || mint.TickUpper != 60 {
		t.Fatalf("range = [%d, %d]", mint.TickLower, mint.TickUpper)
	}
	if mint.Owner != owner {
		t.Fatalf("owner = %v", mint.Owner)
	}
	if mint.Liquidity.Cmp(pos.Liquidity) != 0 {
		t.Fatalf("liquidity = %v, want %v", mint.Liquidity, pos.Liquidity)
	}

	need0, need1, err := pos.MintAmounts()
	if err != nil {
		t.Fatalf("MintAmounts: %v", err)
	}
	if mint.Amount0Max.Cmp(need0.Raw) < 0 || mint.Amount1Max.Cmp(need1.Raw) < 0 {
		t.Fatalf("caps %v/%v below pulls %v/%v", mint.Amount0Max, mint.Amount1Max, need0.Raw, need1.Raw)
	}

	if _, ok := actions[1].(planner.SettlePair); !ok {
		t.Fatalf("second action = %T", actions[1])
	}
}

func TestBuildMintCallRejections(t *testing.T) {
	pool := mintTestPool(t)
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	deadline := big.NewInt(1_700_000_000)

	if _, _, err := buildMintCall(pool, -60, 60, big.NewInt(1000), big.NewInt(1000), -1, owner, deadline); err == nil {
		t.Fatalf("negative slippage accepted")
	}

	// A range entirely above the current price pulls currency0 only, so
	// funding with currency1 alone yields no liquidity.
	if _, _, err := buildMintCall(pool, 60, 120, new(big.Int), big.NewInt(1000), 50, owner, deadline); err == nil {
		t.Fatalf("unfundable range accepted")
	}
}

func TestCapWithSlippage(t *testing.T) {
	if got := capWithSlippage(big.NewInt(100), 50); got.Cmp(big.NewInt(101)) != 0 {
		t.Fatalf("cap(100, 50) = %v, want 101", got)
	}
	if got := capWithSlippage(big.NewInt(10_000), 50); got.Cmp(big.NewInt(10_050)) != 0 {
		t.Fatalf("cap(10000, 50) = %v, want 10050", got)
	}
	if got := capWithSlippage(big.NewInt(100), 0); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("cap(100, 0) = %v, want 100", got)
	}
}
