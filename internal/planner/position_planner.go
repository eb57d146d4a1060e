package planner

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/entity"
)

// PositionPlanner builds liquidity-management plans. Each liquidity action
// is paired with the closing action that squares its currency deltas, so a
// finished plan finalizes cleanly.
type PositionPlanner struct {
	*Planner
}

// NewPositionPlanner returns an empty liquidity plan.
func NewPositionPlanner() *PositionPlanner {
	return &PositionPlanner{Planner: NewPlanner()}
}

// AddMint mints the position's liquidity with the given funding caps and
// settles both currencies.
func (p *PositionPlanner) AddMint(pos *entity.Position, amount0Max, amount1Max *big.Int, owner common.Address, hookData []byte) error {
	key := pos.Pool.Key
	if err := p.Add(MintPosition{
		PoolKey:    key,
		TickLower:  pos.TickLower,
		TickUpper:  pos.TickUpper,
		Liquidity:  pos.Liquidity,
		Amount0Max: amount0Max,
		Amount1Max: amount1Max,
		Owner:      owner,
		HookData:   hookData,
	}); err != nil {
		return err
	}
	return p.Add(SettlePair{Currency0: key.Currency0.Address, Currency1: key.Currency1.Address})
}

// AddIncrease adds liquidity to an existing position and settles both
// currencies.
func (p *PositionPlanner) AddIncrease(key entity.PoolKey, tokenID, liquidity, amount0Max, amount1Max *big.Int, hookData []byte) error {
	if err := p.Add(IncreaseLiquidity{
		TokenID:    tokenID,
		Liquidity:  liquidity,
		Amount0Max: amount0Max,
		Amount1Max: amount1Max,
		Currency0:  key.Currency0.Address,
		Currency1:  key.Currency1.Address,
		HookData:   hookData,
	}); err != nil {
		return err
	}
	return p.Add(SettlePair{Currency0: key.Currency0.Address, Currency1: key.Currency1.Address})
}

// AddDecrease removes liquidity from a position and takes both currencies
// to the recipient.
func (p *PositionPlanner) AddDecrease(key entity.PoolKey, tokenID, liquidity, amount0Min, amount1Min *big.Int, recipient common.Address, hookData []byte) error {
	if err := p.Add(DecreaseLiquidity{
		TokenID:    tokenID,
		Liquidity:  liquidity,
		Amount0Min: amount0Min,
		Amount1Min: amount1Min,
		Currency0:  key.Currency0.Address,
		Currency1:  key.Currency1.Address,
		HookData:   hookData,
	}); err != nil {
		return err
	}
	return p.Add(TakePair{Currency0: key.Currency0.Address, Currency1: key.Currency1.Address, Recipient: recipient})
}

// AddCollect withdraws accrued fees only: a zero-liquidity decrease
// followed by a take of both currencies.
func (p *PositionPlanner) AddCollect(key entity.PoolKey, tokenID *big.Int, recipient common.Address, hookData []byte) error {
	zero := new(big.Int)
	return p.AddDecrease(key, tokenID, zero, zero, zero, recipient, hookData)
}

// AddBurn burns the position NFT and takes both currencies to the
// recipient.
func (p *PositionPlanner) AddBurn(key entity.PoolKey, tokenID, amount0Min, amount1Min *big.Int, recipient common.Address, hookData []byte) error {
	if err := p.Add(BurnPosition{
		TokenID:    tokenID,
		Amount0Min: amount0Min,
		Amount1Min: amount1Min,
		Currency0:  key.Currency0.Address,
		Currency1:  key.Currency1.Address,
		HookData:   hookData,
	}); err != nil {
		return err
	}
	return p.Add(TakePair{Currency0: key.Currency0.Address, Currency1: key.Currency1.Address, Recipient: recipient})
}
