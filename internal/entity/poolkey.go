package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"v4planner/internal/swapmath"
	"v4planner/internal/tickmath"
)

// DynamicFeeFlag marks a pool whose fee is set by its hook per swap.
const DynamicFeeFlag uint32 = 0x800000

// PoolKey identifies a pool in the singleton manager. Currency0 always sorts
// before Currency1.
type PoolKey struct {
	Currency0   Currency
	Currency1   Currency
	Fee         uint32
	TickSpacing int
	Hooks       common.Address
}

// NewPoolKey sorts the currency pair and validates fee and tick spacing.
func NewPoolKey(currencyA, currencyB Currency, fee uint32, tickSpacing int, hooks common.Address) (PoolKey, error) {
	aFirst, err := currencyA.SortsBefore(currencyB)
	if err != nil {
		return PoolKey{}, err
	}
	if !aFirst {
		currencyA, currencyB = currencyB, currencyA
	}
	if fee != DynamicFeeFlag && fee > swapmath.MaxFeePips {
		return PoolKey{}, fmt.Errorf("%w: fee %d exceeds %d", ErrMalformedKey, fee, swapmath.MaxFeePips)
	}
	if tickSpacing < 1 || tickSpacing > tickmath.MaxTickSpacing {
		return PoolKey{}, fmt.Errorf("%w: tick spacing %d out of range", ErrMalformedKey, tickSpacing)
	}
	return PoolKey{
		Currency0:   currencyA,
		Currency1:   currencyB,
		Fee:         fee,
		TickSpacing: tickSpacing,
		Hooks:       hooks,
	}, nil
}

// HasDynamicFee reports whether the pool's fee is hook controlled.
func (k PoolKey) HasDynamicFee() bool {
	return k.Fee == DynamicFeeFlag
}

// InvolvesCurrency reports whether the currency is one of the pool's pair.
func (k PoolKey) InvolvesCurrency(c Currency) bool {
	return k.Currency0.Equal(c) || k.Currency1.Equal(c)
}

// OppositeCurrency returns the other side of the pair.
func (k PoolKey) OppositeCurrency(c Currency) (Currency, error) {
	switch {
	case k.Currency0.Equal(c):
		return k.Currency1, nil
	case k.Currency1.Equal(c):
		return k.Currency0, nil
	default:
		return Currency{}, fmt.Errorf("%w: %s not in pool", ErrInvalidCurrency, c)
	}
}

// PoolID is the keccak-256 hash of the ABI encoding of the key, the pool's
// identifier in the singleton manager.
func (k PoolKey) PoolID() common.Hash {
	buf := make([]byte, 0, 5*32)
	buf = append(buf, common.LeftPadBytes(k.Currency0.Address.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(k.Currency1.Address.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes([]byte{byte(k.Fee >> 16), byte(k.Fee >> 8), byte(k.Fee)}, 32)...)
	buf = append(buf, common.LeftPadBytes([]byte{byte(k.TickSpacing >> 16), byte(k.TickSpacing >> 8), byte(k.TickSpacing)}, 32)...)
	buf = append(buf, common.LeftPadBytes(k.Hooks.Bytes(), 32)...)
	return crypto.Keccak256Hash(buf)
}
