package entity

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Currency identifies an asset a pool can hold. The zero address stands for
// the chain's native asset; any other address is an ERC-20 token.
type Currency struct {
	Address  common.Address
	Decimals uint8
	Symbol   string
}

// Native builds the native-asset currency for a chain.
func Native(decimals uint8, symbol string) Currency {
	return Currency{Decimals: decimals, Symbol: symbol}
}

// Token builds an ERC-20 currency.
func Token(address common.Address, decimals uint8, symbol string) Currency {
	return Currency{Address: address, Decimals: decimals, Symbol: symbol}
}

// IsNative reports whether the currency is the native asset.
func (c Currency) IsNative() bool {
	return c.Address == (common.Address{})
}

// Equal compares currencies by address alone; decimals and symbol are
// presentation metadata.
func (c Currency) Equal(other Currency) bool {
	return c.Address == other.Address
}

// SortsBefore reports whether c precedes other in canonical pool ordering.
// The native asset sorts before every token; tokens sort by address.
func (c Currency) SortsBefore(other Currency) (bool, error) {
	if c.Equal(other) {
		return false, fmt.Errorf("%w: identical currencies %s", ErrMalformedKey, c.Address)
	}
	return bytes.Compare(c.Address.Bytes(), other.Address.Bytes()) < 0, nil
}

func (c Currency) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	if c.IsNative() {
		return "NATIVE"
	}
	return c.Address.Hex()
}
