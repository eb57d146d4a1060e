// Package hooks decodes the callback-permission bitset a pool's hook contract
// carries in the low-order bits of its own address. No network access is
// needed: the flags are part of the address by construction.
package hooks

import "github.com/ethereum/go-ethereum/common"

// Flag identifies a single hook permission bit.
type Flag uint8

const (
	AfterRemoveLiquidityReturnsDelta Flag = iota
	AfterAddLiquidityReturnsDelta
	AfterSwapReturnsDelta
	BeforeSwapReturnsDelta
	AfterDonate
	BeforeDonate
	AfterSwap
	BeforeSwap
	AfterRemoveLiquidity
	BeforeRemoveLiquidity
	AfterAddLiquidity
	BeforeAddLiquidity
	AfterInitialize
	BeforeInitialize
)

// Permissions is the decoded hook permission set.
type Permissions struct {
	BeforeInitialize                 bool
	AfterInitialize                  bool
	BeforeAddLiquidity               bool
	AfterAddLiquidity                bool
	BeforeRemoveLiquidity            bool
	AfterRemoveLiquidity             bool
	BeforeSwap                       bool
	AfterSwap                        bool
	BeforeDonate                     bool
	AfterDonate                      bool
	BeforeSwapReturnsDelta           bool
	AfterSwapReturnsDelta            bool
	AfterAddLiquidityReturnsDelta    bool
	AfterRemoveLiquidityReturnsDelta bool
}

// Has reports whether the hook address has the given permission bit set.
func Has(addr common.Address, flag Flag) bool {
	mask := uint64(addr[18])<<8 | uint64(addr[19])
	return mask&(1<<uint64(flag)) != 0
}

// Decode returns the full permission set for a hook address.
func Decode(addr common.Address) Permissions {
	return Permissions{
		BeforeInitialize:                 Has(addr, BeforeInitialize),
		AfterInitialize:                  Has(addr, AfterInitialize),
		BeforeAddLiquidity:               Has(addr, BeforeAddLiquidity),
		AfterAddLiquidity:                Has(addr, AfterAddLiquidity),
		BeforeRemoveLiquidity:            Has(addr, BeforeRemoveLiquidity),
		AfterRemoveLiquidity:             Has(addr, AfterRemoveLiquidity),
		BeforeSwap:                       Has(addr, BeforeSwap),
		AfterSwap:                        Has(addr, AfterSwap),
		BeforeDonate:                     Has(addr, BeforeDonate),
		AfterDonate:                      Has(addr, AfterDonate),
		BeforeSwapReturnsDelta:           Has(addr, BeforeSwapReturnsDelta),
		AfterSwapReturnsDelta:            Has(addr, AfterSwapReturnsDelta),
		AfterAddLiquidityReturnsDelta:    Has(addr, AfterAddLiquidityReturnsDelta),
		AfterRemoveLiquidityReturnsDelta: Has(addr, AfterRemoveLiquidityReturnsDelta),
	}
}

// HasInitializePermissions reports whether either initialize callback is set.
func HasInitializePermissions(addr common.Address) bool {
	return Has(addr, BeforeInitialize) || Has(addr, AfterInitialize)
}

// HasLiquidityPermissions reports whether any liquidity callback is set.
func HasLiquidityPermissions(addr common.Address) bool {
	return Has(addr, BeforeAddLiquidity) || Has(addr, AfterAddLiquidity) ||
		Has(addr, BeforeRemoveLiquidity) || Has(addr, AfterRemoveLiquidity)
}

// HasSwapPermissions reports whether either swap callback is set. Swap delta
// permissions are implied by these bits.
func HasSwapPermissions(addr common.Address) bool {
	return Has(addr, BeforeSwap) || Has(addr, AfterSwap)
}

// HasDonatePermissions reports whether either donate callback is set.
func HasDonatePermissions(addr common.Address) bool {
	return Has(addr, BeforeDonate) || Has(addr, AfterDonate)
}
