package entity

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewPoolKeySortsCurrencies(t *testing.T) {
	key, err := NewPoolKey(testUSDC, testDAI, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	if !key.Currency0.Equal(testDAI) || !key.Currency1.Equal(testUSDC) {
		t.Fatalf("currencies not sorted: %s / %s", key.Currency0, key.Currency1)
	}
	sorted, err := NewPoolKey(testDAI, testUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	if key.PoolID() != sorted.PoolID() {
		t.Fatalf("pool id depends on argument order")
	}
}

func TestNewPoolKeyValidation(t *testing.T) {
	if _, err := NewPoolKey(testDAI, testDAI, 3000, 60, common.Address{}); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("identical currencies: %v", err)
	}
	if _, err := NewPoolKey(testDAI, testUSDC, 1_000_001, 60, common.Address{}); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("fee above maximum: %v", err)
	}
	if _, err := NewPoolKey(testDAI, testUSDC, DynamicFeeFlag, 60, common.Address{}); err != nil {
		t.Fatalf("dynamic fee flag rejected: %v", err)
	}
	if _, err := NewPoolKey(testDAI, testUSDC, 3000, 0, common.Address{}); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("zero tick spacing: %v", err)
	}
	if _, err := NewPoolKey(testDAI, testUSDC, 3000, 40_000, common.Address{}); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("oversized tick spacing: %v", err)
	}
}

func TestPoolIDDistinguishesFields(t *testing.T) {
	base, err := NewPoolKey(testDAI, testUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	otherFee, err := NewPoolKey(testDAI, testUSDC, 500, 10, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	if base.PoolID() == otherFee.PoolID() {
		t.Fatalf("different keys share a pool id")
	}
	hooked, err := NewPoolKey(testDAI, testUSDC, 3000, 60, common.HexToAddress("0x1000000000000000000000000000000000000000"))
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	if base.PoolID() == hooked.PoolID() {
		t.Fatalf("hook address not part of the pool id")
	}
}

func TestOppositeCurrency(t *testing.T) {
	key, err := NewPoolKey(testDAI, testUSDC, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("NewPoolKey: %v", err)
	}
	other, err := key.OppositeCurrency(testDAI)
	if err != nil {
		t.Fatalf("OppositeCurrency: %v", err)
	}
	if !other.Equal(testUSDC) {
		t.Fatalf("opposite of DAI = %s", other)
	}
	if _, err := key.OppositeCurrency(testWETH); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("foreign currency: %v", err)
	}
}
