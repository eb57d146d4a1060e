package entity

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// CurrencyAmount couples a raw smallest-unit amount with its currency.
type CurrencyAmount struct {
	Currency Currency
	Raw      *big.Int
}

// NewCurrencyAmount builds an amount from a copy of raw.
func NewCurrencyAmount(currency Currency, raw *big.Int) CurrencyAmount {
	return CurrencyAmount{Currency: currency, Raw: new(big.Int).Set(raw)}
}

// Add returns a + other; the currencies must match.
func (a CurrencyAmount) Add(other CurrencyAmount) (CurrencyAmount, error) {
	if !a.Currency.Equal(other.Currency) {
		return CurrencyAmount{}, fmt.Errorf("%w: cannot add %s and %s", ErrInvalidCurrency, a.Currency, other.Currency)
	}
	return NewCurrencyAmount(a.Currency, new(big.Int).Add(a.Raw, other.Raw)), nil
}

// Sub returns a - other; the currencies must match.
func (a CurrencyAmount) Sub(other CurrencyAmount) (CurrencyAmount, error) {
	if !a.Currency.Equal(other.Currency) {
		return CurrencyAmount{}, fmt.Errorf("%w: cannot subtract %s from %s", ErrInvalidCurrency, other.Currency, a.Currency)
	}
	return NewCurrencyAmount(a.Currency, new(big.Int).Sub(a.Raw, other.Raw)), nil
}

// AsFraction views the amount over a denominator of one.
func (a CurrencyAmount) AsFraction() Fraction {
	return NewFraction(a.Raw, nil)
}

// Decimal renders the amount in display units.
func (a CurrencyAmount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.Raw, -int32(a.Currency.Decimals))
}

func (a CurrencyAmount) String() string {
	return fmt.Sprintf("%s %s", a.Decimal(), a.Currency)
}
