package entity

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"v4planner/internal/tickmath"
)

// Price is an exchange rate between two currencies. The raw fraction is in
// smallest units: Numerator quote units per Denominator base units.
type Price struct {
	Base  Currency
	Quote Currency
	Fraction
}

// NewPrice builds a price from raw smallest-unit amounts: denominator of the
// base currency buys numerator of the quote currency.
func NewPrice(base, quote Currency, denominator, numerator *big.Int) Price {
	return Price{Base: base, Quote: quote, Fraction: NewFraction(numerator, denominator)}
}

// Invert flips base and quote.
func (p Price) Invert() Price {
	return Price{Base: p.Quote, Quote: p.Base, Fraction: p.Fraction.Invert()}
}

// MulPrice chains two prices; p's quote currency must be other's base.
func (p Price) MulPrice(other Price) (Price, error) {
	if !p.Quote.Equal(other.Base) {
		return Price{}, fmt.Errorf("%w: price chain mismatch %s vs %s", ErrInvalidCurrency, p.Quote, other.Base)
	}
	return Price{Base: p.Base, Quote: other.Quote, Fraction: p.Fraction.Mul(other.Fraction)}, nil
}

// QuoteAmount converts an amount of the base currency to the quote currency,
// flooring to smallest units.
func (p Price) QuoteAmount(amount CurrencyAmount) (CurrencyAmount, error) {
	if !amount.Currency.Equal(p.Base) {
		return CurrencyAmount{}, fmt.Errorf("%w: cannot quote %s with %s/%s price", ErrInvalidCurrency, amount.Currency, p.Quote, p.Base)
	}
	raw := p.Fraction.Mul(NewFraction(amount.Raw, nil)).Quotient()
	return NewCurrencyAmount(p.Quote, raw), nil
}

// adjusted rescales the raw smallest-unit ratio by the currencies' decimals
// so it reads in whole display units.
func (p Price) adjusted() Fraction {
	scale := NewFraction(
		exp10(int(p.Base.Decimals)),
		exp10(int(p.Quote.Decimals)),
	)
	return p.Fraction.Mul(scale)
}

// Decimal renders the price in display units of quote per base.
func (p Price) Decimal(places int32) decimal.Decimal {
	return p.adjusted().Decimal(places)
}

func exp10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// PriceAtTick is the price of baseCurrency in terms of quoteCurrency at the
// given tick, where the currencies are the pool's sorted pair.
func PriceAtTick(baseCurrency, quoteCurrency Currency, tick int) (Price, error) {
	sqrtRatioX96, err := tickmath.SqrtRatioAtTick(tick)
	if err != nil {
		return Price{}, err
	}
	ratioX192 := new(big.Int).Mul(sqrtRatioX96, sqrtRatioX96)
	sorted, err := baseCurrency.SortsBefore(quoteCurrency)
	if err != nil {
		return Price{}, err
	}
	if sorted {
		return NewPrice(baseCurrency, quoteCurrency, tickmath.Q192, ratioX192), nil
	}
	return NewPrice(baseCurrency, quoteCurrency, ratioX192, tickmath.Q192), nil
}

// TickForPrice is the greatest tick whose price is at most the given price.
func TickForPrice(price Price) (int, error) {
	sorted, err := price.Base.SortsBefore(price.Quote)
	if err != nil {
		return 0, err
	}
	frac := price.Fraction
	if !sorted {
		frac = frac.Invert()
	}
	sqrtRatioX96 := encodeSqrtRatioFromFraction(frac)
	tick, err := tickmath.TickAtSqrtRatio(sqrtRatioX96)
	if err != nil {
		return 0, err
	}
	// TickAtSqrtRatio floors on the sqrt ratio; step up if the next tick's
	// price still does not exceed the target.
	nextPrice, err := PriceAtTick(price.Base, price.Quote, tick+1)
	if err == nil && nextPrice.Cmp(price.Fraction) <= 0 {
		tick++
	}
	return tick, nil
}

func encodeSqrtRatioFromFraction(f Fraction) *big.Int {
	ratioX192 := new(big.Int).Lsh(f.Numerator, 192)
	ratioX192.Div(ratioX192, f.Denominator)
	return new(big.Int).Sqrt(ratioX192)
}
