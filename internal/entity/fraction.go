package entity

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Fraction is an exact rational built on big.Int. Operations return new
// values; a Fraction is never mutated after construction.
type Fraction struct {
	Numerator   *big.Int
	Denominator *big.Int
}

// NewFraction builds a fraction from copies of the given numerator and
// denominator. A nil denominator means 1.
func NewFraction(numerator, denominator *big.Int) Fraction {
	if denominator == nil {
		denominator = big.NewInt(1)
	}
	return Fraction{
		Numerator:   new(big.Int).Set(numerator),
		Denominator: new(big.Int).Set(denominator),
	}
}

// FractionFromInt builds a whole-number fraction.
func FractionFromInt(v int64) Fraction {
	return Fraction{Numerator: big.NewInt(v), Denominator: big.NewInt(1)}
}

// Quotient is the floor of the fraction.
func (f Fraction) Quotient() *big.Int {
	return new(big.Int).Div(f.Numerator, f.Denominator)
}

// Remainder is the fractional part left after Quotient.
func (f Fraction) Remainder() Fraction {
	return Fraction{
		Numerator:   new(big.Int).Mod(f.Numerator, f.Denominator),
		Denominator: new(big.Int).Set(f.Denominator),
	}
}

// Invert swaps numerator and denominator.
func (f Fraction) Invert() Fraction {
	return Fraction{
		Numerator:   new(big.Int).Set(f.Denominator),
		Denominator: new(big.Int).Set(f.Numerator),
	}
}

// Add returns f + other.
func (f Fraction) Add(other Fraction) Fraction {
	if f.Denominator.Cmp(other.Denominator) == 0 {
		return Fraction{
			Numerator:   new(big.Int).Add(f.Numerator, other.Numerator),
			Denominator: new(big.Int).Set(f.Denominator),
		}
	}
	num := new(big.Int).Mul(f.Numerator, other.Denominator)
	num.Add(num, new(big.Int).Mul(other.Numerator, f.Denominator))
	return Fraction{
		Numerator:   num,
		Denominator: new(big.Int).Mul(f.Denominator, other.Denominator),
	}
}

// Sub returns f - other.
func (f Fraction) Sub(other Fraction) Fraction {
	return f.Add(Fraction{
		Numerator:   new(big.Int).Neg(other.Numerator),
		Denominator: other.Denominator,
	})
}

// Mul returns f * other.
func (f Fraction) Mul(other Fraction) Fraction {
	return Fraction{
		Numerator:   new(big.Int).Mul(f.Numerator, other.Numerator),
		Denominator: new(big.Int).Mul(f.Denominator, other.Denominator),
	}
}

// Div returns f / other.
func (f Fraction) Div(other Fraction) Fraction {
	return Fraction{
		Numerator:   new(big.Int).Mul(f.Numerator, other.Denominator),
		Denominator: new(big.Int).Mul(f.Denominator, other.Numerator),
	}
}

// Cmp compares f with other, returning -1, 0 or 1. Denominators are assumed
// positive, which holds for every fraction this package constructs.
func (f Fraction) Cmp(other Fraction) int {
	left := new(big.Int).Mul(f.Numerator, other.Denominator)
	right := new(big.Int).Mul(other.Numerator, f.Denominator)
	return left.Cmp(right)
}

// Equal reports whether the two fractions have the same value.
func (f Fraction) Equal(other Fraction) bool {
	return f.Cmp(other) == 0
}

// Decimal renders the fraction at the given precision.
func (f Fraction) Decimal(places int32) decimal.Decimal {
	num := decimal.NewFromBigInt(f.Numerator, 0)
	den := decimal.NewFromBigInt(f.Denominator, 0)
	return num.DivRound(den, places)
}

// Percent is a fraction interpreted out of 100, used for slippage tolerance
// and price impact.
type Percent struct {
	Fraction
}

// NewPercent builds numerator/denominator interpreted as a percentage.
func NewPercent(numerator, denominator int64) Percent {
	return Percent{NewFraction(big.NewInt(numerator), big.NewInt(denominator))}
}

// PercentFromBips builds a percent from basis points (1 bip = 0.01%).
func PercentFromBips(bips int64) Percent {
	return Percent{NewFraction(big.NewInt(bips), big.NewInt(10_000))}
}

// Decimal renders the percent scaled by 100, so NewPercent(1, 200) renders
// as 0.5.
func (p Percent) Decimal(places int32) decimal.Decimal {
	return p.Fraction.Mul(FractionFromInt(100)).Decimal(places)
}
