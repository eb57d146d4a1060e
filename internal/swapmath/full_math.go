package swapmath

import "math/big"

var (
	one = big.NewInt(1)

	maxUint160 = new(big.Int).Sub(new(big.Int).Lsh(one, 160), one)
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(one, 256), one)
)

// MulDiv returns floor(a * b / denominator) with full 512-bit intermediate
// precision.
func MulDiv(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Div(product, denominator)
}

// MulDivRoundingUp returns ceil(a * b / denominator) with full intermediate
// precision.
func MulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	quotient, rem := product.DivMod(product, denominator, new(big.Int))
	if rem.Sign() != 0 {
		quotient.Add(quotient, one)
	}
	return quotient
}

func divRoundingUp(a, b *big.Int) *big.Int {
	quotient, rem := new(big.Int).DivMod(a, b, new(big.Int))
	if rem.Sign() != 0 {
		quotient.Add(quotient, one)
	}
	return quotient
}

// mod256 truncates to the low 256 bits, mirroring EVM overflow semantics.
func mod256(v *big.Int) *big.Int {
	return v.And(v, maxUint256)
}

// Mod256 reduces v modulo 2^256 without mutating it.
func Mod256(v *big.Int) *big.Int {
	return new(big.Int).And(v, maxUint256)
}
