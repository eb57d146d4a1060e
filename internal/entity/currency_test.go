package entity

import (
	"errors"
	"math/big"
	"testing"
)

func TestCurrencySortsBefore(t *testing.T) {
	before, err := testDAI.SortsBefore(testUSDC)
	if err != nil {
		t.Fatalf("SortsBefore: %v", err)
	}
	if !before {
		t.Fatalf("DAI should sort before USDC")
	}
	before, err = testUSDC.SortsBefore(testDAI)
	if err != nil {
		t.Fatalf("SortsBefore: %v", err)
	}
	if before {
		t.Fatalf("USDC should not sort before DAI")
	}
	if _, err := testDAI.SortsBefore(testDAI); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("identical currencies: %v", err)
	}
}

func TestNativeSortsFirst(t *testing.T) {
	before, err := testETH.SortsBefore(testDAI)
	if err != nil {
		t.Fatalf("SortsBefore: %v", err)
	}
	if !before {
		t.Fatalf("native asset should sort before every token")
	}
	if !testETH.IsNative() {
		t.Fatalf("zero address should be native")
	}
	if testDAI.IsNative() {
		t.Fatalf("token address reported native")
	}
}

func TestFractionArithmetic(t *testing.T) {
	half := NewFraction(big.NewInt(1), big.NewInt(2))
	third := NewFraction(big.NewInt(1), big.NewInt(3))

	sum := half.Add(third)
	if !sum.Equal(NewFraction(big.NewInt(5), big.NewInt(6))) {
		t.Fatalf("1/2 + 1/3 = %s/%s", sum.Numerator, sum.Denominator)
	}
	diff := half.Sub(third)
	if !diff.Equal(NewFraction(big.NewInt(1), big.NewInt(6))) {
		t.Fatalf("1/2 - 1/3 = %s/%s", diff.Numerator, diff.Denominator)
	}
	prod := half.Mul(third)
	if !prod.Equal(NewFraction(big.NewInt(1), big.NewInt(6))) {
		t.Fatalf("1/2 * 1/3 = %s/%s", prod.Numerator, prod.Denominator)
	}
	quot := half.Div(third)
	if !quot.Equal(NewFraction(big.NewInt(3), big.NewInt(2))) {
		t.Fatalf("1/2 / 1/3 = %s/%s", quot.Numerator, quot.Denominator)
	}
	if half.Cmp(third) != 1 {
		t.Fatalf("1/2 should compare above 1/3")
	}
	if got := NewFraction(big.NewInt(7), big.NewInt(2)).Quotient(); got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("floor(7/2) = %s", got)
	}
}

func TestPercentDecimal(t *testing.T) {
	p := PercentFromBips(50)
	if got := p.Decimal(2).String(); got != "0.5" {
		t.Fatalf("50 bips = %s, want 0.5", got)
	}
	if got := NewPercent(1, 100).Decimal(0).String(); got != "1" {
		t.Fatalf("1/100 = %s, want 1", got)
	}
}

func TestPriceQuoteAndDecimal(t *testing.T) {
	// 1 DAI (18 decimals) buys 1 USDC (6 decimals): raw ratio 1e6 per 1e18.
	price := NewPrice(testDAI, testUSDC, exp10(18), exp10(6))
	if got := price.Decimal(4).String(); got != "1" {
		t.Fatalf("display price = %s, want 1", got)
	}
	amount := NewCurrencyAmount(testDAI, new(big.Int).Mul(big.NewInt(5), exp10(18)))
	quoted, err := price.QuoteAmount(amount)
	if err != nil {
		t.Fatalf("QuoteAmount: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(5), exp10(6))
	if quoted.Raw.Cmp(want) != 0 {
		t.Fatalf("quoted = %s, want %s", quoted.Raw, want)
	}
	if _, err := price.QuoteAmount(NewCurrencyAmount(testUSDC, big.NewInt(1))); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("quote of wrong currency: %v", err)
	}
}

func TestPriceInvertAndChain(t *testing.T) {
	daiUSDC := NewPrice(testDAI, testUSDC, big.NewInt(2), big.NewInt(1))
	inv := daiUSDC.Invert()
	if !inv.Base.Equal(testUSDC) || !inv.Quote.Equal(testDAI) {
		t.Fatalf("invert swapped currencies wrong")
	}
	usdcWETH := NewPrice(testUSDC, testWETH, big.NewInt(3), big.NewInt(1))
	chained, err := daiUSDC.MulPrice(usdcWETH)
	if err != nil {
		t.Fatalf("MulPrice: %v", err)
	}
	if !chained.Fraction.Equal(NewFraction(big.NewInt(1), big.NewInt(6))) {
		t.Fatalf("chained price = %s/%s, want 1/6", chained.Numerator, chained.Denominator)
	}
	if _, err := daiUSDC.MulPrice(daiUSDC); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("mismatched chain: %v", err)
	}
}

func TestPriceTickRoundTrip(t *testing.T) {
	for _, tick := range []int{-100_000, -60, 0, 60, 100_000} {
		price, err := PriceAtTick(testDAI, testUSDC, tick)
		if err != nil {
			t.Fatalf("PriceAtTick(%d): %v", tick, err)
		}
		got, err := TickForPrice(price)
		if err != nil {
			t.Fatalf("TickForPrice(%d): %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip tick %d -> %d", tick, got)
		}
	}
}

func TestPriceAtTickInverseCurrencies(t *testing.T) {
	forward, err := PriceAtTick(testDAI, testUSDC, 120)
	if err != nil {
		t.Fatalf("PriceAtTick: %v", err)
	}
	backward, err := PriceAtTick(testUSDC, testDAI, 120)
	if err != nil {
		t.Fatalf("PriceAtTick: %v", err)
	}
	if !forward.Fraction.Equal(backward.Fraction.Invert()) {
		t.Fatalf("prices of the two orientations are not inverses")
	}
}

func TestCurrencyAmountArithmetic(t *testing.T) {
	a := NewCurrencyAmount(testDAI, big.NewInt(100))
	b := NewCurrencyAmount(testDAI, big.NewInt(40))
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.Raw.Cmp(big.NewInt(140)) != 0 {
		t.Fatalf("sum = %s", sum.Raw)
	}
	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if diff.Raw.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("diff = %s", diff.Raw)
	}
	if _, err := a.Add(NewCurrencyAmount(testUSDC, big.NewInt(1))); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("cross-currency add: %v", err)
	}
}
