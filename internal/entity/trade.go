package entity

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TradeType distinguishes which side of a trade is fixed.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	if t == ExactInput {
		return "exact-input"
	}
	return "exact-output"
}

// Swap is one route's share of a trade with its simulated amounts.
type Swap struct {
	Route        *Route
	InputAmount  CurrencyAmount
	OutputAmount CurrencyAmount
}

// Trade is a simulated trade across one or more routes. All routes share
// the same input and output currencies and no pool appears twice.
type Trade struct {
	Swaps []Swap
	Type  TradeType
}

// RouteAmount pairs a route with the fixed amount to trade along it.
type RouteAmount struct {
	Route  *Route
	Amount CurrencyAmount
}

// TradeFromRoute simulates a trade along a single route. For exact input
// the amount must be in the route's input currency; for exact output, in
// its output currency.
func TradeFromRoute(ctx context.Context, route *Route, amount CurrencyAmount, tradeType TradeType) (*Trade, error) {
	return TradeFromRoutes(ctx, []RouteAmount{{Route: route, Amount: amount}}, tradeType)
}

// TradeFromRoutes simulates a split trade across several routes.
func TradeFromRoutes(ctx context.Context, routes []RouteAmount, tradeType TradeType) (*Trade, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no routes", ErrMalformedRoute)
	}
	swaps := make([]Swap, 0, len(routes))
	for _, ra := range routes {
		swap, err := simulateSwap(ctx, ra.Route, ra.Amount, tradeType)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, swap)
	}
	trade := &Trade{Swaps: swaps, Type: tradeType}
	if err := trade.validate(); err != nil {
		return nil, err
	}
	return trade, nil
}

func simulateSwap(ctx context.Context, route *Route, amount CurrencyAmount, tradeType TradeType) (Swap, error) {
	if tradeType == ExactInput {
		if !amount.Currency.Equal(route.Input) {
			return Swap{}, fmt.Errorf("%w: amount currency %s, route input %s", ErrInvalidCurrency, amount.Currency, route.Input)
		}
		current := amount
		for _, pool := range route.Pools {
			out, _, err := pool.GetOutputAmount(ctx, current, nil)
			if err != nil {
				return Swap{}, err
			}
			current = out
		}
		return Swap{Route: route, InputAmount: amount, OutputAmount: current}, nil
	}
	if !amount.Currency.Equal(route.Output) {
		return Swap{}, fmt.Errorf("%w: amount currency %s, route output %s", ErrInvalidCurrency, amount.Currency, route.Output)
	}
	current := amount
	for i := len(route.Pools) - 1; i >= 0; i-- {
		in, _, err := route.Pools[i].GetInputAmount(ctx, current, nil)
		if err != nil {
			return Swap{}, err
		}
		current = in
	}
	return Swap{Route: route, InputAmount: current, OutputAmount: amount}, nil
}

func (t *Trade) validate() error {
	input := t.Swaps[0].Route.Input
	output := t.Swaps[0].Route.Output
	seen := make(map[common.Hash]struct{})
	for _, swap := range t.Swaps {
		if !swap.Route.Input.Equal(input) || !swap.Route.Output.Equal(output) {
			return fmt.Errorf("%w: routes trade different currency pairs", ErrMalformedRoute)
		}
		for _, pool := range swap.Route.Pools {
			id := pool.PoolID()
			if _, ok := seen[id]; ok {
				return fmt.Errorf("%w: pool %s appears in more than one route", ErrMalformedRoute, id)
			}
			seen[id] = struct{}{}
		}
	}
	return nil
}

// InputCurrency is the currency every route spends.
func (t *Trade) InputCurrency() Currency {
	return t.Swaps[0].Route.Input
}

// OutputCurrency is the currency every route receives.
func (t *Trade) OutputCurrency() Currency {
	return t.Swaps[0].Route.Output
}

// InputAmount is the total input across all routes.
func (t *Trade) InputAmount() CurrencyAmount {
	total := new(big.Int)
	for _, swap := range t.Swaps {
		total.Add(total, swap.InputAmount.Raw)
	}
	return NewCurrencyAmount(t.InputCurrency(), total)
}

// OutputAmount is the total output across all routes.
func (t *Trade) OutputAmount() CurrencyAmount {
	total := new(big.Int)
	for _, swap := range t.Swaps {
		total.Add(total, swap.OutputAmount.Raw)
	}
	return NewCurrencyAmount(t.OutputCurrency(), total)
}

// ExecutionPrice is the realized price: total output per total input.
func (t *Trade) ExecutionPrice() Price {
	in := t.InputAmount()
	out := t.OutputAmount()
	return NewPrice(in.Currency, out.Currency, in.Raw, out.Raw)
}

// PriceImpact is the drop of the realized output versus what the routes'
// mid prices would have returned, as a share of the mid output.
func (t *Trade) PriceImpact() (Percent, error) {
	midOutput := new(big.Int)
	for _, swap := range t.Swaps {
		mid, err := swap.Route.MidPrice()
		if err != nil {
			return Percent{}, err
		}
		quoted, err := mid.QuoteAmount(swap.InputAmount)
		if err != nil {
			return Percent{}, err
		}
		midOutput.Add(midOutput, quoted.Raw)
	}
	if midOutput.Sign() == 0 {
		return Percent{}, fmt.Errorf("%w: zero mid-price output", ErrInsufficientLiquidity)
	}
	diff := new(big.Int).Sub(midOutput, t.OutputAmount().Raw)
	return Percent{NewFraction(diff, midOutput)}, nil
}

// MinimumAmountOut is the least output acceptable under the slippage
// tolerance: output scaled by (1 - tolerance), rounded down.
func (t *Trade) MinimumAmountOut(slippage Percent) (CurrencyAmount, error) {
	if slippage.Numerator.Sign() < 0 {
		return CurrencyAmount{}, fmt.Errorf("negative slippage tolerance")
	}
	out := t.OutputAmount()
	if t.Type == ExactOutput {
		return out, nil
	}
	keep := new(big.Int).Sub(slippage.Denominator, slippage.Numerator)
	if keep.Sign() < 0 {
		keep.SetInt64(0)
	}
	raw := new(big.Int).Mul(out.Raw, keep)
	raw.Div(raw, slippage.Denominator)
	return NewCurrencyAmount(out.Currency, raw), nil
}

// MaximumAmountIn is the most input spendable under the slippage tolerance:
// input scaled by (1 + tolerance), rounded up.
func (t *Trade) MaximumAmountIn(slippage Percent) (CurrencyAmount, error) {
	if slippage.Numerator.Sign() < 0 {
		return CurrencyAmount{}, fmt.Errorf("negative slippage tolerance")
	}
	in := t.InputAmount()
	if t.Type == ExactInput {
		return in, nil
	}
	grow := new(big.Int).Add(slippage.Denominator, slippage.Numerator)
	raw := new(big.Int).Mul(in.Raw, grow)
	rem := new(big.Int)
	raw.DivMod(raw, slippage.Denominator, rem)
	if rem.Sign() != 0 {
		raw.Add(raw, big.NewInt(1))
	}
	return NewCurrencyAmount(in.Currency, raw), nil
}

// WorstExecutionPrice is the execution price at the slippage bound.
func (t *Trade) WorstExecutionPrice(slippage Percent) (Price, error) {
	maxIn, err := t.MaximumAmountIn(slippage)
	if err != nil {
		return Price{}, err
	}
	minOut, err := t.MinimumAmountOut(slippage)
	if err != nil {
		return Price{}, err
	}
	return NewPrice(maxIn.Currency, minOut.Currency, maxIn.Raw, minOut.Raw), nil
}
