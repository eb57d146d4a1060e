package entity

import (
	"fmt"
)

// Route is an ordered list of pools chained by shared currencies, from an
// input currency to an output currency.
type Route struct {
	Pools        []*Pool
	Input        Currency
	Output       Currency
	currencyPath []Currency
}

// NewRoute validates that consecutive pools share a currency and that the
// chain starts at input and ends at output.
func NewRoute(pools []*Pool, input, output Currency) (*Route, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: no pools", ErrMalformedRoute)
	}
	if !pools[0].InvolvesCurrency(input) {
		return nil, fmt.Errorf("%w: input %s not in first pool", ErrMalformedRoute, input)
	}
	path := make([]Currency, 0, len(pools)+1)
	path = append(path, input)
	current := input
	for i, pool := range pools {
		next, err := pool.Key.OppositeCurrency(current)
		if err != nil {
			return nil, fmt.Errorf("%w: pool %d does not connect to %s", ErrMalformedRoute, i, current)
		}
		path = append(path, next)
		current = next
	}
	if !current.Equal(output) {
		return nil, fmt.Errorf("%w: route ends at %s, want %s", ErrMalformedRoute, current, output)
	}
	return &Route{Pools: pools, Input: input, Output: output, currencyPath: path}, nil
}

// CurrencyPath is the sequence of currencies traversed, input first.
func (r *Route) CurrencyPath() []Currency {
	return r.currencyPath
}

// PoolKeys returns the key of each pool in order.
func (r *Route) PoolKeys() []PoolKey {
	keys := make([]PoolKey, len(r.Pools))
	for i, p := range r.Pools {
		keys[i] = p.Key
	}
	return keys
}

// MidPrice is the spot price of the route's output in terms of its input,
// composed across all pools without any swap impact.
func (r *Route) MidPrice() (Price, error) {
	price, err := r.Pools[0].PriceOf(r.Input)
	if err != nil {
		return Price{}, err
	}
	for _, pool := range r.Pools[1:] {
		step, err := pool.PriceOf(price.Quote)
		if err != nil {
			return Price{}, err
		}
		price, err = price.MulPrice(step)
		if err != nil {
			return Price{}, err
		}
	}
	return price, nil
}
