package planner

import (
	"v4planner/internal/entity"
)

// EncodeRouteToPath converts a route into the router's hop list. For exact
// input each hop names the currency it swaps into; for exact output each
// hop names the currency it swaps from, and the router walks the list back
// to front.
func EncodeRouteToPath(route *entity.Route, exactOutput bool) []PathKey {
	currencyPath := route.CurrencyPath()
	keys := make([]PathKey, len(route.Pools))
	for i, pool := range route.Pools {
		next := currencyPath[i+1]
		if exactOutput {
			next = currencyPath[i]
		}
		keys[i] = PathKey{
			IntermediateCurrency: next.Address,
			Fee:                  pool.Key.Fee,
			TickSpacing:          pool.Key.TickSpacing,
			Hooks:                pool.Key.Hooks,
		}
	}
	return keys
}
