package snapshot

import (
	"fmt"
	"math/big"

	"v4planner/internal/entity"
	"v4planner/internal/model"
)

// ProviderFromRows rebuilds a tick data provider from stored tick rows.
func ProviderFromRows(rows []model.TickSnapshot, tickSpacing int) (*entity.TickListProvider, error) {
	ticks := make([]entity.Tick, 0, len(rows))
	for _, row := range rows {
		gross, err := parseBig(row.LiquidityGross)
		if err != nil {
			return nil, fmt.Errorf("tick %d liquidity_gross: %w", row.Tick, err)
		}
		net, err := parseBig(row.LiquidityNet)
		if err != nil {
			return nil, fmt.Errorf("tick %d liquidity_net: %w", row.Tick, err)
		}
		fee0, err := parseBig(row.FeeGrowthOutside0)
		if err != nil {
			return nil, fmt.Errorf("tick %d fee_growth_outside0: %w", row.Tick, err)
		}
		fee1, err := parseBig(row.FeeGrowthOutside1)
		if err != nil {
			return nil, fmt.Errorf("tick %d fee_growth_outside1: %w", row.Tick, err)
		}
		ticks = append(ticks, entity.Tick{
			Index:                 int(row.Tick),
			LiquidityGross:        gross,
			LiquidityNet:          net,
			FeeGrowthOutside0X128: fee0,
			FeeGrowthOutside1X128: fee1,
		})
	}
	return entity.NewTickListProvider(ticks, tickSpacing)
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed integer %q", s)
	}
	return v, nil
}
