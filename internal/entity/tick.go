package entity

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"v4planner/internal/tickmath"
)

// Tick is a snapshot of one initialized tick's state.
type Tick struct {
	Index                 int
	LiquidityGross        *big.Int
	LiquidityNet          *big.Int
	FeeGrowthOutside0X128 *big.Int
	FeeGrowthOutside1X128 *big.Int
}

// TickCrossing is the next initialized tick in a swap direction, or the
// model boundary when the data source is exhausted.
type TickCrossing struct {
	Tick         int
	LiquidityNet *big.Int
	Initialized  bool
}

// TickDataProvider supplies tick state to the swap simulation. An exhausted
// source returns the tick-range boundary with Initialized false rather than
// an error.
type TickDataProvider interface {
	// NextInitializedTick finds the nearest initialized tick at or below
	// tick when lte is true, or strictly above tick when lte is false.
	NextInitializedTick(ctx context.Context, tick int, lte bool) (TickCrossing, error)
	// FeeGrowthOutside returns the two fee-growth-outside accumulators for
	// an initialized tick.
	FeeGrowthOutside(ctx context.Context, tick int) (feeGrowthOutside0X128, feeGrowthOutside1X128 *big.Int, err error)
}

// EmptyTickDataProvider always reports the range boundary. It serves pools
// whose swaps never cross an initialized tick.
type EmptyTickDataProvider struct{}

func (EmptyTickDataProvider) NextInitializedTick(_ context.Context, _ int, lte bool) (TickCrossing, error) {
	if lte {
		return TickCrossing{Tick: tickmath.MinTick, LiquidityNet: new(big.Int)}, nil
	}
	return TickCrossing{Tick: tickmath.MaxTick, LiquidityNet: new(big.Int)}, nil
}

func (EmptyTickDataProvider) FeeGrowthOutside(context.Context, int) (*big.Int, *big.Int, error) {
	return new(big.Int), new(big.Int), nil
}

// TickListProvider serves tick data from an in-memory sorted list.
type TickListProvider struct {
	ticks []Tick
}

// NewTickListProvider validates and indexes a tick list: indices must be
// strictly ascending multiples of tickSpacing and the liquidity-net values
// must sum to zero.
func NewTickListProvider(ticks []Tick, tickSpacing int) (*TickListProvider, error) {
	if tickSpacing < 1 {
		return nil, fmt.Errorf("%w: tick spacing %d", ErrMalformedKey, tickSpacing)
	}
	sorted := make([]Tick, len(ticks))
	copy(sorted, ticks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	netSum := new(big.Int)
	for i, tk := range sorted {
		if i > 0 && sorted[i-1].Index == tk.Index {
			return nil, fmt.Errorf("duplicate tick %d", tk.Index)
		}
		if tk.Index%tickSpacing != 0 {
			return nil, fmt.Errorf("tick %d not a multiple of spacing %d", tk.Index, tickSpacing)
		}
		if tk.LiquidityNet == nil || tk.LiquidityGross == nil {
			return nil, fmt.Errorf("tick %d missing liquidity", tk.Index)
		}
		netSum.Add(netSum, tk.LiquidityNet)
	}
	if len(sorted) > 0 && netSum.Sign() != 0 {
		return nil, fmt.Errorf("tick liquidity-net values sum to %s, want 0", netSum)
	}
	return &TickListProvider{ticks: sorted}, nil
}

func (p *TickListProvider) NextInitializedTick(_ context.Context, tick int, lte bool) (TickCrossing, error) {
	if lte {
		// Greatest index <= tick.
		i := sort.Search(len(p.ticks), func(i int) bool { return p.ticks[i].Index > tick })
		if i == 0 {
			return TickCrossing{Tick: tickmath.MinTick, LiquidityNet: new(big.Int)}, nil
		}
		tk := p.ticks[i-1]
		return TickCrossing{Tick: tk.Index, LiquidityNet: new(big.Int).Set(tk.LiquidityNet), Initialized: true}, nil
	}
	// Least index > tick.
	i := sort.Search(len(p.ticks), func(i int) bool { return p.ticks[i].Index > tick })
	if i == len(p.ticks) {
		return TickCrossing{Tick: tickmath.MaxTick, LiquidityNet: new(big.Int)}, nil
	}
	tk := p.ticks[i]
	return TickCrossing{Tick: tk.Index, LiquidityNet: new(big.Int).Set(tk.LiquidityNet), Initialized: true}, nil
}

func (p *TickListProvider) FeeGrowthOutside(_ context.Context, tick int) (*big.Int, *big.Int, error) {
	i := sort.Search(len(p.ticks), func(i int) bool { return p.ticks[i].Index >= tick })
	if i == len(p.ticks) || p.ticks[i].Index != tick {
		return nil, nil, fmt.Errorf("tick %d not initialized", tick)
	}
	tk := p.ticks[i]
	fg0, fg1 := new(big.Int), new(big.Int)
	if tk.FeeGrowthOutside0X128 != nil {
		fg0.Set(tk.FeeGrowthOutside0X128)
	}
	if tk.FeeGrowthOutside1X128 != nil {
		fg1.Set(tk.FeeGrowthOutside1X128)
	}
	return fg0, fg1, nil
}

// Ticks returns the validated, sorted tick list.
func (p *TickListProvider) Ticks() []Tick {
	return p.ticks
}
