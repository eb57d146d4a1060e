package lens

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/entity"
	"v4planner/internal/tickmath"
)

// BitmapTickDataProvider walks a pool's on-chain tick bitmap word by word
// to serve swap simulations. Bitmap words are cached for the provider's
// lifetime, so a provider should not outlive the block it reads.
type BitmapTickDataProvider struct {
	lens        *Lens
	poolID      common.Hash
	tickSpacing int

	mu    sync.Mutex
	words map[int]*big.Int
}

// NewBitmapTickDataProvider builds a provider for one pool.
func NewBitmapTickDataProvider(l *Lens, poolID common.Hash, tickSpacing int) *BitmapTickDataProvider {
	return &BitmapTickDataProvider{
		lens:        l,
		poolID:      poolID,
		tickSpacing: tickSpacing,
		words:       make(map[int]*big.Int),
	}
}

func (p *BitmapTickDataProvider) word(ctx context.Context, pos int) (*big.Int, error) {
	p.mu.Lock()
	w, ok := p.words[pos]
	p.mu.Unlock()
	if ok {
		return w, nil
	}
	w, err := p.lens.BitmapWord(ctx, p.poolID, pos)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.words[pos] = w
	p.mu.Unlock()
	return w, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func splitCompressed(compressed int) (wordPos, bitPos int) {
	wordPos = floorDiv(compressed, 256)
	bitPos = compressed - wordPos*256
	return wordPos, bitPos
}

func lowestSetBit(v *big.Int) int {
	isolated := new(big.Int).And(v, new(big.Int).Neg(v))
	return isolated.BitLen() - 1
}

// NextInitializedTick finds the nearest initialized tick at or below tick
// (lte) or strictly above it, walking bitmap words until the usable range
// is exhausted.
func (p *BitmapTickDataProvider) NextInitializedTick(ctx context.Context, tick int, lte bool) (entity.TickCrossing, error) {
	minCompressed := floorDiv(tickmath.MinTick, p.tickSpacing)
	maxCompressed := floorDiv(tickmath.MaxTick, p.tickSpacing)

	if lte {
		compressed := floorDiv(tick, p.tickSpacing)
		wordPos, bitPos := splitCompressed(compressed)
		minWord, _ := splitCompressed(minCompressed)
		for ; wordPos >= minWord; wordPos-- {
			w, err := p.word(ctx, wordPos)
			if err != nil {
				return entity.TickCrossing{}, err
			}
			// Keep bits at or below bitPos.
			mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bitPos+1)), big.NewInt(1))
			masked := new(big.Int).And(w, mask)
			if masked.Sign() != 0 {
				c := wordPos*256 + masked.BitLen() - 1
				if c < minCompressed {
					break
				}
				return p.crossing(ctx, c*p.tickSpacing)
			}
			bitPos = 255
		}
		return entity.TickCrossing{Tick: tickmath.MinTick, LiquidityNet: new(big.Int)}, nil
	}

	compressed := floorDiv(tick, p.tickSpacing) + 1
	wordPos, bitPos := splitCompressed(compressed)
	maxWord, _ := splitCompressed(maxCompressed)
	for ; wordPos <= maxWord; wordPos++ {
		w, err := p.word(ctx, wordPos)
		if err != nil {
			return entity.TickCrossing{}, err
		}
		// Keep bits at or above bitPos.
		masked := new(big.Int).Rsh(w, uint(bitPos))
		masked.Lsh(masked, uint(bitPos))
		if masked.Sign() != 0 {
			c := wordPos*256 + lowestSetBit(masked)
			if c > maxCompressed {
				break
			}
			return p.crossing(ctx, c*p.tickSpacing)
		}
		bitPos = 0
	}
	return entity.TickCrossing{Tick: tickmath.MaxTick, LiquidityNet: new(big.Int)}, nil
}

func (p *BitmapTickDataProvider) crossing(ctx context.Context, tick int) (entity.TickCrossing, error) {
	_, net, err := p.lens.TickLiquidity(ctx, p.poolID, tick)
	if err != nil {
		return entity.TickCrossing{}, err
	}
	return entity.TickCrossing{Tick: tick, LiquidityNet: net, Initialized: true}, nil
}

// FeeGrowthOutside reads a tick's fee accumulators through the lens.
func (p *BitmapTickDataProvider) FeeGrowthOutside(ctx context.Context, tick int) (*big.Int, *big.Int, error) {
	return p.lens.TickFeeGrowthOutside(ctx, p.poolID, tick)
}

var _ entity.TickDataProvider = (*BitmapTickDataProvider)(nil)
