// Package lens reads pool state straight out of the singleton manager's
// storage via its extsload interface, with no per-pool contracts to bind.
package lens

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"v4planner/internal/entity"
)

const extsloadABI = `[
  {"type":"function","name":"extsload","stateMutability":"view",
   "inputs":[{"name":"slot","type":"bytes32"}],
   "outputs":[{"name":"value","type":"bytes32"}]}
]`

var extsload = mustParseABI(extsloadABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// The manager keeps all pools in one mapping; per-pool state lives at fixed
// offsets from the pool's base slot.
const (
	poolsMappingSlot = 6

	slot0Offset            = 0
	feeGrowthGlobal0Offset = 1
	feeGrowthGlobal1Offset = 2
	liquidityOffset        = 3
	ticksMappingOffset     = 4
	bitmapMappingOffset    = 5
)

// PoolStateSlot is the base storage slot of a pool's state struct.
func PoolStateSlot(poolID common.Hash) common.Hash {
	return crypto.Keccak256Hash(poolID.Bytes(), uint256Word(poolsMappingSlot))
}

// TickInfoSlot is the base slot of one tick's packed state.
func TickInfoSlot(poolID common.Hash, tick int) common.Hash {
	base := slotAt(PoolStateSlot(poolID), ticksMappingOffset)
	return crypto.Keccak256Hash(int256Word(int64(tick)), base.Bytes())
}

// BitmapWordSlot is the slot of one 256-tick bitmap word.
func BitmapWordSlot(poolID common.Hash, wordPos int) common.Hash {
	base := slotAt(PoolStateSlot(poolID), bitmapMappingOffset)
	return crypto.Keccak256Hash(int256Word(int64(wordPos)), base.Bytes())
}

func slotAt(base common.Hash, offset int64) common.Hash {
	v := new(big.Int).SetBytes(base.Bytes())
	v.Add(v, big.NewInt(offset))
	return common.BigToHash(v)
}

func uint256Word(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func int256Word(v int64) []byte {
	return common.BigToHash(big.NewInt(v)).Bytes()
}

// Slot0 is the unpacked first word of a pool's state.
type Slot0 struct {
	SqrtRatioX96 *big.Int
	Tick         int
	ProtocolFee  uint32
	LPFee        uint32
}

// UnpackSlot0 splits the packed word: sqrt price in the low 160 bits, then
// the tick as int24, the protocol fee and the LP fee as uint24 each.
func UnpackSlot0(word common.Hash) Slot0 {
	v := new(big.Int).SetBytes(word.Bytes())
	mask160 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
	mask24 := big.NewInt(0xffffff)

	sqrtRatio := new(big.Int).And(v, mask160)
	tick := signExtend(new(big.Int).And(new(big.Int).Rsh(v, 160), mask24), 24)
	protocolFee := new(big.Int).And(new(big.Int).Rsh(v, 184), mask24)
	lpFee := new(big.Int).And(new(big.Int).Rsh(v, 208), mask24)

	return Slot0{
		SqrtRatioX96: sqrtRatio,
		Tick:         int(tick.Int64()),
		ProtocolFee:  uint32(protocolFee.Uint64()),
		LPFee:        uint32(lpFee.Uint64()),
	}
}

// UnpackTickWord splits a tick's first word: liquidityGross in the low 128
// bits, liquidityNet as int128 in the high bits.
func UnpackTickWord(word common.Hash) (liquidityGross, liquidityNet *big.Int) {
	v := new(big.Int).SetBytes(word.Bytes())
	mask128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	liquidityGross = new(big.Int).And(v, mask128)
	liquidityNet = signExtend(new(big.Int).Rsh(v, 128), 128)
	return liquidityGross, liquidityNet
}

func signExtend(v *big.Int, bits uint) *big.Int {
	if v.Bit(int(bits)-1) == 0 {
		return v
	}
	return new(big.Int).Sub(v, new(big.Int).Lsh(big.NewInt(1), bits))
}

// ContractCaller is the slice of the chain client the lens needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Lens reads one manager's pool state, optionally pinned to a block.
type Lens struct {
	caller  ContractCaller
	manager common.Address
	block   *big.Int
}

// New builds a lens over the manager at the latest block.
func New(caller ContractCaller, manager common.Address) *Lens {
	return &Lens{caller: caller, manager: manager}
}

// AtBlock pins all reads of the returned lens to one block.
func (l *Lens) AtBlock(number *big.Int) *Lens {
	return &Lens{caller: l.caller, manager: l.manager, block: new(big.Int).Set(number)}
}

func (l *Lens) load(ctx context.Context, slot common.Hash) (common.Hash, error) {
	data, err := extsload.Pack("extsload", slot)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack extsload: %w", err)
	}
	out, err := l.caller.CallContract(ctx, ethereum.CallMsg{To: &l.manager, Data: data}, l.block)
	if err != nil {
		return common.Hash{}, fmt.Errorf("extsload %s: %w", slot, err)
	}
	if len(out) != 32 {
		return common.Hash{}, fmt.Errorf("extsload %s: %d-byte response", slot, len(out))
	}
	return common.BytesToHash(out), nil
}

// Slot0 reads and unpacks the pool's price word.
func (l *Lens) Slot0(ctx context.Context, poolID common.Hash) (Slot0, error) {
	word, err := l.load(ctx, slotAt(PoolStateSlot(poolID), slot0Offset))
	if err != nil {
		return Slot0{}, err
	}
	return UnpackSlot0(word), nil
}

// Liquidity reads the pool's active liquidity.
func (l *Lens) Liquidity(ctx context.Context, poolID common.Hash) (*big.Int, error) {
	word, err := l.load(ctx, slotAt(PoolStateSlot(poolID), liquidityOffset))
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(word.Bytes()), nil
}

// FeeGrowthGlobals reads the pool's two global fee accumulators.
func (l *Lens) FeeGrowthGlobals(ctx context.Context, poolID common.Hash) (fee0, fee1 *big.Int, err error) {
	base := PoolStateSlot(poolID)
	w0, err := l.load(ctx, slotAt(base, feeGrowthGlobal0Offset))
	if err != nil {
		return nil, nil, err
	}
	w1, err := l.load(ctx, slotAt(base, feeGrowthGlobal1Offset))
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).SetBytes(w0.Bytes()), new(big.Int).SetBytes(w1.Bytes()), nil
}

// TickLiquidity reads one tick's gross and net liquidity.
func (l *Lens) TickLiquidity(ctx context.Context, poolID common.Hash, tick int) (liquidityGross, liquidityNet *big.Int, err error) {
	word, err := l.load(ctx, TickInfoSlot(poolID, tick))
	if err != nil {
		return nil, nil, err
	}
	liquidityGross, liquidityNet = UnpackTickWord(word)
	return liquidityGross, liquidityNet, nil
}

// TickFeeGrowthOutside reads one tick's fee-growth-outside accumulators.
func (l *Lens) TickFeeGrowthOutside(ctx context.Context, poolID common.Hash, tick int) (fee0, fee1 *big.Int, err error) {
	base := TickInfoSlot(poolID, tick)
	w0, err := l.load(ctx, slotAt(base, 1))
	if err != nil {
		return nil, nil, err
	}
	w1, err := l.load(ctx, slotAt(base, 2))
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).SetBytes(w0.Bytes()), new(big.Int).SetBytes(w1.Bytes()), nil
}

// BitmapWord reads one 256-tick word of the pool's tick bitmap.
func (l *Lens) BitmapWord(ctx context.Context, poolID common.Hash, wordPos int) (*big.Int, error) {
	word, err := l.load(ctx, BitmapWordSlot(poolID, wordPos))
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(word.Bytes()), nil
}

// PoolSnapshot assembles an entity.Pool from live storage, backed by a
// bitmap-walking tick data provider over the same lens.
func (l *Lens) PoolSnapshot(ctx context.Context, key entity.PoolKey) (*entity.Pool, error) {
	poolID := key.PoolID()
	slot0, err := l.Slot0(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if slot0.SqrtRatioX96.Sign() == 0 {
		return nil, fmt.Errorf("pool %s not initialized", poolID)
	}
	liquidity, err := l.Liquidity(ctx, poolID)
	if err != nil {
		return nil, err
	}
	provider := NewBitmapTickDataProvider(l, poolID, key.TickSpacing)
	pool, err := entity.NewPool(key, slot0.SqrtRatioX96, slot0.Tick, liquidity, provider)
	if err != nil {
		return nil, err
	}
	fee0, fee1, err := l.FeeGrowthGlobals(ctx, poolID)
	if err != nil {
		return nil, err
	}
	pool.FeeGrowthGlobal0X128 = fee0
	pool.FeeGrowthGlobal1X128 = fee1
	return pool, nil
}
