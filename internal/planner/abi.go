package planner

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/entity"
)

// Wire structs mirror the router's calldata tuples field for field. The
// ABI packer matches struct fields to component names by case-folded name.

type wirePoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

func poolKeyToWire(k entity.PoolKey) wirePoolKey {
	return wirePoolKey{
		Currency0:   k.Currency0.Address,
		Currency1:   k.Currency1.Address,
		Fee:         new(big.Int).SetUint64(uint64(k.Fee)),
		TickSpacing: big.NewInt(int64(k.TickSpacing)),
		Hooks:       k.Hooks,
	}
}

type wirePathKey struct {
	IntermediateCurrency common.Address
	Fee                  *big.Int
	TickSpacing          *big.Int
	Hooks                common.Address
	HookData             []byte
}

type wireMintPosition struct {
	PoolKey    wirePoolKey
	TickLower  *big.Int
	TickUpper  *big.Int
	Liquidity  *big.Int
	Amount0Max *big.Int
	Amount1Max *big.Int
	Owner      common.Address
	HookData   []byte
}

type wireIncreaseLiquidity struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Max *big.Int
	Amount1Max *big.Int
	HookData   []byte
}

type wireDecreaseLiquidity struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	HookData   []byte
}

type wireBurnPosition struct {
	TokenId    *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	HookData   []byte
}

type wireSwapExactInSingle struct {
	PoolKey          wirePoolKey
	ZeroForOne       bool
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	HookData         []byte
}

type wireSwapExactIn struct {
	CurrencyIn       common.Address
	Path             []wirePathKey
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

type wireSwapExactOutSingle struct {
	PoolKey         wirePoolKey
	ZeroForOne      bool
	AmountOut       *big.Int
	AmountInMaximum *big.Int
	HookData        []byte
}

type wireSwapExactOut struct {
	CurrencyOut     common.Address
	Path            []wirePathKey
	AmountOut       *big.Int
	AmountInMaximum *big.Int
}

type wireSettle struct {
	Currency    common.Address
	Amount      *big.Int
	PayerIsUser bool
}

type wireSettleAll struct {
	Currency  common.Address
	MaxAmount *big.Int
}

type wireSettlePair struct {
	Currency0 common.Address
	Currency1 common.Address
}

type wireTake struct {
	Currency  common.Address
	Recipient common.Address
	Amount    *big.Int
}

type wireTakeAll struct {
	Currency  common.Address
	MinAmount *big.Int
}

type wireTakePortion struct {
	Currency  common.Address
	Recipient common.Address
	Bips      *big.Int
}

type wireTakePair struct {
	Currency0 common.Address
	Currency1 common.Address
	Recipient common.Address
}

type wireCloseCurrency struct {
	Currency common.Address
}

type wireSweep struct {
	Currency common.Address
	To       common.Address
}

func mustTupleType(components []abi.ArgumentMarshaling) abi.Type {
	t, err := abi.NewType("tuple", "", components)
	if err != nil {
		panic(err)
	}
	return t
}

var poolKeyComponents = []abi.ArgumentMarshaling{
	{Name: "currency0", Type: "address"},
	{Name: "currency1", Type: "address"},
	{Name: "fee", Type: "uint24"},
	{Name: "tickSpacing", Type: "int24"},
	{Name: "hooks", Type: "address"},
}

var pathKeyComponents = []abi.ArgumentMarshaling{
	{Name: "intermediateCurrency", Type: "address"},
	{Name: "fee", Type: "uint24"},
	{Name: "tickSpacing", Type: "int24"},
	{Name: "hooks", Type: "address"},
	{Name: "hookData", Type: "bytes"},
}

var (
	mintPositionType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "poolKey", Type: "tuple", Components: poolKeyComponents},
		{Name: "tickLower", Type: "int24"},
		{Name: "tickUpper", Type: "int24"},
		{Name: "liquidity", Type: "uint256"},
		{Name: "amount0Max", Type: "uint128"},
		{Name: "amount1Max", Type: "uint128"},
		{Name: "owner", Type: "address"},
		{Name: "hookData", Type: "bytes"},
	})
	increaseLiquidityType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "tokenId", Type: "uint256"},
		{Name: "liquidity", Type: "uint256"},
		{Name: "amount0Max", Type: "uint128"},
		{Name: "amount1Max", Type: "uint128"},
		{Name: "hookData", Type: "bytes"},
	})
	decreaseLiquidityType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "tokenId", Type: "uint256"},
		{Name: "liquidity", Type: "uint256"},
		{Name: "amount0Min", Type: "uint128"},
		{Name: "amount1Min", Type: "uint128"},
		{Name: "hookData", Type: "bytes"},
	})
	burnPositionType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "tokenId", Type: "uint256"},
		{Name: "amount0Min", Type: "uint128"},
		{Name: "amount1Min", Type: "uint128"},
		{Name: "hookData", Type: "bytes"},
	})
	swapExactInSingleType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "poolKey", Type: "tuple", Components: poolKeyComponents},
		{Name: "zeroForOne", Type: "bool"},
		{Name: "amountIn", Type: "uint128"},
		{Name: "amountOutMinimum", Type: "uint128"},
		{Name: "hookData", Type: "bytes"},
	})
	swapExactInType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currencyIn", Type: "address"},
		{Name: "path", Type: "tuple[]", Components: pathKeyComponents},
		{Name: "amountIn", Type: "uint128"},
		{Name: "amountOutMinimum", Type: "uint128"},
	})
	swapExactOutSingleType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "poolKey", Type: "tuple", Components: poolKeyComponents},
		{Name: "zeroForOne", Type: "bool"},
		{Name: "amountOut", Type: "uint128"},
		{Name: "amountInMaximum", Type: "uint128"},
		{Name: "hookData", Type: "bytes"},
	})
	swapExactOutType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currencyOut", Type: "address"},
		{Name: "path", Type: "tuple[]", Components: pathKeyComponents},
		{Name: "amountOut", Type: "uint128"},
		{Name: "amountInMaximum", Type: "uint128"},
	})
	settleType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "payerIsUser", Type: "bool"},
	})
	settleAllType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency", Type: "address"},
		{Name: "maxAmount", Type: "uint256"},
	})
	settlePairType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency0", Type: "address"},
		{Name: "currency1", Type: "address"},
	})
	takeType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency", Type: "address"},
		{Name: "recipient", Type: "address"},
		{Name: "amount", Type: "uint256"},
	})
	takeAllType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency", Type: "address"},
		{Name: "minAmount", Type: "uint256"},
	})
	takePortionType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency", Type: "address"},
		{Name: "recipient", Type: "address"},
		{Name: "bips", Type: "uint256"},
	})
	takePairType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency0", Type: "address"},
		{Name: "currency1", Type: "address"},
		{Name: "recipient", Type: "address"},
	})
	closeCurrencyType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency", Type: "address"},
	})
	sweepType = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency", Type: "address"},
		{Name: "to", Type: "address"},
	})

	bytesType      = mustType("bytes")
	bytesArrayType = mustType("bytes[]")

	// payloadArguments is the outer (bytes actions, bytes[] params) pair.
	payloadArguments = abi.Arguments{{Type: bytesType}, {Type: bytesArrayType}}
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

func packTuple(t abi.Type, v interface{}) ([]byte, error) {
	data, err := abi.Arguments{{Type: t}}.Pack(v)
	if err != nil {
		return nil, fmt.Errorf("pack action params: %w", err)
	}
	return data, nil
}

func unpackTuple[T any](t abi.Type, data []byte) (T, error) {
	var zero T
	values, err := abi.Arguments{{Type: t}}.Unpack(data)
	if err != nil {
		return zero, fmt.Errorf("unpack action params: %w", err)
	}
	if len(values) != 1 {
		return zero, fmt.Errorf("unpack action params: got %d values", len(values))
	}
	out, ok := abi.ConvertType(values[0], new(T)).(*T)
	if !ok {
		return zero, fmt.Errorf("unpack action params: unexpected shape %T", values[0])
	}
	return *out, nil
}
