package planner

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/entity"
)

const positionManagerABI = `[
  {"type":"function","name":"initializePool","stateMutability":"payable",
   "inputs":[
     {"name":"key","type":"tuple","components":[
       {"name":"currency0","type":"address"},
       {"name":"currency1","type":"address"},
       {"name":"fee","type":"uint24"},
       {"name":"tickSpacing","type":"int24"},
       {"name":"hooks","type":"address"}]},
     {"name":"sqrtPriceX96","type":"uint160"}],
   "outputs":[{"name":"tick","type":"int24"}]},
  {"type":"function","name":"modifyLiquidities","stateMutability":"payable",
   "inputs":[
     {"name":"unlockData","type":"bytes"},
     {"name":"deadline","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"multicall","stateMutability":"payable",
   "inputs":[{"name":"data","type":"bytes[]"}],
   "outputs":[{"name":"results","type":"bytes[]"}]},
  {"type":"function","name":"permit","stateMutability":"payable",
   "inputs":[
     {"name":"spender","type":"address"},
     {"name":"tokenId","type":"uint256"},
     {"name":"deadline","type":"uint256"},
     {"name":"nonce","type":"uint256"},
     {"name":"signature","type":"bytes"}],
   "outputs":[]},
  {"type":"function","name":"permitBatch","stateMutability":"payable",
   "inputs":[
     {"name":"owner","type":"address"},
     {"name":"_permitBatch","type":"tuple","components":[
       {"name":"details","type":"tuple[]","components":[
         {"name":"token","type":"address"},
         {"name":"amount","type":"uint160"},
         {"name":"expiration","type":"uint48"},
         {"name":"nonce","type":"uint48"}]},
       {"name":"spender","type":"address"},
       {"name":"sigDeadline","type":"uint256"}]},
     {"name":"signature","type":"bytes"}],
   "outputs":[{"name":"err","type":"bytes"}]}
]`

var positionManager = mustParseABI(positionManagerABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EncodeModifyLiquidities wraps a finalized plan into a modifyLiquidities
// call with the given deadline.
func EncodeModifyLiquidities(payload []byte, deadline *big.Int) ([]byte, error) {
	data, err := positionManager.Pack("modifyLiquidities", payload, deadline)
	if err != nil {
		return nil, fmt.Errorf("encode modifyLiquidities: %w", err)
	}
	return data, nil
}

// EncodeInitializePool encodes an initializePool call for the key at the
// given starting price.
func EncodeInitializePool(key entity.PoolKey, sqrtPriceX96 *big.Int) ([]byte, error) {
	data, err := positionManager.Pack("initializePool", poolKeyToWire(key), sqrtPriceX96)
	if err != nil {
		return nil, fmt.Errorf("encode initializePool: %w", err)
	}
	return data, nil
}

// EncodeMulticall batches several position manager calls into one.
func EncodeMulticall(calls [][]byte) ([]byte, error) {
	data, err := positionManager.Pack("multicall", calls)
	if err != nil {
		return nil, fmt.Errorf("encode multicall: %w", err)
	}
	return data, nil
}

// PermitDetails is one token allowance within a batched permit.
type PermitDetails struct {
	Token      common.Address
	Amount     *big.Int
	Expiration *big.Int
	Nonce      *big.Int
}

// PermitBatch authorizes the spender over several tokens with one signature.
type PermitBatch struct {
	Details     []PermitDetails
	Spender     common.Address
	SigDeadline *big.Int
}

// EncodePermit encodes an ERC721 permit for the position token.
func EncodePermit(spender common.Address, tokenID, deadline, nonce *big.Int, signature []byte) ([]byte, error) {
	data, err := positionManager.Pack("permit", spender, tokenID, deadline, nonce, signature)
	if err != nil {
		return nil, fmt.Errorf("encode permit: %w", err)
	}
	return data, nil
}

// EncodePermitBatch encodes a batched allowance permit.
func EncodePermitBatch(owner common.Address, batch PermitBatch, signature []byte) ([]byte, error) {
	data, err := positionManager.Pack("permitBatch", owner, batch, signature)
	if err != nil {
		return nil, fmt.Errorf("encode permitBatch: %w", err)
	}
	return data, nil
}
