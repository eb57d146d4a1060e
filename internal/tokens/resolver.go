package tokens

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"v4planner/internal/entity"
	"v4planner/internal/model"
)

// ContractCaller performs eth_call requests.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Resolver turns currency addresses into entity.Currency values, fetching
// ERC20 metadata on first sight and caching it afterwards. The zero address
// resolves to the chain's native currency.
type Resolver struct {
	caller ContractCaller
	native entity.Currency
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[common.Address]entity.Currency
}

func NewResolver(caller ContractCaller, native entity.Currency, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		caller: caller,
		native: native,
		logger: logger,
		cache:  make(map[common.Address]entity.Currency),
	}
}

// Resolve returns the currency at address. Metadata fetch failures fall back
// to 18 decimals with an empty symbol so quoting can proceed.
func (r *Resolver) Resolve(ctx context.Context, address common.Address) (entity.Currency, error) {
	if address == (common.Address{}) {
		return r.native, nil
	}

	r.mu.RLock()
	cached, ok := r.cache[address]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	meta, err := FetchMeta(ctx, r.caller, address, r.logger)
	if err != nil {
		r.logger.Warn("token metadata fetch failed", zap.String("token", address.Hex()), zap.Error(err))
		meta = model.TokenMeta{Address: address.Hex(), Decimals: 18}
	}

	currency := entity.Token(address, meta.Decimals, meta.Symbol)
	r.mu.Lock()
	r.cache[address] = currency
	r.mu.Unlock()

	return currency, nil
}

// FetchMeta loads token metadata via ERC20 calls, trying the string ABI first
// and falling back to the bytes32 variant used by older tokens.
func FetchMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("contract caller is nil")
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := caller.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("name", stringABI); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := call("name", bytes32ABI); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
