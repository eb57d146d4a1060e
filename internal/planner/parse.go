package planner

import (
	"fmt"

	"v4planner/internal/entity"
)

func wireToPoolKey(w wirePoolKey) entity.PoolKey {
	return entity.PoolKey{
		Currency0:   entity.Currency{Address: w.Currency0},
		Currency1:   entity.Currency{Address: w.Currency1},
		Fee:         uint32(w.Fee.Uint64()),
		TickSpacing: int(w.TickSpacing.Int64()),
		Hooks:       w.Hooks,
	}
}

func wireToPath(w []wirePathKey) []PathKey {
	path := make([]PathKey, len(w))
	for i, k := range w {
		path[i] = PathKey{
			IntermediateCurrency: k.IntermediateCurrency,
			Fee:                  uint32(k.Fee.Uint64()),
			TickSpacing:          int(k.TickSpacing.Int64()),
			Hooks:                k.Hooks,
			HookData:             k.HookData,
		}
	}
	return path
}

// ParseCalldata decodes an unlock payload back into its actions. Pool
// currencies in the result carry addresses only; decimals and symbols are
// not part of the calldata.
func ParseCalldata(payload []byte) ([]Action, error) {
	values, err := payloadArguments.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	kinds, ok := values[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: actions field is %T", ErrInvalidAction, values[0])
	}
	params, ok := values[1].([][]byte)
	if !ok {
		return nil, fmt.Errorf("%w: params field is %T", ErrInvalidAction, values[1])
	}
	if len(kinds) != len(params) {
		return nil, fmt.Errorf("%w: %d actions but %d param blobs", ErrInvalidAction, len(kinds), len(params))
	}

	actions := make([]Action, len(kinds))
	for i, kind := range kinds {
		action, err := decodeAction(ActionKind(kind), params[i])
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i, ActionKind(kind), err)
		}
		actions[i] = action
	}
	return actions, nil
}

func decodeAction(kind ActionKind, data []byte) (Action, error) {
	switch kind {
	case KindMintPosition:
		w, err := unpackTuple[wireMintPosition](mintPositionType, data)
		if err != nil {
			return nil, err
		}
		return MintPosition{
			PoolKey:    wireToPoolKey(w.PoolKey),
			TickLower:  int(w.TickLower.Int64()),
			TickUpper:  int(w.TickUpper.Int64()),
			Liquidity:  w.Liquidity,
			Amount0Max: w.Amount0Max,
			Amount1Max: w.Amount1Max,
			Owner:      w.Owner,
			HookData:   w.HookData,
		}, nil
	case KindIncreaseLiquidity:
		w, err := unpackTuple[wireIncreaseLiquidity](increaseLiquidityType, data)
		if err != nil {
			return nil, err
		}
		return IncreaseLiquidity{
			TokenID:    w.TokenId,
			Liquidity:  w.Liquidity,
			Amount0Max: w.Amount0Max,
			Amount1Max: w.Amount1Max,
			HookData:   w.HookData,
		}, nil
	case KindDecreaseLiquidity:
		w, err := unpackTuple[wireDecreaseLiquidity](decreaseLiquidityType, data)
		if err != nil {
			return nil, err
		}
		return DecreaseLiquidity{
			TokenID:    w.TokenId,
			Liquidity:  w.Liquidity,
			Amount0Min: w.Amount0Min,
			Amount1Min: w.Amount1Min,
			HookData:   w.HookData,
		}, nil
	case KindBurnPosition:
		w, err := unpackTuple[wireBurnPosition](burnPositionType, data)
		if err != nil {
			return nil, err
		}
		return BurnPosition{
			TokenID:    w.TokenId,
			Amount0Min: w.Amount0Min,
			Amount1Min: w.Amount1Min,
			HookData:   w.HookData,
		}, nil
	case KindSwapExactInSingle:
		w, err := unpackTuple[wireSwapExactInSingle](swapExactInSingleType, data)
		if err != nil {
			return nil, err
		}
		return SwapExactInSingle{
			PoolKey:          wireToPoolKey(w.PoolKey),
			ZeroForOne:       w.ZeroForOne,
			AmountIn:         w.AmountIn,
			AmountOutMinimum: w.AmountOutMinimum,
			HookData:         w.HookData,
		}, nil
	case KindSwapExactIn:
		w, err := unpackTuple[wireSwapExactIn](swapExactInType, data)
		if err != nil {
			return nil, err
		}
		return SwapExactIn{
			CurrencyIn:       w.CurrencyIn,
			Path:             wireToPath(w.Path),
			AmountIn:         w.AmountIn,
			AmountOutMinimum: w.AmountOutMinimum,
		}, nil
	case KindSwapExactOutSingle:
		w, err := unpackTuple[wireSwapExactOutSingle](swapExactOutSingleType, data)
		if err != nil {
			return nil, err
		}
		return SwapExactOutSingle{
			PoolKey:         wireToPoolKey(w.PoolKey),
			ZeroForOne:      w.ZeroForOne,
			AmountOut:       w.AmountOut,
			AmountInMaximum: w.AmountInMaximum,
			HookData:        w.HookData,
		}, nil
	case KindSwapExactOut:
		w, err := unpackTuple[wireSwapExactOut](swapExactOutType, data)
		if err != nil {
			return nil, err
		}
		return SwapExactOut{
			CurrencyOut:     w.CurrencyOut,
			Path:            wireToPath(w.Path),
			AmountOut:       w.AmountOut,
			AmountInMaximum: w.AmountInMaximum,
		}, nil
	case KindSettle:
		w, err := unpackTuple[wireSettle](settleType, data)
		if err != nil {
			return nil, err
		}
		return Settle{Currency: w.Currency, Amount: w.Amount, PayerIsUser: w.PayerIsUser}, nil
	case KindSettleAll:
		w, err := unpackTuple[wireSettleAll](settleAllType, data)
		if err != nil {
			return nil, err
		}
		return SettleAll{Currency: w.Currency, MaxAmount: w.MaxAmount}, nil
	case KindSettlePair:
		w, err := unpackTuple[wireSettlePair](settlePairType, data)
		if err != nil {
			return nil, err
		}
		return SettlePair{Currency0: w.Currency0, Currency1: w.Currency1}, nil
	case KindTake:
		w, err := unpackTuple[wireTake](takeType, data)
		if err != nil {
			return nil, err
		}
		return Take{Currency: w.Currency, Recipient: w.Recipient, Amount: w.Amount}, nil
	case KindTakeAll:
		w, err := unpackTuple[wireTakeAll](takeAllType, data)
		if err != nil {
			return nil, err
		}
		return TakeAll{Currency: w.Currency, MinAmount: w.MinAmount}, nil
	case KindTakePortion:
		w, err := unpackTuple[wireTakePortion](takePortionType, data)
		if err != nil {
			return nil, err
		}
		return TakePortion{Currency: w.Currency, Recipient: w.Recipient, Bips: w.Bips}, nil
	case KindTakePair:
		w, err := unpackTuple[wireTakePair](takePairType, data)
		if err != nil {
			return nil, err
		}
		return TakePair{Currency0: w.Currency0, Currency1: w.Currency1, Recipient: w.Recipient}, nil
	case KindCloseCurrency:
		w, err := unpackTuple[wireCloseCurrency](closeCurrencyType, data)
		if err != nil {
			return nil, err
		}
		return CloseCurrency{Currency: w.Currency}, nil
	case KindSweep:
		w, err := unpackTuple[wireSweep](sweepType, data)
		if err != nil {
			return nil, err
		}
		return Sweep{Currency: w.Currency, To: w.To}, nil
	default:
		return nil, fmt.Errorf("%w: unknown discriminant 0x%02x", ErrInvalidAction, byte(kind))
	}
}
