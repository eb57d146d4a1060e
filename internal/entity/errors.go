package entity

import "errors"

var (
	// ErrMalformedKey reports a pool key that violates a structural invariant.
	ErrMalformedKey = errors.New("malformed pool key")
	// ErrMalformedRoute reports a route whose pools do not chain by a shared
	// currency or do not contain the declared input/output.
	ErrMalformedRoute = errors.New("malformed route")
	// ErrInsufficientLiquidity reports a swap that cannot be filled within the
	// available tick data or price limit.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrUnsupportedHook reports a swap simulation against a pool whose hook
	// may modify swap behavior, which this model cannot reproduce.
	ErrUnsupportedHook = errors.New("unsupported hook")
	// ErrDataSource wraps failures propagated from the tick data collaborator.
	ErrDataSource = errors.New("tick data source failure")
	// ErrInvalidCurrency reports a currency that is not part of a pool.
	ErrInvalidCurrency = errors.New("invalid currency")
)
