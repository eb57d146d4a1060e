package planner

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/entity"
)

// ActionKind is the router's one-byte action discriminant.
type ActionKind byte

const (
	KindIncreaseLiquidity  ActionKind = 0x00
	KindDecreaseLiquidity  ActionKind = 0x01
	KindMintPosition       ActionKind = 0x02
	KindBurnPosition       ActionKind = 0x03
	KindSwapExactInSingle  ActionKind = 0x06
	KindSwapExactIn        ActionKind = 0x07
	KindSwapExactOutSingle ActionKind = 0x08
	KindSwapExactOut       ActionKind = 0x09
	KindSettle             ActionKind = 0x0b
	KindSettleAll          ActionKind = 0x0c
	KindSettlePair         ActionKind = 0x0d
	KindTake               ActionKind = 0x0e
	KindTakeAll            ActionKind = 0x0f
	KindTakePortion        ActionKind = 0x10
	KindTakePair           ActionKind = 0x11
	KindCloseCurrency      ActionKind = 0x12
	KindSweep              ActionKind = 0x14
)

func (k ActionKind) String() string {
	switch k {
	case KindIncreaseLiquidity:
		return "INCREASE_LIQUIDITY"
	case KindDecreaseLiquidity:
		return "DECREASE_LIQUIDITY"
	case KindMintPosition:
		return "MINT_POSITION"
	case KindBurnPosition:
		return "BURN_POSITION"
	case KindSwapExactInSingle:
		return "SWAP_EXACT_IN_SINGLE"
	case KindSwapExactIn:
		return "SWAP_EXACT_IN"
	case KindSwapExactOutSingle:
		return "SWAP_EXACT_OUT_SINGLE"
	case KindSwapExactOut:
		return "SWAP_EXACT_OUT"
	case KindSettle:
		return "SETTLE"
	case KindSettleAll:
		return "SETTLE_ALL"
	case KindSettlePair:
		return "SETTLE_PAIR"
	case KindTake:
		return "TAKE"
	case KindTakeAll:
		return "TAKE_ALL"
	case KindTakePortion:
		return "TAKE_PORTION"
	case KindTakePair:
		return "TAKE_PAIR"
	case KindCloseCurrency:
		return "CLOSE_CURRENCY"
	case KindSweep:
		return "SWEEP"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", byte(k))
	}
}

var (
	// OpenDelta asks the router to use the currency's current delta as the
	// amount.
	OpenDelta = big.NewInt(0)
	// ContractBalance asks the router to use its full currency balance.
	ContractBalance = new(big.Int).Lsh(big.NewInt(1), 255)

	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// MaxBips is the denominator of a TAKE_PORTION share.
	MaxBips = big.NewInt(10_000)
)

// Action is one router command: a discriminant plus its ABI-encoded
// parameters and its effect on the settlement deltas.
type Action interface {
	Kind() ActionKind
	validate() error
	encode() ([]byte, error)
	apply(d *deltaTracker)
}

func checkUint128(name string, v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(maxUint128) > 0 {
		return fmt.Errorf("%w: %s %v out of uint128 range", ErrInvalidAction, name, v)
	}
	return nil
}

func checkUint256(name string, v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(maxUint256) > 0 {
		return fmt.Errorf("%w: %s %v out of uint256 range", ErrInvalidAction, name, v)
	}
	return nil
}

// PathKey is one hop of a multi-hop swap path.
type PathKey struct {
	IntermediateCurrency common.Address
	Fee                  uint32
	TickSpacing          int
	Hooks                common.Address
	HookData             []byte
}

func (p PathKey) toWire() wirePathKey {
	hookData := p.HookData
	if hookData == nil {
		hookData = []byte{}
	}
	return wirePathKey{
		IntermediateCurrency: p.IntermediateCurrency,
		Fee:                  new(big.Int).SetUint64(uint64(p.Fee)),
		TickSpacing:          big.NewInt(int64(p.TickSpacing)),
		Hooks:                p.Hooks,
		HookData:             hookData,
	}
}

func pathToWire(path []PathKey) []wirePathKey {
	wire := make([]wirePathKey, len(path))
	for i, p := range path {
		wire[i] = p.toWire()
	}
	return wire
}

func emptyBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// MintPosition mints a new position NFT over a tick range.
type MintPosition struct {
	PoolKey    entity.PoolKey
	TickLower  int
	TickUpper  int
	Liquidity  *big.Int
	Amount0Max *big.Int
	Amount1Max *big.Int
	Owner      common.Address
	HookData   []byte
}

func (a MintPosition) Kind() ActionKind { return KindMintPosition }

func (a MintPosition) validate() error {
	if a.TickLower >= a.TickUpper {
		return fmt.Errorf("%w: tick range [%d, %d) inverted", ErrInvalidAction, a.TickLower, a.TickUpper)
	}
	if err := checkUint256("liquidity", a.Liquidity); err != nil {
		return err
	}
	if err := checkUint128("amount0Max", a.Amount0Max); err != nil {
		return err
	}
	return checkUint128("amount1Max", a.Amount1Max)
}

func (a MintPosition) encode() ([]byte, error) {
	return packTuple(mintPositionType, wireMintPosition{
		PoolKey:    poolKeyToWire(a.PoolKey),
		TickLower:  big.NewInt(int64(a.TickLower)),
		TickUpper:  big.NewInt(int64(a.TickUpper)),
		Liquidity:  a.Liquidity,
		Amount0Max: a.Amount0Max,
		Amount1Max: a.Amount1Max,
		Owner:      a.Owner,
		HookData:   emptyBytes(a.HookData),
	})
}

func (a MintPosition) apply(d *deltaTracker) {
	d.debitOpen(a.PoolKey.Currency0.Address, a.Amount0Max)
	d.debitOpen(a.PoolKey.Currency1.Address, a.Amount1Max)
}

// IncreaseLiquidity adds liquidity to an existing position.
type IncreaseLiquidity struct {
	TokenID    *big.Int
	Liquidity  *big.Int
	Amount0Max *big.Int
	Amount1Max *big.Int
	// Currency0 and Currency1 are the position pool's pair, needed for
	// delta bookkeeping only; they are not part of the calldata.
	Currency0 common.Address
	Currency1 common.Address
	HookData  []byte
}

func (a IncreaseLiquidity) Kind() ActionKind { return KindIncreaseLiquidity }

func (a IncreaseLiquidity) validate() error {
	if err := checkUint256("tokenId", a.TokenID); err != nil {
		return err
	}
	if err := checkUint256("liquidity", a.Liquidity); err != nil {
		return err
	}
	if err := checkUint128("amount0Max", a.Amount0Max); err != nil {
		return err
	}
	return checkUint128("amount1Max", a.Amount1Max)
}

func (a IncreaseLiquidity) encode() ([]byte, error) {
	return packTuple(increaseLiquidityType, wireIncreaseLiquidity{
		TokenId:    a.TokenID,
		Liquidity:  a.Liquidity,
		Amount0Max: a.Amount0Max,
		Amount1Max: a.Amount1Max,
		HookData:   emptyBytes(a.HookData),
	})
}

func (a IncreaseLiquidity) apply(d *deltaTracker) {
	d.debitOpen(a.Currency0, a.Amount0Max)
	d.debitOpen(a.Currency1, a.Amount1Max)
}

// DecreaseLiquidity removes liquidity from a position.
type DecreaseLiquidity struct {
	TokenID    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Currency0  common.Address
	Currency1  common.Address
	HookData   []byte
}

func (a DecreaseLiquidity) Kind() ActionKind { return KindDecreaseLiquidity }

func (a DecreaseLiquidity) validate() error {
	if err := checkUint256("tokenId", a.TokenID); err != nil {
		return err
	}
	if err := checkUint256("liquidity", a.Liquidity); err != nil {
		return err
	}
	if err := checkUint128("amount0Min", a.Amount0Min); err != nil {
		return err
	}
	return checkUint128("amount1Min", a.Amount1Min)
}

func (a DecreaseLiquidity) encode() ([]byte, error) {
	return packTuple(decreaseLiquidityType, wireDecreaseLiquidity{
		TokenId:    a.TokenID,
		Liquidity:  a.Liquidity,
		Amount0Min: a.Amount0Min,
		Amount1Min: a.Amount1Min,
		HookData:   emptyBytes(a.HookData),
	})
}

func (a DecreaseLiquidity) apply(d *deltaTracker) {
	d.creditOpen(a.Currency0, a.Amount0Min)
	d.creditOpen(a.Currency1, a.Amount1Min)
}

// BurnPosition burns a position NFT, withdrawing all of its liquidity.
type BurnPosition struct {
	TokenID    *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Currency0  common.Address
	Currency1  common.Address
	HookData   []byte
}

func (a BurnPosition) Kind() ActionKind { return KindBurnPosition }

func (a BurnPosition) validate() error {
	if err := checkUint256("tokenId", a.TokenID); err != nil {
		return err
	}
	if err := checkUint128("amount0Min", a.Amount0Min); err != nil {
		return err
	}
	return checkUint128("amount1Min", a.Amount1Min)
}

func (a BurnPosition) encode() ([]byte, error) {
	return packTuple(burnPositionType, wireBurnPosition{
		TokenId:    a.TokenID,
		Amount0Min: a.Amount0Min,
		Amount1Min: a.Amount1Min,
		HookData:   emptyBytes(a.HookData),
	})
}

func (a BurnPosition) apply(d *deltaTracker) {
	d.creditOpen(a.Currency0, a.Amount0Min)
	d.creditOpen(a.Currency1, a.Amount1Min)
}

// SwapExactInSingle swaps an exact input amount through one pool.
type SwapExactInSingle struct {
	PoolKey          entity.PoolKey
	ZeroForOne       bool
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	HookData         []byte
}

func (a SwapExactInSingle) Kind() ActionKind { return KindSwapExactInSingle }

func (a SwapExactInSingle) validate() error {
	if err := checkUint128("amountIn", a.AmountIn); err != nil {
		return err
	}
	return checkUint128("amountOutMinimum", a.AmountOutMinimum)
}

func (a SwapExactInSingle) encode() ([]byte, error) {
	return packTuple(swapExactInSingleType, wireSwapExactInSingle{
		PoolKey:          poolKeyToWire(a.PoolKey),
		ZeroForOne:       a.ZeroForOne,
		AmountIn:         a.AmountIn,
		AmountOutMinimum: a.AmountOutMinimum,
		HookData:         emptyBytes(a.HookData),
	})
}

func (a SwapExactInSingle) apply(d *deltaTracker) {
	in, out := a.PoolKey.Currency0.Address, a.PoolKey.Currency1.Address
	if !a.ZeroForOne {
		in, out = out, in
	}
	d.debit(in, a.AmountIn)
	d.creditOpen(out, a.AmountOutMinimum)
}

// SwapExactIn swaps an exact input amount along a multi-hop path.
type SwapExactIn struct {
	CurrencyIn       common.Address
	Path             []PathKey
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

func (a SwapExactIn) Kind() ActionKind { return KindSwapExactIn }

func (a SwapExactIn) validate() error {
	if len(a.Path) == 0 {
		return fmt.Errorf("%w: empty swap path", ErrInvalidAction)
	}
	if err := checkUint128("amountIn", a.AmountIn); err != nil {
		return err
	}
	return checkUint128("amountOutMinimum", a.AmountOutMinimum)
}

func (a SwapExactIn) encode() ([]byte, error) {
	return packTuple(swapExactInType, wireSwapExactIn{
		CurrencyIn:       a.CurrencyIn,
		Path:             pathToWire(a.Path),
		AmountIn:         a.AmountIn,
		AmountOutMinimum: a.AmountOutMinimum,
	})
}

func (a SwapExactIn) apply(d *deltaTracker) {
	d.debit(a.CurrencyIn, a.AmountIn)
	d.creditOpen(a.Path[len(a.Path)-1].IntermediateCurrency, a.AmountOutMinimum)
}

// SwapExactOutSingle swaps for an exact output amount through one pool.
type SwapExactOutSingle struct {
	PoolKey         entity.PoolKey
	ZeroForOne      bool
	AmountOut       *big.Int
	AmountInMaximum *big.Int
	HookData        []byte
}

func (a SwapExactOutSingle) Kind() ActionKind { return KindSwapExactOutSingle }

func (a SwapExactOutSingle) validate() error {
	if err := checkUint128("amountOut", a.AmountOut); err != nil {
		return err
	}
	return checkUint128("amountInMaximum", a.AmountInMaximum)
}

func (a SwapExactOutSingle) encode() ([]byte, error) {
	return packTuple(swapExactOutSingleType, wireSwapExactOutSingle{
		PoolKey:         poolKeyToWire(a.PoolKey),
		ZeroForOne:      a.ZeroForOne,
		AmountOut:       a.AmountOut,
		AmountInMaximum: a.AmountInMaximum,
		HookData:        emptyBytes(a.HookData),
	})
}

func (a SwapExactOutSingle) apply(d *deltaTracker) {
	in, out := a.PoolKey.Currency0.Address, a.PoolKey.Currency1.Address
	if !a.ZeroForOne {
		in, out = out, in
	}
	d.debitOpen(in, a.AmountInMaximum)
	d.credit(out, a.AmountOut)
}

// SwapExactOut swaps for an exact output amount along a multi-hop path. The
// path is ordered back to front; the first hop's intermediate currency is
// the swap's input.
type SwapExactOut struct {
	CurrencyOut     common.Address
	Path            []PathKey
	AmountOut       *big.Int
	AmountInMaximum *big.Int
}

func (a SwapExactOut) Kind() ActionKind { return KindSwapExactOut }

func (a SwapExactOut) validate() error {
	if len(a.Path) == 0 {
		return fmt.Errorf("%w: empty swap path", ErrInvalidAction)
	}
	if err := checkUint128("amountOut", a.AmountOut); err != nil {
		return err
	}
	return checkUint128("amountInMaximum", a.AmountInMaximum)
}

func (a SwapExactOut) encode() ([]byte, error) {
	return packTuple(swapExactOutType, wireSwapExactOut{
		CurrencyOut:     a.CurrencyOut,
		Path:            pathToWire(a.Path),
		AmountOut:       a.AmountOut,
		AmountInMaximum: a.AmountInMaximum,
	})
}

func (a SwapExactOut) apply(d *deltaTracker) {
	d.debitOpen(a.Path[0].IntermediateCurrency, a.AmountInMaximum)
	d.credit(a.CurrencyOut, a.AmountOut)
}

// Settle pays a currency into the pool manager. An OpenDelta amount pays
// exactly what is owed; a ContractBalance amount pays the router's balance.
type Settle struct {
	Currency    common.Address
	Amount      *big.Int
	PayerIsUser bool
}

func (a Settle) Kind() ActionKind { return KindSettle }

func (a Settle) validate() error {
	if a.Amount == nil || (a.Amount.Sign() < 0) || (a.Amount.Cmp(maxUint256) > 0) {
		return fmt.Errorf("%w: settle amount %v out of range", ErrInvalidAction, a.Amount)
	}
	return nil
}

func (a Settle) encode() ([]byte, error) {
	return packTuple(settleType, wireSettle{
		Currency:    a.Currency,
		Amount:      a.Amount,
		PayerIsUser: a.PayerIsUser,
	})
}

func (a Settle) apply(d *deltaTracker) {
	if a.Amount.Cmp(OpenDelta) == 0 || a.Amount.Cmp(ContractBalance) == 0 {
		d.settleAll(a.Currency)
		return
	}
	d.credit(a.Currency, a.Amount)
}

// SettleAll pays a currency's entire outstanding debt.
type SettleAll struct {
	Currency  common.Address
	MaxAmount *big.Int
}

func (a SettleAll) Kind() ActionKind { return KindSettleAll }

func (a SettleAll) validate() error {
	return checkUint256("maxAmount", a.MaxAmount)
}

func (a SettleAll) encode() ([]byte, error) {
	return packTuple(settleAllType, wireSettleAll{Currency: a.Currency, MaxAmount: a.MaxAmount})
}

func (a SettleAll) apply(d *deltaTracker) {
	d.settleAll(a.Currency)
}

// SettlePair pays both currencies' outstanding debts.
type SettlePair struct {
	Currency0 common.Address
	Currency1 common.Address
}

func (a SettlePair) Kind() ActionKind { return KindSettlePair }

func (a SettlePair) validate() error { return nil }

func (a SettlePair) encode() ([]byte, error) {
	return packTuple(settlePairType, wireSettlePair{Currency0: a.Currency0, Currency1: a.Currency1})
}

func (a SettlePair) apply(d *deltaTracker) {
	d.settleAll(a.Currency0)
	d.settleAll(a.Currency1)
}

// Take withdraws a currency amount to a recipient. An OpenDelta amount
// takes exactly what is owed.
type Take struct {
	Currency  common.Address
	Recipient common.Address
	Amount    *big.Int
}

func (a Take) Kind() ActionKind { return KindTake }

func (a Take) validate() error {
	return checkUint256("amount", a.Amount)
}

func (a Take) encode() ([]byte, error) {
	return packTuple(takeType, wireTake{Currency: a.Currency, Recipient: a.Recipient, Amount: a.Amount})
}

func (a Take) apply(d *deltaTracker) {
	if a.Amount.Cmp(OpenDelta) == 0 {
		d.takeAll(a.Currency)
		return
	}
	d.debit(a.Currency, a.Amount)
}

// TakeAll withdraws a currency's entire credit.
type TakeAll struct {
	Currency  common.Address
	MinAmount *big.Int
}

func (a TakeAll) Kind() ActionKind { return KindTakeAll }

func (a TakeAll) validate() error {
	return checkUint256("minAmount", a.MinAmount)
}

func (a TakeAll) encode() ([]byte, error) {
	return packTuple(takeAllType, wireTakeAll{Currency: a.Currency, MinAmount: a.MinAmount})
}

func (a TakeAll) apply(d *deltaTracker) {
	d.takeAll(a.Currency)
}

// TakePortion withdraws a basis-point share of a currency's credit, leaving
// the remainder owed.
type TakePortion struct {
	Currency  common.Address
	Recipient common.Address
	Bips      *big.Int
}

func (a TakePortion) Kind() ActionKind { return KindTakePortion }

func (a TakePortion) validate() error {
	if a.Bips == nil || a.Bips.Sign() < 0 || a.Bips.Cmp(MaxBips) > 0 {
		return fmt.Errorf("%w: portion %v out of [0, %s] bips", ErrInvalidAction, a.Bips, MaxBips)
	}
	return nil
}

func (a TakePortion) encode() ([]byte, error) {
	return packTuple(takePortionType, wireTakePortion{Currency: a.Currency, Recipient: a.Recipient, Bips: a.Bips})
}

func (a TakePortion) apply(d *deltaTracker) {
	d.takePortion(a.Currency, a.Bips)
}

// TakePair withdraws both currencies' credits to one recipient.
type TakePair struct {
	Currency0 common.Address
	Currency1 common.Address
	Recipient common.Address
}

func (a TakePair) Kind() ActionKind { return KindTakePair }

func (a TakePair) validate() error { return nil }

func (a TakePair) encode() ([]byte, error) {
	return packTuple(takePairType, wireTakePair{Currency0: a.Currency0, Currency1: a.Currency1, Recipient: a.Recipient})
}

func (a TakePair) apply(d *deltaTracker) {
	d.takeAll(a.Currency0)
	d.takeAll(a.Currency1)
}

// CloseCurrency settles or takes a currency as needed to zero its delta.
type CloseCurrency struct {
	Currency common.Address
}

func (a CloseCurrency) Kind() ActionKind { return KindCloseCurrency }

func (a CloseCurrency) validate() error { return nil }

func (a CloseCurrency) encode() ([]byte, error) {
	return packTuple(closeCurrencyType, wireCloseCurrency{Currency: a.Currency})
}

func (a CloseCurrency) apply(d *deltaTracker) {
	d.close(a.Currency)
}

// Sweep forwards the router's leftover balance of a currency. It has no
// effect on the pool manager deltas.
type Sweep struct {
	Currency common.Address
	To       common.Address
}

func (a Sweep) Kind() ActionKind { return KindSweep }

func (a Sweep) validate() error { return nil }

func (a Sweep) encode() ([]byte, error) {
	return packTuple(sweepType, wireSweep{Currency: a.Currency, To: a.To})
}

func (a Sweep) apply(*deltaTracker) {}

var _ = []Action{
	MintPosition{}, IncreaseLiquidity{}, DecreaseLiquidity{}, BurnPosition{},
	SwapExactInSingle{}, SwapExactIn{}, SwapExactOutSingle{}, SwapExactOut{},
	Settle{}, SettleAll{}, SettlePair{},
	Take{}, TakeAll{}, TakePortion{}, TakePair{},
	CloseCurrency{}, Sweep{},
}

var errNilAction = errors.New("nil action")
