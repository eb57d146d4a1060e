package planner

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"v4planner/internal/entity"
)

var (
	// ErrInvalidAction reports an action that fails validation or an
	// unknown discriminant during decoding.
	ErrInvalidAction = errors.New("invalid action")
	// ErrUnsettledCurrency reports a finalized plan that leaves a currency
	// delta open.
	ErrUnsettledCurrency = errors.New("unsettled currency")
	// ErrFinalized reports an addition to an already finalized plan.
	ErrFinalized = errors.New("plan already finalized")
)

// deltaTracker follows each currency's settlement delta across the plan.
// A positive delta is owed to the user (needs a take), a negative delta is
// owed to the pool manager (needs a settle). The open flag marks currencies
// whose true amount is only bounded, not known, so that a closing action is
// required even when the tracked delta is zero.
type deltaTracker struct {
	deltas map[common.Address]*big.Int
	open   map[common.Address]bool
}

func newDeltaTracker() *deltaTracker {
	return &deltaTracker{
		deltas: make(map[common.Address]*big.Int),
		open:   make(map[common.Address]bool),
	}
}

func (d *deltaTracker) delta(c common.Address) *big.Int {
	v, ok := d.deltas[c]
	if !ok {
		v = new(big.Int)
		d.deltas[c] = v
	}
	return v
}

func (d *deltaTracker) credit(c common.Address, amount *big.Int) {
	d.delta(c).Add(d.delta(c), amount)
}

func (d *deltaTracker) debit(c common.Address, amount *big.Int) {
	d.delta(c).Sub(d.delta(c), amount)
}

func (d *deltaTracker) creditOpen(c common.Address, amount *big.Int) {
	d.credit(c, amount)
	d.open[c] = true
}

func (d *deltaTracker) debitOpen(c common.Address, amount *big.Int) {
	d.debit(c, amount)
	d.open[c] = true
}

// settleAll clears a debt of unknown or known size.
func (d *deltaTracker) settleAll(c common.Address) {
	if d.delta(c).Sign() <= 0 {
		d.delta(c).SetInt64(0)
		delete(d.open, c)
	}
}

// takeAll clears a credit of unknown or known size.
func (d *deltaTracker) takeAll(c common.Address) {
	if d.delta(c).Sign() >= 0 {
		d.delta(c).SetInt64(0)
		delete(d.open, c)
	}
}

// takePortion removes bips/10000 of a positive delta, keeping it open: the
// remainder still needs a take.
func (d *deltaTracker) takePortion(c common.Address, bips *big.Int) {
	v := d.delta(c)
	if v.Sign() <= 0 {
		return
	}
	share := new(big.Int).Mul(v, bips)
	share.Div(share, MaxBips)
	v.Sub(v, share)
}

// close zeroes the delta in either direction.
func (d *deltaTracker) close(c common.Address) {
	d.delta(c).SetInt64(0)
	delete(d.open, c)
}

// unsettled lists currencies whose delta is nonzero or still open, in
// address order.
func (d *deltaTracker) unsettled() []common.Address {
	var out []common.Address
	for c, v := range d.deltas {
		if v.Sign() != 0 || d.open[c] {
			out = append(out, c)
		}
	}
	for c := range d.open {
		if _, ok := d.deltas[c]; !ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Bytes(), out[j].Bytes()) < 0
	})
	return out
}

// Planner accumulates router actions and encodes them into the calldata
// payload the position manager and router unlock with. Every currency a
// plan touches must end settled before Finalize succeeds.
type Planner struct {
	actions   []Action
	finalized bool
}

// NewPlanner returns an empty plan.
func NewPlanner() *Planner {
	return &Planner{}
}

// Add validates and appends one action.
func (p *Planner) Add(action Action) error {
	if p.finalized {
		return ErrFinalized
	}
	if action == nil {
		return errNilAction
	}
	if err := action.validate(); err != nil {
		return err
	}
	p.actions = append(p.actions, action)
	return nil
}

// Actions returns the accumulated actions in order.
func (p *Planner) Actions() []Action {
	return p.actions
}

// AddTrade appends the swap actions for a single-route trade, sized at the
// trade's slippage bounds.
func (p *Planner) AddTrade(trade *entity.Trade, slippage entity.Percent) error {
	if len(trade.Swaps) != 1 {
		return fmt.Errorf("%w: trade must have exactly one route, got %d", ErrInvalidAction, len(trade.Swaps))
	}
	route := trade.Swaps[0].Route

	if trade.Type == entity.ExactInput {
		minOut, err := trade.MinimumAmountOut(slippage)
		if err != nil {
			return err
		}
		if len(route.Pools) == 1 {
			pool := route.Pools[0]
			return p.Add(SwapExactInSingle{
				PoolKey:          pool.Key,
				ZeroForOne:       route.Input.Equal(pool.Key.Currency0),
				AmountIn:         trade.InputAmount().Raw,
				AmountOutMinimum: minOut.Raw,
			})
		}
		return p.Add(SwapExactIn{
			CurrencyIn:       route.Input.Address,
			Path:             EncodeRouteToPath(route, false),
			AmountIn:         trade.InputAmount().Raw,
			AmountOutMinimum: minOut.Raw,
		})
	}

	maxIn, err := trade.MaximumAmountIn(slippage)
	if err != nil {
		return err
	}
	if len(route.Pools) == 1 {
		pool := route.Pools[0]
		return p.Add(SwapExactOutSingle{
			PoolKey:         pool.Key,
			ZeroForOne:      route.Input.Equal(pool.Key.Currency0),
			AmountOut:       trade.OutputAmount().Raw,
			AmountInMaximum: maxIn.Raw,
		})
	}
	return p.Add(SwapExactOut{
		CurrencyOut:     route.Output.Address,
		Path:            EncodeRouteToPath(route, true),
		AmountOut:       trade.OutputAmount().Raw,
		AmountInMaximum: maxIn.Raw,
	})
}

// AddSettle appends a SETTLE for the currency. A nil amount settles the
// open delta.
func (p *Planner) AddSettle(currency entity.Currency, amount *big.Int, payerIsUser bool) error {
	if amount == nil {
		amount = OpenDelta
	}
	return p.Add(Settle{Currency: currency.Address, Amount: amount, PayerIsUser: payerIsUser})
}

// AddTake appends a TAKE to the recipient. A nil amount takes the open
// delta.
func (p *Planner) AddTake(currency entity.Currency, recipient common.Address, amount *big.Int) error {
	if amount == nil {
		amount = OpenDelta
	}
	return p.Add(Take{Currency: currency.Address, Recipient: recipient, Amount: amount})
}

// Deltas replays the plan's actions and returns the tracked delta per
// currency, for inspection before finalizing.
func (p *Planner) Deltas() map[common.Address]*big.Int {
	tracker := newDeltaTracker()
	for _, action := range p.actions {
		action.apply(tracker)
	}
	out := make(map[common.Address]*big.Int, len(tracker.deltas))
	for c, v := range tracker.deltas {
		out[c] = new(big.Int).Set(v)
	}
	return out
}

// Finalize checks that every touched currency ends settled and encodes the
// plan into the unlock payload: the action discriminants as one bytes value
// plus one ABI blob per action. The plan accepts no further actions after
// a successful Finalize.
func (p *Planner) Finalize() ([]byte, error) {
	if p.finalized {
		return nil, ErrFinalized
	}
	tracker := newDeltaTracker()
	for _, action := range p.actions {
		action.apply(tracker)
	}
	if leftover := tracker.unsettled(); len(leftover) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsettledCurrency, leftover[0])
	}

	kinds := make([]byte, len(p.actions))
	params := make([][]byte, len(p.actions))
	for i, action := range p.actions {
		kinds[i] = byte(action.Kind())
		blob, err := action.encode()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", action.Kind(), err)
		}
		params[i] = blob
	}
	payload, err := payloadArguments.Pack(kinds, params)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	p.finalized = true
	return payload, nil
}
