// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vm

import (
	"errors"
	"fmt"

	"github.com/0xsoniclabs/callsim/common"
	"github.com/0xsoniclabs/callsim/common/amount"
	"github.com/0xsoniclabs/callsim/state"
	"github.com/0xsoniclabs/tracy"
)

const (
	// ErrInsufficientFunds is re-exported from the state package; it fails
	// a transfer whose source cannot cover the value.
	ErrInsufficientFunds = state.ErrInsufficientFunds
	// ErrReentrancy fails a guardEnter on an already held guard.
	ErrReentrancy = common.ConstError("reentrant call detected")
	// ErrStackOverflow fails a call that would exceed the depth limit.
	ErrStackOverflow = common.ConstError("max call depth exceeded")
	// ErrOutOfBudget fails an external call attempted under a budget too
	// small to forward one.
	ErrOutOfBudget = common.ConstError("out of budget")
	// ErrCheckFailed fails a handler whose entry check does not hold.
	ErrCheckFailed = common.ConstError("entry check failed")
)

// valueCallCost is the flat surcharge of performing an external call from
// within a handler. It is the only gas accounting in the simulator: a call
// can be made if and only if the current frame's budget covers it. The
// value mirrors the platform's value-transfer surcharge, which is what
// makes the 2300-unit low-budget stipend insufficient for re-entry.
const valueCallCost = 9000

// Config are the execution parameters of an engine.
type Config struct {
	// MaxDepth is the maximum call nesting depth; defaults to 1024.
	MaxDepth int
	// LowBudget is the fixed budget forwarded by the restricted transfer
	// primitive; defaults to 2300.
	LowBudget uint64
	// RootBudget is the budget of a root call that does not specify one;
	// defaults to 1_000_000.
	RootBudget uint64
}

func (c Config) withDefaults() Config {
	if c.MaxDepth == 0 {
		c.MaxDepth = 1024
	}
	if c.LowBudget == 0 {
		c.LowBudget = 2300
	}
	if c.RootBudget == 0 {
		c.RootBudget = 1_000_000
	}
	return c
}

// Status is the lifecycle state of a transaction.
type Status uint8

const (
	Idle Status = iota
	Running
	Committed
	Reverted
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Committed:
		return "committed"
	case Reverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// EventKind classifies trace events.
type EventKind uint8

const (
	// EventEnter records a frame being pushed.
	EventEnter EventKind = iota
	// EventExit records a frame being popped; Err is nil on success.
	EventExit
	// EventDenied records a call attempt rejected before a frame was
	// pushed (depth limit or budget starvation).
	EventDenied
)

// Event is one entry of a transaction's call trace.
type Event struct {
	Kind   EventKind
	Depth  int
	Caller common.Address
	Callee common.Address
	Entry  string
	Value  amount.Amount
	Budget uint64
	Err    error
}

// Transaction is the immutable outcome of one root call: its terminal
// status, the full ordered trace of frames it produced, and, if reverted,
// the originating error and the depth of the frame that produced it.
type Transaction struct {
	Status      Status
	Err         error
	FailedDepth int
	Trace       []Event
}

// FrameError annotates an execution error with the depth of the frame in
// which it originated. All engine errors are wrapped exactly once, at
// their origin, so the root cause survives propagation up the stack.
type FrameError struct {
	Depth int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Depth, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

func frameError(depth int, err error) error {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return err
	}
	return &FrameError{Depth: depth, Err: err}
}

// Engine executes transactions against a state. Execution is strictly
// synchronous and single-threaded; transactions are serialized by
// construction, so the engine holds no locks. A finished transaction
// leaves the engine ready for the next one.
type Engine struct {
	config   Config
	state    *state.State
	accounts map[common.Address]*Account
	guards   map[guardKey]struct{}
}

type guardKey struct {
	contract common.Address
	name     string
}

func NewEngine(config Config, st *state.State) *Engine {
	return &Engine{
		config:   config.withDefaults(),
		state:    st,
		accounts: make(map[common.Address]*Account),
		guards:   make(map[guardKey]struct{}),
	}
}

// Register binds an account description to an address.
func (e *Engine) Register(addr common.Address, account *Account) {
	e.accounts[addr] = account
}

// Config returns the effective configuration of the engine.
func (e *Engine) Config() Config {
	return e.config
}

// Run executes one root call as a transaction. The resulting ledger
// mutation is committed in full or discarded in full; a zero budget
// selects the configured root budget. Guard states are re-armed to
// unlocked when the transaction reaches its terminal state.
func (e *Engine) Run(caller, callee common.Address, entry string, value amount.Amount, budget uint64) *Transaction {
	zone := tracy.ZoneBegin("vm::run_transaction")
	defer zone.End()

	if budget == 0 {
		budget = e.config.RootBudget
	}

	tx := &Transaction{Status: Running}
	defer func() {
		e.guards = make(map[guardKey]struct{})
	}()

	ctxt := e.state.BeginTransaction()
	err := e.call(tx, ctxt, caller, callee, entry, value, budget, 1)
	if err != nil {
		ctxt.Revert()
		tx.Status = Reverted
		tx.Err = err
		var frameErr *FrameError
		if errors.As(err, &frameErr) {
			tx.FailedDepth = frameErr.Depth
		}
		return tx
	}
	ctxt.Commit()
	tx.Status = Committed
	return tx
}

// frame captures one in-flight invocation: who calls whom, the value
// moved, the budget available to the callee, and the guards the frame has
// acquired so far.
type frame struct {
	caller common.Address
	callee common.Address
	value  amount.Amount
	budget uint64
	depth  int
	guards []guardKey
}

// call pushes one frame: it transfers the value (debit before credit),
// runs the callee's handler in a nested state context, and pops the frame
// on completion. Any failure reverts the nested context, undoing the
// transfer and everything the handler did, and propagates to the caller.
func (e *Engine) call(tx *Transaction, ctxt *state.TxContext, caller, callee common.Address, entry string, value amount.Amount, budget uint64, depth int) error {
	if depth > e.config.MaxDepth {
		err := frameError(depth, ErrStackOverflow)
		tx.Trace = append(tx.Trace, Event{Kind: EventDenied, Depth: depth, Caller: caller, Callee: callee, Entry: entry, Value: value, Budget: budget, Err: err})
		return err
	}

	tx.Trace = append(tx.Trace, Event{Kind: EventEnter, Depth: depth, Caller: caller, Callee: callee, Entry: entry, Value: value, Budget: budget})
	nested := ctxt.BeginNested()

	fail := func(err error) error {
		nested.Revert()
		tx.Trace = append(tx.Trace, Event{Kind: EventExit, Depth: depth, Caller: caller, Callee: callee, Entry: entry, Value: value, Budget: budget, Err: err})
		return err
	}

	if !value.IsZero() {
		if err := nested.Debit(caller, value); err != nil {
			return fail(frameError(depth, err))
		}
		nested.Credit(callee, value)
	}

	if handler := e.dispatch(callee, entry); handler != nil {
		current := &frame{caller: caller, callee: callee, value: value, budget: budget, depth: depth}
		err := e.runHandler(tx, nested, current, handler)
		e.releaseGuards(current)
		if err != nil {
			return fail(err)
		}
	}

	nested.Commit()
	tx.Trace = append(tx.Trace, Event{Kind: EventExit, Depth: depth, Caller: caller, Callee: callee, Entry: entry, Value: value, Budget: budget})
	return nil
}

// dispatch selects the handler to run for a call to the given entry
// point. Unknown entry points and bare transfers run the fallback; an
// account without matching behavior accepts the transfer passively.
func (e *Engine) dispatch(callee common.Address, entry string) Handler {
	account := e.accounts[callee]
	if account == nil || account.Kind != Programmable {
		return nil
	}
	if entry != "" {
		if handler, found := account.Handlers[entry]; found {
			return handler
		}
	}
	return account.Fallback
}

func (e *Engine) runHandler(tx *Transaction, ctxt *state.TxContext, current *frame, handler Handler) error {
	for _, op := range handler {
		switch op.Kind {
		case OpCheckEntry:
			who := current.resolve(op.Who)
			if ctxt.GetEntry(current.callee, who) < op.Min {
				return frameError(current.depth, ErrCheckFailed)
			}
		case OpAdjustEntry:
			delta := op.Delta
			if op.FromValue {
				delta = int64(current.value.Uint64())
			}
			ctxt.AdjustEntry(current.callee, current.resolve(op.Who), delta)
		case OpCall:
			err := e.externalCall(tx, ctxt, current, op)
			if err != nil && op.OnFailure == Propagate {
				return err
			}
		case OpGuardEnter:
			key := guardKey{contract: current.callee, name: op.Guard}
			if _, locked := e.guards[key]; locked {
				return frameError(current.depth, ErrReentrancy)
			}
			e.guards[key] = struct{}{}
			current.guards = append(current.guards, key)
		case OpGuardExit:
			e.releaseGuard(current, guardKey{contract: current.callee, name: op.Guard})
		default:
			return frameError(current.depth, fmt.Errorf("unknown operation kind %d", op.Kind))
		}
	}
	return nil
}

// externalCall performs the OpCall operation of a handler. The budget
// check happens before any state is touched: a frame whose budget cannot
// cover the call surcharge fails the attempt with ErrOutOfBudget. This is
// what starves low-budget callees of the means to call back out.
func (e *Engine) externalCall(tx *Transaction, ctxt *state.TxContext, current *frame, op Op) error {
	target := current.resolve(op.Target)
	if current.budget < valueCallCost {
		err := frameError(current.depth+1, ErrOutOfBudget)
		tx.Trace = append(tx.Trace, Event{Kind: EventDenied, Depth: current.depth + 1, Caller: current.callee, Callee: target, Entry: op.Entry, Value: op.Value, Budget: current.budget, Err: err})
		return err
	}
	forwarded := current.budget - valueCallCost
	if op.Low {
		forwarded = e.config.LowBudget
	}
	return e.call(tx, ctxt, current.callee, target, op.Entry, op.Value, forwarded, current.depth+1)
}

func (f *frame) resolve(ref AccountRef) common.Address {
	switch ref.Kind {
	case RefCaller:
		return f.caller
	case RefSelf:
		return f.callee
	default:
		return ref.Addr
	}
}

// releaseGuard releases one guard held by the frame.
func (e *Engine) releaseGuard(f *frame, key guardKey) {
	delete(e.guards, key)
	for i, held := range f.guards {
		if held == key {
			f.guards = append(f.guards[:i], f.guards[i+1:]...)
			break
		}
	}
}

// releaseGuards releases every guard still held by an exiting frame. This
// runs on all exit paths, so a guarded region cannot leak its lock even
// when the handler aborts before reaching its guardExit.
func (e *Engine) releaseGuards(f *frame) {
	for _, key := range f.guards {
		delete(e.guards, key)
	}
	f.guards = nil
}
