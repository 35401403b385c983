// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package scenario

import (
	"github.com/0xsoniclabs/callsim/archive"
	"github.com/0xsoniclabs/callsim/common"
	"github.com/0xsoniclabs/callsim/common/amount"
	"github.com/0xsoniclabs/callsim/state"
	"github.com/0xsoniclabs/callsim/vm"
)

// Result is the externally visible outcome of one root call: terminal
// status, the final ledger, and the full call trace. On a revert it also
// names the error and the depth of the frame that produced it.
type Result struct {
	Status        vm.Status
	Err           error
	FailedDepth   int
	FinalBalances map[common.Address]uint64
	Trace         []vm.Event
}

// Runner is the driver boundary of the simulator: it owns the state and
// engine of one scenario run, creates accounts, issues root calls, and
// reports results. Scenario state lives for the runner's lifetime.
type Runner struct {
	state   *state.State
	engine  *vm.Engine
	labels  map[common.Address]string
	archive *archive.Writer
}

func NewRunner(config vm.Config) *Runner {
	st := state.New()
	return &Runner{
		state:  st,
		engine: vm.NewEngine(config, st),
		labels: map[common.Address]string{},
	}
}

// SetArchive makes the runner record every finished transaction in the
// given archive.
func (r *Runner) SetArchive(writer *archive.Writer) {
	r.archive = writer
}

// CreatePassiveAccount creates an account without behavior, minting the
// given initial balance.
func (r *Runner) CreatePassiveAccount(label string, balance uint64) common.Address {
	return r.create(label, balance, vm.NewPassiveAccount())
}

// CreateContract creates a programmable account with the given entry
// points and fallback, minting the given initial balance.
func (r *Runner) CreateContract(label string, balance uint64, handlers map[string]vm.Handler, fallback vm.Handler) common.Address {
	return r.create(label, balance, vm.NewContract(handlers, fallback))
}

func (r *Runner) create(label string, balance uint64, account *vm.Account) common.Address {
	addr := common.AddressOf(label)
	r.labels[addr] = label
	r.engine.Register(addr, account)
	r.state.Apply(state.Update{Balances: map[common.Address]amount.Amount{
		addr: amount.New(balance),
	}})
	return addr
}

// Call issues one root call as a transaction. A zero budget selects the
// engine's configured root budget.
func (r *Runner) Call(caller, callee common.Address, entry string, value uint64, budget uint64) Result {
	tx := r.engine.Run(caller, callee, entry, amount.New(value), budget)

	res := Result{
		Status:        tx.Status,
		Err:           tx.Err,
		FailedDepth:   tx.FailedDepth,
		FinalBalances: map[common.Address]uint64{},
		Trace:         tx.Trace,
	}
	for _, addr := range r.state.Accounts() {
		res.FinalBalances[addr] = r.state.Balance(addr).Uint64()
	}

	if r.archive != nil {
		r.archive.Add(r.toRecord(caller, callee, entry, value, res))
	}
	return res
}

func (r *Runner) toRecord(caller, callee common.Address, entry string, value uint64, res Result) archive.TxRecord {
	record := archive.TxRecord{
		Status:    uint8(res.Status),
		Caller:    caller,
		Callee:    callee,
		Entry:     entry,
		Value:     value,
		StateHash: r.state.Hash(),
	}
	if res.Err != nil {
		record.Error = res.Err.Error()
	}
	for _, addr := range r.state.Accounts() {
		record.Balances = append(record.Balances, archive.BalanceEntry{
			Account: addr,
			Balance: r.state.Balance(addr).Uint64(),
		})
	}
	return record
}

// Label returns the human-readable label an address was created under.
func (r *Runner) Label(addr common.Address) string {
	if label, found := r.labels[addr]; found {
		return label
	}
	return addr.String()
}

// Balance returns the committed balance of an account.
func (r *Runner) Balance(addr common.Address) uint64 {
	return r.state.Balance(addr).Uint64()
}

// Entry returns a contract's committed internal entry for an account.
func (r *Runner) Entry(contract, account common.Address) int64 {
	return r.state.Entry(contract, account)
}

// StateHash returns the fingerprint of the committed ledger.
func (r *Runner) StateHash() common.Hash {
	return r.state.Hash()
}
