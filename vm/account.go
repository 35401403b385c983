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
	"github.com/0xsoniclabs/callsim/common"
	"github.com/0xsoniclabs/callsim/common/amount"
)

// Kind distinguishes the two account variants. The set is closed; there is
// no further dispatch hierarchy.
type Kind uint8

const (
	// Passive accounts accept inbound value unconditionally and have no
	// executable behavior.
	Passive Kind = iota
	// Programmable accounts run a handler when called.
	Programmable
)

// Account is the behavioral description of an account. Balances live in
// the state, not here; an account only declares what happens when it is
// invoked.
type Account struct {
	Kind Kind

	// Handlers maps entry-point names to the operation sequence executed
	// when the entry point is called. Only used by programmable accounts.
	Handlers map[string]Handler

	// Fallback is executed when the account receives a bare value transfer
	// or a call to an unknown entry point. A programmable account without
	// a fallback accepts such transfers without running any behavior.
	Fallback Handler
}

// NewPassiveAccount creates an account without behavior.
func NewPassiveAccount() *Account {
	return &Account{Kind: Passive}
}

// NewContract creates a programmable account with the given entry points
// and fallback behavior.
func NewContract(handlers map[string]Handler, fallback Handler) *Account {
	return &Account{Kind: Programmable, Handlers: handlers, Fallback: fallback}
}

// Handler is an ordered sequence of operations describing what an account
// does upon being invoked. It replaces arbitrary contract code with a
// bounded operation set that is expressive enough to reproduce the
// reentrancy attack and its mitigations.
type Handler []Op

// RefKind selects how an account reference in an operation is resolved.
type RefKind uint8

const (
	// RefCaller resolves to the caller of the current frame.
	RefCaller RefKind = iota
	// RefSelf resolves to the contract executing the handler.
	RefSelf
	// RefStatic resolves to a fixed address.
	RefStatic
)

// AccountRef is a symbolic account reference in a handler operation,
// resolved against the executing call frame.
type AccountRef struct {
	Kind RefKind
	Addr common.Address
}

// Caller references the caller of the current frame.
func Caller() AccountRef {
	return AccountRef{Kind: RefCaller}
}

// Self references the contract executing the handler.
func Self() AccountRef {
	return AccountRef{Kind: RefSelf}
}

// AccountAt references a fixed address.
func AccountAt(addr common.Address) AccountRef {
	return AccountRef{Kind: RefStatic, Addr: addr}
}

// FailurePolicy decides what a handler does when one of its external calls
// fails.
type FailurePolicy uint8

const (
	// Propagate aborts the handler, failing the enclosing call.
	Propagate FailurePolicy = iota
	// Ignore continues with the next operation.
	Ignore
)

// OpKind enumerates the handler operation set.
type OpKind uint8

const (
	// OpCheckEntry fails the handler unless the contract's entry for the
	// referenced account is at least the given bound.
	OpCheckEntry OpKind = iota
	// OpAdjustEntry applies a signed delta to the contract's entry for the
	// referenced account.
	OpAdjustEntry
	// OpCall performs a nested value transfer / external call.
	OpCall
	// OpGuardEnter acquires the named reentrancy guard of the contract.
	OpGuardEnter
	// OpGuardExit releases the named reentrancy guard early. Guards still
	// held when the frame exits are released by the engine on unwind.
	OpGuardExit
)

// Op is one handler operation. Which fields are meaningful depends on the
// kind; the constructors below are the intended way to build operations.
type Op struct {
	Kind OpKind

	Who       AccountRef // subject of entry checks and adjustments
	Min       int64      // lower bound for OpCheckEntry
	Delta     int64      // delta for OpAdjustEntry
	FromValue bool       // OpAdjustEntry: use the transferred value as delta

	Target    AccountRef    // callee of OpCall
	Entry     string        // entry point of OpCall, "" for a bare transfer
	Value     amount.Amount // value transferred by OpCall
	Low       bool          // OpCall uses the restricted low-budget primitive
	OnFailure FailurePolicy

	Guard string // guard name for OpGuardEnter / OpGuardExit
}

// CheckEntry fails the handler unless the contract's entry for who is at
// least min.
func CheckEntry(who AccountRef, min int64) Op {
	return Op{Kind: OpCheckEntry, Who: who, Min: min}
}

// AdjustEntry applies the given delta to the contract's entry for who.
func AdjustEntry(who AccountRef, delta int64) Op {
	return Op{Kind: OpAdjustEntry, Who: who, Delta: delta}
}

// RecordDeposit credits the contract's entry for who by the value
// transferred with the current call.
func RecordDeposit(who AccountRef) Op {
	return Op{Kind: OpAdjustEntry, Who: who, FromValue: true}
}

// ExternalCall transfers value to the target and, if the target is
// programmable, runs the named entry point (or the fallback for "") as a
// nested call. Failures propagate by default; see IgnoreFailure.
func ExternalCall(target AccountRef, entry string, value amount.Amount) Op {
	return Op{Kind: OpCall, Target: target, Entry: entry, Value: value}
}

// Restricted marks an external call as using the low-budget transfer
// primitive: the callee is invoked with the configured small fixed budget
// regardless of the ambient budget and cannot call back out.
func (o Op) Restricted() Op {
	o.Low = true
	return o
}

// IgnoreFailure makes the handler continue when this external call fails.
func (o Op) IgnoreFailure() Op {
	o.OnFailure = Ignore
	return o
}

// GuardEnter acquires the named reentrancy guard of the contract, failing
// the handler if it is already held.
func GuardEnter(name string) Op {
	return Op{Kind: OpGuardEnter, Guard: name}
}

// GuardExit releases the named reentrancy guard.
func GuardExit(name string) Op {
	return Op{Kind: OpGuardExit, Guard: name}
}
