// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"encoding/binary"
	"slices"

	"github.com/0xsoniclabs/callsim/common"
	"github.com/0xsoniclabs/callsim/common/amount"
	"golang.org/x/exp/maps"
)

const (
	// ErrInsufficientFunds is produced by Debit when the account balance
	// does not cover the requested amount.
	ErrInsufficientFunds = common.ConstError("insufficient funds")
)

// EntryKey addresses one entry in a contract's internal bookkeeping: the
// contract's own record of what it owes the given account. These entries
// are the contract's storage, not coin balances, and may go negative.
type EntryKey struct {
	Contract common.Address
	Account  common.Address
}

// Update is a set of state mutations that can be folded into a parent
// context or applied to the committed state as a unit.
type Update struct {
	Balances map[common.Address]amount.Amount
	Entries  map[EntryKey]int64
}

// State holds the committed ledger: coin balances per account plus the
// internal entry ledgers of programmable contracts. Mutations within a
// transaction are staged in TxContext overlays and only reach the State
// when the root context commits.
type State struct {
	balances map[common.Address]amount.Amount
	entries  map[EntryKey]int64

	hasRunningTransaction bool
}

func New() *State {
	return &State{
		balances: make(map[common.Address]amount.Amount),
		entries:  make(map[EntryKey]int64),
	}
}

// Balance returns the committed balance of the given account.
func (s *State) Balance(addr common.Address) amount.Amount {
	return s.balances[addr]
}

// Entry returns the committed entry-ledger value of the given contract
// for the given account.
func (s *State) Entry(contract, account common.Address) int64 {
	return s.entries[EntryKey{contract, account}]
}

// Accounts lists all accounts with a committed balance, in deterministic
// order.
func (s *State) Accounts() []common.Address {
	res := maps.Keys(s.balances)
	slices.SortFunc(res, func(a, b common.Address) int {
		return slices.Compare(a[:], b[:])
	})
	return res
}

// Apply folds the given update into the committed state. Used for setup
// minting and by the root transaction context's commit.
func (s *State) Apply(update Update) {
	for addr, balance := range update.Balances {
		s.balances[addr] = balance
	}
	for key, value := range update.Entries {
		s.entries[key] = value
	}
}

// Hash computes a deterministic fingerprint of the committed state.
func (s *State) Hash() common.Hash {
	data := []byte{}
	for _, addr := range s.Accounts() {
		balance := s.balances[addr].Bytes32()
		data = append(data, addr[:]...)
		data = append(data, balance[:]...)
	}
	keys := maps.Keys(s.entries)
	slices.SortFunc(keys, func(a, b EntryKey) int {
		if c := slices.Compare(a.Contract[:], b.Contract[:]); c != 0 {
			return c
		}
		return slices.Compare(a.Account[:], b.Account[:])
	})
	for _, key := range keys {
		data = append(data, key.Contract[:]...)
		data = append(data, key.Account[:]...)
		data = binary.BigEndian.AppendUint64(data, uint64(s.entries[key]))
	}
	return common.Keccak256(data)
}

// BeginTransaction opens the root context of a new transaction. Only one
// transaction may be in flight at a time; transactions are strictly
// serialized by construction.
func (s *State) BeginTransaction() *TxContext {
	if s.hasRunningTransaction {
		panic("unable to run multiple transactions concurrently")
	}
	s.hasRunningTransaction = true
	return &TxContext{state: s, active: true}
}

// TxContext is one overlay on the transaction's mutation chain. The root
// context overlays the committed state; each nested call frame opens a
// further nested context overlaying its parent. Reads walk the chain, so
// a nested frame observes all in-flight mutations of its ancestors.
type TxContext struct {
	state  *State
	parent *TxContext
	active bool
	update Update
}

func (c *TxContext) check() {
	if !c.active {
		panic("given transaction context is not active")
	}
}

// GetBalance reads the balance of an account as visible to this context.
func (c *TxContext) GetBalance(addr common.Address) amount.Amount {
	c.check()
	for ctxt := c; ctxt != nil; ctxt = ctxt.parent {
		if balance, found := ctxt.update.Balances[addr]; found {
			return balance
		}
	}
	return c.state.balances[addr]
}

func (c *TxContext) setBalance(addr common.Address, balance amount.Amount) {
	if c.update.Balances == nil {
		c.update.Balances = map[common.Address]amount.Amount{}
	}
	c.update.Balances[addr] = balance
}

// Credit increases the balance of the given account. Never fails.
func (c *TxContext) Credit(addr common.Address, value amount.Amount) {
	c.check()
	c.setBalance(addr, amount.Add(c.GetBalance(addr), value))
}

// Debit decreases the balance of the given account. Fails with
// ErrInsufficientFunds if the balance does not cover the amount, leaving
// the state untouched. Balances never go negative.
func (c *TxContext) Debit(addr common.Address, value amount.Amount) error {
	c.check()
	balance := c.GetBalance(addr)
	if balance.Less(value) {
		return ErrInsufficientFunds
	}
	c.setBalance(addr, amount.Sub(balance, value))
	return nil
}

// GetEntry reads a contract's internal entry for an account as visible to
// this context.
func (c *TxContext) GetEntry(contract, account common.Address) int64 {
	c.check()
	key := EntryKey{contract, account}
	for ctxt := c; ctxt != nil; ctxt = ctxt.parent {
		if value, found := ctxt.update.Entries[key]; found {
			return value
		}
	}
	return c.state.entries[key]
}

// AdjustEntry applies a signed delta to a contract's internal entry.
// Entries may go negative; they are the contract's own bookkeeping.
func (c *TxContext) AdjustEntry(contract, account common.Address, delta int64) {
	c.check()
	if c.update.Entries == nil {
		c.update.Entries = map[EntryKey]int64{}
	}
	c.update.Entries[EntryKey{contract, account}] = c.GetEntry(contract, account) + delta
}

// BeginNested opens a child context for a nested call frame. The parent is
// deactivated until the child commits or reverts.
func (c *TxContext) BeginNested() *TxContext {
	c.check()
	c.active = false
	return &TxContext{state: c.state, parent: c, active: true}
}

// Commit folds this context's mutations into its parent, or into the
// committed state if this is the root context, and closes the context.
func (c *TxContext) Commit() {
	c.check()
	if c.parent == nil {
		c.state.Apply(c.update)
	} else {
		for addr, balance := range c.update.Balances {
			c.parent.setBalance(addr, balance)
		}
		for key, value := range c.update.Entries {
			if c.parent.update.Entries == nil {
				c.parent.update.Entries = map[EntryKey]int64{}
			}
			c.parent.update.Entries[key] = value
		}
	}
	c.close()
}

// Revert discards this context's mutations and closes the context.
func (c *TxContext) Revert() {
	c.check()
	c.close()
}

func (c *TxContext) close() {
	c.active = false
	if c.parent != nil {
		c.parent.active = true
	} else {
		c.state.hasRunningTransaction = false
	}
}
