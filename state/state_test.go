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
	"testing"

	"github.com/0xsoniclabs/callsim/common"
	"github.com/0xsoniclabs/callsim/common/amount"
	"github.com/stretchr/testify/require"
)

func TestState_AppliedBalancesAreVisible(t *testing.T) {
	require := require.New(t)
	state := New()

	addr1 := common.Address{1}
	addr2 := common.Address{2}

	require.Equal(amount.New(0), state.Balance(addr1))

	state.Apply(Update{Balances: map[common.Address]amount.Amount{
		addr1: amount.New(10),
		addr2: amount.New(5),
	}})

	require.Equal(amount.New(10), state.Balance(addr1))
	require.Equal(amount.New(5), state.Balance(addr2))
	require.ElementsMatch([]common.Address{addr1, addr2}, state.Accounts())
}

func TestState_CommittedTransactionUpdatesState(t *testing.T) {
	require := require.New(t)
	state := New()

	addr := common.Address{1}

	ctxt := state.BeginTransaction()
	ctxt.Credit(addr, amount.New(42))
	require.Equal(amount.New(42), ctxt.GetBalance(addr))
	require.Equal(amount.New(0), state.Balance(addr))
	ctxt.Commit()

	require.Equal(amount.New(42), state.Balance(addr))
}

func TestState_RevertedTransactionLeavesStateUntouched(t *testing.T) {
	require := require.New(t)
	state := New()

	addr := common.Address{1}
	state.Apply(Update{Balances: map[common.Address]amount.Amount{
		addr: amount.New(10),
	}})

	ctxt := state.BeginTransaction()
	require.NoError(ctxt.Debit(addr, amount.New(4)))
	ctxt.AdjustEntry(addr, common.Address{2}, 7)
	ctxt.Revert()

	require.Equal(amount.New(10), state.Balance(addr))
	require.Equal(int64(0), state.Entry(addr, common.Address{2}))
}

func TestState_DebitFailsOnInsufficientFunds(t *testing.T) {
	require := require.New(t)
	state := New()

	addr := common.Address{1}
	ctxt := state.BeginTransaction()
	ctxt.Credit(addr, amount.New(3))

	require.ErrorIs(ctxt.Debit(addr, amount.New(4)), ErrInsufficientFunds)

	// The failed debit must not have touched the balance.
	require.Equal(amount.New(3), ctxt.GetBalance(addr))
	ctxt.Commit()
	require.Equal(amount.New(3), state.Balance(addr))
}

func TestState_NestedContextSeesParentMutations(t *testing.T) {
	require := require.New(t)
	state := New()

	addr := common.Address{1}

	root := state.BeginTransaction()
	root.Credit(addr, amount.New(10))

	nested := root.BeginNested()
	require.Equal(amount.New(10), nested.GetBalance(addr))
	nested.Credit(addr, amount.New(5))
	require.Equal(amount.New(15), nested.GetBalance(addr))
	nested.Commit()

	require.Equal(amount.New(15), root.GetBalance(addr))
	root.Commit()
	require.Equal(amount.New(15), state.Balance(addr))
}

func TestState_RevertedNestedContextIsDiscarded(t *testing.T) {
	require := require.New(t)
	state := New()

	addr := common.Address{1}
	contract := common.Address{2}

	root := state.BeginTransaction()
	root.Credit(addr, amount.New(10))
	root.AdjustEntry(contract, addr, 1)

	nested := root.BeginNested()
	require.NoError(nested.Debit(addr, amount.New(10)))
	nested.AdjustEntry(contract, addr, -1)
	nested.Revert()

	require.Equal(amount.New(10), root.GetBalance(addr))
	require.Equal(int64(1), root.GetEntry(contract, addr))
	root.Commit()
}

func TestState_EntriesMayGoNegative(t *testing.T) {
	require := require.New(t)
	state := New()

	contract := common.Address{1}
	account := common.Address{2}

	ctxt := state.BeginTransaction()
	ctxt.AdjustEntry(contract, account, 1)
	ctxt.AdjustEntry(contract, account, -5)
	require.Equal(int64(-4), ctxt.GetEntry(contract, account))
	ctxt.Commit()

	require.Equal(int64(-4), state.Entry(contract, account))
}

func TestState_UsingAnInactiveContextPanics(t *testing.T) {
	require := require.New(t)
	state := New()

	root := state.BeginTransaction()
	nested := root.BeginNested()

	// The parent is deactivated while the nested context is open.
	require.Panics(func() {
		root.Credit(common.Address{1}, amount.New(1))
	})

	nested.Commit()
	root.Commit()

	// Terminal contexts can no longer be used.
	require.Panics(func() {
		root.Commit()
	})
}

func TestState_ConcurrentTransactionsArePrevented(t *testing.T) {
	require := require.New(t)
	state := New()

	ctxt := state.BeginTransaction()
	require.Panics(func() {
		state.BeginTransaction()
	})
	ctxt.Revert()

	// A finished transaction frees the state for the next one.
	next := state.BeginTransaction()
	next.Commit()
}

func TestState_HashReflectsContent(t *testing.T) {
	require := require.New(t)

	s1 := New()
	s2 := New()
	require.Equal(s1.Hash(), s2.Hash())

	s1.Apply(Update{Balances: map[common.Address]amount.Amount{
		{1}: amount.New(10),
	}})
	require.NotEqual(s1.Hash(), s2.Hash())

	s2.Apply(Update{Balances: map[common.Address]amount.Amount{
		{1}: amount.New(10),
	}})
	require.Equal(s1.Hash(), s2.Hash())
}
