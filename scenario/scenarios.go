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
	"github.com/0xsoniclabs/callsim/common"
	"github.com/0xsoniclabs/callsim/common/amount"
	"github.com/0xsoniclabs/callsim/vm"
)

// Scenario is one canonical demonstration run: a named setup plus the
// root calls it issues. The CLI and the test suite share these.
type Scenario struct {
	Name        string
	Description string
	Config      vm.Config
	Run         func(runner *Runner) []Result
}

// DepositHandler records inbound deposits in the contract's entry ledger.
func DepositHandler() vm.Handler {
	return vm.Handler{vm.RecordDeposit(vm.Caller())}
}

// VulnerableWithdraw pays out before adjusting the entry ledger: the
// interaction happens before the effect, opening the reentrancy window.
func VulnerableWithdraw() vm.Handler {
	return vm.Handler{
		vm.CheckEntry(vm.Caller(), 1),
		vm.ExternalCall(vm.Caller(), "", amount.New(1)),
		vm.AdjustEntry(vm.Caller(), -1),
	}
}

// FixedWithdraw applies the effects-before-interaction ordering.
func FixedWithdraw() vm.Handler {
	return vm.Handler{
		vm.CheckEntry(vm.Caller(), 1),
		vm.AdjustEntry(vm.Caller(), -1),
		vm.ExternalCall(vm.Caller(), "", amount.New(1)),
	}
}

// LowBudgetWithdraw keeps the vulnerable ordering but pays out through
// the restricted transfer primitive, starving re-entry of budget.
func LowBudgetWithdraw() vm.Handler {
	return vm.Handler{
		vm.CheckEntry(vm.Caller(), 1),
		vm.ExternalCall(vm.Caller(), "", amount.New(1)).Restricted(),
		vm.AdjustEntry(vm.Caller(), -1),
	}
}

// GuardedWithdraw keeps the vulnerable ordering but wraps the body in a
// reentrancy guard.
func GuardedWithdraw() vm.Handler {
	return vm.Handler{
		vm.GuardEnter("withdraw"),
		vm.CheckEntry(vm.Caller(), 1),
		vm.ExternalCall(vm.Caller(), "", amount.New(1)),
		vm.AdjustEntry(vm.Caller(), -1),
		vm.GuardExit("withdraw"),
	}
}

// ReentrantFallback re-enters the victim's withdraw entry point whenever
// the attacker receives a payout, tolerating failed attempts.
func ReentrantFallback(victim common.Address) vm.Handler {
	return vm.Handler{
		vm.ExternalCall(vm.AccountAt(victim), "withdraw", amount.New(0)).IgnoreFailure(),
	}
}

// attackRun seeds the standard attack setup (victim holds 10, the
// attacker funds its own deposit) and plays deposit followed by withdraw.
func attackRun(withdraw vm.Handler, deposit uint64) func(runner *Runner) []Result {
	return func(runner *Runner) []Result {
		victim := runner.CreateContract("victim", 10, map[string]vm.Handler{
			"deposit":  DepositHandler(),
			"withdraw": withdraw,
		}, nil)
		attacker := runner.CreateContract("attacker", deposit, nil, ReentrantFallback(victim))

		return []Result{
			runner.Call(attacker, victim, "deposit", deposit, 0),
			runner.Call(attacker, victim, "withdraw", 0, 0),
		}
	}
}

// All lists the canonical scenarios in presentation order.
func All() []Scenario {
	return []Scenario{
		{
			Name:        "vulnerable",
			Description: "reentrancy drain against interaction-before-effects ordering",
			Run:         attackRun(VulnerableWithdraw(), 1),
		},
		{
			Name:        "fixed",
			Description: "effects-before-interaction ordering defeats the drain",
			Run:         attackRun(FixedWithdraw(), 1),
		},
		{
			Name:        "overdeposit",
			Description: "re-entry against the fixed ordering recovers only the attacker's own deposit",
			Run:         attackRun(FixedWithdraw(), 2),
		},
		{
			Name:        "lowbudget",
			Description: "restricted transfer primitive starves re-entry of budget",
			Run:         attackRun(LowBudgetWithdraw(), 1),
		},
		{
			Name:        "guarded",
			Description: "reentrancy guard blocks the nested withdraw",
			Run:         attackRun(GuardedWithdraw(), 1),
		},
		{
			Name:        "runaway",
			Description: "unbounded self-recursion terminates at the depth limit",
			Config:      vm.Config{MaxDepth: 64},
			Run: func(runner *Runner) []Result {
				contract := runner.CreateContract("recursive", 0, map[string]vm.Handler{
					"ping": {vm.ExternalCall(vm.Self(), "ping", amount.New(0))},
				}, nil)
				user := runner.CreatePassiveAccount("user", 10)
				return []Result{
					runner.Call(user, contract, "ping", 0, 0),
				}
			},
		},
	}
}

// ByName looks up a canonical scenario.
func ByName(name string) (Scenario, bool) {
	for _, scenario := range All() {
		if scenario.Name == name {
			return scenario, true
		}
	}
	return Scenario{}, false
}
