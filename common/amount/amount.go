// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package amount

import (
	"github.com/holiman/uint256"
)

// Amount is a non-negative account balance in the smallest unit of the
// simulated currency. The zero value is a valid zero amount.
type Amount struct {
	internal uint256.Int
}

// New creates an Amount from a uint64 value.
func New(value uint64) Amount {
	res := Amount{}
	res.internal.SetUint64(value)
	return res
}

// Add returns the sum of a and b. Sums exceeding 256 bits wrap around;
// scenario setups are expected to stay far below that range.
func Add(a, b Amount) Amount {
	res := Amount{}
	res.internal.Add(&a.internal, &b.internal)
	return res
}

// Sub returns a - b. The caller must ensure b <= a; balances are kept
// non-negative by checking Less before any debit.
func Sub(a, b Amount) Amount {
	res := Amount{}
	res.internal.Sub(&a.internal, &b.internal)
	return res
}

// Less returns true if a is strictly smaller than b.
func (a Amount) Less(b Amount) bool {
	return a.internal.Lt(&b.internal)
}

// IsZero returns true for the zero amount.
func (a Amount) IsZero() bool {
	return a.internal.IsZero()
}

// Uint64 returns the amount as a uint64, saturating at the maximum.
func (a Amount) Uint64() uint64 {
	if !a.internal.IsUint64() {
		return ^uint64(0)
	}
	return a.internal.Uint64()
}

// Bytes32 returns the amount as a 32-byte big-endian array.
func (a Amount) Bytes32() [32]byte {
	return a.internal.Bytes32()
}

func (a Amount) String() string {
	return a.internal.Dec()
}
