// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"fmt"

	"golang.org/x/crypto/sha3"
)

// ConstError is an error type for constant error values. Unlike errors
// created through errors.New, ConstError instances can be declared as
// constants and compared with errors.Is.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

// Address identifies an account in the simulated ledger. It is the
// 20-byte address-equivalent of the execution platform being modeled.
type Address [20]byte

// Hash is a 32-byte Keccak-256 digest.
type Hash [32]byte

// Keccak256 computes the Keccak-256 hash of the given data.
func Keccak256(data []byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var res Hash
	hasher.Sum(res[:0])
	return res
}

// AddressOf derives a deterministic address from a human-readable label.
// Scenario definitions use labels; everything below the scenario runner
// operates on addresses only.
func AddressOf(label string) Address {
	hash := Keccak256([]byte(label))
	var res Address
	copy(res[:], hash[:])
	return res
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", a[:])
}
