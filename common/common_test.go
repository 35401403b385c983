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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstError_CanBeUsedAsErrorConstant(t *testing.T) {
	require := require.New(t)
	const err = ConstError("something failed")
	require.Equal("something failed", err.Error())

	wrapped := fmt.Errorf("context: %w", err)
	require.ErrorIs(wrapped, err)
	require.False(errors.Is(wrapped, ConstError("other")))
}

func TestKeccak256_MatchesKnownDigest(t *testing.T) {
	require := require.New(t)

	// Keccak-256 of the empty input.
	empty := Keccak256(nil)
	require.Equal(
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		fmt.Sprintf("%x", empty[:]),
	)

	require.NotEqual(Keccak256([]byte("a")), Keccak256([]byte("b")))
}

func TestAddressOf_IsDeterministicAndCollisionFreeForLabels(t *testing.T) {
	require := require.New(t)
	require.Equal(AddressOf("victim"), AddressOf("victim"))
	require.NotEqual(AddressOf("victim"), AddressOf("attacker"))
}
