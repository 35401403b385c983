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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmount_ZeroValueIsZero(t *testing.T) {
	require := require.New(t)
	var zero Amount
	require.True(zero.IsZero())
	require.Equal(New(0), zero)
	require.Equal(uint64(0), zero.Uint64())
}

func TestAmount_Arithmetic(t *testing.T) {
	require := require.New(t)
	require.Equal(New(15), Add(New(10), New(5)))
	require.Equal(New(5), Sub(New(10), New(5)))
	require.True(New(4).Less(New(5)))
	require.False(New(5).Less(New(5)))
	require.False(New(6).Less(New(5)))
}

func TestAmount_String(t *testing.T) {
	require := require.New(t)
	require.Equal("0", New(0).String())
	require.Equal("1234", New(1234).String())
}
