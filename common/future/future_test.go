// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package future

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResult_PacksValueAndError(t *testing.T) {
	require := require.New(t)

	value, err := Ok(42).Get()
	require.NoError(err)
	require.Equal(42, value)

	injected := fmt.Errorf("failed")
	_, err = Err[int](injected).Get()
	require.ErrorIs(err, injected)
}

func TestFuture_DeliversResultAcrossGoroutines(t *testing.T) {
	require := require.New(t)

	promise, future := Create[string]()
	go promise.Fulfill(Ok("done"))

	value, err := future.Await()
	require.NoError(err)
	require.Equal("done", value)
}

func TestPromise_ZeroValueMarksAbsence(t *testing.T) {
	require := require.New(t)
	var p Promise[int]
	require.Nil(p)
}
