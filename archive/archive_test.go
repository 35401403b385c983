// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package archive

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/0xsoniclabs/callsim/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testRecord(seq uint64) TxRecord {
	return TxRecord{
		Seq:    seq,
		Status: 2, // committed
		Caller: common.AddressOf("attacker"),
		Callee: common.AddressOf("victim"),
		Entry:  "withdraw",
		Value:  1,
		Balances: []BalanceEntry{
			{Account: common.AddressOf("attacker"), Balance: 11},
			{Account: common.AddressOf("victim"), Balance: 0},
		},
		StateHash: common.Keccak256([]byte{byte(seq)}),
	}
}

func TestRecord_EncodingRoundTrip(t *testing.T) {
	require := require.New(t)

	record := testRecord(7)
	data, err := record.encode()
	require.NoError(err)

	restored, err := decodeRecord(data)
	require.NoError(err)
	require.Equal(record, restored)
}

func TestStores_StoreAndRetrieveRecords(t *testing.T) {
	stores := map[string]func(t *testing.T) (Store, error){
		"memory": func(t *testing.T) (Store, error) {
			return NewMemoryStore(), nil
		},
		"leveldb": func(t *testing.T) (Store, error) {
			return OpenLevelDbStore(t.TempDir())
		},
		"sqlite": func(t *testing.T) (Store, error) {
			return OpenSqliteStore(filepath.Join(t.TempDir(), "archive.db"))
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			store, err := open(t)
			require.NoError(err)

			_, err = store.Get([]byte("missing"))
			require.ErrorIs(err, ErrNotFound)

			require.NoError(store.Set([]byte("key"), []byte("value")))
			value, err := store.Get([]byte("key"))
			require.NoError(err)
			require.Equal([]byte("value"), value)

			require.NoError(store.Set([]byte("key"), []byte("updated")))
			value, err = store.Get([]byte("key"))
			require.NoError(err)
			require.Equal([]byte("updated"), value)

			require.NoError(store.Close())
		})
	}
}

func TestWriter_RecordsCanBeRetrieved(t *testing.T) {
	require := require.New(t)
	writer := NewWriter(NewMemoryStore())

	for seq := uint64(0); seq < 5; seq++ {
		writer.Add(testRecord(seq))
	}
	require.NoError(writer.Flush())

	count, err := writer.Count().Await()
	require.NoError(err)
	require.Equal(uint64(5), count)

	record, err := writer.Get(3)
	require.NoError(err)
	require.Equal(testRecord(3), record)

	_, err = writer.Get(42)
	require.ErrorIs(err, ErrNotFound)

	require.NoError(writer.Close())
}

func TestWriter_WriteIssuesSurfaceOnFlush(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	injected := fmt.Errorf("disk full")
	store.EXPECT().Set(gomock.Any(), gomock.Any()).Return(injected).Times(2)
	store.EXPECT().Close().Return(nil)

	writer := NewWriter(store)
	writer.Add(testRecord(1))
	writer.Add(testRecord(2))

	err := writer.Flush()
	require.ErrorIs(err, injected)

	// Issues are reported once; the next flush starts clean.
	require.NoError(writer.Close())
}
