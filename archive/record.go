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
	"encoding/binary"

	"github.com/0xsoniclabs/callsim/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
)

// TxRecord is the archived summary of one finished transaction: the root
// call, the terminal status, and the resulting ledger snapshot. Records
// are RLP-encoded and snappy-compressed in the store.
type TxRecord struct {
	Seq       uint64
	Status    uint8
	Caller    common.Address
	Callee    common.Address
	Entry     string
	Value     uint64
	Error     string // empty for committed transactions
	Balances  []BalanceEntry
	StateHash common.Hash
}

// BalanceEntry is one account's final balance, listed in address order.
type BalanceEntry struct {
	Account common.Address
	Balance uint64
}

func (r *TxRecord) encode() ([]byte, error) {
	data, err := rlp.EncodeToBytes(r)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, data), nil
}

func decodeRecord(data []byte) (TxRecord, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return TxRecord{}, err
	}
	var res TxRecord
	if err := rlp.DecodeBytes(raw, &res); err != nil {
		return TxRecord{}, err
	}
	return res, nil
}

func recordKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, seq)
}
