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
	"github.com/0xsoniclabs/callsim/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	ErrNotFound = common.ConstError("not found")
)

//go:generate mockgen -source store.go -destination store_mock.go -package archive

// Store is a key-value store used to persist archived transaction
// records. Implementations are not required to be thread-safe; the
// background writer is the only concurrent user.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) error
	Close() error
}

// levelDbStore is a Store implementation backed by LevelDB.
type levelDbStore struct {
	db *leveldb.DB
}

// OpenLevelDbStore opens (or creates) a LevelDB-backed store in the given
// directory.
func OpenLevelDbStore(path string) (Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &levelDbStore{db: db}, nil
}

func (s *levelDbStore) Get(key []byte) ([]byte, error) {
	data, err := s.db.Get(key, &opt.ReadOptions{})
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *levelDbStore) Set(key []byte, value []byte) error {
	return s.db.Put(key, value, &opt.WriteOptions{})
}

func (s *levelDbStore) Close() error {
	return s.db.Close()
}

// memoryStore is a simple in-memory Store implementation for testing
// purposes and for runs that do not need persistence.
type memoryStore struct {
	store map[string][]byte
}

func NewMemoryStore() Store {
	return &memoryStore{store: make(map[string][]byte)}
}

func (s *memoryStore) Get(key []byte) ([]byte, error) {
	value, ok := s.store[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *memoryStore) Set(key []byte, value []byte) error {
	s.store[string(key)] = value
	return nil
}

func (s *memoryStore) Close() error {
	// No resources to clean up for in-memory store.
	return nil
}
