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
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteStore is a Store implementation backed by a single-table SQLite
// database.
type sqliteStore struct {
	db  *sql.DB
	get *sql.Stmt
	set *sql.Stmt
}

// OpenSqliteStore opens (or creates) a SQLite-backed store at the given
// file path.
func OpenSqliteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS records (key BLOB PRIMARY KEY, value BLOB)"); err != nil {
		db.Close()
		return nil, err
	}
	get, err := db.Prepare("SELECT value FROM records WHERE key = ?")
	if err != nil {
		db.Close()
		return nil, err
	}
	set, err := db.Prepare("INSERT OR REPLACE INTO records (key, value) VALUES (?, ?)")
	if err != nil {
		get.Close()
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, get: get, set: set}, nil
}

func (s *sqliteStore) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.get.QueryRow(key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return value, err
}

func (s *sqliteStore) Set(key []byte, value []byte) error {
	_, err := s.set.Exec(key, value)
	return err
}

func (s *sqliteStore) Close() error {
	s.get.Close()
	s.set.Close()
	return s.db.Close()
}
