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
	"errors"
	"fmt"

	"github.com/0xsoniclabs/callsim/common/future"
	"github.com/0xsoniclabs/tracy"
)

// Writer archives transaction records through a background worker so that
// the simulator never blocks on storage. Records are handed over through
// a channel; Flush synchronizes with the worker and reports accumulated
// write issues.
type Writer struct {
	store    Store
	next     uint64          // < next record sequence number, assigned on Add
	commands chan<- command  // < commands to background worker
	syncs    <-chan error    // < signalled when syncing with background worker
	done     <-chan struct{} // < when background work is done
}

type command struct {
	record *TxRecord
	count  future.Promise[uint64]
	// a command with neither field set is a sync request
}

func NewWriter(store Store) *Writer {
	commands := make(chan command, 64)
	syncs := make(chan error)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var issues []error
		extraIssues := 0
		written := uint64(0)
		for command := range commands {
			if command.record != nil {
				zone := tracy.ZoneBegin("archive::write_record")
				err := writeRecord(store, command.record)
				zone.End()
				if err != nil {
					if len(issues) < 10 {
						issues = append(issues, fmt.Errorf("record %d: %w", command.record.Seq, err))
					} else {
						extraIssues++
					}
				} else {
					written++
				}
			} else if command.count != nil {
				command.count.Fulfill(future.Ok(written))
			} else { // sync command
				if extraIssues > 0 {
					issues = append(issues, fmt.Errorf("%d additional errors truncated", extraIssues))
					extraIssues = 0
				}
				syncs <- errors.Join(issues...)
				issues = issues[:0]
			}
		}
	}()

	return &Writer{
		store:    store,
		commands: commands,
		syncs:    syncs,
		done:     done,
	}
}

func writeRecord(store Store, record *TxRecord) error {
	data, err := record.encode()
	if err != nil {
		return err
	}
	return store.Set(recordKey(record.Seq), data)
}

// Add hands a record to the background worker, assigning it the next
// sequence number. Sequencing is owned by the writer so that all runs
// archived through it share one continuous history. Write errors surface
// on the next Flush or Close.
func (w *Writer) Add(record TxRecord) {
	record.Seq = w.next
	w.next++
	w.commands <- command{record: &record}
}

// Count asynchronously reports the number of records written so far.
func (w *Writer) Count() future.Future[uint64] {
	promise, res := future.Create[uint64]()
	w.commands <- command{count: promise}
	return res
}

// Get retrieves an archived record by sequence number, synchronizing with
// pending writes first.
func (w *Writer) Get(seq uint64) (TxRecord, error) {
	if err := w.Flush(); err != nil {
		return TxRecord{}, err
	}
	data, err := w.store.Get(recordKey(seq))
	if err != nil {
		return TxRecord{}, err
	}
	return decodeRecord(data)
}

// Flush blocks until all pending records are written and returns the
// accumulated write issues since the previous flush.
func (w *Writer) Flush() error {
	w.commands <- command{}
	return <-w.syncs
}

// Close flushes, stops the background worker, and closes the store.
func (w *Writer) Close() error {
	err := w.Flush()
	close(w.commands)
	<-w.done
	return errors.Join(err, w.store.Close())
}
