// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package txpool

import (
	"errors"
	"io"
	"os"

	"github.com/gofrs/flock"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/rlp"
)

// errNoActiveJournal is returned by operations attempted before Open.
var errNoActiveJournal = errors.New("txpool: no active journal")

// Journal persists local transactions to disk across restarts, guarded by an
// advisory file lock so two node instances can't corrupt the same journal
// file by writing to it concurrently.
type Journal struct {
	path string
	lock *flock.Flock
	file *os.File
}

// NewJournal returns an unopened journal bound to path.
func NewJournal(path string) *Journal {
	return &Journal{path: path, lock: flock.New(path + ".lock")}
}

// Open acquires the advisory lock and opens the journal file for appending,
// creating it if absent.
func (j *Journal) Open() error {
	locked, err := j.lock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return errors.New("txpool: journal is locked by another process")
	}
	f, err := os.OpenFile(j.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		j.lock.Unlock()
		return err
	}
	j.file = f
	return nil
}

// Close releases the file handle and the advisory lock.
func (j *Journal) Close() error {
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	j.lock.Unlock()
	return err
}

// Insert appends one RLP-encoded transaction record to the journal.
func (j *Journal) Insert(tx *types.Transaction) error {
	if j.file == nil {
		return errNoActiveJournal
	}
	enc, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return err
	}
	_, err = j.file.Write(enc)
	return err
}

// Load replays the transactions recorded in the journal, calling add for
// each one and ignoring add's error. The first record that fails to decode
// (the clean end of the file, or a tail truncated mid-record by a killed
// process) ends the replay; it is not reported as an error.
func (j *Journal) Load(add func(tx *types.Transaction) error) error {
	if j.file == nil {
		return errNoActiveJournal
	}
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	stream, err := rlp.NewStream(j.file, 0)
	if err != nil {
		return err
	}
	for {
		var tx types.Transaction
		if err := stream.Decode(&tx); err != nil {
			break // EOL (clean end) or truncated/corrupt tail: stop replaying
		}
		add(&tx)
	}
	_, err = j.file.Seek(0, io.SeekEnd)
	return err
}
