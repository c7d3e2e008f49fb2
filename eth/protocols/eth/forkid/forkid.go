// Copyright 2019 The go-ethereum Authors
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

// Package forkid implements EIP-2124 fork identifier computation and
// validation (spec.md §4.B "Fork-id validation"), with an in-memory cache
// of already-validated remote IDs to keep repeated handshakes from a
// reconnecting peer cheap (SPEC_FULL.md §3 domain stack: fastcache).
package forkid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/VictoriaMetrics/fastcache"
)

// ID is the wire tuple (spec.md §3): CRC32 over past fork block numbers,
// plus the next scheduled fork block (0 if none is known).
type ID struct {
	Hash [4]byte
	Next uint64
}

var (
	ErrRemoteStale       = errors.New("forkid: remote is advertising a future fork that passed locally")
	ErrLocalIncompatible = errors.New("forkid: unknown fork hash")
	ErrLocalStale        = errors.New("forkid: outdated fork status, remote needs software update")
)

// NewID computes the fork id for a chain whose genesis hash is genesis and
// whose hardforks activate at the block numbers in forks (ascending,
// deduplicated, excluding the implicit genesis fork at block 0).
func NewID(genesis [32]byte, forks []uint64, head uint64) ID {
	hash := crc32.ChecksumIEEE(genesis[:])
	var next uint64
	for _, fork := range forks {
		if fork <= head {
			hash = checksumUpdate(hash, fork)
			continue
		}
		next = fork
		break
	}
	var id ID
	binary.BigEndian.PutUint32(id.Hash[:], hash)
	id.Next = next
	return id
}

func checksumUpdate(hash uint32, fork uint64) uint32 {
	var blob [8]byte
	binary.BigEndian.PutUint64(blob[:], fork)
	return crc32.Update(hash, crc32.IEEETable, blob[:])
}

// Filter validates a remote ID against the local chain's full fork history
// and memoizes the verdict so a reconnecting peer with an unchanged ID
// doesn't pay the recomputation cost again.
type Filter struct {
	genesis [32]byte
	forks   []uint64
	head    func() uint64
	cache   *fastcache.Cache
}

// NewFilter builds a validator bound to genesis/forks and a callback
// returning the chain's current head number. The callback is read only when
// a remote ID is validated for the first time: Validate caches each verdict
// by remote ID and returns it on later calls, even after the head has moved.
func NewFilter(genesis [32]byte, forks []uint64, head func() uint64) *Filter {
	return &Filter{
		genesis: genesis,
		forks:   forks,
		head:    head,
		cache:   fastcache.New(64 * 1024),
	}
}

// Validate implements spec.md §4.B's three fork-id failure rules.
func (f *Filter) Validate(remote ID) error {
	key := cacheKey(remote)
	if v, ok := f.cache.HasGet(nil, key); ok {
		if len(v) == 1 && v[0] == 1 {
			return nil
		}
		return lookupErr(v)
	}
	err := f.validate(remote)
	f.cache.Set(key, encodeErr(err))
	return err
}

func (f *Filter) validate(remote ID) error {
	head := f.head()
	local := NewID(f.genesis, f.forks, head)

	// Rule 1: remote declares a future fork that we've already passed.
	if remote.Hash == local.Hash {
		if remote.Next != 0 && head >= remote.Next {
			return ErrRemoteStale
		}
		return nil
	}

	// Walk our own fork history looking for the point where our checksum
	// matched the remote's, to classify "remote is behind" vs "unknown".
	hash := crc32.ChecksumIEEE(f.genesis[:])
	var genesisBuf [4]byte
	binary.BigEndian.PutUint32(genesisBuf[:], hash)
	if genesisBuf == remote.Hash {
		// Remote has passed none of our forks: its next must be our first.
		var expectedNext uint64
		if len(f.forks) > 0 {
			expectedNext = f.forks[0]
		}
		if remote.Next != expectedNext {
			return ErrLocalStale
		}
		return nil
	}
	for i, fork := range f.forks {
		hash = checksumUpdate(hash, fork)
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], hash)
		if buf != remote.Hash {
			continue
		}
		// Remote's fork hash corresponds to our history up to forks[i].
		// Rule 3: remote is on an older fork; its declared "next" must
		// equal our recorded next hardfork block for that point.
		var expectedNext uint64
		if i+1 < len(f.forks) {
			expectedNext = f.forks[i+1]
		}
		if remote.Next != expectedNext {
			return ErrLocalStale
		}
		return nil
	}

	// Rule 2: remote's fork hash matches nothing in our history at all.
	return ErrLocalIncompatible
}

func cacheKey(id ID) []byte {
	key := make([]byte, 12)
	copy(key[:4], id.Hash[:])
	binary.BigEndian.PutUint64(key[4:], id.Next)
	return key
}

func encodeErr(err error) []byte {
	switch err {
	case nil:
		return []byte{1}
	case ErrRemoteStale:
		return []byte{2}
	case ErrLocalIncompatible:
		return []byte{3}
	case ErrLocalStale:
		return []byte{4}
	default:
		return []byte{0}
	}
}

func lookupErr(v []byte) error {
	if len(v) != 1 {
		return fmt.Errorf("forkid: corrupted cache entry")
	}
	switch v[0] {
	case 2:
		return ErrRemoteStale
	case 3:
		return ErrLocalIncompatible
	case 4:
		return ErrLocalStale
	default:
		return fmt.Errorf("forkid: unknown cached verdict")
	}
}
