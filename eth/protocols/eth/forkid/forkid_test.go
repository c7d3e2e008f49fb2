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

package forkid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testGenesis = [32]byte{0xaa, 0xbb, 0xcc}

func TestNewID_AdvancesPastEachFork(t *testing.T) {
	forks := []uint64{10, 20, 30}

	id0 := NewID(testGenesis, forks, 0)
	require.Equal(t, uint64(10), id0.Next)

	id10 := NewID(testGenesis, forks, 10)
	require.Equal(t, uint64(20), id10.Next)
	require.NotEqual(t, id0.Hash, id10.Hash)

	id30 := NewID(testGenesis, forks, 30)
	require.Equal(t, uint64(0), id30.Next, "no more scheduled forks once the last has passed")
}

func TestFilter_Validate_ExactMatch(t *testing.T) {
	forks := []uint64{10, 20}
	head := func() uint64 { return 15 }
	f := NewFilter(testGenesis, forks, head)

	remote := NewID(testGenesis, forks, 15)
	require.NoError(t, f.Validate(remote))
}

// Rule 1: remote sits at the same fork checkpoint as local (identical
// Hash), but it advertises a "next" fork that local's head has already
// passed — remote is running stale software that doesn't know that fork
// ever happened.
func TestFilter_Validate_RemoteStale(t *testing.T) {
	forks := []uint64{10}
	head := func() uint64 { return 15 }
	f := NewFilter(testGenesis, forks, head)

	remote := NewID(testGenesis, forks, 15) // same checkpoint as local
	remote.Next = 12                        // claims a future fork local has already passed (head=15 >= 12)

	err := f.Validate(remote)
	require.ErrorIs(t, err, ErrRemoteStale)
}

// Rule 2: remote's fork hash matches nothing in our history at all.
func TestFilter_Validate_LocalIncompatible(t *testing.T) {
	forks := []uint64{10, 20}
	head := func() uint64 { return 25 }
	f := NewFilter(testGenesis, forks, head)

	remote := ID{Hash: [4]byte{0xde, 0xad, 0xbe, 0xef}, Next: 0}
	err := f.Validate(remote)
	require.ErrorIs(t, err, ErrLocalIncompatible)
}

// Rule 3: remote is on an older (but recognized) fork and its declared
// "next" doesn't match what we know the next fork after that point to be.
func TestFilter_Validate_LocalStale(t *testing.T) {
	forks := []uint64{10, 20, 30}
	head := func() uint64 { return 35 }
	f := NewFilter(testGenesis, forks, head)

	// Remote matches our history exactly up through fork[0]=10, but
	// declares the wrong "next" (it should be 20, not 99).
	remote := NewID(testGenesis, forks[:1], 10)
	remote.Next = 99

	err := f.Validate(remote)
	require.ErrorIs(t, err, ErrLocalStale)
}

func TestFilter_Validate_Memoizes(t *testing.T) {
	forks := []uint64{10, 20}
	calls := 0
	head := func() uint64 { calls++; return 25 }
	f := NewFilter(testGenesis, forks, head)

	remote := ID{Hash: [4]byte{0xde, 0xad, 0xbe, 0xef}, Next: 0}
	require.ErrorIs(t, f.Validate(remote), ErrLocalIncompatible)
	firstCalls := calls

	// Second call with the same remote ID must hit the cache rather than
	// recompute head()/local ID.
	require.ErrorIs(t, f.Validate(remote), ErrLocalIncompatible)
	require.Equal(t, firstCalls, calls, "repeated validation of an unchanged remote ID should not recompute head")
}
