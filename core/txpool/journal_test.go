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
	"math/big"
	"path/filepath"
	"testing"

	"github.com/lumenchain/gethcore/core/types"
	"github.com/stretchr/testify/require"
)

func TestJournal_InsertAndLoad(t *testing.T) {
	key := newTestKey(t)
	dir := t.TempDir()
	journal := NewJournal(filepath.Join(dir, "transactions.rlp"))
	require.NoError(t, journal.Open())

	tx := signedLegacyTx(t, key, 0, 5)
	require.NoError(t, journal.Insert(tx))
	require.NoError(t, journal.Close())

	journal2 := NewJournal(filepath.Join(dir, "transactions.rlp"))
	require.NoError(t, journal2.Open())

	var loaded []*types.Transaction
	err := journal2.Load(func(tx *types.Transaction) error {
		loaded = append(loaded, tx)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, tx.Hash(), loaded[0].Hash())
	require.NoError(t, journal2.Close())
}

func TestJournal_SecondOpenFailsWhileLocked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.rlp")

	j1 := NewJournal(path)
	require.NoError(t, j1.Open())
	defer j1.Close()

	j2 := NewJournal(path)
	require.Error(t, j2.Open())
}

func TestJournal_InsertWithoutOpenFails(t *testing.T) {
	journal := NewJournal(filepath.Join(t.TempDir(), "transactions.rlp"))
	inner := &types.LegacyTx{Nonce: 0, GasPrice: big.NewInt(1), Gas: 21000, Value: big.NewInt(0)}
	require.ErrorIs(t, journal.Insert(types.NewTx(inner)), errNoActiveJournal)
}
