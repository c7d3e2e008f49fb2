// Copyright 2014 The go-ethereum Authors
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
	"crypto/sha256"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/stretchr/testify/require"
)

type ecdsaTestKey struct {
	priv *secp256k1.PrivateKey
}

var testKeyCounter int

// newTestKey derives a deterministic test key from the test's name plus a
// per-call counter, so multiple calls within one test still yield distinct
// senders without needing real randomness.
func newTestKey(t *testing.T) *ecdsaTestKey {
	t.Helper()
	testKeyCounter++
	seed := sha256.Sum256([]byte(t.Name() + string(rune('a'+testKeyCounter))))
	priv := secp256k1.PrivKeyFromBytes(seed[:])
	return &ecdsaTestKey{priv: priv}
}

func signTestTx(t *testing.T, tx *types.Transaction, key *ecdsaTestKey) *types.Transaction {
	t.Helper()
	signed, err := types.SignTx(tx, key.priv)
	require.NoError(t, err)
	return signed
}
