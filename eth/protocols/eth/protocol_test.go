// Copyright 2015 The go-ethereum Authors
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

package eth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestIsAllowed_VersionGatingMatrix walks every protocol version this module
// negotiates against every message code spec.md §4.B's table names, and
// checks IsAllowed against the version each code requires (spec.md §3's
// per-code minimum-version table).
func TestIsAllowed_VersionGatingMatrix(t *testing.T) {
	versions := []uint{ETH62, ETH63, ETH64, ETH65, ETH66}

	cases := []struct {
		name   string
		code   uint64
		minVer uint
	}{
		{"Status", StatusMsg, ETH62},
		{"NewBlockHashes", NewBlockHashesMsg, ETH62},
		{"Transactions", TransactionsMsg, ETH62},
		{"GetBlockHeaders", GetBlockHeadersMsg, ETH62},
		{"BlockHeaders", BlockHeadersMsg, ETH62},
		{"GetBlockBodies", GetBlockBodiesMsg, ETH62},
		{"BlockBodies", BlockBodiesMsg, ETH62},
		{"NewBlock", NewBlockMsg, ETH62},
		{"NewPooledTransactionHashes", NewPooledTransactionHashesMsg, ETH65},
		{"GetPooledTransactions", GetPooledTransactionsMsg, ETH65},
		{"PooledTransactions", PooledTransactionsMsg, ETH65},
		{"GetNodeData", GetNodeDataMsg, ETH63},
		{"NodeData", NodeDataMsg, ETH63},
		{"GetReceipts", GetReceiptsMsg, ETH63},
		{"Receipts", ReceiptsMsg, ETH63},
	}
	require.Len(t, cases, 15, "spec.md §3 names fifteen distinct message codes")

	for _, tc := range cases {
		for _, v := range versions {
			want := v >= tc.minVer
			got := IsAllowed(v, tc.code)
			require.Equalf(t, want, got, "code %s (%#x) at version %d: want allowed=%v", tc.name, tc.code, v, want)
		}
	}
}

func TestIsAllowed_UnknownCodeNeverAllowed(t *testing.T) {
	for _, v := range []uint{ETH62, ETH63, ETH64, ETH65, ETH66} {
		require.False(t, IsAllowed(v, 0x7f))
	}
}

func TestHasReqID(t *testing.T) {
	require.True(t, hasReqID(GetBlockHeadersMsg))
	require.True(t, hasReqID(BlockHeadersMsg))
	require.True(t, hasReqID(GetReceiptsMsg))
	require.False(t, hasReqID(StatusMsg))
	require.False(t, hasReqID(TransactionsMsg))
	require.False(t, hasReqID(NewBlockMsg))
}
