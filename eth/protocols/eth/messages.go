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
	"io"
	"math/big"

	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/rlp"
)

// ForkID is the EIP-2124 tuple exchanged in STATUS for version >= 64.
type ForkID struct {
	Hash [4]byte
	Next uint64
}

// StatusPacket is spec.md §3's STATUS record.
type StatusPacket struct {
	ProtocolVersion uint32
	NetworkID       uint64
	TD              *big.Int
	Head            common.Hash
	Genesis         common.Hash
	ForkID          ForkID `rlp:"optional"`
}

// GetBlockHeadersRequest's block selector is either a 32-byte hash or a
// block number; HashOrNumber dispatches RLP encoding on which is set.
type HashOrNumber struct {
	Hash   common.Hash
	Number uint64
}

func (hn HashOrNumber) EncodeRLP(w io.Writer) error {
	buf := rlp.NewEncoderBuffer(w)
	if hn.Hash != (common.Hash{}) {
		buf.WriteBytes(hn.Hash[:])
	} else {
		buf.WriteUint64(hn.Number)
	}
	return buf.Flush()
}

func (hn *HashOrNumber) DecodeRLP(s *rlp.Stream) error {
	kind, size, err := s.Kind()
	if err != nil {
		return err
	}
	if kind == rlp.String && size == 32 {
		return s.Decode(&hn.Hash)
	}
	return s.Decode(&hn.Number)
}

// GetBlockHeadersPacket is spec.md §4.C's GetBlockHeaders payload.
type GetBlockHeadersPacket struct {
	Origin  HashOrNumber
	Amount  uint64
	Skip    uint64
	Reverse bool
}

type GetBlockHeadersPacket66 struct {
	RequestId uint64
	*GetBlockHeadersPacket
}

type BlockHeadersPacket []*types.Header

type BlockHeadersPacket66 struct {
	RequestId uint64
	BlockHeadersPacket
}

// GetBlockBodiesPacket requests bodies by hash.
type GetBlockBodiesPacket []common.Hash

type GetBlockBodiesPacket66 struct {
	RequestId uint64
	GetBlockBodiesPacket
}

// BlockBody is the body half of a Block (everything but the header).
type BlockBody struct {
	Transactions []*types.Transaction
}

type BlockBodiesPacket []*BlockBody

type BlockBodiesPacket66 struct {
	RequestId uint64
	BlockBodiesPacket
}

// NewBlockPacket is spec.md §4.C's NewBlock payload.
type NewBlockPacket struct {
	Block *types.Block
	TD    *big.Int
}

// BlockHashNumber pairs an announced block's hash and number, the element
// type of NewBlockHashesMsg.
type BlockHashNumber struct {
	Hash   common.Hash
	Number uint64
}

// NewBlockHashesPacket is spec.md §4.C's NewBlockHashes announcement.
type NewBlockHashesPacket []BlockHashNumber

// TransactionsPacket carries full transaction bodies (spec.md §4.D
// broadcast discipline: "send full bodies to the square root" subset).
type TransactionsPacket []*types.Transaction

// NewPooledTransactionHashesPacket announces hashes only.
type NewPooledTransactionHashesPacket []common.Hash

type GetPooledTransactionsPacket []common.Hash

type GetPooledTransactionsPacket66 struct {
	RequestId uint64
	GetPooledTransactionsPacket
}

type PooledTransactionsPacket []*types.Transaction

type PooledTransactionsPacket66 struct {
	RequestId uint64
	PooledTransactionsPacket
}

// GetReceiptsPacket / ReceiptsPacket — SPEC_FULL.md §4.C supplement.
type GetReceiptsPacket []common.Hash

type GetReceiptsPacket66 struct {
	RequestId uint64
	GetReceiptsPacket
}

type ReceiptsPacket [][]*types.Receipt

type ReceiptsPacket66 struct {
	RequestId uint64
	ReceiptsPacket
}

// GetNodeDataPacket / NodeDataPacket — SPEC_FULL.md §4.C supplement.
type GetNodeDataPacket []common.Hash

type GetNodeDataPacket66 struct {
	RequestId uint64
	GetNodeDataPacket
}

type NodeDataPacket [][]byte

type NodeDataPacket66 struct {
	RequestId uint64
	NodeDataPacket
}
