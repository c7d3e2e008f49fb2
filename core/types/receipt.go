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

package types

import "github.com/lumenchain/gethcore/common"

// Receipt is the lightweight shape carried by GetReceipts/Receipts
// (SPEC_FULL.md §4.C supplement) — execution outcome fields only, no log
// bloom derivation (an EVM/state concern delegated to the Blockchain
// collaborator per spec.md §6).
type Receipt struct {
	Type              uint8
	Status            uint64
	CumulativeGasUsed uint64
	TxHash            common.Hash
	GasUsed           uint64
}

// Block pairs a Header with its transaction body, the unit NewBlock and
// BlockBodies carry on the wire (spec.md §4.C).
type Block struct {
	Header *Header
	Txs    []*Transaction
}

func NewBlock(header *Header, txs []*Transaction) *Block {
	return &Block{Header: header, Txs: txs}
}

func (b *Block) Number() uint64      { return b.Header.Number.Uint64() }
func (b *Block) Hash() common.Hash   { return b.Header.Hash() }
func (b *Block) GasLimit() uint64    { return b.Header.GasLimit }
func (b *Block) Transactions() []*Transaction { return b.Txs }
