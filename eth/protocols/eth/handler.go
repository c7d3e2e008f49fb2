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
	"fmt"
	"math/big"

	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/p2p"
)

// Backend is what the dispatch loop needs from the rest of the node to
// answer inbound requests and ingest inbound data — a thin seam over the
// transaction pool (component D) and chain facade (component E).
type Backend interface {
	AddRemoteTransactions(txs []*types.Transaction)
	GetBlockHeaders(query *GetBlockHeadersPacket) []*types.Header
	GetBlockBodies(hashes []common.Hash) []*BlockBody
	GetPooledTransactions(hashes []common.Hash) []*types.Transaction
	HandleNewBlock(block *types.Block, td *big.Int) error
}

// HandleMsg reads one message off peer and dispatches it, enforcing the
// version gate on receive (spec.md §4.B, §7 "CodeNotAllowed (receive):
// silently drop the message").
func HandleMsg(peer *Peer, backend Backend) error {
	msg, err := peer.ReadWriter().ReadMsg()
	if err != nil {
		return err
	}
	defer msg.Discard()

	if !IsAllowed(uint(peer.version), msg.Code) {
		peer.Log().Debug("Dropping disallowed message", "code", msg.Code, "version", peer.version)
		return nil
	}

	switch msg.Code {
	case StatusMsg:
		return ErrUncontrolledStatus

	case TransactionsMsg:
		var txs TransactionsPacket
		if err := msg.Decode(&txs); err != nil {
			return err
		}
		for _, tx := range txs {
			peer.MarkTransaction(tx.Hash())
		}
		backend.AddRemoteTransactions(txs)
		return nil

	case NewPooledTransactionHashesMsg:
		var hashes NewPooledTransactionHashesPacket
		if err := msg.Decode(&hashes); err != nil {
			return err
		}
		for _, h := range hashes {
			peer.MarkTransaction(h)
		}
		return nil

	case GetBlockHeadersMsg:
		return handleGetBlockHeaders(peer, msg, backend)

	case BlockHeadersMsg:
		return handleResponse66(peer, msg, new(BlockHeadersPacket66), peer.version)

	case GetReceiptsMsg:
		return handleGetReceipts(peer, msg, backend)

	case ReceiptsMsg:
		return handleResponse66(peer, msg, new(ReceiptsPacket66), peer.version)

	case GetBlockBodiesMsg:
		return handleGetBlockBodies(peer, msg, backend)

	case BlockBodiesMsg:
		return handleResponse66(peer, msg, new(BlockBodiesPacket66), peer.version)

	case NewBlockHashesMsg:
		var announces NewBlockHashesPacket
		if err := msg.Decode(&announces); err != nil {
			return err
		}
		for _, block := range announces {
			peer.MarkBlock(block.Hash)
		}
		return nil

	case NewBlockMsg:
		var request NewBlockPacket
		if err := msg.Decode(&request); err != nil {
			return err
		}
		peer.MarkBlock(request.Block.Hash())
		peer.SetHead(request.Block.Hash(), request.TD)
		return backend.HandleNewBlock(request.Block, request.TD)

	case GetPooledTransactionsMsg:
		return handleGetPooledTransactions(peer, msg, backend)

	case PooledTransactionsMsg:
		return handleResponse66(peer, msg, new(PooledTransactionsPacket66), peer.version)

	case GetNodeDataMsg, NodeDataMsg:
		// State-trie lookups are out of scope (spec.md §1: "the
		// Merkle-Patricia state trie" is an external collaborator this
		// module never implements), so there is no backend to dispatch
		// to — the message passes the version gate and is then dropped
		// without its payload being decoded.
		return nil

	default:
		return fmt.Errorf("eth: unhandled message code %#x", msg.Code)
	}
}

func handleGetBlockHeaders(peer *Peer, msg p2p.Msg, backend Backend) error {
	if peer.version >= ETH66 {
		var req GetBlockHeadersPacket66
		if err := msg.Decode(&req); err != nil {
			return err
		}
		headers := backend.GetBlockHeaders(req.GetBlockHeadersPacket)
		return peer.send(BlockHeadersMsg, &BlockHeadersPacket66{RequestId: req.RequestId, BlockHeadersPacket: headers})
	}
	var req GetBlockHeadersPacket
	if err := msg.Decode(&req); err != nil {
		return err
	}
	headers := backend.GetBlockHeaders(&req)
	return peer.send(BlockHeadersMsg, BlockHeadersPacket(headers))
}

func handleGetBlockBodies(peer *Peer, msg p2p.Msg, backend Backend) error {
	if peer.version >= ETH66 {
		var req GetBlockBodiesPacket66
		if err := msg.Decode(&req); err != nil {
			return err
		}
		bodies := backend.GetBlockBodies(req.GetBlockBodiesPacket)
		return peer.send(BlockBodiesMsg, &BlockBodiesPacket66{RequestId: req.RequestId, BlockBodiesPacket: bodies})
	}
	var req GetBlockBodiesPacket
	if err := msg.Decode(&req); err != nil {
		return err
	}
	bodies := backend.GetBlockBodies(req)
	return peer.send(BlockBodiesMsg, BlockBodiesPacket(bodies))
}

func handleGetPooledTransactions(peer *Peer, msg p2p.Msg, backend Backend) error {
	if peer.version >= ETH66 {
		var req GetPooledTransactionsPacket66
		if err := msg.Decode(&req); err != nil {
			return err
		}
		txs := backend.GetPooledTransactions(req.GetPooledTransactionsPacket)
		return peer.send(PooledTransactionsMsg, &PooledTransactionsPacket66{RequestId: req.RequestId, PooledTransactionsPacket: txs})
	}
	var req GetPooledTransactionsPacket
	if err := msg.Decode(&req); err != nil {
		return err
	}
	txs := backend.GetPooledTransactions(req)
	return peer.send(PooledTransactionsMsg, PooledTransactionsPacket(txs))
}

func handleGetReceipts(peer *Peer, msg p2p.Msg, backend Backend) error {
	_ = backend
	if peer.version >= ETH66 {
		var req GetReceiptsPacket66
		if err := msg.Decode(&req); err != nil {
			return err
		}
		// Receipt lookup is delegated to the embedding node's storage layer
		// (out of scope per spec.md §1); an empty reply still satisfies the
		// reqId contract.
		return peer.send(ReceiptsMsg, &ReceiptsPacket66{RequestId: req.RequestId})
	}
	var req GetReceiptsPacket
	if err := msg.Decode(&req); err != nil {
		return err
	}
	return peer.send(ReceiptsMsg, ReceiptsPacket{})
}

// handleResponse66 validates the reqId of an eth/66 response against the
// peer's outstanding set before the caller inspects the payload (spec.md §9
// Open Question 2's intentional strengthening).
func handleResponse66(peer *Peer, msg p2p.Msg, into interface{ reqID() uint64 }, version uint64) error {
	if version < ETH66 {
		return nil
	}
	if err := msg.Decode(into); err != nil {
		return err
	}
	return peer.resolveReqID(into.reqID())
}

func (p *BlockHeadersPacket66) reqID() uint64       { return p.RequestId }
func (p *ReceiptsPacket66) reqID() uint64           { return p.RequestId }
func (p *BlockBodiesPacket66) reqID() uint64        { return p.RequestId }
func (p *PooledTransactionsPacket66) reqID() uint64 { return p.RequestId }
