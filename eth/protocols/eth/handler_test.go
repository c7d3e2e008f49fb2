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
	"math/big"
	"testing"

	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/p2p"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every call the dispatch loop makes against it, so
// tests can assert exactly which message codes reach Backend and which
// don't.
type fakeBackend struct {
	addRemoteCalled      bool
	getHeadersCalled     bool
	getBodiesCalled      bool
	getPooledCalled      bool
	handleNewBlockCalled bool

	headers []*types.Header
	bodies  []*BlockBody
	pooled  []*types.Transaction
}

func (b *fakeBackend) AddRemoteTransactions(txs []*types.Transaction) { b.addRemoteCalled = true }
func (b *fakeBackend) GetBlockHeaders(query *GetBlockHeadersPacket) []*types.Header {
	b.getHeadersCalled = true
	return b.headers
}
func (b *fakeBackend) GetBlockBodies(hashes []common.Hash) []*BlockBody {
	b.getBodiesCalled = true
	return b.bodies
}
func (b *fakeBackend) GetPooledTransactions(hashes []common.Hash) []*types.Transaction {
	b.getPooledCalled = true
	return b.pooled
}
func (b *fakeBackend) HandleNewBlock(block *types.Block, td *big.Int) error {
	b.handleNewBlockCalled = true
	return nil
}

// deliver writes msg onto the peer's inbound side and runs one HandleMsg
// pass against backend.
func deliver(t *testing.T, version uint64, code uint64, data interface{}, backend Backend) (sent p2p.Msg, gotResp bool, err error) {
	t.Helper()
	rw, other := newPipe()
	peer := newTestPeer(t, version, rw)

	msg, encErr := p2p.NewMsg(code, data)
	require.NoError(t, encErr)
	// Deliver msg as if it arrived from the wire: push it onto the channel
	// the peer's ReadWriter reads from.
	require.NoError(t, other.WriteMsg(msg))

	err = HandleMsg(peer, backend)

	select {
	case resp := <-other.(*pipeEnd).in:
		return resp, true, err
	default:
		return p2p.Msg{}, false, err
	}
}

func TestHandleMsg_GetBlockHeaders_DispatchesToBackend(t *testing.T) {
	backend := &fakeBackend{headers: []*types.Header{{Number: big.NewInt(1)}}}
	req := &GetBlockHeadersPacket66{RequestId: 7, GetBlockHeadersPacket: &GetBlockHeadersPacket{Amount: 1}}

	resp, got, err := deliver(t, ETH66, GetBlockHeadersMsg, req, backend)
	require.NoError(t, err)
	require.True(t, backend.getHeadersCalled)
	require.True(t, got)
	require.Equal(t, uint64(BlockHeadersMsg), resp.Code)

	var out BlockHeadersPacket66
	require.NoError(t, resp.Decode(&out))
	require.Equal(t, uint64(7), out.RequestId)
	require.Len(t, out.BlockHeadersPacket, 1)
}

func TestHandleMsg_GetBlockBodies_DispatchesToBackend(t *testing.T) {
	backend := &fakeBackend{bodies: []*BlockBody{{}}}
	req := &GetBlockBodiesPacket66{RequestId: 3, GetBlockBodiesPacket: []common.Hash{{0x01}}}

	resp, got, err := deliver(t, ETH66, GetBlockBodiesMsg, req, backend)
	require.NoError(t, err)
	require.True(t, backend.getBodiesCalled)
	require.True(t, got)
	require.Equal(t, uint64(BlockBodiesMsg), resp.Code)
}

func TestHandleMsg_GetPooledTransactions_DispatchesToBackend(t *testing.T) {
	backend := &fakeBackend{pooled: []*types.Transaction{}}
	req := &GetPooledTransactionsPacket66{RequestId: 9, GetPooledTransactionsPacket: []common.Hash{{0x02}}}

	resp, got, err := deliver(t, ETH66, GetPooledTransactionsMsg, req, backend)
	require.NoError(t, err)
	require.True(t, backend.getPooledCalled)
	require.True(t, got)
	require.Equal(t, uint64(PooledTransactionsMsg), resp.Code)
}

func TestHandleMsg_Transactions_DispatchesToBackend(t *testing.T) {
	backend := &fakeBackend{}
	txs := TransactionsPacket{}

	_, _, err := deliver(t, ETH66, TransactionsMsg, txs, backend)
	require.NoError(t, err)
	require.True(t, backend.addRemoteCalled)
}

func TestHandleMsg_NewBlock_DispatchesToBackend(t *testing.T) {
	backend := &fakeBackend{}
	header := &types.Header{Number: big.NewInt(5), Difficulty: big.NewInt(1)}
	block := types.NewBlock(header, nil)
	req := &NewBlockPacket{Block: block, TD: big.NewInt(42)}

	_, _, err := deliver(t, ETH66, NewBlockMsg, req, backend)
	require.NoError(t, err)
	require.True(t, backend.handleNewBlockCalled)
}

func TestHandleMsg_NewBlockHashes_MarksKnown(t *testing.T) {
	backend := &fakeBackend{}
	announce := NewBlockHashesPacket{{Hash: common.Hash{0x03}, Number: 9}}

	rw, other := newPipe()
	peer := newTestPeer(t, ETH66, rw)
	msg, err := p2p.NewMsg(NewBlockHashesMsg, announce)
	require.NoError(t, err)
	require.NoError(t, other.WriteMsg(msg))

	require.NoError(t, HandleMsg(peer, backend))
	require.True(t, peer.KnownBlock(common.Hash{0x03}))
}

// GetNodeData / NodeData are a deliberate scope boundary (state-trie lookups
// are out of scope, SPEC_FULL.md's handler.go note): dispatch must succeed
// without touching Backend at all and without sending any reply.
func TestHandleMsg_GetNodeData_NoopNeverTouchesBackend(t *testing.T) {
	backend := &fakeBackend{}
	_, got, err := deliver(t, ETH66, GetNodeDataMsg, GetNodeDataPacket{{0x04}}, backend)
	require.NoError(t, err)
	require.False(t, got, "GetNodeData must not produce any reply")
	require.False(t, backend.getHeadersCalled)
	require.False(t, backend.getBodiesCalled)
	require.False(t, backend.getPooledCalled)
	require.False(t, backend.addRemoteCalled)
	require.False(t, backend.handleNewBlockCalled)
}

func TestHandleMsg_NodeData_NoopNeverTouchesBackend(t *testing.T) {
	backend := &fakeBackend{}
	_, got, err := deliver(t, ETH66, NodeDataMsg, NodeDataPacket{}, backend)
	require.NoError(t, err)
	require.False(t, got)
	require.False(t, backend.addRemoteCalled)
}

// A v62 peer never gets as far as Backend for GetNodeData either: the
// version gate drops it before the switch is reached (spec.md §8 scenario 6).
func TestHandleMsg_PreETH63_DropsGetNodeDataAtVersionGate(t *testing.T) {
	backend := &fakeBackend{}
	_, got, err := deliver(t, ETH62, GetNodeDataMsg, GetNodeDataPacket{{0x05}}, backend)
	require.NoError(t, err)
	require.False(t, got)
}

// TestHandleMsg_Status_IsUncontrolled covers spec.md §7's rule that a STATUS
// arriving outside the handshake is a protocol violation.
func TestHandleMsg_Status_IsUncontrolled(t *testing.T) {
	backend := &fakeBackend{}
	_, _, err := deliver(t, ETH66, StatusMsg, &StatusPacket{}, backend)
	require.ErrorIs(t, err, ErrUncontrolledStatus)
}

// TestHandleMsg_Response66_RejectsUnsolicited covers the eth/66
// reqId-correlation strengthening: a response whose reqId was never issued
// is rejected rather than silently accepted.
func TestHandleMsg_Response66_RejectsUnsolicited(t *testing.T) {
	backend := &fakeBackend{}
	resp := &BlockHeadersPacket66{RequestId: 123}
	_, _, err := deliver(t, ETH66, BlockHeadersMsg, resp, backend)
	require.ErrorIs(t, err, ErrUnsolicitedResponse)
}

func TestHandleMsg_Response66_AcceptsIssuedReqID(t *testing.T) {
	backend := &fakeBackend{}
	rw, other := newPipe()
	peer := newTestPeer(t, ETH66, rw)
	id := peer.nextReqID()

	msg, err := p2p.NewMsg(BlockHeadersMsg, &BlockHeadersPacket66{RequestId: id})
	require.NoError(t, err)
	require.NoError(t, other.WriteMsg(msg))
	require.NoError(t, HandleMsg(peer, backend))
}
