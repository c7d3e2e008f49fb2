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

	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/p2p"
	"github.com/stretchr/testify/require"
)

// pipeEnd is a minimal in-memory p2p.MsgReadWriter for exercising the
// dispatch/handshake loop without a real RLPx transport.
type pipeEnd struct {
	out chan<- p2p.Msg
	in  <-chan p2p.Msg
}

func (p *pipeEnd) WriteMsg(msg p2p.Msg) error { p.out <- msg; return nil }
func (p *pipeEnd) ReadMsg() (p2p.Msg, error)  { return <-p.in, nil }

// newPipe returns two connected MsgReadWriters, each seeing the other's
// WriteMsg calls on its own ReadMsg.
func newPipe() (p2p.MsgReadWriter, p2p.MsgReadWriter) {
	ab := make(chan p2p.Msg, 8)
	ba := make(chan p2p.Msg, 8)
	return &pipeEnd{out: ab, in: ba}, &pipeEnd{out: ba, in: ab}
}

func newTestPeer(t *testing.T, version uint64, rw p2p.MsgReadWriter) *Peer {
	t.Helper()
	var id p2p.NodeID
	id[0] = byte(version)
	return NewPeer(version, p2p.NewPeer(id, uint(version), rw))
}

func TestPeer_MarkTransaction_BoundsKnownSet(t *testing.T) {
	rw, _ := newPipe()
	p := newTestPeer(t, ETH66, rw)

	for i := 0; i < maxKnownTxs+10; i++ {
		var h common.Hash
		h[0] = byte(i)
		h[1] = byte(i >> 8)
		p.MarkTransaction(h)
	}
	require.LessOrEqual(t, p.knownTxs.Cardinality(), maxKnownTxs)
}

func TestPeer_MarkBlock_KnownBlock(t *testing.T) {
	rw, _ := newPipe()
	p := newTestPeer(t, ETH66, rw)

	h := common.Hash{0xaa}
	require.False(t, p.KnownBlock(h))
	p.MarkBlock(h)
	require.True(t, p.KnownBlock(h))
}

func TestPeer_ReqID_AllocateAndResolve(t *testing.T) {
	rw, _ := newPipe()
	p := newTestPeer(t, ETH66, rw)

	id := p.nextReqID()
	require.NoError(t, p.resolveReqID(id))
	// Resolving the same id twice must fail: it's no longer outstanding.
	require.ErrorIs(t, p.resolveReqID(id), ErrUnsolicitedResponse)
}

func TestPeer_ResolveReqID_RejectsUnissued(t *testing.T) {
	rw, _ := newPipe()
	p := newTestPeer(t, ETH66, rw)

	require.ErrorIs(t, p.resolveReqID(999), ErrUnsolicitedResponse)
}

// A v62 peer refuses to send GET_NODE_DATA / NODE_DATA, since those codes
// require >= ETH63: send fails with ErrCodeNotAllowed instead of writing.
func TestPeer_Send_RejectsDisallowedCode(t *testing.T) {
	rw, _ := newPipe()
	p := newTestPeer(t, ETH62, rw)

	err := p.send(GetNodeDataMsg, GetNodeDataPacket{})
	require.ErrorIs(t, err, ErrCodeNotAllowed)
}

func TestPeer_Send_AllowsAtSupportedVersion(t *testing.T) {
	rw, other := newPipe()
	p := newTestPeer(t, ETH66, rw)

	require.NoError(t, p.send(GetReceiptsMsg, GetReceiptsPacket{}))

	msg, err := other.ReadMsg()
	require.NoError(t, err)
	require.Equal(t, uint64(GetReceiptsMsg), msg.Code)
}
