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

package p2p

import "fmt"

// DiscReason enumerates why a peer's session was torn down (spec.md §7
// error taxonomy).
type DiscReason uint

const (
	DiscRequested DiscReason = iota
	DiscNetworkError
	DiscProtocolError
	DiscUselessPeer
	DiscTooManyPeers
	DiscAlreadyConnected
	DiscIncompatibleVersion
	DiscInvalidIdentity
	DiscQuitting
	DiscUnexpectedIdentity
	DiscSelf
	DiscReadTimeout
	DiscSubprotocolError
)

func (d DiscReason) String() string {
	switch d {
	case DiscRequested:
		return "disconnect requested"
	case DiscNetworkError:
		return "network error"
	case DiscProtocolError:
		return "breach of protocol"
	case DiscUselessPeer:
		return "useless peer"
	case DiscTooManyPeers:
		return "too many peers"
	case DiscAlreadyConnected:
		return "already connected"
	case DiscIncompatibleVersion:
		return "incompatible p2p protocol version"
	case DiscInvalidIdentity:
		return "invalid node identity"
	case DiscQuitting:
		return "client quitting"
	case DiscUnexpectedIdentity:
		return "unexpected identity"
	case DiscSelf:
		return "connected to self"
	case DiscReadTimeout:
		return "read timeout"
	case DiscSubprotocolError:
		return "subprotocol error"
	default:
		return fmt.Sprintf("unknown disconnect reason %d", uint(d))
	}
}

// NodeID identifies a remote node; gethcore treats it as opaque bytes since
// the discovery/identity scheme lives entirely behind RLPxTransport.
type NodeID [64]byte

func (id NodeID) String() string { return fmt.Sprintf("%x", id[:8]) }

// Peer is the transport-level handle a sub-protocol (eth/protocols/eth)
// attaches its own session state to, per spec.md §9's "cyclic references"
// design note: the protocol layer holds this handle rather than the
// transport holding a reference back into the protocol's Peer type.
type Peer struct {
	id       NodeID
	rw       MsgReadWriter
	version  uint // devp2p protocolVersion; >=5 enables snappy (spec.md §4.A)
	disc     chan DiscReason
}

// NewPeer wraps an established RLPx session.
func NewPeer(id NodeID, version uint, rw MsgReadWriter) *Peer {
	return &Peer{id: id, rw: rw, version: version, disc: make(chan DiscReason, 1)}
}

func (p *Peer) ID() NodeID               { return p.id }
func (p *Peer) ProtocolVersion() uint     { return p.version }
func (p *Peer) SupportsSnappy() bool      { return p.version >= 5 }
func (p *Peer) ReadWriter() MsgReadWriter { return p.rw }

// Disconnect requests termination of the session with reason. It never
// blocks: a full channel means a disconnect is already pending.
func (p *Peer) Disconnect(reason DiscReason) {
	select {
	case p.disc <- reason:
	default:
	}
}

// Disconnected returns the channel a session's run loop selects on to learn
// it should tear down.
func (p *Peer) Disconnected() <-chan DiscReason { return p.disc }
