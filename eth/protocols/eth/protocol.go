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

// Package eth implements the ETH sub-protocol state machine (spec.md §4.B):
// per-peer STATUS handshake, fork-id validation, and version-gated message
// dispatch, for protocol versions 62 through 66.
package eth

import "errors"

// Protocol version numbers this module negotiates, oldest first.
const (
	ETH62 = 62
	ETH63 = 63
	ETH64 = 64
	ETH65 = 65
	ETH66 = 66
)

// ProtocolVersions lists every version this module offers during devp2p
// capability negotiation, newest first.
var ProtocolVersions = []uint{ETH66, ETH65, ETH64, ETH63, ETH62}

// Message codes (spec.md §3 "Message envelope").
const (
	StatusMsg                       = 0x00
	NewBlockHashesMsg                = 0x01
	TransactionsMsg                  = 0x02
	GetBlockHeadersMsg               = 0x03
	BlockHeadersMsg                  = 0x04
	GetBlockBodiesMsg                = 0x05
	BlockBodiesMsg                   = 0x06
	NewBlockMsg                      = 0x07
	NewPooledTransactionHashesMsg    = 0x08
	GetPooledTransactionsMsg         = 0x09
	PooledTransactionsMsg            = 0x0a
	GetNodeDataMsg                   = 0x0d
	NodeDataMsg                      = 0x0e
	GetReceiptsMsg                   = 0x0f
	ReceiptsMsg                      = 0x10
)

// protocolMaxMsgSize bounds a single RLPx frame at 10 MiB, the constant
// shared by every real eth/peer.go example in the pack.
const protocolMaxMsgSize = 10 * 1024 * 1024

// minVersionForCode implements spec.md §4.B's version-gating table:
//
//	0x01-0x07  require >= 62
//	0x0d-0x10  require >= 63
//	0x08-0x0a  require >= 65
//
// STATUS (0x00) has no minimum beyond "protocol is active".
func minVersionForCode(code uint64) uint {
	switch {
	case code == StatusMsg:
		return ETH62
	case code >= 0x01 && code <= 0x07:
		return ETH62
	case code >= 0x0d && code <= 0x10:
		return ETH63
	case code >= 0x08 && code <= 0x0a:
		return ETH65
	default:
		return 0 // unknown code: never allowed, see IsAllowed
	}
}

// IsAllowed reports whether code may be sent or received at the given
// negotiated version. An unrecognized code is never allowed.
func IsAllowed(version uint, code uint64) bool {
	min := minVersionForCode(code)
	if min == 0 {
		return false
	}
	return version >= min
}

// ErrCodeNotAllowed is spec.md §7's CodeNotAllowed (send path): surfaced to
// the caller rather than disconnecting the peer.
var ErrCodeNotAllowed = errors.New("eth: message code not allowed at negotiated protocol version")

// hasReqID reports whether code's envelope is prefixed with an eth/66
// reqId (spec.md §3 "For version 66 every request/response pair
// additionally carries a reqId prefix").
func hasReqID(code uint64) bool {
	switch code {
	case GetBlockHeadersMsg, BlockHeadersMsg,
		GetBlockBodiesMsg, BlockBodiesMsg,
		GetPooledTransactionsMsg, PooledTransactionsMsg,
		GetNodeDataMsg, NodeDataMsg,
		GetReceiptsMsg, ReceiptsMsg:
		return true
	default:
		return false
	}
}
