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
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/log"
	"github.com/lumenchain/gethcore/p2p"
)

const (
	maxKnownTxs    = 32768 // spec.md §3 "known-by bitset"; bounded to cap memory per peer
	maxKnownBlocks = 1024

	// maxOutstandingReqs bounds the eth/66 reqId correlation set (spec.md §9
	// Open Question 2's intentional strengthening).
	maxOutstandingReqs = 1024
)

// ErrUnsolicitedResponse is the intentional strengthening spec.md §9 Open
// Question 2 calls for: reject any response whose reqId was never issued.
var ErrUnsolicitedResponse = fmt.Errorf("eth: response reqId is not outstanding")

// Peer wraps a p2p.Peer with the ETH sub-protocol's session state (spec.md
// §3 "Peer session state"): negotiated version, STATUS exchange progress,
// known-by sets, and the eth/66 reqId correlation table.
type Peer struct {
	*p2p.Peer
	version uint64

	head   common.Hash
	td     *big.Int
	headMu sync.RWMutex

	knownTxs    mapset.Set[common.Hash]
	knownBlocks mapset.Set[common.Hash]

	reqIDCounter uint64
	outstanding  map[uint64]struct{}
	outMu        sync.Mutex

	log log.Logger
}

// NewPeer constructs session state for a freshly handshaken p2p.Peer.
func NewPeer(version uint64, p *p2p.Peer) *Peer {
	return &Peer{
		Peer:        p,
		version:     version,
		knownTxs:    mapset.NewSet[common.Hash](),
		knownBlocks: mapset.NewSet[common.Hash](),
		outstanding: make(map[uint64]struct{}),
		log:         log.New("peer", p.ID().String()),
	}
}

// Log returns a logger pre-populated with this peer's short id
// (SPEC_FULL.md §4.B supplement).
func (p *Peer) Log() log.Logger { return p.log }

func (p *Peer) Version() uint64 { return p.version }

// Head returns the peer's last announced best block hash and total
// difficulty.
func (p *Peer) Head() (common.Hash, *big.Int) {
	p.headMu.RLock()
	defer p.headMu.RUnlock()
	return p.head, p.td
}

// SetHead records a newly announced head (from STATUS or NewBlock).
func (p *Peer) SetHead(hash common.Hash, td *big.Int) {
	p.headMu.Lock()
	defer p.headMu.Unlock()
	p.head, p.td = hash, td
}

// KnownTransaction reports whether hash is already known to the peer.
func (p *Peer) KnownTransaction(hash common.Hash) bool { return p.knownTxs.Contains(hash) }

// MarkTransaction records hash as known, evicting arbitrarily when the
// bound is exceeded (spec.md §4.D "markKnownByPeer").
func (p *Peer) MarkTransaction(hash common.Hash) {
	for p.knownTxs.Cardinality() >= maxKnownTxs {
		p.knownTxs.Pop()
	}
	p.knownTxs.Add(hash)
}

func (p *Peer) KnownBlock(hash common.Hash) bool { return p.knownBlocks.Contains(hash) }

func (p *Peer) MarkBlock(hash common.Hash) {
	for p.knownBlocks.Cardinality() >= maxKnownBlocks {
		p.knownBlocks.Pop()
	}
	p.knownBlocks.Add(hash)
}

// nextReqID allocates an eth/66 request id and records it as outstanding.
// Wraps silently on overflow (spec.md §4.B "on overflow, wrap to 0").
func (p *Peer) nextReqID() uint64 {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	id := atomic.AddUint64(&p.reqIDCounter, 1) - 1
	for len(p.outstanding) >= maxOutstandingReqs {
		// drop an arbitrary entry; a genuinely slow peer that floods requests
		// faster than it drains responses has already exceeded any
		// reasonable concurrency bound.
		for k := range p.outstanding {
			delete(p.outstanding, k)
			break
		}
	}
	p.outstanding[id] = struct{}{}
	return id
}

// resolveReqID validates and clears an incoming response's reqId.
func (p *Peer) resolveReqID(id uint64) error {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	if _, ok := p.outstanding[id]; !ok {
		return ErrUnsolicitedResponse
	}
	delete(p.outstanding, id)
	return nil
}

// send writes a message after checking the version gate (spec.md §4.B).
func (p *Peer) send(code uint64, data interface{}) error {
	if !IsAllowed(uint(p.version), code) {
		return ErrCodeNotAllowed
	}
	return p2p.Send(p.ReadWriter(), code, data)
}

// SendTransactions sends full transaction bodies to the peer and marks them
// known (spec.md §4.D broadcast discipline: "send full bodies to the
// square root of that subset").
func (p *Peer) SendTransactions(txs types.Transactions) error {
	for _, tx := range txs {
		p.MarkTransaction(tx.Hash())
	}
	return p.send(TransactionsMsg, TransactionsPacket(txs))
}

// AsyncSendTransactions is the non-blocking announce-only counterpart: it
// marks the hashes known and sends NewPooledTransactionHashesMsg.
func (p *Peer) AsyncSendTransactions(hashes []common.Hash) error {
	for _, h := range hashes {
		p.MarkTransaction(h)
	}
	return p.send(NewPooledTransactionHashesMsg, NewPooledTransactionHashesPacket(hashes))
}

// RequestHeadersByNumber issues a GetBlockHeaders request starting at
// origin, attaching an eth/66 reqId when the negotiated version requires
// one.
func (p *Peer) RequestHeadersByNumber(origin uint64, amount, skip uint64, reverse bool) error {
	query := &GetBlockHeadersPacket{
		Origin:  HashOrNumber{Number: origin},
		Amount:  amount,
		Skip:    skip,
		Reverse: reverse,
	}
	if p.version >= ETH66 {
		return p.send(GetBlockHeadersMsg, &GetBlockHeadersPacket66{
			RequestId:             p.nextReqID(),
			GetBlockHeadersPacket: query,
		})
	}
	return p.send(GetBlockHeadersMsg, query)
}

// RequestReceipts issues a GetReceipts request for the given block hashes
// (SPEC_FULL.md §4.C supplement).
func (p *Peer) RequestReceipts(hashes []common.Hash) error {
	if p.version >= ETH66 {
		return p.send(GetReceiptsMsg, &GetReceiptsPacket66{
			RequestId:       p.nextReqID(),
			GetReceiptsPacket: hashes,
		})
	}
	return p.send(GetReceiptsMsg, GetReceiptsPacket(hashes))
}
