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

// Package txpool implements the pending-transaction pool (spec.md §4.D): a
// sender-grouped, nonce-ordered holding area that the miner drains through a
// price-and-nonce priority heap and the wire protocol drains through a
// known-by-peer broadcast filter.
package txpool

import (
	"container/heap"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
)

var (
	ErrAlreadyKnown  = errors.New("txpool: transaction already known")
	ErrInvalidSender = errors.New("txpool: could not recover sender")
)

// StateAccess is the narrow read-only slice of account state the pool needs
// to resynchronize a sender's eligible head during txsByPriceAndNonce
// (spec.md §4.D "if the popped transaction's nonce is not the sender's
// current account nonce plus its already-consumed count, skip the sender
// until resynchronized").
type StateAccess interface {
	Nonce(addr common.Address) uint64
}

// PeerID identifies a connected peer for the purposes of known-by tracking,
// kept abstract so this package doesn't need to import the p2p/eth stack.
type PeerID string

// bySenderList holds one sender's pending transactions ordered ascending by
// nonce, mirroring the teacher's txsByAddress grouping.
type bySenderList []*types.Transaction

func (l bySenderList) Len() int           { return len(l) }
func (l bySenderList) Less(i, j int) bool { return l[i].Nonce() < l[j].Nonce() }
func (l bySenderList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

// Pool is the sender-grouped pending transaction pool.
type Pool struct {
	mu sync.RWMutex

	all       map[common.Hash]*types.Transaction
	bySender  map[common.Address]bySenderList
	senderOf  map[common.Hash]common.Address

	knownBy map[PeerID]map[common.Hash]struct{}
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{
		all:      make(map[common.Hash]*types.Transaction),
		bySender: make(map[common.Address]bySenderList),
		senderOf: make(map[common.Hash]common.Address),
		knownBy:  make(map[PeerID]map[common.Hash]struct{}),
	}
}

// Add inserts tx into the pool, grouped and re-sorted under its sender.
func (p *Pool) Add(tx *types.Transaction) error {
	sender, err := tx.Sender()
	if err != nil {
		return ErrInvalidSender
	}
	hash := tx.Hash()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.all[hash]; ok {
		return ErrAlreadyKnown
	}
	p.all[hash] = tx
	p.senderOf[hash] = sender
	p.bySender[sender] = append(p.bySender[sender], tx)
	sort.Sort(p.bySender[sender])
	return nil
}

// Remove drops a single transaction by hash.
func (p *Pool) Remove(hash common.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(hash)
}

func (p *Pool) removeLocked(hash common.Hash) {
	sender, ok := p.senderOf[hash]
	if !ok {
		return
	}
	delete(p.all, hash)
	delete(p.senderOf, hash)

	list := p.bySender[sender]
	for i, tx := range list {
		if tx.Hash() == hash {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(p.bySender, sender)
	} else {
		p.bySender[sender] = list
	}
}

// RemoveNewBlockTxs drops every transaction a newly-committed block included,
// called after the chain accepts a block built from this pool's contents or
// one received from a peer (spec.md §4.D "removeNewBlockTxs").
func (p *Pool) RemoveNewBlockTxs(block *types.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range block.Transactions() {
		p.removeLocked(tx.Hash())
	}
}

// GetByHash returns the transaction with the given hash, if pooled.
func (p *Pool) GetByHash(hash common.Hash) *types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.all[hash]
}

// heapItem is one sender's current eligible-head candidate in the priority
// heap, along with that sender's remaining queue position.
type heapItem struct {
	tx          *types.Transaction
	sender      common.Address
	effTip      *uint256.Int
	nextInQueue int // index into bySender[sender] of the tx after tx
}

type txHeap []*heapItem

func (h txHeap) Len() int            { return len(h) }
func (h txHeap) Less(i, j int) bool  { return h[i].effTip.Gt(h[j].effTip) } // max-heap
func (h txHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *txHeap) Push(x interface{}) { *h = append(*h, x.(*heapItem)) }
func (h *txHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TxsByPriceAndNonce implements spec.md §4.D's eligibility ordering: group by
// sender, order each group ascending by nonce, feed the head of each group
// into a priority heap keyed by effective gas tip, and repeatedly pop the
// max — resynchronizing (skipping) a sender whose head no longer matches its
// current account nonce. baseFee is nil pre-London.
func (p *Pool) TxsByPriceAndNonce(state StateAccess, baseFee *uint256.Int) []*types.Transaction {
	p.mu.RLock()
	senders := make(map[common.Address]bySenderList, len(p.bySender))
	for addr, list := range p.bySender {
		cp := make(bySenderList, len(list))
		copy(cp, list)
		senders[addr] = cp
	}
	p.mu.RUnlock()

	consumed := make(map[common.Address]int, len(senders))
	h := make(txHeap, 0, len(senders))
	for addr, list := range senders {
		item := nextEligible(addr, list, 0, state, baseFee)
		if item != nil {
			h = append(h, item)
		}
	}
	heap.Init(&h)

	var out []*types.Transaction
	for h.Len() > 0 {
		top := heap.Pop(&h).(*heapItem)
		out = append(out, top.tx)
		consumed[top.sender]++

		next := nextEligible(top.sender, senders[top.sender], top.nextInQueue, state, baseFee)
		if next != nil {
			heap.Push(&h, next)
		}
	}
	return out
}

// nextEligible returns list[idx] as the sender's next heap entry when its
// nonce equals the sender's current account nonce plus idx and its fee cap
// covers baseFee. Otherwise it returns nil and the sender yields nothing more
// in this pass; entries after list[idx] are not examined.
func nextEligible(sender common.Address, list bySenderList, idx int, state StateAccess, baseFee *uint256.Int) *heapItem {
	want := state.Nonce(sender) + uint64(idx)
	for i := idx; i < len(list); i++ {
		tx := list[i]
		if tx.Nonce() != want {
			return nil
		}
		tip, err := tx.EffectiveGasTip(baseFee)
		if err != nil {
			// BaseFeeTooLow: this transaction is excluded, but its successors
			// could still become eligible once base fee drops, so we simply
			// stop considering this sender for the current round rather than
			// treating it as a nonce gap.
			return nil
		}
		return &heapItem{tx: tx, sender: sender, effTip: tip, nextInQueue: i + 1}
	}
	return nil
}

// MarkKnownByPeer records hashes as known to peer (spec.md §4.D broadcast
// discipline: "Update known-by on send and on receive").
func (p *Pool) MarkKnownByPeer(peer PeerID, hashes []common.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.knownBy[peer]
	if !ok {
		set = make(map[common.Hash]struct{})
		p.knownBy[peer] = set
	}
	for _, h := range hashes {
		set[h] = struct{}{}
	}
}

// AddToKnownByPeer marks hashes known to peer and returns the subset peer
// did not already know, for the broadcaster to decide what still needs
// sending.
func (p *Pool) AddToKnownByPeer(peer PeerID, hashes []common.Hash) []common.Hash {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.knownBy[peer]
	if !ok {
		set = make(map[common.Hash]struct{})
		p.knownBy[peer] = set
	}
	unknown := make([]common.Hash, 0, len(hashes))
	for _, h := range hashes {
		if _, known := set[h]; !known {
			unknown = append(unknown, h)
			set[h] = struct{}{}
		}
	}
	return unknown
}

// BroadcastSplit implements spec.md §4.D's fan-out rule: of the peers that
// don't already know hash, send full bodies to the square root of that
// subset and only announce hashes to the rest. The split is deterministic
// given the input order so tests can assert on it.
func BroadcastSplit(candidates []PeerID) (full, announceOnly []PeerID) {
	n := int(math.Sqrt(float64(len(candidates))))
	if n == 0 && len(candidates) > 0 {
		n = 1
	}
	return candidates[:n], candidates[n:]
}
