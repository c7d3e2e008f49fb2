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

package miner

import (
	"crypto/sha256"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/crypto"
	"github.com/lumenchain/gethcore/event"
	"github.com/lumenchain/gethcore/params"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T, label string) *secp256k1.PrivateKey {
	t.Helper()
	seed := sha256.Sum256([]byte(t.Name() + label))
	return secp256k1.PrivKeyFromBytes(seed[:])
}

func addrOf(t *testing.T, prv *secp256k1.PrivateKey) common.Address {
	t.Helper()
	pub := prv.PubKey().SerializeUncompressed()
	a, err := crypto.PubkeyToAddress(pub)
	require.NoError(t, err)
	return a
}

func signedLegacyTx(t *testing.T, key *secp256k1.PrivateKey, nonce uint64, gasPrice int64) *types.Transaction {
	t.Helper()
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: big.NewInt(gasPrice),
		Gas:      21000,
		Value:    big.NewInt(0),
	})
	signed, err := types.SignTx(tx, key)
	require.NoError(t, err)
	return signed
}

// fakeSnapshot is a minimal VMSnapshot: it tracks per-sender nonces and
// reports a fixed gas cost per transaction, optionally gating ApplyTransaction
// on a channel so tests can control interleaving with the interrupt listener.
type fakeSnapshot struct {
	mu      sync.Mutex
	nonces  map[common.Address]uint64
	root    common.Hash
	applyErr error
	gate     chan struct{} // if non-nil, ApplyTransaction blocks on it once
	entered  chan struct{} // closed the first time ApplyTransaction is entered

	applied []*types.Transaction
}

func newFakeSnapshot() *fakeSnapshot {
	return &fakeSnapshot{nonces: make(map[common.Address]uint64)}
}

func (s *fakeSnapshot) ApplyTransaction(header *types.Header, tx *types.Transaction) (uint64, error) {
	if s.entered != nil {
		select {
		case <-s.entered:
		default:
			close(s.entered)
		}
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.applyErr != nil {
		return 0, s.applyErr
	}
	sender, err := tx.Sender()
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.Nonce() != s.nonces[sender] {
		return 0, ErrNonceMismatch
	}
	s.nonces[sender]++
	s.applied = append(s.applied, tx)
	return 21000, nil
}

func (s *fakeSnapshot) Nonce(addr common.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonces[addr]
}

func (s *fakeSnapshot) StateRoot() common.Hash { return s.root }

type fakeVM struct{ snapshot *fakeSnapshot }

func (v *fakeVM) Copy() VMSnapshot { return v.snapshot }

// fakeChain is a minimal Blockchain: an in-memory slice of blocks keyed by
// number, plus an event.Feed standing in for Store's CHAIN_UPDATED bus.
type fakeChain struct {
	mu          sync.Mutex
	blocks      []*types.Block
	londonBlock uint64
	postMerge   bool
	updated     event.Feed
	put         []*types.Block
}

func newFakeChain(genesis *types.Header, londonBlock uint64) *fakeChain {
	return &fakeChain{blocks: []*types.Block{types.NewBlock(genesis, nil)}, londonBlock: londonBlock}
}

func (c *fakeChain) LatestBlock() *types.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[len(c.blocks)-1]
}

func (c *fakeChain) LatestHeader() *types.Header { return c.LatestBlock().Header }

func (c *fakeChain) TotalDifficulty() *big.Int { return big.NewInt(0) }

func (c *fakeChain) NetworkID() uint64 { return 1337 }

func (c *fakeChain) GenesisHash() common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[0].Hash()
}

func (c *fakeChain) HardforkAt(number uint64, _ *big.Int) params.Hardfork {
	if number >= c.londonBlock {
		return params.London
	}
	return params.Chainstart
}

func (c *fakeChain) NextHardforkBlock(params.Hardfork) *uint64 { return nil }

func (c *fakeChain) PostMerge() bool { return c.postMerge }

func (c *fakeChain) Subscribe() *event.Subscription { return c.updated.Subscribe() }

func (c *fakeChain) PutBlock(block *types.Block, _ *big.Int) error {
	c.mu.Lock()
	c.blocks = append(c.blocks, block)
	c.put = append(c.put, block)
	c.mu.Unlock()
	c.updated.Send()
	return nil
}

func (c *fakeChain) HeaderByNumber(number uint64) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if number >= uint64(len(c.blocks)) {
		return nil, errors.New("fakeChain: no such block")
	}
	return c.blocks[number].Header, nil
}

func (c *fakeChain) putCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.put)
}

// fakeClock is a fixed-time Clock whose After fires immediately, sufficient
// for tests that drive assembleBlock directly rather than through the loop.
type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }
func (c fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now.Add(d)
	return ch
}

func noJitter() float64 { return 0 }
