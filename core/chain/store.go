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

package chain

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/eth/protocols/eth/forkid"
	"github.com/lumenchain/gethcore/event"
	"github.com/lumenchain/gethcore/params"
	"github.com/lumenchain/gethcore/rlp"
)

var headKey = []byte("head")

// Store is a pebble-backed Blockchain collaborator: it persists each block's
// header and total difficulty keyed by number (block bodies are not written
// to disk), tracks the canonical head in memory, and
// emits CHAIN_UPDATED after every accepted block (spec.md §6 "Event bus:
// CHAIN_UPDATED emitted after putBlock succeeds").
type Store struct {
	db        *pebble.DB
	config    *params.ChainConfig
	networkID uint64

	mu      sync.RWMutex
	head    *types.Block
	genesis common.Hash
	td      *big.Int

	forkFilter *forkid.Filter
	updated    event.Feed
}

// Open creates (or reopens) a pebble-backed Store at dir, seeded with the
// genesis block.
func Open(dir string, config *params.ChainConfig, networkID uint64, genesis *types.Block) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	s := &Store{
		db:        db,
		config:    config,
		networkID: networkID,
		head:      genesis,
		genesis:   genesis.Hash(),
		td:        big.NewInt(0),
	}
	s.forkFilter = forkid.NewFilter(s.genesis, config.ForkBlocks(), func() uint64 { return s.head.Number() })

	if err := s.putBlockLocked(genesis, big.NewInt(0)); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Subscribe registers a listener for CHAIN_UPDATED.
func (s *Store) Subscribe() *event.Subscription { return s.updated.Subscribe() }

// LatestHeader implements Facade.
func (s *Store) LatestHeader() *types.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.head.Header
}

// LatestBlock implements Facade.
func (s *Store) LatestBlock() *types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.head
}

// TotalDifficulty implements Facade.
func (s *Store) TotalDifficulty() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.td)
}

// NetworkID implements Facade.
func (s *Store) NetworkID() uint64 { return s.networkID }

// GenesisHash implements Facade.
func (s *Store) GenesisHash() common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genesis
}

// HardforkAt implements Facade, delegating to params.ChainConfig.
func (s *Store) HardforkAt(blockNumber uint64, totalDifficulty *big.Int) params.Hardfork {
	return s.config.HardforkAt(blockNumber, totalDifficulty)
}

// NextHardforkBlock implements Facade.
func (s *Store) NextHardforkBlock(h params.Hardfork) *uint64 {
	return s.config.NextHardforkBlock(h)
}

// PostMerge reports whether the chain's accumulated total difficulty has
// crossed its configured TerminalTotalDifficulty (SPEC_FULL.md §9's Open
// Question 1 handling) — miner.Miner.Start consults this to refuse starting
// proof-of-work-era block production on a post-merge chain rather than
// inventing PoS block-production semantics.
func (s *Store) PostMerge() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config.TerminalTotalDifficulty == nil {
		return false
	}
	return s.td.Cmp(s.config.TerminalTotalDifficulty) >= 0
}

// ForkID returns this chain's current EIP-2124 fork identifier, for the
// eth/protocols/eth handshake's Chain contract.
func (s *Store) ForkID() forkid.ID {
	s.mu.RLock()
	genesis := s.genesis
	s.mu.RUnlock()
	return forkid.NewID(genesis, s.config.ForkBlocks(), s.LatestHeader().Number.Uint64())
}

// ValidateForkID implements the eth/protocols/eth handshake's Chain contract.
func (s *Store) ValidateForkID(remote forkid.ID) error {
	return s.forkFilter.Validate(remote)
}

// Head implements the eth/protocols/eth handshake's Chain contract.
func (s *Store) Head() (hash common.Hash, number uint64, td *big.Int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.head.Hash(), s.head.Number(), new(big.Int).Set(s.td)
}

// Genesis implements the eth/protocols/eth handshake's Chain contract.
func (s *Store) Genesis() common.Hash { return s.GenesisHash() }

// PutBlock implements Blockchain.putBlock (spec.md §6): persists the block,
// advances the in-memory head if it extends the current canonical chain,
// and fires CHAIN_UPDATED.
func (s *Store) PutBlock(block *types.Block, difficulty *big.Int) error {
	s.mu.Lock()
	if block.Header.ParentHash != s.head.Hash() {
		s.mu.Unlock()
		return errors.New("chain: block does not extend the current head")
	}
	newTD := new(big.Int).Add(s.td, difficulty)
	if err := s.putBlockLocked(block, newTD); err != nil {
		s.mu.Unlock()
		return err
	}
	s.head = block
	s.td = newTD
	s.mu.Unlock()

	s.updated.Send()
	return nil
}

func (s *Store) putBlockLocked(block *types.Block, td *big.Int) error {
	enc, err := rlp.EncodeToBytes(block.Header)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(headerKey(block.Number()), enc, nil); err != nil {
		return err
	}
	if err := batch.Set(tdKey(block.Number()), td.Bytes(), nil); err != nil {
		return err
	}
	if err := batch.Set(headKey, numberBytes(block.Number()), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// HeaderByNumber reads a previously persisted header back out of pebble; the
// miner's recently-signed lookback walks parent headers through it.
func (s *Store) HeaderByNumber(number uint64) (*types.Header, error) {
	val, closer, err := s.db.Get(headerKey(number))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	var h types.Header
	if err := rlp.DecodeBytes(val, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func headerKey(number uint64) []byte {
	return append([]byte("h"), numberBytes(number)...)
}

func tdKey(number uint64) []byte {
	return append([]byte("t"), numberBytes(number)...)
}

func numberBytes(number uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], number)
	return b[:]
}
