// Copyright 2016 The go-ethereum Authors
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

package params

import (
	"math/big"
)

// CliqueConfig holds the consensus engine parameters for proof-of-authority
// sealing (spec.md §4.G, §6 Blockchain.cliqueSignerInTurn/cliqueActiveSigners).
type CliqueConfig struct {
	Period uint64 `json:"period"` // Seconds between two blocks, default 15
	Epoch  uint64 `json:"epoch"`  // Blocks per vote-snapshot checkpoint
}

// ChainConfig is the Common collaborator contract of spec.md §6: block
// numbers at which each named hardfork activates, plus the fields needed to
// compute a fork id (EIP-2124) and to drive EIP-1559 base fee transitions.
//
// Hardforks are ordered; a later fork's block must be >= every earlier
// fork's block. A nil pointer means "never scheduled".
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"`

	HomesteadBlock *big.Int `json:"homesteadBlock,omitempty"`
	EIP150Block    *big.Int `json:"eip150Block,omitempty"`
	EIP155Block    *big.Int `json:"eip155Block,omitempty"`
	EIP158Block    *big.Int `json:"eip158Block,omitempty"`
	ByzantiumBlock *big.Int `json:"byzantiumBlock,omitempty"`
	ConstantinopleBlock *big.Int `json:"constantinopleBlock,omitempty"`
	PetersburgBlock     *big.Int `json:"petersburgBlock,omitempty"`
	IstanbulBlock       *big.Int `json:"istanbulBlock,omitempty"`
	BerlinBlock         *big.Int `json:"berlinBlock,omitempty"`
	LondonBlock         *big.Int `json:"londonBlock,omitempty"`

	// TerminalTotalDifficulty marks the proof-of-stake transition point by
	// total difficulty rather than block number (spec.md §9 Open Question 1).
	// gethcore does not implement PoS block production; its only reader is
	// core/chain.Store.PostMerge, which miner.Start consults. HardforkAt
	// ignores its TD parameter.
	TerminalTotalDifficulty *big.Int `json:"terminalTotalDifficulty,omitempty"`

	Clique *CliqueConfig `json:"clique,omitempty"`
}

// Hardfork identifies a named protocol version for fork-id derivation and
// for Chain.HardforkAt / Chain.NextHardforkBlock (spec.md §4.E, §6).
type Hardfork int

const (
	Chainstart Hardfork = iota
	Homestead
	EIP150
	EIP155
	EIP158
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	Berlin
	London
	numHardforks
)

func (h Hardfork) String() string {
	switch h {
	case Chainstart:
		return "chainstart"
	case Homestead:
		return "homestead"
	case EIP150:
		return "eip150"
	case EIP155:
		return "eip155"
	case EIP158:
		return "eip158"
	case Byzantium:
		return "byzantium"
	case Constantinople:
		return "constantinople"
	case Petersburg:
		return "petersburg"
	case Istanbul:
		return "istanbul"
	case Berlin:
		return "berlin"
	case London:
		return "london"
	default:
		return "unknown"
	}
}

// forkBlock returns the activation block of h, or nil if not scheduled.
func (c *ChainConfig) forkBlock(h Hardfork) *big.Int {
	switch h {
	case Chainstart:
		return big.NewInt(0)
	case Homestead:
		return c.HomesteadBlock
	case EIP150:
		return c.EIP150Block
	case EIP155:
		return c.EIP155Block
	case EIP158:
		return c.EIP158Block
	case Byzantium:
		return c.ByzantiumBlock
	case Constantinople:
		return c.ConstantinopleBlock
	case Petersburg:
		return c.PetersburgBlock
	case Istanbul:
		return c.IstanbulBlock
	case Berlin:
		return c.BerlinBlock
	case London:
		return c.LondonBlock
	default:
		return nil
	}
}

// orderedForkBlocks returns the schedule as (hardfork, block) pairs for every
// fork that has a defined activation block, in fork order. Used by
// ForkBlocks.
func (c *ChainConfig) orderedForkBlocks() []struct {
	fork  Hardfork
	block uint64
} {
	var out []struct {
		fork  Hardfork
		block uint64
	}
	for h := Chainstart; h < numHardforks; h++ {
		if b := c.forkBlock(h); b != nil {
			out = append(out, struct {
				fork  Hardfork
				block uint64
			}{h, b.Uint64()})
		}
	}
	return out
}

// IsActivated reports whether h is scheduled to activate at or before num.
func (c *ChainConfig) IsActivated(h Hardfork, num uint64) bool {
	b := c.forkBlock(h)
	if b == nil {
		return false
	}
	return num >= b.Uint64()
}

// HardforkAt implements spec.md §4.E's Chain.hardforkAt: the highest
// hardfork activated at or before num. totalDifficulty is accepted (Open
// Question 1) but unused — no PoS activation path exists here.
func (c *ChainConfig) HardforkAt(num uint64, totalDifficulty *big.Int) Hardfork {
	_ = totalDifficulty
	latest := Chainstart
	for h := Chainstart; h < numHardforks; h++ {
		if c.IsActivated(h, num) {
			latest = h
		}
	}
	return latest
}

// NextHardforkBlock returns the activation block of the first scheduled
// hardfork strictly after h, or nil if none is scheduled.
func (c *ChainConfig) NextHardforkBlock(h Hardfork) *uint64 {
	for next := h + 1; next < numHardforks; next++ {
		if b := c.forkBlock(next); b != nil {
			v := b.Uint64()
			return &v
		}
	}
	return nil
}

// IsLondon reports whether EIP-1559 base-fee accounting is active at num.
func (c *ChainConfig) IsLondon(num uint64) bool {
	return c.IsActivated(London, num)
}

// ForkBlocks returns the ascending, deduplicated list of block numbers at
// which a named hardfork activates (chainstart excluded, since it's implicit
// rather than a discrete transition) — the input eth/protocols/eth/forkid
// needs alongside the genesis hash to compute an EIP-2124 fork id. The
// genesis hash itself isn't config's to know; callers (core/chain.Store)
// already have it from their own genesis block.
func (c *ChainConfig) ForkBlocks() []uint64 {
	var blocks []uint64
	for _, fb := range c.orderedForkBlocks() {
		if fb.block == 0 || (len(blocks) > 0 && blocks[len(blocks)-1] == fb.block) {
			continue
		}
		blocks = append(blocks, fb.block)
	}
	return blocks
}
