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

// Package miner implements the block builder (spec.md §4.F) and the Clique
// assembly scheduler (spec.md §4.G) that drives it. The EVM/state trie is an
// external collaborator here (spec.md §1, §6): this package never executes
// bytecode or touches a state root directly, it only calls across the
// VMSnapshot interface.
package miner

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/consensus/clique"
	"github.com/lumenchain/gethcore/core/types"
)

var (
	errBuilderClosed    = errors.New("miner: block builder already sealed or discarded")
	errGasLimitExceeded = errors.New("miner: transaction gas exceeds remaining block gas")

	// ErrNonceMismatch, ErrInsufficientBalance and ErrExecutionReverted are
	// the sentinel causes a VMSnapshot implementation is expected to wrap
	// (errors.Is-compatible) when ApplyTransaction fails for one of the
	// corresponding spec.md §4.F reasons. GasLimitExceeded and BaseFeeTooLow
	// are instead detected by Builder itself, ahead of ever calling
	// ApplyTransaction, since they don't require executing the transaction.
	ErrNonceMismatch       = errors.New("miner: transaction nonce does not match sender account nonce")
	ErrInsufficientBalance = errors.New("miner: sender balance cannot cover value plus gas cost")
	ErrExecutionReverted   = errors.New("miner: transaction execution reverted")
)

// TxOutcomeKind classifies a recoverable addTransaction failure (spec.md
// §4.F, §7's "TxExecutionError" row), so the miner's skip/abort decision
// (§4.G step 10) doesn't need a type switch on a generic error.
type TxOutcomeKind int

const (
	_ TxOutcomeKind = iota
	GasLimitExceeded
	NonceMismatch
	InsufficientBalance
	BaseFeeTooLow
	Revert
)

func (k TxOutcomeKind) String() string {
	switch k {
	case GasLimitExceeded:
		return "GasLimitExceeded"
	case NonceMismatch:
		return "NonceMismatch"
	case InsufficientBalance:
		return "InsufficientBalance"
	case BaseFeeTooLow:
		return "BaseFeeTooLow"
	case Revert:
		return "Revert"
	default:
		return "Unknown"
	}
}

// TxExecutionError reports why AddTransaction declined a transaction.
type TxExecutionError struct {
	Kind TxOutcomeKind
	Tx   common.Hash
	Err  error
}

func (e *TxExecutionError) Error() string {
	return e.Kind.String() + ": " + e.Tx.Hex() + ": " + e.Err.Error()
}

func (e *TxExecutionError) Unwrap() error { return e.Err }

// VMSnapshot is the external VM/state collaborator contract (spec.md §6:
// "VM.copy() -> VmSnapshot"): a private execution snapshot forked from the
// canonical head that the block builder applies transactions against.
// Nothing in this package computes a state root or runs the EVM itself —
// both are delegated across this interface (spec.md §1 Non-goals).
type VMSnapshot interface {
	// ApplyTransaction executes tx against the snapshot's private state and
	// reports the gas it consumed. A failure should wrap one of
	// ErrNonceMismatch, ErrInsufficientBalance or ErrExecutionReverted so
	// Builder can classify it into the matching TxOutcomeKind.
	ApplyTransaction(header *types.Header, tx *types.Transaction) (gasUsed uint64, err error)

	// Nonce satisfies core/txpool.StateAccess, letting the miner feed the
	// same snapshot it executes against into TxsByPriceAndNonce.
	Nonce(addr common.Address) uint64

	// StateRoot returns the snapshot's current root, committed into the
	// sealed header on Build.
	StateRoot() common.Hash
}

// HeaderData is the mutable pending-header input to Open (spec.md §4.F
// "headerData"). Number, GasLimit and BaseFee are computed by the miner
// scheduler's step 7 (EIP-1559 rules); Difficulty and the Clique portion of
// Extra are instead filled in by Open itself via BuilderOptions.Clique.
type HeaderData struct {
	Number    uint64
	GasLimit  uint64
	BaseFee   *uint256.Int
	Timestamp uint64
	Coinbase  common.Address
}

// BuilderOptions carries spec.md §4.F's "options" parameter: the Clique
// engine that supplies Prepare (difficulty + extra-data) and, later, Seal.
type BuilderOptions struct {
	Clique *clique.Engine
}

// Builder is the block-builder workspace of spec.md §3: a mutable pending
// header plus an append-only accepted-transaction list and cumulative
// gasUsed, backed by a private VM snapshot. gasPool ≤ header.GasLimit always
// (spec.md §3 invariant "gasUsed ≤ gasLimit at all times").
type Builder struct {
	header   *types.Header
	snapshot VMSnapshot
	clique   *clique.Engine

	txs     []*types.Transaction
	gasPool uint64

	sealed    bool
	discarded bool
}

// Open begins assembling a new pending block on top of parent (spec.md §4.F
// "open(parent, headerData, options) -> handle"). This is the Go-native
// realization of the external VM's VmSnapshot.buildBlock(opts) method
// (spec.md §6): the caller already holds a VMSnapshot (from VM.copy()) and
// hands it here, rather than the snapshot type importing this package back.
func Open(snapshot VMSnapshot, parent *types.Header, data HeaderData, options BuilderOptions) (*Builder, error) {
	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).SetUint64(data.Number),
		GasLimit:   data.GasLimit,
		Time:       data.Timestamp,
		Coinbase:   data.Coinbase,
		BaseFee:    data.BaseFee,
	}
	if options.Clique != nil {
		if err := options.Clique.Prepare(header, data.Number); err != nil {
			return nil, err
		}
	}
	return &Builder{
		header:   header,
		snapshot: snapshot,
		clique:   options.Clique,
		gasPool:  data.GasLimit,
	}, nil
}

// GasRemaining returns the gas still available for further transactions,
// the value spec.md §4.F's GasLimitExceeded rule compares against 21000.
func (b *Builder) GasRemaining() uint64 { return b.gasPool }

// TxCount returns how many transactions have been accepted so far.
func (b *Builder) TxCount() int { return len(b.txs) }

// Header returns the pending header as assembled so far (read-only use by
// Miner.Pending).
func (b *Builder) Header() *types.Header { return b.header }

// Txs returns the transactions accepted so far (read-only use by Miner.Pending).
func (b *Builder) Txs() []*types.Transaction { return b.txs }

// AddTransaction executes tx against the builder's private snapshot; on
// success it appends tx to the body and adds to gasUsed, on failure it
// reports one of GasLimitExceeded, NonceMismatch, InsufficientBalance,
// BaseFeeTooLow or Revert (spec.md §4.F).
func (b *Builder) AddTransaction(tx *types.Transaction) error {
	if b.sealed || b.discarded {
		return errBuilderClosed
	}
	if tx.Gas() > b.gasPool {
		return &TxExecutionError{Kind: GasLimitExceeded, Tx: tx.Hash(), Err: errGasLimitExceeded}
	}
	if b.header.BaseFee != nil {
		if _, err := tx.EffectiveGasTip(b.header.BaseFee); err != nil {
			return &TxExecutionError{Kind: BaseFeeTooLow, Tx: tx.Hash(), Err: err}
		}
	}

	gasUsed, err := b.snapshot.ApplyTransaction(b.header, tx)
	if err != nil {
		return classifyExecErr(tx, err)
	}

	b.gasPool -= gasUsed
	b.header.GasUsed += gasUsed
	b.txs = append(b.txs, tx)
	return nil
}

func classifyExecErr(tx *types.Transaction, err error) *TxExecutionError {
	kind := Revert
	switch {
	case errors.Is(err, ErrNonceMismatch):
		kind = NonceMismatch
	case errors.Is(err, ErrInsufficientBalance):
		kind = InsufficientBalance
	}
	return &TxExecutionError{Kind: kind, Tx: tx.Hash(), Err: err}
}

// BuildResult surfaces the outcome of a successful Build (SPEC_FULL.md §4.F
// supplement): GasUsed and TxCount so callers don't need to re-derive them
// from the sealed block.
type BuildResult struct {
	GasUsed uint64
	TxCount int
}

// Build seals the pending block: commits the snapshot's state root into the
// header, signs it under Clique if configured, and returns the sealed block.
// Build may only be called once; subsequent calls fail.
func (b *Builder) Build() (*types.Block, *BuildResult, error) {
	if b.sealed || b.discarded {
		return nil, nil, errBuilderClosed
	}
	b.header.Root = b.snapshot.StateRoot()
	if b.clique != nil {
		if err := b.clique.Seal(b.header); err != nil {
			return nil, nil, err
		}
	}
	b.sealed = true
	return types.NewBlock(b.header, b.txs), &BuildResult{GasUsed: b.header.GasUsed, TxCount: len(b.txs)}, nil
}

// Discard abandons the pending block without sealing it (spec.md §4.F
// "discard()", §4.G step 12 "discard the snapshot and return without
// submitting").
func (b *Builder) Discard() { b.discarded = true }
