// Copyright 2017 The go-ethereum Authors
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

// Package clique implements the reference Blockchain collaborator (spec.md
// §6: putBlock, cliqueSignerInTurn, cliqueActiveSigners,
// cliqueCheckRecentlySigned) the miner scheduler (§4.G) drives. The active
// signer set is fixed when the engine is constructed (New takes it from the
// caller, typically the genesis header's extra-data signer list via
// core/types.Header.CliqueSigners) rather than replayed through a full
// vote-tallying state machine (the kind `other_examples/11ae42de_
// oasysgames-oasys-validator__consensus-oasys-oasys.go.go`'s snapshot/votes
// machinery implements) — this module has no JSON-RPC or admin surface to
// cast PROPOSE/DISCARD votes through, so tracking a voting tally would be
// unexercised machinery; adding/removing signers remains an explicit
// Non-goal (spec.md §1's validation-rules boundary covers consensus-set
// governance).
package clique

import (
	"errors"
	"math/big"
	"sort"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/crypto"
)

var (
	ErrUnauthorizedSigner = errors.New("clique: signer is not in the active signer set")
	ErrRecentlySigned     = errors.New("clique: signer has signed one of the last N blocks")
	errNoSignerConfigured = errors.New("clique: no local signing key configured")
)

// SignerFn signs digestHash with the engine's local key. Abstracted out so
// the miner can be driven by a remote signer (e.g. a clef-style external
// process) without this package depending on that transport.
type SignerFn func(digestHash []byte) ([]byte, error)

// Engine is the reference Clique proof-of-authority engine: in-turn
// computation, recently-signed exclusion, and seal sign/verify.
type Engine struct {
	period uint64
	epoch  uint64

	mu      sync.RWMutex
	signers []common.Address // sorted ascending, the round-robin order

	signFn SignerFn
	signer common.Address
}

// New constructs an engine whose active signer set is seeded from signers
// (typically read from the genesis header via Header.CliqueSigners).
func New(period, epoch uint64, signers []common.Address) *Engine {
	sorted := append([]common.Address(nil), signers...)
	sort.Slice(sorted, func(i, j int) bool { return lessAddr(sorted[i], sorted[j]) })
	return &Engine{period: period, epoch: epoch, signers: sorted}
}

func lessAddr(a, b common.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Period returns the configured block period in seconds.
func (e *Engine) Period() uint64 { return e.period }

// Authorize installs the local signing identity the miner seals blocks with.
func (e *Engine) Authorize(signer common.Address, signFn SignerFn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signer, e.signFn = signer, signFn
}

// Signer returns the locally configured signing address, if any.
func (e *Engine) Signer() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.signer
}

// ActiveSigners implements Blockchain.cliqueActiveSigners.
func (e *Engine) ActiveSigners() []common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]common.Address, len(e.signers))
	copy(out, e.signers)
	return out
}

// signerIndex returns the position of addr in the sorted signer list, or -1.
func (e *Engine) signerIndex(addr common.Address) int {
	for i, s := range e.signers {
		if s == addr {
			return i
		}
	}
	return -1
}

// SignerInTurn implements Blockchain.cliqueSignerInTurn: addr is in turn for
// the next block if the round-robin rotation (blockNumber mod signerCount)
// lands on it.
func (e *Engine) SignerInTurn(addr common.Address, number uint64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := len(e.signers)
	if n == 0 {
		return false
	}
	idx := e.signerIndex(addr)
	if idx < 0 {
		return false
	}
	return uint64(idx) == number%uint64(n)
}

// CheckRecentlySigned implements Blockchain.cliqueCheckRecentlySigned
// against an explicit, oldest-first list of recent block signers the caller
// supplies; only its last floor(signerCount/2)+1 entries are checked —
// spec.md §4.G step 4's "recently signed" window.
func (e *Engine) CheckRecentlySigned(signer common.Address, recent []common.Address) bool {
	e.mu.RLock()
	limit := len(e.signers)/2 + 1
	e.mu.RUnlock()
	start := len(recent) - limit
	if start < 0 {
		start = 0
	}
	for _, s := range recent[start:] {
		if s == signer {
			return true
		}
	}
	return false
}

// Difficulty computed for an in-turn vs out-of-turn header (spec.md §4.G
// step 6).
const (
	DiffInTurn = 2
	DiffNoTurn = 1
)

// Prepare fills header.Difficulty and the vanity+signer-list portion of
// header.Extra ahead of sealing. On epoch checkpoint blocks the full active
// signer set is re-embedded, the same checkpoint-re-embedding convention
// the Oasys engine's `Prepare` uses (see the package doc comment) to let a
// syncing node reconstruct the signer set without replaying every vote.
func (e *Engine) Prepare(header *types.Header, number uint64) error {
	e.mu.RLock()
	signers := append([]common.Address(nil), e.signers...)
	inTurn := e.signerIndex(e.signer) >= 0 && e.SignerInTurn(e.signer, number)
	e.mu.RUnlock()

	if inTurn {
		header.Difficulty = big.NewInt(DiffInTurn)
	} else {
		header.Difficulty = big.NewInt(DiffNoTurn)
	}

	extra := make([]byte, types.CliqueExtraVanity)
	if e.epoch != 0 && number%e.epoch == 0 {
		for _, s := range signers {
			extra = append(extra, s[:]...)
		}
	}
	extra = append(extra, make([]byte, types.CliqueExtraSeal)...)
	header.Extra = extra
	return nil
}

// Seal signs header's SealHash with the configured local key and writes the
// resulting signature into the trailing CliqueExtraSeal bytes of Extra
// (spec.md §4.G step 11 "signs under Clique if applicable").
func (e *Engine) Seal(header *types.Header) error {
	e.mu.RLock()
	signFn := e.signFn
	e.mu.RUnlock()
	if signFn == nil {
		return errNoSignerConfigured
	}
	sealHash, err := header.SealHash()
	if err != nil {
		return err
	}
	sig, err := signFn(sealHash.Bytes())
	if err != nil {
		return err
	}
	if len(header.Extra) < types.CliqueExtraSeal {
		return errors.New("clique: header extra-data too short for seal")
	}
	copy(header.Extra[len(header.Extra)-types.CliqueExtraSeal:], sig)
	return nil
}

// VerifySeal recovers the sealing signer from header and checks it against
// the active signer set and the recently-signed exclusion window.
func (e *Engine) VerifySeal(header *types.Header, recent []common.Address) (common.Address, error) {
	signer, err := Ecrecover(header)
	if err != nil {
		return common.Address{}, err
	}
	e.mu.RLock()
	idx := e.signerIndex(signer)
	e.mu.RUnlock()
	if idx < 0 {
		return common.Address{}, ErrUnauthorizedSigner
	}
	if e.CheckRecentlySigned(signer, recent) {
		return common.Address{}, ErrRecentlySigned
	}
	return signer, nil
}

// Ecrecover recovers the signing address from a sealed Clique header.
func Ecrecover(header *types.Header) (common.Address, error) {
	sealHash, err := header.SealHash()
	if err != nil {
		return common.Address{}, err
	}
	if len(header.Extra) < types.CliqueExtraSeal {
		return common.Address{}, errors.New("clique: header extra-data too short for seal")
	}
	sig := header.Extra[len(header.Extra)-types.CliqueExtraSeal:]
	pub, err := crypto.Ecrecover(sealHash.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(pub)
}

// SignerSet is a convenience set built from ActiveSigners, useful for
// membership checks that don't need the round-robin ordering.
func (e *Engine) SignerSet() mapset.Set[common.Address] {
	return mapset.NewSet[common.Address](e.ActiveSigners()...)
}

// SignFn adapts a raw secp256k1 private key into a SignerFn, the common case
// for a locally-held signing key rather than a remote signer process.
func SignFn(prv *secp256k1.PrivateKey) SignerFn {
	return func(digestHash []byte) ([]byte, error) {
		return crypto.Sign(digestHash, prv)
	}
}

