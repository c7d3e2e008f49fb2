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
	"errors"
	"math/big"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/consensus/clique"
	"github.com/lumenchain/gethcore/core/chain"
	"github.com/lumenchain/gethcore/core/txpool"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/event"
	"github.com/lumenchain/gethcore/log"
	"github.com/lumenchain/gethcore/metrics"
	"github.com/lumenchain/gethcore/params"
)

// ErrPostMergeUnsupported is returned by Start on a chain whose accumulated
// total difficulty has crossed TerminalTotalDifficulty (SPEC_FULL.md §9):
// this module has no proof-of-stake block-production path, so rather than
// invent one it refuses to start.
var ErrPostMergeUnsupported = errors.New("miner: chain has passed its merge total difficulty, PoS block production is unsupported")

var (
	blocksAssembledCounter     = metrics.NewRegisteredCounter("miner/blocksAssembled")
	assemblyInterruptedCounter = metrics.NewRegisteredCounter("miner/assemblyInterrupted")
	assemblyDurationTimer      = metrics.NewRegisteredTimer("miner/assemblyDuration")
)

// VM is the external EVM/state collaborator contract (spec.md §6: "VM.copy()
// -> VmSnapshot"). gethcore never implements this itself — the interpreter
// and state trie are explicitly out of scope (spec.md §1).
type VM interface {
	Copy() VMSnapshot
}

// Blockchain is the collaborator contract spec.md §6 names: block
// submission plus enough read access for the assembly procedure to inherit
// the parent header and walk back through recently-signed history. The
// concrete core/chain.Store satisfies it.
type Blockchain interface {
	chain.Facade
	PutBlock(block *types.Block, difficulty *big.Int) error
	Subscribe() *event.Subscription
	HeaderByNumber(number uint64) (*types.Header, error)
	PostMerge() bool
}

// Clock abstracts time so assembly-timing tests can fast-forward (spec.md §9
// design note "Clock source").
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Config carries the miner scheduler's knobs (spec.md §4.G "Configuration"),
// mirroring the teacher's miner.Config zero-value-defaults idiom.
type Config struct {
	// GasCeil overrides the inherited parent gas limit when non-zero.
	GasCeil uint64
}

// Pending is a snapshot of the block currently being assembled, read without
// blocking the assembly loop (SPEC_FULL.md §4.G supplement; see DESIGN.md's
// miner entry for the two other_examples/*miner-miner.go.go files this
// accessor is grounded on).
type Pending struct {
	Header *types.Header
	Txs    []*types.Transaction
}

// Miner is the Clique assembly scheduler of spec.md §4.G: stopped → running
// (idle | assembling) → stopped, with a reentrant assembling guard and
// CHAIN_UPDATED preemption.
type Miner struct {
	config Config
	engine *clique.Engine
	chain  Blockchain
	pool   *txpool.Pool
	vm     VM
	clock  Clock
	jitter func() float64

	runMu sync.Mutex
	stop  chan struct{}
	wg    sync.WaitGroup

	assembling atomic.Bool
	pending    atomic.Pointer[Pending]
}

// New constructs a Miner. clock and jitter default to the real wall clock
// and math/rand.Float64 respectively when nil, matching the teacher's
// pattern of accepting injectable collaborators with sane defaults.
func New(config Config, engine *clique.Engine, bc Blockchain, pool *txpool.Pool, vm VM, clock Clock, jitter func() float64) *Miner {
	if clock == nil {
		clock = realClock{}
	}
	if jitter == nil {
		jitter = rand.Float64
	}
	return &Miner{
		config: config,
		engine: engine,
		chain:  bc,
		pool:   pool,
		vm:     vm,
		clock:  clock,
		jitter: jitter,
	}
}

// Start subscribes to CHAIN_UPDATED and schedules the first assembly
// (spec.md §4.G "start()"). Calling Start while already running is a no-op.
func (m *Miner) Start() error {
	if m.chain.PostMerge() {
		return ErrPostMergeUnsupported
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.stop != nil {
		return nil
	}
	m.stop = make(chan struct{})
	sub := m.chain.Subscribe()

	m.wg.Add(1)
	go m.loop(m.stop, sub)
	return nil
}

// Stop cancels any pending timer and unsubscribes (spec.md §4.G "stop()").
// If an assembly is in flight, it is allowed to observe the next interrupt
// check and unwind (spec §5 "Cancellation").
func (m *Miner) Stop() {
	m.runMu.Lock()
	stop := m.stop
	m.stop = nil
	m.runMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	m.wg.Wait()
}

// Pending returns a snapshot of the block currently being assembled, or nil
// when idle.
func (m *Miner) Pending() *Pending { return m.pending.Load() }

func (m *Miner) loop(stop chan struct{}, sub *event.Subscription) {
	defer m.wg.Done()
	defer sub.Unsubscribe()

	for {
		delay := m.nextAssemblyDelay()
		timer := m.clock.After(delay)
		select {
		case <-stop:
			return
		case <-sub.C():
			// Chain advanced while idle; the next block's timing target has
			// shifted, so just reschedule.
			continue
		case <-timer:
			m.assembleBlock()
		}
	}
}

// nextAssemblyDelay implements spec.md §4.G "Assembly timing":
// max(0, latestBlock.timestamp + period - now), plus out-of-turn PoA jitter
// uniform over [0, activeSignerCount * 500ms).
func (m *Miner) nextAssemblyDelay() time.Duration {
	parent := m.chain.LatestBlock()
	period := time.Duration(m.engine.Period()) * time.Second
	target := time.Unix(int64(parent.Header.Time), 0).Add(period)

	delay := target.Sub(m.clock.Now())
	if delay < 0 {
		delay = 0
	}

	nextNumber := parent.Number() + 1
	signer := m.engine.Signer()
	if !m.engine.SignerInTurn(signer, nextNumber) {
		if n := len(m.engine.ActiveSigners()); n > 0 {
			delay += time.Duration(m.jitter() * float64(n) * float64(500*time.Millisecond))
		}
	}
	return delay
}

// assembleBlock implements spec.md §4.G's 12-step assembly procedure.
func (m *Miner) assembleBlock() {
	if !m.assembling.CompareAndSwap(false, true) { // step 1
		return
	}
	defer m.assembling.Store(false)
	defer m.pending.Store(nil)

	start := m.clock.Now()

	// Step 2: one-shot CHAIN_UPDATED listener, observed at each tx boundary.
	sub := m.chain.Subscribe()
	defer sub.Unsubscribe()
	interrupted := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sub.C():
			close(interrupted)
		case <-done:
		}
	}()

	// Step 3.
	parent := m.chain.LatestHeader()
	number := parent.Number.Uint64() + 1
	signer := m.engine.Signer()

	// Step 4: PoA recently-signed exclusion.
	if number > 1 {
		limit := len(m.engine.ActiveSigners())/2 + 1
		recent := m.recentSigners(parent, limit)
		if m.engine.CheckRecentlySigned(signer, recent) {
			log.Debug("Skipping assembly, signer recently signed", "signer", signer, "number", number)
			return
		}
	}

	// Step 5: fork a VM snapshot from the parent state root.
	snapshot := m.vm.Copy()

	// Step 6 happens inside Open via the Clique engine's Prepare.
	// Step 7: EIP-1559 rules.
	baseFee, gasLimit := m.baseFeeAndGasLimit(parent, number)

	data := HeaderData{
		Number:    number,
		GasLimit:  gasLimit,
		BaseFee:   baseFee,
		Timestamp: uint64(m.clock.Now().Unix()),
		Coinbase:  signer,
	}

	// Step 8.
	builder, err := Open(snapshot, parent, data, BuilderOptions{Clique: m.engine})
	if err != nil {
		log.Error("Failed to open block builder", "err", err)
		return
	}
	m.pending.Store(&Pending{Header: builder.Header(), Txs: nil})

	// Step 9.
	txs := m.pool.TxsByPriceAndNonce(snapshot, baseFee)

	// Step 10.
	for _, tx := range txs {
		select {
		case <-interrupted:
			assemblyInterruptedCounter.Inc(1)
			builder.Discard()
			return // step 12
		default:
		}

		if err := builder.AddTransaction(tx); err != nil {
			var execErr *TxExecutionError
			if errors.As(err, &execErr) && execErr.Kind == GasLimitExceeded {
				if builder.GasRemaining() < params.TxGas {
					break // block full
				}
				continue
			}
			log.Debug("Skipping transaction during assembly", "hash", tx.Hash(), "err", err)
			continue
		}
		m.pending.Store(&Pending{Header: builder.Header(), Txs: append([]*types.Transaction(nil), builder.Txs()...)})
	}

	select {
	case <-interrupted:
		assemblyInterruptedCounter.Inc(1)
		builder.Discard()
		return // step 12
	default:
	}

	// Step 11.
	block, result, err := builder.Build()
	if err != nil {
		log.Error("Failed to seal assembled block", "err", err)
		builder.Discard()
		return
	}
	if err := m.chain.PutBlock(block, block.Header.Difficulty); err != nil {
		log.Error("Failed to submit assembled block", "err", err)
		return
	}
	m.pool.RemoveNewBlockTxs(block)

	assemblyDurationTimer.ObserveSeconds(m.clock.Now().Sub(start).Seconds())
	blocksAssembledCounter.Inc(1)
	log.Info("Assembled block", "number", number, "txs", result.TxCount, "gasUsed", result.GasUsed, "hash", block.Hash())
}

// baseFeeAndGasLimit implements spec.md §4.G step 7. londonHardforkBlock
// activation is detected by comparing HardforkAt(number) against
// HardforkAt(parent.Number) rather than reading a raw config field, so this
// package only depends on the Chain facade spec.md §4.E names.
func (m *Miner) baseFeeAndGasLimit(parent *types.Header, number uint64) (*uint256.Int, uint64) {
	gasLimit := parent.GasLimit
	if m.config.GasCeil != 0 {
		gasLimit = m.config.GasCeil
	}

	londonAtNumber := m.chain.HardforkAt(number, nil) >= params.London
	londonAtParent := m.chain.HardforkAt(parent.Number.Uint64(), nil) >= params.London

	switch {
	case londonAtNumber && !londonAtParent:
		gasLimit *= params.DefaultElasticityMultiplier
		return uint256.NewInt(params.InitialBaseFee), gasLimit
	case londonAtNumber:
		return parent.CalcNextBaseFee(params.DefaultElasticityMultiplier, params.DefaultBaseFeeChangeDenominator), gasLimit
	default:
		return nil, gasLimit
	}
}

// recentSigners walks back from parent (inclusive) recovering up to limit
// signers, for CheckRecentlySigned's exclusion window (spec.md §4.G step 4).
func (m *Miner) recentSigners(parent *types.Header, limit int) []common.Address {
	if limit <= 0 {
		return nil
	}
	var recent []common.Address
	h := parent
	for {
		if signer, err := clique.Ecrecover(h); err == nil {
			recent = append([]common.Address{signer}, recent...)
		}
		if len(recent) >= limit || h.Number.Sign() == 0 {
			break
		}
		prev, err := m.chain.HeaderByNumber(h.Number.Uint64() - 1)
		if err != nil {
			break
		}
		h = prev
	}
	return recent
}
