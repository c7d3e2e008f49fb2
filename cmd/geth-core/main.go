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

// Command geth-core wires the chain store, Clique engine, transaction pool
// and miner scheduler together into a single-node block-producing demo. It
// never opens a devp2p listener: RLPxTransport is an external collaborator
// this module only defines an interface for (spec.md §1), so there is
// nothing here to accept inbound peers with.
package main

import (
	"crypto/rand"
	"flag"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/consensus/clique"
	"github.com/lumenchain/gethcore/core/chain"
	"github.com/lumenchain/gethcore/core/txpool"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/crypto"
	"github.com/lumenchain/gethcore/log"
	"github.com/lumenchain/gethcore/miner"
	"github.com/lumenchain/gethcore/params"
)

var (
	datadir   = flag.String("datadir", "geth-core-data", "directory for the chain database")
	networkID = flag.Uint64("networkid", 1337, "network identifier advertised in STATUS")
	period    = flag.Uint64("period", 5, "Clique block period in seconds")
)

func main() {
	flag.Parse()

	key, err := localSignerKey()
	if err != nil {
		log.Crit("Failed to generate local signer key", "err", err)
	}
	addr, err := crypto.PubkeyToAddress(key.PubKey().SerializeUncompressed())
	if err != nil {
		log.Crit("Failed to derive signer address", "err", err)
	}
	log.Info("Local signer", "address", addr.Hex())

	engine := clique.New(*period, 30000, []common.Address{addr})
	engine.Authorize(addr, clique.SignFn(key))

	genesis := buildGenesis(engine, addr)
	config := &params.ChainConfig{
		ChainID:     new(big.Int).SetUint64(*networkID),
		LondonBlock: big.NewInt(0),
		Clique:      &params.CliqueConfig{Period: *period, Epoch: 30000},
	}

	store, err := chain.Open(*datadir, config, *networkID, genesis)
	if err != nil {
		log.Crit("Failed to open chain store", "err", err)
	}
	defer store.Close()

	pool := txpool.New()

	vm := newMemVM()
	vm.fund(addr, new(big.Int).Mul(big.NewInt(1_000_000_000_000_000_000), big.NewInt(1_000_000)))

	m := miner.New(miner.Config{GasCeil: genesis.GasLimit()}, engine, store, pool, vm, nil, nil)
	if err := m.Start(); err != nil {
		log.Crit("Failed to start miner", "err", err)
	}
	defer m.Stop()

	log.Info("geth-core running", "datadir", *datadir, "networkID", *networkID, "period", *period)
	reportAssembledBlocks(store)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutting down")
}

// localSignerKey derives a fresh secp256k1 key from crypto/rand, the same
// construction the package's own tests use with a deterministic seed
// (consensus/clique/clique_test.go's testKey) but backed by real randomness
// for a live-running node.
func localSignerKey() (*secp256k1.PrivateKey, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	return secp256k1.PrivKeyFromBytes(seed[:]), nil
}

// buildGenesis assembles block 0: an epoch-checkpoint header whose extra-data
// already embeds the single active signer, sealed by that same signer so
// core/types.Header.CliqueSigners can recover the active set the way a real
// node would reconstruct it from an on-disk genesis file. Since this demo's
// chain config activates London at block 0, genesis carries the EIP-1559
// initial base fee directly rather than via Header.CalcNextBaseFee (there is
// no pre-London parent to compute the transition from).
func buildGenesis(engine *clique.Engine, addr common.Address) *types.Block {
	header := &types.Header{
		Number:   big.NewInt(0),
		GasLimit: 8_000_000,
		Time:     uint64(time.Now().Unix()),
		Coinbase: addr,
		BaseFee:  uint256.NewInt(params.InitialBaseFee),
	}
	if err := engine.Prepare(header, 0); err != nil {
		log.Crit("Failed to prepare genesis header", "err", err)
	}
	if err := engine.Seal(header); err != nil {
		log.Crit("Failed to seal genesis header", "err", err)
	}
	return types.NewBlock(header, nil)
}

// reportAssembledBlocks logs a line each time the chain head advances, by
// subscribing to the store's CHAIN_UPDATED feed and reading its latest
// block — a stand-in for the richer
// JSON-RPC/admin surface this module doesn't implement (spec.md §1 Non-goals).
func reportAssembledBlocks(store *chain.Store) {
	sub := store.Subscribe()
	go func() {
		for range sub.C() {
			head := store.LatestBlock()
			log.Info("New head", "number", head.Number(), "hash", head.Hash().Hex(), "txs", len(head.Transactions()))
		}
	}()
}
