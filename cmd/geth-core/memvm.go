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

package main

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/lumenchain/gethcore/crypto"
	"github.com/lumenchain/gethcore/miner"
)

// memVM is a minimal nonce/balance ledger standing in for the real EVM and
// state trie this repo never implements (spec.md §1 Non-goals, §6 "VM"
// collaborator). It exists only so the demo binary has something to hand
// miner.Open: transactions move value and pay gas at their fee cap, nothing
// executes bytecode, and Copy operates on the live ledger rather than a
// forked private one — acceptable for a demo with no persistent state trie
// to snapshot, not a model for a production VM collaborator.
type memVM struct {
	mu       sync.Mutex
	accounts map[common.Address]*memAccount
	applied  int
}

type memAccount struct {
	nonce   uint64
	balance *big.Int
}

func newMemVM() *memVM {
	return &memVM{accounts: make(map[common.Address]*memAccount)}
}

// fund credits addr with balance, used once at startup to seed the local
// signer so it can pay for its own transactions in a demo run.
func (v *memVM) fund(addr common.Address, balance *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.accounts[addr] = &memAccount{balance: new(big.Int).Set(balance)}
}

func (v *memVM) Copy() miner.VMSnapshot { return v }

func (v *memVM) account(addr common.Address) *memAccount {
	acct, ok := v.accounts[addr]
	if !ok {
		acct = &memAccount{balance: new(big.Int)}
		v.accounts[addr] = acct
	}
	return acct
}

func (v *memVM) ApplyTransaction(_ *types.Header, tx *types.Transaction) (uint64, error) {
	sender, err := tx.Sender()
	if err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	acct := v.account(sender)
	if tx.Nonce() != acct.nonce {
		return 0, fmt.Errorf("account nonce is %d: %w", acct.nonce, miner.ErrNonceMismatch)
	}

	cost := new(big.Int).Mul(big.NewInt(int64(tx.Gas())), tx.GasFeeCap())
	cost.Add(cost, tx.Value())
	if acct.balance.Cmp(cost) < 0 {
		return 0, fmt.Errorf("balance %s below required %s: %w", acct.balance, cost, miner.ErrInsufficientBalance)
	}

	acct.balance.Sub(acct.balance, cost)
	if to := tx.To(); to != nil {
		v.account(*to).balance.Add(v.account(*to).balance, tx.Value())
	}
	acct.nonce++
	v.applied++
	return tx.Gas(), nil
}

func (v *memVM) Nonce(addr common.Address) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.account(addr).nonce
}

// StateRoot is a cheap stand-in derived from how many transactions this
// ledger has ever applied — it has no trie to root, so it only needs to
// change whenever the ledger does.
func (v *memVM) StateRoot() common.Hash {
	v.mu.Lock()
	defer v.mu.Unlock()
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("memvm-root-%d", v.applied)))
}
