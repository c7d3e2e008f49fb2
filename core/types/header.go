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

// Package types implements the lightweight block/transaction/receipt shapes
// that the wire protocol (eth/protocols/eth), the transaction pool, and the
// miner exchange. It is intentionally much thinner than upstream
// core/types: no EVM logs bloom derivation, no MPT root computation — those
// belong to the external VM/Blockchain collaborators (spec.md §6).
package types

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/crypto"
	"github.com/lumenchain/gethcore/rlp"
)

var (
	errExtraTooShort           = errors.New("types: header extra-data shorter than vanity+seal")
	errInvalidSignerListLength = errors.New("types: clique signer segment not a multiple of address length")
)

// CliqueExtraVanity is the fixed number of extra-data bytes reserved before
// the Clique signer list, usually containing the signer's custom message.
const CliqueExtraVanity = 32

// CliqueExtraSeal is the fixed number of extra-data bytes reserved for the
// signer's ECDSA signature, recovered to confirm block authorship.
const CliqueExtraSeal = 65

// Header is a block header, carrying the fields spec.md §3's block-builder
// workspace needs plus the Clique extra-data signer/seal encoding.
type Header struct {
	ParentHash  common.Hash    `json:"parentHash"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"`
	TxHash      common.Hash    `json:"transactionsRoot"`
	ReceiptHash common.Hash    `json:"receiptsRoot"`
	Difficulty  *big.Int       `json:"difficulty"`
	Number      *big.Int       `json:"number"`
	GasLimit    uint64         `json:"gasLimit"`
	GasUsed     uint64         `json:"gasUsed"`
	Time        uint64         `json:"timestamp"`
	Extra       []byte         `json:"extraData"`
	MixDigest   common.Hash    `json:"mixHash"`
	Nonce       [8]byte        `json:"nonce"`

	// BaseFee is nil until EIP-1559 activates (spec.md §4.G step 7); once
	// active it is always present, even if zero.
	BaseFee *uint256.Int `json:"baseFeePerGas" rlp:"optional"`
}

// CalcNextBaseFee implements the EIP-1559 base fee update rule (spec.md §4.G
// step 7 "parent.calcNextBaseFee()", §8 "London activation"): h is the
// parent header, already carrying its own BaseFee and final GasUsed.
func (h *Header) CalcNextBaseFee(elasticityMultiplier, baseFeeChangeDenominator uint64) *uint256.Int {
	parentGasTarget := h.GasLimit / elasticityMultiplier
	if parentGasTarget == 0 {
		return new(uint256.Int).Set(h.BaseFee)
	}
	if h.GasUsed == parentGasTarget {
		return new(uint256.Int).Set(h.BaseFee)
	}

	denom := new(uint256.Int).SetUint64(baseFeeChangeDenominator)
	target := new(uint256.Int).SetUint64(parentGasTarget)

	if h.GasUsed > parentGasTarget {
		delta := new(uint256.Int).SetUint64(h.GasUsed - parentGasTarget)
		change := new(uint256.Int).Mul(h.BaseFee, delta)
		change.Div(change, target)
		change.Div(change, denom)
		if change.IsZero() {
			change.SetOne()
		}
		return new(uint256.Int).Add(h.BaseFee, change)
	}

	delta := new(uint256.Int).SetUint64(parentGasTarget - h.GasUsed)
	change := new(uint256.Int).Mul(h.BaseFee, delta)
	change.Div(change, target)
	change.Div(change, denom)
	if change.Cmp(h.BaseFee) >= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(h.BaseFee, change)
}

// Hash returns the Keccak256 digest of the full header RLP, the block's
// canonical identity. Clique signing uses SealHash instead, which strips the
// seal bytes the signature cannot cover itself.
func (h *Header) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(enc)
}

// CliqueSigners extracts the signer addresses packed into Extra between the
// fixed vanity prefix and seal suffix, 20 bytes each. Returns nil (not an
// error) outside of checkpoint blocks, where the segment is empty.
func (h *Header) CliqueSigners() ([]common.Address, error) {
	if len(h.Extra) < CliqueExtraVanity+CliqueExtraSeal {
		return nil, errExtraTooShort
	}
	signersBytes := h.Extra[CliqueExtraVanity : len(h.Extra)-CliqueExtraSeal]
	if len(signersBytes)%common.AddressLength != 0 {
		return nil, errInvalidSignerListLength
	}
	n := len(signersBytes) / common.AddressLength
	if n == 0 {
		return nil, nil
	}
	out := make([]common.Address, n)
	for i := 0; i < n; i++ {
		out[i] = common.BytesToAddress(signersBytes[i*common.AddressLength : (i+1)*common.AddressLength])
	}
	return out, nil
}

// SealHash returns the header hash used for Clique ECDSA signing: the header
// RLP with the seal portion of Extra stripped (the signature cannot cover
// itself).
func (h *Header) SealHash() (common.Hash, error) {
	if len(h.Extra) < CliqueExtraSeal {
		return common.Hash{}, errExtraTooShort
	}
	stripped := *h
	stripped.Extra = h.Extra[:len(h.Extra)-CliqueExtraSeal]
	enc, err := rlp.EncodeToBytes(&stripped)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}
