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

// Package crypto provides the hashing and secp256k1 signing primitives
// Clique signer recovery needs (consensus/clique), grounded on the
// decred/dcrd secp256k1 implementation the teacher's go.mod already carries.
package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/lumenchain/gethcore/common"
	"golang.org/x/crypto/sha3"
)

// SignatureLength is the byte length of a recoverable ECDSA signature:
// 32-byte R, 32-byte S, 1-byte recovery id.
const SignatureLength = 64 + 1

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash returns the Keccak-256 digest as a common.Hash.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}

// Sign produces a recoverable signature (R || S || V) of a 32-byte digest
// using a secp256k1 private key, the form Clique blocks carry in their
// extra-data seal (core/types.Header.SealHash/CliqueExtraSeal).
func Sign(digestHash []byte, prv *secp256k1.PrivateKey) ([]byte, error) {
	if len(digestHash) != 32 {
		return nil, fmt.Errorf("crypto: hash must be 32 bytes, got %d", len(digestHash))
	}
	sig := ecdsa.SignCompact(prv, digestHash, false)
	// SignCompact returns (V || R || S); Clique's on-wire convention is
	// (R || S || V), the byte order `consensus/clique`'s seal/verify pair
	// expects (see DESIGN.md's crypto entry for this package's grounding).
	out := make([]byte, SignatureLength)
	copy(out[:64], sig[1:])
	out[64] = sig[0] - 27
	return out, nil
}

// Ecrecover recovers the uncompressed public key bytes (65 bytes, 0x04
// prefix) that produced sig over digestHash.
func Ecrecover(digestHash, sig []byte) ([]byte, error) {
	if len(sig) != SignatureLength {
		return nil, errors.New("crypto: invalid signature length")
	}
	compact := make([]byte, SignatureLength)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, digestHash)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// PubkeyToAddress derives the 20-byte Ethereum address from an uncompressed
// secp256k1 public key (Keccak-256 of the 64 coordinate bytes, low 20 bytes).
func PubkeyToAddress(pubkey []byte) (common.Address, error) {
	if len(pubkey) != 65 || pubkey[0] != 4 {
		return common.Address{}, errors.New("crypto: invalid public key")
	}
	digest := Keccak256(pubkey[1:])
	var addr common.Address
	copy(addr[:], digest[12:])
	return addr, nil
}
