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

package types

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/stretchr/testify/require"
)

func extraWithSigners(signers ...common.Address) []byte {
	extra := make([]byte, CliqueExtraVanity)
	for _, s := range signers {
		extra = append(extra, s[:]...)
	}
	extra = append(extra, make([]byte, CliqueExtraSeal)...)
	return extra
}

func baseHeader() *Header {
	return &Header{
		ParentHash: common.Hash{1},
		Difficulty: big.NewInt(2),
		Number:     big.NewInt(10),
		GasLimit:   8_000_000,
		Time:       100,
		Extra:      extraWithSigners(common.Address{0xaa}, common.Address{0xbb}),
	}
}

func TestHeader_CliqueSigners(t *testing.T) {
	h := baseHeader()
	signers, err := h.CliqueSigners()
	require.NoError(t, err)
	require.Equal(t, []common.Address{{0xaa}, {0xbb}}, signers)
}

func TestHeader_CliqueSigners_EmptySegment(t *testing.T) {
	h := baseHeader()
	h.Extra = extraWithSigners()
	signers, err := h.CliqueSigners()
	require.NoError(t, err)
	require.Nil(t, signers)
}

func TestHeader_SealHash_StripsSeal(t *testing.T) {
	h := baseHeader()
	sealHash, err := h.SealHash()
	require.NoError(t, err)

	h2 := baseHeader()
	copy(h2.Extra[len(h2.Extra)-CliqueExtraSeal:], []byte{1, 2, 3})
	sealHash2, err := h2.SealHash()
	require.NoError(t, err)

	require.Equal(t, sealHash, sealHash2, "seal bytes must not affect SealHash")
}

func TestHeader_Hash_ChangesWithSeal(t *testing.T) {
	h := baseHeader()
	hash1 := h.Hash()

	h.Extra[len(h.Extra)-1] = 0xff
	hash2 := h.Hash()
	require.NotEqual(t, hash1, hash2, "full Hash must cover the seal bytes, unlike SealHash")
}

func TestHeader_BaseFee_OptionalOmission(t *testing.T) {
	h := baseHeader()
	h.BaseFee = nil
	hashPreLondon := h.Hash()

	h2 := baseHeader()
	h2.BaseFee = uint256.NewInt(0)
	hashZeroBaseFee := h2.Hash()

	require.NotEqual(t, hashPreLondon, hashZeroBaseFee, "omitted vs explicit-zero BaseFee must encode differently")
}
