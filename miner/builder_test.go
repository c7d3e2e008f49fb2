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
	"testing"

	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/consensus/clique"
	"github.com/lumenchain/gethcore/core/types"
	"github.com/stretchr/testify/require"
)

func testParentHeader() *types.Header {
	return &types.Header{
		ParentHash: common.Hash{0xaa},
		Number:     big.NewInt(0),
		GasLimit:   8_000_000,
		Time:       1000,
	}
}

func TestOpen_PreparesCliqueDifficultyAndExtra(t *testing.T) {
	key := testKey(t, "1")
	addr := addrOf(t, key)
	engine := clique.New(15, 30000, []common.Address{addr})
	engine.Authorize(addr, clique.SignFn(key))

	snapshot := newFakeSnapshot()
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 8_000_000, Timestamp: 1015, Coinbase: addr}, BuilderOptions{Clique: engine})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(clique.DiffInTurn), builder.Header().Difficulty)
	require.Equal(t, parent.Hash(), builder.Header().ParentHash)
	require.Equal(t, uint64(8_000_000), builder.GasRemaining())
}

func TestBuilder_AddTransaction_GasLimitExceeded(t *testing.T) {
	snapshot := newFakeSnapshot()
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 21000, Timestamp: 1015}, BuilderOptions{})
	require.NoError(t, err)

	key := testKey(t, "sender")
	tx := types.NewTx(&types.LegacyTx{Nonce: 0, GasPrice: big.NewInt(1), Gas: 30000, Value: big.NewInt(0)})
	signed, err := types.SignTx(tx, key)
	require.NoError(t, err)

	err = builder.AddTransaction(signed)
	require.Error(t, err)
	var execErr *TxExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, GasLimitExceeded, execErr.Kind)
	require.Equal(t, uint64(21000), builder.GasRemaining(), "rejected tx must not consume gas")
}

func TestBuilder_AddTransaction_BaseFeeTooLow(t *testing.T) {
	snapshot := newFakeSnapshot()
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{
		Number: 1, GasLimit: 8_000_000, Timestamp: 1015,
		BaseFee: uint256.NewInt(100),
	}, BuilderOptions{})
	require.NoError(t, err)

	key := testKey(t, "sender")
	tx := signedLegacyTx(t, key, 0, 10) // gasPrice 10 < baseFee 100

	err = builder.AddTransaction(tx)
	require.Error(t, err)
	var execErr *TxExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, BaseFeeTooLow, execErr.Kind)
}

func TestBuilder_AddTransaction_ClassifiesNonceMismatch(t *testing.T) {
	snapshot := newFakeSnapshot()
	snapshot.applyErr = ErrNonceMismatch
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 8_000_000, Timestamp: 1015}, BuilderOptions{})
	require.NoError(t, err)

	tx := signedLegacyTx(t, testKey(t, "sender"), 5, 1)
	err = builder.AddTransaction(tx)
	var execErr *TxExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, NonceMismatch, execErr.Kind)
}

func TestBuilder_AddTransaction_ClassifiesInsufficientBalance(t *testing.T) {
	snapshot := newFakeSnapshot()
	snapshot.applyErr = ErrInsufficientBalance
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 8_000_000, Timestamp: 1015}, BuilderOptions{})
	require.NoError(t, err)

	tx := signedLegacyTx(t, testKey(t, "sender"), 0, 1)
	err = builder.AddTransaction(tx)
	var execErr *TxExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, InsufficientBalance, execErr.Kind)
}

func TestBuilder_AddTransaction_ClassifiesRevertAsDefault(t *testing.T) {
	snapshot := newFakeSnapshot()
	snapshot.applyErr = errors.New("execution reverted: out of gas")
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 8_000_000, Timestamp: 1015}, BuilderOptions{})
	require.NoError(t, err)

	tx := signedLegacyTx(t, testKey(t, "sender"), 0, 1)
	err = builder.AddTransaction(tx)
	var execErr *TxExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, Revert, execErr.Kind)
}

func TestBuilder_AddTransaction_AcceptsAndTracksGasUsed(t *testing.T) {
	snapshot := newFakeSnapshot()
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 8_000_000, Timestamp: 1015}, BuilderOptions{})
	require.NoError(t, err)

	tx := signedLegacyTx(t, testKey(t, "sender"), 0, 1)
	require.NoError(t, builder.AddTransaction(tx))
	require.Equal(t, 1, builder.TxCount())
	require.Equal(t, uint64(8_000_000-21000), builder.GasRemaining())
	require.Equal(t, uint64(21000), builder.Header().GasUsed)
}

func TestBuilder_Build_SealsUnderClique(t *testing.T) {
	key := testKey(t, "1")
	addr := addrOf(t, key)
	engine := clique.New(15, 30000, []common.Address{addr})
	engine.Authorize(addr, clique.SignFn(key))

	snapshot := newFakeSnapshot()
	snapshot.root = common.Hash{0x42}
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 8_000_000, Timestamp: 1015, Coinbase: addr}, BuilderOptions{Clique: engine})
	require.NoError(t, err)

	tx := signedLegacyTx(t, testKey(t, "sender"), 0, 1)
	require.NoError(t, builder.AddTransaction(tx))

	block, result, err := builder.Build()
	require.NoError(t, err)
	require.Equal(t, 1, result.TxCount)
	require.Equal(t, uint64(21000), result.GasUsed)
	require.Equal(t, common.Hash{0x42}, block.Header.Root)

	signer, err := clique.Ecrecover(block.Header)
	require.NoError(t, err)
	require.Equal(t, addr, signer)
}

func TestBuilder_Discard_RejectsFurtherUse(t *testing.T) {
	snapshot := newFakeSnapshot()
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 8_000_000, Timestamp: 1015}, BuilderOptions{})
	require.NoError(t, err)

	builder.Discard()

	tx := signedLegacyTx(t, testKey(t, "sender"), 0, 1)
	require.ErrorIs(t, builder.AddTransaction(tx), errBuilderClosed)

	_, _, err = builder.Build()
	require.ErrorIs(t, err, errBuilderClosed)
}

func TestBuilder_Build_RejectsSecondCall(t *testing.T) {
	snapshot := newFakeSnapshot()
	parent := testParentHeader()
	builder, err := Open(snapshot, parent, HeaderData{Number: 1, GasLimit: 8_000_000, Timestamp: 1015}, BuilderOptions{})
	require.NoError(t, err)

	_, _, err = builder.Build()
	require.NoError(t, err)

	_, _, err = builder.Build()
	require.ErrorIs(t, err, errBuilderClosed)
}
