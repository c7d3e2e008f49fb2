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
	"errors"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/crypto"
	"github.com/lumenchain/gethcore/rlp"
)

// Transaction type identifiers, per EIP-2718's typed-envelope scheme
// (spec.md §4.C: "typed transactions as either raw field lists ... or
// opaque byte strings").
const (
	LegacyTxType = 0x00
	// AccessListTxType (EIP-2930) is declared for reference only: there is no
	// access-list transaction shape here, and DecodeRLP rejects a type-0x01
	// envelope with ErrInvalidTxType.
	AccessListTxType = 0x01
	DynamicFeeTxType  = 0x02
)

var (
	ErrInvalidTxType = errors.New("types: unrecognized transaction type")
	errEmptyTypedTx  = errors.New("types: typed transaction envelope is empty")
)

// LegacyTx is the pre-EIP-2718 transaction shape: a flat RLP field list with
// a single gas price.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

// DynamicFeeTx is the EIP-1559 (type-2) transaction shape, carrying separate
// tip and fee caps so effective gas price can be computed against a block's
// base fee (spec.md §4.D eligibility ordering).
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         *common.Address
	Value      *big.Int
	Data       []byte
	AccessList []AccessTuple
	V, R, S    *big.Int
}

// AccessTuple is one EIP-2930 access-list entry.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// txData is the common surface both tx shapes present to Transaction.
type txData interface {
	txType() byte
	nonce() uint64
	gas() uint64
	to() *common.Address
	value() *big.Int
	data() []byte
	gasFeeCap() *big.Int
	gasTipCap() *big.Int
	rawSignatureValues() (v, r, s *big.Int)
}

func (tx *LegacyTx) txType() byte                               { return LegacyTxType }
func (tx *LegacyTx) nonce() uint64                               { return tx.Nonce }
func (tx *LegacyTx) gas() uint64                                 { return tx.Gas }
func (tx *LegacyTx) to() *common.Address                         { return tx.To }
func (tx *LegacyTx) value() *big.Int                             { return tx.Value }
func (tx *LegacyTx) data() []byte                                { return tx.Data }
func (tx *LegacyTx) gasFeeCap() *big.Int                         { return tx.GasPrice }
func (tx *LegacyTx) gasTipCap() *big.Int                         { return tx.GasPrice }
func (tx *LegacyTx) rawSignatureValues() (*big.Int, *big.Int, *big.Int) { return tx.V, tx.R, tx.S }

func (tx *DynamicFeeTx) txType() byte                       { return DynamicFeeTxType }
func (tx *DynamicFeeTx) nonce() uint64                      { return tx.Nonce }
func (tx *DynamicFeeTx) gas() uint64                        { return tx.Gas }
func (tx *DynamicFeeTx) to() *common.Address                { return tx.To }
func (tx *DynamicFeeTx) value() *big.Int                    { return tx.Value }
func (tx *DynamicFeeTx) data() []byte                       { return tx.Data }
func (tx *DynamicFeeTx) gasFeeCap() *big.Int                { return tx.GasFeeCap }
func (tx *DynamicFeeTx) gasTipCap() *big.Int                { return tx.GasTipCap }
func (tx *DynamicFeeTx) rawSignatureValues() (*big.Int, *big.Int, *big.Int) {
	return tx.V, tx.R, tx.S
}

// Transaction wraps a concrete txData shape and caches the values derived
// from it (hash, sender) so repeated pool operations don't recompute them.
type Transaction struct {
	inner txData

	hash atomic.Pointer[common.Hash]
	from atomic.Pointer[common.Address]
}

func NewTx(inner txData) *Transaction {
	return &Transaction{inner: inner}
}

// Transactions is a slice of transactions, the unit the pool and wire
// protocol hand around together (spec.md §4.D, §4.C).
type Transactions []*Transaction

func (tx *Transaction) Type() byte             { return tx.inner.txType() }
func (tx *Transaction) Nonce() uint64          { return tx.inner.nonce() }
func (tx *Transaction) Gas() uint64            { return tx.inner.gas() }
func (tx *Transaction) To() *common.Address    { return tx.inner.to() }
func (tx *Transaction) Value() *big.Int        { return tx.inner.value() }
func (tx *Transaction) Data() []byte           { return tx.inner.data() }
func (tx *Transaction) GasFeeCap() *big.Int    { return tx.inner.gasFeeCap() }
func (tx *Transaction) GasTipCap() *big.Int    { return tx.inner.gasTipCap() }

// EffectiveGasTip returns min(gasFeeCap-baseFee, gasTipCap), the ordering
// key spec.md §4.D's eligibility heap uses. Returns an error if gasFeeCap is
// below baseFee (the tx must be excluded, not merely deprioritized).
func (tx *Transaction) EffectiveGasTip(baseFee *uint256.Int) (*uint256.Int, error) {
	feeCap, overflow := uint256.FromBig(tx.GasFeeCap())
	if overflow {
		return nil, errors.New("types: gasFeeCap overflows 256 bits")
	}
	if baseFee == nil {
		tip, overflow := uint256.FromBig(tx.GasTipCap())
		if overflow {
			return nil, errors.New("types: gasTipCap overflows 256 bits")
		}
		return tip, nil
	}
	if feeCap.Lt(baseFee) {
		return nil, ErrFeeCapBelowBaseFee
	}
	tip, overflow := uint256.FromBig(tx.GasTipCap())
	if overflow {
		return nil, errors.New("types: gasTipCap overflows 256 bits")
	}
	available := new(uint256.Int).Sub(feeCap, baseFee)
	if tip.Lt(available) {
		return tip, nil
	}
	return available, nil
}

// ErrFeeCapBelowBaseFee is spec.md §4.F's BaseFeeTooLow condition, raised
// from the pool's eligibility pass rather than the builder when the
// exclusion happens before a transaction is ever handed to addTransaction.
var ErrFeeCapBelowBaseFee = errors.New("types: max fee per gas less than block base fee")

// Hash returns the Keccak-256 digest used as this transaction's wire
// identity (NewPooledTransactionHashes, known-by-peer sets).
func (tx *Transaction) Hash() common.Hash {
	if h := tx.hash.Load(); h != nil {
		return *h
	}
	var h common.Hash
	switch inner := tx.inner.(type) {
	case *LegacyTx:
		enc, _ := rlp.EncodeToBytes(inner)
		h = crypto.Keccak256Hash(enc)
	default:
		enc, _ := rlp.EncodeToBytes(inner)
		h = crypto.Keccak256Hash([]byte{tx.Type()}, enc)
	}
	tx.hash.Store(&h)
	return h
}

// legacySigningFields and dynamicFeeSigningFields mirror LegacyTx/DynamicFeeTx
// with the V, R, S fields dropped, so the digest that gets signed doesn't
// depend on the signature it authorizes (Hash(), by contrast, commits to the
// final V, R, S and so cannot double as the signing digest).
type legacySigningFields struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address
	Value    *big.Int
	Data     []byte
}

type dynamicFeeSigningFields struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         *common.Address
	Value      *big.Int
	Data       []byte
	AccessList []AccessTuple
}

// SigningHash returns the digest that must be ECDSA-signed to authorize tx.
// Non-goal: chain-id replay protection (EIP-155) is delegated to the
// Blockchain/VM collaborator's validation path — the pool only needs a
// stable sender for nonce-ordering.
func (tx *Transaction) SigningHash() (common.Hash, error) {
	switch inner := tx.inner.(type) {
	case *LegacyTx:
		enc, err := rlp.EncodeToBytes(&legacySigningFields{
			Nonce: inner.Nonce, GasPrice: inner.GasPrice, Gas: inner.Gas,
			To: inner.To, Value: inner.Value, Data: inner.Data,
		})
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash(enc), nil
	case *DynamicFeeTx:
		enc, err := rlp.EncodeToBytes(&dynamicFeeSigningFields{
			ChainID: inner.ChainID, Nonce: inner.Nonce, GasTipCap: inner.GasTipCap,
			GasFeeCap: inner.GasFeeCap, Gas: inner.Gas, To: inner.To, Value: inner.Value,
			Data: inner.Data, AccessList: inner.AccessList,
		})
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash([]byte{tx.Type()}, enc), nil
	default:
		return common.Hash{}, ErrInvalidTxType
	}
}

// Sender recovers the sending address from the transaction's ECDSA
// signature, caching the result.
func (tx *Transaction) Sender() (common.Address, error) {
	if a := tx.from.Load(); a != nil {
		return *a, nil
	}
	v, r, s := tx.inner.rawSignatureValues()
	if v == nil || r == nil || s == nil {
		return common.Address{}, errors.New("types: transaction is unsigned")
	}
	sigHash, err := tx.SigningHash()
	if err != nil {
		return common.Address{}, err
	}
	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	recID := new(big.Int).Mod(v, big.NewInt(2)).Uint64()
	sig[64] = byte(recID)

	pub, err := crypto.Ecrecover(sigHash.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := crypto.PubkeyToAddress(pub)
	if err != nil {
		return common.Address{}, err
	}
	tx.from.Store(&addr)
	return addr, nil
}

// SignTx signs tx's signing hash with prv and returns a new Transaction
// carrying the resulting signature, for use by local submission paths and
// tests. The recovery id is folded into V directly (no EIP-155 offset),
// consistent with Sender()'s v-mod-2 recovery.
func SignTx(tx *Transaction, prv *secp256k1.PrivateKey) (*Transaction, error) {
	sigHash, err := tx.SigningHash()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(sigHash.Bytes(), prv)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	v := new(big.Int).SetUint64(uint64(sig[64]))

	switch inner := tx.inner.(type) {
	case *LegacyTx:
		cp := *inner
		cp.V, cp.R, cp.S = v, r, s
		return NewTx(&cp), nil
	case *DynamicFeeTx:
		cp := *inner
		cp.V, cp.R, cp.S = v, r, s
		return NewTx(&cp), nil
	default:
		return nil, ErrInvalidTxType
	}
}

// EncodeRLP implements rlp.Encoder with EIP-2718 typed-envelope dispatch:
// legacy transactions encode as a bare field list, everything else as an
// opaque byte string `type || rlp(fields)` (spec.md §4.C).
func (tx *Transaction) EncodeRLP(w io.Writer) error {
	if tx.Type() == LegacyTxType {
		return rlp.Encode(w, tx.inner.(*LegacyTx))
	}
	enc, err := rlp.EncodeToBytes(tx.inner)
	if err != nil {
		return err
	}
	payload := append([]byte{tx.Type()}, enc...)
	buf := rlp.NewEncoderBuffer(w)
	buf.WriteBytes(payload)
	return buf.Flush()
}

// DecodeRLP implements rlp.Decoder with the matching dispatch.
func (tx *Transaction) DecodeRLP(s *rlp.Stream) error {
	kind, _, err := s.Kind()
	if err != nil {
		return err
	}
	if kind == rlp.List {
		var inner LegacyTx
		if err := s.Decode(&inner); err != nil {
			return err
		}
		tx.inner = &inner
		return nil
	}
	raw, err := s.Bytes()
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return errEmptyTypedTx
	}
	switch raw[0] {
	case DynamicFeeTxType:
		var inner DynamicFeeTx
		if err := rlp.DecodeBytes(raw[1:], &inner); err != nil {
			return err
		}
		tx.inner = &inner
		return nil
	default:
		return ErrInvalidTxType
	}
}
