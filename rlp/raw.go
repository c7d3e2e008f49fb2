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

package rlp

import "errors"

// Kind identifies the three leaf/interior shapes of spec §3's recursive byte
// tree. Byte is the single-byte shorthand for a one-byte string (values
// 0x00-0x7f encode as themselves, with no length prefix at all).
type Kind int8

const (
	Byte Kind = iota
	String
	List
)

func (k Kind) String() string {
	switch k {
	case Byte:
		return "Byte"
	case String:
		return "String"
	case List:
		return "List"
	default:
		return "Invalid"
	}
}

// RawValue represents an already RLP-encoded value, useful for deferring the
// decode of an inner element (e.g. the Transactions field of a NewBlock
// payload, whose items may be legacy field lists or typed opaque strings —
// spec §4.C).
type RawValue []byte

var (
	EmptyString = []byte{0x80}
	EmptyList   = []byte{0xc0}
)

var (
	ErrNegativeBigInt   = errors.New("rlp: cannot encode negative big.Int")
	EOL                 = errors.New("rlp: end of list")
	ErrExpectedString   = errors.New("rlp: expected String or Byte")
	ErrExpectedList     = errors.New("rlp: expected List")
	ErrCanonInt         = errors.New("rlp: non-canonical integer format")
	ErrCanonSize        = errors.New("rlp: non-canonical size information")
	ErrElemTooLarge     = errors.New("rlp: element is larger than containing list")
	ErrValueTooLarge    = errors.New("rlp: value size exceeds available input length")
	ErrMoreThanOneValue = errors.New("rlp: input contains more than one value")
	ErrNotAtEOL         = errors.New("rlp: list contains more elements than expected")
)

// Split returns the content of the first RLP value, plus the unconsumed
// bytes that followed it. It's a small convenience used by tests and by
// callers that want to inspect one frame's shape without a full Stream.
func Split(b []byte) (k Kind, content, rest []byte, err error) {
	s := NewStreamFromBytes(b)
	kind, size, hlen, err := s.readKind()
	if err != nil {
		return 0, nil, b, err
	}
	start := s.pos + hlen
	end := start + int(size)
	if end > len(b) {
		return 0, nil, b, ErrValueTooLarge
	}
	return kind, b[start:end], b[end:], nil
}
