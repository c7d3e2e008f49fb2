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

// Package rlp implements the Ethereum RLP (Recursive Length Prefix) encoding.
//
// The canonical wire datum is a tree whose leaves are byte strings and whose
// interior nodes are ordered sequences of trees (spec §3, "Recursive byte
// tree"). Integers are encoded big-endian and minimally: no leading zero
// bytes, and zero itself is the empty string.
//
// Encoding rules:
//
//	0x00...0x7f            a single byte, its own encoding
//	0x80+len, data          a string 0-55 bytes long
//	0xb7+lenOfLen, len, data a string longer than 55 bytes
//	0xc0+len, items         a list whose payload is 0-55 bytes
//	0xf7+lenOfLen, len, items a list whose payload is longer than 55 bytes
//
// Struct encoding walks exported fields in declaration order and emits them
// as a list; a field tagged `rlp:"-"` is skipped, and `rlp:"optional"` may be
// used on trailing fields (and their successors) to omit them when they
// still carry their zero value, matching upstream go-ethereum's rlp package.
package rlp
