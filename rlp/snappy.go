// Copyright 2019 The go-ethereum Authors
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

import "github.com/golang/snappy"

// EncodeToSnappy returns the snappy-compressed RLP encoding of val. Per
// devp2p's wire format, every eth/66+ message frame is compressed this way
// unconditionally once the negotiated protocolVersion is >= 5 (spec §9, open
// question "Is snappy compression conditional on STATUS?" — decided no:
// go-ethereum compresses the STATUS message itself too, so there is no
// plaintext fallback to negotiate).
func EncodeToSnappy(val interface{}) ([]byte, error) {
	raw, err := EncodeToBytes(val)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

// DecodeSnappy decodes a snappy-compressed RLP frame into val. maxSize bounds
// the decompressed length to guard against decompression-bomb frames from a
// misbehaving or hostile peer.
func DecodeSnappy(b []byte, val interface{}, maxSize uint64) error {
	size, err := snappy.DecodedLen(b)
	if err != nil {
		return err
	}
	if maxSize != 0 && uint64(size) > maxSize {
		return ErrValueTooLarge
	}
	raw, err := snappy.Decode(nil, b)
	if err != nil {
		return err
	}
	return DecodeBytes(raw, val)
}
