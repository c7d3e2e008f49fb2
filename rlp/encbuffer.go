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

import "io"

// listhead records where a nested list's header will be inserted once its
// final size is known, plus that size. Offsets are recorded against str as
// it stood at List(); size starts out holding lhsize-at-open so ListEnd can
// recover "bytes written since open" in one subtraction.
type listhead struct {
	offset int
	size   int
}

// EncoderBuffer accumulates a value's leaf bytes in str and backpatches list
// headers in at Flush time, following go-ethereum's own rlp.encBuffer
// algorithm: list headers are sized after the fact instead of requiring a
// two-pass length precomputation.
type EncoderBuffer struct {
	w       io.Writer
	str     []byte
	lheads  []listhead
	lhsize  int
	sizebuf [9]byte
}

// NewEncoderBuffer returns a buffer that flushes its accumulated output to w.
func NewEncoderBuffer(w io.Writer) EncoderBuffer {
	return EncoderBuffer{w: w}
}

func (w *EncoderBuffer) size() int { return len(w.str) + w.lhsize }

// Write appends already-encoded RLP bytes verbatim (used for RawValue and
// for types implementing Encoder, whose EncodeRLP output is self-contained).
func (w *EncoderBuffer) Write(b []byte) { w.str = append(w.str, b...) }

// WriteBytes encodes b as an RLP string.
func (w *EncoderBuffer) WriteBytes(b []byte) {
	if len(b) == 1 && b[0] <= 0x7f {
		w.str = append(w.str, b[0])
		return
	}
	w.encodeStringHeader(len(b))
	w.str = append(w.str, b...)
}

// WriteUint64 encodes i as a minimal big-endian RLP string.
func (w *EncoderBuffer) WriteUint64(i uint64) {
	if i == 0 {
		w.str = append(w.str, 0x80)
		return
	}
	if i < 0x80 {
		w.str = append(w.str, byte(i))
		return
	}
	n := putint(w.sizebuf[1:], i)
	w.sizebuf[0] = 0x80 + byte(n)
	w.str = append(w.str, w.sizebuf[:n+1]...)
}

// WriteBool encodes a boolean the way upstream go-ethereum's rlp package
// does: true as the single byte 0x01, false as the empty string.
func (w *EncoderBuffer) WriteBool(b bool) {
	if b {
		w.str = append(w.str, 0x01)
	} else {
		w.str = append(w.str, 0x80)
	}
}

func (w *EncoderBuffer) encodeStringHeader(size int) {
	if size < 56 {
		w.str = append(w.str, 0x80+byte(size))
		return
	}
	n := putint(w.sizebuf[1:], uint64(size))
	w.sizebuf[0] = 0xB7 + byte(n)
	w.str = append(w.str, w.sizebuf[:n+1]...)
}

// List starts a new list; the returned index must be passed to ListEnd.
func (w *EncoderBuffer) List() int {
	w.lheads = append(w.lheads, listhead{offset: len(w.str), size: w.lhsize})
	return len(w.lheads) - 1
}

// ListEnd closes a list opened by List.
func (w *EncoderBuffer) ListEnd(index int) {
	lh := &w.lheads[index]
	lh.size = w.size() - lh.size - lh.offset
	if lh.size < 56 {
		w.lhsize++
	} else {
		w.lhsize += 1 + intsize(uint64(lh.size))
	}
}

// Flush writes the accumulated leaves and backpatched list headers to the
// underlying writer, in one left-to-right pass.
func (w *EncoderBuffer) Flush() error {
	strpos := 0
	for _, head := range w.lheads {
		if head.offset > strpos {
			if _, err := w.w.Write(w.str[strpos:head.offset]); err != nil {
				return err
			}
			strpos = head.offset
		}
		enc := encodeListHead(w.sizebuf[:], head.size)
		if _, err := w.w.Write(enc); err != nil {
			return err
		}
	}
	_, err := w.w.Write(w.str[strpos:])
	return err
}

func encodeListHead(buf []byte, size int) []byte {
	if size < 56 {
		buf[0] = 0xC0 + byte(size)
		return buf[:1]
	}
	n := putint(buf[1:], uint64(size))
	buf[0] = 0xF7 + byte(n)
	return buf[:n+1]
}

// putint writes the minimal big-endian representation of i into b and
// returns its length (1-8 bytes).
func putint(b []byte, i uint64) int {
	switch {
	case i < (1 << 8):
		b[0] = byte(i)
		return 1
	case i < (1 << 16):
		b[0] = byte(i >> 8)
		b[1] = byte(i)
		return 2
	case i < (1 << 24):
		b[0] = byte(i >> 16)
		b[1] = byte(i >> 8)
		b[2] = byte(i)
		return 3
	case i < (1 << 32):
		b[0] = byte(i >> 24)
		b[1] = byte(i >> 16)
		b[2] = byte(i >> 8)
		b[3] = byte(i)
		return 4
	case i < (1 << 40):
		b[0] = byte(i >> 32)
		b[1] = byte(i >> 24)
		b[2] = byte(i >> 16)
		b[3] = byte(i >> 8)
		b[4] = byte(i)
		return 5
	case i < (1 << 48):
		b[0] = byte(i >> 40)
		b[1] = byte(i >> 32)
		b[2] = byte(i >> 24)
		b[3] = byte(i >> 16)
		b[4] = byte(i >> 8)
		b[5] = byte(i)
		return 6
	case i < (1 << 56):
		b[0] = byte(i >> 48)
		b[1] = byte(i >> 40)
		b[2] = byte(i >> 32)
		b[3] = byte(i >> 24)
		b[4] = byte(i >> 16)
		b[5] = byte(i >> 8)
		b[6] = byte(i)
		return 7
	default:
		b[0] = byte(i >> 56)
		b[1] = byte(i >> 48)
		b[2] = byte(i >> 40)
		b[3] = byte(i >> 32)
		b[4] = byte(i >> 24)
		b[5] = byte(i >> 16)
		b[6] = byte(i >> 8)
		b[7] = byte(i)
		return 8
	}
}

func intsize(i uint64) (n int) {
	for n = 1; ; n++ {
		i >>= 8
		if i == 0 {
			return n
		}
	}
}
