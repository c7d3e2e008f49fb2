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

package rlp

import (
	"fmt"
	"io"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// Decoder is implemented by types that decode themselves from a Stream, the
// same interface upstream go-ethereum's rlp package exposes (see
// core/types/header_rlp_rollup.go's DecodeRLP for the calling convention).
type Decoder interface {
	DecodeRLP(*Stream) error
}

var decoderIface = reflect.TypeOf((*Decoder)(nil)).Elem()

// Stream decodes RLP values from an in-memory buffer. Wire messages this
// module decodes arrive as a single already-framed payload (the
// RLPxTransport contract in spec §6 delivers complete (peer, code, bytes)
// frames), so operating on a fully buffered []byte rather than streaming
// incrementally off an io.Reader keeps the decoder simple without giving up
// anything this module needs.
type Stream struct {
	data  []byte
	pos   int
	stack []int // absolute end offset of each currently open list
}

// NewStream reads all of r (up to inputLimit bytes, or unbounded if 0) and
// returns a Stream over it.
func NewStream(r io.Reader, inputLimit uint64) (*Stream, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if inputLimit != 0 && uint64(len(data)) > inputLimit {
		data = data[:inputLimit]
	}
	return &Stream{data: data}, nil
}

// NewStreamFromBytes returns a Stream decoding directly from data (no copy).
func NewStreamFromBytes(data []byte) *Stream {
	return &Stream{data: data}
}

func (s *Stream) curListEnd() int {
	if len(s.stack) == 0 {
		return len(s.data)
	}
	return s.stack[len(s.stack)-1]
}

// readKind inspects (without consuming) the value at the current position
// and returns its Kind, content size, and header length.
func (s *Stream) readKind() (kind Kind, size uint64, headerLen int, err error) {
	end := s.curListEnd()
	if s.pos >= end {
		return 0, 0, 0, EOL
	}
	b := s.data[s.pos]
	switch {
	case b < 0x80:
		return Byte, 1, 0, nil
	case b < 0xB8:
		size := uint64(b - 0x80)
		if err := s.checkBounds(s.pos+1, size); err != nil {
			return 0, 0, 0, err
		}
		if size == 1 && s.pos+1 < len(s.data) && s.data[s.pos+1] < 0x80 {
			return 0, 0, 0, ErrCanonSize
		}
		return String, size, 1, nil
	case b < 0xC0:
		lenOfLen := int(b - 0xB7)
		size, err := s.readLen(s.pos+1, lenOfLen)
		if err != nil {
			return 0, 0, 0, err
		}
		if size < 56 {
			return 0, 0, 0, ErrCanonSize
		}
		if err := s.checkBounds(s.pos+1+lenOfLen, size); err != nil {
			return 0, 0, 0, err
		}
		return String, size, 1 + lenOfLen, nil
	case b < 0xF8:
		size := uint64(b - 0xC0)
		if err := s.checkBounds(s.pos+1, size); err != nil {
			return 0, 0, 0, err
		}
		return List, size, 1, nil
	default:
		lenOfLen := int(b - 0xF7)
		size, err := s.readLen(s.pos+1, lenOfLen)
		if err != nil {
			return 0, 0, 0, err
		}
		if size < 56 {
			return 0, 0, 0, ErrCanonSize
		}
		if err := s.checkBounds(s.pos+1+lenOfLen, size); err != nil {
			return 0, 0, 0, err
		}
		return List, size, 1 + lenOfLen, nil
	}
}

func (s *Stream) readLen(offset, n int) (uint64, error) {
	if n > 8 {
		return 0, ErrElemTooLarge
	}
	if offset+n > len(s.data) {
		return 0, ErrValueTooLarge
	}
	if s.data[offset] == 0 {
		return 0, ErrCanonSize
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(s.data[offset+i])
	}
	return v, nil
}

func (s *Stream) checkBounds(offset int, size uint64) error {
	end := offset + int(size)
	if end < offset || end > len(s.data) {
		return ErrValueTooLarge
	}
	if end > s.curListEnd() {
		return ErrElemTooLarge
	}
	return nil
}

// Kind reports the shape and content size of the next value without
// consuming it.
func (s *Stream) Kind() (Kind, uint64, error) {
	k, size, _, err := s.readKind()
	return k, size, err
}

// List enters a list, returning its content size. Matching ListEnd is
// mandatory before decoding past the list's end.
func (s *Stream) List() (uint64, error) {
	kind, size, hlen, err := s.readKind()
	if err != nil {
		return 0, err
	}
	if kind != List {
		return 0, ErrExpectedList
	}
	s.pos += hlen
	s.stack = append(s.stack, s.pos+int(size))
	return size, nil
}

// ListEnd closes a list opened by List. It is an error to call it before
// every element of the list has been consumed.
func (s *Stream) ListEnd() error {
	if len(s.stack) == 0 {
		return fmt.Errorf("rlp: ListEnd called outside of any list")
	}
	end := s.stack[len(s.stack)-1]
	if s.pos != end {
		return ErrNotAtEOL
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// Bytes decodes the next value as a byte string (or single byte).
func (s *Stream) Bytes() ([]byte, error) {
	kind, size, hlen, err := s.readKind()
	if err != nil {
		return nil, err
	}
	if kind == List {
		return nil, ErrExpectedString
	}
	start := s.pos + hlen
	content := s.data[start : start+int(size)]
	s.pos = start + int(size)
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

// Raw returns the complete encoding (header and content) of the next value
// without decoding it, for callers that want to defer the decode.
func (s *Stream) Raw() (RawValue, error) {
	kind, size, hlen, err := s.readKind()
	if err != nil {
		return nil, err
	}
	_ = kind
	start := s.pos
	end := s.pos + hlen + int(size)
	out := make([]byte, end-start)
	copy(out, s.data[start:end])
	s.pos = end
	return out, nil
}

// Uint64 decodes the next value as an unsigned 64 bit integer.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, ErrElemTooLarge
	}
	if len(b) > 0 && b[0] == 0 {
		return 0, ErrCanonInt
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// BigInt decodes the next value as an arbitrary precision unsigned integer.
func (s *Stream) BigInt() (*big.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(big.Int).SetBytes(b), nil
}

// Uint256 decodes the next value as a 256 bit unsigned integer.
func (s *Stream) Uint256() (*uint256.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		return nil, ErrElemTooLarge
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(uint256.Int).SetBytes(b), nil
}

// Bool decodes the next value as a boolean (0x01/empty-string convention).
func (s *Stream) Bool() (bool, error) {
	b, err := s.Bytes()
	if err != nil {
		return false, err
	}
	switch len(b) {
	case 0:
		return false, nil
	case 1:
		switch b[0] {
		case 1:
			return true, nil
		case 0:
			return false, ErrCanonInt
		default:
			return false, fmt.Errorf("rlp: invalid boolean value %#x", b[0])
		}
	default:
		return false, fmt.Errorf("rlp: invalid boolean length %d", len(b))
	}
}

// Decode decodes the next value into val, which must be a non-nil pointer.
func (s *Stream) Decode(val interface{}) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("rlp: Decode requires a non-nil pointer")
	}
	return decodeReflectValue(s, rv.Elem())
}

// Decode decodes RLP data from r into val.
func Decode(r io.Reader, val interface{}) error {
	s, err := NewStream(r, 0)
	if err != nil {
		return err
	}
	return s.Decode(val)
}

// DecodeBytes decodes b into val and fails if b contains trailing bytes.
func DecodeBytes(b []byte, val interface{}) error {
	s := NewStreamFromBytes(b)
	if err := s.Decode(val); err != nil {
		return err
	}
	if s.pos != len(s.data) {
		return ErrMoreThanOneValue
	}
	return nil
}

func decodeReflectValue(s *Stream, rv reflect.Value) error {
	switch rv.Type() {
	case rawValueType:
		raw, err := s.Raw()
		if err != nil {
			return err
		}
		rv.SetBytes(raw)
		return nil
	case bigIntType:
		bi, err := s.BigInt()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(*bi))
		return nil
	case bigIntPtrType:
		bi, err := s.BigInt()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(bi))
		return nil
	case u256Type:
		u, err := s.Uint256()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(*u))
		return nil
	case u256PtrType:
		u, err := s.Uint256()
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(u))
		return nil
	}

	if rv.CanAddr() {
		if ptr := rv.Addr(); ptr.CanInterface() && ptr.Type().Implements(decoderIface) {
			return ptr.Interface().(Decoder).DecodeRLP(s)
		}
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeReflectValue(s, rv.Elem())
	case reflect.Bool:
		b, err := s.Bool()
		if err != nil {
			return err
		}
		rv.SetBool(b)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := s.Uint64()
		if err != nil {
			return err
		}
		rv.SetUint(v)
		return nil
	case reflect.String:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		rv.SetString(string(b))
		return nil
	case reflect.Slice:
		if isByteElem(rv.Type().Elem()) {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			rv.SetBytes(b)
			return nil
		}
		return decodeSlice(s, rv)
	case reflect.Array:
		if isByteElem(rv.Type().Elem()) {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			if len(b) != rv.Len() {
				return fmt.Errorf("rlp: input string of length %d too %s for array of size %d", len(b), sizeCmp(len(b), rv.Len()), rv.Len())
			}
			for i := 0; i < rv.Len(); i++ {
				rv.Index(i).SetUint(uint64(b[i]))
			}
			return nil
		}
		return decodeArray(s, rv)
	case reflect.Struct:
		return decodeStruct(s, rv)
	default:
		return fmt.Errorf("rlp: type %v is not RLP-decodable", rv.Type())
	}
}

func sizeCmp(got, want int) string {
	if got < want {
		return "short"
	}
	return "long"
}

func decodeSlice(s *Stream, rv reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
	for {
		if _, _, err := s.Kind(); err == EOL {
			break
		} else if err != nil {
			return err
		}
		elem := reflect.New(rv.Type().Elem()).Elem()
		if err := decodeReflectValue(s, elem); err != nil {
			return err
		}
		rv.Set(reflect.Append(rv, elem))
	}
	return s.ListEnd()
}

func decodeArray(s *Stream, rv reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := decodeReflectValue(s, rv.Index(i)); err != nil {
			return err
		}
	}
	return s.ListEnd()
}

func decodeStruct(s *Stream, rv reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	fields := cachedFields(rv.Type())
	for _, f := range fields {
		if err := decodeReflectValue(s, rv.Field(f.index)); err != nil {
			if err == EOL && f.optional {
				break
			}
			return err
		}
	}
	return s.ListEnd()
}
