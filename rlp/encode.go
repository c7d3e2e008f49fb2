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
	"bytes"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"sync"

	"github.com/holiman/uint256"
)

// Encoder is implemented by types that encode themselves, the same
// interface upstream go-ethereum's rlp package exposes (see
// core/types/header_rlp_rollup.go's EncodeRLP for the calling convention
// this mirrors).
type Encoder interface {
	EncodeRLP(io.Writer) error
}

var (
	rawValueType  = reflect.TypeOf(RawValue{})
	bigIntType    = reflect.TypeOf(big.Int{})
	bigIntPtrType = reflect.TypeOf((*big.Int)(nil))
	u256Type      = reflect.TypeOf(uint256.Int{})
	u256PtrType   = reflect.TypeOf((*uint256.Int)(nil))
	encoderIface  = reflect.TypeOf((*Encoder)(nil)).Elem()
)

// Encode writes the RLP encoding of val to w.
func Encode(w io.Writer, val interface{}) error {
	buf := NewEncoderBuffer(w)
	if err := encodeReflectValue(&buf, reflect.ValueOf(val)); err != nil {
		return err
	}
	return buf.Flush()
}

// EncodeToBytes returns the RLP encoding of val.
func EncodeToBytes(val interface{}) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, val); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func encodeReflectValue(buf *EncoderBuffer, rv reflect.Value) error {
	if !rv.IsValid() {
		return fmt.Errorf("rlp: cannot encode invalid value")
	}

	switch rv.Type() {
	case rawValueType:
		buf.Write(rv.Bytes())
		return nil
	case bigIntType:
		bi := rv.Interface().(big.Int)
		return encodeBigInt(buf, &bi)
	case bigIntPtrType:
		if rv.IsNil() {
			buf.WriteBytes(nil)
			return nil
		}
		return encodeBigInt(buf, rv.Interface().(*big.Int))
	case u256Type:
		u := rv.Interface().(uint256.Int)
		buf.WriteBytes(u.Bytes())
		return nil
	case u256PtrType:
		if rv.IsNil() {
			buf.WriteBytes(nil)
			return nil
		}
		buf.WriteBytes(rv.Interface().(*uint256.Int).Bytes())
		return nil
	}

	if rv.CanInterface() && rv.Type().Implements(encoderIface) {
		return encodeViaEncoder(buf, rv.Interface().(Encoder))
	}
	if rv.CanAddr() {
		if ptr := rv.Addr(); ptr.CanInterface() && ptr.Type().Implements(encoderIface) {
			return encodeViaEncoder(buf, ptr.Interface().(Encoder))
		}
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			zero := reflect.New(rv.Type().Elem()).Elem()
			return encodeReflectValue(buf, zero)
		}
		return encodeReflectValue(buf, rv.Elem())
	case reflect.Interface:
		if rv.IsNil() {
			return fmt.Errorf("rlp: cannot encode nil interface")
		}
		return encodeReflectValue(buf, rv.Elem())
	case reflect.Bool:
		buf.WriteBool(rv.Bool())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteUint64(rv.Uint())
		return nil
	case reflect.String:
		buf.WriteBytes([]byte(rv.String()))
		return nil
	case reflect.Slice, reflect.Array:
		if isByteElem(rv.Type().Elem()) {
			buf.WriteBytes(bytesOf(rv))
			return nil
		}
		idx := buf.List()
		for i := 0; i < rv.Len(); i++ {
			if err := encodeReflectValue(buf, rv.Index(i)); err != nil {
				return err
			}
		}
		buf.ListEnd(idx)
		return nil
	case reflect.Struct:
		return encodeStruct(buf, rv)
	default:
		return fmt.Errorf("rlp: type %v is not RLP-encodable", rv.Type())
	}
}

func encodeViaEncoder(buf *EncoderBuffer, enc Encoder) error {
	var tmp bytes.Buffer
	if err := enc.EncodeRLP(&tmp); err != nil {
		return err
	}
	buf.Write(tmp.Bytes())
	return nil
}

func encodeBigInt(buf *EncoderBuffer, i *big.Int) error {
	if i.Sign() == -1 {
		return ErrNegativeBigInt
	}
	buf.WriteBytes(i.Bytes())
	return nil
}

func isByteElem(t reflect.Type) bool {
	return t.Kind() == reflect.Uint8 && t.Name() == "uint8"
}

func bytesOf(rv reflect.Value) []byte {
	if rv.Kind() == reflect.Slice {
		return rv.Bytes()
	}
	out := make([]byte, rv.Len())
	for i := range out {
		out[i] = byte(rv.Index(i).Uint())
	}
	return out
}

func encodeStruct(buf *EncoderBuffer, rv reflect.Value) error {
	fields := cachedFields(rv.Type())
	last := len(fields) - 1
	for last >= 0 && fields[last].optional {
		if !rv.Field(fields[last].index).IsZero() {
			break
		}
		last--
	}
	idx := buf.List()
	for i := 0; i <= last; i++ {
		if err := encodeReflectValue(buf, rv.Field(fields[i].index)); err != nil {
			return err
		}
	}
	buf.ListEnd(idx)
	return nil
}

// fieldInfo describes one RLP-visible struct field.
type fieldInfo struct {
	index    int
	optional bool
}

var fieldCache sync.Map // map[reflect.Type][]fieldInfo

func cachedFields(t reflect.Type) []fieldInfo {
	if v, ok := fieldCache.Load(t); ok {
		return v.([]fieldInfo)
	}
	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		tag := f.Tag.Get("rlp")
		if tag == "-" {
			continue
		}
		fields = append(fields, fieldInfo{index: i, optional: tag == "optional"})
	}
	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]fieldInfo)
}
