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

// Package p2p models the narrow surface gethcore needs from the RLPx
// transport (spec.md §6's RLPxTransport collaborator): framed messages
// tagged with a sub-protocol code, and a peer handle sub-protocols attach
// session state to. The encrypted handshake, framing, and discovery layer
// themselves are out of scope (spec.md §1) and live entirely behind this
// package's boundary.
package p2p

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/lumenchain/gethcore/rlp"
)

// Msg is one already-framed devp2p message: a sub-protocol-relative code
// and an RLP-encoded payload reader. Decode reads the payload as plain RLP,
// so any snappy compression has already been removed by the transport.
type Msg struct {
	Code       uint64
	Size       uint32 // decompressed payload size
	Payload    io.Reader
	ReceivedAt time.Time
}

// Decode unmarshals the RLP content of the message into val.
func (msg Msg) Decode(val interface{}) error {
	s, err := rlp.NewStream(msg.Payload, uint64(msg.Size))
	if err != nil {
		return err
	}
	if err := s.Decode(val); err != nil {
		return fmt.Errorf("p2p: %w (code %#x)", err, msg.Code)
	}
	return nil
}

func (msg Msg) String() string {
	return fmt.Sprintf("msg#%#x(%d bytes)", msg.Code, msg.Size)
}

// Discard reads and drops the payload, as a Reader that forwards to
// /dev/null would, leaving the underlying connection ready for the next
// frame.
func (msg Msg) Discard() error {
	_, err := io.Copy(io.Discard, msg.Payload)
	return err
}

// NewMsg builds a Msg whose payload is the RLP encoding of data, the shape
// MsgWriter.WriteMsg expects a producer to hand it.
func NewMsg(code uint64, data interface{}) (Msg, error) {
	enc, err := rlp.EncodeToBytes(data)
	if err != nil {
		return Msg{}, err
	}
	return Msg{Code: code, Size: uint32(len(enc)), Payload: bytes.NewReader(enc)}, nil
}

// MsgReader is the read half of RLPxTransport: it yields frames in receive
// order for a given peer (spec.md §5: "for a single peer, inbound messages
// are processed in receive order").
type MsgReader interface {
	ReadMsg() (Msg, error)
}

// MsgWriter is the write half: frames are sent in call order.
type MsgWriter interface {
	WriteMsg(Msg) error
}

// MsgReadWriter combines both halves, the type eth/protocols/eth's Peer
// embeds to drive its STATUS handshake and message dispatch.
type MsgReadWriter interface {
	MsgReader
	MsgWriter
}

// Send is a convenience wrapper: RLP-encode data and write it under code in
// one call.
func Send(w MsgWriter, code uint64, data interface{}) error {
	msg, err := NewMsg(code, data)
	if err != nil {
		return err
	}
	return w.WriteMsg(msg)
}
