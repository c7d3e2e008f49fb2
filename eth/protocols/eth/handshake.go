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

package eth

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/eth/protocols/eth/forkid"
)

// statusTimeout is spec.md §3's "STATUS must be exchanged within 5 s". A
// var, not a const, so tests can shrink it rather than waiting out the
// real 5 seconds to exercise the timeout path.
var statusTimeout = 5 * time.Second

var (
	ErrUncontrolledStatus = errors.New("eth: uncontrolled status message")
	ErrStatusTimeout      = errors.New("eth: status exchange timed out")
)

// Chain is the minimal slice of the spec.md §6 Blockchain/Common
// collaborator that the handshake needs: enough to build and validate a
// STATUS record.
type Chain interface {
	NetworkID() uint64
	Genesis() common.Hash
	Head() (hash common.Hash, number uint64, td *big.Int)
	ForkID() forkid.ID
	ValidateForkID(remote forkid.ID) error
}

// StatusMismatchError names the specific field that failed to match
// (spec.md §4.B step 3 "fails fatally with a descriptive assertion").
type StatusMismatchError struct {
	Field string
	Local, Remote interface{}
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("eth: status mismatch on %s: local=%v remote=%v", e.Field, e.Local, e.Remote)
}

// Handshake drives spec.md §4.B steps 1-5: send our STATUS, await exactly
// one inbound STATUS within statusTimeout, and validate it field by field.
// On success it returns the remote's STATUS; the caller is responsible for
// disconnecting the peer on any returned error (spec.md §7's disconnect
// policy for StatusMismatch/ForkIdMismatch/UncontrolledStatus/StatusTimeout).
func Handshake(peer *Peer, version uint64, chain Chain) (*StatusPacket, error) {
	head, number, td := chain.Head()
	local := &StatusPacket{
		ProtocolVersion: uint32(version),
		NetworkID:       chain.NetworkID(),
		TD:              td,
		Head:            head,
		Genesis:         chain.Genesis(),
	}
	if version >= ETH64 {
		local.ForkID = ForkID{Hash: chain.ForkID().Hash, Next: chain.ForkID().Next}
	}

	errc := make(chan error, 2)
	var remote StatusPacket
	go func() { errc <- peer.send(StatusMsg, local) }()
	go func() { errc <- readStatus(peer, &remote) }()

	timeout := time.NewTimer(statusTimeout)
	defer timeout.Stop()
	for i := 0; i < 2; i++ {
		select {
		case err := <-errc:
			if err != nil {
				return nil, err
			}
		case <-timeout.C:
			return nil, ErrStatusTimeout
		}
	}

	if err := validateStatus(local, &remote, version, chain, number); err != nil {
		return nil, err
	}
	peer.SetHead(remote.Head, remote.TD)
	return &remote, nil
}

func readStatus(peer *Peer, into *StatusPacket) error {
	msg, err := peer.ReadWriter().ReadMsg()
	if err != nil {
		return err
	}
	if msg.Code != StatusMsg {
		return ErrUncontrolledStatus
	}
	return msg.Decode(into)
}

func validateStatus(local, remote *StatusPacket, version uint64, chain Chain, localHead uint64) error {
	if uint64(remote.ProtocolVersion) != version {
		return &StatusMismatchError{"ProtocolVersion", version, remote.ProtocolVersion}
	}
	if remote.NetworkID != local.NetworkID {
		return &StatusMismatchError{"NetworkID", local.NetworkID, remote.NetworkID}
	}
	if remote.Genesis != local.Genesis {
		return &StatusMismatchError{"Genesis", local.Genesis, remote.Genesis}
	}
	if version >= ETH64 {
		remoteID := forkid.ID{Hash: remote.ForkID.Hash, Next: remote.ForkID.Next}
		if err := chain.ValidateForkID(remoteID); err != nil {
			return fmt.Errorf("eth: fork id validation failed: %w", err)
		}
	}
	return nil
}
