/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package protocol

import (
	"encoding/binary"
	"errors"
)

// ErrLifetimeEnded is returned by DecreaseLifetime when the packet has
// no hop budget left to transit.
var ErrLifetimeEnded = errors.New("packet lifetime ended")

// ErrRespondToBroadcast is returned by Mutated when a response would
// have to be addressed back to the broadcast address.
var ErrRespondToBroadcast = errors.New("cannot address a response to broadcast")

// Pack converts typed metadata into a wire Packet: it pads Data to
// ContentSize with zeros, encodes State and IgnoreDuplications into
// Flags, and computes the checksum.
func Pack(m Meta) Packet {
	var p Packet
	p.Source = m.Source.Byte()
	p.Destination = m.Destination.Byte()
	p.ID = m.ID
	p.Lifetime = m.Lifetime
	p.DataLength = uint16(len(m.Data))
	if p.DataLength > ContentSize {
		p.DataLength = ContentSize
	}
	copy(p.Data[:p.DataLength], m.Data)

	flags := stateToFlag[m.State]
	if m.IgnoreDuplications {
		flags |= flagIgnoreDuplications
	}
	p.Flags = flags
	p.Checksum = checksum(p)
	return p
}

// Unpack reconstructs typed metadata from a wire Packet. It fails
// with ErrZeroAddress when the source byte is 0, which is malformed:
// broadcast is never a legal originator.
func Unpack(p Packet) (Meta, error) {
	if Address(p.Source) == BroadcastByte {
		return Meta{}, ErrZeroAddress
	}
	length := p.DataLength
	if length > ContentSize {
		length = ContentSize
	}
	data := make([]byte, length)
	copy(data, p.Data[:length])

	return Meta{
		Source:             ExactAddress(p.Source),
		Destination:        GeneralAddressFromByte(p.Destination),
		ID:                 p.ID,
		Lifetime:           p.Lifetime,
		State:              stateFromFlags(p.Flags),
		IgnoreDuplications: p.Flags&flagIgnoreDuplications != 0,
		Data:               data,
	}, nil
}

// Serialize writes p's fields, in wire order, into a PacketBytes array.
func Serialize(p Packet) [PacketBytes]byte {
	var b [PacketBytes]byte
	b[0] = p.Source
	b[1] = p.Destination
	b[2] = p.ID
	b[3] = p.Lifetime
	b[4] = p.Flags
	binary.BigEndian.PutUint16(b[5:7], p.DataLength)
	copy(b[7:7+ContentSize], p.Data[:])
	b[7+ContentSize] = p.Checksum
	return b
}

// Deserialize reads fields in the same order Serialize writes them.
// It never fails structurally: callers decide validity by checking
// IsChecksumCorrect and the unpacked source address.
func Deserialize(b [PacketBytes]byte) Packet {
	var p Packet
	p.Source = b[0]
	p.Destination = b[1]
	p.ID = b[2]
	p.Lifetime = b[3]
	p.Flags = b[4]
	p.DataLength = binary.BigEndian.Uint16(b[5:7])
	copy(p.Data[:], b[7:7+ContentSize])
	p.Checksum = b[7+ContentSize]
	return p
}

// checksum is the byte-wise modular sum of every field except
// Checksum itself. It is a corruption sentinel, not a security
// mechanism: a stronger hash would be a wire-incompatible change.
func checksum(p Packet) byte {
	var sum byte
	sum += p.Source
	sum += p.Destination
	sum += p.ID
	sum += p.Lifetime
	sum += p.Flags
	sum += byte(p.DataLength >> 8)
	sum += byte(p.DataLength)
	for _, b := range p.Data {
		sum += b
	}
	return sum
}

// IsChecksumCorrect recomputes the checksum and compares it to the
// stored one.
func IsChecksumCorrect(p Packet) bool {
	return checksum(p) == p.Checksum
}

// DecreaseLifetime returns a copy of p with Lifetime decremented by
// one transit hop. It fails with ErrLifetimeEnded when lifetime has
// already reached the point where another hop is not allowed (<= 1).
func DecreaseLifetime(p Packet) (Packet, error) {
	if p.Lifetime <= 1 {
		return Packet{}, ErrLifetimeEnded
	}
	next := p
	next.Lifetime--
	next.Checksum = checksum(next)
	return next, nil
}

// Mutated performs the router's state-machine step on a packet already
// destined for this node: Ping->Pong, SendTxn->AcceptTxn,
// AcceptTxn->InitTxn, InitTxn->FinishTxn swap source and destination
// (and, for SendTxn->AcceptTxn only, bump the originator's id by one
// mod 256 so the transaction initiator can recognize the eventual
// FinishTxn). Any other state is returned unchanged. Mutated fails
// with ErrRespondToBroadcast when the swap would have to address the
// response to the broadcast address - a response can never travel
// back to "everyone".
func Mutated(p Packet) (Packet, error) {
	m, err := Unpack(p)
	if err != nil {
		return Packet{}, err
	}

	next, swap, bumpID := mutateState(m.State)
	if swap {
		dst, ok := m.Destination.AsExact()
		if !ok {
			return Packet{}, ErrRespondToBroadcast
		}
		m.Source, m.Destination = dst, Exact(m.Source)
	}
	if bumpID {
		m.ID++
	}
	m.State = next
	return Pack(m), nil
}
