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

package receiver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/nanomesh/mesh/filter"
	"github.com/facebook/nanomesh/mesh/protocol"
)

type fixedWire struct {
	bytes []byte
}

func (f *fixedWire) ReadReady() bool { return len(f.bytes) > 0 }

func (f *fixedWire) Read(buf []byte) int {
	n := copy(buf, f.bytes)
	f.bytes = f.bytes[n:]
	return n
}

// drain calls Update until the wire is empty: one Update pulls at most
// ReadChunk bytes, fewer than one framed packet.
func drain(r *Receiver, wire *fixedWire, now uint32) {
	for wire.ReadReady() {
		r.Update(wire, now)
	}
}

func (f *fixedWire) Write(b byte) {}

func framed(p protocol.Packet) []byte {
	var out []byte
	for i := 0; i < protocol.Preamble; i++ {
		out = append(out, protocol.PacketStartByte)
	}
	b := protocol.Serialize(p)
	return append(out, b[:]...)
}

func TestUpdateThenReceiveYieldsParsedPacket(t *testing.T) {
	r := New()
	pkt := protocol.Pack(protocol.Meta{Source: 1, Destination: protocol.Exact(2), Lifetime: 4, Data: []byte("hi")})
	wire := &fixedWire{bytes: framed(pkt)}

	drain(r, wire, 0)
	got, err := r.Receive(0)
	require.NoError(t, err)
	require.Equal(t, pkt, got)
}

func TestReceiveWithNothingParsedReturnsErrNoPacket(t *testing.T) {
	r := New()
	_, err := r.Receive(0)
	require.ErrorIs(t, err, ErrNoPacket)
}

func TestReceiveAppliesDuplicateFilter(t *testing.T) {
	r := New()
	pkt := protocol.Pack(protocol.Meta{
		Source: 1, Destination: protocol.Exact(2), Lifetime: 4,
		IgnoreDuplications: true, Data: []byte("hi"),
	})
	wire := &fixedWire{bytes: framed(pkt)}
	drain(r, wire, 0)
	_, err := r.Receive(100)
	require.NoError(t, err)

	wire2 := &fixedWire{bytes: framed(pkt)}
	drain(r, wire2, 200)
	_, err = r.Receive(200)
	require.ErrorIs(t, err, filter.ErrDuplicationFound, "second sighting within the ignore window is dropped")
}

func TestUpdateSkipsReadWhenNotReadable(t *testing.T) {
	r := New()
	wire := &fixedWire{bytes: nil}
	r.Update(wire, 0)
	_, err := r.Receive(0)
	require.ErrorIs(t, err, ErrNoPacket)
}
