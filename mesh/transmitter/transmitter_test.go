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

package transmitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/nanomesh/mesh/protocol"
)

type fakeWire struct {
	written []byte
}

func (f *fakeWire) ReadReady() bool     { return false }
func (f *fakeWire) Read(buf []byte) int { return 0 }
func (f *fakeWire) Write(b byte)        { f.written = append(f.written, b) }

func normalPacket(dst byte) protocol.Packet {
	return protocol.Pack(protocol.Meta{
		Source:      9,
		Destination: protocol.GeneralAddressFromByte(dst),
		Lifetime:    4,
		Data:        []byte("x"),
	})
}

func TestSendAssignsNonZeroIncrementingIDs(t *testing.T) {
	tx := New()
	id1, err := tx.Send(normalPacket(2))
	require.NoError(t, err)
	require.NotZero(t, id1)

	id2, err := tx.Send(normalPacket(2))
	require.NoError(t, err)
	require.Equal(t, id1+1, id2)
}

func TestSendFailsWhenOriginatedQueueFull(t *testing.T) {
	tx := New()
	for i := 0; i < QueueCapacity; i++ {
		_, err := tx.Send(normalPacket(2))
		require.NoError(t, err)
	}
	_, err := tx.Send(normalPacket(2))
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestSendTransitFailsWhenFull(t *testing.T) {
	tx := New()
	for i := 0; i < QueueCapacity; i++ {
		require.NoError(t, tx.SendTransit(normalPacket(2)))
	}
	require.ErrorIs(t, tx.SendTransit(normalPacket(2)), ErrTransitFull)
}

func TestUpdateTransmitsPreambleThenFrame(t *testing.T) {
	tx := New()
	_, err := tx.Send(normalPacket(2))
	require.NoError(t, err)

	wire := &fakeWire{}
	sent, originated := tx.Update(wire)
	require.True(t, sent)
	require.True(t, originated)

	require.Len(t, wire.written, protocol.Preamble+protocol.PacketBytes)
	for i := 0; i < protocol.Preamble; i++ {
		require.Equal(t, protocol.PacketStartByte, wire.written[i])
	}
}

func TestUpdateTransmitsAtMostOnePacketGivingTransitPriority(t *testing.T) {
	tx := New()
	_, err := tx.Send(normalPacket(2))
	require.NoError(t, err)
	transitPkt := normalPacket(3)
	require.NoError(t, tx.SendTransit(transitPkt))

	wire := &fakeWire{}
	sent, originated := tx.Update(wire)
	require.True(t, sent)
	require.False(t, originated, "transit packets pre-empt originated ones")
	require.Len(t, wire.written, protocol.Preamble+protocol.PacketBytes)

	var frame [protocol.PacketBytes]byte
	copy(frame[:], wire.written[protocol.Preamble:])
	got := protocol.Deserialize(frame)
	require.Equal(t, transitPkt.Destination, got.Destination)

	wire2 := &fakeWire{}
	sent2, originated2 := tx.Update(wire2)
	require.True(t, sent2)
	require.True(t, originated2, "originated packet now transmits on the next call")
	require.Len(t, wire2.written, protocol.Preamble+protocol.PacketBytes)
}
