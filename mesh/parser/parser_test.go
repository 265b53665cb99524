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

package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/nanomesh/mesh/protocol"
)

func framedBytes(t *testing.T, p protocol.Packet) []byte {
	t.Helper()
	var out []byte
	for i := 0; i < protocol.Preamble; i++ {
		out = append(out, protocol.PacketStartByte)
	}
	b := protocol.Serialize(p)
	return append(out, b[:]...)
}

func samplePacket() protocol.Packet {
	return protocol.Pack(protocol.Meta{
		Source:      1,
		Destination: protocol.Exact(2),
		ID:          9,
		Lifetime:    4,
		Data:        []byte("hi"),
	})
}

func TestParserAssemblesOneFrame(t *testing.T) {
	p := New()
	frame := framedBytes(t, samplePacket())
	for _, b := range frame {
		p.PushByte(b)
	}
	got, ok := p.GetPacket()
	require.True(t, ok)
	require.Equal(t, samplePacket(), got)

	_, ok = p.GetPacket()
	require.False(t, ok, "packet is cleared after retrieval")
}

func TestParserRecoversFromNoiseBeforeFrame(t *testing.T) {
	p := New()
	noise := []byte{0x00, 0xFF, 0x12, 0x34}
	for _, b := range noise {
		p.PushByte(b)
	}
	frame := framedBytes(t, samplePacket())
	for _, b := range frame {
		p.PushByte(b)
	}
	got, ok := p.GetPacket()
	require.True(t, ok)
	require.Equal(t, samplePacket(), got)
}

func TestParserRejectsCorruptChecksum(t *testing.T) {
	p := New()
	frame := framedBytes(t, samplePacket())
	frame[len(frame)-1] ^= 0xFF // corrupt checksum byte
	for _, b := range frame {
		p.PushByte(b)
	}
	_, ok := p.GetPacket()
	require.False(t, ok)
}

func TestParserRejectsZeroSourceEvenWithGoodChecksum(t *testing.T) {
	p := New()
	pkt := samplePacket()
	pkt.Source = 0 // broadcast can never be a source

	b := protocol.Serialize(pkt)
	sum := byte(0)
	for i := 0; i < len(b)-1; i++ {
		sum += b[i]
	}
	b[len(b)-1] = sum // patch checksum so only the zero-source rule rejects it

	for i := 0; i < protocol.Preamble; i++ {
		p.PushByte(protocol.PacketStartByte)
	}
	for _, by := range b {
		p.PushByte(by)
	}
	_, ok := p.GetPacket()
	require.False(t, ok)
}

func TestParserResyncsOnRunOfStartBytesThatIsNotARealFrame(t *testing.T) {
	p := New()
	for i := 0; i < 50; i++ {
		p.PushByte(protocol.PacketStartByte)
	}
	frame := framedBytes(t, samplePacket())
	for _, b := range frame {
		p.PushByte(b)
	}
	got, ok := p.GetPacket()
	require.True(t, ok)
	require.Equal(t, samplePacket(), got)
}

func TestParserNeverBlocksOnOverflow(t *testing.T) {
	p := New()
	for i := 0; i < Capacity*10; i++ {
		p.PushByte(byte(i))
	}
	require.LessOrEqual(t, len(p.buf), Capacity)
}
