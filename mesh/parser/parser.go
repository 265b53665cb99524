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

// Package parser turns a noisy byte stream into validated packets. It
// resynchronizes on runs of protocol.PacketStartByte: a run of start
// bytes that isn't really a frame header normally fails its checksum
// and the search resumes one byte later. The checksum is a sum mod
// 256, so such a window can also match by coincidence; it is then
// accepted as a packet like any other valid frame.
package parser

import (
	"github.com/facebook/nanomesh/mesh/protocol"
)

// Capacity is the ring buffer size: one full preamble plus one full
// frame always fits, so a genuine frame is never starved for room.
const Capacity = protocol.Preamble + protocol.PacketBytes

// Parser assembles packets out of a raw byte stream.
type Parser struct {
	buf  []byte
	held protocol.Packet
	has  bool
}

// New creates an empty Parser.
func New() *Parser {
	return &Parser{buf: make([]byte, 0, Capacity)}
}

// PushByte feeds one raw byte from the wire into the parser. It may
// recognize and validate at most one new packet per call; that packet
// (if any) is held until GetPacket retrieves it.
func (p *Parser) PushByte(b byte) {
	p.buf = append(p.buf, b)
	if len(p.buf) > Capacity {
		p.buf = p.buf[len(p.buf)-Capacity:]
	}
	p.process()
}

// GetPacket returns and clears the held packet, if any.
func (p *Parser) GetPacket() (protocol.Packet, bool) {
	if !p.has {
		return protocol.Packet{}, false
	}
	pkt := p.held
	p.held = protocol.Packet{}
	p.has = false
	return pkt, true
}

func (p *Parser) process() {
	for !p.has {
		if len(p.buf) < protocol.Preamble+protocol.PacketBytes {
			return
		}
		if !isPreamble(p.buf[:protocol.Preamble]) {
			p.buf = p.buf[1:]
			continue
		}

		var frame [protocol.PacketBytes]byte
		copy(frame[:], p.buf[protocol.Preamble:protocol.Preamble+protocol.PacketBytes])
		candidate := protocol.Deserialize(frame)

		if isValidFrame(candidate) {
			p.held = candidate
			p.has = true
			p.buf = p.buf[protocol.Preamble+protocol.PacketBytes:]
			return
		}
		// Recognized preamble but payload failed validation: slide by
		// one byte and keep looking, rather than discarding the whole
		// candidate frame at once.
		p.buf = p.buf[1:]
	}
}

func isPreamble(b []byte) bool {
	for _, c := range b {
		if c != protocol.PacketStartByte {
			return false
		}
	}
	return true
}

func isValidFrame(p protocol.Packet) bool {
	if !protocol.IsChecksumCorrect(p) {
		return false
	}
	if protocol.Address(p.Source) == protocol.BroadcastByte {
		return false
	}
	return true
}
