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

// Package receiver pulls bytes off the interface, drives the
// byte-stream parser, and applies the duplicate filter to whatever the
// parser assembles.
package receiver

import (
	"errors"

	"github.com/facebook/nanomesh/mesh/filter"
	"github.com/facebook/nanomesh/mesh/iface"
	"github.com/facebook/nanomesh/mesh/parser"
	"github.com/facebook/nanomesh/mesh/protocol"
)

// ReadChunk bounds how many bytes a single Update call will pull off
// the interface, so one call can never block the caller for long on a
// chatty channel.
const ReadChunk = 16

// ErrNoPacket is returned by Receive when the parser has nothing new
// held.
var ErrNoPacket = errors.New("no packet available")

// Receiver couples a byte-stream parser to a duplicate filter.
type Receiver struct {
	parser *parser.Parser
	filter *filter.Filter
}

// New creates a Receiver with empty parser and filter state.
func New() *Receiver {
	return &Receiver{parser: parser.New(), filter: filter.New()}
}

// Update pulls available bytes from dev when it reports readable,
// feeds each to the parser, and ticks the duplicate filter's eviction.
// It reports whether a filter entry was evicted this tick.
func (r *Receiver) Update(dev iface.Interface, now uint32) bool {
	if dev.ReadReady() {
		buf := make([]byte, ReadChunk)
		n := dev.Read(buf)
		for i := 0; i < n; i++ {
			r.parser.PushByte(buf[i])
		}
	}
	return r.filter.Tick(now)
}

// Receive asks the parser for its held packet and, if present, runs it
// through the duplicate filter. It returns ErrNoPacket when the parser
// held nothing, or the filter's error (filter.ErrDuplicationFound,
// filter.ErrTableFull) when the filter rejected it.
func (r *Receiver) Receive(now uint32) (protocol.Packet, error) {
	pkt, ok := r.parser.GetPacket()
	if !ok {
		return protocol.Packet{}, ErrNoPacket
	}
	m, err := protocol.Unpack(pkt)
	if err != nil {
		return protocol.Packet{}, err
	}
	if err := r.filter.Apply(m, now); err != nil {
		return protocol.Packet{}, err
	}
	return pkt, nil
}
