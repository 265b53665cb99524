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

// Package protocol implements the wire packet format of the mesh: its
// fixed-size framing, checksum, flag bitfield, and the router's
// packet-state transitions. All nodes on a network must agree on the
// constants below; they are part of the wire contract.
package protocol

// ContentSize is the number of payload bytes carried by a packet.
const ContentSize = 32

// Preamble is the number of PacketStartByte repetitions that precede
// every packet on the wire.
const Preamble = 3

// PacketStartByte is the byte repeated Preamble times to let a
// receiver resynchronize frame boundaries on a noisy stream.
const PacketStartByte byte = 0x78

// field widths, in the wire order: source, destination, id, lifetime,
// flags, data_length (2 bytes big-endian), data, checksum.
const (
	headerSize  = 1 + 1 + 1 + 1 + 1 + 2
	PacketBytes = headerSize + ContentSize + 1
)
