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

// Packet is the in-memory mirror of the wire layout: every field is
// the raw byte/word form, exactly as it travels over the channel.
// Callers that want typed addresses and a typed PacketState use Meta
// via Pack/Unpack instead.
type Packet struct {
	Source      byte
	Destination byte
	ID          byte
	Lifetime    byte
	Flags       byte
	DataLength  uint16
	Data        [ContentSize]byte
	Checksum    byte
}

// Meta is the in-memory metadata form of a packet: typed source,
// typed destination, typed state, and a logical-length data slice.
type Meta struct {
	Source             ExactAddress
	Destination        GeneralAddress
	ID                 uint8
	Lifetime           uint8
	State              PacketState
	IgnoreDuplications bool
	Data               []byte
}
