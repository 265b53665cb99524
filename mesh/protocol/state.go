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

// PacketState is the protocol role a packet plays: fire-and-forget,
// one-shot liveness probe, or one step of the four-step transaction
// handshake.
type PacketState uint8

// As per the flag bitfield in the wire header (bits 1-6, at most one set).
const (
	Normal PacketState = iota
	Ping
	Pong
	SendTxn
	AcceptTxn
	InitTxn
	FinishTxn
)

var packetStateToString = map[PacketState]string{
	Normal:    "NORMAL",
	Ping:      "PING",
	Pong:      "PONG",
	SendTxn:   "SEND_TXN",
	AcceptTxn: "ACCEPT_TXN",
	InitTxn:   "INIT_TXN",
	FinishTxn: "FINISH_TXN",
}

func (s PacketState) String() string {
	if str, ok := packetStateToString[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// flag bit positions, MSB first as laid out in the wire header.
const (
	flagIgnoreDuplications uint8 = 1 << 7
	flagPing               uint8 = 1 << 6
	flagPong               uint8 = 1 << 5
	flagSendTxn            uint8 = 1 << 4
	flagAcceptTxn          uint8 = 1 << 3
	flagInitTxn            uint8 = 1 << 2
	flagFinishTxn          uint8 = 1 << 1
)

var stateToFlag = map[PacketState]uint8{
	Normal:    0,
	Ping:      flagPing,
	Pong:      flagPong,
	SendTxn:   flagSendTxn,
	AcceptTxn: flagAcceptTxn,
	InitTxn:   flagInitTxn,
	FinishTxn: flagFinishTxn,
}

// stateFromFlags extracts the PacketState encoded in bits 1-6 of flags.
// Flags with more than one state bit set are not expected to occur on
// the wire; when they do, the highest matching bit wins (Ping first,
// FinishTxn last) rather than panicking, since flags arrive over an
// untrusted noisy channel.
func stateFromFlags(flags uint8) PacketState {
	switch {
	case flags&flagPing != 0:
		return Ping
	case flags&flagPong != 0:
		return Pong
	case flags&flagSendTxn != 0:
		return SendTxn
	case flags&flagAcceptTxn != 0:
		return AcceptTxn
	case flags&flagInitTxn != 0:
		return InitTxn
	case flags&flagFinishTxn != 0:
		return FinishTxn
	default:
		return Normal
	}
}

// mutateState implements the router's state-machine step: it returns
// the next state, whether source/destination must be swapped, and
// whether the originator's id must be bumped by one (mod 256). Only
// the SendTxn->AcceptTxn step bumps the id; this is the wire-compat
// convention send_with_transaction relies on to recognize FinishTxn.
func mutateState(s PacketState) (next PacketState, swap bool, bumpID bool) {
	switch s {
	case Ping:
		return Pong, true, false
	case SendTxn:
		return AcceptTxn, true, true
	case AcceptTxn:
		return InitTxn, true, false
	case InitTxn:
		return FinishTxn, true, false
	default:
		return s, false, false
	}
}
