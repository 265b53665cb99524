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

// Package transmitter owns the two outbound FIFOs (originated and
// transit) and the originator id counter, and serializes at most one
// packet per Update call onto the wire, transit packets pre-empting
// originated ones.
package transmitter

import (
	"errors"

	"github.com/facebook/nanomesh/mesh/iface"
	"github.com/facebook/nanomesh/mesh/protocol"
	"github.com/facebook/nanomesh/mesh/queue"
)

// QueueCapacity is the reference capacity for both FIFOs.
const QueueCapacity = 5

// ErrQueueFull is returned by Send when the originated queue is
// saturated.
var ErrQueueFull = errors.New("originated queue is full")

// ErrTransitFull is returned by SendTransit when the transit queue is
// saturated.
var ErrTransitFull = errors.New("transit queue is full")

// Transmitter holds the originated/transit FIFOs and assigns ids to
// locally-originated packets.
type Transmitter struct {
	originated *queue.Bounded[protocol.Packet]
	transit    *queue.Bounded[protocol.Packet]
	nextID     uint8
}

// New creates an empty Transmitter.
func New() *Transmitter {
	return &Transmitter{
		originated: queue.NewBounded[protocol.Packet](QueueCapacity),
		transit:    queue.NewBounded[protocol.Packet](QueueCapacity),
	}
}

// Send stamps p with the next originator id (wrapping mod 256, never
// assigning 0 so an id of 0 never has to be disambiguated from "no
// response yet") and enqueues it for first transmission. It returns
// the assigned id.
func (t *Transmitter) Send(p protocol.Packet) (uint8, error) {
	id := t.nextID + 1
	if id == 0 {
		id = 1
	}
	m, err := protocol.Unpack(p)
	if err != nil {
		return 0, err
	}
	m.ID = id
	stamped := protocol.Pack(m)

	if err := t.originated.Push(stamped); err != nil {
		return 0, ErrQueueFull
	}
	t.nextID = id
	return id, nil
}

// SendTransit enqueues p for forwarding without touching its id.
func (t *Transmitter) SendTransit(p protocol.Packet) error {
	if err := t.transit.Push(p); err != nil {
		return ErrTransitFull
	}
	return nil
}

// Update transmits at most one packet: the transit queue's head if
// non-empty, else the originated queue's head. Writes are framed with
// the preamble and are not retried on failure. It reports whether a
// packet went out and, if so, whether it came from the originated
// queue (as opposed to the transit queue).
func (t *Transmitter) Update(dev iface.Interface) (sent bool, originated bool) {
	if p, ok := t.transit.Pop(); ok {
		transmit(dev, p)
		return true, false
	}
	if p, ok := t.originated.Pop(); ok {
		transmit(dev, p)
		return true, true
	}
	return false, false
}

func transmit(dev iface.Interface, p protocol.Packet) {
	for i := 0; i < protocol.Preamble; i++ {
		dev.Write(protocol.PacketStartByte)
	}
	bytes := protocol.Serialize(p)
	for _, b := range bytes {
		dev.Write(b)
	}
}
