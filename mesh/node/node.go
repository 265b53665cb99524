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

// Package node is the façade composing the transmitter, receiver,
// router, airtime timer, and stats into one mesh participant. A Node
// is driven entirely by repeated calls to Update from the host's poll
// loop; it makes no progress on its own.
package node

import (
	"errors"

	"github.com/facebook/nanomesh/mesh/airtime"
	"github.com/facebook/nanomesh/mesh/filter"
	"github.com/facebook/nanomesh/mesh/iface"
	"github.com/facebook/nanomesh/mesh/protocol"
	"github.com/facebook/nanomesh/mesh/queue"
	"github.com/facebook/nanomesh/mesh/receiver"
	"github.com/facebook/nanomesh/mesh/router"
	"github.com/facebook/nanomesh/mesh/stats"
	"github.com/facebook/nanomesh/mesh/transmitter"
)

// Interface is the driver contract a Node's Update/blocking helpers
// need of the host-supplied channel.
type Interface = iface.Interface

// Clock is a monotonic millisecond time source supplied by the host.
type Clock = iface.Clock

// ReceivedQueueCapacity is the reference capacity of the delivered
// packet FIFO.
const ReceivedQueueCapacity = 5

// Config configures a new Node.
type Config struct {
	// DeviceAddress is this node's own exact address.
	DeviceAddress protocol.ExactAddress
	// ListenPeriodMS gates how often this node may transmit: at most
	// one packet per period.
	ListenPeriodMS uint32
}

// ErrQueueFull is returned by SendToExact/Broadcast when the
// originated queue is saturated.
var ErrQueueFull = transmitter.ErrQueueFull

// ErrTimeout is returned by the blocking helpers when no matching
// response arrives before the deadline.
var ErrTimeout = errors.New("timed out waiting for response")

// SpecialSendError is returned by SendPingPong and SendWithTransaction.
// It wraps either ErrQueueFull (could not even enqueue the first step)
// or ErrTimeout (enqueued fine, but no matching reply arrived in time).
type SpecialSendError struct {
	err error
}

func (e *SpecialSendError) Error() string { return e.err.Error() }

func (e *SpecialSendError) Unwrap() error { return e.err }

func specialSendError(err error) *SpecialSendError { return &SpecialSendError{err: err} }

// UpdateError reports queue backpressure observed during one Update
// call. The offending packet was already dropped; this only informs
// the caller backpressure occurred.
type UpdateError struct {
	ReceiveQueueFull bool
	TransitQueueFull bool
}

func (e *UpdateError) Error() string {
	switch {
	case e.ReceiveQueueFull && e.TransitQueueFull:
		return "receive and transit queues are both full"
	case e.ReceiveQueueFull:
		return "receive queue is full"
	case e.TransitQueueFull:
		return "transit queue is full"
	default:
		return "update error"
	}
}

// Node is one mesh participant.
type Node struct {
	cfg Config

	tx    *transmitter.Transmitter
	rx    *receiver.Receiver
	timer *airtime.Timer
	recvQ *queue.Bounded[protocol.Packet]

	Stats stats.Stats
}

// New creates a Node ready to drive with Update.
func New(cfg Config) *Node {
	return &Node{
		cfg:   cfg,
		tx:    transmitter.New(),
		rx:    receiver.New(),
		timer: airtime.New(cfg.ListenPeriodMS),
		recvQ: queue.NewBounded[protocol.Packet](ReceivedQueueCapacity),
	}
}

// SendToExact builds a Normal packet addressed to dst and enqueues it
// for transmission.
func (n *Node) SendToExact(data []byte, dst protocol.ExactAddress, lifetime uint8, ignoreDuplications bool) error {
	pkt := protocol.Pack(protocol.Meta{
		Source:             n.cfg.DeviceAddress,
		Destination:        protocol.Exact(dst),
		Lifetime:           lifetime,
		IgnoreDuplications: ignoreDuplications,
		Data:               data,
	})
	_, err := n.tx.Send(pkt)
	if err != nil {
		n.Stats.IncDroppedQueueFull()
		return ErrQueueFull
	}
	return nil
}

// Broadcast builds a Normal packet addressed to every node (always
// requesting duplicate suppression, since a flood reaches every node
// by multiple paths) and enqueues it for transmission.
func (n *Node) Broadcast(data []byte, lifetime uint8) error {
	pkt := protocol.Pack(protocol.Meta{
		Source:             n.cfg.DeviceAddress,
		Destination:        protocol.Broadcast,
		Lifetime:           lifetime,
		IgnoreDuplications: true,
		Data:               data,
	})
	_, err := n.tx.Send(pkt)
	if err != nil {
		n.Stats.IncDroppedQueueFull()
		return ErrQueueFull
	}
	return nil
}

// Receive pops the head of the received queue, if any.
func (n *Node) Receive() (protocol.Packet, bool) {
	return n.recvQ.Pop()
}

// Update drives one tick of the node: it may transmit a queued packet,
// pulls and parses any available inbound bytes, and routes at most one
// freshly-received packet into the local/transit queues.
func (n *Node) Update(dev Interface, now uint32) error {
	if n.timer.IsTimeToSpeak(now) {
		if sent, _ := n.tx.Update(dev); sent {
			n.Stats.IncPacketsSent()
		}
		n.timer.RecordSpeakTime(now)
	}

	if evicted := n.rx.Update(dev, now); evicted {
		n.Stats.IncFilterTableEviction()
	}

	pkt, err := n.rx.Receive(now)
	if err != nil {
		if errors.Is(err, filter.ErrDuplicationFound) || errors.Is(err, filter.ErrTableFull) {
			n.Stats.IncDroppedDuplicate()
		}
		return nil
	}

	decision, err := router.Route(pkt, n.cfg.DeviceAddress)
	if err != nil {
		if errors.Is(err, router.ErrLifetimeEnded) {
			n.Stats.IncDroppedLifetime()
		} else {
			n.Stats.IncDroppedMalformed()
		}
		return nil
	}

	var upErr UpdateError
	if decision.DeliverOK {
		if pushErr := n.recvQ.Push(decision.Deliver); pushErr != nil {
			upErr.ReceiveQueueFull = true
			n.Stats.IncDroppedQueueFull()
		} else {
			n.Stats.IncPacketsReceived()
		}
	}
	if decision.TransitOK {
		if pushErr := n.tx.SendTransit(decision.Transit); pushErr != nil {
			upErr.TransitQueueFull = true
			n.Stats.IncDroppedQueueFull()
		} else {
			n.Stats.IncPacketsTransited()
		}
	}

	if upErr.ReceiveQueueFull || upErr.TransitQueueFull {
		return &upErr
	}
	return nil
}

// sendState builds a packet in the given protocol state addressed to
// dst and enqueues it for first transmission, returning the id the
// transmitter assigned it.
func (n *Node) sendState(data []byte, dst protocol.ExactAddress, lifetime uint8, state protocol.PacketState) (uint8, error) {
	pkt := protocol.Pack(protocol.Meta{
		Source:      n.cfg.DeviceAddress,
		Destination: protocol.Exact(dst),
		Lifetime:    lifetime,
		State:       state,
		Data:        data,
	})
	id, err := n.tx.Send(pkt)
	if err != nil {
		n.Stats.IncDroppedQueueFull()
		return 0, ErrQueueFull
	}
	return id, nil
}

// SendPingPong sends a one-shot liveness probe to dst and blocks,
// busy-polling Update against nowFn, until a matching Pong arrives or
// timeoutMS elapses. Any packets already sitting in the received queue
// are drained first so they cannot be mistaken for the reply.
func (n *Node) SendPingPong(data []byte, dst protocol.ExactAddress, lifetime uint8, timeoutMS uint32, nowFn Clock, dev Interface) error {
	for {
		if _, ok := n.Receive(); !ok {
			break
		}
	}

	start := nowFn()
	expectedID, err := n.sendState(data, dst, lifetime, protocol.Ping)
	if err != nil {
		return specialSendError(err)
	}

	for {
		now := nowFn()
		if now >= start+timeoutMS {
			return specialSendError(ErrTimeout)
		}
		_ = n.Update(dev, now)
		pkt, ok := n.Receive()
		if !ok {
			continue
		}
		m, err := protocol.Unpack(pkt)
		if err != nil {
			continue
		}
		if m.Source == dst && m.State == protocol.Pong && m.ID == expectedID {
			return nil
		}
	}
}

// SendWithTransaction sends the first step of the four-step
// transaction handshake (SendTxn) to dst and blocks, busy-polling
// Update against nowFn, until the matching FinishTxn arrives or
// timeoutMS elapses. The router's AcceptTxn mutation bumps the
// originator's id by one, so the expected FinishTxn id is
// expectedID+1 (mod 256).
func (n *Node) SendWithTransaction(data []byte, dst protocol.ExactAddress, lifetime uint8, timeoutMS uint32, nowFn Clock, dev Interface) error {
	for {
		if _, ok := n.Receive(); !ok {
			break
		}
	}

	start := nowFn()
	expectedID, err := n.sendState(data, dst, lifetime, protocol.SendTxn)
	if err != nil {
		return specialSendError(err)
	}
	expectedFinishID := expectedID + 1

	for {
		now := nowFn()
		if now >= start+timeoutMS {
			return specialSendError(ErrTimeout)
		}
		_ = n.Update(dev, now)
		pkt, ok := n.Receive()
		if !ok {
			continue
		}
		m, err := protocol.Unpack(pkt)
		if err != nil {
			continue
		}
		if m.Source == dst && m.State == protocol.FinishTxn && m.ID == expectedFinishID {
			return nil
		}
	}
}
