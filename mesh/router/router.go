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

// Package router decides, for one candidate packet already accepted
// by the parser and duplicate filter, whether it is delivered locally,
// forwarded, both, or dropped, and performs the state-machine mutation
// that produces the transit copy.
package router

import (
	"errors"

	"github.com/facebook/nanomesh/mesh/protocol"
)

// ErrLifetimeEnded is returned when a packet requiring another hop has
// no lifetime budget left.
var ErrLifetimeEnded = errors.New("packet lifetime ended")

// Decision is the router's verdict on one candidate packet.
type Decision struct {
	// Deliver is the packet to place in the local received queue, if
	// DeliverOK is true.
	Deliver   protocol.Packet
	DeliverOK bool
	// Transit is the packet to place in the transit queue, if
	// TransitOK is true.
	Transit   protocol.Packet
	TransitOK bool
}

// Route applies the destination/state decision table to pkt, given
// that local is this node's own exact address. It returns ErrLifetimeEnded
// when an elsewhere-addressed packet cannot take another hop and must
// be dropped (a broadcast with no hop budget left is still delivered,
// just without a transit copy), and protocol.ErrRespondToBroadcast
// when a required response mutation cannot be addressed.
func Route(pkt protocol.Packet, local protocol.ExactAddress) (Decision, error) {
	m, err := protocol.Unpack(pkt)
	if err != nil {
		return Decision{}, err
	}

	dst, isExact := m.Destination.AsExact()
	switch {
	case isExact && dst == local:
		return routeToSelf(pkt, m)
	case m.Destination.IsBroadcast():
		return routeBroadcast(pkt, m)
	default:
		return routeElsewhere(pkt, m)
	}
}

func routeToSelf(pkt protocol.Packet, m protocol.Meta) (Decision, error) {
	switch m.State {
	case protocol.Normal, protocol.Pong, protocol.FinishTxn:
		return Decision{Deliver: pkt, DeliverOK: true}, nil
	case protocol.Ping, protocol.InitTxn:
		mutated, err := protocol.Mutated(pkt)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Deliver: pkt, DeliverOK: true, Transit: mutated, TransitOK: true}, nil
	case protocol.SendTxn, protocol.AcceptTxn:
		mutated, err := protocol.Mutated(pkt)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Transit: mutated, TransitOK: true}, nil
	default:
		return Decision{Deliver: pkt, DeliverOK: true}, nil
	}
}

func routeBroadcast(pkt protocol.Packet, m protocol.Meta) (Decision, error) {
	if m.Lifetime <= 1 {
		return Decision{Deliver: pkt, DeliverOK: true}, nil
	}
	transit, err := protocol.DecreaseLifetime(pkt)
	if err != nil {
		return Decision{Deliver: pkt, DeliverOK: true}, nil
	}
	return Decision{Deliver: pkt, DeliverOK: true, Transit: transit, TransitOK: true}, nil
}

func routeElsewhere(pkt protocol.Packet, _ protocol.Meta) (Decision, error) {
	transit, err := protocol.DecreaseLifetime(pkt)
	if err != nil {
		return Decision{}, ErrLifetimeEnded
	}
	return Decision{Transit: transit, TransitOK: true}, nil
}
