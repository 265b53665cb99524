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

// Package stats holds atomic counters observing a running Node: what
// it sent, received, transited, and dropped, and why. Counters are
// incremented inline by the core at the exact point a decision is
// made; reading a Snapshot never coordinates with the node's update
// loop, so an exporter goroutine can poll it concurrently.
package stats

import "sync/atomic"

// Stats is a set of monotonic counters. The zero value is ready to use.
type Stats struct {
	// keep these aligned to 64-bit for sync/atomic
	packetsSent             int64
	packetsReceived         int64
	packetsTransited        int64
	packetsDroppedDuplicate int64
	packetsDroppedLifetime  int64
	packetsDroppedQueueFull int64
	packetsDroppedMalformed int64
	filterTableEvictions    int64
}

// Snapshot is a point-in-time copy of Stats' counters.
type Snapshot struct {
	PacketsSent             int64
	PacketsReceived         int64
	PacketsTransited        int64
	PacketsDroppedDuplicate int64
	PacketsDroppedLifetime  int64
	PacketsDroppedQueueFull int64
	PacketsDroppedMalformed int64
	FilterTableEvictions    int64
}

// IncPacketsSent counts a packet (transit or originated) the transmitter wrote to the interface.
func (s *Stats) IncPacketsSent() { atomic.AddInt64(&s.packetsSent, 1) }

// IncPacketsReceived counts a packet delivered to the local received queue.
func (s *Stats) IncPacketsReceived() { atomic.AddInt64(&s.packetsReceived, 1) }

// IncPacketsTransited counts a packet forwarded to the transit queue.
func (s *Stats) IncPacketsTransited() { atomic.AddInt64(&s.packetsTransited, 1) }

// IncDroppedDuplicate counts a packet rejected by the duplicate filter.
func (s *Stats) IncDroppedDuplicate() { atomic.AddInt64(&s.packetsDroppedDuplicate, 1) }

// IncDroppedLifetime counts a packet dropped with no hop budget left.
func (s *Stats) IncDroppedLifetime() { atomic.AddInt64(&s.packetsDroppedLifetime, 1) }

// IncDroppedQueueFull counts a packet dropped because a FIFO was saturated.
func (s *Stats) IncDroppedQueueFull() { atomic.AddInt64(&s.packetsDroppedQueueFull, 1) }

// IncDroppedMalformed counts a packet the router rejected for a reason
// other than lifetime, such as a response that would have to be
// addressed to broadcast. Frames the parser discards for a bad checksum
// or a zero source are not counted.
func (s *Stats) IncDroppedMalformed() { atomic.AddInt64(&s.packetsDroppedMalformed, 1) }

// IncFilterTableEviction counts a duplicate-filter entry evicted on expiry.
func (s *Stats) IncFilterTableEviction() { atomic.AddInt64(&s.filterTableEvictions, 1) }

// Snapshot returns the current values of every counter.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		PacketsSent:             atomic.LoadInt64(&s.packetsSent),
		PacketsReceived:         atomic.LoadInt64(&s.packetsReceived),
		PacketsTransited:        atomic.LoadInt64(&s.packetsTransited),
		PacketsDroppedDuplicate: atomic.LoadInt64(&s.packetsDroppedDuplicate),
		PacketsDroppedLifetime:  atomic.LoadInt64(&s.packetsDroppedLifetime),
		PacketsDroppedQueueFull: atomic.LoadInt64(&s.packetsDroppedQueueFull),
		PacketsDroppedMalformed: atomic.LoadInt64(&s.packetsDroppedMalformed),
		FilterTableEvictions:    atomic.LoadInt64(&s.filterTableEvictions),
	}
}
