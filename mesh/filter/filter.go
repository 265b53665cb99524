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

// Package filter suppresses echoes of packets the originator marked
// with IGNORE_DUPLICATIONS, remembering (source, id) pairs for a
// configurable window.
package filter

import (
	"errors"

	"github.com/facebook/nanomesh/mesh/protocol"
)

// TableSize is the maximum number of tracked (source, id) entries.
const TableSize = 8

// IgnorePeriodMS is the dedup window, in milliseconds.
const IgnorePeriodMS uint32 = 1000

// ErrDuplicationFound is returned when a flagged packet's
// (source, id) was already admitted within the ignore window.
var ErrDuplicationFound = errors.New("duplicate packet within ignore window")

// ErrTableFull is returned when a new entry cannot be recorded because
// the table is already at capacity.
var ErrTableFull = errors.New("duplicate filter table is full")

type key struct {
	source protocol.ExactAddress
	id     uint8
}

type entry struct {
	key       key
	expiresAt uint32
}

// Filter is the duplicate-suppression table.
type Filter struct {
	entries []entry
}

// New creates an empty Filter.
func New() *Filter {
	return &Filter{entries: make([]entry, 0, TableSize)}
}

// Apply passes packets that do not request dedup through unchanged.
// For packets that do, it fails with ErrDuplicationFound if the
// (source, id) pair is still within its ignore window, or with
// ErrTableFull if a new entry cannot be recorded. On success it
// records the pair with an expiry of now+IgnorePeriodMS.
func (f *Filter) Apply(m protocol.Meta, now uint32) error {
	if !m.IgnoreDuplications {
		return nil
	}
	k := key{source: m.Source, id: m.ID}
	for i := range f.entries {
		if f.entries[i].key == k && now <= f.entries[i].expiresAt {
			return ErrDuplicationFound
		}
	}
	if len(f.entries) >= TableSize {
		return ErrTableFull
	}
	f.entries = append(f.entries, entry{key: k, expiresAt: now + IgnorePeriodMS})
	return nil
}

// Tick evicts at most one expired entry, bounding the per-call work so
// callers can invoke it on every poll without an unbounded sweep. It
// reports whether an entry was evicted.
func (f *Filter) Tick(now uint32) bool {
	for i := range f.entries {
		if now > f.entries[i].expiresAt {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports the number of tracked entries.
func (f *Filter) Len() int {
	return len(f.entries)
}
