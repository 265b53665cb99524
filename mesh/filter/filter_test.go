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

package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/nanomesh/mesh/protocol"
)

func dedupMeta(id uint8) protocol.Meta {
	return protocol.Meta{Source: 1, ID: id, IgnoreDuplications: true}
}

func TestPassThroughWhenDedupNotRequested(t *testing.T) {
	f := New()
	m := protocol.Meta{Source: 1, ID: 5}
	require.NoError(t, f.Apply(m, 0))
	require.NoError(t, f.Apply(m, 0), "non-deduped packets are never tracked")
	require.Equal(t, 0, f.Len())
}

func TestRejectsDuplicateWithinWindow(t *testing.T) {
	f := New()
	m := dedupMeta(1)
	require.NoError(t, f.Apply(m, 100))
	require.ErrorIs(t, f.Apply(m, 100+IgnorePeriodMS), ErrDuplicationFound)
}

func TestAdmitsAfterWindowExpires(t *testing.T) {
	f := New()
	m := dedupMeta(1)
	require.NoError(t, f.Apply(m, 0))
	require.NoError(t, f.Apply(m, IgnorePeriodMS+1))
}

func TestTableFullRejectsNewEntries(t *testing.T) {
	f := New()
	for i := 0; i < TableSize; i++ {
		require.NoError(t, f.Apply(dedupMeta(uint8(i)), 0))
	}
	require.ErrorIs(t, f.Apply(dedupMeta(TableSize), 0), ErrTableFull)
}

func TestTickEvictsOneExpiredEntryPerCall(t *testing.T) {
	f := New()
	require.NoError(t, f.Apply(dedupMeta(1), 0))
	require.NoError(t, f.Apply(dedupMeta(2), 0))
	require.Equal(t, 2, f.Len())

	f.Tick(IgnorePeriodMS + 1)
	require.Equal(t, 1, f.Len())
	f.Tick(IgnorePeriodMS + 1)
	require.Equal(t, 0, f.Len())
}
