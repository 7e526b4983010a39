// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashtable

import (
	"testing"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"github.com/prashantv/gostub"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// absentKeys returns n keys starting at from that are not in m.
func absentKeys(m *CuckooMap[int64, int], from int64, n int) []int64 {
	keys := make([]int64, 0, n)
	for k := from; len(keys) < n; k++ {
		if !m.ContainsKey(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// checkCuckooSlots verifies that every key of the main table sits in one
// of its three candidate slots, that the stash is packed at the front, and
// that the size matches the live entries.
func checkCuckooSlots[K Key, V any](t *testing.T, m *CuckooMap[K, V]) {
	occupied := 0
	for i := 0; i < m.capacity; i++ {
		k := m.keyTable[i]
		if k == 0 {
			continue
		}
		occupied++
		h := uint64(k)
		home := int(h & uint64(m.mask))
		require.True(t, i == home || i == m.hash2(h) || i == m.hash3(h),
			"key %v at %d is not in a candidate slot", k, i)
	}
	for i := m.capacity; i < len(m.keyTable); i++ {
		if i < m.capacity+m.stashSize {
			require.NotZero(t, m.keyTable[i], "hole in stash at %d", i-m.capacity)
			occupied++
		} else {
			require.Zero(t, m.keyTable[i], "key behind the stash at %d", i-m.capacity)
		}
	}
	require.LessOrEqual(t, m.stashSize, m.stashCapacity)
	if m.hasZeroValue {
		occupied++
	}
	require.Equal(t, occupied, m.size)
	if m.capacity < maxTableSize {
		require.Less(t, m.size, m.threshold)
	}
}

func TestCuckooMapParameters(t *testing.T) {
	m, err := NewCuckooMap[int64, int](100, 0.8)
	require.NoError(t, err)
	require.Equal(t, 128, m.capacity)
	require.Equal(t, 127, m.mask)
	require.Equal(t, 102, m.threshold)
	require.Equal(t, 56, m.hashShift)
	require.Equal(t, 14, m.stashCapacity)
	require.Equal(t, 8, m.pushIterations)
	require.Len(t, m.keyTable, 128+14)

	m.setCapacity(1 << 20)
	require.Equal(t, 40, m.stashCapacity)
	require.Equal(t, 128, m.pushIterations)

	m.setCapacity(2)
	require.Equal(t, 3, m.stashCapacity)
	require.Equal(t, 2, m.pushIterations)
}

func TestCuckooMapStash(t *testing.T) {
	m, err := NewCuckooMap[int64, int](16, DefaultLoadFactor)
	require.NoError(t, err)
	for i := int64(1); i <= 5; i++ {
		m.Put(i, int(i))
	}

	before := testutil.ToFloat64(v2.CuckooStashCounter)
	stashed := absentKeys(m, 1000, 3)
	for _, k := range stashed {
		m.putStash(k, int(k))
	}
	require.Equal(t, 3, m.stashSize)
	require.Equal(t, 8, m.Len())
	require.Equal(t, before+3, testutil.ToFloat64(v2.CuckooStashCounter))

	for _, k := range stashed {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, int(k), v)
	}
	old, replaced := m.Put(stashed[1], -1)
	require.True(t, replaced)
	require.Equal(t, int(stashed[1]), old)
	require.Equal(t, 3, m.stashSize)

	old, ok := m.Remove(stashed[0])
	require.True(t, ok)
	require.Equal(t, int(stashed[0]), old)
	require.Equal(t, 2, m.stashSize)
	// the last stash entry moved into the freed slot
	require.Equal(t, stashed[2], m.keyTable[m.capacity])
	v, ok := m.Get(stashed[1])
	require.True(t, ok)
	require.Equal(t, -1, v)

	k, ok := m.FindKey(-1, func(a, b int) bool { return a == b })
	require.True(t, ok)
	require.Equal(t, stashed[1], k)
}

func TestCuckooMapStashIteratorRemove(t *testing.T) {
	m, err := NewCuckooMap[int64, int](16, DefaultLoadFactor)
	require.NoError(t, err)
	for _, k := range absentKeys(m, 1000, 3) {
		m.putStash(k, int(k))
	}

	it := m.Keys()
	visited := 0
	for it.HasNext() {
		_, err := it.Next()
		require.NoError(t, err)
		require.NoError(t, it.Remove())
		visited++
	}
	require.Equal(t, 3, visited)
	require.Equal(t, 0, m.Len())
	require.Equal(t, 0, m.stashSize)
}

func TestCuckooMapFullStashGrowsTable(t *testing.T) {
	m, err := NewCuckooMap[int64, int](4, DefaultLoadFactor)
	require.NoError(t, err)
	capacity := m.capacity

	keys := absentKeys(m, 1, m.stashCapacity+1)
	for _, k := range keys {
		m.putStash(k, int(k))
	}
	require.Greater(t, m.capacity, capacity)
	require.Equal(t, len(keys), m.Len())
	for _, k := range keys {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, int(k), v)
	}
}

func TestCuckooMapStashGrowsAtMaxTableSize(t *testing.T) {
	m, err := NewCuckooMap[int64, int](4, DefaultLoadFactor)
	require.NoError(t, err)

	stubs := gostub.Stub(&maxTableSize, m.capacity)
	defer stubs.Reset()

	capacity, stashCapacity := m.capacity, m.stashCapacity
	keys := absentKeys(m, 1, stashCapacity+4)
	for _, k := range keys {
		m.putStash(k, int(k))
	}
	require.Equal(t, capacity, m.capacity)
	require.Equal(t, stashCapacity+4, m.stashCapacity)
	require.Len(t, m.keyTable, m.capacity+m.stashCapacity)
	for _, k := range keys {
		require.True(t, m.ContainsKey(k))
	}

	// the table stays at the cap, every put still lands somewhere
	for k := int64(-1); k > -200; k-- {
		m.Put(k, int(k))
	}
	require.Equal(t, capacity, m.capacity)
	require.Equal(t, len(keys)+199, m.Len())
	for k := int64(-1); k > -200; k-- {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, int(k), v)
	}
}

func TestCuckooMapTableSizeCap(t *testing.T) {
	stubs := gostub.Stub(&maxTableSize, 1<<10)
	defer stubs.Reset()

	_, err := NewCuckooMap[int64, int](1<<12, DefaultLoadFactor)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = NewLinearMap[int64, int](1<<12, DefaultLoadFactor)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))

	m, err := NewCuckooMap[int64, int](16, DefaultLoadFactor)
	require.NoError(t, err)
	require.True(t, moerr.IsMoErrCode(m.EnsureCapacity(1<<12), moerr.ErrInvalidArg))
}

func TestCuckooMapResize(t *testing.T) {
	m, err := NewCuckooMap[uint32, int](8, DefaultLoadFactor, WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	before := testutil.ToFloat64(v2.CuckooResizeCounter)
	for i := uint32(1); i <= 1000; i++ {
		m.Put(i*2654435761, int(i))
		require.Less(t, m.Len(), m.threshold)
	}
	require.Greater(t, testutil.ToFloat64(v2.CuckooResizeCounter), before)
	for i := uint32(1); i <= 1000; i++ {
		v, ok := m.Get(i * 2654435761)
		require.True(t, ok)
		require.Equal(t, int(i), v)
	}

	for i := uint32(11); i <= 1000; i++ {
		m.Remove(i * 2654435761)
	}
	require.NoError(t, m.Shrink(0))
	require.Equal(t, 16, m.capacity)
	for i := uint32(1); i <= 10; i++ {
		require.True(t, m.ContainsKey(i*2654435761))
	}
	require.True(t, moerr.IsMoErrCode(m.Shrink(-1), moerr.ErrInvalidArg))

	require.NoError(t, m.EnsureCapacity(1000))
	capacity := m.capacity
	for i := uint32(11); i <= 1000; i++ {
		m.Put(i*2654435761, int(i))
	}
	require.Equal(t, capacity, m.capacity)

	require.NoError(t, m.Resize(4000))
	require.Equal(t, 8192, m.capacity)
	require.Equal(t, 1000, m.Len())

	require.NoError(t, m.ClearTo(10))
	require.Equal(t, 0, m.Len())
	require.Equal(t, 16, m.capacity)
	require.False(t, m.ContainsKey(2654435761))
}

func TestCuckooMapSameSeedSameLayout(t *testing.T) {
	a, err := NewCuckooMap[int64, int](8, DefaultLoadFactor, WithSeed(99))
	require.NoError(t, err)
	b, err := NewCuckooMap[int64, int](8, DefaultLoadFactor, WithSeed(99))
	require.NoError(t, err)
	for i := int64(1); i < 5000; i += 3 {
		a.Put(i*i, int(i))
		b.Put(i*i, int(i))
	}
	require.Equal(t, a.keyTable, b.keyTable)
	require.Equal(t, a.stashSize, b.stashSize)
}

func TestCuckooMapRandomKeepsCandidateSlots(t *testing.T) {
	m, err := NewCuckooMap[int64, int](4, DefaultLoadFactor, WithSeed(3))
	require.NoError(t, err)
	r := rand.New(rand.NewSource(5))
	ref := make(map[int64]int)
	for i := 0; i < 20000; i++ {
		// a small key space keeps removals and stash traffic frequent
		k := int64(r.Intn(2048)) - 1024
		switch r.Intn(4) {
		case 0, 1:
			m.Put(k, i)
			ref[k] = i
		case 2:
			m.Remove(k)
			delete(ref, k)
		default:
			it := m.Keys()
			for it.HasNext() {
				key, err := it.Next()
				require.NoError(t, err)
				if key == k {
					require.NoError(t, it.Remove())
					delete(ref, k)
					break
				}
			}
		}
		if i%97 == 0 {
			checkCuckooSlots(t, m)
		}
	}
	checkCuckooSlots(t, m)
	require.Equal(t, len(ref), m.Len())
	for k, v := range ref {
		got, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}

func TestCuckooMapSmallLoadFactorGrowsOnce(t *testing.T) {
	m, err := NewCuckooMap[int64, int](0, 0.1, WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, 2, m.capacity)

	before := testutil.ToFloat64(v2.CuckooResizeCounter)
	m.Put(1, 1)
	// 2 slots hold nothing at 0.1, the first key needs 32
	require.Equal(t, 32, m.capacity)
	require.Equal(t, before+1, testutil.ToFloat64(v2.CuckooResizeCounter))

	for k := int64(2); k <= 200; k++ {
		m.Put(k, int(k))
		require.Less(t, m.Len(), m.threshold)
		if k%17 == 0 {
			checkCuckooSlots(t, m)
		}
	}
	m.Put(0, 0)
	require.Less(t, m.Len(), m.threshold)
	checkCuckooSlots(t, m)
}

func TestCuckooMapPutAllPastPresizeLimit(t *testing.T) {
	src, err := NewLinearMap[int64, int](64, DefaultLoadFactor)
	require.NoError(t, err)
	for k := int64(1); k <= 60; k++ {
		src.Put(k*7919, int(k))
	}

	dst, err := NewCuckooMap[int64, int](8, DefaultLoadFactor, WithSeed(2))
	require.NoError(t, err)
	stubs := gostub.Stub(&maxTableSize, 64)
	defer stubs.Reset()

	require.True(t, moerr.IsMoErrCode(dst.EnsureCapacity(src.Len()), moerr.ErrInvalidArg))
	PutAll[int64, int](dst, src)
	require.Equal(t, 64, dst.capacity)
	require.Equal(t, src.Len(), dst.Len())
	require.True(t, Equal[int64, int](src, dst, func(a, b int) bool { return a == b }))
	checkCuckooSlots(t, dst)
}
