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
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/common/reuse"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type mapKind struct {
	name string
	new  func(capacity int) (Map[int64, string], error)
}

func mapKinds() []mapKind {
	return []mapKind{
		{"cuckoo", func(capacity int) (Map[int64, string], error) {
			return NewCuckooMap[int64, string](capacity, DefaultLoadFactor, WithSeed(7))
		}},
		{"linear", func(capacity int) (Map[int64, string], error) {
			return NewLinearMap[int64, string](capacity, DefaultLoadFactor)
		}},
		{"sorted", func(capacity int) (Map[int64, string], error) {
			base, err := NewLinearMap[int64, string](capacity, DefaultLoadFactor)
			if err != nil {
				return nil, err
			}
			return NewSortedMap[int64, string](base), nil
		}},
	}
}

func forEachKind(t *testing.T, capacity int, fn func(t *testing.T, m Map[int64, string])) {
	for _, kind := range mapKinds() {
		t.Run(kind.name, func(t *testing.T) {
			m, err := kind.new(capacity)
			require.NoError(t, err)
			fn(t, m)
		})
	}
}

func stringEq(a, b string) bool {
	return a == b
}

func TestMapPutGetRemoveScenario(t *testing.T) {
	forEachKind(t, DefaultCapacity, func(t *testing.T, m Map[int64, string]) {
		for _, k := range []int64{123, 34, 0} {
			_, replaced := m.Put(k, fmt.Sprintf("Example%d", k))
			require.False(t, replaced)
		}
		require.Equal(t, 3, m.Len())

		old, replaced := m.Put(123, "Changed")
		require.True(t, replaced)
		require.Equal(t, "Example123", old)
		require.Equal(t, 3, m.Len())

		v, ok := m.Get(0)
		require.True(t, ok)
		require.Equal(t, "Example0", v)

		for _, k := range []int64{123, 34, 0} {
			_, ok := m.Remove(k)
			require.True(t, ok)
		}
		require.Equal(t, 0, m.Len())
		_, ok = m.Get(123)
		require.False(t, ok)
		_, ok = m.Remove(34)
		require.False(t, ok)
	})
}

func TestMapAgainstBuiltin(t *testing.T) {
	forEachKind(t, 4, func(t *testing.T, m Map[int64, string]) {
		r := rand.New(rand.NewSource(42))
		expected := make(map[int64]string)
		for i := 0; i < 20000; i++ {
			k := int64(r.Intn(2000)) - 1000
			switch r.Intn(3) {
			case 0, 1:
				v := fmt.Sprint(i)
				old, replaced := m.Put(k, v)
				prev, had := expected[k]
				require.Equal(t, had, replaced)
				require.Equal(t, prev, old)
				expected[k] = v
			default:
				old, ok := m.Remove(k)
				prev, had := expected[k]
				require.Equal(t, had, ok)
				require.Equal(t, prev, old)
				delete(expected, k)
			}
			require.Equal(t, len(expected), m.Len())
		}
		for k, v := range expected {
			got, ok := m.Get(k)
			require.True(t, ok, "key %d", k)
			require.Equal(t, v, got)
			require.True(t, m.ContainsKey(k))
		}
		seen := 0
		m.Range(func(k int64, v string) bool {
			require.Equal(t, expected[k], v)
			seen++
			return true
		})
		require.Equal(t, len(expected), seen)

		m.Clear()
		require.Equal(t, 0, m.Len())
		for k := range expected {
			require.False(t, m.ContainsKey(k))
		}
	})
}

func TestMapIterators(t *testing.T) {
	forEachKind(t, DefaultCapacity, func(t *testing.T, m Map[int64, string]) {
		for i := int64(0); i < 100; i++ {
			m.Put(i, fmt.Sprint(i))
		}

		keys, err := m.Keys().ToSlice()
		require.NoError(t, err)
		require.Len(t, keys, 100)
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for i, k := range keys {
			require.Equal(t, int64(i), k)
		}

		values, err := m.Values().ToSlice()
		require.NoError(t, err)
		require.Len(t, values, 100)

		entries := m.Entries()
		n := 0
		for entries.HasNext() {
			e, err := entries.Next()
			require.NoError(t, err)
			require.Equal(t, fmt.Sprint(e.Key), e.Value)
			n++
		}
		require.Equal(t, 100, n)
		_, err = entries.Next()
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrIterExhausted))
	})
}

func TestMapIteratorRemove(t *testing.T) {
	forEachKind(t, 8, func(t *testing.T, m Map[int64, string]) {
		for i := int64(-50); i < 50; i++ {
			m.Put(i, fmt.Sprint(i))
		}

		it := m.Keys()
		require.True(t, moerr.IsMoErrCode(it.Remove(), moerr.ErrIllegalState))
		for it.HasNext() {
			k, err := it.Next()
			require.NoError(t, err)
			if k%2 == 0 {
				require.NoError(t, it.Remove())
				require.True(t, moerr.IsMoErrCode(it.Remove(), moerr.ErrIllegalState))
			}
		}
		require.Equal(t, 50, m.Len())
		for i := int64(-50); i < 50; i++ {
			require.Equal(t, i%2 != 0, m.ContainsKey(i), "key %d", i)
		}

		entries := m.Entries()
		for entries.HasNext() {
			_, err := entries.Next()
			require.NoError(t, err)
			require.NoError(t, entries.Remove())
		}
		require.Equal(t, 0, m.Len())
	})
}

func TestMapNestedIteration(t *testing.T) {
	forEachKind(t, DefaultCapacity, func(t *testing.T, m Map[int64, string]) {
		m.Put(1, "a")
		m.Put(2, "b")

		outer := m.Keys()
		inner := m.Keys()
		require.NotSame(t, outer, inner)

		_, err := outer.Next()
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrNestedIteration))
		_, err = inner.Next()
		require.NoError(t, err)

		third := m.Keys()
		require.Same(t, outer, third)
		_, err = inner.Next()
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrNestedIteration))
		require.True(t, moerr.IsMoErrCode(inner.Remove(), moerr.ErrNestedIteration))

		reuse.RunWithAllocatedIterators(func() {
			a, b := m.Values(), m.Values()
			_, err := a.Next()
			require.NoError(t, err)
			_, err = b.Next()
			require.NoError(t, err)
		})
	})
}

func TestMapZeroKey(t *testing.T) {
	forEachKind(t, DefaultCapacity, func(t *testing.T, m Map[int64, string]) {
		_, ok := m.Get(0)
		require.False(t, ok)
		require.False(t, m.ContainsKey(0))

		m.Put(0, "zero")
		m.Put(5, "five")
		require.Equal(t, 2, m.Len())

		entries := m.Entries()
		found := false
		for entries.HasNext() {
			e, err := entries.Next()
			require.NoError(t, err)
			if e.Key == 0 {
				require.Equal(t, "zero", e.Value)
				require.NoError(t, entries.Remove())
				found = true
			}
		}
		require.True(t, found)
		require.Equal(t, 1, m.Len())
		require.False(t, m.ContainsKey(0))
	})
}

func TestMapConstructorErrors(t *testing.T) {
	_, err := NewCuckooMap[int32, int](-1, DefaultLoadFactor)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = NewLinearMap[int32, int](-1, DefaultLoadFactor)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))

	for _, lf := range []float32{0, -0.5, 1, 1.5} {
		_, err = NewCuckooMap[int32, int](16, lf)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg), "load factor %v", lf)
		_, err = NewLinearMap[int32, int](16, lf)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg), "load factor %v", lf)
	}

	m, err := NewLinearMap[uint8, int](0, 0.5)
	require.NoError(t, err)
	require.Equal(t, 0, m.Len())
}

func TestMapEqualHashString(t *testing.T) {
	c, err := NewCuckooMap[int64, string](4, DefaultLoadFactor)
	require.NoError(t, err)
	l, err := NewLinearMap[int64, string](64, 0.5)
	require.NoError(t, err)

	require.Equal(t, "[]", c.String())
	require.True(t, Equal[int64, string](c, l, stringEq))

	c.Put(5, "a")
	require.Equal(t, "[5=a]", c.String())
	require.False(t, Equal[int64, string](c, l, stringEq))

	for i := int64(0); i < 40; i++ {
		c.Put(i*7, fmt.Sprint(i))
		l.Put(i*7, fmt.Sprint(i))
	}
	hv := func(s string) uint64 {
		var h uint64
		for _, b := range []byte(s) {
			h = h*31 + uint64(b)
		}
		return h
	}
	require.False(t, Equal[int64, string](c, l, stringEq))
	c.Remove(5)
	require.True(t, Equal[int64, string](c, l, stringEq))
	require.True(t, Equal[int64, string](l, c, stringEq))
	require.Equal(t, Hash[int64, string](c, hv), Hash[int64, string](l, hv))

	l.Put(7, "other")
	require.False(t, Equal[int64, string](c, l, stringEq))

	s := NewSortedMap[int64, string](l)
	require.True(t, strings.HasPrefix(s.String(), "[0=0, 7=other, 14=2, "))
}

func TestMapFindKeyAndPutAll(t *testing.T) {
	c, err := NewCuckooMap[int16, string](DefaultCapacity, DefaultLoadFactor)
	require.NoError(t, err)
	l, err := NewLinearMap[int16, string](DefaultCapacity, DefaultLoadFactor)
	require.NoError(t, err)

	c.Put(3, "three")
	c.Put(0, "zero")
	k, ok := c.FindKey("three", stringEq)
	require.True(t, ok)
	require.Equal(t, int16(3), k)
	k, ok = c.FindKey("zero", stringEq)
	require.True(t, ok)
	require.Equal(t, int16(0), k)
	require.False(t, c.ContainsValue("four", stringEq))

	l.PutAll(c)
	require.Equal(t, 2, l.Len())
	require.True(t, l.ContainsValue("three", stringEq))
	require.Equal(t, "none", l.GetOrDefault(9, "none"))
	require.Equal(t, "three", l.GetOrDefault(3, "none"))
}

func TestMapIteratorOnRemove(t *testing.T) {
	forEachKind(t, 8, func(t *testing.T, m Map[int64, string]) {
		for _, k := range []int64{0, 5, -3, 40} {
			m.Put(k, "v")
		}
		var removed []int64
		it := m.Values()
		it.OnRemove(func(key int64) { removed = append(removed, key) })
		require.True(t, moerr.IsMoErrCode(it.Remove(), moerr.ErrIllegalState))
		for it.HasNext() {
			_, err := it.Next()
			require.NoError(t, err)
			require.NoError(t, it.Remove())
		}
		sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
		require.Equal(t, []int64{-3, 0, 5, 40}, removed)
		require.Zero(t, m.Len())

		// handing the instance out again drops the hook
		m.Put(7, "v")
		m.Values()
		again := m.Values()
		require.Same(t, it, again)
		_, err := again.Next()
		require.NoError(t, err)
		require.NoError(t, again.Remove())
		require.Len(t, removed, 4)
	})
}
