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
	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/common/reuse"
	"golang.org/x/exp/slices"
)

// SortedMap keeps the keys of a base map in ascending order next to it.
// Lookups go to the base map, ordered traversal goes through the sorted
// key buffer. Inserting a new key costs a sort of the buffer.
type SortedMap[K Key, V any] struct {
	base       Map[K, V]
	sortedKeys []K

	iters      iterators[K, V]
	ascending  reuse.Pair[*SortedKeyIterator[K, V]]
	descending reuse.Pair[*SortedKeyIterator[K, V]]
}

var _ Map[int64, struct{}] = (*SortedMap[int64, struct{}])(nil)

// NewSortedMap wraps base, whose current keys become the initial order.
func NewSortedMap[K Key, V any](base Map[K, V]) *SortedMap[K, V] {
	m := &SortedMap[K, V]{
		base:       base,
		sortedKeys: make([]K, 0, base.Len()),
	}
	base.Range(func(k K, _ V) bool {
		m.sortedKeys = append(m.sortedKeys, k)
		return true
	})
	slices.Sort(m.sortedKeys)
	m.iters = newIterators[K, V](sortedSlots[K, V]{m})
	m.ascending = reuse.NewPair(func() *SortedKeyIterator[K, V] {
		return &SortedKeyIterator[K, V]{m: m}
	})
	m.descending = reuse.NewPair(func() *SortedKeyIterator[K, V] {
		return &SortedKeyIterator[K, V]{m: m, descending: true}
	})
	return m
}

func (m *SortedMap[K, V]) Put(key K, value V) (V, bool) {
	old, replaced := m.base.Put(key, value)
	if !replaced {
		m.sortedKeys = append(m.sortedKeys, key)
		slices.Sort(m.sortedKeys)
	}
	return old, replaced
}

func (m *SortedMap[K, V]) Get(key K) (V, bool) {
	return m.base.Get(key)
}

func (m *SortedMap[K, V]) Remove(key K) (V, bool) {
	old, ok := m.base.Remove(key)
	if ok {
		m.removeSorted(key)
	}
	return old, ok
}

func (m *SortedMap[K, V]) removeSorted(key K) {
	if i := slices.Index(m.sortedKeys, key); i >= 0 {
		m.sortedKeys = slices.Delete(m.sortedKeys, i, i+1)
	}
}

func (m *SortedMap[K, V]) ContainsKey(key K) bool {
	return m.base.ContainsKey(key)
}

func (m *SortedMap[K, V]) Len() int {
	return m.base.Len()
}

func (m *SortedMap[K, V]) Clear() {
	m.base.Clear()
	m.sortedKeys = m.sortedKeys[:0]
}

// Range visits the entries in ascending key order.
func (m *SortedMap[K, V]) Range(fn func(key K, value V) bool) {
	for _, k := range m.sortedKeys {
		v, _ := m.base.Get(k)
		if !fn(k, v) {
			return
		}
	}
}

// Keys iterates in ascending key order, like Values and Entries.
func (m *SortedMap[K, V]) Keys() *KeyIterator[K, V] {
	return m.iters.keys.Acquire()
}

func (m *SortedMap[K, V]) Values() *ValueIterator[K, V] {
	return m.iters.values.Acquire()
}

func (m *SortedMap[K, V]) Entries() *EntryIterator[K, V] {
	return m.iters.entries.Acquire()
}

func (m *SortedMap[K, V]) AscendingKeys() *SortedKeyIterator[K, V] {
	return m.ascending.Acquire()
}

func (m *SortedMap[K, V]) DescendingKeys() *SortedKeyIterator[K, V] {
	return m.descending.Acquire()
}

func (m *SortedMap[K, V]) FirstKey() (K, error) {
	if len(m.sortedKeys) == 0 {
		return 0, moerr.NewEmptyCollectionNoCtx("first key")
	}
	return m.sortedKeys[0], nil
}

func (m *SortedMap[K, V]) LastKey() (K, error) {
	if len(m.sortedKeys) == 0 {
		return 0, moerr.NewEmptyCollectionNoCtx("last key")
	}
	return m.sortedKeys[len(m.sortedKeys)-1], nil
}

// KeyAt returns the i-th smallest key.
func (m *SortedMap[K, V]) KeyAt(i int) (K, error) {
	if i < 0 || i >= len(m.sortedKeys) {
		return 0, moerr.NewIndexOutOfBoundsNoCtx(i, len(m.sortedKeys))
	}
	return m.sortedKeys[i], nil
}

func (m *SortedMap[K, V]) String() string {
	return formatMap[K, V](m)
}

// SortedKeyIterator walks the keys of a SortedMap in ascending or
// descending order.
type SortedKeyIterator[K Key, V any] struct {
	reuse.Guard

	m          *SortedMap[K, V]
	descending bool
	// next is the position of the key Next returns.
	next    int
	current int
}

func (it *SortedKeyIterator[K, V]) Reset() {
	it.current = indexIllegal
	if it.descending {
		it.next = len(it.m.sortedKeys) - 1
	} else {
		it.next = 0
	}
}

func (it *SortedKeyIterator[K, V]) HasNext() bool {
	return it.next >= 0 && it.next < len(it.m.sortedKeys)
}

func (it *SortedKeyIterator[K, V]) Next() (K, error) {
	if err := it.Check(); err != nil {
		return 0, err
	}
	if !it.HasNext() {
		return 0, moerr.NewIterExhaustedNoCtx()
	}
	it.current = it.next
	if it.descending {
		it.next--
	} else {
		it.next++
	}
	return it.m.sortedKeys[it.current], nil
}

// Remove deletes the key last returned by Next from the map.
func (it *SortedKeyIterator[K, V]) Remove() error {
	if err := it.Check(); err != nil {
		return err
	}
	if it.current < 0 {
		return moerr.NewIllegalStateNoCtx("remove called before next")
	}
	key := it.m.sortedKeys[it.current]
	it.m.base.Remove(key)
	it.m.sortedKeys = slices.Delete(it.m.sortedKeys, it.current, it.current+1)
	if !it.descending {
		it.next--
	}
	it.current = indexIllegal
	return nil
}

// ToSlice drains the remaining keys.
func (it *SortedKeyIterator[K, V]) ToSlice() ([]K, error) {
	var keys []K
	for it.HasNext() {
		k, err := it.Next()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// sortedSlots presents the sorted key buffer as a slot table in which
// every slot is live, the zero key included.
type sortedSlots[K Key, V any] struct {
	m *SortedMap[K, V]
}

func (s sortedSlots[K, V]) zeroEntry() (V, bool) {
	var zero V
	return zero, false
}

func (s sortedSlots[K, V]) slotEnd() int {
	return len(s.m.sortedKeys)
}

func (s sortedSlots[K, V]) occupied(int) bool {
	return true
}

func (s sortedSlots[K, V]) slotKey(i int) K {
	return s.m.sortedKeys[i]
}

func (s sortedSlots[K, V]) slotValue(i int) V {
	v, _ := s.m.base.Get(s.m.sortedKeys[i])
	return v
}

func (s sortedSlots[K, V]) removeZero() {}

func (s sortedSlots[K, V]) removeSlot(i int) bool {
	s.m.base.Remove(s.m.sortedKeys[i])
	s.m.sortedKeys = slices.Delete(s.m.sortedKeys, i, i+1)
	return i < len(s.m.sortedKeys)
}
