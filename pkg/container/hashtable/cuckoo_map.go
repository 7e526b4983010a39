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
	"math"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// CuckooMap is an unordered map using cuckoo hashing with three hashes,
// random walk insertion and a small stash for keys that could not be
// placed. Lookups probe at most three slots plus the stash.
//
// Keys sit either in one of their three candidate slots or in the stash,
// which lives right behind the main table in the same arrays.
type CuckooMap[K Key, V any] struct {
	keyTable   []K
	valueTable []V

	size         int
	zeroValue    V
	hasZeroValue bool

	loadFactor     float32
	capacity       int
	stashSize      int
	stashCapacity  int
	pushIterations int
	hashShift      int
	mask           int
	threshold      int
	rehashing      bool

	rand *rand.Rand

	iters iterators[K, V]
}

var _ Map[int64, struct{}] = (*CuckooMap[int64, struct{}])(nil)

// NewCuckooMap creates a map that holds capacity entries before growing.
func NewCuckooMap[K Key, V any](capacity int, loadFactor float32, opts ...Option) (*CuckooMap[K, V], error) {
	if err := checkLoadFactor(loadFactor); err != nil {
		return nil, err
	}
	size, err := tableSize(capacity, loadFactor)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	m := &CuckooMap[K, V]{
		loadFactor: loadFactor,
		rand:       o.rand,
	}
	m.setCapacity(size)
	m.keyTable = make([]K, size+m.stashCapacity)
	m.valueTable = make([]V, size+m.stashCapacity)
	m.iters = newIterators[K, V](m)
	return m, nil
}

func (m *CuckooMap[K, V]) setCapacity(size int) {
	m.capacity = size
	m.mask = size - 1
	m.threshold = int(float32(size) * m.loadFactor)
	m.hashShift = 63 - log2(size)
	m.stashCapacity = max(3, int(math.Ceil(math.Log2(float64(size))))*2)
	m.pushIterations = max(min(size, 8), int(math.Sqrt(float64(size)))/8)
}

func (m *CuckooMap[K, V]) hash2(h uint64) int {
	return mixPlace(h, m2, m.hashShift, m.mask)
}

func (m *CuckooMap[K, V]) hash3(h uint64) int {
	return mixPlace(h, m3, m.hashShift, m.mask)
}

func (m *CuckooMap[K, V]) Put(key K, value V) (V, bool) {
	if key == 0 {
		old, replaced := m.zeroValue, m.hasZeroValue
		m.zeroValue = value
		if !m.hasZeroValue {
			m.hasZeroValue = true
			m.size++
			m.growIfNeeded()
		}
		return old, replaced
	}

	keyTable := m.keyTable
	h := uint64(key)

	index1 := int(h & uint64(m.mask))
	key1 := keyTable[index1]
	if key1 == key {
		old := m.valueTable[index1]
		m.valueTable[index1] = value
		return old, true
	}

	index2 := m.hash2(h)
	key2 := keyTable[index2]
	if key2 == key {
		old := m.valueTable[index2]
		m.valueTable[index2] = value
		return old, true
	}

	index3 := m.hash3(h)
	key3 := keyTable[index3]
	if key3 == key {
		old := m.valueTable[index3]
		m.valueTable[index3] = value
		return old, true
	}

	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if keyTable[i] == key {
			old := m.valueTable[i]
			m.valueTable[i] = value
			return old, true
		}
	}

	var zero V
	switch {
	case key1 == 0:
		m.place(index1, key, value)
	case key2 == 0:
		m.place(index2, key, value)
	case key3 == 0:
		m.place(index3, key, value)
	default:
		m.push(key, value, index1, key1, index2, key2, index3, key3)
	}
	return zero, false
}

// putResize inserts a key known to be absent.
func (m *CuckooMap[K, V]) putResize(key K, value V) {
	if key == 0 {
		m.zeroValue = value
		if !m.hasZeroValue {
			m.hasZeroValue = true
			m.size++
		}
		return
	}

	h := uint64(key)
	index1 := int(h & uint64(m.mask))
	key1 := m.keyTable[index1]
	if key1 == 0 {
		m.place(index1, key, value)
		return
	}
	index2 := m.hash2(h)
	key2 := m.keyTable[index2]
	if key2 == 0 {
		m.place(index2, key, value)
		return
	}
	index3 := m.hash3(h)
	key3 := m.keyTable[index3]
	if key3 == 0 {
		m.place(index3, key, value)
		return
	}
	m.push(key, value, index1, key1, index2, key2, index3, key3)
}

func (m *CuckooMap[K, V]) place(i int, key K, value V) {
	m.keyTable[i] = key
	m.valueTable[i] = value
	m.size++
	m.growIfNeeded()
}

// growIfNeeded is a no-op during a rehash; resize picks a size that
// already fits every entry.
func (m *CuckooMap[K, V]) growIfNeeded() {
	if m.rehashing || m.size < m.threshold || m.capacity >= maxTableSize {
		return
	}
	m.resize(grownSize(m.size, m.capacity, m.loadFactor))
}

// push walks an eviction chain: the new key takes a random candidate slot
// of the three, the evicted key looks for an empty candidate of its own,
// and so on. After pushIterations steps the homeless key goes to the stash.
func (m *CuckooMap[K, V]) push(insertKey K, insertValue V, index1 int, key1 K, index2 int, key2 K, index3 int, key3 K) {
	keyTable, valueTable := m.keyTable, m.valueTable
	mask := uint64(m.mask)

	var evictedKey K
	var evictedValue V
	for i := 0; ; {
		switch m.rand.Intn(3) {
		case 0:
			evictedKey = key1
			evictedValue = valueTable[index1]
			keyTable[index1] = insertKey
			valueTable[index1] = insertValue
		case 1:
			evictedKey = key2
			evictedValue = valueTable[index2]
			keyTable[index2] = insertKey
			valueTable[index2] = insertValue
		default:
			evictedKey = key3
			evictedValue = valueTable[index3]
			keyTable[index3] = insertKey
			valueTable[index3] = insertValue
		}

		h := uint64(evictedKey)
		index1 = int(h & mask)
		key1 = keyTable[index1]
		if key1 == 0 {
			m.place(index1, evictedKey, evictedValue)
			return
		}
		index2 = m.hash2(h)
		key2 = keyTable[index2]
		if key2 == 0 {
			m.place(index2, evictedKey, evictedValue)
			return
		}
		index3 = m.hash3(h)
		key3 = keyTable[index3]
		if key3 == 0 {
			m.place(index3, evictedKey, evictedValue)
			return
		}

		i++
		if i == m.pushIterations {
			break
		}
		insertKey = evictedKey
		insertValue = evictedValue
	}

	m.putStash(evictedKey, evictedValue)
}

func (m *CuckooMap[K, V]) putStash(key K, value V) {
	if m.stashSize == m.stashCapacity {
		if m.capacity < maxTableSize {
			// stash is full, a bigger table spreads the keys again
			m.resize(m.capacity << 1)
			m.putResize(key, value)
			return
		}
		// the table cannot grow any more, so the stash does
		m.stashCapacity++
		var zero V
		m.keyTable = append(m.keyTable, 0)
		m.valueTable = append(m.valueTable, zero)
	}
	i := m.capacity + m.stashSize
	m.keyTable[i] = key
	m.valueTable[i] = value
	m.stashSize++
	m.size++
	v2.CuckooStashCounter.Inc()
	m.growIfNeeded()
}

func (m *CuckooMap[K, V]) Get(key K) (V, bool) {
	if key == 0 {
		return m.zeroValue, m.hasZeroValue
	}
	h := uint64(key)
	i := int(h & uint64(m.mask))
	if m.keyTable[i] != key {
		i = m.hash2(h)
		if m.keyTable[i] != key {
			i = m.hash3(h)
			if m.keyTable[i] != key {
				return m.getStash(key)
			}
		}
	}
	return m.valueTable[i], true
}

func (m *CuckooMap[K, V]) getStash(key K) (V, bool) {
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if m.keyTable[i] == key {
			return m.valueTable[i], true
		}
	}
	var zero V
	return zero, false
}

// GetOrDefault returns the value of key, or def if key is absent.
func (m *CuckooMap[K, V]) GetOrDefault(key K, def V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	return def
}

func (m *CuckooMap[K, V]) ContainsKey(key K) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *CuckooMap[K, V]) Remove(key K) (V, bool) {
	var zero V
	if key == 0 {
		if !m.hasZeroValue {
			return zero, false
		}
		old := m.zeroValue
		m.removeZero()
		return old, true
	}

	h := uint64(key)
	i := int(h & uint64(m.mask))
	if m.keyTable[i] != key {
		i = m.hash2(h)
		if m.keyTable[i] != key {
			i = m.hash3(h)
			if m.keyTable[i] != key {
				return m.removeStash(key)
			}
		}
	}
	old := m.valueTable[i]
	m.keyTable[i] = 0
	m.valueTable[i] = zero
	m.size--
	return old, true
}

func (m *CuckooMap[K, V]) removeStash(key K) (V, bool) {
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if m.keyTable[i] == key {
			old := m.valueTable[i]
			m.removeStashIndex(i)
			m.size--
			return old, true
		}
	}
	var zero V
	return zero, false
}

// removeStashIndex keeps the stash dense by moving its last entry into i.
// It reports whether an entry was moved.
func (m *CuckooMap[K, V]) removeStashIndex(i int) bool {
	var zero V
	m.stashSize--
	last := m.capacity + m.stashSize
	moved := i < last
	if moved {
		m.keyTable[i] = m.keyTable[last]
		m.valueTable[i] = m.valueTable[last]
	}
	m.keyTable[last] = 0
	m.valueTable[last] = zero
	return moved
}

func (m *CuckooMap[K, V]) Len() int {
	return m.size
}

func (m *CuckooMap[K, V]) IsEmpty() bool {
	return m.size == 0
}

func (m *CuckooMap[K, V]) Clear() {
	if m.size == 0 {
		return
	}
	var zero V
	clear(m.keyTable)
	clear(m.valueTable)
	m.size = 0
	m.stashSize = 0
	m.zeroValue = zero
	m.hasZeroValue = false
}

// ClearTo clears the map and shrinks the table to hold maximumCapacity
// entries if it is bigger than that.
func (m *CuckooMap[K, V]) ClearTo(maximumCapacity int) error {
	size, err := tableSize(maximumCapacity, m.loadFactor)
	if err != nil {
		return err
	}
	if m.capacity <= size {
		m.Clear()
		return nil
	}
	var zero V
	m.zeroValue = zero
	m.hasZeroValue = false
	m.size = 0
	m.resize(size)
	return nil
}

// Shrink reduces the table to hold max(Len(), maximumCapacity) entries.
func (m *CuckooMap[K, V]) Shrink(maximumCapacity int) error {
	if maximumCapacity < 0 {
		return moerr.NewInvalidArgNoCtx("maximum capacity", maximumCapacity)
	}
	size, err := tableSize(max(maximumCapacity, m.size), m.loadFactor)
	if err != nil {
		return err
	}
	if m.capacity > size {
		m.resize(size)
	}
	return nil
}

// EnsureCapacity grows the table so additional more entries fit without
// another resize.
func (m *CuckooMap[K, V]) EnsureCapacity(additional int) error {
	if additional < 0 {
		return moerr.NewInvalidArgNoCtx("additional capacity", additional)
	}
	need := m.size + additional
	if need < m.threshold {
		return nil
	}
	size, err := tableSize(need, m.loadFactor)
	if err != nil {
		return err
	}
	if size > m.capacity {
		m.resize(size)
	}
	return nil
}

// Resize rebuilds the table sized for max(hint, Len()) entries.
func (m *CuckooMap[K, V]) Resize(hint int) error {
	size, err := tableSize(max(hint, m.size), m.loadFactor)
	if err != nil {
		return err
	}
	m.resize(size)
	return nil
}

func (m *CuckooMap[K, V]) resize(newSize int) {
	oldEnd := m.capacity + m.stashSize
	oldCapacity := m.capacity
	oldKeys, oldValues := m.keyTable, m.valueTable

	m.setCapacity(newSize)
	m.keyTable = make([]K, newSize+m.stashCapacity)
	m.valueTable = make([]V, newSize+m.stashCapacity)

	oldSize := m.size
	m.size = 0
	if m.hasZeroValue {
		m.size = 1
	}
	m.stashSize = 0
	if oldSize > 0 {
		// a full stash may resize again from inside this loop
		rehashing := m.rehashing
		m.rehashing = true
		for i := 0; i < oldEnd; i++ {
			if k := oldKeys[i]; k != 0 {
				m.putResize(k, oldValues[i])
			}
		}
		m.rehashing = rehashing
	}

	v2.CuckooResizeCounter.Inc()
	if logutil.DebugEnabled() {
		logutil.Debug("cuckoo map resized",
			zap.Int("from", oldCapacity),
			zap.Int("to", m.capacity),
			zap.Int("size", m.size),
			zap.Int("stash", m.stashSize))
	}
}

// ContainsValue reports whether some key maps to value under eq.
func (m *CuckooMap[K, V]) ContainsValue(value V, eq func(a, b V) bool) bool {
	_, ok := m.FindKey(value, eq)
	return ok
}

// FindKey returns a key mapping to value under eq. Which key is returned
// when several match is unspecified.
func (m *CuckooMap[K, V]) FindKey(value V, eq func(a, b V) bool) (K, bool) {
	if m.hasZeroValue && eq(m.zeroValue, value) {
		return 0, true
	}
	for i, n := 0, m.capacity+m.stashSize; i < n; i++ {
		if k := m.keyTable[i]; k != 0 && eq(m.valueTable[i], value) {
			return k, true
		}
	}
	return 0, false
}

// PutAll copies every entry of other into m.
func (m *CuckooMap[K, V]) PutAll(other Map[K, V]) {
	PutAll[K, V](m, other)
}

func (m *CuckooMap[K, V]) Range(fn func(key K, value V) bool) {
	if m.hasZeroValue && !fn(0, m.zeroValue) {
		return
	}
	for i, n := 0, m.capacity+m.stashSize; i < n; i++ {
		if k := m.keyTable[i]; k != 0 {
			if !fn(k, m.valueTable[i]) {
				return
			}
		}
	}
}

// Keys returns one of the two reusable key iterators of this map.
func (m *CuckooMap[K, V]) Keys() *KeyIterator[K, V] {
	return m.iters.keys.Acquire()
}

func (m *CuckooMap[K, V]) Values() *ValueIterator[K, V] {
	return m.iters.values.Acquire()
}

func (m *CuckooMap[K, V]) Entries() *EntryIterator[K, V] {
	return m.iters.entries.Acquire()
}

func (m *CuckooMap[K, V]) String() string {
	return formatMap[K, V](m)
}

func (m *CuckooMap[K, V]) zeroEntry() (V, bool) {
	return m.zeroValue, m.hasZeroValue
}

func (m *CuckooMap[K, V]) slotEnd() int {
	return m.capacity + m.stashSize
}

func (m *CuckooMap[K, V]) occupied(i int) bool {
	return m.keyTable[i] != 0
}

func (m *CuckooMap[K, V]) slotKey(i int) K {
	return m.keyTable[i]
}

func (m *CuckooMap[K, V]) slotValue(i int) V {
	return m.valueTable[i]
}

func (m *CuckooMap[K, V]) removeZero() {
	var zero V
	m.zeroValue = zero
	m.hasZeroValue = false
	m.size--
}

func (m *CuckooMap[K, V]) removeSlot(i int) bool {
	m.size--
	if i >= m.capacity {
		return m.removeStashIndex(i)
	}
	var zero V
	m.keyTable[i] = 0
	m.valueTable[i] = zero
	return false
}
