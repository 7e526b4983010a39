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
	"math/bits"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"go.uber.org/zap"
)

// LinearMap is an unordered map using linear probing and Fibonacci
// hashing. Removal shifts later entries of the probe run back, so no
// tombstones are needed and every key stays reachable from its home slot
// without crossing an empty one.
type LinearMap[K Key, V any] struct {
	keyTable   []K
	valueTable []V

	size         int
	zeroValue    V
	hasZeroValue bool

	loadFactor float32
	threshold  int
	// shift is 64 minus log2 of the table size, the hash keeps the top bits.
	shift int
	mask  int

	iters iterators[K, V]
}

var _ Map[int64, struct{}] = (*LinearMap[int64, struct{}])(nil)

// NewLinearMap creates a map that holds capacity entries before growing.
func NewLinearMap[K Key, V any](capacity int, loadFactor float32) (*LinearMap[K, V], error) {
	if err := checkLoadFactor(loadFactor); err != nil {
		return nil, err
	}
	size, err := tableSize(capacity, loadFactor)
	if err != nil {
		return nil, err
	}
	m := &LinearMap[K, V]{loadFactor: loadFactor}
	m.setTableSize(size)
	m.keyTable = make([]K, size)
	m.valueTable = make([]V, size)
	m.iters = newIterators[K, V](m)
	return m, nil
}

func (m *LinearMap[K, V]) setTableSize(size int) {
	m.threshold = int(float32(size) * m.loadFactor)
	m.mask = size - 1
	m.shift = bits.LeadingZeros64(uint64(m.mask))
}

func (m *LinearMap[K, V]) place(key K) int {
	return fibonacciPlace(uint64(key), m.shift)
}

// locateKey returns the slot of key, or -(i+1) where i is the empty slot
// that ends its probe run.
func (m *LinearMap[K, V]) locateKey(key K) int {
	for i := m.place(key); ; i = (i + 1) & m.mask {
		other := m.keyTable[i]
		if other == 0 {
			return -(i + 1)
		}
		if other == key {
			return i
		}
	}
}

func (m *LinearMap[K, V]) Put(key K, value V) (V, bool) {
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
	i := m.locateKey(key)
	if i >= 0 {
		old := m.valueTable[i]
		m.valueTable[i] = value
		return old, true
	}
	i = -(i + 1)
	m.keyTable[i] = key
	m.valueTable[i] = value
	m.size++
	m.growIfNeeded()
	var zero V
	return zero, false
}

func (m *LinearMap[K, V]) growIfNeeded() {
	if m.size < m.threshold {
		return
	}
	if n := len(m.keyTable); n < maxTableSize {
		m.resize(grownSize(m.size, n, m.loadFactor))
		if m.size < m.threshold {
			return
		}
	}
	occupied := m.size
	if m.hasZeroValue {
		occupied--
	}
	// probing needs an empty slot to terminate
	if occupied >= len(m.keyTable)-1 {
		panic(moerr.NewInvalidStateNoCtx("linear map is full with %d slots", len(m.keyTable)))
	}
}

// putResize inserts a key known to be absent, without growing.
func (m *LinearMap[K, V]) putResize(key K, value V) {
	for i := m.place(key); ; i = (i + 1) & m.mask {
		if m.keyTable[i] == 0 {
			m.keyTable[i] = key
			m.valueTable[i] = value
			return
		}
	}
}

func (m *LinearMap[K, V]) Get(key K) (V, bool) {
	if key == 0 {
		return m.zeroValue, m.hasZeroValue
	}
	if i := m.locateKey(key); i >= 0 {
		return m.valueTable[i], true
	}
	var zero V
	return zero, false
}

// GetOrDefault returns the value of key, or def if key is absent.
func (m *LinearMap[K, V]) GetOrDefault(key K, def V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	return def
}

func (m *LinearMap[K, V]) ContainsKey(key K) bool {
	if key == 0 {
		return m.hasZeroValue
	}
	return m.locateKey(key) >= 0
}

func (m *LinearMap[K, V]) Remove(key K) (V, bool) {
	var zero V
	if key == 0 {
		if !m.hasZeroValue {
			return zero, false
		}
		old := m.zeroValue
		m.removeZero()
		return old, true
	}
	i := m.locateKey(key)
	if i < 0 {
		return zero, false
	}
	old := m.valueTable[i]
	m.removeIndex(i)
	return old, true
}

// removeIndex empties slot i and shifts back the entries of the probe run
// that follows it. Entries whose home lies between i and their current
// slot cannot move and are skipped, the run ends at the first empty slot.
// It returns the slot that was finally emptied.
func (m *LinearMap[K, V]) removeIndex(i int) int {
	keyTable, valueTable, mask := m.keyTable, m.valueTable, m.mask
	for next := (i + 1) & mask; ; next = (next + 1) & mask {
		key := keyTable[next]
		if key == 0 {
			break
		}
		placement := m.place(key)
		if (next-placement)&mask > (i-placement)&mask {
			keyTable[i] = key
			valueTable[i] = valueTable[next]
			i = next
		}
	}
	var zero V
	keyTable[i] = 0
	valueTable[i] = zero
	m.size--
	return i
}

func (m *LinearMap[K, V]) Len() int {
	return m.size
}

func (m *LinearMap[K, V]) IsEmpty() bool {
	return m.size == 0
}

func (m *LinearMap[K, V]) Clear() {
	if m.size == 0 {
		return
	}
	var zero V
	clear(m.keyTable)
	clear(m.valueTable)
	m.size = 0
	m.zeroValue = zero
	m.hasZeroValue = false
}

// ClearTo clears the map and shrinks the table to hold maximumCapacity
// entries if it is bigger than that.
func (m *LinearMap[K, V]) ClearTo(maximumCapacity int) error {
	size, err := tableSize(maximumCapacity, m.loadFactor)
	if err != nil {
		return err
	}
	if len(m.keyTable) <= size {
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
func (m *LinearMap[K, V]) Shrink(maximumCapacity int) error {
	if maximumCapacity < 0 {
		return moerr.NewInvalidArgNoCtx("maximum capacity", maximumCapacity)
	}
	size, err := tableSize(max(maximumCapacity, m.size), m.loadFactor)
	if err != nil {
		return err
	}
	if len(m.keyTable) > size {
		m.resize(size)
	}
	return nil
}

// EnsureCapacity grows the table so additional more entries fit without
// another resize.
func (m *LinearMap[K, V]) EnsureCapacity(additional int) error {
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
	if size > len(m.keyTable) {
		m.resize(size)
	}
	return nil
}

// Resize rebuilds the table sized for max(hint, Len()) entries.
func (m *LinearMap[K, V]) Resize(hint int) error {
	size, err := tableSize(max(hint, m.size), m.loadFactor)
	if err != nil {
		return err
	}
	m.resize(size)
	return nil
}

func (m *LinearMap[K, V]) resize(newSize int) {
	oldCapacity := len(m.keyTable)
	oldKeys, oldValues := m.keyTable, m.valueTable

	m.setTableSize(newSize)
	m.keyTable = make([]K, newSize)
	m.valueTable = make([]V, newSize)
	if m.size > 0 {
		for i, k := range oldKeys {
			if k != 0 {
				m.putResize(k, oldValues[i])
			}
		}
	}

	v2.LinearResizeCounter.Inc()
	if logutil.DebugEnabled() {
		logutil.Debug("linear map resized",
			zap.Int("from", oldCapacity),
			zap.Int("to", newSize),
			zap.Int("size", m.size))
	}
}

// ContainsValue reports whether some key maps to value under eq.
func (m *LinearMap[K, V]) ContainsValue(value V, eq func(a, b V) bool) bool {
	_, ok := m.FindKey(value, eq)
	return ok
}

// FindKey returns a key mapping to value under eq.
func (m *LinearMap[K, V]) FindKey(value V, eq func(a, b V) bool) (K, bool) {
	if m.hasZeroValue && eq(m.zeroValue, value) {
		return 0, true
	}
	for i, k := range m.keyTable {
		if k != 0 && eq(m.valueTable[i], value) {
			return k, true
		}
	}
	return 0, false
}

// PutAll copies every entry of other into m.
func (m *LinearMap[K, V]) PutAll(other Map[K, V]) {
	PutAll[K, V](m, other)
}

func (m *LinearMap[K, V]) Range(fn func(key K, value V) bool) {
	if m.hasZeroValue && !fn(0, m.zeroValue) {
		return
	}
	for i, k := range m.keyTable {
		if k != 0 && !fn(k, m.valueTable[i]) {
			return
		}
	}
}

func (m *LinearMap[K, V]) Keys() *KeyIterator[K, V] {
	return m.iters.keys.Acquire()
}

func (m *LinearMap[K, V]) Values() *ValueIterator[K, V] {
	return m.iters.values.Acquire()
}

func (m *LinearMap[K, V]) Entries() *EntryIterator[K, V] {
	return m.iters.entries.Acquire()
}

func (m *LinearMap[K, V]) String() string {
	return formatMap[K, V](m)
}

func (m *LinearMap[K, V]) zeroEntry() (V, bool) {
	return m.zeroValue, m.hasZeroValue
}

func (m *LinearMap[K, V]) slotEnd() int {
	return len(m.keyTable)
}

func (m *LinearMap[K, V]) occupied(i int) bool {
	return m.keyTable[i] != 0
}

func (m *LinearMap[K, V]) slotKey(i int) K {
	return m.keyTable[i]
}

func (m *LinearMap[K, V]) slotValue(i int) V {
	return m.valueTable[i]
}

func (m *LinearMap[K, V]) removeZero() {
	var zero V
	m.zeroValue = zero
	m.hasZeroValue = false
	m.size--
}

func (m *LinearMap[K, V]) removeSlot(i int) bool {
	return m.removeIndex(i) != i
}

// GetAndIncrement adds increment to the value of key and returns the value
// it had before. An absent key counts as defaultValue.
func GetAndIncrement[K Key, V Number](m *LinearMap[K, V], key K, defaultValue, increment V) V {
	if key == 0 {
		if !m.hasZeroValue {
			m.hasZeroValue = true
			m.zeroValue = defaultValue + increment
			m.size++
			m.growIfNeeded()
			return defaultValue
		}
		old := m.zeroValue
		m.zeroValue += increment
		return old
	}
	i := m.locateKey(key)
	if i >= 0 {
		old := m.valueTable[i]
		m.valueTable[i] += increment
		return old
	}
	i = -(i + 1)
	m.keyTable[i] = key
	m.valueTable[i] = defaultValue + increment
	m.size++
	m.growIfNeeded()
	return defaultValue
}
