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
)

const (
	indexIllegal = -2
	indexZero    = -1
)

// slotTable is what the shared iterators need to walk and edit a map's
// slots. Index indexZero stands for the zero key kept outside the table.
type slotTable[K Key, V any] interface {
	zeroEntry() (V, bool)
	slotEnd() int
	occupied(i int) bool
	slotKey(i int) K
	slotValue(i int) V
	removeZero()
	// removeSlot clears slot i and reports whether another live entry was
	// moved into it.
	removeSlot(i int) bool
}

type mapIterator[K Key, V any] struct {
	reuse.Guard

	table        slotTable[K, V]
	hasNext      bool
	nextIndex    int
	currentIndex int
	// onRemove is cleared whenever the iterator is handed out again.
	onRemove func(key K)
}

func (it *mapIterator[K, V]) Reset() {
	it.onRemove = nil
	it.currentIndex = indexIllegal
	it.nextIndex = indexZero
	if _, ok := it.table.zeroEntry(); ok {
		it.hasNext = true
	} else {
		it.findNextIndex()
	}
}

func (it *mapIterator[K, V]) findNextIndex() {
	it.hasNext = false
	end := it.table.slotEnd()
	for it.nextIndex++; it.nextIndex < end; it.nextIndex++ {
		if it.table.occupied(it.nextIndex) {
			it.hasNext = true
			return
		}
	}
}

// HasNext reports whether Next would return another element.
func (it *mapIterator[K, V]) HasNext() bool {
	return it.hasNext
}

func (it *mapIterator[K, V]) advance() (int, error) {
	if err := it.Check(); err != nil {
		return 0, err
	}
	if !it.hasNext {
		return 0, moerr.NewIterExhaustedNoCtx()
	}
	i := it.nextIndex
	it.currentIndex = i
	it.findNextIndex()
	return i, nil
}

// Remove deletes the entry last returned by Next.
func (it *mapIterator[K, V]) Remove() error {
	if err := it.Check(); err != nil {
		return err
	}
	i := it.currentIndex
	if i == indexIllegal {
		return moerr.NewIllegalStateNoCtx("remove called before next")
	}
	key := it.key(i)
	if i == indexZero {
		it.table.removeZero()
	} else if it.table.removeSlot(i) {
		// revisit i, it holds an entry not returned yet
		it.nextIndex = i - 1
		it.findNextIndex()
	}
	it.currentIndex = indexIllegal
	if it.onRemove != nil {
		it.onRemove(key)
	}
	return nil
}

// OnRemove registers fn to run with the key of every entry this iterator
// removes. Wrappers keeping state per key use it to follow removals made
// through the iterators of the map they wrap.
func (it *mapIterator[K, V]) OnRemove(fn func(key K)) {
	it.onRemove = fn
}

func (it *mapIterator[K, V]) key(i int) K {
	if i == indexZero {
		return 0
	}
	return it.table.slotKey(i)
}

func (it *mapIterator[K, V]) value(i int) V {
	if i == indexZero {
		v, _ := it.table.zeroEntry()
		return v
	}
	return it.table.slotValue(i)
}

type KeyIterator[K Key, V any] struct {
	mapIterator[K, V]
}

func newKeyIterator[K Key, V any](table slotTable[K, V]) *KeyIterator[K, V] {
	it := &KeyIterator[K, V]{}
	it.table = table
	return it
}

func (it *KeyIterator[K, V]) Next() (K, error) {
	i, err := it.advance()
	if err != nil {
		return 0, err
	}
	return it.key(i), nil
}

// ToSlice drains the remaining keys.
func (it *KeyIterator[K, V]) ToSlice() ([]K, error) {
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

type ValueIterator[K Key, V any] struct {
	mapIterator[K, V]
}

func newValueIterator[K Key, V any](table slotTable[K, V]) *ValueIterator[K, V] {
	it := &ValueIterator[K, V]{}
	it.table = table
	return it
}

func (it *ValueIterator[K, V]) Next() (V, error) {
	i, err := it.advance()
	if err != nil {
		var zero V
		return zero, err
	}
	return it.value(i), nil
}

// ToSlice drains the remaining values.
func (it *ValueIterator[K, V]) ToSlice() ([]V, error) {
	var values []V
	for it.HasNext() {
		v, err := it.Next()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

type EntryIterator[K Key, V any] struct {
	mapIterator[K, V]
}

func newEntryIterator[K Key, V any](table slotTable[K, V]) *EntryIterator[K, V] {
	it := &EntryIterator[K, V]{}
	it.table = table
	return it
}

// Next returns the next entry. The returned Entry is a copy, editing it
// does not change the map.
func (it *EntryIterator[K, V]) Next() (Entry[K, V], error) {
	i, err := it.advance()
	if err != nil {
		return Entry[K, V]{}, err
	}
	return Entry[K, V]{Key: it.key(i), Value: it.value(i)}, nil
}

// iterators holds the reusable iterator pairs of one map.
type iterators[K Key, V any] struct {
	keys    reuse.Pair[*KeyIterator[K, V]]
	values  reuse.Pair[*ValueIterator[K, V]]
	entries reuse.Pair[*EntryIterator[K, V]]
}

func newIterators[K Key, V any](table slotTable[K, V]) iterators[K, V] {
	return iterators[K, V]{
		keys: reuse.NewPair(func() *KeyIterator[K, V] {
			return newKeyIterator(table)
		}),
		values: reuse.NewPair(func() *ValueIterator[K, V] {
			return newValueIterator(table)
		}),
		entries: reuse.NewPair(func() *EntryIterator[K, V] {
			return newEntryIterator(table)
		}),
	}
}
