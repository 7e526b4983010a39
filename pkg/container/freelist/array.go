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

package freelist

import (
	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/common/reuse"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"go.uber.org/zap"
)

const (
	minCapacity  = 8
	growthFactor = 1.75

	// endOfList terminates the free list.
	endOfList = -1
)

type slot[T any] struct {
	value    T
	nextFree int
	live     bool
}

// Array stores items in slots addressed by a stable index. Removed slots
// form a free list threaded through the slots themselves, Add reuses the
// most recently freed index before extending the array.
type Array[T any] struct {
	slots []slot[T]
	// length is the high-water mark of used slots.
	length     int
	totalItems int
	freeHead   int

	iters reuse.Pair[*Iterator[T]]
}

func New[T any](capacity int) (*Array[T], error) {
	if capacity < 0 {
		return nil, moerr.NewInvalidArgNoCtx("capacity", capacity)
	}
	a := &Array[T]{
		slots:    make([]slot[T], capacity),
		freeHead: endOfList,
	}
	a.iters = reuse.NewPair(func() *Iterator[T] {
		return &Iterator[T]{a: a}
	})
	return a, nil
}

// Add stores item and returns its index.
func (a *Array[T]) Add(item T) int {
	if i := a.freeHead; i != endOfList {
		s := &a.slots[i]
		a.freeHead = s.nextFree
		s.value = item
		s.nextFree = endOfList
		s.live = true
		a.totalItems++
		return i
	}
	if a.length == len(a.slots) {
		a.grow()
	}
	i := a.length
	a.slots[i] = slot[T]{value: item, nextFree: endOfList, live: true}
	a.length++
	a.totalItems++
	return i
}

func (a *Array[T]) grow() {
	old := len(a.slots)
	size := max(minCapacity, int(float64(old)*growthFactor))
	slots := make([]slot[T], size)
	copy(slots, a.slots[:a.length])
	a.slots = slots

	v2.FreeListResizeCounter.Inc()
	if logutil.DebugEnabled() {
		logutil.Debug("free list array resized",
			zap.Int("from", old),
			zap.Int("to", size),
			zap.Int("live", a.totalItems))
	}
}

// Get returns the item at index. A freed slot holds the zero value.
func (a *Array[T]) Get(index int) (T, error) {
	if index < 0 || index >= a.length {
		var zero T
		return zero, moerr.NewIndexOutOfBoundsNoCtx(index, a.length)
	}
	return a.slots[index].value, nil
}

// Contains reports whether index holds a live item.
func (a *Array[T]) Contains(index int) bool {
	return index >= 0 && index < a.length && a.slots[index].live
}

// Remove frees the slot at index and returns its item. Freeing a slot
// twice would link it into the free list twice, so it is rejected.
func (a *Array[T]) Remove(index int) (T, error) {
	var zero T
	if index < 0 || index >= a.length {
		return zero, moerr.NewIndexOutOfBoundsNoCtx(index, a.length)
	}
	s := &a.slots[index]
	if !s.live {
		return zero, moerr.NewIllegalStateNoCtx("slot %d is already free", index)
	}
	item := s.value
	s.value = zero
	s.live = false
	s.nextFree = a.freeHead
	a.freeHead = index
	a.totalItems--
	return item, nil
}

// Clear drops all items and forgets the free list. The backing array is
// kept.
func (a *Array[T]) Clear() {
	clear(a.slots[:a.length])
	a.length = 0
	a.totalItems = 0
	a.freeHead = endOfList
}

// Len returns the number of slots ever used since the last Clear.
func (a *Array[T]) Len() int {
	return a.length
}

// TotalItems returns the number of live items.
func (a *Array[T]) TotalItems() int {
	return a.totalItems
}

// Range calls fn for every live item in index order until fn returns
// false.
func (a *Array[T]) Range(fn func(index int, item T) bool) {
	for i := 0; i < a.length; i++ {
		if a.slots[i].live && !fn(i, a.slots[i].value) {
			return
		}
	}
}

// Iterator returns one of the two reusable iterators of this array.
func (a *Array[T]) Iterator() *Iterator[T] {
	return a.iters.Acquire()
}

// Iterator walks the live slots of an Array in index order.
type Iterator[T any] struct {
	reuse.Guard

	a       *Array[T]
	next    int
	current int
}

func (it *Iterator[T]) Reset() {
	it.current = endOfList
	it.next = -1
	it.findNext()
}

func (it *Iterator[T]) findNext() {
	for it.next++; it.next < it.a.length; it.next++ {
		if it.a.slots[it.next].live {
			return
		}
	}
}

func (it *Iterator[T]) HasNext() bool {
	return it.next < it.a.length
}

// Next returns the next live item and its index.
func (it *Iterator[T]) Next() (int, T, error) {
	var zero T
	if err := it.Check(); err != nil {
		return 0, zero, err
	}
	if !it.HasNext() {
		return 0, zero, moerr.NewIterExhaustedNoCtx()
	}
	it.current = it.next
	it.findNext()
	return it.current, it.a.slots[it.current].value, nil
}

// Remove frees the slot last returned by Next.
func (it *Iterator[T]) Remove() error {
	if err := it.Check(); err != nil {
		return err
	}
	if it.current == endOfList {
		return moerr.NewIllegalStateNoCtx("remove called before next")
	}
	if _, err := it.a.Remove(it.current); err != nil {
		return err
	}
	it.current = endOfList
	return nil
}
