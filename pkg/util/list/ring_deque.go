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

package list

import (
	"fmt"
	"strings"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/common/reuse"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"go.uber.org/zap"
)

const minRingCapacity = 8

// RingDeque is a double-ended queue backed by a circular buffer. Elements
// live in values[head], values[head+1], ... wrapping around the end of the
// buffer, tail is the slot after the last element.
type RingDeque[E comparable] struct {
	values []E
	head   int
	tail   int
	size   int

	iters reuse.Pair[*RingIterator[E]]
}

// NewRingDeque creates a deque that holds capacity elements before growing.
func NewRingDeque[E comparable](capacity int) (*RingDeque[E], error) {
	if capacity < 0 {
		return nil, moerr.NewInvalidArgNoCtx("capacity", capacity)
	}
	d := &RingDeque[E]{values: make([]E, capacity)}
	d.iters = reuse.NewPair(func() *RingIterator[E] {
		return &RingIterator[E]{d: d}
	})
	return d, nil
}

func (d *RingDeque[E]) slot(i int) int {
	i += d.head
	if i >= len(d.values) {
		i -= len(d.values)
	}
	return i
}

func (d *RingDeque[E]) AddLast(v E) {
	if d.size == len(d.values) {
		d.resize(max(minRingCapacity, len(d.values)<<1))
	}
	d.values[d.tail] = v
	d.tail++
	if d.tail == len(d.values) {
		d.tail = 0
	}
	d.size++
}

func (d *RingDeque[E]) AddFirst(v E) {
	if d.size == len(d.values) {
		d.resize(max(minRingCapacity, len(d.values)<<1))
	}
	d.head--
	if d.head < 0 {
		d.head = len(d.values) - 1
	}
	d.values[d.head] = v
	d.size++
}

func (d *RingDeque[E]) RemoveFirst() (E, error) {
	var zero E
	if d.size == 0 {
		return zero, moerr.NewEmptyCollectionNoCtx("remove first")
	}
	v := d.values[d.head]
	d.values[d.head] = zero
	d.head++
	if d.head == len(d.values) {
		d.head = 0
	}
	d.size--
	return v, nil
}

func (d *RingDeque[E]) RemoveLast() (E, error) {
	var zero E
	if d.size == 0 {
		return zero, moerr.NewEmptyCollectionNoCtx("remove last")
	}
	if d.tail == 0 {
		d.tail = len(d.values)
	}
	d.tail--
	v := d.values[d.tail]
	d.values[d.tail] = zero
	d.size--
	return v, nil
}

func (d *RingDeque[E]) First() (E, error) {
	if d.size == 0 {
		var zero E
		return zero, moerr.NewEmptyCollectionNoCtx("first")
	}
	return d.values[d.head], nil
}

func (d *RingDeque[E]) Last() (E, error) {
	if d.size == 0 {
		var zero E
		return zero, moerr.NewEmptyCollectionNoCtx("last")
	}
	i := d.tail - 1
	if i < 0 {
		i = len(d.values) - 1
	}
	return d.values[i], nil
}

// Get returns the element at index i counted from the head.
func (d *RingDeque[E]) Get(i int) (E, error) {
	if i < 0 || i >= d.size {
		var zero E
		return zero, moerr.NewIndexOutOfBoundsNoCtx(i, d.size)
	}
	return d.values[d.slot(i)], nil
}

// Set replaces the element at index i and returns the old one.
func (d *RingDeque[E]) Set(i int, v E) (E, error) {
	if i < 0 || i >= d.size {
		var zero E
		return zero, moerr.NewIndexOutOfBoundsNoCtx(i, d.size)
	}
	s := d.slot(i)
	old := d.values[s]
	d.values[s] = v
	return old, nil
}

// IndexOf returns the index of the first element equal to v, or -1.
func (d *RingDeque[E]) IndexOf(v E) int {
	for i := 0; i < d.size; i++ {
		if d.values[d.slot(i)] == v {
			return i
		}
	}
	return -1
}

// LastIndexOf returns the index of the last element equal to v, or -1.
func (d *RingDeque[E]) LastIndexOf(v E) int {
	for i := d.size - 1; i >= 0; i-- {
		if d.values[d.slot(i)] == v {
			return i
		}
	}
	return -1
}

// RemoveValue removes the first element equal to v.
func (d *RingDeque[E]) RemoveValue(v E) bool {
	i := d.IndexOf(v)
	if i < 0 {
		return false
	}
	_, _ = d.RemoveIndex(i)
	return true
}

// RemoveIndex removes the element at index i, moving whichever side of
// the deque is shorter to close the gap.
func (d *RingDeque[E]) RemoveIndex(i int) (E, error) {
	var zero E
	if i < 0 || i >= d.size {
		return zero, moerr.NewIndexOutOfBoundsNoCtx(i, d.size)
	}
	v := d.values[d.slot(i)]
	if i < d.size/2 {
		for j := i; j > 0; j-- {
			d.values[d.slot(j)] = d.values[d.slot(j-1)]
		}
		d.values[d.head] = zero
		d.head++
		if d.head == len(d.values) {
			d.head = 0
		}
	} else {
		for j := i; j < d.size-1; j++ {
			d.values[d.slot(j)] = d.values[d.slot(j+1)]
		}
		if d.tail == 0 {
			d.tail = len(d.values)
		}
		d.tail--
		d.values[d.tail] = zero
	}
	d.size--
	return v, nil
}

func (d *RingDeque[E]) Len() int {
	return d.size
}

func (d *RingDeque[E]) IsEmpty() bool {
	return d.size == 0
}

// Clear removes all elements and keeps the buffer.
func (d *RingDeque[E]) Clear() {
	if d.size == 0 {
		return
	}
	clear(d.values)
	d.head, d.tail, d.size = 0, 0, 0
}

// Truncate removes elements from the tail until keeping are left.
func (d *RingDeque[E]) Truncate(keeping int) {
	for d.size > keeping && d.size > 0 {
		_, _ = d.RemoveLast()
	}
}

// EnsureCapacity grows the buffer so additional more elements fit without
// another resize.
func (d *RingDeque[E]) EnsureCapacity(additional int) error {
	if additional < 0 {
		return moerr.NewInvalidArgNoCtx("additional capacity", additional)
	}
	if need := d.size + additional; need > len(d.values) {
		d.resize(need)
	}
	return nil
}

// resize copies the elements to a new buffer, head first, so the new
// buffer starts unwrapped.
func (d *RingDeque[E]) resize(newCapacity int) {
	old := len(d.values)
	values := make([]E, newCapacity)
	if d.head+d.size <= old {
		copy(values, d.values[d.head:d.head+d.size])
	} else {
		n := copy(values, d.values[d.head:])
		copy(values[n:], d.values[:d.size-n])
	}
	d.values = values
	d.head = 0
	d.tail = d.size
	if d.tail == newCapacity {
		d.tail = 0
	}

	v2.DequeResizeCounter.Inc()
	if logutil.DebugEnabled() {
		logutil.Debug("ring deque resized",
			zap.Int("from", old),
			zap.Int("to", newCapacity),
			zap.Int("size", d.size))
	}
}

// Iter calls fn on every element from offset on, until fn returns false.
func (d *RingDeque[E]) Iter(offset int, fn func(E) bool) {
	for i := max(offset, 0); i < d.size; i++ {
		if !fn(d.values[d.slot(i)]) {
			return
		}
	}
}

// Iterator returns one of the two reusable iterators of this deque.
func (d *RingDeque[E]) Iterator() *RingIterator[E] {
	return d.iters.Acquire()
}

// Equal reports whether both deques hold equal elements in the same order.
func (d *RingDeque[E]) Equal(other *RingDeque[E]) bool {
	if d.size != other.size {
		return false
	}
	for i := 0; i < d.size; i++ {
		if d.values[d.slot(i)] != other.values[other.slot(i)] {
			return false
		}
	}
	return true
}

func (d *RingDeque[E]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < d.size; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprint(&sb, d.values[d.slot(i)])
	}
	sb.WriteByte(']')
	return sb.String()
}

// RingIterator walks a RingDeque from head to tail.
type RingIterator[E comparable] struct {
	reuse.Guard

	d       *RingDeque[E]
	index   int
	current int
}

func (it *RingIterator[E]) Reset() {
	it.index = 0
	it.current = -1
}

func (it *RingIterator[E]) HasNext() bool {
	return it.index < it.d.size
}

func (it *RingIterator[E]) Next() (E, error) {
	var zero E
	if err := it.Check(); err != nil {
		return zero, err
	}
	if it.index >= it.d.size {
		return zero, moerr.NewIterExhaustedNoCtx()
	}
	it.current = it.index
	it.index++
	return it.d.values[it.d.slot(it.current)], nil
}

// Remove deletes the element last returned by Next.
func (it *RingIterator[E]) Remove() error {
	if err := it.Check(); err != nil {
		return err
	}
	if it.current < 0 {
		return moerr.NewIllegalStateNoCtx("remove called before next")
	}
	if _, err := it.d.RemoveIndex(it.current); err != nil {
		return err
	}
	it.index--
	it.current = -1
	return nil
}
