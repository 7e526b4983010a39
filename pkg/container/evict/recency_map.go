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

package evict

import (
	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/common/reuse"
	"github.com/matrixorigin/primcoll/pkg/container/hashtable"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	"github.com/matrixorigin/primcoll/pkg/util/list"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"go.uber.org/zap"
)

type recencyEntry[K hashtable.Key, V any] struct {
	key   K
	value V
}

// RecencyMap is a least recently used map: Get and Put move a key to the
// front, and a Put of a new key into a full map evicts the key at the back.
//
// It is not a hashtable.Map: its entries live in the recency list, not in
// a slot table, so it walks them with its own Iterator in recency order.
type RecencyMap[K hashtable.Key, V any] struct {
	index       *hashtable.LinearMap[K, *list.Element[recencyEntry[K, V]]]
	order       *list.List[recencyEntry[K, V]]
	maxCapacity int

	iters reuse.Pair[*RecencyIterator[K, V]]
}

func NewRecencyMap[K hashtable.Key, V any](maxCapacity int) (*RecencyMap[K, V], error) {
	if maxCapacity <= 0 {
		return nil, moerr.NewInvalidArgNoCtx("max capacity", maxCapacity)
	}
	index, err := hashtable.NewLinearMap[K, *list.Element[recencyEntry[K, V]]](maxCapacity, hashtable.DefaultLoadFactor)
	if err != nil {
		return nil, err
	}
	r := &RecencyMap[K, V]{
		index:       index,
		order:       list.NewList[recencyEntry[K, V]](),
		maxCapacity: maxCapacity,
	}
	r.iters = reuse.NewPair(func() *RecencyIterator[K, V] {
		return &RecencyIterator[K, V]{r: r}
	})
	return r, nil
}

func (r *RecencyMap[K, V]) Put(key K, value V) (V, bool) {
	if e, ok := r.index.Get(key); ok {
		old := e.Value.value
		e.Value.value = value
		r.order.MoveToFront(e)
		return old, true
	}
	for r.order.Len() >= r.maxCapacity {
		back := r.order.PopBack()
		r.index.Remove(back.Value.key)

		v2.RecencyEvictionCounter.Inc()
		if logutil.DebugEnabled() {
			logutil.Debug("evicted least recently used key", zap.Any("key", back.Value.key))
		}
	}
	r.index.Put(key, r.order.PushFront(recencyEntry[K, V]{key: key, value: value}))
	var zero V
	return zero, false
}

// Get returns the value of key and marks it most recently used.
func (r *RecencyMap[K, V]) Get(key K) (V, bool) {
	e, ok := r.index.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	r.order.MoveToFront(e)
	return e.Value.value, true
}

// Peek returns the value of key without touching its recency.
func (r *RecencyMap[K, V]) Peek(key K) (V, bool) {
	e, ok := r.index.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.Value.value, true
}

func (r *RecencyMap[K, V]) Remove(key K) (V, bool) {
	e, ok := r.index.Remove(key)
	if !ok {
		var zero V
		return zero, false
	}
	return r.order.Remove(e).value, true
}

func (r *RecencyMap[K, V]) ContainsKey(key K) bool {
	return r.index.ContainsKey(key)
}

func (r *RecencyMap[K, V]) Len() int {
	return r.order.Len()
}

func (r *RecencyMap[K, V]) MaxCapacity() int {
	return r.maxCapacity
}

func (r *RecencyMap[K, V]) Clear() {
	r.index.Clear()
	r.order.Clear()
}

// Oldest returns the key that the next eviction would remove.
func (r *RecencyMap[K, V]) Oldest() (K, error) {
	e, ok := r.order.Back()
	if !ok {
		return 0, moerr.NewEmptyCollectionNoCtx("oldest")
	}
	return e.Value.key, nil
}

// Range visits the entries from most to least recently used.
func (r *RecencyMap[K, V]) Range(fn func(key K, value V) bool) {
	r.order.Iter(0, func(e recencyEntry[K, V]) bool {
		return fn(e.key, e.value)
	})
}

// Iterator walks the entries from most to least recently used without
// touching their recency.
func (r *RecencyMap[K, V]) Iterator() *RecencyIterator[K, V] {
	return r.iters.Acquire()
}

type RecencyIterator[K hashtable.Key, V any] struct {
	reuse.Guard

	r       *RecencyMap[K, V]
	next    *list.Element[recencyEntry[K, V]]
	current *list.Element[recencyEntry[K, V]]
}

func (it *RecencyIterator[K, V]) Reset() {
	it.next, _ = it.r.order.Front()
	it.current = nil
}

func (it *RecencyIterator[K, V]) HasNext() bool {
	return it.next != nil
}

func (it *RecencyIterator[K, V]) Next() (K, V, error) {
	if err := it.Check(); err != nil {
		var zero V
		return 0, zero, err
	}
	if it.next == nil {
		var zero V
		return 0, zero, moerr.NewIterExhaustedNoCtx()
	}
	it.current = it.next
	it.next = it.next.Next()
	return it.current.Value.key, it.current.Value.value, nil
}

// Remove deletes the entry last returned by Next.
func (it *RecencyIterator[K, V]) Remove() error {
	if err := it.Check(); err != nil {
		return err
	}
	if it.current == nil {
		return moerr.NewIllegalStateNoCtx("remove called before next")
	}
	it.r.index.Remove(it.current.Value.key)
	it.r.order.Remove(it.current)
	it.current = nil
	return nil
}
