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
	"math"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/container/hashtable"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"go.uber.org/zap"
)

// FrequencyMap bounds a map to maxCapacity entries. Every Put and every
// Get hit bumps the key's access count, and a Put of a new key into a
// full map evicts the key with the lowest count. Counts never decay, so
// a key that was hot long ago stays ahead of recently added keys.
type FrequencyMap[K hashtable.Key, V any] struct {
	base        hashtable.Map[K, V]
	counts      *hashtable.LinearMap[K, uint64]
	maxCapacity int
}

var _ hashtable.Map[int64, struct{}] = (*FrequencyMap[int64, struct{}])(nil)

// NewFrequencyMap wraps base. Keys already in base start with a count of
// zero.
func NewFrequencyMap[K hashtable.Key, V any](base hashtable.Map[K, V], maxCapacity int) (*FrequencyMap[K, V], error) {
	if maxCapacity <= 0 {
		return nil, moerr.NewInvalidArgNoCtx("max capacity", maxCapacity)
	}
	counts, err := hashtable.NewLinearMap[K, uint64](max(maxCapacity, base.Len()), hashtable.DefaultLoadFactor)
	if err != nil {
		return nil, err
	}
	base.Range(func(k K, _ V) bool {
		counts.Put(k, 0)
		return true
	})
	return &FrequencyMap[K, V]{
		base:        base,
		counts:      counts,
		maxCapacity: maxCapacity,
	}, nil
}

func (f *FrequencyMap[K, V]) Put(key K, value V) (V, bool) {
	if !f.base.ContainsKey(key) {
		for f.base.Len() >= f.maxCapacity {
			if !f.evictOne() {
				break
			}
		}
	}
	old, replaced := f.base.Put(key, value)
	hashtable.GetAndIncrement(f.counts, key, 0, 1)
	return old, replaced
}

// evictOne removes the key with the lowest count. It returns false when
// there is nothing left to evict.
func (f *FrequencyMap[K, V]) evictOne() bool {
	var victim K
	lowest := uint64(math.MaxUint64)
	found := false
	f.counts.Range(func(k K, c uint64) bool {
		if !found || c < lowest {
			victim, lowest, found = k, c, true
		}
		return true
	})
	if !found {
		return false
	}
	f.counts.Remove(victim)
	f.base.Remove(victim)

	v2.FrequencyEvictionCounter.Inc()
	if logutil.DebugEnabled() {
		logutil.Debug("evicted least frequently used key",
			zap.Any("key", victim),
			zap.Uint64("count", lowest))
	}
	return true
}

// Get returns the value of key and counts the access if key is present.
func (f *FrequencyMap[K, V]) Get(key K) (V, bool) {
	v, ok := f.base.Get(key)
	if ok {
		hashtable.GetAndIncrement(f.counts, key, 0, 1)
	}
	return v, ok
}

func (f *FrequencyMap[K, V]) Remove(key K) (V, bool) {
	f.forget(key)
	return f.base.Remove(key)
}

// ContainsKey does not count as an access.
func (f *FrequencyMap[K, V]) ContainsKey(key K) bool {
	return f.base.ContainsKey(key)
}

// Count returns the number of accesses recorded for key.
func (f *FrequencyMap[K, V]) Count(key K) uint64 {
	return f.counts.GetOrDefault(key, 0)
}

func (f *FrequencyMap[K, V]) Len() int {
	return f.base.Len()
}

func (f *FrequencyMap[K, V]) MaxCapacity() int {
	return f.maxCapacity
}

func (f *FrequencyMap[K, V]) Clear() {
	f.base.Clear()
	f.counts.Clear()
}

// PutAll puts every entry of src, evicting as needed.
func (f *FrequencyMap[K, V]) PutAll(src hashtable.Map[K, V]) {
	src.Range(func(k K, v V) bool {
		f.Put(k, v)
		return true
	})
}

func (f *FrequencyMap[K, V]) Range(fn func(key K, value V) bool) {
	f.base.Range(fn)
}

// Keys, Values and Entries iterate the base map. Removing through them
// also drops the key's count.
func (f *FrequencyMap[K, V]) Keys() *hashtable.KeyIterator[K, V] {
	it := f.base.Keys()
	it.OnRemove(f.forget)
	return it
}

func (f *FrequencyMap[K, V]) Values() *hashtable.ValueIterator[K, V] {
	it := f.base.Values()
	it.OnRemove(f.forget)
	return it
}

func (f *FrequencyMap[K, V]) Entries() *hashtable.EntryIterator[K, V] {
	it := f.base.Entries()
	it.OnRemove(f.forget)
	return it
}

func (f *FrequencyMap[K, V]) forget(key K) {
	f.counts.Remove(key)
}
