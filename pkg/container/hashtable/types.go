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
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/rand"
)

// Key is any primitive integer type. The zero key is stored outside the
// slot table, a zero entry in the table marks an empty slot.
type Key interface {
	constraints.Integer
}

// Number is a value type that supports addition.
type Number interface {
	constraints.Integer | constraints.Float
}

const (
	DefaultCapacity   = 51
	DefaultLoadFactor = float32(0.8)

	defaultSeed = uint64(0x2545f4914f6cdd1d)
)

// maxTableSize is the largest number of slots a table may have.
var maxTableSize = 1 << 30

// Map is the operation set shared by all primitive-keyed maps.
type Map[K Key, V any] interface {
	// Put stores value under key and returns the value it replaced.
	Put(key K, value V) (V, bool)
	Get(key K) (V, bool)
	Remove(key K) (V, bool)
	ContainsKey(key K) bool
	Len() int
	Clear()
	// Range calls fn for every entry until fn returns false. The map must
	// not be modified during Range.
	Range(fn func(key K, value V) bool)

	Keys() *KeyIterator[K, V]
	Values() *ValueIterator[K, V]
	Entries() *EntryIterator[K, V]
}

type Entry[K Key, V any] struct {
	Key   K
	Value V
}

type options struct {
	rand *rand.Rand
}

type Option func(*options)

// WithSeed seeds the random source used to pick cuckoo eviction victims.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rand = rand.New(rand.NewSource(seed))
	}
}

// WithRand sets the random source used to pick cuckoo eviction victims.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rand = r
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewSource(defaultSeed))
	}
	return o
}

func checkLoadFactor(loadFactor float32) error {
	if loadFactor <= 0 || loadFactor >= 1 || math.IsNaN(float64(loadFactor)) {
		return moerr.NewInvalidArgNoCtx("load factor", loadFactor)
	}
	return nil
}

// tableSize returns the power of two number of slots needed to hold
// capacity entries below loadFactor.
// grownSize doubles current until size entries sit below the load
// threshold, stopping at maxTableSize.
func grownSize(size, current int, loadFactor float32) int {
	n := current
	for n < maxTableSize && size >= int(float32(n)*loadFactor) {
		n <<= 1
	}
	return n
}

func tableSize(capacity int, loadFactor float32) (int, error) {
	if capacity < 0 {
		return 0, moerr.NewInvalidArgNoCtx("capacity", capacity)
	}
	need := math.Ceil(float64(capacity) / float64(loadFactor))
	if need > float64(maxTableSize) {
		return 0, moerr.NewInvalidArgNoCtx("capacity", capacity)
	}
	size := nextPowerOfTwo(int(need))
	if size < 2 {
		size = 2
	}
	if size > maxTableSize {
		return 0, moerr.NewInvalidArgNoCtx("capacity", capacity)
	}
	return size, nil
}
