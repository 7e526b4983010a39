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

package workload

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/axiomhq/hyperloglog"
	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/config"
	"github.com/matrixorigin/primcoll/pkg/container/evict"
	"github.com/matrixorigin/primcoll/pkg/container/freelist"
	"github.com/matrixorigin/primcoll/pkg/container/hashtable"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	"github.com/matrixorigin/primcoll/pkg/util/list"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// checkEvery is how many operations pass between context checks.
const checkEvery = 1024

type result struct {
	typ        string
	ops        uint64
	violations uint64
	live       uint64
	sketch     *hyperloglog.Sketch
	duration   time.Duration
}

// task drives one collection. live is the reference set of keys, or of
// slot indexes for the free list, shifted into the uint32 range.
type task struct {
	typ      string
	cfg      *config.Config
	rand     *rand.Rand
	live     *roaring.Bitmap
	sketch   *hyperloglog.Sketch
	keySpace int
	r        result
	body     func(t *task, ops int) bool
}

func newTask(typ string, cfg *config.Config, seed uint64) (*task, error) {
	t := &task{
		typ:      typ,
		cfg:      cfg,
		rand:     rand.New(rand.NewSource(seed)),
		live:     roaring.New(),
		sketch:   hyperloglog.New(),
		keySpace: cfg.Stress.KeySpace,
	}
	body, err := t.build(seed)
	if err != nil {
		return nil, err
	}
	t.body = body
	return t, nil
}

func (t *task) build(seed uint64) (func(*task, int) bool, error) {
	cc := t.cfg.Collections
	switch t.typ {
	case TypeCuckoo:
		m, err := hashtable.NewCuckooMap[int64, int64](cc.InitialCapacity, cc.LoadFactor, hashtable.WithSeed(seed))
		if err != nil {
			return nil, err
		}
		return newMapDriver(t, m).step, nil
	case TypeLinear:
		m, err := hashtable.NewLinearMap[int64, int64](cc.InitialCapacity, cc.LoadFactor)
		if err != nil {
			return nil, err
		}
		return newMapDriver(t, m).step, nil
	case TypeSorted:
		base, err := hashtable.NewCuckooMap[int64, int64](cc.InitialCapacity, cc.LoadFactor, hashtable.WithSeed(seed))
		if err != nil {
			return nil, err
		}
		d := newMapDriver(t, hashtable.NewSortedMap[int64, int64](base))
		d.sorted = true
		return d.step, nil
	case TypeDeque:
		d, err := list.NewRingDeque[int64](cc.InitialCapacity)
		if err != nil {
			return nil, err
		}
		return (&dequeDriver{d: d}).step, nil
	case TypeFreeList:
		a, err := freelist.New[int64](cc.InitialCapacity)
		if err != nil {
			return nil, err
		}
		return (&freeListDriver{a: a}).step, nil
	case TypeFrequency:
		base, err := hashtable.NewLinearMap[int64, int64](cc.InitialCapacity, cc.LoadFactor)
		if err != nil {
			return nil, err
		}
		m, err := evict.NewFrequencyMap[int64, int64](base, t.cfg.Stress.MaxCapacity)
		if err != nil {
			return nil, err
		}
		return (&boundedDriver{m: m, max: m.MaxCapacity()}).step, nil
	case TypeRecency:
		m, err := evict.NewRecencyMap[int64, int64](t.cfg.Stress.MaxCapacity)
		if err != nil {
			return nil, err
		}
		return (&boundedDriver{m: m, max: m.MaxCapacity()}).step, nil
	default:
		return nil, moerr.NewInvalidArgNoCtx("collection type", t.typ)
	}
}

func (t *task) run(ctx context.Context) *result {
	start := time.Now()
	ops := t.cfg.Stress.Ops
	for i := 0; i < ops; i++ {
		if i%checkEvery == 0 && ctx.Err() != nil {
			break
		}
		if !t.body(t, i) {
			break
		}
		t.r.ops++
	}
	// a final full check
	t.body(t, -1)

	t.r.typ = t.typ
	t.r.sketch = t.sketch
	t.r.duration = time.Since(start)
	observe(&t.r)
	return &t.r
}

// key draws a key from [-keySpace/2, keySpace/2).
func (t *task) key() int64 {
	k := int64(t.rand.Intn(t.keySpace)) - int64(t.keySpace/2)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(k))
	t.sketch.Insert(b[:])
	return k
}

func (t *task) slot(k int64) uint32 {
	return uint32(k + int64(t.keySpace/2))
}

// check records a violation when ok is false. It returns ok.
func (t *task) check(ok bool, what string, fields ...zap.Field) bool {
	if !ok {
		t.r.violations++
		logutil.Warn("stress violation",
			append(fields, zap.String("type", t.typ), zap.String("check", what))...)
	}
	return ok
}
