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
	"math"

	"github.com/RoaringBitmap/roaring"
	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/container/freelist"
	"github.com/matrixorigin/primcoll/pkg/container/hashtable"
	"github.com/matrixorigin/primcoll/pkg/util/list"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const (
	// maxViolations stops a task that is clearly broken.
	maxViolations = 100
	verifyEvery   = 4096
)

type mapDriver struct {
	m      hashtable.Map[int64, int64]
	values []int64
	sorted bool
}

func newMapDriver(t *task, m hashtable.Map[int64, int64]) *mapDriver {
	return &mapDriver{m: m, values: make([]int64, t.keySpace)}
}

func (d *mapDriver) step(t *task, i int) bool {
	if i < 0 {
		d.verify(t)
		t.r.live = uint64(d.m.Len())
		return true
	}

	k := t.key()
	s := t.slot(k)
	switch op := t.rand.Intn(100); {
	case op < 50:
		v := int64(i)
		old, replaced := d.m.Put(k, v)
		had := t.live.Contains(s)
		t.check(replaced == had && (!had || old == d.values[s]), "put", zap.Int64("key", k))
		t.live.Add(s)
		d.values[s] = v
	case op < 80:
		v, ok := d.m.Get(k)
		t.check(ok == t.live.Contains(s) && (!ok || v == d.values[s]), "get", zap.Int64("key", k))
	case op < 95:
		v, ok := d.m.Remove(k)
		had := t.live.CheckedRemove(s)
		t.check(ok == had && (!ok || v == d.values[s]), "remove", zap.Int64("key", k))
	case op < 99:
		t.check(d.m.ContainsKey(k) == t.live.Contains(s), "contains key", zap.Int64("key", k))
	default:
		d.removeThroughIterator(t, k)
	}

	if i%verifyEvery == verifyEvery-1 {
		d.verify(t)
	}
	return t.r.violations < maxViolations
}

func (d *mapDriver) removeThroughIterator(t *task, k int64) {
	s := t.slot(k)
	it := d.m.Keys()
	for it.HasNext() {
		key, err := it.Next()
		if !t.check(err == nil, "iterator next", zap.Error(err)) {
			return
		}
		if key == k {
			if t.check(it.Remove() == nil, "iterator remove", zap.Int64("key", k)) {
				t.live.Remove(s)
			}
			return
		}
	}
	t.check(!t.live.Contains(s), "iterator missed key", zap.Int64("key", k))
}

func (d *mapDriver) verify(t *task) {
	t.check(uint64(d.m.Len()) == t.live.GetCardinality(), "len",
		zap.Int("len", d.m.Len()), zap.Uint64("expected", t.live.GetCardinality()))

	seen := roaring.New()
	prev := int64(math.MinInt64)
	ordered := true
	d.m.Range(func(k, v int64) bool {
		s := t.slot(k)
		t.check(t.live.Contains(s) && v == d.values[s], "range entry", zap.Int64("key", k))
		seen.Add(s)
		if d.sorted && seen.GetCardinality() > 1 && k <= prev {
			ordered = false
		}
		prev = k
		return true
	})
	t.check(seen.Equals(t.live), "range covers live keys")
	t.check(ordered, "ascending order")
}

type dequeDriver struct {
	d   *list.RingDeque[int64]
	ref []int64
}

func (d *dequeDriver) step(t *task, i int) bool {
	if i < 0 {
		d.verify(t)
		t.r.live = uint64(d.d.Len())
		return true
	}

	v := t.key()
	switch t.rand.Intn(10) {
	case 0, 1:
		d.d.AddLast(v)
		d.ref = append(d.ref, v)
	case 2, 3:
		d.d.AddFirst(v)
		d.ref = slices.Insert(d.ref, 0, v)
	case 4:
		got, err := d.d.RemoveFirst()
		if len(d.ref) == 0 {
			t.check(moerr.IsMoErrCode(err, moerr.ErrEmptyCollection), "remove first on empty")
			break
		}
		t.check(err == nil && got == d.ref[0], "remove first")
		d.ref = slices.Delete(d.ref, 0, 1)
	case 5:
		got, err := d.d.RemoveLast()
		if len(d.ref) == 0 {
			t.check(moerr.IsMoErrCode(err, moerr.ErrEmptyCollection), "remove last on empty")
			break
		}
		n := len(d.ref) - 1
		t.check(err == nil && got == d.ref[n], "remove last")
		d.ref = d.ref[:n]
	case 6:
		if len(d.ref) == 0 {
			break
		}
		idx := t.rand.Intn(len(d.ref))
		got, err := d.d.RemoveIndex(idx)
		t.check(err == nil && got == d.ref[idx], "remove index", zap.Int("index", idx))
		d.ref = slices.Delete(d.ref, idx, idx+1)
	case 7:
		idx := slices.Index(d.ref, v)
		t.check(d.d.RemoveValue(v) == (idx >= 0), "remove value", zap.Int64("value", v))
		if idx >= 0 {
			d.ref = slices.Delete(d.ref, idx, idx+1)
		}
	case 8:
		t.check(d.d.IndexOf(v) == slices.Index(d.ref, v), "index of", zap.Int64("value", v))
		if len(d.ref) > 0 {
			idx := t.rand.Intn(len(d.ref))
			got, err := d.d.Get(idx)
			t.check(err == nil && got == d.ref[idx], "get", zap.Int("index", idx))
		}
	default:
		first, err := d.d.First()
		if len(d.ref) == 0 {
			t.check(moerr.IsMoErrCode(err, moerr.ErrEmptyCollection), "first on empty")
			break
		}
		last, _ := d.d.Last()
		t.check(err == nil && first == d.ref[0] && last == d.ref[len(d.ref)-1], "first and last")
	}

	if i%verifyEvery == verifyEvery-1 {
		d.verify(t)
	}
	return t.r.violations < maxViolations
}

func (d *dequeDriver) verify(t *task) {
	t.check(d.d.Len() == len(d.ref), "len", zap.Int("len", d.d.Len()), zap.Int("expected", len(d.ref)))
	i := 0
	d.d.Iter(0, func(v int64) bool {
		ok := t.check(i < len(d.ref) && v == d.ref[i], "element", zap.Int("index", i))
		i++
		return ok
	})
}

type freeListDriver struct {
	a      *freelist.Array[int64]
	values []int64
	// free mirrors the free list, most recently freed last.
	free []int
}

func (d *freeListDriver) step(t *task, i int) bool {
	if i < 0 {
		d.verify(t)
		t.r.live = uint64(d.a.TotalItems())
		return true
	}

	switch op := t.rand.Intn(10); {
	case op < 5:
		v := t.key()
		expected := d.a.Len()
		if n := len(d.free); n > 0 {
			expected = d.free[n-1]
			d.free = d.free[:n-1]
		}
		idx := d.a.Add(v)
		t.check(idx == expected, "add index", zap.Int("index", idx), zap.Int("expected", expected))
		for len(d.values) <= idx {
			d.values = append(d.values, 0)
		}
		d.values[idx] = v
		t.live.Add(uint32(idx))
	case op < 8:
		card := t.live.GetCardinality()
		if card == 0 {
			if d.a.Len() > 0 {
				_, err := d.a.Remove(0)
				t.check(moerr.IsMoErrCode(err, moerr.ErrIllegalState), "remove free slot")
			}
			break
		}
		pos, err := t.live.Select(uint32(t.rand.Intn(int(card))))
		if !t.check(err == nil, "select live slot", zap.Error(err)) {
			break
		}
		v, err := d.a.Remove(int(pos))
		t.check(err == nil && v == d.values[pos], "remove", zap.Uint32("index", pos))
		t.live.Remove(pos)
		d.free = append(d.free, int(pos))
	case op < 9:
		if d.a.Len() == 0 {
			break
		}
		idx := t.rand.Intn(d.a.Len())
		v, err := d.a.Get(idx)
		expected := int64(0)
		if t.live.Contains(uint32(idx)) {
			expected = d.values[idx]
		}
		t.check(err == nil && v == expected, "get", zap.Int("index", idx))
	default:
		_, err := d.a.Get(d.a.Len())
		t.check(moerr.IsMoErrCode(err, moerr.ErrIndexOutOfBounds), "get past length")
	}

	if i%verifyEvery == verifyEvery-1 {
		d.verify(t)
	}
	return t.r.violations < maxViolations
}

func (d *freeListDriver) verify(t *task) {
	t.check(uint64(d.a.TotalItems()) == t.live.GetCardinality(), "total items")
	seen := roaring.New()
	d.a.Range(func(i int, v int64) bool {
		t.check(v == d.values[i], "range item", zap.Int("index", i))
		seen.Add(uint32(i))
		return true
	})
	t.check(seen.Equals(t.live), "range covers live slots")
}

type boundedMap interface {
	Put(key, value int64) (int64, bool)
	Get(key int64) (int64, bool)
	Remove(key int64) (int64, bool)
	ContainsKey(key int64) bool
	Len() int
}

type boundedDriver struct {
	m   boundedMap
	max int
}

func (d *boundedDriver) step(t *task, i int) bool {
	if i < 0 {
		t.check(d.m.Len() <= d.max, "bounded len", zap.Int("len", d.m.Len()))
		t.r.live = uint64(d.m.Len())
		return true
	}

	k := t.key()
	switch op := t.rand.Intn(100); {
	case op < 50:
		v := int64(i)
		d.m.Put(k, v)
		t.live.Add(t.slot(k))
		got, ok := d.m.Get(k)
		t.check(ok && got == v, "get after put", zap.Int64("key", k))
		t.check(d.m.Len() <= d.max, "bounded len", zap.Int("len", d.m.Len()))
	case op < 85:
		_, ok := d.m.Get(k)
		// a key never put cannot be present
		t.check(!ok || t.live.Contains(t.slot(k)), "get unknown key", zap.Int64("key", k))
	default:
		d.m.Remove(k)
		t.check(!d.m.ContainsKey(k), "contains after remove", zap.Int64("key", k))
	}
	return t.r.violations < maxViolations
}
