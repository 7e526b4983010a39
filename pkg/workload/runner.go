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
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/axiomhq/hyperloglog"
	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/config"
	"github.com/matrixorigin/primcoll/pkg/logutil"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	TypeCuckoo    = "cuckoo"
	TypeLinear    = "linear"
	TypeSorted    = "sorted"
	TypeDeque     = "deque"
	TypeFreeList  = "freelist"
	TypeFrequency = "frequency"
	TypeRecency   = "recency"
)

// Types lists every collection the runner exercises.
var Types = []string{
	TypeCuckoo, TypeLinear, TypeSorted, TypeDeque, TypeFreeList, TypeFrequency, TypeRecency,
}

// Report sums up the tasks of one collection type.
type Report struct {
	Type       string
	Tasks      int
	Ops        uint64
	Violations uint64
	// Distinct estimates how many different keys the tasks touched.
	Distinct uint64
	// Live is the number of entries left in the collections at the end.
	Live     uint64
	Duration time.Duration
}

// Run applies cfg.Stress.Ops random operations to every collection type
// once per worker, each task owning its collection and checking it against
// a reference model. Tasks run on an ants pool of cfg.Stress.Workers
// goroutines.
func Run(ctx context.Context, cfg *config.Config, types ...string) ([]Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(types) == 0 {
		types = Types
	}

	var panicked atomic.Value
	pool, err := ants.NewPool(cfg.Stress.Workers, ants.WithPanicHandler(func(p interface{}) {
		e := moerr.ConvertPanicError(ctx, p)
		panicked.CompareAndSwap(nil, e)
		logutil.Error("stress task panicked", zap.Error(e))
	}))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*result
	)
	for _, typ := range types {
		for w := 0; w < cfg.Stress.Workers; w++ {
			t, err := newTask(typ, cfg, cfg.Collections.Seed+uint64(w))
			if err != nil {
				wg.Wait()
				return nil, err
			}
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				r := t.run(ctx)
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}); err != nil {
				wg.Done()
				wg.Wait()
				return nil, err
			}
		}
	}
	wg.Wait()

	if e, ok := panicked.Load().(*moerr.Error); ok {
		return nil, e
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return summarize(results), nil
}

func summarize(results []*result) []Report {
	byType := make(map[string]*Report)
	sketches := make(map[string]*hyperloglog.Sketch)
	for _, r := range results {
		rep, ok := byType[r.typ]
		if !ok {
			rep = &Report{Type: r.typ}
			byType[r.typ] = rep
			sketches[r.typ] = hyperloglog.New()
		}
		rep.Tasks++
		rep.Ops += r.ops
		rep.Violations += r.violations
		rep.Live += r.live
		if r.duration > rep.Duration {
			rep.Duration = r.duration
		}
		if err := sketches[r.typ].Merge(r.sketch); err != nil {
			logutil.Warn("merge distinct key sketch", zap.String("type", r.typ), zap.Error(err))
		}
	}

	reports := make([]Report, 0, len(byType))
	for typ, rep := range byType {
		rep.Distinct = sketches[typ].Estimate()
		reports = append(reports, *rep)

		logutil.Info("stress finished",
			zap.String("type", typ),
			zap.Int("tasks", rep.Tasks),
			zap.Uint64("ops", rep.Ops),
			zap.Uint64("violations", rep.Violations),
			zap.Uint64("distinct", rep.Distinct),
			zap.Uint64("live", rep.Live),
			zap.Duration("duration", rep.Duration))
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Type < reports[j].Type })
	return reports
}

func observe(r *result) {
	v2.GetStressOpsCounter(r.typ).Add(float64(r.ops))
	if r.violations > 0 {
		v2.GetStressViolationCounter(r.typ).Add(float64(r.violations))
	}
	v2.GetStressTaskDurationHistogram(r.typ).Observe(r.duration.Seconds())
}
