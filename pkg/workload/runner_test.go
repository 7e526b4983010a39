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
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
	"github.com/matrixorigin/primcoll/pkg/common/reuse"
	"github.com/matrixorigin/primcoll/pkg/config"
	v2 "github.com/matrixorigin/primcoll/pkg/util/metric/v2"
)

func newTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Collections.InitialCapacity = 4
	cfg.Stress.Workers = 2
	cfg.Stress.Ops = 20000
	cfg.Stress.KeySpace = 512
	cfg.Stress.MaxCapacity = 32
	return cfg
}

func TestRunAllTypes(t *testing.T) {
	defer leaktest.AfterTest(t)()
	cfg := newTestConfig()

	before := testutil.ToFloat64(v2.GetStressOpsCounter(TypeCuckoo))
	reports, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, reports, len(Types))

	for i, r := range reports {
		if i > 0 {
			assert.Less(t, reports[i-1].Type, r.Type)
		}
		assert.Equal(t, cfg.Stress.Workers, r.Tasks, r.Type)
		assert.Equal(t, uint64(cfg.Stress.Workers*cfg.Stress.Ops), r.Ops, r.Type)
		assert.Zero(t, r.Violations, r.Type)
		assert.Greater(t, r.Distinct, uint64(0), r.Type)
		assert.LessOrEqual(t, r.Distinct, uint64(cfg.Stress.KeySpace*11/10), r.Type)
		if r.Type == TypeFrequency || r.Type == TypeRecency {
			assert.LessOrEqual(t, r.Live, uint64(cfg.Stress.Workers*cfg.Stress.MaxCapacity), r.Type)
		}
	}
	after := testutil.ToFloat64(v2.GetStressOpsCounter(TypeCuckoo))
	assert.Equal(t, float64(cfg.Stress.Workers*cfg.Stress.Ops), after-before)
}

func TestRunWithAllocatedIterators(t *testing.T) {
	cfg := newTestConfig()
	cfg.Stress.Ops = 5000
	reuse.RunWithAllocatedIterators(func() {
		reports, err := Run(context.Background(), cfg, TypeLinear, TypeSorted)
		require.NoError(t, err)
		require.Len(t, reports, 2)
		for _, r := range reports {
			assert.Zero(t, r.Violations, r.Type)
		}
	})
}

func TestRunUnknownType(t *testing.T) {
	_, err := Run(context.Background(), newTestConfig(), "skiplist")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
}

func TestRunBadConfig(t *testing.T) {
	cfg := newTestConfig()
	cfg.Stress.Workers = 0
	_, err := Run(context.Background(), cfg)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, newTestConfig(), TypeDeque)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTaskSameSeedSameResult(t *testing.T) {
	cfg := newTestConfig()
	cfg.Stress.Ops = 3000
	for _, typ := range Types {
		a, err := newTask(typ, cfg, 7)
		require.NoError(t, err)
		b, err := newTask(typ, cfg, 7)
		require.NoError(t, err)
		ra, rb := a.run(context.Background()), b.run(context.Background())
		assert.Equal(t, ra.live, rb.live, typ)
		assert.True(t, a.live.Equals(b.live), typ)
		assert.Zero(t, ra.violations, typ)
	}
}

func TestCheckCountsViolations(t *testing.T) {
	task, err := newTask(TypeDeque, newTestConfig(), 1)
	require.NoError(t, err)
	assert.True(t, task.check(true, "fine"))
	assert.False(t, task.check(false, "broken"))
	assert.Equal(t, uint64(1), task.r.violations)
}
