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

package reuse

import (
	"sync/atomic"

	"github.com/matrixorigin/primcoll/pkg/common/moerr"
)

var (
	idle  = step(0)
	inUse = step(1)
)

type step int

// allocateIterators makes every Pair hand out a fresh iterator, which lifts
// the limit of two live iterations per collection at the cost of an
// allocation per request.
var allocateIterators atomic.Bool

// SetAllocateIterators switches all pairs between reuse and allocation.
func SetAllocateIterators(v bool) {
	allocateIterators.Store(v)
}

// AllocateIterators reports whether pairs allocate a new iterator per request.
func AllocateIterators() bool {
	return allocateIterators.Load()
}

// RunWithAllocatedIterators runs fn with allocation enabled and restores the
// previous mode afterwards.
func RunWithAllocatedIterators(fn func()) {
	old := allocateIterators.Swap(true)
	defer allocateIterators.Store(old)
	fn()
}

// Guard records whether a pooled iterator is the one currently handed out.
// Iterators embed it and call Check at the top of every operation.
type Guard struct {
	state step
}

func (g *Guard) SetValid(valid bool) {
	if valid {
		g.state = inUse
	} else {
		g.state = idle
	}
}

func (g *Guard) Valid() bool {
	return g.state == inUse
}

// Check fails if the iterator was taken back by a later request.
func (g *Guard) Check() error {
	if g.state != inUse {
		return moerr.NewNestedIterationNoCtx()
	}
	return nil
}
