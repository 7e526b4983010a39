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

// Reusable is implemented by iterators handed out through a Pair.
type Reusable interface {
	Reset()
	SetValid(valid bool)
	Valid() bool
}

// Pair owns the two iterator instances a collection keeps per iteration kind.
//
// Acquire returns the first instance unless it is still in use, in which
// case the second one is returned and the first one is invalidated. An outer
// loop that keeps using an invalidated iterator gets ErrNestedIteration
// instead of silently sharing state with the inner loop.
//
// The zero value is not usable, create it with NewPair.
type Pair[T Reusable] struct {
	alloc  func() T
	first  T
	second T
	ready  bool
}

func NewPair[T Reusable](alloc func() T) Pair[T] {
	return Pair[T]{alloc: alloc}
}

func (p *Pair[T]) Acquire() T {
	if allocateIterators.Load() {
		it := p.alloc()
		it.Reset()
		it.SetValid(true)
		return it
	}

	if !p.ready {
		p.first, p.second = p.alloc(), p.alloc()
		p.ready = true
	}

	if !p.first.Valid() {
		p.first.Reset()
		p.first.SetValid(true)
		p.second.SetValid(false)
		return p.first
	}
	p.second.Reset()
	p.second.SetValid(true)
	p.first.SetValid(false)
	return p.second
}
