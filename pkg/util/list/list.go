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

// Element is an element of a linked List.
type Element[E any] struct {
	// The list is a ring through the sentinel root, &l.root is the next
	// element of Back and the previous element of Front.
	next, prev *Element[E]
	list       *List[E]

	Value E
}

// Next returns the next list element or nil.
func (e *Element[E]) Next() *Element[E] {
	if p := e.next; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// Prev returns the previous list element or nil.
func (e *Element[E]) Prev() *Element[E] {
	if p := e.prev; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// List is a doubly linked list. It keeps recency order for bounded maps,
// where moving an element to the front must not allocate.
type List[E any] struct {
	root Element[E]
	len  int
}

func NewList[E any]() *List[E] {
	l := &List[E]{}
	l.Clear()
	return l
}

func (l *List[E]) Clear() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
}

func (l *List[E]) lazyInit() {
	if l.root.next == nil {
		l.Clear()
	}
}

func (l *List[E]) Len() int { return l.len }

// Front returns the first element, false if the list is empty.
func (l *List[E]) Front() (*Element[E], bool) {
	if l.len == 0 {
		return nil, false
	}
	return l.root.next, true
}

// Back returns the last element, false if the list is empty.
func (l *List[E]) Back() (*Element[E], bool) {
	if l.len == 0 {
		return nil, false
	}
	return l.root.prev, true
}

func (l *List[E]) PushFront(v E) *Element[E] {
	l.lazyInit()
	return l.insert(&Element[E]{Value: v}, &l.root)
}

func (l *List[E]) PushBack(v E) *Element[E] {
	l.lazyInit()
	return l.insert(&Element[E]{Value: v}, l.root.prev)
}

// PopBack removes and returns the last element, nil if the list is empty.
func (l *List[E]) PopBack() *Element[E] {
	if l.len == 0 {
		return nil
	}
	return l.remove(l.root.prev)
}

// Remove removes e if it belongs to l and returns its value.
func (l *List[E]) Remove(e *Element[E]) E {
	if e.list == l {
		l.remove(e)
	}
	return e.Value
}

// MoveToFront moves e to the front if it belongs to l.
func (l *List[E]) MoveToFront(e *Element[E]) {
	if e.list != l || l.root.next == e {
		return
	}
	l.move(e, &l.root)
}

// MoveToBack moves e to the back if it belongs to l.
func (l *List[E]) MoveToBack(e *Element[E]) {
	if e.list != l || l.root.prev == e {
		return
	}
	l.move(e, l.root.prev)
}

// Iter calls fn on the values from offset on, front to back, until fn
// returns false.
func (l *List[E]) Iter(offset int, fn func(E) bool) {
	if l.len == 0 {
		return
	}
	i := 0
	for e := l.root.next; e != &l.root; e = e.next {
		if i >= offset && !fn(e.Value) {
			return
		}
		i++
	}
}

// insert links e after at.
func (l *List[E]) insert(e, at *Element[E]) *Element[E] {
	e.prev = at
	e.next = at.next
	e.prev.next = e
	e.next.prev = e
	e.list = l
	l.len++
	return e
}

func (l *List[E]) remove(e *Element[E]) *Element[E] {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.len--
	return e
}

// move relinks e after at.
func (l *List[E]) move(e, at *Element[E]) {
	if e == at {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev

	e.prev = at
	e.next = at.next
	e.prev.next = e
	e.next.prev = e
}
