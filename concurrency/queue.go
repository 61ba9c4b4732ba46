/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package concurrency

import "container/heap"

// PriorityQueue is a generic min-heap ordered by a caller-supplied less
// function, implementing container/heap.Interface so any element type can
// get a heap without hand-rolling the Len/Less/Swap/Push/Pop boilerplate
// for each concrete type, the way burst.Queue used to for its own entry
// type alone.
type PriorityQueue[T any] struct {
	items []T
	less  func(a, b T) bool
}

// NewPriorityQueue returns an empty queue ordered by less.
func NewPriorityQueue[T any](less func(a, b T) bool) *PriorityQueue[T] {
	return &PriorityQueue[T]{less: less}
}

func (q *PriorityQueue[T]) Len() int            { return len(q.items) }
func (q *PriorityQueue[T]) Less(i, j int) bool  { return q.less(q.items[i], q.items[j]) }
func (q *PriorityQueue[T]) Swap(i, j int)       { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *PriorityQueue[T]) Push(x any)          { q.items = append(q.items, x.(T)) }
func (q *PriorityQueue[T]) Pop() any {
	n := len(q.items)
	x := q.items[n-1]
	q.items = q.items[:n-1]
	return x
}

// PushItem inserts v, maintaining heap order.
func (q *PriorityQueue[T]) PushItem(v T) { heap.Push(q, v) }

// PopItem removes and returns the minimum element.
func (q *PriorityQueue[T]) PopItem() T { return heap.Pop(q).(T) }

// Peek returns the minimum element without removing it. Callers must check
// Len() > 0 first.
func (q *PriorityQueue[T]) Peek() T { return q.items[0] }
