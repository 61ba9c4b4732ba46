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

package burst

import (
	"github.com/obtsradio/transceiver52m/concurrency"
	"github.com/obtsradio/transceiver52m/gsmtime"
)

// entry pairs a burst with its insertion sequence number, the deterministic
// tiebreaker spec.md §3 allows ("ties broken by arbitrary but deterministic
// rule, FIFO insertion order acceptable").
type entry struct {
	v   *Vector
	seq uint64
}

// Queue is a GsmTime-ordered min-heap of bursts awaiting transmission,
// grounded on original_source's VectorQueue (an InterthreadPriorityQueue).
// All operations are atomic under concurrency.Mutex/Cond, signalled on
// push, per spec.md §4.4.
type Queue struct {
	mu     concurrency.Mutex
	cond   *concurrency.Cond
	pq     *concurrency.PriorityQueue[entry]
	seqNum uint64
}

// NewQueue returns an empty priority queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = concurrency.NewCond(&q.mu)
	q.pq = concurrency.NewPriorityQueue(func(a, b entry) bool {
		if a.v.Time.Equal(b.v.Time) {
			return a.seq < b.seq
		}
		return a.v.Time.Less(b.v.Time)
	})
	return q
}

// Push inserts a burst and wakes any goroutine blocked in NextTime.
func (q *Queue) Push(v *Vector) {
	q.mu.Lock()
	q.pq.PushItem(entry{v: v, seq: q.seqNum})
	q.seqNum++
	q.cond.Broadcast()
	q.mu.Unlock()
}

// NextTime blocks until the queue is non-empty and returns the GsmTime of
// the earliest-scheduled burst, without removing it. Callers must only call
// this when they expect a burst to eventually arrive (spec.md §9).
func (q *Queue) NextTime() gsmtime.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pq.Len() == 0 {
		q.cond.Wait()
	}
	return q.pq.Peek().v.Time
}

// GetStale pops and returns the earliest-scheduled burst if it's older than
// target, else returns nil without modifying the queue.
func (q *Queue) GetStale(target gsmtime.Time) *Vector {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pq.Len() == 0 {
		return nil
	}
	if q.pq.Peek().v.Time.Less(target) {
		return q.pq.PopItem().v
	}
	return nil
}

// GetCurrent pops and returns the earliest-scheduled burst if its time
// equals target, else returns nil without modifying the queue.
func (q *Queue) GetCurrent(target gsmtime.Time) *Vector {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pq.Len() == 0 {
		return nil
	}
	if q.pq.Peek().v.Time.Equal(target) {
		return q.pq.PopItem().v
	}
	return nil
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pq.Len()
}
