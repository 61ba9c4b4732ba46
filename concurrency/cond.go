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

import "sync"

// Cond pairs a Mutex with a condition variable, the same way
// original_source's Mutex/Signal collaborators are used together around a
// pthread_cond_t guarded by a pthread_mutex_t. Built on sync.Cond since
// *Mutex already satisfies sync.Locker.
type Cond struct {
	L    *Mutex
	cond *sync.Cond
}

// NewCond returns a Cond whose Wait/Signal/Broadcast are guarded by l. l
// must already be held by the caller before Wait is called, exactly as
// sync.Cond requires.
func NewCond(l *Mutex) *Cond {
	return &Cond{L: l, cond: sync.NewCond(l)}
}

// Wait atomically unlocks L and suspends the calling goroutine, resuming
// and relocking L once woken by Signal or Broadcast.
func (c *Cond) Wait() { c.cond.Wait() }

// Signal wakes one goroutine blocked in Wait, if any.
func (c *Cond) Signal() { c.cond.Signal() }

// Broadcast wakes every goroutine blocked in Wait.
func (c *Cond) Broadcast() { c.cond.Broadcast() }
