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

// Package concurrency holds the small set of synchronization primitives the
// core shares: a deadlock-watchdog Mutex, a Cond built on it, and a generic
// priority queue.
package concurrency

import (
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// WatchdogThreshold is how long Mutex.Lock waits before logging a stack
// trace. Diagnostic only — the lock is still acquired afterwards.
const WatchdogThreshold = 1 * time.Second

// Mutex is a sync.Mutex that logs a stack trace if a lock acquisition blocks
// longer than WatchdogThreshold. It never refuses or times out the lock; the
// watchdog is diagnostic only, matching the legacy behavior where a slow
// lock is reported and then still honored.
type Mutex struct {
	mu sync.Mutex
}

// lockPollInterval is how often Lock retries TryLock while waiting to see
// whether WatchdogThreshold has elapsed, mirroring the legacy
// timedlock-then-backtrace-then-block sequence without a syscall timedlock.
const lockPollInterval = 10 * time.Millisecond

// Lock blocks until the mutex is acquired, logging a stack trace once if it
// takes more than WatchdogThreshold. After logging it falls back to a plain
// blocking lock — the watchdog never refuses the lock, only reports it.
func (m *Mutex) Lock() {
	deadline := time.Now().Add(WatchdogThreshold)
	for time.Now().Before(deadline) {
		if m.mu.TryLock() {
			return
		}
		time.Sleep(lockPollInterval)
	}
	if m.mu.TryLock() {
		return
	}
	buf := make([]byte, 16384)
	n := runtime.Stack(buf, false)
	log.Errorf("concurrency: mutex blocked more than %s:\n%s", WatchdogThreshold, buf[:n])
	m.mu.Lock()
}

// Unlock releases the mutex.
func (m *Mutex) Unlock() {
	m.mu.Unlock()
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	return m.mu.TryLock()
}
