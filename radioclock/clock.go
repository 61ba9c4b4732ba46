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

// Package radioclock holds the shared GsmTime the transmit and receive
// pumps advance and read back, grounded on original_source's RadioClock.
package radioclock

import (
	"time"

	"github.com/obtsradio/transceiver52m/concurrency"
	"github.com/obtsradio/transceiver52m/gsmtime"
)

// Clock is the transceiver's notion of current air time, advanced by the RX
// pump and read by everything that schedules against it. Safe for
// concurrent use; every mutation wakes any goroutine blocked in Wait.
//
// Waiting is implemented with a replaced-on-signal channel rather than
// concurrency.Cond, since Wait needs a timeout and sync.Cond (which Cond
// wraps) has no such support.
type Clock struct {
	mu       concurrency.Mutex
	current  gsmtime.Time
	updateCh chan struct{}
}

// New returns a Clock initialized to the zero GsmTime.
func New() *Clock {
	return &Clock{updateCh: make(chan struct{})}
}

// Set overwrites the current time and wakes any waiters.
func (c *Clock) Set(t gsmtime.Time) {
	c.mu.Lock()
	c.current = t
	c.signal()
	c.mu.Unlock()
}

// IncTN advances the current time by one timeslot and wakes any waiters.
func (c *Clock) IncTN() {
	c.mu.Lock()
	if next, err := c.current.IncTN(1); err == nil {
		c.current = next
	}
	c.signal()
	c.mu.Unlock()
}

// signal must be called with mu held.
func (c *Clock) signal() {
	close(c.updateCh)
	c.updateCh = make(chan struct{})
}

// Get returns the current time.
func (c *Clock) Get() gsmtime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Wait blocks until the clock is next mutated or timeout elapses, whichever
// comes first. A non-positive timeout waits indefinitely for the next
// mutation.
func (c *Clock) Wait(timeout time.Duration) {
	c.mu.Lock()
	ch := c.updateCh
	c.mu.Unlock()

	if timeout <= 0 {
		<-ch
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
	}
}
