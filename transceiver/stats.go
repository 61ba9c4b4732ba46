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

package transceiver

import "sync"

// Stats accumulates named counters describing transceiver health: bursts
// transmitted/received, underruns, overruns, dropped TX queue entries.
// Grounded on the teacher's sptp/client Stats.
type Stats struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewStats returns an empty Stats.
func NewStats() *Stats {
	return &Stats{counters: map[string]int64{}}
}

// Incr increments a counter by 1.
func (s *Stats) Incr(key string) {
	s.UpdateCounterBy(key, 1)
}

// UpdateCounterBy adds count to the named counter.
func (s *Stats) UpdateCounterBy(key string, count int64) {
	s.mu.Lock()
	s.counters[key] += count
	s.mu.Unlock()
}

// SetCounter sets the named counter to val.
func (s *Stats) SetCounter(key string, val int64) {
	s.mu.Lock()
	s.counters[key] = val
	s.mu.Unlock()
}

// Get returns a snapshot copy of all counters.
func (s *Stats) Get() map[string]int64 {
	out := make(map[string]int64)
	s.mu.Lock()
	for k, v := range s.counters {
		out[k] = v
	}
	s.mu.Unlock()
	return out
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.mu.Lock()
	for k := range s.counters {
		s.counters[k] = 0
	}
	s.mu.Unlock()
}

// Counter names used throughout the transceiver pumps.
const (
	CounterBurstsTransmitted = "bursts.transmitted"
	CounterBurstsReceived    = "bursts.received"
	CounterUnderruns         = "underruns"
	CounterOverruns          = "overruns"
	CounterTxQueueDropped    = "tx_queue.dropped_stale"
)
