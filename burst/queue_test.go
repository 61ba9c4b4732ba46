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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obtsradio/transceiver52m/gsmtime"
)

func mustTime(t *testing.T, fn uint32, tn uint8) gsmtime.Time {
	t.Helper()
	v, err := gsmtime.New(fn, tn)
	require.NoError(t, err)
	return v
}

func TestQueueOrdersByTime(t *testing.T) {
	q := NewQueue()
	q.Push(NewVector(nil, mustTime(t, 10, 3)))
	q.Push(NewVector(nil, mustTime(t, 5, 0)))
	q.Push(NewVector(nil, mustTime(t, 5, 2)))

	require.Equal(t, mustTime(t, 5, 0), q.NextTime())
	v := q.GetStale(mustTime(t, 5, 1))
	require.NotNil(t, v)
	require.Equal(t, mustTime(t, 5, 0), v.Time)
}

func TestGetStaleNilWhenMinimumNotOlder(t *testing.T) {
	q := NewQueue()
	q.Push(NewVector(nil, mustTime(t, 5, 0)))
	require.Nil(t, q.GetStale(mustTime(t, 5, 0)))
	require.Nil(t, q.GetStale(mustTime(t, 4, 7)))
	require.NotNil(t, q.GetStale(mustTime(t, 5, 1)))
}

func TestGetCurrentOnlyMatchesExact(t *testing.T) {
	q := NewQueue()
	target := mustTime(t, 100, 4)
	q.Push(NewVector(nil, target))

	require.Nil(t, q.GetCurrent(mustTime(t, 100, 5)))
	v := q.GetCurrent(target)
	require.NotNil(t, v)
	require.Equal(t, 0, q.Len())
}

func TestNextTimeBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	done := make(chan gsmtime.Time, 1)
	go func() {
		done <- q.NextTime()
	}()

	select {
	case <-done:
		t.Fatal("NextTime returned before any push")
	case <-time.After(50 * time.Millisecond):
	}

	want := mustTime(t, 7, 1)
	q.Push(NewVector(nil, want))

	select {
	case got := <-done:
		require.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("NextTime never returned after push")
	}
}

func TestFIFOOrderAndBackpressure(t *testing.T) {
	f := NewFIFO()
	require.Equal(t, 0, f.Size())
	f.Put(NewVector(nil, mustTime(t, 1, 0)))
	f.Put(NewVector(nil, mustTime(t, 1, 1)))
	require.Equal(t, 2, f.Size())

	v := f.Get()
	require.Equal(t, mustTime(t, 1, 0), v.Time)
	require.Equal(t, 1, f.Size())
}

func TestNoiseTrackerAverages(t *testing.T) {
	nt := NewNoiseTracker(3)
	require.Equal(t, float64(0), nt.Avg())
	nt.Insert(1)
	nt.Insert(2)
	nt.Insert(3)
	require.InDelta(t, 2.0, nt.Avg(), 1e-9)
	nt.Insert(6) // evicts the 1
	require.InDelta(t, (2.0+3.0+6.0)/3.0, nt.Avg(), 1e-9)
}
