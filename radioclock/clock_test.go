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

package radioclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obtsradio/transceiver52m/gsmtime"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	want, err := gsmtime.New(42, 3)
	require.NoError(t, err)

	c.Set(want)
	require.Equal(t, want, c.Get())
}

func TestIncTNAdvancesTimeslot(t *testing.T) {
	c := New()
	start, err := gsmtime.New(10, 7)
	require.NoError(t, err)
	c.Set(start)

	c.IncTN()
	got := c.Get()
	require.EqualValues(t, 11, got.FN())
	require.EqualValues(t, 0, got.TN())
}

func TestWaitWakesOnMutation(t *testing.T) {
	c := New()
	done := make(chan struct{})
	go func() {
		c.Wait(0)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before any mutation")
	case <-time.After(50 * time.Millisecond):
	}

	c.IncTN()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait never woke after IncTN")
	}
}

func TestWaitTimesOutWithoutMutation(t *testing.T) {
	c := New()
	start := time.Now()
	c.Wait(20 * time.Millisecond)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
