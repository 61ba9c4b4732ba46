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

package sampbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mkSamples(n int, start float32) []complex64 {
	out := make([]complex64, n)
	for i := 0; i < n; i++ {
		out[i] = complex(start+float32(i), 0)
	}
	return out
}

func TestWriteThenReadFreshBuffer(t *testing.T) {
	b := New(20)

	n, err := b.Write(mkSamples(10, 0), 100)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	avail, err := b.Avail(100)
	require.NoError(t, err)
	require.Equal(t, 10, avail)

	out := make([]complex64, 10)
	n, err = b.Read(out, 100)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, mkSamples(10, 0), out)
}

func TestAvailBeforeWindowIsTimestampError(t *testing.T) {
	b := New(20)
	_, err := b.Write(mkSamples(10, 0), 100)
	require.NoError(t, err)

	_, err = b.Avail(50)
	require.ErrorIs(t, err, ErrTimestamp)
}

func TestAvailAheadOfWriteFrontierIsZero(t *testing.T) {
	b := New(20)
	_, err := b.Write(mkSamples(10, 0), 100)
	require.NoError(t, err)

	avail, err := b.Avail(200)
	require.NoError(t, err)
	require.Equal(t, 0, avail)
}

func TestWriteWrapsAcrossRingBoundary(t *testing.T) {
	b := New(16)

	// First write fills the ring up to index 10 so the second wraps.
	_, err := b.Write(mkSamples(10, 0), 0)
	require.NoError(t, err)

	out := make([]complex64, 10)
	_, err = b.Read(out, 0)
	require.NoError(t, err)

	// Second write continues the timestamp sequence; it starts at index 10
	// and its end wraps past len(data) to the front of the ring.
	n, err := b.Write(mkSamples(10, 100), 10)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	got := make([]complex64, 10)
	n, err = b.Read(got, 10)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, mkSamples(10, 100), got)
}

func TestReadRejectsLengthAtOrAboveCapacity(t *testing.T) {
	b := New(8)
	_, err := b.Write(mkSamples(4, 0), 0)
	require.NoError(t, err)

	_, err = b.Read(make([]complex64, 8), 0)
	require.ErrorIs(t, err, ErrRead)
}

func TestWriteRejectsZeroLengthAndOverwrite(t *testing.T) {
	b := New(8)
	_, err := b.Write(nil, 0)
	require.ErrorIs(t, err, ErrWrite)

	_, err = b.Write(mkSamples(4, 0), 0)
	require.NoError(t, err)

	// Timestamp range already covered by the prior write.
	_, err = b.Write(mkSamples(2, 0), 0)
	require.ErrorIs(t, err, ErrTimestamp)
}

func TestStringReportsInternalState(t *testing.T) {
	b := New(32)
	_, err := b.Write(mkSamples(4, 0), 5)
	require.NoError(t, err)
	require.Contains(t, b.String(), "length = 32")
	require.Contains(t, b.String(), "time_end = 9")
}
