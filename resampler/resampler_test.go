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

package resampler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutLenMatchesRationalRate(t *testing.T) {
	r := New64M()
	require.Equal(t, 96, r.OutLen(65))
	require.Equal(t, 960, r.OutLen(650))

	d := New100M()
	require.Equal(t, 75, d.OutLen(52))
}

func TestRotateProducesExpectedLength(t *testing.T) {
	r := New64M()
	in := make([]complex64, 65*4)
	for i := range in {
		in[i] = complex(float32(i), 0)
	}
	out := make([]complex64, r.OutLen(len(in)))

	n, err := r.Rotate(in, out)
	require.NoError(t, err)
	require.Equal(t, len(out), n)
}

func TestRotateRejectsShortOutput(t *testing.T) {
	r := New64M()
	in := make([]complex64, 65)
	out := make([]complex64, 10)

	_, err := r.Rotate(in, out)
	require.ErrorIs(t, err, ErrShortOutput)
}

func TestRotateCarriesPhaseAcrossCalls(t *testing.T) {
	r := New64M()
	in := make([]complex64, 65)
	for i := range in {
		in[i] = complex(float32(i), 0)
	}

	out1 := make([]complex64, r.OutLen(len(in)))
	_, err := r.Rotate(in, out1)
	require.NoError(t, err)

	out2 := make([]complex64, r.OutLen(len(in)))
	_, err = r.Rotate(in, out2)
	require.NoError(t, err)

	// The second call's first sample should interpolate from the trailing
	// history of the first call, not restart cold from in[0].
	require.NotEqual(t, out1[0], out2[0])
}

func TestRotateRoundTripDownUp(t *testing.T) {
	up := New64M()
	down := Dn64M()

	in := make([]complex64, 65*2)
	for i := range in {
		in[i] = complex(float32(i), float32(-i))
	}

	mid := make([]complex64, up.OutLen(len(in)))
	n, err := up.Rotate(in, mid)
	require.NoError(t, err)
	require.Equal(t, len(mid), n)

	back := make([]complex64, down.OutLen(n))
	n, err = down.Rotate(mid[:n], back)
	require.NoError(t, err)
	require.Equal(t, len(back), n)
}
