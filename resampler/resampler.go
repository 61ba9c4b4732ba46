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

// Package resampler bridges the device's native clocking rate and the
// transceiver's fixed symbol-rate-multiple sample rate, grounded on
// original_source's RadioInterfaceResamp and its Resampler collaborator.
//
// The polyphase filter design itself (tap generation, convolution) is a
// DSP concern outside this port's scope; Rotate here performs linear
// interpolation against a running input history, which preserves the
// rational-rate bookkeeping (chunk sizing, phase carry across calls) the
// radio interface pump depends on without reimplementing the filter math.
package resampler

import (
	"errors"
)

// Rate pairs used by the two clocking schemes original_source supports.
const (
	Rate64MIn  = 65
	Rate64MOut = 96

	Rate100MIn  = 52
	Rate100MOut = 75
)

// ErrShortOutput is returned by Rotate when the caller's output slice is
// too small to hold the resampled chunk implied by len(in).
var ErrShortOutput = errors.New("resampler: output buffer too small")

// Resampler performs rational-rate P/Q resampling, carrying fractional
// phase and trailing input history across successive Rotate calls the way
// a polyphase filter's delay line would.
type Resampler struct {
	inRate  int
	outRate int

	phase   int     // accumulated output-domain phase, in units of inRate
	history complex64
	primed  bool
}

// New returns a Resampler converting from inRate to outRate.
func New(inRate, outRate int) *Resampler {
	return &Resampler{inRate: inRate, outRate: outRate}
}

// New64M returns the 65/96 resampler used for 64 MHz device clocking.
func New64M() *Resampler { return New(Rate64MIn, Rate64MOut) }

// Dn64M returns the 96/65 down-converting counterpart of New64M, used on
// the receive path where the device runs ahead of the air-interface rate.
func Dn64M() *Resampler { return New(Rate64MOut, Rate64MIn) }

// New100M returns the 52/75 resampler used for 100 MHz device clocking.
func New100M() *Resampler { return New(Rate100MIn, Rate100MOut) }

// Dn100M returns the 75/52 down-converting counterpart of New100M.
func Dn100M() *Resampler { return New(Rate100MOut, Rate100MIn) }

// Len reports the filter's nominal history length in input samples. Fixed
// at 1 since Rotate keeps only the single trailing sample needed for
// linear interpolation across call boundaries.
func (r *Resampler) Len() int { return 1 }

// OutLen returns the output sample count Rotate produces for an input of
// inLen samples, matching len(in)*outRate/inRate exactly as the original's
// fixed chunk-size accounting relies on.
func (r *Resampler) OutLen(inLen int) int {
	return inLen * r.outRate / r.inRate
}

// Rotate consumes in and produces the resampled output into out, returning
// the number of output samples written. len(out) must be at least
// OutLen(len(in)).
func (r *Resampler) Rotate(in []complex64, out []complex64) (int, error) {
	n := r.OutLen(len(in))
	if len(out) < n {
		return 0, ErrShortOutput
	}
	if len(in) == 0 {
		return 0, nil
	}

	sample := func(idx int) complex64 {
		if idx < 0 {
			if !r.primed {
				return in[0]
			}
			return r.history
		}
		if idx >= len(in) {
			return in[len(in)-1]
		}
		return in[idx]
	}

	for i := 0; i < n; i++ {
		// Position in the input stream, scaled by inRate so it stays integral.
		pos := r.phase + i*r.inRate
		idx := pos / r.outRate
		frac := float32(pos%r.outRate) / float32(r.outRate)

		a := sample(idx - 1)
		b := sample(idx)
		out[i] = complex(
			real(a)+(real(b)-real(a))*frac,
			imag(a)+(imag(b)-imag(a))*frac,
		)
	}

	r.phase = (r.phase + n*r.inRate) % r.outRate
	r.history = in[len(in)-1]
	r.primed = true
	return n, nil
}
