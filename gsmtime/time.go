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

// Package gsmtime implements the GSM 05.02 §4.3 hyperframe-modular clock:
// a (FN, TN) pair with wraparound-aware comparison and the derived time
// fields used throughout the air interface (T1, T2, T3, TC, ...).
package gsmtime

import (
	"fmt"
)

// MaxTimeslots is the number of timeslots per TDMA frame, GSM 05.02 §4.3.2.
const MaxTimeslots = 8

// MaxFrames is the hyperframe modulus: 26 * 51 * 2048, GSM 05.02 §4.3.3.
const MaxFrames = 26 * 51 * 2048

// ErrInvalidArgument is returned when a mutation would push FN or TN out of
// their valid ranges, or a step argument exceeds what the operation allows.
var ErrInvalidArgument = fmt.Errorf("gsmtime: invalid argument")

// Time is a GSM frame-clock value: a frame number within the hyperframe and
// a timeslot number within the frame. It carries no internal synchronization
// — callers needing cross-goroutine visibility should use radioclock.Clock.
type Time struct {
	fn uint32
	tn uint8
}

// New builds a Time, validating both fields.
func New(fn uint32, tn uint8) (Time, error) {
	if fn >= MaxFrames {
		return Time{}, fmt.Errorf("%w: frame number %d >= %d", ErrInvalidArgument, fn, MaxFrames)
	}
	if tn >= MaxTimeslots {
		return Time{}, fmt.Errorf("%w: timeslot number %d >= %d", ErrInvalidArgument, tn, MaxTimeslots)
	}
	return Time{fn: fn, tn: tn}, nil
}

// FN returns the frame number.
func (t Time) FN() uint32 { return t.fn }

// TN returns the timeslot number.
func (t Time) TN() uint8 { return t.tn }

// SetFN sets the frame number, bounds-checked.
func (t *Time) SetFN(fn uint32) error {
	if fn >= MaxFrames {
		return fmt.Errorf("%w: frame number %d >= %d", ErrInvalidArgument, fn, MaxFrames)
	}
	t.fn = fn
	return nil
}

// SetTN sets the timeslot number, bounds-checked.
func (t *Time) SetTN(tn uint8) error {
	if tn >= MaxTimeslots {
		return fmt.Errorf("%w: timeslot number %d >= %d", ErrInvalidArgument, tn, MaxTimeslots)
	}
	t.tn = tn
	return nil
}

// FNDelta returns the circular distance v1-v2 adjusted into (-H/2, H/2],
// per spec.md §3.
func FNDelta(v1, v2 uint32) int32 {
	d := int32(v1) - int32(v2)
	const half = MaxFrames / 2
	if d <= -half {
		d += MaxFrames
	} else if d > half {
		d -= MaxFrames
	}
	return d
}

// FNCompare returns 1 if v1>v2, -1 if v1<v2, 0 if v1==v2 under modular order.
func FNCompare(v1, v2 uint32) int {
	d := FNDelta(v1, v2)
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	default:
		return 0
	}
}

// Less reports whether t < other under modular comparison (spec.md §3): TN
// breaks ties when FN is equal, otherwise FN's modular order decides.
func (t Time) Less(other Time) bool {
	if t.fn == other.fn {
		return t.tn < other.tn
	}
	return FNCompare(t.fn, other.fn) < 0
}

// Greater reports whether t > other.
func (t Time) Greater(other Time) bool {
	if t.fn == other.fn {
		return t.tn > other.tn
	}
	return FNCompare(t.fn, other.fn) > 0
}

// Equal reports whether t == other.
func (t Time) Equal(other Time) bool {
	return t.fn == other.fn && t.tn == other.tn
}

// LessOrEqual reports t <= other.
func (t Time) LessOrEqual(other Time) bool {
	return t.Less(other) || t.Equal(other)
}

// GreaterOrEqual reports t >= other.
func (t Time) GreaterOrEqual(other Time) bool {
	return t.Greater(other) || t.Equal(other)
}

// Add advances FN by step (which may be negative) mod MaxFrames, leaving TN
// untouched. Mirrors the original's GsmTime::operator+=.
func (t Time) Add(step int32) Time {
	fn := (int64(t.fn) + int64(step)) % MaxFrames
	if fn < 0 {
		fn += MaxFrames
	}
	return Time{fn: uint32(fn), tn: t.tn}
}

// IncTN advances the timeslot by step, carrying into FN on overflow. step
// must not exceed MaxTimeslots.
func (t Time) IncTN(step uint8) (Time, error) {
	if step > MaxTimeslots {
		return Time{}, fmt.Errorf("%w: step %d > %d", ErrInvalidArgument, step, MaxTimeslots)
	}
	tn := int32(t.tn) + int32(step)
	fn := int64(t.fn)
	if tn > 7 {
		tn -= MaxTimeslots
		fn = (fn + 1) % MaxFrames
	}
	return Time{fn: uint32(fn), tn: uint8(tn)}, nil
}

// DecTN retreats the timeslot by step, borrowing from FN (with hyperframe
// wraparound) when it underflows. step must not exceed MaxTimeslots.
func (t Time) DecTN(step uint8) (Time, error) {
	if step > MaxTimeslots {
		return Time{}, fmt.Errorf("%w: step %d > %d", ErrInvalidArgument, step, MaxTimeslots)
	}
	tn := int32(t.tn) - int32(step)
	fn := int64(t.fn)
	if tn < 0 {
		tn += MaxTimeslots
		fn--
		if fn < 0 {
			fn += MaxFrames
		}
	}
	return Time{fn: uint32(fn), tn: uint8(tn)}, nil
}

// Combine adds two Time values, carrying TN overflow into FN, per the
// original's GsmTime::operator+(const GsmTime&).
func (t Time) Combine(other Time) Time {
	sumTN := uint32(t.tn) + uint32(other.tn)
	newTN := sumTN % MaxTimeslots
	newFN := (uint64(t.fn) + uint64(other.fn) + uint64(sumTN/MaxTimeslots)) % MaxFrames
	return Time{fn: uint32(newFN), tn: uint8(newTN)}
}

// RollForward advances FN to the smallest FN >= current FN such that
// FN mod modulus == target. modulus must be < MaxFrames.
func (t Time) RollForward(target, modulus uint32) (Time, error) {
	if modulus >= MaxFrames {
		return Time{}, fmt.Errorf("%w: modulus %d >= %d", ErrInvalidArgument, modulus, MaxFrames)
	}
	fn := t.fn
	for fn%modulus != target {
		fn = (fn + 1) % MaxFrames
	}
	return Time{fn: fn, tn: t.tn}, nil
}

// SFN is the superframe number, GSM 05.02 §3.3.2.2.1.
func (t Time) SFN() uint32 { return t.fn / (26 * 51) }

// T1 is GSM 05.02 §3.3.2.2.1.
func (t Time) T1() uint32 { return t.SFN() % 2048 }

// T2 is GSM 05.02 §3.3.2.2.1.
func (t Time) T2() uint32 { return t.fn % 26 }

// T3 is GSM 05.02 §3.3.2.2.1.
func (t Time) T3() uint32 { return t.fn % 51 }

// T3p is GSM 05.02 §3.3.2.2.1.
func (t Time) T3p() uint32 { return (t.T3() - 1) / 10 }

// TC is GSM 05.02 §6.3.1.3.
func (t Time) TC() uint32 { return (t.fn / 51) % 8 }

// T1p is GSM 04.08 §10.5.2.30.
func (t Time) T1p() uint32 { return t.SFN() % 32 }

// T1R is GSM 05.02 §6.2.3.
func (t Time) T1R() uint32 { return t.T1() % 64 }

// String formats the time as FN:TN, convenient for log lines.
func (t Time) String() string {
	return fmt.Sprintf("%d:%d", t.fn, t.tn)
}
