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

// Package sampbuf implements the ring buffer that bridges the device's
// continuous, monotonically timestamped sample stream and the burst-sized
// reads/writes the radio interface pump performs on it. Ported from
// original_source's smpl_buf.
package sampbuf

import (
	"errors"
	"fmt"
)

// Sentinel errors mirroring smpl_buf's err_code enum.
var (
	ErrTimestamp = errors.New("sampbuf: requested timestamp is not valid")
	ErrRead      = errors.New("sampbuf: read error")
	ErrWrite     = errors.New("sampbuf: write error")
	ErrOverflow  = errors.New("sampbuf: overrun")
)

// Buffer is a fixed-capacity ring of complex samples addressed by an
// absolute, monotonically increasing TIMESTAMP rather than a read/write
// cursor. Not safe for concurrent use; callers serialize access themselves
// (device.Device owns a single RX buffer and uses it only from ReadSamples).
type Buffer struct {
	data []complex64

	timeStart int64
	timeEnd   int64

	dataStart int
	dataEnd   int
}

// New allocates a buffer holding up to length samples.
func New(length int) *Buffer {
	return &Buffer{data: make([]complex64, length)}
}

// Avail reports how many samples are available for reading starting at
// timestamp: ErrTimestamp if timestamp already fell out of the window, 0 if
// timestamp hasn't been written yet, else the count up to the write
// frontier.
func (b *Buffer) Avail(timestamp int64) (int, error) {
	switch {
	case timestamp < b.timeStart:
		return 0, ErrTimestamp
	case timestamp >= b.timeEnd:
		return 0, nil
	default:
		return int(b.timeEnd - timestamp), nil
	}
}

// Read copies up to len(buf) samples starting at timestamp into buf and
// returns the number actually copied. It returns 0, nil if timestamp hasn't
// been written yet (caller should retry later), ErrTimestamp if timestamp
// has already been consumed past, and ErrRead if len(buf) is not smaller
// than the buffer's capacity.
func (b *Buffer) Read(buf []complex64, timestamp int64) (int, error) {
	n := len(b.data)

	if timestamp < b.timeStart {
		return 0, ErrTimestamp
	}
	if timestamp >= b.timeEnd {
		return 0, nil
	}
	if len(buf) >= n {
		return 0, ErrRead
	}

	numSmpls := int(b.timeEnd - timestamp)
	if numSmpls > len(buf) {
		numSmpls = len(buf)
	}

	readStart := (b.dataStart + int(timestamp-b.timeStart)) % n

	if readStart+len(buf) < n {
		copy(buf, b.data[readStart:readStart+len(buf)])
	} else {
		firstCp := n - readStart
		copy(buf[:firstCp], b.data[readStart:])
		copy(buf[firstCp:], b.data[:len(buf)-firstCp])
	}

	b.dataStart = (readStart + len(buf)) % n
	b.timeStart = timestamp + int64(len(buf))

	if b.timeStart > b.timeEnd {
		return 0, ErrRead
	}
	return numSmpls, nil
}

// Write copies buf into the ring at timestamp, extending the write
// frontier. The write must end past the current write frontier
// (timestamp+len(buf) greater than it); a write that starts before the
// frontier overwrites the samples it overlaps. len(buf) must be nonzero and
// smaller than the buffer's capacity. When the buffer holds no samples, a
// write starting past the frontier moves the start of the window to
// timestamp.
func (b *Buffer) Write(buf []complex64, timestamp int64) (int, error) {
	n := len(b.data)

	if len(buf) == 0 || len(buf) >= n {
		return 0, ErrWrite
	}
	if timestamp+int64(len(buf)) <= b.timeEnd {
		return 0, ErrTimestamp
	}
	if b.timeStart == b.timeEnd && timestamp > b.timeEnd {
		b.timeStart = timestamp
	}

	writeStart := (b.dataStart + int(timestamp-b.timeStart)) % n
	if writeStart < 0 {
		writeStart += n
	}

	if writeStart+len(buf) < n {
		copy(b.data[writeStart:writeStart+len(buf)], buf)
	} else {
		firstCp := n - writeStart
		copy(b.data[writeStart:], buf[:firstCp])
		copy(b.data[:len(buf)-firstCp], buf[firstCp:])
	}

	overflowed := writeStart+len(buf) > n
	b.dataEnd = (writeStart + len(buf)) % n
	b.timeEnd = timestamp + int64(len(buf))

	if overflowed && b.dataEnd > b.dataStart {
		return 0, ErrOverflow
	}
	if b.timeEnd <= b.timeStart {
		return 0, ErrWrite
	}
	return len(buf), nil
}

// String renders internal buffer state for diagnostics, mirroring
// smpl_buf::str_status.
func (b *Buffer) String() string {
	return fmt.Sprintf("sample buffer: length = %d, time_start = %d, time_end = %d, data_start = %d, data_end = %d",
		len(b.data), b.timeStart, b.timeEnd, b.dataStart, b.dataEnd)
}
