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

// Package device wraps a radio hardware driver with the timestamp alignment
// state machine, gain bookkeeping and clocking-mode dispatch that
// original_source's uhd_device layers on top of the raw transport. Open
// performs the model detection, base-rate selection, and ts_offset lookup
// that decide which radiointerface variant the caller should build; the
// actual sample transport to silicon is left behind the Driver interface,
// so swapping transports never touches that logic.
package device

// AsyncEventCode classifies an out-of-band notification a Driver reports
// from its transmit path, mirroring uhd::async_metadata_t::event_code.
type AsyncEventCode int

const (
	// AsyncBurstAck confirms a TX burst was accepted; it never invalidates
	// transmitter alignment.
	AsyncBurstAck AsyncEventCode = iota
	// AsyncUnderflow reports the device ran out of samples mid-burst.
	AsyncUnderflow
	// AsyncTimeError reports a late or otherwise mistimed command.
	AsyncTimeError
	// AsyncOther covers every other device-reported TX error.
	AsyncOther
)

// AsyncEvent is a single notification drained from a Driver's event channel.
type AsyncEvent struct {
	Code AsyncEventCode
}

// Driver is the narrow, hardware-facing contract a concrete SDR binding
// must satisfy. Everything above this interface — alignment, gain/freq
// bookkeeping, clocking mode dispatch — lives in Device and is exercised
// purely in terms of this contract, so swapping transports never touches
// transceiver logic. No concrete implementation ships in this module; the
// binding to a real radio is left to the deployment.
type Driver interface {
	// Open prepares the underlying device for streaming, given a
	// driver-specific argument string (device address, serial, etc).
	Open(args string) error

	// Start begins continuous RX/TX streaming.
	Start() error
	// Stop halts streaming.
	Stop() error
	// Restart sets the device's internal clock to ts, used by Device's
	// restart choreography (stop, drain, Restart, start) after a timing
	// fault is detected.
	Restart(ts int64) error

	// ReadSamples fills buf starting at the given device timestamp,
	// returning the number of samples actually read, the device-reported
	// timestamp of the packet actually delivered (which Device compares
	// against the previous packet to detect a monotonicity violation), and
	// whether an overrun was detected on this call.
	ReadSamples(buf []complex64, timestamp int64) (n int, packetTimestamp int64, overrun bool, err error)
	// WriteSamples sends buf to the device tagged with the given device
	// timestamp, returning the number of samples actually accepted.
	WriteSamples(buf []complex64, timestamp int64) (n int, err error)

	// SetTxFreq tunes the transmit chain and returns the frequency actually
	// set.
	SetTxFreq(hz float64) (float64, error)
	// SetRxFreq tunes the receive chain and returns the frequency actually
	// set.
	SetRxFreq(hz float64) (float64, error)
	// SetTxGain sets transmit gain and returns the gain actually set.
	SetTxGain(db float64) (float64, error)
	// SetRxGain sets receive gain and returns the gain actually set.
	SetRxGain(db float64) (float64, error)

	// TxGainRange reports the device's supported transmit gain bounds.
	TxGainRange() (min, max float64)
	// RxGainRange reports the device's supported receive gain bounds.
	RxGainRange() (min, max float64)

	// SampleRate reports the device's native sample rate in samples/sec.
	SampleRate() float64

	// UpdateAlignment nudges the device's internal TX alignment tracking
	// toward timestamp. Most drivers treat this as a no-op hint and always
	// report success; it exists for devices (originally USRP1-class) that
	// need an explicit pre-roll before the first real burst.
	UpdateAlignment(timestamp int64) bool

	// AsyncEvents returns the channel the driver publishes TX status
	// notifications on. Device drains it for the lifetime of the device.
	AsyncEvents() <-chan AsyncEvent
}
