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

package radiointerface

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/obtsradio/transceiver52m/device"
	"github.com/obtsradio/transceiver52m/radioclock"
	"github.com/obtsradio/transceiver52m/resampler"
)

// ResampInterface is the Resamp-clocking pump: the device streams at a
// master-clock-derived rate that isn't the transceiver's native rate, so
// pushBuffer/pullBuffer bridge through a resampler.Resampler pair in each
// direction. Grounded on original_source's RadioInterfaceResamp.
type ResampInterface struct {
	*base

	txResampler *resampler.Resampler
	rxResampler *resampler.Resampler

	devTxBuf []complex64
	devRxBuf []complex64
}

// NewResamp constructs a ResampInterface bound to dev and clk. Use this
// when device.Device.Open reported device.ClockResamp64M or
// device.ClockResamp100M; mode picks the matching 65/96 or 52/75 bridge,
// grounded on uhd_device::open's dispatch switch.
func NewResamp(dev *device.Device, clk *radioclock.Clock, spsTx, spsRx, receiveOffset int, mode device.ClockMode) (*ResampInterface, error) {
	var tx, rx *resampler.Resampler
	switch mode {
	case device.ClockResamp64M:
		tx, rx = resampler.New64M(), resampler.Dn64M()
	case device.ClockResamp100M:
		tx, rx = resampler.New100M(), resampler.Dn100M()
	default:
		return nil, fmt.Errorf("radiointerface: clock mode %v has no resampling bridge", mode)
	}

	r := &ResampInterface{
		base:        newBase(dev, clk, spsTx, spsRx, receiveOffset),
		txResampler: tx,
		rxResampler: rx,
	}
	r.push = r.pushBuffer
	r.pull = r.pullBuffer
	return r, nil
}

// pushBuffer flushes full air-rate chunks from the send cursor buffer,
// scaling by powerScaling, resampling up to the device's native rate, and
// handing the result to the device.
func (r *ResampInterface) pushBuffer() error {
	if r.sendCursor < chunk*r.spsTx {
		return nil
	}
	if r.sendCursor > len(r.sendBuffer) {
		log.Error("radiointerface: send buffer overflow")
	}

	applyPowerScaling(r.sendBuffer[:r.sendCursor], r.powerScaling)

	outLen := r.txResampler.OutLen(r.sendCursor)
	if cap(r.devTxBuf) < outLen {
		r.devTxBuf = make([]complex64, outLen)
	}
	devBuf := r.devTxBuf[:outLen]

	resampled, err := r.txResampler.Rotate(r.sendBuffer[:r.sendCursor], devBuf)
	if err != nil {
		return err
	}

	n, err := r.dev.WriteSamples(devBuf[:resampled], r.currentWriteTimestamp())
	if err != nil && err != device.ErrNotAligned {
		return err
	}
	if err == device.ErrNotAligned {
		r.underrun = true
	}
	if n != resampled {
		log.Errorf("radiointerface: transmit error, sent %d of %d", n, resampled)
	}

	r.advanceWriteTimestamp(int64(n))
	r.sendCursor = 0
	return nil
}

// pullBuffer reads one device-rate chunk, resamples it down to the air
// rate, and appends the result into the receive cursor buffer. The
// downsampling ratio (outRate <= inRate for both Dn64M/Dn100M) guarantees
// the air-rate yield never exceeds chunk, so it fits the same headroom
// check Interface.pullBuffer uses for its unresampled chunk.
func (r *ResampInterface) pullBuffer() error {
	if r.recvCursor > len(r.recvBuffer)-chunk {
		return nil
	}

	if cap(r.devRxBuf) < chunk {
		r.devRxBuf = make([]complex64, chunk)
	}
	devBuf := r.devRxBuf[:chunk]

	got, overrun, err := r.dev.ReadSamples(devBuf, r.readTimestamp)
	if err != nil {
		return err
	}
	if got != chunk {
		log.Errorf("radiointerface: receive error, got %d of %d", got, chunk)
		return nil
	}
	r.overrun = r.overrun || overrun
	r.readTimestamp += int64(got)

	outLen := r.rxResampler.OutLen(got)
	n, err := r.rxResampler.Rotate(devBuf[:got], r.recvBuffer[r.recvCursor:r.recvCursor+outLen])
	if err != nil {
		return err
	}
	r.recvCursor += n
	return nil
}
