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

// Package radiointerface drives the cursor-based send/receive buffers that
// sit between the device's fixed-size sample chunks and the GSM burst
// boundaries the transceiver schedules against. Grounded on
// original_source's RadioInterface and RadioInterfaceResamp.
package radiointerface

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/obtsradio/transceiver52m/burst"
	"github.com/obtsradio/transceiver52m/device"
	"github.com/obtsradio/transceiver52m/radioclock"
)

// chunk is the device-facing transfer size per pushBuffer/pullBuffer call,
// and numChunks sizes the receive buffer to hold several chunks of slack
// ahead of burst carving. slotLen is the GSM active symbol count per
// timeslot, not counting guard period.
const (
	chunk     = 625
	numChunks = 4
	slotLen   = 148

	// receiveFIFODepthLimit throttles the RX pump when the upper layer
	// falls behind consuming completed bursts.
	receiveFIFODepthLimit = 8

	// preRollBackoff is how far before the initial write timestamp the
	// device is nudged during Start's double pre-roll, matching
	// RadioInterface::start's two updateAlignment(writeTimestamp-10000)
	// calls.
	preRollBackoff = 10000

	// usrp1RealignInterval is the cadence of the periodic UpdateAlignment
	// nudge TxWindowUSRP1 devices need in place of the fixed drop-count
	// window; original_source's alignRadioServiceLoop polls continuously,
	// this is a fixed-period stand-in for that busy loop.
	usrp1RealignInterval = 50 * time.Millisecond
)

// Pump is what transceiver drives: tune/gain setup, the TX/RX pump calls,
// and the plumbing it exposes to the scheduling loop. Both Interface
// (Normal) and ResampInterface (Resamp) satisfy it.
type Pump interface {
	Start() error
	Stop() error
	TuneTx(freq float64) error
	TuneRx(freq float64) error
	SetRxGain(db float64) (float64, error)
	SetPowerAttenuation(atten float64) error
	DriveTransmit(radioBurst []complex64, zero bool) error
	DriveReceive() error
	ReceiveFIFO() *burst.FIFO
	Clock() *radioclock.Clock
	IsUnderrun() bool
	IsOverrun() bool
}

// base holds the cursor bookkeeping, FIFO, and clock shared by every pump
// variant. The variant-specific pushBuffer/pullBuffer are plugged in by the
// constructor as closures rather than through an extra layer of interface
// indirection.
type base struct {
	dev   *device.Device
	clock *radioclock.Clock
	fifo  *burst.FIFO

	spsTx         int
	spsRx         int
	receiveOffset int

	sendBuffer []complex64
	recvBuffer []complex64
	sendCursor int
	recvCursor int

	tsMu           sync.Mutex
	writeTimestamp int64
	readTimestamp  int64

	underrun bool
	overrun  bool

	radioOn      bool
	powerScaling float64

	push func() error
	pull func() error

	realignStop chan struct{}
	realignWG   sync.WaitGroup
}

func newBase(dev *device.Device, clk *radioclock.Clock, spsTx, spsRx, receiveOffset int) *base {
	b := &base{
		dev:           dev,
		clock:         clk,
		fifo:          burst.NewFIFO(),
		spsTx:         spsTx,
		spsRx:         spsRx,
		receiveOffset: receiveOffset,
		powerScaling:  1.0,
	}
	b.sendBuffer = make([]complex64, chunk*spsTx)
	b.recvBuffer = make([]complex64, numChunks*chunk*spsRx)
	return b
}

// ReceiveFIFO returns the FIFO of bursts completed by DriveReceive.
func (b *base) ReceiveFIFO() *burst.FIFO { return b.fifo }

// Clock returns the shared RadioClock.
func (b *base) Clock() *radioclock.Clock { return b.clock }

// Start initializes the device timestamps, performs the double pre-roll
// alignment hint original_source issues before the first real burst, and
// for TxWindowUSRP1 devices launches the periodic realignment loop that
// substitutes for the fixed drop-count window.
func (b *base) Start() error {
	log.Info("radiointerface: starting")

	b.writeTimestamp = 0
	b.readTimestamp = 0

	if err := b.dev.Start(); err != nil {
		return err
	}

	b.dev.UpdateAlignment(b.writeTimestamp - preRollBackoff)
	b.dev.UpdateAlignment(b.writeTimestamp - preRollBackoff)

	b.radioOn = true

	if b.dev.Window() == device.TxWindowUSRP1 {
		b.startUSRP1Realign()
	}

	return nil
}

// Stop halts the periodic realignment loop, if running, and the device.
func (b *base) Stop() error {
	b.stopUSRP1Realign()
	return b.dev.Stop()
}

func (b *base) startUSRP1Realign() {
	b.realignStop = make(chan struct{})
	b.realignWG.Add(1)
	go func() {
		defer b.realignWG.Done()
		ticker := time.NewTicker(usrp1RealignInterval)
		defer ticker.Stop()
		for {
			select {
			case <-b.realignStop:
				return
			case <-ticker.C:
				b.dev.UpdateAlignment(b.currentWriteTimestamp() - preRollBackoff)
			}
		}
	}()
}

func (b *base) stopUSRP1Realign() {
	if b.realignStop == nil {
		return
	}
	close(b.realignStop)
	b.realignWG.Wait()
	b.realignStop = nil
}

func (b *base) currentWriteTimestamp() int64 {
	b.tsMu.Lock()
	defer b.tsMu.Unlock()
	return b.writeTimestamp
}

func (b *base) advanceWriteTimestamp(n int64) {
	b.tsMu.Lock()
	b.writeTimestamp += n
	b.tsMu.Unlock()
}

// TuneTx tunes the transmit chain.
func (b *base) TuneTx(freq float64) error {
	_, err := b.dev.SetTxFreq(freq)
	return err
}

// TuneRx tunes the receive chain.
func (b *base) TuneRx(freq float64) error {
	_, err := b.dev.SetRxFreq(freq)
	return err
}

// SetRxGain sets receive gain and returns the gain actually set.
func (b *base) SetRxGain(db float64) (float64, error) {
	return b.dev.SetRxGain(db)
}

// SetPowerAttenuation sets transmit gain to the device maximum minus atten,
// then derives the digital power scaling factor from the gain shortfall the
// RF front end couldn't realize. pushBuffer applies the resulting factor to
// every TX sample before handing it to the device. Grounded on
// RadioInterface::setPowerAttenuation.
func (b *base) SetPowerAttenuation(atten float64) error {
	_, maxTx := b.dev.TxGainRange()
	rfGain, err := b.dev.SetTxGain(maxTx - atten)
	if err != nil {
		return err
	}
	b.powerScaling = device.PowerScaling(atten, maxTx, rfGain)
	return nil
}

// IsUnderrun reports whether a TX underrun occurred since the last call,
// clearing the latch. Grounded on RadioInterface::isUnderrun.
func (b *base) IsUnderrun() bool {
	v := b.underrun
	b.underrun = false
	return v
}

// IsOverrun reports whether an RX overrun occurred since the last call,
// clearing the latch. Supplements original_source's m_overrun field, which
// is tracked but never exposed through an accessor.
func (b *base) IsOverrun() bool {
	v := b.overrun
	b.overrun = false
	return v
}

// DriveTransmit copies radioBurst (or zeroes of the same length, if zero is
// true) into the send cursor buffer and flushes full chunks to the device.
func (b *base) DriveTransmit(radioBurst []complex64, zero bool) error {
	if !b.radioOn {
		return nil
	}

	if zero {
		for i := range radioBurst {
			b.sendBuffer[b.sendCursor+i] = 0
		}
	} else {
		copy(b.sendBuffer[b.sendCursor:], radioBurst)
	}
	b.sendCursor += len(radioBurst)

	return b.push()
}

// applyPowerScaling multiplies every sample in buf by scale in place.
func applyPowerScaling(buf []complex64, scale float64) {
	s := complex(float32(scale), 0)
	for i := range buf {
		buf[i] *= s
	}
}

// DriveReceive pulls a chunk from the device and carves every complete GSM
// burst out of the receive cursor buffer, advancing the shared clock and
// handing each burst to the receive FIFO. Grounded on
// RadioInterface::driveReceiveRadio, including its 157-156-156-156
// symbols-per-timeslot accounting (symbolsPerSlot+1 every 4th timeslot).
func (b *base) DriveReceive() error {
	if !b.radioOn {
		return nil
	}
	if b.fifo.Size() > receiveFIFODepthLimit {
		return nil
	}
	if err := b.pull(); err != nil {
		return err
	}

	rcvClock, err := b.clock.Get().DecTN(uint8(b.receiveOffset))
	if err != nil {
		return err
	}

	rcvSz := b.recvCursor
	readSz := 0

	for {
		tn := rcvClock.TN()
		burstLen := burstSymbols(tn, b.spsRx)
		// original_source's driveReceiveRadio loops `while (rcvSz > ...)`,
		// a strict inequality rather than spec's >= : a cursor sitting
		// exactly on a burst boundary waits for the next pullBuffer rather
		// than carving a zero-length remainder.
		if rcvSz <= burstLen {
			break
		}

		rx := make([]complex64, burstLen)
		copy(rx, b.recvBuffer[readSz:readSz+burstLen])

		b.fifo.Put(burst.NewVector(rx, rcvClock))

		b.clock.IncTN()
		rcvClock, err = rcvClock.IncTN(1)
		if err != nil {
			return err
		}

		readSz += burstLen
		rcvSz -= burstLen
	}

	if readSz > 0 {
		copy(b.recvBuffer, b.recvBuffer[readSz:b.recvCursor])
		b.recvCursor -= readSz
	}
	return nil
}

// burstSymbols returns the number of rx-rate samples a burst at the given
// timeslot occupies: 157 symbols on timeslots 0 and 4 (tn%4==0), 156
// otherwise, scaled by samples-per-symbol.
func burstSymbols(tn uint8, sps int) int {
	n := slotLen + 8
	if tn%4 == 0 {
		n++
	}
	return n * sps
}

// BurstLen exports the 157-156-156-156 symbols-per-timeslot accounting for
// callers that need to size a burst before handing it to DriveTransmit.
func BurstLen(tn uint8, sps int) int {
	return burstSymbols(tn, sps)
}

// Interface is the Normal-clocking pump: the device streams at the
// transceiver's native rate, so pushBuffer/pullBuffer move samples straight
// through with no resampling.
type Interface struct {
	*base
}

// New constructs an Interface bound to dev and clk. receiveOffset is the
// timeslot offset applied between transmit and receive GsmTime, per
// original_source's m_receive_offset. Use this when device.Device.Open
// reported device.ClockNormal.
func New(dev *device.Device, clk *radioclock.Clock, spsTx, spsRx, receiveOffset int) *Interface {
	r := &Interface{base: newBase(dev, clk, spsTx, spsRx, receiveOffset)}
	r.push = r.pushBuffer
	r.pull = r.pullBuffer
	return r
}

// pushBuffer flushes full device-sized chunks from the send cursor buffer,
// scaling by powerScaling before handing samples to the device.
func (r *Interface) pushBuffer() error {
	if r.sendCursor < chunk {
		return nil
	}
	if r.sendCursor > len(r.sendBuffer) {
		log.Error("radiointerface: send buffer overflow")
	}

	applyPowerScaling(r.sendBuffer[:r.sendCursor], r.powerScaling)

	n, err := r.dev.WriteSamples(r.sendBuffer[:r.sendCursor], r.currentWriteTimestamp())
	if err != nil && err != device.ErrNotAligned {
		return err
	}
	if err == device.ErrNotAligned {
		r.underrun = true
	}
	if n != r.sendCursor {
		log.Errorf("radiointerface: transmit error, sent %d of %d", n, r.sendCursor)
	}

	r.advanceWriteTimestamp(int64(n))
	r.sendCursor = 0
	return nil
}

// pullBuffer reads one device-sized chunk into the receive cursor buffer.
func (r *Interface) pullBuffer() error {
	if r.recvCursor > len(r.recvBuffer)-chunk {
		return nil
	}

	got, overrun, err := r.dev.ReadSamples(r.recvBuffer[r.recvCursor:r.recvCursor+chunk], r.readTimestamp)
	if err != nil {
		return err
	}
	if got != chunk {
		log.Errorf("radiointerface: receive error, got %d of %d", got, chunk)
		return nil
	}

	r.overrun = r.overrun || overrun
	r.readTimestamp += int64(got)
	r.recvCursor += got
	return nil
}
