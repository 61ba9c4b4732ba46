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

// Package transceiver owns the scheduling loop that ties the TX priority
// queue, the RX FIFO and the radio interface pump together, grounded on
// original_source's runTransceiver.cpp wiring of RadioInterface and
// Transceiver.
package transceiver

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/obtsradio/transceiver52m/burst"
	"github.com/obtsradio/transceiver52m/radiointerface"
)

// Transceiver drives the transmit and receive pumps on their own
// goroutines, scheduling TX bursts against the shared RadioClock and
// draining completed RX bursts into the interface's FIFO.
type Transceiver struct {
	cfg   *Config
	ri    radiointerface.Pump
	queue *burst.Queue
	stats *Stats

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Transceiver around an already-allocated radio interface
// pump (radiointerface.New for Normal clocking, radiointerface.NewResamp
// for a Resamp bridge).
func New(cfg *Config, ri radiointerface.Pump, stats *Stats) *Transceiver {
	return &Transceiver{
		cfg:   cfg,
		ri:    ri,
		queue: burst.NewQueue(),
		stats: stats,
	}
}

// Init tunes the radio interface and sets initial gain/power per cfg.
func (t *Transceiver) Init() error {
	if err := t.ri.TuneTx(t.cfg.TxFreqHz); err != nil {
		return err
	}
	if err := t.ri.TuneRx(t.cfg.RxFreqHz); err != nil {
		return err
	}
	if _, err := t.ri.SetRxGain(t.cfg.RxGainDB); err != nil {
		return err
	}
	return t.ri.SetPowerAttenuation(t.cfg.TxAttenuationDB)
}

// Push schedules v for transmission at its tagged GsmTime.
func (t *Transceiver) Push(v *burst.Vector) {
	t.queue.Push(v)
}

// ReceiveFIFO returns the FIFO of bursts completed by the receive pump.
func (t *Transceiver) ReceiveFIFO() *burst.FIFO {
	return t.ri.ReceiveFIFO()
}

// Start launches the radio interface and the transmit/receive pump
// goroutines.
func (t *Transceiver) Start() error {
	if err := t.ri.Start(); err != nil {
		return err
	}

	t.stopCh = make(chan struct{})
	t.wg.Add(2)
	go t.transmitLoop()
	go t.receiveLoop()

	log.Info("transceiver: started")
	return nil
}

// Stop halts the pump goroutines, waits for them to exit, then stops the
// radio interface (and, transitively, the device and any realignment
// goroutine it launched).
func (t *Transceiver) Stop() {
	if t.stopCh != nil {
		close(t.stopCh)
	}
	t.wg.Wait()
	if err := t.ri.Stop(); err != nil {
		log.WithError(err).Warn("transceiver: error stopping radio interface")
	}
}

// transmitLoop advances the shared clock one timeslot at a time, draining
// the due burst (if any) from the TX queue, dropping anything that fell
// stale, and otherwise filling the slot with a zero burst.
func (t *Transceiver) transmitLoop() {
	defer t.wg.Done()

	clock := t.ri.Clock()
	sps := t.cfg.SamplesPerSymbolTx

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		now := clock.Get()
		for stale := t.queue.GetStale(now); stale != nil; stale = t.queue.GetStale(now) {
			t.stats.Incr(CounterTxQueueDropped)
		}

		burstLen := radiointerface.BurstLen(now.TN(), sps)
		if v := t.queue.GetCurrent(now); v != nil {
			if err := t.ri.DriveTransmit(v.Samples, false); err != nil {
				log.Errorf("transceiver: transmit error: %v", err)
			}
			t.stats.Incr(CounterBurstsTransmitted)
		} else {
			if err := t.ri.DriveTransmit(make([]complex64, burstLen), true); err != nil {
				log.Errorf("transceiver: transmit error: %v", err)
			}
		}

		if t.ri.IsUnderrun() {
			t.stats.Incr(CounterUnderruns)
		}

		clock.IncTN()
	}
}

// receiveLoop repeatedly drives the receive pump, which pulls a device
// chunk and carves any complete bursts into the interface's FIFO.
func (t *Transceiver) receiveLoop() {
	defer t.wg.Done()

	fifo := t.ri.ReceiveFIFO()

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		before := fifo.Size()
		if err := t.ri.DriveReceive(); err != nil {
			log.Errorf("transceiver: receive error: %v", err)
			continue
		}
		if after := fifo.Size(); after > before {
			t.stats.UpdateCounterBy(CounterBurstsReceived, int64(after-before))
		}
		if t.ri.IsOverrun() {
			t.stats.Incr(CounterOverruns)
		}
	}
}
