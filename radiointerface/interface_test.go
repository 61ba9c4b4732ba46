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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obtsradio/transceiver52m/device"
	"github.com/obtsradio/transceiver52m/gsmtime"
	"github.com/obtsradio/transceiver52m/radioclock"
)

// fakeDriver feeds DriveReceive a constant stream of samples and records
// everything DriveTransmit flushes to it.
type fakeDriver struct {
	events       chan device.AsyncEvent
	sent         [][]complex64
	nextReadVal  complex64
	gainMax      float64
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{events: make(chan device.AsyncEvent, 4), gainMax: 89.75}
}

func (f *fakeDriver) Open(string) error   { return nil }
func (f *fakeDriver) Start() error        { return nil }
func (f *fakeDriver) Stop() error         { return nil }
func (f *fakeDriver) Restart(int64) error { return nil }
func (f *fakeDriver) ReadSamples(buf []complex64, timestamp int64) (int, int64, bool, error) {
	for i := range buf {
		buf[i] = f.nextReadVal
	}
	return len(buf), timestamp, false, nil
}
func (f *fakeDriver) WriteSamples(buf []complex64, timestamp int64) (int, error) {
	cp := make([]complex64, len(buf))
	copy(cp, buf)
	f.sent = append(f.sent, cp)
	return len(buf), nil
}
func (f *fakeDriver) SetTxFreq(hz float64) (float64, error) { return hz, nil }
func (f *fakeDriver) SetRxFreq(hz float64) (float64, error) { return hz, nil }
func (f *fakeDriver) SetTxGain(db float64) (float64, error) { return db, nil }
func (f *fakeDriver) SetRxGain(db float64) (float64, error) { return db, nil }
func (f *fakeDriver) TxGainRange() (float64, float64)       { return 0, f.gainMax }
func (f *fakeDriver) RxGainRange() (float64, float64)       { return 0, 73 }
func (f *fakeDriver) SampleRate() float64                   { return 1.0833e6 }
func (f *fakeDriver) UpdateAlignment(int64) bool            { return true }
func (f *fakeDriver) AsyncEvents() <-chan device.AsyncEvent { return f.events }

func newTestInterface(t *testing.T) (*Interface, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver()
	dev := device.New(drv, device.TxWindowFixed)
	require.NoError(t, dev.Start())
	t.Cleanup(func() { _ = dev.Stop() })

	clk := radioclock.New()
	r := New(dev, clk, 1, 1, 3)
	require.NoError(t, r.Start())
	return r, drv
}

func TestBurstSymbolsFraming(t *testing.T) {
	require.Equal(t, 157, burstSymbols(0, 1))
	require.Equal(t, 156, burstSymbols(1, 1))
	require.Equal(t, 156, burstSymbols(2, 1))
	require.Equal(t, 156, burstSymbols(3, 1))
	require.Equal(t, 157, burstSymbols(4, 1))
	require.Equal(t, 314, burstSymbols(0, 2))
}

func TestDriveTransmitFlushesOnFullChunk(t *testing.T) {
	r, drv := newTestInterface(t)

	// The unaligned device absorbs the first DropThreshold-1 flushes and
	// passes the DropThreshold-th one to the driver.
	for i := 0; i < device.DropThreshold; i++ {
		r.DriveTransmit(make([]complex64, chunk), false)
	}
	require.Len(t, drv.sent, 1)
	require.Len(t, drv.sent[0], chunk)
}

func TestDriveTransmitHoldsPartialChunk(t *testing.T) {
	r, drv := newTestInterface(t)

	r.DriveTransmit(make([]complex64, chunk-10), false)
	require.Empty(t, drv.sent)
	require.Equal(t, chunk-10, r.sendCursor)
}

func TestDriveReceiveProducesFramedBursts(t *testing.T) {
	r, _ := newTestInterface(t)

	start, err := gsmtime.New(0, 0)
	require.NoError(t, err)
	r.clock.Set(start)

	for i := 0; i < 10; i++ {
		require.NoError(t, r.DriveReceive())
	}

	require.Greater(t, r.fifo.Size(), 0)
	v := r.fifo.Get()
	require.NotNil(t, v)
}

func TestSetPowerAttenuationDerivesScaling(t *testing.T) {
	r, _ := newTestInterface(t)
	require.NoError(t, r.SetPowerAttenuation(10))
	require.LessOrEqual(t, r.powerScaling, 1.0)
}

func TestIsUnderrunLatchClears(t *testing.T) {
	r, _ := newTestInterface(t)
	r.underrun = true
	require.True(t, r.IsUnderrun())
	require.False(t, r.IsUnderrun())
}
