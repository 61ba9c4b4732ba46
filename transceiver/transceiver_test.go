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

package transceiver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obtsradio/transceiver52m/burst"
	"github.com/obtsradio/transceiver52m/device"
	"github.com/obtsradio/transceiver52m/gsmtime"
	"github.com/obtsradio/transceiver52m/radioclock"
	"github.com/obtsradio/transceiver52m/radiointerface"
)

type fakeDriver struct {
	events chan device.AsyncEvent
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{events: make(chan device.AsyncEvent, 4)}
}

func (f *fakeDriver) Open(string) error   { return nil }
func (f *fakeDriver) Start() error        { return nil }
func (f *fakeDriver) Stop() error         { return nil }
func (f *fakeDriver) Restart(int64) error { return nil }
func (f *fakeDriver) ReadSamples(buf []complex64, timestamp int64) (int, int64, bool, error) {
	return len(buf), timestamp, false, nil
}
func (f *fakeDriver) WriteSamples(buf []complex64, timestamp int64) (int, error) {
	return len(buf), nil
}
func (f *fakeDriver) SetTxFreq(hz float64) (float64, error) { return hz, nil }
func (f *fakeDriver) SetRxFreq(hz float64) (float64, error) { return hz, nil }
func (f *fakeDriver) SetTxGain(db float64) (float64, error) { return db, nil }
func (f *fakeDriver) SetRxGain(db float64) (float64, error) { return db, nil }
func (f *fakeDriver) TxGainRange() (float64, float64)       { return 0, 89.75 }
func (f *fakeDriver) RxGainRange() (float64, float64)       { return 0, 73 }
func (f *fakeDriver) SampleRate() float64                   { return 1.0833e6 }
func (f *fakeDriver) UpdateAlignment(int64) bool            { return true }
func (f *fakeDriver) AsyncEvents() <-chan device.AsyncEvent { return f.events }

func newTestTransceiver(t *testing.T) *Transceiver {
	t.Helper()
	dev := device.New(newFakeDriver(), device.TxWindowFixed)
	ri := radiointerface.New(dev, radioclock.New(), 1, 1, 3)

	cfg := DefaultConfig()
	cfg.SamplesPerSymbolTx = 1
	tr := New(cfg, ri, NewStats())
	require.NoError(t, tr.Init())
	return tr
}

func TestTransmitLoopDropsStaleBurstsAndCountsThem(t *testing.T) {
	tr := newTestTransceiver(t)
	require.NoError(t, tr.Start())
	defer tr.Stop()

	stale, err := gsmtime.New(0, 0)
	require.NoError(t, err)
	tr.Push(burst.NewVector(make([]complex64, 157), stale))

	// Let the clock run ahead well past the stale burst's time.
	require.Eventually(t, func() bool {
		return tr.stats.Get()[CounterTxQueueDropped] > 0
	}, time.Second, time.Millisecond)
}

func TestReceiveLoopPopulatesFIFO(t *testing.T) {
	tr := newTestTransceiver(t)
	require.NoError(t, tr.Start())
	defer tr.Stop()

	require.Eventually(t, func() bool {
		return tr.ReceiveFIFO().Size() > 0
	}, time.Second, time.Millisecond)

	require.Greater(t, tr.stats.Get()[CounterBurstsReceived], int64(0))
}

func TestPushThenScheduledAtCurrentTime(t *testing.T) {
	tr := newTestTransceiver(t)
	require.NoError(t, tr.Start())
	defer tr.Stop()

	now := tr.ri.Clock().Get()
	tr.Push(burst.NewVector(make([]complex64, radiointerface.BurstLen(now.TN(), 1)), now))

	require.Eventually(t, func() bool {
		return tr.stats.Get()[CounterBurstsTransmitted] > 0
	}, time.Second, time.Millisecond)
}
