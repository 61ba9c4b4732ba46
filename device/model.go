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

package device

import (
	"errors"
	"strings"
)

// Model identifies the SDR hardware family a driver's argument string
// names, mirroring uhd_device::parse_dev_type's substring match over the
// device and motherboard name fields UHD reports.
type Model int

const (
	ModelUnknown Model = iota
	ModelUSRP1
	ModelUSRP2
	ModelB100
	ModelB2XX
	ModelX3XX
	ModelUmTRX
)

// ErrUSRP1Unsupported is returned by ParseModel (and so by Open) for a
// USRP1-class device: it has no hardware RX packet timestamps, which the
// restart/monotonicity machinery in ReadSamples depends on.
var ErrUSRP1Unsupported = errors.New("device: USRP1 has no hardware timestamps, not supported")

// ParseModel recovers the device family from a driver argument string,
// grounded on uhd_device::parse_dev_type's case-insensitive substring
// search over "type=" and motherboard identifiers.
func ParseModel(args string) (Model, error) {
	lower := strings.ToLower(args)
	switch {
	case strings.Contains(lower, "usrp1"):
		return ModelUSRP1, ErrUSRP1Unsupported
	case strings.Contains(lower, "umtrx"):
		return ModelUmTRX, nil
	case strings.Contains(lower, "usrp2"):
		return ModelUSRP2, nil
	case strings.Contains(lower, "b100"):
		return ModelB100, nil
	case strings.Contains(lower, "b200"), strings.Contains(lower, "b210"):
		return ModelB2XX, nil
	case strings.Contains(lower, "x300"), strings.Contains(lower, "x310"):
		return ModelX3XX, nil
	default:
		return ModelUnknown, nil
	}
}

// baseRateHz reports the model's native master sample rate in samples per
// second, per sample-per-symbol multiple, from uhd_device::select_rate's
// B100_BASE_RT/USRP2_BASE_RT/B2XX/UmTRX constants.
func baseRateHz(m Model) (float64, error) {
	switch m {
	case ModelUSRP2, ModelX3XX:
		return 390625, nil
	case ModelB100:
		return 400000, nil
	case ModelB2XX, ModelUmTRX:
		// GSM symbol rate, the B2xx/UmTRX native clocking reference.
		return 270833.333, nil
	case ModelUnknown:
		return 400000, nil
	default:
		return 0, errors.New("device: no base rate for model")
	}
}

// dispatchCode selects the ClockMode (and so the radiointerface variant and
// resampling bridge, if any) a model requires, from uhd_device::open's
// closing NORMAL/RESAMP_64M/RESAMP_100M switch.
func dispatchCode(m Model) ClockMode {
	switch m {
	case ModelB100:
		return ClockResamp64M
	case ModelUSRP2, ModelX3XX:
		return ClockResamp100M
	default:
		return ClockNormal
	}
}

// txWindowForModel reports the TX alignment window a model needs. Only
// B100 uses the USRP1-era periodic-realignment window; every other
// recognized model uses the fixed drop-count window.
func txWindowForModel(m Model) TxWindow {
	if m == ModelB100 {
		return TxWindowUSRP1
	}
	return TxWindowFixed
}

// devOffset pairs a (model, samples-per-symbol) combination with its
// empirically measured TX/RX loopback timing offset, in seconds. Grounded
// verbatim on uhd_device's static uhd_offsets table.
type devOffset struct {
	model Model
	sps   int
	secs  float64
}

var uhdOffsets = []devOffset{
	{ModelUSRP1, 1, 1.0 / 1500},
	{ModelUSRP1, 4, 1.0 / 1500},
	{ModelUSRP2, 1, 1.0 / 1600},
	{ModelUSRP2, 4, 1.5 / 1600},
	{ModelX3XX, 1, 1.0 / 1600},
	{ModelX3XX, 4, 1.5 / 1600},
	{ModelB100, 1, 1.0 / 1600},
	{ModelB100, 4, 1.5 / 1600},
	{ModelB2XX, 1, 1.0 / 1800},
	{ModelB2XX, 4, 1.5 / 1800},
	{ModelUmTRX, 1, 1.0 / 1800},
	{ModelUmTRX, 4, 1.5 / 1800},
}

// devOffsetSeconds looks up the loopback timing correction for (m, sps),
// grounded on uhd_device::get_dev_offset.
func devOffsetSeconds(m Model, sps int) (float64, error) {
	for _, o := range uhdOffsets {
		if o.model == m && o.sps == sps {
			return o.secs, nil
		}
	}
	return 0, errors.New("device: no timing offset known for this model/sps combination")
}
