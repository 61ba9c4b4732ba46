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

import "math"

// PowerScaling computes the digital output scaling factor applied to
// transmit samples before conversion, given a requested attenuation in dB,
// the device's maximum TX gain, and the RF gain actually programmed onto
// the hardware. Any attenuation the RF front end can't realize in analog
// gain is made up digitally. Grounded on the original's power control path
// (the digital attenuation is RF-gain-shortfall relative to the requested
// attenuation), which the distilled transceiver spec omits but the
// original source implements.
func PowerScaling(attenDB, maxTxGain, rfGainSet float64) float64 {
	digAtten := attenDB - maxTxGain + rfGainSet
	if digAtten < 1.0 {
		return 1.0
	}
	return 1.0 / math.Sqrt(math.Pow(10, digAtten/10))
}

// RateTable reports the input/output rate pair for a clocking mode, used
// to construct the matching resampler.Resampler.
func RateTable(mode ClockMode) (inRate, outRate int, ok bool) {
	switch mode {
	case ClockNormal:
		return 0, 0, false
	case ClockResamp64M:
		return 65, 96, true
	case ClockResamp100M:
		return 52, 75, true
	default:
		return 0, 0, false
	}
}
