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
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// ClockReference selects the device's timing reference, mirroring
// RadioDevice::ReferenceType.
type ClockReference string

// Supported clock references.
const (
	ClockReferenceInternal ClockReference = "internal"
	ClockReferenceExternal ClockReference = "external"
	ClockReferenceGPSDO    ClockReference = "gpsdo"
)

// Config holds everything needed to stand up a Transceiver. Fields
// tagged for YAML are the ones an operator may override via -config; the
// rest are set from flags in cmd/gsmtrxd and never come from the file.
type Config struct {
	DeviceArgs         string         `yaml:"device_args"`
	ClockReference     ClockReference `yaml:"clock_reference"`
	SamplesPerSymbolTx int            `yaml:"sps_tx"`
	ReceiveOffsetTN    int            `yaml:"receive_offset_tn"`
	TxAttenuationDB    float64        `yaml:"tx_attenuation_db"`
	TxFreqHz           float64        `yaml:"tx_freq_hz"`
	RxFreqHz           float64        `yaml:"rx_freq_hz"`
	RxGainDB           float64        `yaml:"rx_gain_db"`

	MonitoringPort int    `yaml:"monitoring_port"`
	LogLevel       string `yaml:"log_level"`
	PidFile        string `yaml:"pid_file"`
	ConfigFile     string `yaml:"-"`

	WatchdogPollInterval time.Duration `yaml:"watchdog_poll_interval"`
}

// DefaultConfig returns a Config populated the way runTransceiver's
// hardcoded defaults did, before any flag or file overrides are applied.
func DefaultConfig() *Config {
	return &Config{
		ClockReference:     ClockReferenceInternal,
		SamplesPerSymbolTx: 4,
		ReceiveOffsetTN:    3,
		TxFreqHz:           0,
		RxFreqHz:           0,
		MonitoringPort:     8888,
		LogLevel:           "info",
		PidFile:            "/var/run/gsmtrxd.pid",
	}
}

// ReadDynamicConfig overlays YAML-configurable fields of base from path.
func ReadDynamicConfig(base *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, base)
}
