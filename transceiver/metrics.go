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
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// PrometheusExporter periodically republishes a Stats snapshot as
// Prometheus gauges. Grounded on the teacher's ptp/sptp/stats
// PrometheusExporter.
type PrometheusExporter struct {
	registry *prometheus.Registry
	stats    *Stats
	port     int
	interval time.Duration
}

// NewPrometheusExporter returns an exporter serving stats on port, refreshed
// every interval.
func NewPrometheusExporter(stats *Stats, port int, interval time.Duration) *PrometheusExporter {
	return &PrometheusExporter{
		registry: prometheus.NewRegistry(),
		stats:    stats,
		port:     port,
		interval: interval,
	}
}

// Start scrapes stats on a timer and serves /metrics until the process
// exits. Blocks; callers should run it in its own goroutine.
func (e *PrometheusExporter) Start() {
	go func() {
		for {
			e.scrape()
			time.Sleep(e.interval)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", e.port), mux))
}

func (e *PrometheusExporter) scrape() {
	for key, val := range e.stats.Get() {
		name := flattenKey(key)
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: key})
		if err := e.registry.Register(gauge); err != nil {
			are := &prometheus.AlreadyRegisteredError{}
			if errors.As(err, are) {
				gauge = are.ExistingCollector.(prometheus.Gauge)
			} else {
				log.Errorf("transceiver: failed to register metric %s: %v", name, err)
				continue
			}
		}
		gauge.Set(float64(val))
	}
}

func flattenKey(key string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return replacer.Replace(key)
}
