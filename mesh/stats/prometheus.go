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

package stats

import "github.com/prometheus/client_golang/prometheus"

// PrometheusCollector adapts a Stats into a prometheus.Collector. The
// core never imports net/http; registering the collector on an HTTP
// handler is the host's job (see cmd/meshd).
type PrometheusCollector struct {
	stats *Stats
}

// NewPrometheusCollector wraps stats for registration in a
// prometheus.Registry.
func NewPrometheusCollector(stats *Stats) *PrometheusCollector {
	return &PrometheusCollector{stats: stats}
}

var descs = map[string]*prometheus.Desc{
	"sent":              prometheus.NewDesc("nanomesh_packets_sent_total", "Packets written to the interface by the transmitter", nil, nil),
	"received":          prometheus.NewDesc("nanomesh_packets_received_total", "Packets delivered to the local received queue", nil, nil),
	"transited":         prometheus.NewDesc("nanomesh_packets_transited_total", "Packets forwarded to the transit queue", nil, nil),
	"dropped_duplicate": prometheus.NewDesc("nanomesh_packets_dropped_duplicate_total", "Packets rejected by the duplicate filter", nil, nil),
	"dropped_lifetime":  prometheus.NewDesc("nanomesh_packets_dropped_lifetime_total", "Packets dropped with no hop budget left", nil, nil),
	"dropped_queuefull": prometheus.NewDesc("nanomesh_packets_dropped_queue_full_total", "Packets dropped because a FIFO was saturated", nil, nil),
	"dropped_malformed": prometheus.NewDesc("nanomesh_packets_dropped_malformed_total", "Packets the router rejected for a reason other than lifetime", nil, nil),
	"evictions":         prometheus.NewDesc("nanomesh_filter_table_evictions_total", "Duplicate-filter entries evicted on expiry", nil, nil),
}

// Describe implements prometheus.Collector.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range descs {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	ch <- prometheus.MustNewConstMetric(descs["sent"], prometheus.CounterValue, float64(snap.PacketsSent))
	ch <- prometheus.MustNewConstMetric(descs["received"], prometheus.CounterValue, float64(snap.PacketsReceived))
	ch <- prometheus.MustNewConstMetric(descs["transited"], prometheus.CounterValue, float64(snap.PacketsTransited))
	ch <- prometheus.MustNewConstMetric(descs["dropped_duplicate"], prometheus.CounterValue, float64(snap.PacketsDroppedDuplicate))
	ch <- prometheus.MustNewConstMetric(descs["dropped_lifetime"], prometheus.CounterValue, float64(snap.PacketsDroppedLifetime))
	ch <- prometheus.MustNewConstMetric(descs["dropped_queuefull"], prometheus.CounterValue, float64(snap.PacketsDroppedQueueFull))
	ch <- prometheus.MustNewConstMetric(descs["dropped_malformed"], prometheus.CounterValue, float64(snap.PacketsDroppedMalformed))
	ch <- prometheus.MustNewConstMetric(descs["evictions"], prometheus.CounterValue, float64(snap.FilterTableEvictions))
}
