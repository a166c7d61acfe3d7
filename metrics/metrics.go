/*
   Copyright 2026 The Tapp Authors.

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

// Package metrics exposes Prometheus collectors for the resolution engine.
//
// A nil *Metrics is valid and records nothing, so components never need to
// check whether metrics were configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess        = "success"
	OutcomeFailure        = "failure"
	OutcomeSkipped        = "skipped"
	OutcomeNotProcessable = "not_processable"
)

// Metrics groups every collector the SDK records.
type Metrics struct {
	remoteRequests  *prometheus.CounterVec
	remoteDuration  *prometheus.HistogramVec
	resolutions     *prometheus.CounterVec
	bootstraps      *prometheus.CounterVec
	droppedMetadata prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses a private registry,
// which keeps repeated construction in tests from colliding.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		// remoteRequests counts backend calls by operation and outcome
		remoteRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tapp",
			Name:      "remote_requests_total",
			Help:      "Backend calls by operation and outcome",
		}, []string{"op", "outcome"}),
		// remoteDuration tracks backend call latency
		remoteDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tapp",
			Name:      "remote_request_duration_seconds",
			Help:      "Backend call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"op"}),
		// resolutions counts resolution flows by path (open, native, link_data)
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tapp",
			Name:      "resolutions_total",
			Help:      "Resolution flows by path and outcome",
		}, []string{"path", "outcome"}),
		bootstraps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tapp",
			Name:      "bootstraps_total",
			Help:      "Secret bootstrap and provider initialization attempts",
		}, []string{"outcome"}),
		droppedMetadata: f.NewCounter(prometheus.CounterOpts{
			Namespace: "tapp",
			Name:      "event_metadata_dropped_total",
			Help:      "Event metadata entries dropped by sanitization",
		}),
	}
}

// ObserveRemote records one backend call.
func (m *Metrics) ObserveRemote(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.remoteRequests.WithLabelValues(op, outcome).Inc()
	m.remoteDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Resolution records the end of a resolution flow.
func (m *Metrics) Resolution(path, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(path, outcome).Inc()
}

// Bootstrap records a bootstrap attempt.
func (m *Metrics) Bootstrap(outcome string) {
	if m == nil {
		return
	}
	m.bootstraps.WithLabelValues(outcome).Inc()
}

// MetadataDropped adds n dropped metadata entries.
func (m *Metrics) MetadataDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedMetadata.Add(float64(n))
}
