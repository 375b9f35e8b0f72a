// Copyright 2025 Farescout Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the task executor.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      prometheus.Counter
	CompletedTotal     prometheus.Counter
	FailuresTotal      prometheus.Counter
	InputRequiredTotal prometheus.Counter
	ChatDuration       prometheus.Histogram
}

// NewMetrics creates the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farescout_requests_total",
			Help: "Total flight search requests received.",
		}),
		CompletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farescout_tasks_completed_total",
			Help: "Total tasks that reached the completed state.",
		}),
		FailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farescout_tasks_failed_total",
			Help: "Total tasks that reached the failed state.",
		}),
		InputRequiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farescout_tasks_input_required_total",
			Help: "Total tasks that paused for user clarification.",
		}),
		ChatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "farescout_chat_duration_seconds",
			Help:    "Agent chat duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.CompletedTotal,
		m.FailuresTotal,
		m.InputRequiredTotal,
		m.ChatDuration,
	)

	return m
}

// Handler returns the HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
