// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsLLM holds Prometheus metrics for model calls.
type metricsLLM struct {
	once sync.Once

	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	tokens       *prometheus.CounterVec
	waitDuration prometheus.Histogram
}

var llmMetrics metricsLLM

func (m *metricsLLM) init() {
	m.once.Do(func() {
		m.calls = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "repograph_llm_calls_total", Help: "Model calls by provider, operation and status"}, []string{"provider", "op", "status"})
		m.callDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "repograph_llm_call_seconds", Help: "Model call latency", Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}}, []string{"provider", "op"})
		m.tokens = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "repograph_llm_tokens_total", Help: "Tokens reported by the provider"}, []string{"provider", "kind"})
		m.waitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repograph_llm_rate_wait_seconds", Help: "Time spent waiting on the rate limiter", Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2, 5}})

		prometheus.MustRegister(m.calls, m.callDuration, m.tokens, m.waitDuration)
	})
}

func recordCall(provider, op string, d time.Duration, err error) {
	llmMetrics.init()
	status := "ok"
	if err != nil {
		status = "error"
	}
	llmMetrics.calls.WithLabelValues(provider, op, status).Inc()
	llmMetrics.callDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}

func recordTokens(provider string, prompt, output int) {
	llmMetrics.init()
	llmMetrics.tokens.WithLabelValues(provider, "prompt").Add(float64(prompt))
	llmMetrics.tokens.WithLabelValues(provider, "output").Add(float64(output))
}

func recordWait(d time.Duration) {
	llmMetrics.init()
	llmMetrics.waitDuration.Observe(d.Seconds())
}
