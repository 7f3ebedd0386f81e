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

package docgen

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsDocgen holds Prometheus metrics for documentation runs.
type metricsDocgen struct {
	once sync.Once

	filesDocumented prometheus.Counter
	filesFailed     *prometheus.CounterVec
	entities        *prometheus.CounterVec
	fileDuration    prometheus.Histogram
}

var docMetrics metricsDocgen

func (m *metricsDocgen) init() {
	m.once.Do(func() {
		m.filesDocumented = prometheus.NewCounter(prometheus.CounterOpts{Name: "repograph_docgen_files_total", Help: "Files documented"})
		m.filesFailed = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "repograph_docgen_files_failed_total", Help: "Files whose documentation failed, by stage"}, []string{"stage"})
		m.entities = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "repograph_docgen_entities_total", Help: "Entities documented, by kind"}, []string{"kind"})
		m.fileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repograph_docgen_file_seconds", Help: "Per-file documentation duration", Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}})

		prometheus.MustRegister(m.filesDocumented, m.filesFailed, m.entities, m.fileDuration)
	})
}

func recordFileDone(recs []Record, d time.Duration) {
	docMetrics.init()
	docMetrics.filesDocumented.Inc()
	docMetrics.fileDuration.Observe(d.Seconds())
	for _, r := range recs {
		docMetrics.entities.WithLabelValues(r.EntityType).Inc()
	}
}

func recordFileFailed(stage string) {
	docMetrics.init()
	docMetrics.filesFailed.WithLabelValues(stage).Inc()
}
