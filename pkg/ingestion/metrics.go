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

package ingestion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion subsystem.
type metricsIngestion struct {
	once sync.Once

	directoriesCreated prometheus.Counter
	filesCreated       prometheus.Counter
	containsEdges      prometheus.Counter
	siblingEdges       prometheus.Counter
	pathsSkipped       *prometheus.CounterVec

	reposIngested prometheus.Counter
	reposFailed   prometheus.Counter

	scanDuration  prometheus.Histogram
	writeDuration prometheus.Histogram
	totalDuration prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.directoriesCreated = prometheus.NewCounter(prometheus.CounterOpts{Name: "repograph_ing_directories_total", Help: "Directory nodes created"})
		m.filesCreated = prometheus.NewCounter(prometheus.CounterOpts{Name: "repograph_ing_files_total", Help: "File nodes created"})
		m.containsEdges = prometheus.NewCounter(prometheus.CounterOpts{Name: "repograph_ing_contains_edges_total", Help: "CONTAINS edges created"})
		m.siblingEdges = prometheus.NewCounter(prometheus.CounterOpts{Name: "repograph_ing_sibling_edges_total", Help: "SAME_DIRECTORY edges created"})
		m.pathsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "repograph_ing_paths_skipped_total", Help: "Paths pruned during the walk"}, []string{"reason"})

		m.reposIngested = prometheus.NewCounter(prometheus.CounterOpts{Name: "repograph_ing_repos_total", Help: "Repositories ingested"})
		m.reposFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "repograph_ing_repos_failed_total", Help: "Repositories that failed to ingest"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repograph_ing_scan_seconds", Help: "Tree walk duration", Buckets: buckets})
		m.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repograph_ing_write_seconds", Help: "Graph write duration", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repograph_ing_total_seconds", Help: "Total ingestion duration", Buckets: buckets})

		prometheus.MustRegister(
			m.directoriesCreated, m.filesCreated, m.containsEdges, m.siblingEdges, m.pathsSkipped,
			m.reposIngested, m.reposFailed,
			m.scanDuration, m.writeDuration, m.totalDuration,
		)
	})
}

func recordDirectoryCreated() { ingMetrics.init(); ingMetrics.directoriesCreated.Inc() }
func recordFileCreated()      { ingMetrics.init(); ingMetrics.filesCreated.Inc() }
func recordContainsEdge()     { ingMetrics.init(); ingMetrics.containsEdges.Inc() }
func recordSiblingEdges(n int64) {
	ingMetrics.init()
	ingMetrics.siblingEdges.Add(float64(n))
}
func recordSkips(reasons map[string]int) {
	ingMetrics.init()
	for reason, n := range reasons {
		ingMetrics.pathsSkipped.WithLabelValues(reason).Add(float64(n))
	}
}
func recordRepoResult(err error) {
	ingMetrics.init()
	if err != nil {
		ingMetrics.reposFailed.Inc()
		return
	}
	ingMetrics.reposIngested.Inc()
}
func recordDurations(scan, write, total time.Duration) {
	ingMetrics.init()
	ingMetrics.scanDuration.Observe(scan.Seconds())
	ingMetrics.writeDuration.Observe(write.Seconds())
	ingMetrics.totalDuration.Observe(total.Seconds())
}
