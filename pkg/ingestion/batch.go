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
	"context"
	"sort"
)

// RepoSpec is one batch entry: a local path or git URL plus an optional
// label that overrides the derived project name.
type RepoSpec struct {
	Source string `json:"source" yaml:"source"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// SpecsFromPaths builds unlabeled specs in input order.
func SpecsFromPaths(paths []string) []RepoSpec {
	specs := make([]RepoSpec, 0, len(paths))
	for _, p := range paths {
		specs = append(specs, RepoSpec{Source: p})
	}
	return specs
}

// SpecsFromLabels builds labeled specs from a label -> source mapping,
// sorted by label so runs are reproducible.
func SpecsFromLabels(labels map[string]string) []RepoSpec {
	specs := make([]RepoSpec, 0, len(labels))
	for label, source := range labels {
		specs = append(specs, RepoSpec{Source: source, Label: label})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Label < specs[j].Label })
	return specs
}

// BatchFailure describes one entry that did not ingest.
type BatchFailure struct {
	Spec  RepoSpec `json:"spec"`
	Error string   `json:"error"`
	Err   error    `json:"-"`
}

// BatchResult collects the outcome of every entry.
type BatchResult struct {
	Results  []*IngestionResult `json:"results"`
	Failures []BatchFailure     `json:"failures"`
	Skipped  []RepoSpec         `json:"skipped"`
}

// OK reports whether no entry failed.
func (r *BatchResult) OK() bool { return len(r.Failures) == 0 }

// IngestBatch ingests specs one after another. A failing entry is logged
// and recorded, and the batch moves on. Entries already recorded in
// checkpoint (which may be nil) are skipped. Cancellation stops the batch
// and is recorded as a failure of the entry in flight.
func (p *Pipeline) IngestBatch(ctx context.Context, specs []RepoSpec, checkpoint *BatchCheckpoint) *BatchResult {
	out := &BatchResult{Results: []*IngestionResult{}, Failures: []BatchFailure{}, Skipped: []RepoSpec{}}

	for i, spec := range specs {
		if checkpoint != nil && checkpoint.Done(spec) {
			p.logger.Info("batch.repo.skipped", "source", spec.Source, "label", spec.Label, "reason", "checkpoint")
			out.Skipped = append(out.Skipped, spec)
			continue
		}

		p.logger.Info("batch.repo.start", "index", i+1, "total", len(specs), "source", spec.Source, "label", spec.Label)
		res, err := p.IngestRepository(ctx, spec.Source, spec.Label)
		recordRepoResult(err)
		if err != nil {
			p.logger.Error("batch.repo.failed", "source", spec.Source, "label", spec.Label, "err", err)
			out.Failures = append(out.Failures, BatchFailure{Spec: spec, Error: err.Error(), Err: err})
			if ctx.Err() != nil {
				break
			}
			continue
		}
		out.Results = append(out.Results, res)

		if checkpoint != nil {
			if err := checkpoint.MarkDone(spec, res); err != nil {
				p.logger.Warn("batch.checkpoint.error", "err", err)
			}
		}
	}

	p.logger.Info("batch.complete",
		"ingested", len(out.Results),
		"failed", len(out.Failures),
		"skipped", len(out.Skipped),
	)
	return out
}
