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

// Package ingestion turns a repository's file tree into a graph of
// Directory and File nodes joined by CONTAINS edges.
//
// # Pipeline Overview
//
//  1. Resolve: a local path is used in place; a git URL is shallow-cloned
//     into a temporary directory (RepoLoader).
//  2. Scan: ScanDirectory walks the tree top-down, pruning excluded and
//     gitignored directories before descending.
//  3. Write: the root directory node is created at level 0, then every
//     other directory and file in scan order, each linked to its parent.
//  4. Link (optional): files sharing a directory get SAME_DIRECTORY edges.
//
// For N directories and M files a successful run writes N Directory
// nodes, M File nodes and (N-1)+M CONTAINS edges, all tagged with the same
// project_name. There is no transaction around a run; a failure leaves the
// nodes written so far.
//
// # Quick Start
//
//	store, err := graphstore.OpenSQLite(".repograph/graph.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	p := ingestion.NewPipeline(store, ingestion.PipelineOptions{LinkSiblings: true}, logger)
//	defer p.Close()
//
//	res, err := p.IngestRepository(ctx, "https://github.com/org/service.git", "")
//	// res.ProjectName == "service"
//
// # Batches
//
// IngestBatch runs many repositories sequentially. Per-repository
// failures are logged and collected in BatchResult.Failures; the batch
// continues. A BatchCheckpoint skips entries finished by an earlier run.
//
// # Metrics
//
// Node, edge, skip and duration metrics are exported under the
// repograph_ing_ prefix once the first repository is ingested.
package ingestion
