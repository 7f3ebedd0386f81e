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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgtest "github.com/kraklabs/repograph/internal/testing"
	"github.com/kraklabs/repograph/pkg/graphstore"
)

func TestSpecsFromLabels_Sorted(t *testing.T) {
	specs := SpecsFromLabels(map[string]string{"zeta": "/z", "alpha": "/a", "mid": "/m"})
	require.Len(t, specs, 3)
	assert.Equal(t, RepoSpec{Source: "/a", Label: "alpha"}, specs[0])
	assert.Equal(t, "mid", specs[1].Label)
	assert.Equal(t, "zeta", specs[2].Label)
}

func TestSpecsFromPaths(t *testing.T) {
	specs := SpecsFromPaths([]string{"/b", "/a"})
	assert.Equal(t, []RepoSpec{{Source: "/b"}, {Source: "/a"}}, specs)
}

func TestIngestBatch_ContinuesPastFailures(t *testing.T) {
	store := rgtest.SetupTestStore(t)
	good1 := rgtest.WriteTree(t, map[string]string{"a.go": "package a"})
	good2 := rgtest.WriteTree(t, map[string]string{"b/b.go": "package b"})
	missing := filepath.Join(t.TempDir(), "missing")

	p := NewPipeline(store, PipelineOptions{IgnorePatterns: []string{}}, nil)
	res := p.IngestBatch(context.Background(), []RepoSpec{
		{Source: good1, Label: "one"},
		{Source: missing, Label: "broken"},
		{Source: good2, Label: "two"},
	}, nil)

	assert.False(t, res.OK())
	require.Len(t, res.Results, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "broken", res.Failures[0].Spec.Label)
	assert.NotEmpty(t, res.Failures[0].Error)
	assert.Error(t, res.Failures[0].Err)

	assert.Equal(t, 1, rgtest.CountNodes(t, store, "one", graphstore.LabelFile))
	assert.Equal(t, 2, rgtest.CountNodes(t, store, "two", graphstore.LabelDirectory))
}

func TestIngestBatch_Checkpoint(t *testing.T) {
	store := rgtest.SetupTestStore(t)
	repo := rgtest.WriteTree(t, map[string]string{"a.go": "package a"})
	cpPath := filepath.Join(t.TempDir(), "batch.json")

	cp, err := LoadBatchCheckpoint(cpPath)
	require.NoError(t, err)

	p := NewPipeline(store, PipelineOptions{IgnorePatterns: []string{}}, nil)
	specs := []RepoSpec{{Source: repo, Label: "one"}}

	first := p.IngestBatch(context.Background(), specs, cp)
	require.True(t, first.OK())
	require.Len(t, first.Results, 1)

	reloaded, err := LoadBatchCheckpoint(cpPath)
	require.NoError(t, err)
	assert.True(t, reloaded.Done(specs[0]))

	second := p.IngestBatch(context.Background(), specs, reloaded)
	assert.Empty(t, second.Results)
	assert.Equal(t, specs, second.Skipped)
	assert.Equal(t, 1, rgtest.CountNodes(t, store, "one", graphstore.LabelFile), "skipped entry must not be re-ingested")

	require.NoError(t, reloaded.Clear())
	fresh, err := LoadBatchCheckpoint(cpPath)
	require.NoError(t, err)
	assert.False(t, fresh.Done(specs[0]))
}

func TestLoadBatchCheckpoint_Corrupt(t *testing.T) {
	path := rgtest.WriteTree(t, map[string]string{"cp.json": "{not json"})
	_, err := LoadBatchCheckpoint(filepath.Join(path, "cp.json"))
	require.Error(t, err)
}
