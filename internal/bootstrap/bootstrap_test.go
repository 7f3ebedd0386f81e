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

package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repograph/internal/config"
	rgtest "github.com/kraklabs/repograph/internal/testing"
	"github.com/kraklabs/repograph/pkg/ingestion"
	"github.com/kraklabs/repograph/pkg/vectorstore"
)

func TestInitProject_Idempotent(t *testing.T) {
	root := t.TempDir()

	info, err := InitProject(root, false, nil)
	require.NoError(t, err)
	assert.True(t, info.Created)
	assert.FileExists(t, info.ConfigPath)
	assert.FileExists(t, filepath.Join(root, ".repograph", "graph.db"))

	// A second run keeps a hand-edited file.
	custom := config.Default()
	custom.LLM.Model = "codestral"
	require.NoError(t, config.Save(info.ConfigPath, custom))

	again, err := InitProject(root, false, nil)
	require.NoError(t, err)
	assert.False(t, again.Created)
	cfg, err := config.Load(info.ConfigPath, false)
	require.NoError(t, err)
	assert.Equal(t, "codestral", cfg.LLM.Model)

	forced, err := InitProject(root, true, nil)
	require.NoError(t, err)
	assert.True(t, forced.Created)
}

func TestOpenClients_Defaults(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.LLM.Provider = "mock"
	cfg.Embedding.Provider = "mock"
	cfg.Resolve(root)
	ctx := context.Background()

	store, err := OpenGraph(ctx, cfg, nil)
	require.NoError(t, err)
	defer store.Close()

	descs, err := OpenDescriptions(cfg)
	require.NoError(t, err)
	defer descs.Close()
	_, err = os.Stat(cfg.Graph.DescriptionsPath)
	assert.NoError(t, err)

	vectors, err := OpenVectors(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &vectorstore.MemoryStore{}, vectors)

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())

	e, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", e.Name())
}

func TestOpenGraph_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.Backend = "cozo"
	_, err := OpenGraph(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Vector.Backend = "milvus"
	_, err = OpenVectors(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestListProjects(t *testing.T) {
	store := rgtest.SetupTestStore(t)
	p := ingestion.NewPipeline(store, ingestion.PipelineOptions{IgnorePatterns: []string{}}, nil)
	t.Cleanup(func() { _ = p.Close() })
	ctx := context.Background()

	for _, label := range []string{"beta", "alpha"} {
		root := rgtest.WriteTree(t, map[string]string{"main.go": "package main"})
		_, err := p.IngestRepository(ctx, root, label)
		require.NoError(t, err)
	}

	projects, err := ListProjects(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, projects)
}
