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

package query

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgtest "github.com/kraklabs/repograph/internal/testing"
	"github.com/kraklabs/repograph/pkg/graphstore"
	"github.com/kraklabs/repograph/pkg/ingestion"
)

// ingestedStore returns a store holding two small projects.
func ingestedStore(t *testing.T) *graphstore.SQLiteStore {
	t.Helper()
	store := rgtest.SetupTestStore(t)
	p := ingestion.NewPipeline(store, ingestion.PipelineOptions{IgnorePatterns: []string{}}, nil)
	t.Cleanup(func() { _ = p.Close() })

	demo := rgtest.WriteTree(t, map[string]string{
		"README.md":      "# demo",
		"main.go":        "package main",
		"pkg/util.go":    "package pkg",
		"pkg/api/api.go": "package api",
		"pkg/api/doc.md": "api",
	})
	other := rgtest.WriteTree(t, map[string]string{
		"main.go":    "package main",
		"lib/lib.py": "x = 1",
	})

	ctx := context.Background()
	_, err := p.IngestRepository(ctx, demo, "demo")
	require.NoError(t, err)
	_, err = p.IngestRepository(ctx, other, "other")
	require.NoError(t, err)
	return store
}

func column(t *testing.T, res *graphstore.QueryResult, name string) []string {
	t.Helper()
	idx := res.Column(name)
	require.GreaterOrEqual(t, idx, 0, "missing column %s", name)
	var out []string
	for _, row := range res.Strings() {
		out = append(out, row[idx])
	}
	return out
}

func TestExecute_ByFilename(t *testing.T) {
	store := ingestedStore(t)
	ctx := context.Background()

	res, err := Execute(ctx, store, ByFilename("main.go", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "relative_path", "extension", "project_name"}, res.Headers)
	assert.ElementsMatch(t, []string{"demo", "other"}, column(t, res, "project_name"))

	res, err = Execute(ctx, store, ByFilename("main.go", "demo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, column(t, res, "project_name"))
}

func TestExecute_ByExtension(t *testing.T) {
	store := ingestedStore(t)

	res, err := Execute(context.Background(), store, ByExtension("go", "demo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "pkg/api/api.go", "pkg/util.go"}, column(t, res, "relative_path"))
}

func TestExecute_DirectoryByName(t *testing.T) {
	store := ingestedStore(t)

	res, err := Execute(context.Background(), store, DirectoryByName("api", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/api"}, column(t, res, "relative_path"))
	assert.Equal(t, []string{"2"}, column(t, res, "level"))
}

func TestExecute_FilesInDirectory(t *testing.T) {
	store := ingestedStore(t)
	ctx := context.Background()

	res, err := Execute(ctx, store, FilesInDirectory("pkg/api", "demo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"api.go", "doc.md"}, column(t, res, "name"))

	res, err = Execute(ctx, store, FilesInDirectoryNamed("pkg", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/util.go"}, column(t, res, "relative_path"))
}

func TestExecute_FilesByPathSubstring(t *testing.T) {
	store := ingestedStore(t)

	res, err := Execute(context.Background(), store, FilesByPathSubstring("api/", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/api/api.go", "pkg/api/doc.md"}, column(t, res, "relative_path"))
}

func TestExecute_ProjectRootFiles(t *testing.T) {
	store := ingestedStore(t)
	ctx := context.Background()

	res, err := Execute(ctx, store, ProjectRootFiles("demo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "relative_path"}, res.Headers)
	assert.Equal(t, []string{"README.md", "main.go"}, column(t, res, "name"))

	res, err = Execute(ctx, store, ProjectRootFiles("missing"))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestExecute_Projects(t *testing.T) {
	store := ingestedStore(t)

	res, err := Execute(context.Background(), store, Projects())
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "other"}, column(t, res, "project_name"))
}

func TestExecute_Limit(t *testing.T) {
	store := ingestedStore(t)
	spec := ByExtension(".go", "")
	spec.Limit = 2

	res, err := Execute(context.Background(), store, spec)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
}

func TestRaw(t *testing.T) {
	store := ingestedStore(t)
	ctx := context.Background()

	res, err := Raw(ctx, store,
		"SELECT name FROM nodes WHERE project_name = $p AND label = 'Directory' ORDER BY name",
		map[string]any{"p": "other"})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)

	_, err = Raw(ctx, store, "DELETE FROM nodes", nil)
	assert.ErrorIs(t, err, ErrRejected)

	_, err = Raw(ctx, store, "SELECT 1", map[string]any{"bad name": 1})
	assert.ErrorIs(t, err, ErrRejected)

	// Nothing was deleted.
	assert.Equal(t, 3, rgtest.CountNodes(t, store, "demo", graphstore.LabelDirectory))
}

func TestRender(t *testing.T) {
	res := &graphstore.QueryResult{
		Headers: []string{"name", "level"},
		Rows:    [][]any{{"pkg", int64(1)}, {"api", nil}},
	}

	var table bytes.Buffer
	require.NoError(t, RenderTable(&table, res))
	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name  level", lines[0])
	assert.Equal(t, "pkg   1", lines[2])

	var js bytes.Buffer
	require.NoError(t, RenderJSON(&js, res))
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &rows))
	assert.Equal(t, "pkg", rows[0]["name"])
	assert.Nil(t, rows[1]["level"])

	js.Reset()
	require.NoError(t, RenderJSON(&js, &graphstore.QueryResult{Headers: []string{"x"}}))
	assert.Equal(t, "[]", strings.TrimSpace(js.String()))
}
