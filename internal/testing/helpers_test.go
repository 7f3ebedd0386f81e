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

package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repograph/pkg/graphstore"
)

func TestSetupTestStore_Empty(t *testing.T) {
	store := SetupTestStore(t)
	require.NotNil(t, store)
	assert.Zero(t, CountNodes(t, store, "any", graphstore.LabelFile))
	assert.Zero(t, CountEdges(t, store, "any", graphstore.RelContains))
}

func TestWriteTree(t *testing.T) {
	root := WriteTree(t, map[string]string{
		"a/b/c.txt": "hello",
		"empty/":    "",
	})

	data, err := os.ReadFile(filepath.Join(root, "a", "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := os.Stat(filepath.Join(root, "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestChildPathsAndNodeByPath(t *testing.T) {
	store := SetupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateNode(ctx, graphstore.Node{ID: "d", Label: graphstore.LabelDirectory, Name: "r",
		RelativePath: ".", Type: graphstore.LabelDirectory, ProjectName: "p", RepoLabel: "p"}))
	require.NoError(t, store.CreateNode(ctx, graphstore.Node{ID: "f", Label: graphstore.LabelFile, Name: "x.go",
		RelativePath: "x.go", Extension: ".go", Type: graphstore.LabelFile, ProjectName: "p", Level: 1, RepoLabel: "p"}))
	require.NoError(t, store.CreateRelationship(ctx, "d", graphstore.RelContains, "f"))

	assert.Equal(t, []string{"x.go"}, ChildPaths(t, store, "p", ".", graphstore.LabelFile))
	assert.Empty(t, ChildPaths(t, store, "p", ".", graphstore.LabelDirectory))

	node := NodeByPath(t, store, "p", "x.go")
	assert.Equal(t, ".go", node["extension"])
	assert.EqualValues(t, 1, node["level"])
}
