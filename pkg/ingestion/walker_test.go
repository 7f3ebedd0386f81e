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
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgtest "github.com/kraklabs/repograph/internal/testing"
)

func TestScanDirectory_PrunesAndOrders(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{
		".gitignore":          "build/\n*.log\n",
		".git/config":         "[core]",
		"node_modules/x/y.js": "module.exports = 1",
		"build/out/app.bin":   "bin",
		"src/main.go":         "package main",
		"src/app.log":         "log",
		"src/internal/a/a.go": "package a",
		"docs/":               "",
	})

	res, err := ScanDirectory(root, ScanOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, res.Directories)
	assert.Equal(t, res.Root, res.Directories[0])

	var rels []string
	for _, d := range res.Directories {
		rels = append(rels, relativePath(d, res.Root))
	}
	assert.ElementsMatch(t, []string{".", "docs", "src", "src/internal", "src/internal/a"}, rels)

	var files []string
	for _, f := range res.Files {
		files = append(files, relativePath(f, res.Root))
	}
	assert.ElementsMatch(t, []string{".gitignore", "src/main.go", "src/internal/a/a.go"}, files)

	for _, p := range append(append([]string{}, res.Directories...), res.Files...) {
		rel := relativePath(p, res.Root)
		assert.False(t, strings.Contains(rel, "node_modules"), "excluded path leaked: %s", rel)
		assert.False(t, strings.HasPrefix(rel, "build"), "ignored path leaked: %s", rel)
	}

	assert.Equal(t, 2, res.SkipReasons[SkipExcluded])
	assert.Equal(t, 2, res.SkipReasons[SkipIgnored])
}

func TestScanDirectory_ParentBeforeChild(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{
		"z/y/x/w.txt": "",
		"a/b/c.txt":   "",
		"m/":          "",
	})

	res, err := ScanDirectory(root, ScanOptions{IgnorePatterns: []string{}})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i, d := range res.Directories {
		if i > 0 {
			assert.True(t, seen[filepath.Dir(d)], "parent of %s not listed first", d)
		}
		seen[d] = true
	}
	for _, f := range res.Files {
		assert.True(t, seen[filepath.Dir(f)], "directory of %s not listed", f)
	}
}

func TestScanDirectory_CustomExclude(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{
		"vendor/lib/lib.go": "package lib",
		"main.go":           "package main",
	})

	res, err := ScanDirectory(root, ScanOptions{Exclude: DefaultExcludeDirs().With("vendor"), IgnorePatterns: []string{}})
	require.NoError(t, err)
	assert.Len(t, res.Directories, 1)
	assert.Len(t, res.Files, 1)
}

func TestScanDirectory_Errors(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), ScanOptions{})
	require.Error(t, err)

	root := rgtest.WriteTree(t, map[string]string{"file.txt": "x"})
	_, err = ScanDirectory(filepath.Join(root, "file.txt"), ScanOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestScanDirectory_ExcludesFilesByName(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{
		"lib/sub/.git":   "gitdir: ../../.git/modules/sub",
		"lib/sub/mod.go": "package sub",
		"target":         "not a directory",
		"README.md":      "# readme",
	})

	res, err := ScanDirectory(root, ScanOptions{IgnorePatterns: []string{}})
	require.NoError(t, err)

	var files []string
	for _, f := range res.Files {
		files = append(files, relativePath(f, res.Root))
	}
	assert.ElementsMatch(t, []string{"README.md", "lib/sub/mod.go"}, files)
	for _, rel := range files {
		assert.False(t, ShouldExclude(rel, DefaultExcludeDirs()), "excluded path listed: %s", rel)
	}
	assert.Equal(t, 2, res.SkipReasons[SkipExcluded])
}
