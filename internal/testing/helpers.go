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
	"sort"
	"strings"
	"testing"

	"github.com/kraklabs/repograph/pkg/graphstore"
)

// SetupTestStore opens a SQLite graph store under t.TempDir().
func SetupTestStore(t *testing.T) *graphstore.SQLiteStore {
	t.Helper()

	store, err := graphstore.OpenSQLite(filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// WriteTree creates files under a fresh temp directory and returns its
// path. Keys ending in "/" create empty directories.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(full, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

// CountNodes counts nodes with label in project.
func CountNodes(t *testing.T, store *graphstore.SQLiteStore, project, label string) int {
	t.Helper()
	return scalar(t, store,
		"SELECT COUNT(*) FROM nodes WHERE project_name = $project AND label = $label",
		map[string]any{"project": project, "label": label})
}

// CountEdges counts edges of relType whose source belongs to project.
func CountEdges(t *testing.T, store *graphstore.SQLiteStore, project, relType string) int {
	t.Helper()
	return scalar(t, store,
		"SELECT COUNT(*) FROM edges WHERE project_name = $project AND type = $type",
		map[string]any{"project": project, "type": relType})
}

// ChildPaths returns the sorted relative paths of label nodes directly
// contained in the directory at dirPath.
func ChildPaths(t *testing.T, store *graphstore.SQLiteStore, project, dirPath, label string) []string {
	t.Helper()

	res, err := store.Run(context.Background(), `
		SELECT c.relative_path FROM nodes d
		JOIN edges e ON e.src = d.id AND e.type = $rel
		JOIN nodes c ON c.id = e.dst AND c.label = $label
		WHERE d.project_name = $project AND d.relative_path = $dir`,
		map[string]any{"rel": graphstore.RelContains, "label": label, "project": project, "dir": dirPath})
	if err != nil {
		t.Fatalf("child query: %v", err)
	}
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, row[0].(string))
	}
	sort.Strings(out)
	return out
}

// NodeByPath returns the property map of the node at relPath in project.
func NodeByPath(t *testing.T, store *graphstore.SQLiteStore, project, relPath string) map[string]any {
	t.Helper()

	res, err := store.Run(context.Background(),
		"SELECT * FROM nodes WHERE project_name = $project AND relative_path = $path",
		map[string]any{"project": project, "path": relPath})
	if err != nil {
		t.Fatalf("node query: %v", err)
	}
	rows := res.Maps()
	if len(rows) != 1 {
		t.Fatalf("expected 1 node at %s, got %d", relPath, len(rows))
	}
	return rows[0]
}

func scalar(t *testing.T, store *graphstore.SQLiteStore, query string, params map[string]any) int {
	t.Helper()

	res, err := store.Run(context.Background(), query, params)
	if err != nil {
		t.Fatalf("count query: %v", err)
	}
	if len(res.Rows) != 1 || len(res.Rows[0]) != 1 {
		t.Fatalf("count query returned %v", res.Rows)
	}
	n, ok := res.Rows[0][0].(int64)
	if !ok {
		t.Fatalf("count returned %T", res.Rows[0][0])
	}
	return int(n)
}
