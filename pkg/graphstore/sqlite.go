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

package graphstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id             TEXT PRIMARY KEY,
	label          TEXT NOT NULL,
	name           TEXT NOT NULL,
	relative_path  TEXT NOT NULL,
	type           TEXT NOT NULL,
	extension      TEXT,
	project_name   TEXT NOT NULL,
	level          INTEGER NOT NULL,
	repo_label     TEXT NOT NULL,
	description_id INTEGER
);
CREATE INDEX IF NOT EXISTS idx_nodes_project ON nodes(project_name, label);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);

CREATE TABLE IF NOT EXISTS edges (
	src          TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	type         TEXT NOT NULL,
	dst          TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	project_name TEXT NOT NULL,
	PRIMARY KEY (src, type, dst)
);
CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst, type);
`

// paramRef finds $name references so only bound names are passed to the driver.
var paramRef = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// SQLiteStore is the embedded graph backend. Nodes and edges live in two
// tables; Run accepts SQL over them.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path. ":memory:" is accepted
// for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create graph dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Dialect() Dialect { return DialectSQL }

// CreateNode inserts n. A duplicate id is an error.
func (s *SQLiteStore) CreateNode(ctx context.Context, n Node) error {
	if err := ValidateLabel(n.Label); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var ext sql.NullString
	if n.Label == LabelFile {
		ext = sql.NullString{String: n.Extension, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, label, name, relative_path, type, extension, project_name, level, repo_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Label, n.Name, n.RelativePath, n.Type, ext, n.ProjectName, n.Level, n.RepoLabel)
	if err != nil {
		return fmt.Errorf("inserting %s node %s: %w", n.Label, n.RelativePath, err)
	}
	return nil
}

// CreateRelationship inserts the edge. The edge takes the project of its
// source node; both endpoints must exist.
func (s *SQLiteStore) CreateRelationship(ctx context.Context, fromID, relType, toID string) error {
	if err := ValidateRelationship(relType); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (src, type, dst, project_name)
		SELECT a.id, ?, b.id, a.project_name FROM nodes a, nodes b WHERE a.id = ? AND b.id = ?`,
		relType, fromID, toID)
	if err != nil {
		return fmt.Errorf("inserting %s edge: %w", relType, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("inserting %s edge: endpoint %s or %s not found", relType, fromID, toID)
	}
	return nil
}

// Run executes query with the $name parameters it references.
func (s *SQLiteStore) Run(ctx context.Context, query string, params map[string]any) (*QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	args, err := namedArgs(query, params)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	result := &QueryResult{Headers: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

func namedArgs(query string, params map[string]any) ([]any, error) {
	seen := map[string]bool{}
	var args []any
	for _, m := range paramRef.FindAllStringSubmatch(query, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("query references unbound parameter $%s", name)
		}
		args = append(args, sql.Named(name, v))
	}
	return args, nil
}

// DeleteProject removes the project's nodes; edges follow through the
// foreign-key cascade.
func (s *SQLiteStore) DeleteProject(ctx context.Context, projectName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE project_name = ?`, projectName)
	if err != nil {
		return 0, fmt.Errorf("deleting project %s: %w", projectName, err)
	}
	return res.RowsAffected()
}

// LinkSiblings stores each unordered pair once, ordered by node id.
func (s *SQLiteStore) LinkSiblings(ctx context.Context, projectName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO edges (src, type, dst, project_name)
		SELECT a.dst, ?, b.dst, a.project_name
		FROM edges a
		JOIN edges b ON b.src = a.src AND b.type = a.type
		JOIN nodes fa ON fa.id = a.dst AND fa.label = ?
		JOIN nodes fb ON fb.id = b.dst AND fb.label = ?
		JOIN nodes d ON d.id = a.src AND d.label = ?
		WHERE a.type = ? AND a.dst < b.dst AND d.project_name = ?`,
		RelSameDirectory, LabelFile, LabelFile, LabelDirectory, RelContains, projectName)
	if err != nil {
		return 0, fmt.Errorf("linking siblings for %s: %w", projectName, err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) SetDescriptionID(ctx context.Context, nodeID string, descriptionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, `UPDATE nodes SET description_id = ? WHERE id = ?`, descriptionID, nodeID)
	if err != nil {
		return fmt.Errorf("setting description id on %s: %w", nodeID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("setting description id: node %s not found", nodeID)
	}
	return nil
}

// Close is idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
