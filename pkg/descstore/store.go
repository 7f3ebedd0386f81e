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

// Package descstore keeps the one-line file descriptions produced by the
// root overview in a small SQLite table. Graph nodes reference a row by
// its id through their description_id property.
package descstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("description store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS file_descriptions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	project_name  TEXT NOT NULL,
	relative_path TEXT NOT NULL,
	description   TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_descriptions_project ON file_descriptions(project_name);
`

// Description is one stored row.
type Description struct {
	ID           int64     `json:"id"`
	ProjectName  string    `json:"project_name"`
	RelativePath string    `json:"relative_path"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the SQLite-backed description table.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
	now    func() time.Time
}

// Open opens or creates the database at path (":memory:" for tests).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create description dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Insert stores a description and returns its row id.
func (s *Store) Insert(ctx context.Context, project, relPath, description string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO file_descriptions (project_name, relative_path, description, created_at)
		VALUES (?, ?, ?, ?)`,
		project, relPath, description, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("insert description for %s: %w", relPath, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read description id: %w", err)
	}
	return id, nil
}

// ListByProject returns the project's descriptions in insertion order.
func (s *Store) ListByProject(ctx context.Context, project string) ([]Description, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_name, relative_path, description, created_at
		FROM file_descriptions WHERE project_name = ? ORDER BY id`, project)
	if err != nil {
		return nil, fmt.Errorf("list descriptions: %w", err)
	}
	defer rows.Close()

	var out []Description
	for rows.Next() {
		var (
			d       Description
			created string
		)
		if err := rows.Scan(&d.ID, &d.ProjectName, &d.RelativePath, &d.Description, &created); err != nil {
			return nil, fmt.Errorf("scan description: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			d.CreatedAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteProject removes every description of project and reports how many
// rows went away.
func (s *Store) DeleteProject(ctx context.Context, project string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM file_descriptions WHERE project_name = ?`, project)
	if err != nil {
		return 0, fmt.Errorf("delete descriptions: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
