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
	"errors"
	"fmt"
)

// Node labels.
const (
	LabelFile      = "File"
	LabelDirectory = "Directory"
)

// Relationship types.
const (
	RelContains      = "CONTAINS"
	RelSameDirectory = "SAME_DIRECTORY"
)

// Dialect names the query language a Store accepts in Run.
type Dialect string

const (
	DialectCypher Dialect = "cypher"
	DialectSQL    Dialect = "sql"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("graph store is closed")

	// ErrUnknownLabel is returned for a node label outside the fixed set.
	ErrUnknownLabel = errors.New("unknown node label")

	// ErrUnknownRelationship is returned for a relationship type outside the fixed set.
	ErrUnknownRelationship = errors.New("unknown relationship type")
)

// Store is the graph database boundary. Implementations are safe for
// sequential use from one pipeline; concurrent writers must serialize.
type Store interface {
	// CreateNode inserts one Directory or File node.
	CreateNode(ctx context.Context, n Node) error

	// CreateRelationship creates a directed edge fromID -[relType]-> toID.
	CreateRelationship(ctx context.Context, fromID, relType, toID string) error

	// Run executes a read query in the store's dialect with bound params.
	Run(ctx context.Context, query string, params map[string]any) (*QueryResult, error)

	// DeleteProject removes every node whose project_name matches, together
	// with all edges touching them, and returns the number of nodes removed.
	DeleteProject(ctx context.Context, projectName string) (int64, error)

	// LinkSiblings creates one SAME_DIRECTORY edge per unordered pair of
	// distinct files sharing a parent directory and returns the number of
	// new edges.
	LinkSiblings(ctx context.Context, projectName string) (int64, error)

	// SetDescriptionID records a row id from the description store on a node.
	SetDescriptionID(ctx context.Context, nodeID string, descriptionID int64) error

	Dialect() Dialect
	Close() error
}

// Node is one Directory or File vertex.
type Node struct {
	ID           string
	Label        string
	Name         string
	RelativePath string
	Type         string
	Extension    string // File only; includes the leading dot, may be empty
	ProjectName  string
	Level        int
	RepoLabel    string
}

// Props returns the node's property map as stored. Directories carry no
// extension property.
func (n Node) Props() map[string]any {
	props := map[string]any{
		"id":            n.ID,
		"name":          n.Name,
		"relative_path": n.RelativePath,
		"type":          n.Type,
		"project_name":  n.ProjectName,
		"level":         int64(n.Level),
		"repo_label":    n.RepoLabel,
	}
	if n.Label == LabelFile {
		props["extension"] = n.Extension
	}
	return props
}

// QueryResult is a header row plus value rows, in projection order.
type QueryResult struct {
	Headers []string
	Rows    [][]any
}

// Column returns the index of header name, or -1.
func (r *QueryResult) Column(name string) int {
	for i, h := range r.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Maps returns each row keyed by header.
func (r *QueryResult) Maps() []map[string]any {
	out := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		m := make(map[string]any, len(r.Headers))
		for i, h := range r.Headers {
			if i < len(row) {
				m[h] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// Strings returns every row with each cell formatted with %v; nil cells
// become empty strings.
func (r *QueryResult) Strings() [][]string {
	out := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		out = append(out, cells)
	}
	return out
}

// ValidateLabel rejects labels outside the fixed set. Labels are the only
// identifiers placed into query text, so they are checked first.
func ValidateLabel(label string) error {
	switch label {
	case LabelFile, LabelDirectory:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
}

// ValidateRelationship rejects relationship types outside the fixed set.
func ValidateRelationship(rel string) error {
	switch rel {
	case RelContains, RelSameDirectory:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownRelationship, rel)
}
