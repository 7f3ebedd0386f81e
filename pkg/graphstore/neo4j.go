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
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig holds connection settings for a Neo4j server.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string // empty selects the server default
}

// Neo4jStore implements Store over the Bolt driver. Run accepts Cypher.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	mu       sync.RWMutex
	closed   bool
}

var _ Store = (*Neo4jStore)(nil)

// OpenNeo4j connects and verifies connectivity.
func OpenNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j at %s: %w", cfg.URI, err)
	}
	return &Neo4jStore{driver: driver, database: cfg.Database}, nil
}

func (s *Neo4jStore) Dialect() Dialect { return DialectCypher }

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// write runs a mutation and returns its summary counters.
func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) (neo4j.Counters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return nil, err
	}
	return summary.Counters(), nil
}

func createNodeQuery(label string) string {
	return fmt.Sprintf("CREATE (n:%s $props)", label)
}

func createRelationshipQuery(relType string) string {
	return fmt.Sprintf("MATCH (a {id: $from_id}), (b {id: $to_id}) CREATE (a)-[:%s]->(b)", relType)
}

const (
	deleteProjectQuery = "MATCH (n {project_name: $project_name}) DETACH DELETE n"

	linkSiblingsQuery = "MATCH (d:" + LabelDirectory + " {project_name: $project_name})-[:" + RelContains + "]->(f1:" + LabelFile + ") " +
		"MATCH (d)-[:" + RelContains + "]->(f2:" + LabelFile + ") " +
		"WHERE f1.id < f2.id " +
		"MERGE (f1)-[:" + RelSameDirectory + "]-(f2)"

	setDescriptionQuery = "MATCH (n {id: $id}) SET n.description_id = $description_id RETURN n.id"
)

func (s *Neo4jStore) CreateNode(ctx context.Context, n Node) error {
	if err := ValidateLabel(n.Label); err != nil {
		return err
	}
	if _, err := s.write(ctx, createNodeQuery(n.Label), map[string]any{"props": n.Props()}); err != nil {
		return fmt.Errorf("creating %s node %s: %w", n.Label, n.RelativePath, err)
	}
	return nil
}

func (s *Neo4jStore) CreateRelationship(ctx context.Context, fromID, relType, toID string) error {
	if err := ValidateRelationship(relType); err != nil {
		return err
	}
	counters, err := s.write(ctx, createRelationshipQuery(relType), map[string]any{"from_id": fromID, "to_id": toID})
	if err != nil {
		return fmt.Errorf("creating %s edge: %w", relType, err)
	}
	if counters.RelationshipsCreated() == 0 {
		return fmt.Errorf("creating %s edge: endpoint %s or %s not found", relType, fromID, toID)
	}
	return nil
}

// Run executes a read-only Cypher query. Node and relationship values are
// flattened to their property maps.
func (s *Neo4jStore) Run(ctx context.Context, query string, params map[string]any) (*QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	keys, err := result.Keys()
	if err != nil {
		return nil, fmt.Errorf("reading keys: %w", err)
	}

	out := &QueryResult{Headers: keys, Rows: [][]any{}}
	for result.Next(ctx) {
		values := result.Record().Values
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = plainValue(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

func plainValue(v any) any {
	switch t := v.(type) {
	case neo4j.Node:
		return t.Props
	case neo4j.Relationship:
		return t.Props
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

func (s *Neo4jStore) DeleteProject(ctx context.Context, projectName string) (int64, error) {
	counters, err := s.write(ctx, deleteProjectQuery, map[string]any{"project_name": projectName})
	if err != nil {
		return 0, fmt.Errorf("deleting project %s: %w", projectName, err)
	}
	return int64(counters.NodesDeleted()), nil
}

func (s *Neo4jStore) LinkSiblings(ctx context.Context, projectName string) (int64, error) {
	counters, err := s.write(ctx, linkSiblingsQuery, map[string]any{"project_name": projectName})
	if err != nil {
		return 0, fmt.Errorf("linking siblings for %s: %w", projectName, err)
	}
	return int64(counters.RelationshipsCreated()), nil
}

func (s *Neo4jStore) SetDescriptionID(ctx context.Context, nodeID string, descriptionID int64) error {
	counters, err := s.write(ctx, setDescriptionQuery, map[string]any{"id": nodeID, "description_id": descriptionID})
	if err != nil {
		return fmt.Errorf("setting description id on %s: %w", nodeID, err)
	}
	if counters.PropertiesSet() == 0 {
		return fmt.Errorf("setting description id: node %s not found", nodeID)
	}
	return nil
}

// Close is idempotent.
func (s *Neo4jStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.driver.Close(context.Background())
}
