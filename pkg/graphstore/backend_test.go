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
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
)

func TestNodeProps(t *testing.T) {
	dir := Node{ID: "1", Label: LabelDirectory, Name: "src", RelativePath: "src", Type: LabelDirectory, ProjectName: "p", Level: 1, RepoLabel: "p"}
	_, hasExt := dir.Props()["extension"]
	assert.False(t, hasExt)
	assert.Equal(t, int64(1), dir.Props()["level"])

	file := Node{ID: "2", Label: LabelFile, Name: "Makefile", RelativePath: "Makefile", Type: LabelFile}
	ext, hasExt := file.Props()["extension"]
	assert.True(t, hasExt)
	assert.Equal(t, "", ext)
}

func TestQueryResultHelpers(t *testing.T) {
	r := &QueryResult{Headers: []string{"id", "name"}, Rows: [][]any{{"1", "a.go"}, {"2", nil}}}

	assert.Equal(t, 1, r.Column("name"))
	assert.Equal(t, -1, r.Column("missing"))
	assert.Equal(t, []map[string]any{{"id": "1", "name": "a.go"}, {"id": "2", "name": nil}}, r.Maps())
	assert.Equal(t, [][]string{{"1", "a.go"}, {"2", ""}}, r.Strings())
}

func TestValidateIdentifiers(t *testing.T) {
	assert.NoError(t, ValidateLabel(LabelFile))
	assert.NoError(t, ValidateLabel(LabelDirectory))
	assert.ErrorIs(t, ValidateLabel("File) DETACH DELETE (x"), ErrUnknownLabel)

	assert.NoError(t, ValidateRelationship(RelContains))
	assert.NoError(t, ValidateRelationship(RelSameDirectory))
	assert.ErrorIs(t, ValidateRelationship("contains"), ErrUnknownRelationship)
}

func TestCypherTemplates(t *testing.T) {
	assert.Equal(t, "CREATE (n:File $props)", createNodeQuery(LabelFile))
	assert.Equal(t, "MATCH (a {id: $from_id}), (b {id: $to_id}) CREATE (a)-[:CONTAINS]->(b)", createRelationshipQuery(RelContains))
	assert.Equal(t, "MATCH (n {project_name: $project_name}) DETACH DELETE n", deleteProjectQuery)
	assert.True(t, strings.HasSuffix(linkSiblingsQuery, "MERGE (f1)-[:SAME_DIRECTORY]-(f2)"))
}

func TestPlainValue(t *testing.T) {
	n := neo4j.Node{Props: map[string]any{"name": "a.go"}}
	assert.Equal(t, map[string]any{"name": "a.go"}, plainValue(n))
	assert.Equal(t, []any{map[string]any{"name": "a.go"}, int64(3)}, plainValue([]any{n, int64(3)}))
	assert.Equal(t, "x", plainValue("x"))
}
