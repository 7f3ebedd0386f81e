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

package contract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateReadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ok    bool
	}{
		{"cypher match", "MATCH (f:File) WHERE f.name = $n RETURN f.name AS name", true},
		{"sql select", "SELECT name FROM nodes WHERE label = 'File'", true},
		{"trailing semicolon", "SELECT 1;", true},
		{"keyword inside literal", "SELECT name FROM nodes WHERE name = 'DELETE me'", true},
		{"keyword as substring", "SELECT created_at, offset FROM nodes", true},
		{"empty", "   ", false},
		{"detach delete", "MATCH (n) DETACH DELETE n", false},
		{"lowercase insert", "insert into nodes values (1)", false},
		{"set property", "MATCH (n) SET n.x = 1", false},
		{"stacked statements", "SELECT 1; DROP TABLE nodes", false},
		{"pragma", "PRAGMA writable_schema = 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateReadQuery(tt.query)
			assert.Equal(t, tt.ok, res.OK, res.Message)
		})
	}
}

func TestValidateReadQuery_SizeLimit(t *testing.T) {
	t.Setenv("REPOGRAPH_QUERY_LIMIT_BYTES", "32")
	assert.Equal(t, 32, QueryLimitBytes())

	res := ValidateReadQuery("SELECT " + strings.Repeat("x", 40))
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "size limit")
}

func TestQueryLimitBytes_InvalidEnv(t *testing.T) {
	t.Setenv("REPOGRAPH_QUERY_LIMIT_BYTES", "-5")
	assert.Equal(t, DefaultQueryLimitBytes, QueryLimitBytes())
}

func TestValidateParamName(t *testing.T) {
	assert.True(t, ValidateParamName("project_name").OK)
	assert.False(t, ValidateParamName("bad-name").OK)
	assert.False(t, ValidateParamName("1st").OK)
	assert.False(t, ValidateParamName(strings.Repeat("a", 65)).OK)
}
