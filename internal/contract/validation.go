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
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultQueryLimitBytes is the default maximum raw query size.
	DefaultQueryLimitBytes = 64 << 10

	// ParamNameMaxBytes bounds a query parameter name.
	ParamNameMaxBytes = 64
)

// mutatingKeywords cover Cypher and SQL writes and schema changes.
var mutatingKeywords = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|INSERT|UPDATE|REPLACE|ALTER|ATTACH|PRAGMA|VACUUM|LOAD|CALL|FOREACH|GRANT|REVOKE)\b`)

// quoted matches single- and double-quoted literals and backtick names.
var quoted = regexp.MustCompile("'(?:[^'\\\\]|\\\\.)*'|\"(?:[^\"\\\\]|\\\\.)*\"|`[^`]*`")

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QueryLimitBytes returns the effective raw query size limit.
func QueryLimitBytes() int {
	if v := os.Getenv("REPOGRAPH_QUERY_LIMIT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultQueryLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

func reject(msg string) *ValidationResult { return &ValidationResult{OK: false, Message: msg} }

// ValidateReadQuery accepts only non-empty, single-statement queries below
// the size limit that contain no write or schema keyword outside quoted
// literals.
func ValidateReadQuery(query string) *ValidationResult {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return reject("query is empty")
	}
	if len(query) > QueryLimitBytes() {
		return reject("query exceeds size limit")
	}

	bare := quoted.ReplaceAllString(trimmed, "''")
	if strings.Contains(strings.TrimRight(bare, "; \t\n"), ";") {
		return reject("query must be a single statement")
	}
	if kw := mutatingKeywords.FindString(bare); kw != "" {
		return reject("query contains write keyword " + strings.ToUpper(kw))
	}
	return &ValidationResult{OK: true}
}

// ValidateParamName checks a --param key.
func ValidateParamName(name string) *ValidationResult {
	if len(name) > ParamNameMaxBytes {
		return reject("parameter name too long")
	}
	if !paramName.MatchString(name) {
		return reject("parameter name must be an identifier: " + name)
	}
	return &ValidationResult{OK: true}
}
