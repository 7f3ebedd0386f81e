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

package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{"wrapped", &UserError{Message: "Cannot open graph", Err: fmt.Errorf("locked")}, "Cannot open graph: locked"},
		{"bare", &UserError{Message: "Invalid label"}, "Invalid label"},
		{"empty message", &UserError{Err: fmt.Errorf("boom")}, ": boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserError_UnwrapChain(t *testing.T) {
	sentinel := stderrors.New("connection refused")
	err := NewNetworkError("Cannot reach LLM", "", "", sentinel)

	assert.True(t, stderrors.Is(err, sentinel))
	assert.Equal(t, sentinel, err.Unwrap())
}

func TestConstructors_ExitCodes(t *testing.T) {
	cause := stderrors.New("x")
	tests := []struct {
		name string
		err  *UserError
		want int
	}{
		{"config", NewConfigError("m", "c", "f", cause), ExitConfig},
		{"database", NewDatabaseError("m", "c", "f", cause), ExitDatabase},
		{"network", NewNetworkError("m", "c", "f", cause), ExitNetwork},
		{"input", NewInputError("m", "c", "f"), ExitInput},
		{"permission", NewPermissionError("m", "c", "f", cause), ExitPermission},
		{"not found", NewNotFoundError("m", "c", "f"), ExitNotFound},
		{"internal", NewInternalError("m", "c", "f", cause), ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.ExitCode)
			assert.Equal(t, "m", tt.err.Message)
			assert.Equal(t, "c", tt.err.Cause)
			assert.Equal(t, "f", tt.err.Fix)
		})
	}

	assert.Nil(t, NewInputError("m", "", "").Err)
	assert.Nil(t, NewNotFoundError("m", "", "").Err)
}

func TestFormat_OmitsEmptySections(t *testing.T) {
	full := NewDatabaseError("Cannot reach Neo4j", "connection refused", "Start Neo4j", nil).Format(true)
	assert.Equal(t, "Error: Cannot reach Neo4j\nCause: connection refused\nFix:   Start Neo4j\n", full)

	bare := NewInputError("Missing path", "", "").Format(true)
	assert.Equal(t, "Error: Missing path\n", bare)
	assert.NotContains(t, bare, "Cause:")
	assert.NotContains(t, bare, "Fix:")
}

func TestToJSON(t *testing.T) {
	data, err := json.Marshal(NewNotFoundError("Project not found", "", "Run repograph ingest").ToJSON())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Project not found", got["error"])
	assert.Equal(t, "Run repograph ingest", got["fix"])
	assert.EqualValues(t, ExitNotFound, got["exit_code"])
	_, hasCause := got["cause"]
	assert.False(t, hasCause, "empty cause should be omitted")
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeOf(nil))
	assert.Equal(t, ExitInternal, ExitCodeOf(stderrors.New("plain")))

	wrapped := fmt.Errorf("ingest: %w", NewPermissionError("denied", "", "", nil))
	assert.Equal(t, ExitPermission, ExitCodeOf(wrapped))
}

func TestPrint(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		var buf bytes.Buffer
		code := Print(&buf, NewInputError("Bad label", "labels cannot be empty", ""), false)
		assert.Equal(t, ExitInput, code)
		assert.True(t, strings.HasPrefix(buf.String(), "Error: Bad label\n"))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		code := Print(&buf, NewConfigError("No config", "", "", nil), true)
		assert.Equal(t, ExitConfig, code)

		var got ErrorJSON
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "No config", got.Error)
		assert.Equal(t, ExitConfig, got.ExitCode)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		var buf bytes.Buffer
		code := Print(&buf, stderrors.New("unexpected"), true)
		assert.Equal(t, ExitInternal, code)
		assert.Contains(t, buf.String(), "unexpected")
	})

	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Equal(t, ExitSuccess, Print(&buf, nil, false))
		assert.Empty(t, buf.String())
	})
}
