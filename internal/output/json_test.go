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

package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	FilePath string `json:"file_path"`
	Code     string `json:"code,omitempty"`
}

func TestJSONTo_Indented(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONTo(&buf, map[string]int{"files": 3}))
	assert.Equal(t, "{\n  \"files\": 3\n}\n", buf.String())
}

func TestJSONTo_Unencodable(t *testing.T) {
	var buf bytes.Buffer
	err := JSONTo(&buf, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON encoding failed")
}

func TestJSONLWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)
	require.NoError(t, w.Write(record{FilePath: "a.py", Code: "if a < b && c > d:"}))
	require.NoError(t, w.Write(record{FilePath: "b.py"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, 2, w.Lines())
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "a < b && c > d", "HTML escaping must be off")

	got, err := ReadJSONL[record](&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.py", got[0].FilePath)
	assert.Empty(t, got[1].Code)
}

func TestReadJSONL_SkipsBlankAndReportsLine(t *testing.T) {
	got, err := ReadJSONL[record](strings.NewReader("{\"file_path\":\"x\"}\n\n{bad\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Len(t, got, 1)
}
