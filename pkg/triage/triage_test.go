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

package triage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgtest "github.com/kraklabs/repograph/internal/testing"
	"github.com/kraklabs/repograph/internal/output"
	"github.com/kraklabs/repograph/pkg/llm"
)

func answering(text string) *llm.MockProvider {
	return &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: text, TotalTokens: 42, Done: true}, nil
		},
	}
}

func TestAssessFile_FencedJSON(t *testing.T) {
	p := answering("Here you go:\n```json\n{\"isImportant\": true, \"functions\": \"Handles uploads.\", \"keyObjects\": [\"upload\", \"Store\"]}\n```")
	tr := NewTriager(p, Options{}, nil)

	res := tr.AssessFile(context.Background(), "An upload service.", "api/upload.py", "def upload(): pass")
	require.Empty(t, res.Error)
	require.NotNil(t, res.Structured)
	assert.True(t, res.Structured.IsImportant)
	assert.Equal(t, "Handles uploads.", res.Structured.Functions)
	assert.Equal(t, []string{"upload", "Store"}, res.Structured.KeyObjects)
	assert.Equal(t, 42, res.TotalTokens)
	assert.Equal(t, "api/upload.py", res.Path)

	prompt := p.Prompts()[0]
	assert.Contains(t, prompt, "An upload service.")
	assert.Contains(t, prompt, "Path: api/upload.py")
	assert.Contains(t, prompt, "def upload(): pass")
	assert.Contains(t, prompt, `"isImportant": boolean`)
}

func TestAssessFile_NotJSON(t *testing.T) {
	tr := NewTriager(answering("I think this file is fine."), Options{}, nil)

	res := tr.AssessFile(context.Background(), "", "a.go", "package a")
	assert.Nil(t, res.Structured)
	assert.Contains(t, res.Error, "parse answer")
	assert.Equal(t, "I think this file is fine.", res.RawContent)
}

func TestAssessFile_ModelError(t *testing.T) {
	p := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	res := NewTriager(p, Options{}, nil).AssessFile(context.Background(), "", "a.go", "package a")
	assert.Equal(t, "connection refused", res.Error)
	assert.Empty(t, res.RawContent)
}

func TestAssessFile_TruncatesContent(t *testing.T) {
	p := answering(`{"isImportant": false, "functions": "", "keyObjects": []}`)
	tr := NewTriager(p, Options{MaxContentChars: 100}, nil)

	long := strings.Repeat("line of code\n", 200)
	res := tr.AssessFile(context.Background(), "", "big.py", long)
	require.Empty(t, res.Error)

	prompt := p.Prompts()[0]
	assert.Contains(t, prompt, truncatedMarker)
	assert.Less(t, len(prompt), len(long))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "anything", truncate("anything", 0))

	out := truncate("def a():\n    pass\n\ndef b():\n    pass\n", 20)
	assert.True(t, strings.HasSuffix(out, truncatedMarker))
	assert.LessOrEqual(t, len([]rune(strings.TrimSuffix(out, truncatedMarker))), 20)
}

func TestAssessRepository(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{
		"main.go":          "package main",
		"lib/util.py":      "def util(): pass",
		"README.md":        "# not code",
		"bin/blob.c":       "\xff\xfe\x00binary",
		"node_modules/x.js": "ignored",
	})
	p := answering(`{"isImportant": true, "functions": "x", "keyObjects": []}`)

	var progress []string
	tr := NewTriager(p, Options{OnProgress: func(done, total int, path string) {
		progress = append(progress, path)
	}}, nil)

	var buf bytes.Buffer
	sum, err := tr.AssessRepository(context.Background(), root, "A demo repository.", &buf)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Failed)
	assert.Len(t, progress, 3)

	results, err := output.ReadJSONL[Result](&buf)
	require.NoError(t, err)
	require.Len(t, results, 2)
	var paths []string
	for _, r := range results {
		paths = append(paths, r.Path)
		assert.NotNil(t, r.Structured)
	}
	assert.ElementsMatch(t, []string{"main.go", "lib/util.py"}, paths)
	assert.Len(t, p.Prompts(), 2)
}

func TestAssessRepository_Cancelled(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{"a.go": "package a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := NewTriager(answering("{}"), Options{}, nil).AssessRepository(ctx, filepath.Clean(root), "", &buf)
	assert.ErrorIs(t, err, context.Canceled)
}
