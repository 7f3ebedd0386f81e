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

package docgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgtest "github.com/kraklabs/repograph/internal/testing"
	"github.com/kraklabs/repograph/pkg/llm"
)

const threeEntities = `def first():
    return 1

def second():
    return first() + 1

class Third:
    def value(self):
        return second()
`

// numberedProvider answers "doc N" for the Nth call.
func numberedProvider() *llm.MockProvider {
	n := 0
	return &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			n++
			return &llm.GenerateResponse{Text: fmt.Sprintf("doc %d", n), Done: true}, nil
		},
	}
}

func TestDocumentFile_ThreeEntitiesCarryContext(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{"pkg/mod.py": threeEntities})
	p := numberedProvider()
	g := NewGenerator(p, Options{ProjectBrief: "A demo service", IncludeCode: true}, nil)

	res := g.DocumentFile(context.Background(), filepath.Join(root, "pkg/mod.py"), "pkg/mod.py")
	require.NoError(t, res.Err)
	require.Len(t, res.Records, 3)

	assert.Equal(t, []string{"first", "second", "Third"},
		[]string{res.Records[0].EntityName, res.Records[1].EntityName, res.Records[2].EntityName})
	assert.Equal(t, "class", res.Records[2].EntityType)
	assert.Equal(t, "doc 3", res.Records[2].Documentation)
	assert.Equal(t, "pkg/mod.py", res.Records[0].FilePath)
	assert.Contains(t, res.Records[1].Code, "def second")

	prompts := p.Prompts()
	require.Len(t, prompts, 3)
	for _, pr := range prompts {
		assert.Contains(t, pr, "A demo service")
		assert.Contains(t, pr, "pkg/mod.py")
	}
	assert.Contains(t, prompts[0], "(none yet)")
	assert.Contains(t, prompts[1], "Function first: doc 1")
	assert.Contains(t, prompts[2], "Function first: doc 1\n\nFunction second: doc 2")
	assert.Contains(t, prompts[2], "class Third")
}

func TestDocumentFile_ModelFailureYieldsNoRecords(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{"mod.py": threeEntities})
	calls := 0
	p := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			calls++
			if calls == 2 {
				return nil, errors.New("model offline")
			}
			return &llm.GenerateResponse{Text: "ok"}, nil
		},
	}
	g := NewGenerator(p, Options{}, nil)

	res := g.DocumentFile(context.Background(), filepath.Join(root, "mod.py"), "")
	require.Error(t, res.Err)
	assert.Equal(t, StageModel, res.Stage)
	assert.Empty(t, res.Records)
	assert.Contains(t, res.Err.Error(), "model offline")
	assert.Equal(t, 2, calls, "no retries")
}

func TestDocumentFile_ReadAndParseFailures(t *testing.T) {
	g := NewGenerator(&llm.MockProvider{}, Options{}, nil)
	ctx := context.Background()

	res := g.DocumentFile(ctx, filepath.Join(t.TempDir(), "missing.py"), "")
	assert.Equal(t, StageRead, res.Stage)
	assert.ErrorIs(t, res.Err, os.ErrNotExist)

	root := rgtest.WriteTree(t, map[string]string{"notes.txt": "hi"})
	res = g.DocumentFile(ctx, filepath.Join(root, "notes.txt"), "")
	assert.Equal(t, StageParse, res.Stage)
	assert.ErrorIs(t, res.Err, ErrUnsupportedLanguage)
}

func TestDocumentFile_ContextIsBounded(t *testing.T) {
	var src strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&src, "def f%d():\n    pass\n\n", i)
	}
	root := rgtest.WriteTree(t, map[string]string{"many.py": src.String()})

	long := strings.Repeat("word ", 40)
	p := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: long}, nil
		},
	}
	g := NewGenerator(p, Options{MaxRelatedBytes: 500}, nil)

	res := g.DocumentFile(context.Background(), filepath.Join(root, "many.py"), "many.py")
	require.NoError(t, res.Err)
	require.Len(t, res.Records, 6)

	last := p.Prompts()[5]
	assert.NotContains(t, last, "Function f0:")
	assert.Contains(t, last, "Function f4:")
}

func TestDocumentRepository(t *testing.T) {
	root := rgtest.WriteTree(t, map[string]string{
		"app/main.py":        "def main():\n    pass\n",
		"app/util.go":        "package app\n\nfunc Helper() {}\n",
		"app/broken.py":      "def a():\n    pass\n",
		"README.md":          "# readme",
		"node_modules/x.js":  "function skipped() {}",
		"web/index.ts":       "export function render() {}\n",
		"docs/empty.py":      "",
		"scripts/run.sh":     "echo hi",
		"scripts/helper.rb":  "def x; end",
		"venv/lib/module.py": "def vendored(): pass",
	})

	p := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			if strings.Contains(req.Prompt, "app/broken.py") {
				return nil, errors.New("boom")
			}
			return &llm.GenerateResponse{Text: "documented"}, nil
		},
	}
	var progress []string
	g := NewGenerator(p, Options{
		IgnorePatterns: []string{},
		OnProgress:     func(done, total int, path string) { progress = append(progress, path) },
	}, nil)

	var buf bytes.Buffer
	summary, err := g.DocumentRepository(context.Background(), root, &buf)
	require.NoError(t, err)

	// main.py, util.go, broken.py, index.ts, empty.py
	assert.Equal(t, 5, summary.Files)
	assert.Equal(t, 1, summary.FilesFailed)
	assert.Equal(t, 3, summary.Records)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "app/broken.py", summary.Failures[0].Path)
	assert.Len(t, progress, 5)

	recs, err := ReadRecords(&buf)
	require.NoError(t, err)
	var paths []string
	for _, r := range recs {
		paths = append(paths, r.FilePath)
		assert.Empty(t, r.Code, "code is omitted unless requested")
	}
	assert.ElementsMatch(t, []string{"app/main.py", "app/util.go", "web/index.ts"}, paths)
}

func TestWriteReadRecords(t *testing.T) {
	in := []Record{
		{FilePath: "a.py", EntityName: "f", EntityType: "function", Documentation: "uses <html> & stuff"},
		{FilePath: "b.go", EntityName: "T", EntityType: "class", Documentation: "type", Code: "type T int"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, in))
	assert.Contains(t, buf.String(), "<html> & stuff")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	out, err := ReadRecords(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
