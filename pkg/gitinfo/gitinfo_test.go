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

package gitinfo

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repograph/pkg/llm"
)

type testRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
	when time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt, when: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *testRepo) commit(msg string, files map[string]string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	for rel, content := range files {
		full := filepath.Join(r.dir, filepath.FromSlash(rel))
		require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
		_, err := r.wt.Add(rel)
		require.NoError(r.t, err)
	}
	r.when = r.when.Add(time.Minute)
	sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: r.when}
	h, err := r.wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig, Parents: parents, AllowEmptyCommits: true})
	require.NoError(r.t, err)
	return h
}

func TestRecentCommits(t *testing.T) {
	r := newTestRepo(t)
	r.commit("initial\n", map[string]string{"README.md": "# x", "src/a.py": "a = 1"})
	r.commit("  update a  \n\nbody", map[string]string{"src/a.py": "a = 2"})
	r.commit("add b", map[string]string{"src/b.py": "b = 1"})

	commits, err := RecentCommits(r.dir, 2)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "add b", commits[0].Message)
	assert.Equal(t, []string{"src/b.py"}, commits[0].ModifiedFiles)
	assert.Equal(t, "update a  \n\nbody", commits[1].Message)
	assert.Equal(t, []string{"src/a.py"}, commits[1].ModifiedFiles)
	assert.Equal(t, "Dev <dev@example.com>", commits[0].Author)
	assert.Len(t, commits[0].Hash, 40)
	assert.True(t, commits[0].When.After(commits[1].When))

	all, err := RecentCommits(filepath.Join(r.dir, "src"), 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"README.md", "src/a.py"}, all[2].ModifiedFiles)
	assert.Equal(t, 0, all[2].Parents)
}

func TestRecentCommits_Merge(t *testing.T) {
	r := newTestRepo(t)
	base := r.commit("base", map[string]string{"a.txt": "a"})
	side := r.commit("side", map[string]string{"b.txt": "b"})
	merge := r.commit("Merge branch 'side'", nil, side, base)

	commits, err := RecentCommits(r.dir, 1)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, merge.String(), commits[0].Hash)
	assert.True(t, IsMergeCommit(commits[0]))
}

func TestCommit_JSONShape(t *testing.T) {
	r := newTestRepo(t)
	base := r.commit("base", map[string]string{"a.txt": "a"})
	side := r.commit("side", map[string]string{"b.txt": "b"})
	r.commit("Merge branch 'side'", nil, side, base)

	commits, err := RecentCommits(r.dir, 3)
	require.NoError(t, err)
	require.Len(t, commits, 3)

	data, err := json.Marshal(commits[0])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"hash", "author", "date", "message", "modified_files", "is_merge"}, keys)
	assert.Equal(t, "2025-01-01 09:03:00", got["date"])
	assert.Equal(t, true, got["is_merge"])

	assert.False(t, commits[1].IsMerge)
	assert.Equal(t, "2025-01-01 09:02:00", commits[1].Date)
}

func TestRecentCommits_NotARepo(t *testing.T) {
	_, err := RecentCommits(t.TempDir(), 5)
	assert.Error(t, err)

	out, err := RecentCommits(t.TempDir(), 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func replying(answer string, err error) *llm.MockProvider {
	return &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			if err != nil {
				return nil, err
			}
			return &llm.GenerateResponse{Text: answer, Done: true}, nil
		},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
		err    error
	}{
		{"yes", true, nil},
		{" Yes.", true, nil},
		{"**no**", false, nil},
		{"No, it was written by a person.", false, nil},
		{"`yes`", true, nil},
		{"\"Yes\"", true, nil},
		{"maybe", false, ErrAmbiguousAnswer},
		{"not sure", false, ErrAmbiguousAnswer},
		{"Nothing indicates automation", false, ErrAmbiguousAnswer},
		{"yesterday", false, ErrAmbiguousAnswer},
		{"", false, ErrAmbiguousAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			got, err := NewMergeClassifier(replying(tt.answer, nil), "", nil).Classify(context.Background(), "msg")
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_PromptAndErrors(t *testing.T) {
	p := replying("no", nil)
	_, err := NewMergeClassifier(p, "", nil).Classify(context.Background(), "Bump requests to 2.32")
	require.NoError(t, err)
	assert.Contains(t, p.Prompts()[0], "Commit message:\nBump requests to 2.32")

	_, err = NewMergeClassifier(replying("", errors.New("offline")), "", nil).Classify(context.Background(), "x")
	assert.ErrorContains(t, err, "offline")
}

func TestClassifyCommit_MergeSkipsModel(t *testing.T) {
	p := replying("no", nil)
	c := NewMergeClassifier(p, "", nil)

	got, err := c.ClassifyCommit(context.Background(), Commit{Message: "Merge", Parents: 2})
	require.NoError(t, err)
	assert.True(t, got)
	assert.Empty(t, p.Prompts())

	got, err = c.ClassifyCommit(context.Background(), Commit{Message: "fix typo", Parents: 1})
	require.NoError(t, err)
	assert.False(t, got)
	assert.Len(t, p.Prompts(), 1)
}
