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

// Package gitinfo reads recent commit history with go-git and tells
// hand-written commits apart from merges and other system-generated ones.
package gitinfo

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DateLayout formats Commit.Date.
const DateLayout = "2006-01-02 15:04:05"

// Commit is one entry of a repository's history. Date is the committer
// time in the committer's zone, formatted with DateLayout; When keeps the
// parsed value.
type Commit struct {
	Hash          string    `json:"hash"`
	Author        string    `json:"author"`
	Date          string    `json:"date"`
	Message       string    `json:"message"`
	ModifiedFiles []string  `json:"modified_files"`
	IsMerge       bool      `json:"is_merge"`
	When          time.Time `json:"-"`
	Parents       int       `json:"-"`
}

// IsMergeCommit reports whether c has more than one parent.
func IsMergeCommit(c Commit) bool { return c.IsMerge || c.Parents > 1 }

// RecentCommits returns up to n commits reachable from HEAD, newest first.
// Modified files are taken from the diff against the first parent; a root
// commit lists every file it adds.
func RecentCommits(repoPath string, n int) ([]Commit, error) {
	if n <= 0 {
		return []Commit{}, nil
	}
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()

	var out []Commit
	for len(out) < n {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walking log: %w", err)
		}
		files, err := modifiedFiles(c)
		if err != nil {
			return nil, fmt.Errorf("diffing %s: %w", c.Hash.String()[:7], err)
		}
		out = append(out, Commit{
			Hash:          c.Hash.String(),
			Author:        fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
			Date:          c.Committer.When.Format(DateLayout),
			Message:       strings.TrimSpace(c.Message),
			ModifiedFiles: files,
			IsMerge:       c.NumParents() > 1,
			When:          c.Committer.When,
			Parents:       c.NumParents(),
		})
	}
	return out, nil
}

func modifiedFiles(c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(changes))
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}
