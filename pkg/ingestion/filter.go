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

package ingestion

import (
	"bufio"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExcludeSet holds path segment names that are never walked or listed.
type ExcludeSet map[string]struct{}

// NewExcludeSet builds a set from names.
func NewExcludeSet(names ...string) ExcludeSet {
	s := make(ExcludeSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// With returns a copy of s extended with names.
func (s ExcludeSet) With(names ...string) ExcludeSet {
	out := make(ExcludeSet, len(s)+len(names))
	for k := range s {
		out[k] = struct{}{}
	}
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// Contains reports whether name is excluded.
func (s ExcludeSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// DefaultExcludeDirs lists VCS metadata, dependency caches and build output.
func DefaultExcludeDirs() ExcludeSet {
	return NewExcludeSet(
		".git", ".hg", ".svn",
		".repograph",
		"node_modules", "bower_components",
		"__pycache__", ".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache", ".ruff_cache",
		".idea", ".vscode",
		".gradle", "target",
		".next", ".nuxt",
	)
}

// ShouldExclude reports whether any segment of the root-relative path is in
// the exclusion set.
func ShouldExclude(relPath string, exclude ExcludeSet) bool {
	for _, seg := range strings.Split(filepath.ToSlash(relPath), "/") {
		if exclude.Contains(seg) {
			return true
		}
	}
	return false
}

// ParseIgnorePatterns reads <repoRoot>/.gitignore. Blank lines and lines
// starting with '#' are skipped. A missing file yields no patterns; a read
// failure is logged and also yields no patterns.
func ParseIgnorePatterns(repoRoot string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}

	path := filepath.Join(repoRoot, ".gitignore")
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("ignore.read.error", "path", path, "err", err)
		}
		return []string{}
	}
	defer f.Close()

	patterns := []string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		logger.Warn("ignore.read.error", "path", path, "err", err)
		return []string{}
	}
	return patterns
}

// ShouldIgnore reports whether path, taken relative to repoRoot, matches
// any pattern. Whether path is a directory is read from the filesystem.
func ShouldIgnore(path, repoRoot string, patterns []string) bool {
	rel, err := filepath.Rel(repoRoot, path)
	if err != nil || rel == "." {
		return false
	}
	isDir := false
	if info, err := os.Stat(path); err == nil {
		isDir = info.IsDir()
	}
	return NewIgnoreMatcher(patterns).Match(rel, isDir)
}

type ignorePattern struct {
	glob     string
	negated  bool
	dirOnly  bool
	anchored bool
}

// IgnoreMatcher applies gitignore patterns with doublestar globbing. The
// last matching pattern decides, so a later "!pattern" re-includes a path.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher compiles patterns. Comments and blank lines are dropped.
func NewIgnoreMatcher(patterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range patterns {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var p ignorePattern
		if strings.HasPrefix(line, "!") {
			p.negated = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			p.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.HasPrefix(line, "/") {
			p.anchored = true
			line = line[1:]
		}
		if line == "" {
			continue
		}
		if !p.anchored && !strings.Contains(line, "/") {
			line = "**/" + line
		}
		p.glob = line
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Len returns the number of compiled patterns.
func (m *IgnoreMatcher) Len() int { return len(m.patterns) }

// Match reports whether the root-relative path is ignored.
func (m *IgnoreMatcher) Match(relPath string, isDir bool) bool {
	path := strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	ignored := false
	for _, p := range m.patterns {
		var matched bool
		if p.dirOnly && !isDir {
			matched = matchParentDir(p.glob, path)
		} else {
			matched = matchGlob(p.glob, path)
		}
		if matched {
			ignored = !p.negated
		}
	}
	return ignored
}

// matchParentDir checks the directories above a file path.
func matchParentDir(glob, path string) bool {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if matchGlob(glob, strings.Join(parts[:i], "/")) {
			return true
		}
	}
	return false
}

func matchGlob(glob, path string) bool {
	if ok, _ := doublestar.Match(glob, path); ok {
		return true
	}
	if !strings.HasSuffix(glob, "/**") {
		if ok, _ := doublestar.Match(glob+"/**", path); ok {
			return true
		}
	}
	return false
}
