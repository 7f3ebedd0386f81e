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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Skip reasons reported in ScanResult.SkipReasons.
const (
	SkipExcluded   = "excluded"
	SkipIgnored    = "ignored"
	SkipSymlinkDir = "symlink_dir"
	SkipUnreadable = "unreadable"
)

// ScanOptions configures ScanDirectory.
type ScanOptions struct {
	// Exclude names path segments that are pruned wherever they appear,
	// for directories and files alike. Nil selects DefaultExcludeDirs.
	Exclude ExcludeSet

	// IgnorePatterns are gitignore patterns. Nil reads <root>/.gitignore.
	IgnorePatterns []string

	Logger *slog.Logger
}

// ScanResult lists the surviving directories and files as absolute paths.
// Directories[0] is always the root, and every directory appears after its
// parent.
type ScanResult struct {
	Root        string
	Directories []string
	Files       []string
	SkipReasons map[string]int
}

// ScanDirectory walks root top-down. Excluded and ignored subdirectories
// are pruned before descent, so nothing beneath them is visited. Files are
// listed only under surviving directories and only when neither excluded
// nor ignored.
func ScanDirectory(root string, opts ScanOptions) (*ScanResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultExcludeDirs()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	patterns := opts.IgnorePatterns
	if patterns == nil {
		patterns = ParseIgnorePatterns(absRoot, logger)
	}
	ignorer := NewIgnoreMatcher(patterns)

	res := &ScanResult{Root: absRoot, SkipReasons: map[string]int{}}
	skip := func(reason, path string) {
		res.SkipReasons[reason]++
		logger.Debug("scan.skip", "reason", reason, "path", path)
	}

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			logger.Warn("scan.read.error", "path", path, "err", err)
			skip(SkipUnreadable, path)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == absRoot {
			res.Directories = append(res.Directories, path)
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if ShouldExclude(rel, exclude) {
				skip(SkipExcluded, rel)
				return filepath.SkipDir
			}
			if ignorer.Match(rel, true) {
				skip(SkipIgnored, rel)
				return filepath.SkipDir
			}
			res.Directories = append(res.Directories, path)
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if target, err := os.Stat(path); err == nil && target.IsDir() {
				skip(SkipSymlinkDir, rel)
				return nil
			}
		}
		if ShouldExclude(rel, exclude) {
			skip(SkipExcluded, rel)
			return nil
		}
		if ignorer.Match(rel, false) {
			skip(SkipIgnored, rel)
			return nil
		}
		res.Files = append(res.Files, path)
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, filepath.SkipDir) {
		return nil, fmt.Errorf("walk %s: %w", absRoot, walkErr)
	}

	logger.Debug("scan.complete",
		"root", absRoot,
		"directories", len(res.Directories),
		"files", len(res.Files),
		"skipped", res.SkipReasons,
	)
	return res, nil
}
