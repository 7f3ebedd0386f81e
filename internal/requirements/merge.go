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

// Package requirements merges pip requirement files into one sorted list of
// package names.
package requirements

import (
	"bufio"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
)

// specifier matches the first version operator of a requirement line.
var specifier = regexp.MustCompile(`[=<>!~]=|[<>]`)

// PackageName returns the package named by one requirement line with its
// version specifier removed, or "" for blank and comment lines.
func PackageName(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	if loc := specifier.FindStringIndex(line); loc != nil {
		line = line[:loc[0]]
	}
	return strings.TrimSpace(line)
}

// Merge reads every file in paths and returns the distinct package names,
// sorted. Missing or unreadable files are logged and skipped.
func Merge(paths []string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	seen := map[string]struct{}{}
	for _, path := range paths {
		if err := collect(path, seen); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("requirements.file.missing", "path", path)
			} else {
				logger.Warn("requirements.file.error", "path", path, "err", err)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collect(path string, seen map[string]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := PackageName(sc.Text()); name != "" {
			seen[name] = struct{}{}
		}
	}
	return sc.Err()
}
