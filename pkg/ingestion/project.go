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
	"os"
	"regexp"
	"strings"
)

var (
	sshRemotePattern  = regexp.MustCompile(`git@.*:(.+)\.git`)
	httpRemotePattern = regexp.MustCompile(`https?://.*?/(.+?)(?:\.git)?$`)
)

const pathSeparators = "/" + string(os.PathSeparator)

// DeriveProjectName picks the project identifier for a repository input.
//
// A non-empty customName wins. Remote inputs (scp-style SSH, ssh://,
// http(s):// or file:// URLs) yield the last segment of the repository
// path without ".git".
// Other inputs containing a path separator yield their final component
// with trailing separators stripped. Anything else is returned unchanged.
func DeriveProjectName(input, customName string) string {
	if customName != "" {
		return customName
	}

	if isRemote(input) {
		if m := sshRemotePattern.FindStringSubmatch(input); m != nil {
			return lastSegment(m[1])
		}
		if m := httpRemotePattern.FindStringSubmatch(input); m != nil {
			return lastSegment(m[1])
		}
		// ssh://, git:// and file:// remotes
		if name := lastSegment(strings.TrimSuffix(strings.TrimRight(input, "/"), ".git")); name != "" {
			return name
		}
	}

	if strings.ContainsAny(input, pathSeparators) {
		trimmed := strings.TrimRight(input, pathSeparators)
		if trimmed == "" {
			return input
		}
		return lastSegment(trimmed)
	}

	return input
}

// isRemote reports whether input looks like a git remote rather than a
// local path.
func isRemote(input string) bool {
	return strings.Contains(input, "://") || sshRemotePattern.MatchString(input)
}

func lastSegment(s string) string {
	if i := strings.LastIndexAny(s, pathSeparators); i >= 0 {
		return s[i+1:]
	}
	return s
}
