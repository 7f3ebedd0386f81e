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
	"path/filepath"
	"strings"
)

// codeExtensions are the source-file extensions considered by triage and
// documentation runs.
var codeExtensions = map[string]string{
	".py":    "python",
	".java":  "java",
	".class": "java",
	".cpp":   "cpp",
	".c":     "c",
	".h":     "c",
	".hpp":   "cpp",
	".cs":    "csharp",
	".js":    "javascript",
	".ts":    "typescript",
	".go":    "go",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".rs":    "rust",
	".scala": "scala",
}

// IsCodeFile reports whether path has a known source-code extension.
func IsCodeFile(path string) bool {
	_, ok := codeExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DetectLanguage returns the language for path's extension, or "".
func DetectLanguage(path string) string {
	return codeExtensions[strings.ToLower(filepath.Ext(path))]
}

// CodeExtensions returns the known extensions.
func CodeExtensions() []string {
	out := make([]string, 0, len(codeExtensions))
	for ext := range codeExtensions {
		out = append(out, ext)
	}
	return out
}
