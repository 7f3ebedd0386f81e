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

// Package docgen generates natural-language documentation for the
// top-level functions and classes of source files.
//
// A file is split into entities with tree-sitter (Python, Go, JavaScript,
// TypeScript, Java). Entities are documented in declaration order, and each
// prompt carries a bounded running context holding the documentation of the
// entities before it, so later descriptions can refer to earlier ones.
//
// Output is JSON Lines, one [Record] per entity:
//
//	{"file_path":"app/main.py","entity_name":"main","entity_type":"function","documentation":"..."}
//
// Failures are isolated per file: a read, parse or model error abandons
// that file, is logged as "docgen.file.error" and listed in the
// [RunSummary], and the run moves on.
package docgen
