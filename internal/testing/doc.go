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

// Package testing provides fixtures shared by repograph package tests.
//
// SetupTestStore opens a SQLite graph store in a temporary directory and
// closes it when the test ends. WriteTree materializes a repository from a
// map of relative paths to file contents:
//
//	func TestIngest(t *testing.T) {
//	    store := testing.SetupTestStore(t)
//	    root := testing.WriteTree(t, map[string]string{
//	        "main.go":        "package main",
//	        "pkg/util/a.go":  "package util",
//	        "docs/":          "",
//	    })
//	    ...
//	    require.Equal(t, 3, testing.CountNodes(t, store, "demo", graphstore.LabelDirectory))
//	}
//
// Paths ending in "/" create empty directories.
package testing
