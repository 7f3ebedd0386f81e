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

	"github.com/google/uuid"

	"github.com/kraklabs/repograph/pkg/graphstore"
)

// IDFunc returns a fresh node identifier.
type IDFunc func() string

// NodeBuilder constructs graph nodes. The zero value uses random UUIDs.
type NodeBuilder struct {
	NewID IDFunc
}

func (b NodeBuilder) id() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}

// Directory builds the node for the directory at path. The repository root
// gets relative path "." and its own base name.
func (b NodeBuilder) Directory(path, repoRoot string, level int, projectName string) graphstore.Node {
	return graphstore.Node{
		ID:           b.id(),
		Label:        graphstore.LabelDirectory,
		Name:         filepath.Base(path),
		RelativePath: relativePath(path, repoRoot),
		Type:         graphstore.LabelDirectory,
		ProjectName:  projectName,
		Level:        level,
		RepoLabel:    projectName,
	}
}

// File builds the node for the file at path.
func (b NodeBuilder) File(path, repoRoot string, level int, projectName string) graphstore.Node {
	return graphstore.Node{
		ID:           b.id(),
		Label:        graphstore.LabelFile,
		Name:         filepath.Base(path),
		RelativePath: relativePath(path, repoRoot),
		Extension:    filepath.Ext(path),
		Type:         graphstore.LabelFile,
		ProjectName:  projectName,
		Level:        level,
		RepoLabel:    projectName,
	}
}

// MakeDirectoryNode builds a directory node with a random id.
func MakeDirectoryNode(path, repoRoot string, level int, projectName string) graphstore.Node {
	return NodeBuilder{}.Directory(path, repoRoot, level, projectName)
}

// MakeFileNode builds a file node with a random id.
func MakeFileNode(path, repoRoot string, level int, projectName string) graphstore.Node {
	return NodeBuilder{}.File(path, repoRoot, level, projectName)
}

// relativePath returns path relative to root with forward slashes.
func relativePath(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// directoryLevel counts the segments of a root-relative path. The root
// itself is level 0.
func directoryLevel(rel string) int {
	if rel == "." || rel == "" {
		return 0
	}
	return len(strings.Split(rel, "/"))
}
