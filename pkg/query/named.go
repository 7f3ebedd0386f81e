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

package query

import (
	"context"
	"fmt"

	"github.com/kraklabs/repograph/internal/contract"
	"github.com/kraklabs/repograph/pkg/graphstore"
)

var (
	fileNode = Pattern{
		Cypher:    "(f:File)",
		SQLFrom:   "nodes f",
		SQLFilter: "f.label = 'File'",
	}
	directoryNode = Pattern{
		Cypher:    "(d:Directory)",
		SQLFrom:   "nodes d",
		SQLFilter: "d.label = 'Directory'",
	}
	directoryContainsFile = Pattern{
		Cypher:    "(d:Directory)-[:CONTAINS]->(f:File)",
		SQLFrom:   "nodes d JOIN edges e ON e.src = d.id AND e.type = 'CONTAINS' JOIN nodes f ON f.id = e.dst",
		SQLFilter: "d.label = 'Directory' AND f.label = 'File'",
	}
)

// rootDirectory holds for the one directory of a project with no parent.
var rootDirectory = Clause{
	Cypher: "NOT ()-[:CONTAINS]->(d)",
	SQL:    "NOT EXISTS (SELECT 1 FROM edges p WHERE p.dst = d.id AND p.type = 'CONTAINS')",
}

func fileColumns() []Projection {
	return []Projection{
		{Expr: "f.id", Alias: "id"},
		{Expr: "f.name", Alias: "name"},
		{Expr: "f.relative_path", Alias: "relative_path"},
		{Expr: "f.extension", Alias: "extension"},
		{Expr: "f.project_name", Alias: "project_name"},
	}
}

func directoryColumns() []Projection {
	return []Projection{
		{Expr: "d.id", Alias: "id"},
		{Expr: "d.name", Alias: "name"},
		{Expr: "d.relative_path", Alias: "relative_path"},
		{Expr: "d.level", Alias: "level"},
		{Expr: "d.project_name", Alias: "project_name"},
	}
}

// scoped narrows spec to one project when project is not empty.
func scoped(spec Spec, alias, project string) Spec {
	if project == "" {
		return spec
	}
	return spec.And(Same(alias+".project_name = $project_name"), map[string]any{"project_name": project})
}

// ByFilename matches files whose name equals name exactly.
func ByFilename(name, project string) Spec {
	spec := Spec{
		Match:   fileNode,
		Where:   []Clause{Same("f.name = $name")},
		Params:  map[string]any{"name": name},
		Return:  fileColumns(),
		OrderBy: []string{"relative_path"},
	}
	return scoped(spec, "f", project)
}

// ByExtension matches files by extension. The leading dot is optional.
func ByExtension(ext, project string) Spec {
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	spec := Spec{
		Match:   fileNode,
		Where:   []Clause{Same("f.extension = $extension")},
		Params:  map[string]any{"extension": ext},
		Return:  fileColumns(),
		OrderBy: []string{"relative_path"},
	}
	return scoped(spec, "f", project)
}

// DirectoryByName matches directories whose name equals name exactly.
func DirectoryByName(name, project string) Spec {
	spec := Spec{
		Match:   directoryNode,
		Where:   []Clause{Same("d.name = $name")},
		Params:  map[string]any{"name": name},
		Return:  directoryColumns(),
		OrderBy: []string{"relative_path"},
	}
	return scoped(spec, "d", project)
}

// FilesInDirectory lists the files directly contained by a directory,
// matched by its project-relative path.
func FilesInDirectory(dirPath, project string) Spec {
	spec := Spec{
		Match:   directoryContainsFile,
		Where:   []Clause{Same("d.relative_path = $dir_path")},
		Params:  map[string]any{"dir_path": dirPath},
		Return:  withDirectory(fileColumns()),
		OrderBy: []string{"relative_path"},
	}
	return scoped(spec, "d", project)
}

// FilesInDirectoryNamed lists the files directly contained by every
// directory called name.
func FilesInDirectoryNamed(name, project string) Spec {
	spec := Spec{
		Match:   directoryContainsFile,
		Where:   []Clause{Same("d.name = $dir_name")},
		Params:  map[string]any{"dir_name": name},
		Return:  withDirectory(fileColumns()),
		OrderBy: []string{"directory", "relative_path"},
	}
	return scoped(spec, "d", project)
}

func withDirectory(cols []Projection) []Projection {
	return append(cols, Projection{Expr: "d.relative_path", Alias: "directory"})
}

// FilesByPathSubstring matches files whose relative path contains part.
func FilesByPathSubstring(part, project string) Spec {
	spec := Spec{
		Match: fileNode,
		Where: []Clause{{
			Cypher: "f.relative_path CONTAINS $part",
			SQL:    "instr(f.relative_path, $part) > 0",
		}},
		Params:  map[string]any{"part": part},
		Return:  fileColumns(),
		OrderBy: []string{"relative_path"},
	}
	return scoped(spec, "f", project)
}

// ProjectRootFiles lists the files held directly by the project's root
// directory, the only directory with no incoming CONTAINS edge.
func ProjectRootFiles(project string) Spec {
	return Spec{
		Match: directoryContainsFile,
		Where: []Clause{
			Same("d.project_name = $project_name"),
			rootDirectory,
		},
		Params: map[string]any{"project_name": project},
		Return: []Projection{
			{Expr: "f.id", Alias: "id"},
			{Expr: "f.name", Alias: "name"},
			{Expr: "f.relative_path", Alias: "relative_path"},
		},
		OrderBy: []string{"name"},
	}
}

// Projects lists every project in the graph by its root directory.
func Projects() Spec {
	return Spec{
		Match: directoryNode,
		Where: []Clause{rootDirectory},
		Return: []Projection{
			{Expr: "d.project_name", Alias: "project_name"},
			{Expr: "d.repo_label", Alias: "repo_label"},
		},
		OrderBy: []string{"project_name"},
	}
}

// Raw runs a caller-supplied read query in the runner's own dialect after
// checking that it cannot mutate the graph.
func Raw(ctx context.Context, r Runner, text string, params map[string]any) (*graphstore.QueryResult, error) {
	if res := contract.ValidateReadQuery(text); !res.OK {
		return nil, fmt.Errorf("%w: %s", ErrRejected, res.Message)
	}
	for name := range params {
		if res := contract.ValidateParamName(name); !res.OK {
			return nil, fmt.Errorf("%w: %s", ErrRejected, res.Message)
		}
	}
	return r.Run(ctx, text, params)
}
