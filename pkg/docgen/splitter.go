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

package docgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrUnsupportedLanguage is returned for files the splitter has no grammar for.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Entity kinds.
const (
	KindFunction = "function"
	KindClass    = "class"
)

// Entity is one top-level function or class in a source file.
type Entity struct {
	Name      string `json:"name"`
	Kind      string `json:"type"`
	Code      string `json:"code"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// grammar binds a tree-sitter language to the walker that picks its
// top-level entities.
type grammar struct {
	name    string
	lang    func() *sitter.Language
	collect func(root *sitter.Node, src []byte) []Entity
}

var grammars = map[string]*grammar{
	".py":   {name: "python", lang: python.GetLanguage, collect: collectPython},
	".go":   {name: "go", lang: golang.GetLanguage, collect: collectGo},
	".js":   {name: "javascript", lang: javascript.GetLanguage, collect: collectECMAScript},
	".jsx":  {name: "javascript", lang: javascript.GetLanguage, collect: collectECMAScript},
	".mjs":  {name: "javascript", lang: javascript.GetLanguage, collect: collectECMAScript},
	".ts":   {name: "typescript", lang: typescript.GetLanguage, collect: collectECMAScript},
	".tsx":  {name: "typescript", lang: tsx.GetLanguage, collect: collectECMAScript},
	".java": {name: "java", lang: java.GetLanguage, collect: collectJava},
}

// Splitter extracts top-level entities with tree-sitter. A Splitter is
// safe for concurrent use; each Split call gets its own parser.
type Splitter struct {
	logger *slog.Logger
}

// NewSplitter returns a Splitter that logs syntax errors to logger.
func NewSplitter(logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{logger: logger}
}

// Supported reports whether path has a grammar.
func (s *Splitter) Supported(path string) bool {
	_, ok := grammars[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Split parses src as the language implied by path's extension and returns
// its top-level entities in declaration order. Syntax errors are logged and
// the recoverable part of the tree is still used.
func (s *Splitter) Split(path string, src []byte) ([]Entity, error) {
	g, ok := grammars[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filepath.Ext(path))
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.lang())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		s.logger.Warn("docgen.parse.syntax_errors",
			"path", path,
			"language", g.name,
			"error_count", countErrors(root),
		)
	}
	return g.collect(root, src), nil
}

func countErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.IsError() || n.IsMissing() {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}

func newEntity(outer, nameNode *sitter.Node, kind, name string, src []byte) Entity {
	if name == "" && nameNode != nil {
		name = nameNode.Content(src)
	}
	return Entity{
		Name:      name,
		Kind:      kind,
		Code:      outer.Content(src),
		StartLine: int(outer.StartPoint().Row) + 1,
		EndLine:   int(outer.EndPoint().Row) + 1,
	}
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// =============================================================================
// PYTHON
// =============================================================================

func collectPython(root *sitter.Node, src []byte) []Entity {
	var out []Entity
	for _, n := range namedChildren(root) {
		def := n
		if n.Type() == "decorated_definition" {
			def = n.ChildByFieldName("definition")
			if def == nil {
				continue
			}
		}
		switch def.Type() {
		case "function_definition":
			out = append(out, newEntity(n, def.ChildByFieldName("name"), KindFunction, "", src))
		case "class_definition":
			out = append(out, newEntity(n, def.ChildByFieldName("name"), KindClass, "", src))
		}
	}
	return out
}

// =============================================================================
// GO
// =============================================================================

func collectGo(root *sitter.Node, src []byte) []Entity {
	var out []Entity
	for _, n := range namedChildren(root) {
		switch n.Type() {
		case "function_declaration":
			out = append(out, newEntity(n, n.ChildByFieldName("name"), KindFunction, "", src))
		case "method_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Content(src)
			if recv := goReceiverType(n.ChildByFieldName("receiver"), src); recv != "" {
				name = recv + "." + name
			}
			out = append(out, newEntity(n, nil, KindFunction, name, src))
		case "type_declaration":
			specs := namedChildren(n)
			for _, spec := range specs {
				if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
					continue
				}
				outer := spec
				if len(specs) == 1 {
					outer = n
				}
				out = append(out, newEntity(outer, spec.ChildByFieldName("name"), KindClass, "", src))
			}
		}
	}
	return out
}

// goReceiverType returns the base type name of a method receiver list.
func goReceiverType(recv *sitter.Node, src []byte) string {
	if recv == nil {
		return ""
	}
	for _, p := range namedChildren(recv) {
		if p.Type() != "parameter_declaration" {
			continue
		}
		t := p.ChildByFieldName("type")
		for t != nil && t.Type() == "pointer_type" {
			t = t.NamedChild(0)
		}
		if t != nil && t.Type() == "generic_type" {
			t = t.ChildByFieldName("type")
		}
		if t != nil {
			return t.Content(src)
		}
	}
	return ""
}

// =============================================================================
// JAVASCRIPT / TYPESCRIPT
// =============================================================================

func collectECMAScript(root *sitter.Node, src []byte) []Entity {
	var out []Entity
	for _, n := range namedChildren(root) {
		decl := n
		if n.Type() == "export_statement" {
			decl = n.ChildByFieldName("declaration")
			if decl == nil {
				continue
			}
		}
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration":
			out = append(out, newEntity(n, decl.ChildByFieldName("name"), KindFunction, "", src))
		case "class_declaration", "abstract_class_declaration":
			out = append(out, newEntity(n, decl.ChildByFieldName("name"), KindClass, "", src))
		}
	}
	return out
}

// =============================================================================
// JAVA
// =============================================================================

func collectJava(root *sitter.Node, src []byte) []Entity {
	var out []Entity
	for _, n := range namedChildren(root) {
		switch n.Type() {
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			out = append(out, newEntity(n, n.ChildByFieldName("name"), KindClass, "", src))
		}
	}
	return out
}
