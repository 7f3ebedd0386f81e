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

package main

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kraklabs/repograph/internal/errors"
	"github.com/kraklabs/repograph/pkg/graphstore"
	"github.com/kraklabs/repograph/pkg/query"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		project string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a named structural query over the graph",
		Example: `  repograph query filename main.go
  repograph query extension py --project svc
  repograph query files-in pkg/api --project svc
  repograph query root-files svc
  repograph query raw "SELECT name FROM nodes WHERE level = \$lvl" --param lvl=1`,
	}
	cmd.PersistentFlags().StringVar(&project, "project", "", "restrict results to one project")
	cmd.PersistentFlags().IntVar(&limit, "limit", 0, "maximum number of rows (0 for no limit)")

	named := func(use, short string, build func(value string) query.Spec) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				spec := build(args[0])
				spec.Limit = limit
				return a.runSpec(cmd, spec)
			},
		}
	}

	var byName bool
	filesIn := named("files-in <directory>", "List the files held directly by a directory",
		func(v string) query.Spec {
			if byName {
				return query.FilesInDirectoryNamed(v, project)
			}
			return query.FilesInDirectory(v, project)
		})
	filesIn.Flags().BoolVar(&byName, "by-name", false, "match the directory by name instead of relative path")

	cmd.AddCommand(
		named("filename <name>", "Find files by exact name",
			func(v string) query.Spec { return query.ByFilename(v, project) }),
		named("extension <ext>", "Find files by extension, with or without the leading dot",
			func(v string) query.Spec { return query.ByExtension(v, project) }),
		named("dir <name>", "Find directories by name",
			func(v string) query.Spec { return query.DirectoryByName(v, project) }),
		filesIn,
		named("path <substring>", "Find files whose relative path contains a substring",
			func(v string) query.Spec { return query.FilesByPathSubstring(v, project) }),
		named("root-files <project>", "List the files in a project's root directory",
			func(v string) query.Spec { return query.ProjectRootFiles(v) }),
		newRawQueryCmd(a),
	)
	return cmd
}

func (a *app) runSpec(cmd *cobra.Command, spec query.Spec) error {
	ctx := cmd.Context()
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	store, err := a.openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := query.Execute(ctx, store, spec)
	if err != nil {
		if stderrors.Is(err, query.ErrInvalidProjection) {
			return errors.NewInputError("Invalid query", err.Error(), "Use identifier aliases and order by returned columns")
		}
		return graphError("Query failed", err)
	}
	return a.render(res)
}

func (a *app) render(res *graphstore.QueryResult) error {
	if a.globals.JSON {
		return query.RenderJSON(a.out, res)
	}
	return query.RenderTable(a.out, res)
}

// parseParams turns k=v pairs into query parameters. Integer and boolean
// values keep their type.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", p)
		}
		switch {
		case isInt(v):
			n, _ := strconv.ParseInt(v, 10, 64)
			params[k] = n
		case v == "true" || v == "false":
			params[k] = v == "true"
		default:
			params[k] = v
		}
	}
	return params, nil
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func newRawQueryCmd(a *app) *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "raw <query>",
		Short: "Run a read-only query in the store's own language (SQL or Cypher)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(pairs)
			if err != nil {
				return errors.NewInputError("Invalid parameter", err.Error(), "Pass parameters as --param name=value")
			}
			ctx := cmd.Context()
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			store, err := a.openGraph(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := query.Raw(ctx, store, args[0], params)
			if err != nil {
				if stderrors.Is(err, query.ErrRejected) {
					return errors.NewInputError("Query rejected", err.Error(), "Only read queries are accepted; bind values with --param")
				}
				return graphError("Query failed", err)
			}
			return a.render(res)
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "param", nil, "bind a query parameter as name=value (repeatable)")
	return cmd
}
