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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kraklabs/repograph/internal/errors"
	"github.com/kraklabs/repograph/internal/requirements"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/gitinfo"
)

type commitRow struct {
	gitinfo.Commit
	Generated *bool `json:"generated,omitempty"`
}

func newCommitsCmd(a *app) *cobra.Command {
	var (
		n        int
		classify bool
	)
	cmd := &cobra.Command{
		Use:   "commits <repo>",
		Short: "Show recent commits and their modified files",
		Example: `  repograph commits . -n 10
  repograph commits ./svc --classify`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			commits, err := gitinfo.RecentCommits(args[0], n)
			if err != nil {
				return errors.NewInputError("Cannot read git history", err.Error(), "Pass a path inside a git repository with at least one commit")
			}

			rows := make([]commitRow, len(commits))
			for i, c := range commits {
				rows[i] = commitRow{Commit: c}
			}
			if classify {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				provider, err := a.provider(cfg)
				if err != nil {
					return err
				}
				mc := gitinfo.NewMergeClassifier(provider, cfg.LLM.Model, a.logger)
				for i := range rows {
					generated, err := mc.ClassifyCommit(ctx, rows[i].Commit)
					if err != nil {
						continue
					}
					rows[i].Generated = &generated
				}
			}

			if a.globals.JSON {
				return a.printJSON(rows)
			}
			for _, r := range rows {
				ui.SubHeader(fmt.Sprintf("%s  %s", r.Hash[:8], firstLine(r.Message)))
				ui.KeyValue("Author", r.Author)
				ui.KeyValue("Date", r.Date)
				if r.Generated != nil {
					ui.KeyValue("System generated", *r.Generated)
				}
				for _, f := range r.ModifiedFiles {
					fmt.Fprintf(a.out, "    - %s\n", f)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 5, "number of commits")
	cmd.Flags().BoolVar(&classify, "classify", false, "ask the model whether each commit is a merge or system-generated")
	return cmd
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func newMergeRequirementsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "merge-requirements <file>...",
		Short:   "Merge pip requirement files into one de-duplicated package list",
		Example: `  repograph merge-requirements requirements.txt requirements-dev.txt`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := requirements.Merge(args, a.logger)
			if a.globals.JSON {
				return a.printJSON(names)
			}
			for _, name := range names {
				fmt.Fprintln(a.out, name)
			}
			return nil
		},
	}
}
