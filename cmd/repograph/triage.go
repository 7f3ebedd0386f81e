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
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kraklabs/repograph/internal/bootstrap"
	"github.com/kraklabs/repograph/internal/errors"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/triage"
)

func newTriageCmd(a *app) *cobra.Command {
	var (
		description string
		outPath     string
		maxChars    int
	)
	cmd := &cobra.Command{
		Use:   "triage <repo>",
		Short: "Ask the model which code files matter and what each one does",
		Example: `  repograph triage ./api --description "Backend of a code completion plugin"
  repograph triage ./api --description "..." --out triage.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if description == "" {
				return errors.NewInputError("Missing repository description", "The model needs the repository's purpose", `Pass --description "..."`)
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			provider, err := a.provider(cfg)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = fmt.Sprintf("triage_%s_%d.jsonl", filepath.Base(filepath.Clean(args[0])), time.Now().Unix())
			}
			w, closeOut, err := a.createOutput(outPath)
			if err != nil {
				return errors.NewPermissionError("Cannot create output file", err.Error(), "Choose a writable --out path", err)
			}
			defer closeOut()

			progress := newProgressTracker(NewProgressConfig(a.globals), "Triaging files")
			t := triage.NewTriager(provider, triage.Options{
				Model:           cfg.LLM.Model,
				Temperature:     cfg.LLM.Temperature,
				MaxContentChars: maxChars,
				OnProgress:      func(done, total int, _ string) { progress.Update(done, total) },
			}, a.logger)
			summary, err := t.AssessRepository(ctx, args[0], description, w)
			progress.Finish()
			if err != nil {
				return errors.NewInternalError("Triage failed", err.Error(), "", err)
			}

			if a.globals.JSON {
				return a.printJSON(map[string]any{"summary": summary, "output": outPath})
			}
			ui.Successf("Triaged %d files in %s", summary.Files, summary.Duration.Round(time.Millisecond))
			ui.KeyValue("Skipped (encoding)", summary.Skipped)
			ui.KeyValue("Failed", summary.Failed)
			ui.KeyValue("Results", outPath)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&description, "description", "", "what the repository is for")
	f.StringVarP(&outPath, "out", "o", "", "JSONL output file (default: triage_<repo>_<unix>.jsonl, - for stdout)")
	f.IntVar(&maxChars, "max-chars", triage.DefaultMaxContentChars, "truncate file content beyond this many characters")
	return cmd
}

func newOverviewCmd(a *app) *cobra.Command {
	var (
		basePath string
		store    bool
	)
	cmd := &cobra.Command{
		Use:   "overview <project>",
		Short: "Summarize what a project's root files say about building and running it",
		Example: `  repograph overview kubernetes --base ~/src/kubernetes
  repograph overview svc --base ./svc --store`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project := args[0]
			if basePath == "" {
				return errors.NewInputError("Missing repository path", "Root file content is read from disk", "Pass --base <repo checkout>")
			}
			if _, err := os.Stat(basePath); err != nil {
				return errors.NewNotFoundError("Repository path not found", err.Error(), "Pass the checkout the project was ingested from")
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			provider, err := a.provider(cfg)
			if err != nil {
				return err
			}
			graph, err := a.openGraph(ctx, cfg)
			if err != nil {
				return err
			}
			defer graph.Close()

			ov := triage.NewOverview(provider, triage.Options{Model: cfg.LLM.Model, Temperature: cfg.LLM.Temperature}, a.logger)
			results, err := ov.ProcessRootFiles(ctx, graph, project, basePath)
			if err != nil {
				return graphError("Overview failed", err)
			}
			if len(results) == 0 {
				return errors.NewNotFoundError("No root files", fmt.Sprintf("project %q has no files in its root directory", project), "Check the name with 'repograph projects'")
			}

			stored := 0
			if store {
				descs, err := bootstrap.OpenDescriptions(cfg)
				if err != nil {
					return errors.NewDatabaseError("Cannot open description store", err.Error(), "Check graph.descriptions_path", err)
				}
				defer descs.Close()
				if stored, err = ov.StoreDescriptions(ctx, graph, descs, project, results); err != nil {
					return graphError("Storing descriptions failed", err)
				}
			}

			if a.globals.JSON {
				return a.printJSON(map[string]any{"project": project, "files": results, "stored": stored})
			}
			fmt.Fprint(a.out, triage.Summarize(results))
			if store {
				ui.Successf("Stored %d descriptions", stored)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&basePath, "base", "", "local checkout of the project")
	cmd.Flags().BoolVar(&store, "store", false, "persist the answers and link them from the graph nodes")
	return cmd
}
