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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/repograph/internal/bootstrap"
	"github.com/kraklabs/repograph/internal/config"
	"github.com/kraklabs/repograph/internal/errors"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/ingestion"
)

func pipelineOptions(cfg *config.Config, linkSiblings bool, extra []string) ingestion.PipelineOptions {
	exclude := ingestion.DefaultExcludeDirs()
	for _, name := range append(append([]string{}, cfg.Ingestion.Exclude...), extra...) {
		exclude[name] = struct{}{}
	}
	return ingestion.PipelineOptions{
		Exclude:      exclude,
		LinkSiblings: linkSiblings || cfg.Ingestion.LinkSiblings,
		CloneDepth:   cfg.Ingestion.CloneDepth,
	}
}

func newIngestCmd(a *app) *cobra.Command {
	var (
		label        string
		linkSiblings bool
		metricsAddr  string
		exclude      []string
	)
	cmd := &cobra.Command{
		Use:   "ingest <path|git-url>",
		Short: "Load one repository's directory tree into the graph",
		Example: `  repograph ingest .
  repograph ingest https://github.com/org/repo.git --label repo
  repograph ingest ./svc --link-siblings --metrics-addr :9464`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, a.logger)
				defer stop()
			}
			store, err := a.openGraph(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := pipelineOptions(cfg, linkSiblings, exclude)
			progress := newProgressTracker(NewProgressConfig(a.globals), "Writing nodes")
			opts.OnProgress = progress.Update
			p := ingestion.NewPipeline(store, opts, a.logger)
			defer p.Close()

			res, err := p.IngestRepository(ctx, args[0], label)
			progress.Finish()
			if err != nil {
				return errors.NewInternalError("Ingestion failed", err.Error(), "Check that the path exists or the URL can be cloned", err)
			}

			if a.globals.JSON {
				return a.printJSON(res)
			}
			ui.Successf("Ingested %s", res.ProjectName)
			ui.KeyValue("Directories", res.Directories)
			ui.KeyValue("Files", res.Files)
			ui.KeyValue("CONTAINS edges", res.ContainsEdges)
			if opts.LinkSiblings {
				ui.KeyValue("SAME_DIRECTORY edges", res.SiblingEdges)
			}
			ui.KeyValue("Duration", res.TotalDuration.Round(time.Millisecond))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&label, "label", "", "project name to use instead of the derived one")
	f.BoolVar(&linkSiblings, "link-siblings", false, "add SAME_DIRECTORY edges between files sharing a directory")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while ingesting")
	f.StringSliceVar(&exclude, "exclude", nil, "additional directory names to skip")
	return cmd
}

// readLabels parses a YAML mapping of label to source.
func readLabels(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	labels := map[string]string{}
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return labels, nil
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		labelsPath     string
		checkpointPath string
		linkSiblings   bool
	)
	cmd := &cobra.Command{
		Use:   "batch [path|git-url]...",
		Short: "Load several repositories, continuing past failures",
		Example: `  repograph batch ./svc-a ./svc-b
  repograph batch --labels repos.yaml --checkpoint .repograph/batch.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var specs []ingestion.RepoSpec
			switch {
			case labelsPath != "":
				labels, err := readLabels(labelsPath)
				if err != nil {
					return errors.NewInputError("Cannot read labels file", err.Error(), "Pass a YAML mapping of label: source")
				}
				specs = ingestion.SpecsFromLabels(labels)
			case len(args) > 0:
				specs = ingestion.SpecsFromPaths(args)
			default:
				return errors.NewInputError("Nothing to ingest", "No paths and no --labels file given", "Pass repository paths or --labels repos.yaml")
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			store, err := a.openGraph(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var checkpoint *ingestion.BatchCheckpoint
			if checkpointPath != "" {
				if checkpoint, err = ingestion.LoadBatchCheckpoint(checkpointPath); err != nil {
					return errors.NewInputError("Cannot read checkpoint", err.Error(), "Delete the checkpoint file to start over")
				}
			}

			p := ingestion.NewPipeline(store, pipelineOptions(cfg, linkSiblings, nil), a.logger)
			defer p.Close()
			res := p.IngestBatch(ctx, specs, checkpoint)
			if res.OK() && checkpoint != nil {
				if err := checkpoint.Clear(); err != nil {
					a.logger.Warn("batch.checkpoint.clear_failed", "err", err)
				}
			}

			if a.globals.JSON {
				if err := a.printJSON(res); err != nil {
					return err
				}
			} else {
				for _, r := range res.Results {
					ui.Successf("%s: %d directories, %d files", r.ProjectName, r.Directories, r.Files)
				}
				for _, s := range res.Skipped {
					ui.Infof("%s: already done", s.Source)
				}
				for _, f := range res.Failures {
					ui.Errorf("%s: %s", f.Spec.Source, f.Error)
				}
			}
			if !res.OK() {
				sources := make([]string, len(res.Failures))
				for i, f := range res.Failures {
					sources[i] = f.Spec.Source
				}
				return errors.NewInternalError(
					fmt.Sprintf("%d of %d repositories failed", len(res.Failures), len(specs)),
					strings.Join(sources, ", "),
					"Re-run with the same --checkpoint to retry only the failed entries",
					nil,
				)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&labelsPath, "labels", "", "YAML file mapping label to repository path or URL")
	f.StringVar(&checkpointPath, "checkpoint", "", "file recording finished entries so a re-run skips them")
	f.BoolVar(&linkSiblings, "link-siblings", false, "add SAME_DIRECTORY edges")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <project>",
		Short: "Remove a project's nodes, edges and stored descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := args[0]
			if !yes {
				return errors.NewInputError(
					"Refusing to delete without confirmation",
					fmt.Sprintf("delete removes every node of project %q", project),
					"Re-run with --yes",
				)
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

			nodes, err := store.DeleteProject(ctx, project)
			if err != nil {
				return graphError("Delete failed", err)
			}
			var descs int64
			if ds, err := bootstrap.OpenDescriptions(cfg); err == nil {
				descs, err = ds.DeleteProject(ctx, project)
				if err != nil {
					a.logger.Warn("delete.descriptions.error", "project", project, "err", err)
				}
				_ = ds.Close()
			}

			if a.globals.JSON {
				return a.printJSON(map[string]any{"project": project, "nodes_deleted": nodes, "descriptions_deleted": descs})
			}
			if nodes == 0 {
				ui.Warningf("No nodes found for project %s", project)
				return nil
			}
			ui.Successf("Deleted %d nodes of %s", nodes, project)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func newLinkSiblingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link-siblings <project>",
		Short: "Add SAME_DIRECTORY edges between files of an ingested project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			n, err := store.LinkSiblings(ctx, args[0])
			if err != nil {
				return graphError("Linking siblings failed", err)
			}
			if a.globals.JSON {
				return a.printJSON(map[string]any{"project": args[0], "edges_created": n})
			}
			ui.Successf("Created %d SAME_DIRECTORY edges", n)
			return nil
		},
	}
}

func newProjectsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects stored in the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			projects, err := bootstrap.ListProjects(ctx, store)
			if err != nil {
				return graphError("Listing projects failed", err)
			}
			if a.globals.JSON {
				return a.printJSON(projects)
			}
			for _, p := range projects {
				fmt.Fprintln(a.out, p)
			}
			return nil
		},
	}
}
