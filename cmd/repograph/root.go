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
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kraklabs/repograph/internal/config"
	"github.com/kraklabs/repograph/internal/errors"
	"github.com/kraklabs/repograph/internal/output"
	"github.com/kraklabs/repograph/internal/ui"
)

// GlobalFlags holds flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
	NoColor    bool
	Debug      bool
}

func (g *GlobalFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&g.ConfigPath, "config", "", "path to .repograph/project.yaml (default: ./.repograph/project.yaml)")
	fs.BoolVar(&g.JSON, "json", false, "print results and errors as JSON")
	fs.BoolVarP(&g.Quiet, "quiet", "q", false, "only log warnings and hide progress bars")
	fs.BoolVar(&g.NoColor, "no-color", false, "disable colored output")
	fs.BoolVar(&g.Debug, "debug", false, "enable debug logging")
}

// app carries per-invocation state to the command handlers.
type app struct {
	globals GlobalFlags
	logger  *slog.Logger
	out     io.Writer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{logger: slog.Default(), out: os.Stdout}

	root := &cobra.Command{
		Use:   "repograph",
		Short: "Map repositories into a file-structure graph and document them with a language model",
		Long: `repograph loads a repository's directory tree into a graph database
(an embedded SQLite file or Neo4j), answers structural queries over it,
and drives model-backed pipelines: per-entity documentation, file triage,
root file overviews and semantic search.

Getting started:
  1. repograph init
  2. repograph ingest .
  3. repograph query extension .go`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setup(cmd)
		},
	}

	a.globals.bind(root.PersistentFlags())

	root.AddCommand(
		newInitCmd(a),
		newVersionCmd(a),
		newIngestCmd(a),
		newBatchCmd(a),
		newDeleteCmd(a),
		newLinkSiblingsCmd(a),
		newProjectsCmd(a),
		newQueryCmd(a),
		newDocgenCmd(a),
		newSearchCmd(a),
		newTriageCmd(a),
		newOverviewCmd(a),
		newCommitsCmd(a),
		newMergeRequirementsCmd(a),
	)
	return root, a
}

// setup applies the global flags once they are parsed.
func (a *app) setup(cmd *cobra.Command) {
	if a.globals.JSON {
		a.globals.Quiet = true
	}
	ui.InitColors(a.globals.NoColor)
	a.out = cmd.OutOrStdout()
	ui.Out = a.out

	level := slog.LevelInfo
	switch {
	case a.globals.Debug:
		level = slog.LevelDebug
	case a.globals.Quiet:
		level = slog.LevelWarn
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
}

// loadConfig reads the configuration and resolves its relative paths
// against the directory holding .repograph. Without --config a missing
// file falls back to the defaults.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.globals.ConfigPath
	explicit := path != ""
	if !explicit {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.NewInternalError("Cannot determine working directory", err.Error(), "", err)
		}
		path = config.ConfigPath(cwd)
	}

	cfg, err := config.Load(path, !explicit)
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot load configuration",
			err.Error(),
			"Run 'repograph init' or pass a valid --config path",
			err,
		)
	}
	root := filepath.Dir(filepath.Dir(path))
	cfg.Resolve(root)
	a.logger.Debug("config.loaded", "path", path, "graph", cfg.Graph.Backend, "llm", cfg.LLM.Provider)
	return cfg, nil
}

// printJSON writes v to the command output.
func (a *app) printJSON(v any) error {
	return output.JSONTo(a.out, v)
}
