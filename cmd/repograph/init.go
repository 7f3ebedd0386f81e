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
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/kraklabs/repograph/internal/bootstrap"
	"github.com/kraklabs/repograph/internal/errors"
	"github.com/kraklabs/repograph/internal/ui"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create .repograph/project.yaml and the embedded graph database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			info, err := bootstrap.InitProject(dir, force, a.logger)
			if err != nil {
				if stderrors.Is(err, fs.ErrPermission) {
					return errors.NewPermissionError("Cannot write configuration", err.Error(), "Run init in a writable directory", err)
				}
				return errors.NewConfigError("Initialization failed", err.Error(), "", err)
			}
			if a.globals.JSON {
				return a.printJSON(info)
			}
			if info.Created {
				ui.Successf("Created %s", info.ConfigPath)
			} else {
				ui.Infof("Kept existing %s (use --force to overwrite)", info.ConfigPath)
			}
			if info.GraphPath != "" {
				ui.KeyValue("Graph", info.GraphPath)
			}
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, "Next steps:")
			fmt.Fprintln(a.out, "  repograph ingest .       Load this repository into the graph")
			fmt.Fprintln(a.out, "  repograph projects       List ingested projects")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration with the defaults")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.globals.JSON {
				return a.printJSON(map[string]string{"version": version, "commit": commit, "date": date})
			}
			fmt.Fprintf(a.out, "repograph version %s\n", version)
			fmt.Fprintf(a.out, "commit: %s\n", commit)
			fmt.Fprintf(a.out, "built: %s\n", date)
			return nil
		},
	}
}
