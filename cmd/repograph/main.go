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

// Package main implements the repograph CLI: it loads repositories into a
// file-structure graph, queries it, and drives the model-backed
// documentation, triage and search pipelines.
//
// Usage:
//
//	repograph init                          Create .repograph/project.yaml
//	repograph ingest <path|git-url>         Load a repository into the graph
//	repograph batch <path>...               Load several repositories
//	repograph query <kind> <value>          Run a named graph query
//	repograph docgen <file|dir> --brief ..  Document code entities
//	repograph search "<text>"               Semantic search over documentation
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kraklabs/repograph/internal/errors"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string) int {
	root, a := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Print(os.Stderr, err, a.globals.JSON)
}
