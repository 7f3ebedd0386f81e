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
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kraklabs/repograph/internal/bootstrap"
	"github.com/kraklabs/repograph/internal/config"
	"github.com/kraklabs/repograph/internal/errors"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/docgen"
	"github.com/kraklabs/repograph/pkg/vectorstore"
)

// createOutput opens path for writing, or returns the command output when
// path is empty or "-".
func (a *app) createOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.out, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newDocgenCmd(a *app) *cobra.Command {
	var (
		brief       string
		outPath     string
		index       bool
		includeCode bool
		model       string
	)
	cmd := &cobra.Command{
		Use:   "docgen <file|dir>",
		Short: "Document every function and class with the language model",
		Long: `docgen splits each supported source file (Python, Go, JavaScript,
TypeScript, Java) into top-level functions and classes and asks the model to
explain each one, feeding the summaries of earlier entities in the file back
as context. Records are written as JSON lines; --index also embeds them into
the Weaviate vector store (the memory backend cannot keep them, use
'repograph search --records' instead).`,
		Example: `  repograph docgen ./src --brief "An upload service" --out docs.jsonl
  repograph docgen app/upload.py --brief "An upload service" --index  # vector.backend: weaviate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if brief == "" {
				brief = cfg.Docgen.ProjectBrief
			}
			// The memory store lives only as long as this process.
			if index && cfg.Vector.Backend == config.VectorMemory {
				return errors.NewInputError(
					"Cannot index into the memory vector store",
					"vector.backend is memory, so indexed vectors would be discarded when docgen exits",
					"Set vector.backend to weaviate, or run docgen without --index and use 'repograph search --records <file>'",
				)
			}
			if brief == "" {
				return errors.NewInputError("Missing project brief", "Every prompt needs the project's purpose", `Pass --brief "..." or set docgen.project_brief`)
			}
			provider, err := a.provider(cfg)
			if err != nil {
				return err
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return errors.NewNotFoundError("Path not found", err.Error(), "Pass an existing file or directory")
			}

			w, closeOut, err := a.createOutput(outPath)
			if err != nil {
				return errors.NewPermissionError("Cannot create output file", err.Error(), "Choose a writable --out path", err)
			}
			defer closeOut()

			// Keep a copy of the records for indexing.
			var captured bytes.Buffer
			if index {
				w = io.MultiWriter(w, &captured)
			}

			progress := newProgressTracker(NewProgressConfig(a.globals), "Documenting files")
			gen := docgen.NewGenerator(provider, docgen.Options{
				ProjectBrief:    brief,
				MaxRelatedBytes: cfg.Docgen.MaxRelatedBytes,
				IncludeCode:     includeCode || cfg.Docgen.IncludeCode,
				Model:           model,
				Temperature:     cfg.LLM.Temperature,
				MaxTokens:       cfg.LLM.MaxTokens,
				OnProgress:      func(done, total int, _ string) { progress.Update(done, total) },
			}, a.logger)

			var summary *docgen.RunSummary
			if info.IsDir() {
				summary, err = gen.DocumentRepository(ctx, args[0], w)
				progress.Finish()
				if err != nil {
					return errors.NewInternalError("Documentation run failed", err.Error(), "", err)
				}
			} else {
				if !gen.Supported(args[0]) {
					return errors.NewInputError("Unsupported file", docgen.ErrUnsupportedLanguage.Error(), "Use a .py, .go, .js, .ts or .java file")
				}
				res := gen.DocumentFile(ctx, args[0], filepath.ToSlash(filepath.Base(args[0])))
				if res.Err != nil {
					return modelError(fmt.Sprintf("Documenting %s failed at stage %s", res.Path, res.Stage), res.Err)
				}
				if err := docgen.WriteRecords(w, res.Records); err != nil {
					return err
				}
				summary = &docgen.RunSummary{Root: args[0], Files: 1, Records: len(res.Records)}
			}

			indexed := 0
			if index {
				if indexed, err = a.indexRecords(cmd, &captured); err != nil {
					return err
				}
			}

			if outPath == "" || outPath == "-" {
				return nil
			}
			if a.globals.JSON {
				return a.printJSON(map[string]any{"summary": summary, "indexed": indexed})
			}
			ui.Successf("Documented %d files (%d failed), %d records written to %s", summary.Files, summary.FilesFailed, summary.Records, outPath)
			for _, f := range summary.Failures {
				ui.Warningf("%s: %s stage: %s", f.Path, f.Stage, f.Error)
			}
			if index {
				ui.Successf("Indexed %d vectors", indexed)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&brief, "brief", "", "one-paragraph description of the project given to every prompt")
	f.StringVarP(&outPath, "out", "o", "", "JSONL output file (default: stdout)")
	f.BoolVar(&index, "index", false, "embed the records into the Weaviate vector store")
	f.BoolVar(&includeCode, "include-code", false, "store each entity's source in its record")
	f.StringVar(&model, "model", "", "model name overriding llm.model")
	return cmd
}

// indexRecords embeds the records in r into the configured vector store.
func (a *app) indexRecords(cmd *cobra.Command, r io.Reader) (int, error) {
	ctx := cmd.Context()
	recs, err := docgen.ReadRecords(r)
	if err != nil {
		return 0, errors.NewInputError("Cannot read records", err.Error(), "Pass a JSONL file written by 'repograph docgen'")
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return 0, err
	}
	embedder, err := a.embedder(cfg)
	if err != nil {
		return 0, err
	}
	store, err := bootstrap.OpenVectors(ctx, cfg, a.logger)
	if err != nil {
		return 0, errors.NewDatabaseError("Cannot open vector store", err.Error(), "Check the vector section of .repograph/project.yaml", err)
	}
	defer store.Close()

	spinner := NewSpinner(NewProgressConfig(a.globals), "Embedding records")
	n, err := vectorstore.NewIndexer(store, embedder, 0, a.logger).Index(ctx, recs)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil {
		return n, modelError("Indexing failed", err)
	}
	return n, nil
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit       int
		recordsPath string
	)
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find documented entities semantically close to a question",
		Long: `search embeds the text and returns the nearest documentation or code
vectors. With the in-memory vector backend, pass --records to load the
records written by docgen first.`,
		Example: `  repograph search "where are uploads validated" --limit 5
  repograph search "file type detection" --records docs.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			embedder, err := a.embedder(cfg)
			if err != nil {
				return err
			}
			store, err := bootstrap.OpenVectors(ctx, cfg, a.logger)
			if err != nil {
				return errors.NewDatabaseError("Cannot open vector store", err.Error(), "Check the vector section of .repograph/project.yaml", err)
			}
			defer store.Close()
			ix := vectorstore.NewIndexer(store, embedder, 0, a.logger)

			if recordsPath != "" {
				f, err := os.Open(recordsPath)
				if err != nil {
					return errors.NewNotFoundError("Records file not found", err.Error(), "Pass the JSONL written by 'repograph docgen --out'")
				}
				recs, err := docgen.ReadRecords(f)
				_ = f.Close()
				if err != nil {
					return errors.NewInputError("Cannot read records", err.Error(), "Pass a JSONL file written by 'repograph docgen'")
				}
				if _, err := ix.Index(ctx, recs); err != nil {
					return modelError("Indexing failed", err)
				}
			}

			hits, err := ix.Search(ctx, args[0], limit)
			if err != nil {
				return modelError("Search failed", err)
			}
			if a.globals.JSON {
				return a.printJSON(hits)
			}
			if len(hits) == 0 {
				ui.Warning("No results")
				return nil
			}
			rows := make([][]string, len(hits))
			for i, h := range hits {
				rows[i] = []string{fmt.Sprintf("%.3f", h.Score), h.FilePath, h.EntityName, h.EntityType}
			}
			return ui.Table(a.out, []string{"score", "file", "entity", "type"}, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of results")
	cmd.Flags().StringVar(&recordsPath, "records", "", "docgen JSONL to index before searching")
	return cmd
}
