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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kraklabs/repograph/internal/output"
	"github.com/kraklabs/repograph/pkg/ingestion"
	"github.com/kraklabs/repograph/pkg/llm"
)

// Failure stages reported in FileResult.Stage.
const (
	StageRead   = "read"
	StageParse  = "parse"
	StagePrompt = "prompt"
	StageModel  = "model"
)

// Options configures a Generator.
type Options struct {
	// ProjectBrief is the stated purpose of the project, given to every prompt.
	ProjectBrief string

	// MaxRelatedBytes bounds the running context; <= 0 selects
	// DefaultMaxRelatedBytes.
	MaxRelatedBytes int

	// IncludeCode adds each entity's source to its record.
	IncludeCode bool

	Model       string
	Temperature float64
	MaxTokens   int

	// Exclude and IgnorePatterns are passed to the repository scan.
	Exclude        ingestion.ExcludeSet
	IgnorePatterns []string

	// OnProgress is called after each file of a repository run.
	OnProgress func(done, total int, path string)
}

// FileResult is the outcome of documenting one file. On failure Err is set,
// Stage names the step that failed and Records is empty.
type FileResult struct {
	Path    string
	Records []Record
	Stage   string
	Err     error
}

// FileFailure is one failed file in a repository run.
type FileFailure struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// RunSummary describes a repository run.
type RunSummary struct {
	Root        string        `json:"root"`
	Files       int           `json:"files"`
	FilesFailed int           `json:"files_failed"`
	Records     int           `json:"records"`
	Failures    []FileFailure `json:"failures,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Generator documents source files entity by entity.
type Generator struct {
	provider llm.Provider
	splitter *Splitter
	prompt   entityPrompt
	opts     Options
	logger   *slog.Logger
}

// NewGenerator creates a Generator that asks provider for each entity.
func NewGenerator(provider llm.Provider, opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider: provider,
		splitter: NewSplitter(logger),
		prompt:   newEntityPrompt(),
		opts:     opts,
		logger:   logger,
	}
}

// Supported reports whether path can be documented.
func (g *Generator) Supported(path string) bool { return g.splitter.Supported(path) }

func (g *Generator) fail(res FileResult, stage string, err error) FileResult {
	g.logger.Warn("docgen.file.error",
		"path", res.Path,
		"stage", stage,
		"err", err,
	)
	recordFileFailed(stage)
	return FileResult{Path: res.Path, Stage: stage, Err: err}
}

// DocumentFile documents the entities of the file at path in declaration
// order. displayPath is used in prompts and records; empty means path.
// Each entity's prompt carries the running context of the entities before
// it. Any failure abandons the whole file.
func (g *Generator) DocumentFile(ctx context.Context, path, displayPath string) FileResult {
	if displayPath == "" {
		displayPath = path
	}
	res := FileResult{Path: displayPath}
	start := time.Now()

	src, err := os.ReadFile(path)
	if err != nil {
		return g.fail(res, StageRead, fmt.Errorf("read %s: %w", displayPath, err))
	}
	entities, err := g.splitter.Split(path, src)
	if err != nil {
		return g.fail(res, StageParse, err)
	}

	related := NewRelatedContext(g.opts.MaxRelatedBytes)
	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			return g.fail(res, StageModel, err)
		}
		prompt, err := g.prompt.render(g.opts.ProjectBrief, displayPath, e, related.String())
		if err != nil {
			return g.fail(res, StagePrompt, err)
		}
		doc, err := llm.GenerateText(ctx, g.provider, llm.GenerateRequest{
			Prompt:      prompt,
			Model:       g.opts.Model,
			Temperature: g.opts.Temperature,
			MaxTokens:   g.opts.MaxTokens,
		})
		if err != nil {
			return g.fail(res, StageModel, fmt.Errorf("document %s %s: %w", e.Kind, e.Name, err))
		}

		rec := Record{
			FilePath:      displayPath,
			EntityName:    e.Name,
			EntityType:    e.Kind,
			Documentation: doc,
			StartLine:     e.StartLine,
			EndLine:       e.EndLine,
		}
		if g.opts.IncludeCode {
			rec.Code = e.Code
		}
		res.Records = append(res.Records, rec)
		related.Add(e.Kind, e.Name, doc)

		g.logger.Debug("docgen.entity.done",
			"path", displayPath,
			"entity", e.Name,
			"kind", e.Kind,
			"context_bytes", related.Len(),
		)
	}

	recordFileDone(res.Records, time.Since(start))
	return res
}

// DocumentRepository documents every supported file under root and writes
// one JSON line per entity to w. Per-file failures are logged and listed in
// the summary; only scan, write and cancellation errors stop the run.
// Record paths are relative to root.
func (g *Generator) DocumentRepository(ctx context.Context, root string, w io.Writer) (*RunSummary, error) {
	start := time.Now()
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	scan, err := ingestion.ScanDirectory(absRoot, ingestion.ScanOptions{
		Exclude:        g.opts.Exclude,
		IgnorePatterns: g.opts.IgnorePatterns,
		Logger:         g.logger,
	})
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range scan.Files {
		if g.Supported(f) {
			files = append(files, f)
		}
	}

	g.logger.Info("docgen.start",
		"root", absRoot,
		"files", len(files),
	)

	summary := &RunSummary{Root: absRoot}
	jw := output.NewJSONLWriter(w)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			_ = jw.Flush()
			return summary, err
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = path
		}
		res := g.DocumentFile(ctx, path, filepath.ToSlash(rel))
		summary.Files++
		if res.Err != nil {
			summary.FilesFailed++
			summary.Failures = append(summary.Failures, FileFailure{Path: res.Path, Stage: res.Stage, Error: res.Err.Error()})
		}
		for _, rec := range res.Records {
			if err := jw.Write(rec); err != nil {
				return summary, fmt.Errorf("write record: %w", err)
			}
			summary.Records++
		}
		if g.opts.OnProgress != nil {
			g.opts.OnProgress(i+1, len(files), res.Path)
		}
	}
	if err := jw.Flush(); err != nil {
		return summary, fmt.Errorf("flush records: %w", err)
	}

	summary.Duration = time.Since(start)
	g.logger.Info("docgen.complete",
		"files", summary.Files,
		"failed", summary.FilesFailed,
		"records", summary.Records,
		"duration", summary.Duration,
	)
	return summary, nil
}
