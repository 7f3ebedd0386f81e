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

package triage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/tmc/langchaingo/prompts"

	"github.com/kraklabs/repograph/internal/output"
	"github.com/kraklabs/repograph/pkg/ingestion"
	"github.com/kraklabs/repograph/pkg/llm"
)

// DefaultMaxContentChars bounds the file content sent in one prompt.
const DefaultMaxContentChars = 24000

// FileAssessment is the structured answer for one file.
type FileAssessment struct {
	IsImportant bool     `json:"isImportant"`
	Functions   string   `json:"functions"`
	KeyObjects  []string `json:"keyObjects"`
}

// Result is one JSONL line of a triage run. Error is set when the model
// call failed or its answer could not be parsed; RawContent is kept in the
// latter case.
type Result struct {
	Path        string          `json:"code_file_path"`
	ElapsedMS   float64         `json:"elapsed_ms"`
	RawContent  string          `json:"raw_content,omitempty"`
	TotalTokens int             `json:"total_tokens,omitempty"`
	Structured  *FileAssessment `json:"structured,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Options configures a Triager.
type Options struct {
	Model       string
	Temperature float64

	// MaxContentChars bounds the file content per prompt; <= 0 selects
	// DefaultMaxContentChars.
	MaxContentChars int

	Exclude        ingestion.ExcludeSet
	IgnorePatterns []string

	OnProgress func(done, total int, path string)
}

// RunSummary reports a repository run.
type RunSummary struct {
	Root     string        `json:"root"`
	Files    int           `json:"files"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Triager assesses code files one at a time.
type Triager struct {
	provider llm.Provider
	opts     Options
	tmpl     prompts.PromptTemplate
	logger   *slog.Logger
}

// NewTriager returns a Triager using provider.
func NewTriager(provider llm.Provider, opts Options, logger *slog.Logger) *Triager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = DefaultMaxContentChars
	}
	return &Triager{
		provider: provider,
		opts:     opts,
		tmpl: prompts.NewPromptTemplate(assessTemplate,
			[]string{"format_instructions", "relative_docs", "code_file_path", "code_file_content"}),
		logger: logger,
	}
}

// AssessFile asks the model about one file. Failures are reported in the
// returned Result, never as an error.
func (t *Triager) AssessFile(ctx context.Context, docs, path, content string) Result {
	res := Result{Path: path}

	prompt, err := renderAssess(t.tmpl, docs, path, truncate(content, t.opts.MaxContentChars))
	if err != nil {
		res.Error = err.Error()
		return res
	}

	start := time.Now()
	resp, err := t.provider.Generate(ctx, llm.GenerateRequest{
		Prompt:      prompt,
		Model:       t.opts.Model,
		Temperature: t.opts.Temperature,
		JSON:        true,
	})
	res.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		t.logger.Warn("triage.file.error", "path", path, "err", err)
		res.Error = err.Error()
		return res
	}
	res.RawContent = resp.Text
	res.TotalTokens = resp.TotalTokens

	var fa FileAssessment
	if err := llm.DecodeJSONAnswer(resp.Text, &fa); err != nil {
		t.logger.Warn("triage.file.unparsed", "path", path, "err", err)
		res.Error = fmt.Sprintf("parse answer: %v", err)
		return res
	}
	res.Structured = &fa
	return res
}

// AssessRepository triages every code file under root and writes one
// Result per file to w. Files that are not valid UTF-8 are skipped.
func (t *Triager) AssessRepository(ctx context.Context, root, description string, w io.Writer) (*RunSummary, error) {
	start := time.Now()
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	scan, err := ingestion.ScanDirectory(absRoot, ingestion.ScanOptions{
		Exclude:        t.opts.Exclude,
		IgnorePatterns: t.opts.IgnorePatterns,
		Logger:         t.logger,
	})
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range scan.Files {
		if ingestion.IsCodeFile(f) {
			files = append(files, f)
		}
	}
	t.logger.Info("triage.start", "root", absRoot, "files", len(files))

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
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		switch {
		case err != nil:
			t.logger.Warn("triage.file.unreadable", "path", rel, "err", err)
			summary.Skipped++
		case !utf8.Valid(data):
			t.logger.Warn("triage.file.skipped", "path", rel, "reason", "encoding")
			summary.Skipped++
		default:
			res := t.AssessFile(ctx, description, rel, string(data))
			summary.Files++
			if res.Error != "" {
				summary.Failed++
			}
			if err := jw.Write(res); err != nil {
				return summary, fmt.Errorf("write result: %w", err)
			}
		}
		if t.opts.OnProgress != nil {
			t.opts.OnProgress(i+1, len(files), rel)
		}
	}
	if err := jw.Flush(); err != nil {
		return summary, fmt.Errorf("flush results: %w", err)
	}

	summary.Duration = time.Since(start)
	t.logger.Info("triage.complete",
		"files", summary.Files,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.Duration,
	)
	return summary, nil
}
