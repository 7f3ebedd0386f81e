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
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/kraklabs/repograph/pkg/descstore"
	"github.com/kraklabs/repograph/pkg/graphstore"
	"github.com/kraklabs/repograph/pkg/llm"
	"github.com/kraklabs/repograph/pkg/query"
)

// NoneAnswer is the model's answer for a file with nothing worth noting.
const NoneAnswer = "None"

// ErrorPrefix starts every answer recorded for a file that could not be
// processed.
const ErrorPrefix = "Error: "

// RootFile is one file held by a project's root directory.
type RootFile struct {
	ID           string
	Name         string
	RelativePath string
}

// Overview describes a project's root files.
type Overview struct {
	provider        llm.Provider
	tmpl            prompts.PromptTemplate
	model           string
	temperature     float64
	maxContentChars int
	logger          *slog.Logger
}

// NewOverview returns an Overview using the model and temperature of opts.
func NewOverview(provider llm.Provider, opts Options, logger *slog.Logger) *Overview {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = DefaultMaxContentChars
	}
	return &Overview{
		provider: provider,
		tmpl: prompts.NewPromptTemplate(rootFileTemplate,
			[]string{"root_file_list", "target_file_name", "target_file_content"}),
		model:           opts.Model,
		temperature:     opts.Temperature,
		maxContentChars: opts.MaxContentChars,
		logger:          logger,
	}
}

// RootFiles queries the graph for the project's root files, ordered by name.
func RootFiles(ctx context.Context, r query.Runner, project string) ([]RootFile, error) {
	res, err := query.Execute(ctx, r, query.ProjectRootFiles(project))
	if err != nil {
		return nil, fmt.Errorf("query root files: %w", err)
	}
	files := make([]RootFile, 0, len(res.Rows))
	for _, row := range res.Maps() {
		files = append(files, RootFile{
			ID:           cell(row["id"]),
			Name:         cell(row["name"]),
			RelativePath: cell(row["relative_path"]),
		})
	}
	return files, nil
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ProcessRootFiles asks for a one-sentence note on every root file of
// project, reading content from basePath. The result maps file name to
// answer; unreadable files and failed calls map to an ErrorPrefix answer.
func (o *Overview) ProcessRootFiles(ctx context.Context, r query.Runner, project, basePath string) (map[string]string, error) {
	files, err := RootFiles(ctx, r, project)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	o.logger.Info("overview.start", "project", project, "files", len(files))

	results := make(map[string]string, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results[f.Name] = o.describe(ctx, names, f, basePath)
	}
	o.logger.Info("overview.complete", "project", project, "files", len(results))
	return results, nil
}

func (o *Overview) describe(ctx context.Context, names []string, f RootFile, basePath string) string {
	data, err := os.ReadFile(filepath.Join(basePath, filepath.FromSlash(f.RelativePath)))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		o.logger.Warn("overview.file.unreadable", "path", f.RelativePath, "err", err)
		return ErrorPrefix + "Could not read file content"
	}

	prompt, err := renderRootFile(o.tmpl, names, f.Name, truncate(string(data), o.maxContentChars))
	if err != nil {
		return ErrorPrefix + err.Error()
	}
	answer, err := llm.GenerateText(ctx, o.provider, llm.GenerateRequest{
		Prompt:      prompt,
		Model:       o.model,
		Temperature: o.temperature,
	})
	if err != nil {
		o.logger.Warn("overview.file.error", "path", f.RelativePath, "err", err)
		return ErrorPrefix + err.Error()
	}
	return answer
}

// Useful reports whether answer carries a note worth keeping.
func Useful(answer string) bool {
	a := strings.TrimSpace(answer)
	if a == "" || strings.HasPrefix(a, ErrorPrefix) {
		return false
	}
	return !strings.EqualFold(strings.TrimRight(a, "."), NoneAnswer)
}

// Summarize renders the useful answers ordered by file name.
func Summarize(results map[string]string) string {
	names := make([]string, 0, len(results))
	for name, answer := range results {
		if Useful(answer) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Root file summary:\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "File: %s\nSummary: %s\n\n", name, strings.TrimSpace(results[name]))
	}
	return b.String()
}

// StoreDescriptions saves every useful answer in descs and records the new
// row id on the file's graph node. It returns the number of files stored.
func (o *Overview) StoreDescriptions(ctx context.Context, store graphstore.Store, descs *descstore.Store, project string, results map[string]string) (int, error) {
	files, err := RootFiles(ctx, store, project)
	if err != nil {
		return 0, err
	}
	stored := 0
	for _, f := range files {
		answer, ok := results[f.Name]
		if !ok || !Useful(answer) {
			continue
		}
		id, err := descs.Insert(ctx, project, f.RelativePath, strings.TrimSpace(answer))
		if err != nil {
			return stored, err
		}
		if err := store.SetDescriptionID(ctx, f.ID, id); err != nil {
			return stored, fmt.Errorf("link description for %s: %w", f.RelativePath, err)
		}
		o.logger.Debug("overview.description.stored", "path", f.RelativePath, "description_id", id)
		stored++
	}
	return stored, nil
}
