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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/repograph/pkg/graphstore"
)

// ErrMissingParent means a directory or file was reached before its parent
// directory node existed. The walker's ordering rules this out; seeing it
// indicates a bug.
var ErrMissingParent = errors.New("parent directory not ingested")

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// Exclude is the directory exclusion set. Nil selects DefaultExcludeDirs.
	Exclude ExcludeSet

	// IgnorePatterns overrides reading <root>/.gitignore when non-nil.
	IgnorePatterns []string

	// LinkSiblings adds SAME_DIRECTORY edges after the tree is written.
	LinkSiblings bool

	// CloneDepth limits git clones; <= 0 clones full history.
	CloneDepth int

	// NewID overrides node id generation.
	NewID IDFunc

	// OnProgress is called after each node is written with the number of
	// nodes written so far and the total.
	OnProgress func(done, total int)
}

// Pipeline writes repository trees into a graph store.
type Pipeline struct {
	store   graphstore.Store
	loader  *RepoLoader
	builder NodeBuilder
	opts    PipelineOptions
	logger  *slog.Logger
}

// IngestionResult summarizes one repository run.
type IngestionResult struct {
	// ProjectName tags every node written by the run.
	ProjectName string `json:"project_name"`

	// RunID identifies this run in logs.
	RunID string `json:"run_id"`

	// RootPath is the local directory that was walked.
	RootPath string `json:"root_path"`

	Directories   int   `json:"directories"`
	Files         int   `json:"files"`
	ContainsEdges int   `json:"contains_edges"`
	SiblingEdges  int64 `json:"sibling_edges"`

	// SkipReasons counts pruned paths by reason.
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`

	ScanDuration  time.Duration `json:"scan_duration"`
	WriteDuration time.Duration `json:"write_duration"`
	TotalDuration time.Duration `json:"total_duration"`
}

// NewPipeline creates a pipeline over store. The store is owned by the
// caller; Close only releases clones.
func NewPipeline(store graphstore.Store, opts PipelineOptions, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:   store,
		loader:  NewRepoLoader(logger, opts.CloneDepth),
		builder: NodeBuilder{NewID: opts.NewID},
		opts:    opts,
		logger:  logger,
	}
}

// Close removes any temporary clones.
func (p *Pipeline) Close() error {
	return p.loader.Close()
}

// IngestRepository walks source (a local path or git URL) and writes its
// Directory and File nodes and CONTAINS edges. The project name is
// repoLabel when set, otherwise derived from the URL for remotes and from
// the resolved absolute directory for local paths, so "." and ".." name
// the repository itself. A failure part-way leaves the nodes written so
// far in place.
func (p *Pipeline) IngestRepository(ctx context.Context, source, repoLabel string) (*IngestionResult, error) {
	start := time.Now()
	repo, err := p.loader.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	defer p.loader.Release(repo)

	nameInput := source
	if !repo.Cloned {
		nameInput = repo.Root
	}
	projectName := DeriveProjectName(nameInput, repoLabel)
	runID := uuid.NewString()
	logger := p.logger.With("project", projectName, "run_id", runID)

	logger.Info("ingest.start", "root", repo.Root, "cloned", repo.Cloned)

	scanStart := time.Now()
	scan, err := ScanDirectory(repo.Root, ScanOptions{
		Exclude:        p.opts.Exclude,
		IgnorePatterns: p.opts.IgnorePatterns,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", repo.Root, err)
	}
	scanDuration := time.Since(scanStart)
	recordSkips(scan.SkipReasons)
	logger.Info("ingest.scan.complete",
		"directories", len(scan.Directories),
		"files", len(scan.Files),
		"skipped", scan.SkipReasons,
		"duration", scanDuration,
	)

	result := &IngestionResult{
		ProjectName:  projectName,
		RunID:        runID,
		RootPath:     repo.Root,
		SkipReasons:  scan.SkipReasons,
		ScanDuration: scanDuration,
	}

	writeStart := time.Now()
	if err := p.writeTree(ctx, logger, scan, projectName, result); err != nil {
		return result, err
	}

	if p.opts.LinkSiblings {
		n, err := p.store.LinkSiblings(ctx, projectName)
		if err != nil {
			return result, fmt.Errorf("link siblings: %w", err)
		}
		result.SiblingEdges = n
		recordSiblingEdges(n)
		logger.Info("ingest.siblings.linked", "edges", n)
	}

	result.WriteDuration = time.Since(writeStart)
	result.TotalDuration = time.Since(start)
	recordDurations(result.ScanDuration, result.WriteDuration, result.TotalDuration)

	logger.Info("ingest.complete",
		"directories", result.Directories,
		"files", result.Files,
		"contains_edges", result.ContainsEdges,
		"sibling_edges", result.SiblingEdges,
		"duration", result.TotalDuration,
	)
	return result, nil
}

// writeTree creates the root first, then directories and files in scan
// order, resolving each parent through the path -> id map.
func (p *Pipeline) writeTree(ctx context.Context, logger *slog.Logger, scan *ScanResult, projectName string, result *IngestionResult) error {
	root := scan.Root
	total := len(scan.Directories) + len(scan.Files)
	done := 0
	progress := func() {
		done++
		if p.opts.OnProgress != nil {
			p.opts.OnProgress(done, total)
		}
	}

	ids := make(map[string]string, len(scan.Directories))
	levels := make(map[string]int, len(scan.Directories))

	rootNode := p.builder.Directory(root, root, 0, projectName)
	if err := p.store.CreateNode(ctx, rootNode); err != nil {
		return fmt.Errorf("create root node: %w", err)
	}
	ids[root] = rootNode.ID
	levels[root] = 0
	result.Directories++
	recordDirectoryCreated()
	progress()

	for _, dir := range scan.Directories[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		parentID, ok := ids[filepath.Dir(dir)]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingParent, relativePath(dir, root))
		}
		level := directoryLevel(relativePath(dir, root))
		node := p.builder.Directory(dir, root, level, projectName)
		if err := p.addChild(ctx, parentID, node); err != nil {
			return err
		}
		ids[dir] = node.ID
		levels[dir] = level
		result.Directories++
		result.ContainsEdges++
		recordDirectoryCreated()
		logger.Debug("ingest.dir.created", "path", node.RelativePath, "level", level)
		progress()
	}

	for _, file := range scan.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		parent := filepath.Dir(file)
		parentID, ok := ids[parent]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingParent, relativePath(file, root))
		}
		node := p.builder.File(file, root, levels[parent], projectName)
		if err := p.addChild(ctx, parentID, node); err != nil {
			return err
		}
		result.Files++
		result.ContainsEdges++
		recordFileCreated()
		progress()
	}
	return nil
}

func (p *Pipeline) addChild(ctx context.Context, parentID string, node graphstore.Node) error {
	if err := p.store.CreateNode(ctx, node); err != nil {
		return fmt.Errorf("create %s node %s: %w", node.Label, node.RelativePath, err)
	}
	if err := p.store.CreateRelationship(ctx, parentID, graphstore.RelContains, node.ID); err != nil {
		return fmt.Errorf("link %s: %w", node.RelativePath, err)
	}
	recordContainsEdge()
	return nil
}
