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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CompletedRepo records one successfully ingested batch entry.
type CompletedRepo struct {
	ProjectName string `json:"project_name"`
	RunID       string `json:"run_id"`
	Directories int    `json:"directories"`
	Files       int    `json:"files"`
	CompletedAt string `json:"completed_at"`
}

// BatchCheckpoint remembers which batch entries already finished so an
// interrupted batch can be re-run without duplicating graphs.
type BatchCheckpoint struct {
	path string

	mu        sync.Mutex
	Completed map[string]CompletedRepo `json:"completed"`
	StartTime string                   `json:"start_time"`
	UpdatedAt string                   `json:"last_update_time"`
}

// LoadBatchCheckpoint reads path, returning an empty checkpoint if the file
// does not exist yet.
func LoadBatchCheckpoint(path string) (*BatchCheckpoint, error) {
	cp := &BatchCheckpoint{
		path:      path,
		Completed: map[string]CompletedRepo{},
		StartTime: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	if cp.Completed == nil {
		cp.Completed = map[string]CompletedRepo{}
	}
	return cp, nil
}

func checkpointKey(spec RepoSpec) string {
	return spec.Label + "\x00" + spec.Source
}

// Done reports whether spec already completed.
func (c *BatchCheckpoint) Done(spec RepoSpec) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.Completed[checkpointKey(spec)]
	return ok
}

// MarkDone records res for spec and persists the checkpoint.
func (c *BatchCheckpoint) MarkDone(spec RepoSpec, res *IngestionResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Completed[checkpointKey(spec)] = CompletedRepo{
		ProjectName: res.ProjectName,
		RunID:       res.RunID,
		Directories: res.Directories,
		Files:       res.Files,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return c.saveLocked()
}

// Clear deletes the checkpoint file.
func (c *BatchCheckpoint) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Completed = map[string]CompletedRepo{}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

// saveLocked writes through a temp file and rename.
func (c *BatchCheckpoint) saveLocked() error {
	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(c.path), 0o750); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint temp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}
