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
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
)

var (
	// validGitURLPattern matches https, ssh, scp-style and file remotes.
	validGitURLPattern = regexp.MustCompile(`^(https?://|git@|ssh://|file://)[\w.\-@:/%~]+$`)

	// dangerousCharsPattern matches shell metacharacters.
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\]`)
)

// LoadedRepo is a repository ready to be walked.
type LoadedRepo struct {
	// Source is the input as given (path or URL).
	Source string

	// Root is the absolute local directory.
	Root string

	// Cloned is set when Root is a temporary clone owned by the loader.
	Cloned bool

	tempDir string
}

// RepoLoader turns a local path or git URL into a local directory.
// Clones live in temp directories until Release or Close.
type RepoLoader struct {
	logger     *slog.Logger
	cloneDepth int
	tempDirs   map[string]struct{}
	tempDirsMu sync.Mutex
}

// NewRepoLoader creates a loader. cloneDepth <= 0 clones full history.
func NewRepoLoader(logger *slog.Logger, cloneDepth int) *RepoLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoLoader{
		logger:     logger,
		cloneDepth: cloneDepth,
		tempDirs:   make(map[string]struct{}),
	}
}

// Resolve returns a local directory for source.
func (rl *RepoLoader) Resolve(ctx context.Context, source string) (*LoadedRepo, error) {
	if isRemote(source) {
		tmpDir, root, err := rl.cloneGitRepo(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("clone git repo: %w", err)
		}
		return &LoadedRepo{Source: source, Root: root, Cloned: true, tempDir: tmpDir}, nil
	}

	root, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("resolve local path: %w", err)
	}
	if err := validateLocalPath(root); err != nil {
		return nil, fmt.Errorf("invalid local path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local path is not a directory: %s", root)
	}
	return &LoadedRepo{Source: source, Root: root}, nil
}

// Release removes the temporary clone behind repo, if any.
func (rl *RepoLoader) Release(repo *LoadedRepo) {
	if repo == nil || !repo.Cloned {
		return
	}
	rl.tempDirsMu.Lock()
	delete(rl.tempDirs, repo.tempDir)
	rl.tempDirsMu.Unlock()

	if err := os.RemoveAll(repo.tempDir); err != nil {
		rl.logger.Warn("repo.cleanup.error", "dir", repo.tempDir, "err", err)
	}
}

// Close removes every clone not yet released.
func (rl *RepoLoader) Close() error {
	rl.tempDirsMu.Lock()
	defer rl.tempDirsMu.Unlock()

	var lastErr error
	for dir := range rl.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			rl.logger.Warn("repo.cleanup.error", "dir", dir, "err", err)
			lastErr = err
		}
	}
	rl.tempDirs = make(map[string]struct{})
	return lastErr
}

// validateGitURL rejects malformed remotes, shell metacharacters and
// embedded passwords.
func validateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("git URL is empty")
	}
	if dangerousCharsPattern.MatchString(gitURL) {
		return fmt.Errorf("git URL contains dangerous characters")
	}

	switch {
	case strings.HasPrefix(gitURL, "http://"), strings.HasPrefix(gitURL, "https://"):
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("git URL missing host")
		}
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return fmt.Errorf("git URL should not contain embedded password")
			}
		}
		return nil
	case strings.HasPrefix(gitURL, "git@"), strings.HasPrefix(gitURL, "ssh://"):
		if !validGitURLPattern.MatchString(gitURL) {
			return fmt.Errorf("invalid SSH git URL format")
		}
		return nil
	case strings.HasPrefix(gitURL, "file://"):
		return nil
	}
	return fmt.Errorf("unsupported git URL protocol: must be https://, git@, ssh://, or file://")
}

// redactURL hides credentials and query strings for logging.
func redactURL(gitURL string) string {
	parsed, err := url.Parse(gitURL)
	if err != nil || parsed.Scheme == "" {
		return gitURL
	}
	parsed.RawQuery = ""
	if parsed.User != nil {
		parsed.User = url.User("***")
	}
	return parsed.String()
}

// cloneGitRepo clones gitURL into <temp>/<repository name> so the walked
// root carries the repository's own name. It returns the temp directory
// and the clone root.
func (rl *RepoLoader) cloneGitRepo(ctx context.Context, gitURL string) (string, string, error) {
	if err := validateGitURL(gitURL); err != nil {
		return "", "", fmt.Errorf("invalid git URL: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "repograph-clone-*")
	if err != nil {
		return "", "", fmt.Errorf("create temp dir: %w", err)
	}
	root := filepath.Join(tmpDir, cloneDirName(gitURL))

	logURL := redactURL(gitURL)
	rl.logger.Info("repo.clone.start", "url", logURL, "dir", root, "depth", rl.cloneDepth)

	opts := &git.CloneOptions{URL: gitURL}
	if rl.cloneDepth > 0 {
		opts.Depth = rl.cloneDepth
	}
	if _, err := git.PlainCloneContext(ctx, root, false, opts); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", logURL, err)
	}

	rl.logger.Info("repo.clone.success", "url", logURL, "dir", root)

	rl.tempDirsMu.Lock()
	rl.tempDirs[tmpDir] = struct{}{}
	rl.tempDirsMu.Unlock()
	return tmpDir, root, nil
}

// cloneDirName is the repository name derived from gitURL, or "repo" when
// the URL yields nothing usable as a directory name.
func cloneDirName(gitURL string) string {
	name := DeriveProjectName(gitURL, "")
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, pathSeparators+":") {
		return "repo"
	}
	return name
}

// validateLocalPath rejects the filesystem root and kernel pseudo
// filesystems.
func validateLocalPath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path did not resolve to absolute path: %s", path)
	}
	if filepath.Clean(path) != path {
		return fmt.Errorf("path is not clean: %s", path)
	}
	if path == string(filepath.Separator) {
		return fmt.Errorf("refusing to ingest the filesystem root")
	}
	for _, pseudo := range []string{"/proc", "/sys", "/dev"} {
		if path == pseudo || strings.HasPrefix(path, pseudo+"/") {
			return fmt.Errorf("path is in system directory: %s", path)
		}
	}
	return nil
}
