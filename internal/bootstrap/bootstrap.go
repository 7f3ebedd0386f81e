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

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/repograph/internal/config"
	"github.com/kraklabs/repograph/pkg/descstore"
	"github.com/kraklabs/repograph/pkg/graphstore"
	"github.com/kraklabs/repograph/pkg/llm"
	"github.com/kraklabs/repograph/pkg/query"
	"github.com/kraklabs/repograph/pkg/vectorstore"
)

// ProjectInfo describes an initialized workspace.
type ProjectInfo struct {
	Root       string
	ConfigPath string
	GraphPath  string
	Created    bool
}

// InitProject writes the default configuration under root and creates the
// embedded graph database. It is idempotent: an existing configuration is
// kept unless force is set.
func InitProject(root string, force bool, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	info := &ProjectInfo{Root: absRoot, ConfigPath: config.ConfigPath(absRoot)}
	logger.Info("bootstrap.project.init.start", "root", absRoot)

	_, statErr := os.Stat(info.ConfigPath)
	switch {
	case statErr == nil && !force:
		logger.Debug("bootstrap.config.exists", "path", info.ConfigPath)
	case statErr == nil || errors.Is(statErr, os.ErrNotExist):
		if err := config.Save(info.ConfigPath, config.Default()); err != nil {
			return nil, err
		}
		info.Created = true
	default:
		return nil, fmt.Errorf("stat config: %w", statErr)
	}

	cfg, err := config.Load(info.ConfigPath, false)
	if err != nil {
		return nil, err
	}
	cfg.Resolve(absRoot)

	if cfg.Graph.Backend == config.BackendSQLite {
		store, err := graphstore.OpenSQLite(cfg.Graph.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("create graph store: %w", err)
		}
		_ = store.Close()
		info.GraphPath = cfg.Graph.SQLitePath
	}

	logger.Info("bootstrap.project.init.success",
		"config", info.ConfigPath,
		"graph", info.GraphPath,
		"created", info.Created,
	)
	return info, nil
}

// OpenGraph opens the configured graph store.
func OpenGraph(ctx context.Context, cfg *config.Config, logger *slog.Logger) (graphstore.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Graph.Backend {
	case config.BackendNeo4j:
		logger.Debug("bootstrap.graph.open", "backend", "neo4j", "uri", cfg.Graph.Neo4jURI)
		return graphstore.OpenNeo4j(ctx, graphstore.Neo4jConfig{
			URI:      cfg.Graph.Neo4jURI,
			Username: cfg.Graph.Neo4jUser,
			Password: cfg.Graph.Neo4jPass,
			Database: cfg.Graph.Database,
		})
	case config.BackendSQLite, "":
		logger.Debug("bootstrap.graph.open", "backend", "sqlite", "path", cfg.Graph.SQLitePath)
		return graphstore.OpenSQLite(cfg.Graph.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown graph backend %q", cfg.Graph.Backend)
	}
}

// OpenDescriptions opens the file description store.
func OpenDescriptions(cfg *config.Config) (*descstore.Store, error) {
	return descstore.Open(cfg.Graph.DescriptionsPath)
}

// OpenVectors opens the configured vector store.
func OpenVectors(ctx context.Context, cfg *config.Config, logger *slog.Logger) (vectorstore.Store, error) {
	switch cfg.Vector.Backend {
	case config.VectorWeaviate:
		return vectorstore.OpenWeaviate(ctx, vectorstore.WeaviateConfig{
			URL:    cfg.Vector.URL,
			Class:  cfg.Vector.Class,
			Logger: logger,
		})
	case config.VectorMemory, "":
		return vectorstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

// NewProvider builds the configured text model, rate limited to
// llm.requests_per_second.
func NewProvider(cfg *config.Config) (llm.Provider, error) {
	p, err := llm.NewProvider(llm.ProviderConfig{
		Type:         cfg.LLM.Provider,
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       cfg.LLM.APIKey,
		DefaultModel: cfg.LLM.Model,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewLimitedProvider(p, cfg.LLM.RequestsPerSecond), nil
}

// NewEmbedder builds the configured embedding model under the same rate
// limit as the text model.
func NewEmbedder(cfg *config.Config) (llm.Embedder, error) {
	e, err := llm.NewEmbedder(llm.EmbedderConfig{
		Type:       cfg.Embedding.Provider,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewLimitedEmbedder(e, cfg.LLM.RequestsPerSecond), nil
}

// ListProjects returns the names of the projects stored in the graph.
func ListProjects(ctx context.Context, r query.Runner) ([]string, error) {
	res, err := query.Execute(ctx, r, query.Projects())
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	idx := res.Column("project_name")
	projects := make([]string, 0, len(res.Rows))
	for _, row := range res.Strings() {
		projects = append(projects, row[idx])
	}
	return projects, nil
}
