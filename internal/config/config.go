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

// Package config loads and saves .repograph/project.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-repository configuration directory.
	DirName = ".repograph"
	// FileName is the configuration file inside DirName.
	FileName = "project.yaml"
)

// Graph backends.
const (
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
)

// Vector backends.
const (
	VectorMemory   = "memory"
	VectorWeaviate = "weaviate"
)

// Config is the on-disk project configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Graph     GraphConfig     `yaml:"graph"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Docgen    DocgenConfig    `yaml:"docgen"`
}

// GraphConfig selects and configures the graph store.
type GraphConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
	Neo4jURI   string `yaml:"neo4j_uri"`
	Neo4jUser  string `yaml:"neo4j_user"`
	Neo4jPass  string `yaml:"neo4j_password"`
	Database   string `yaml:"database,omitempty"`

	// DescriptionsPath is the SQLite file holding generated file descriptions.
	DescriptionsPath string `yaml:"descriptions_path"`
}

// IngestionConfig tunes the tree walk.
type IngestionConfig struct {
	Exclude      []string `yaml:"exclude,omitempty"`
	LinkSiblings bool     `yaml:"link_siblings"`
	CloneDepth   int      `yaml:"clone_depth"`
}

// LLMConfig configures the text generation provider.
type LLMConfig struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"api_key,omitempty"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key,omitempty"`
	Dimensions int    `yaml:"dimensions"`
}

// VectorConfig selects the vector store.
type VectorConfig struct {
	Backend string `yaml:"backend"`
	URL     string `yaml:"url"`
	Class   string `yaml:"class"`
}

// DocgenConfig configures documentation generation.
type DocgenConfig struct {
	ProjectBrief    string `yaml:"project_brief"`
	MaxRelatedBytes int    `yaml:"max_related_bytes"`
	IncludeCode     bool   `yaml:"include_code"`
}

// Default returns the configuration written by `repograph init`: an
// embedded SQLite graph under .repograph/, a local Ollama model and an
// in-memory vector store.
func Default() *Config {
	return &Config{
		Version: "1",
		Graph: GraphConfig{
			Backend:          BackendSQLite,
			SQLitePath:       filepath.Join(DirName, "graph.db"),
			Neo4jURI:         "bolt://localhost:7687",
			Neo4jUser:        "neo4j",
			DescriptionsPath: filepath.Join(DirName, "descriptions.db"),
		},
		Ingestion: IngestionConfig{CloneDepth: 1},
		LLM: LLMConfig{
			Provider:          "ollama",
			BaseURL:           "http://localhost:11434",
			Model:             "llama3",
			Temperature:       0.2,
			MaxTokens:         1024,
			RequestsPerSecond: 2,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		Vector: VectorConfig{
			Backend: VectorMemory,
			URL:     "http://localhost:8080",
			Class:   "CodeDocumentation",
		},
		Docgen: DocgenConfig{MaxRelatedBytes: 6000, IncludeCode: true},
	}
}

// ConfigDir returns <root>/.repograph.
func ConfigDir(root string) string {
	return filepath.Join(root, DirName)
}

// ConfigPath returns <root>/.repograph/project.yaml.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), FileName)
}

// Load reads the file at path over the defaults and applies environment
// overrides. A missing file is not an error when allowMissing is set; the
// defaults are returned instead.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && allowMissing:
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides connection settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Graph.Neo4jURI, "NEO4J_URI")
	set(&c.Graph.Neo4jUser, "NEO4J_USERNAME")
	set(&c.Graph.Neo4jPass, "NEO4J_PASSWORD")
	set(&c.Vector.URL, "WEAVIATE_URL")

	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		if c.LLM.Provider == "openai" {
			c.LLM.APIKey = v
		}
		if c.Embedding.Provider == "openai" {
			c.Embedding.APIKey = v
		}
	}
	if v, ok := lookup("OPENAI_BASE_URL"); ok && v != "" && c.LLM.Provider == "openai" {
		c.LLM.BaseURL = v
	}
	if v, ok := lookup("OLLAMA_HOST"); ok && v != "" {
		if c.LLM.Provider == "ollama" {
			c.LLM.BaseURL = v
		}
		if c.Embedding.Provider == "ollama" {
			c.Embedding.BaseURL = v
		}
	}
	if v, ok := lookup("REPOGRAPH_LLM_RPS"); ok {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			c.LLM.RequestsPerSecond = rps
		}
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Graph.Backend {
	case BackendSQLite, BackendNeo4j:
	default:
		return fmt.Errorf("graph.backend: unknown backend %q (want sqlite or neo4j)", c.Graph.Backend)
	}
	switch c.Vector.Backend {
	case VectorMemory, VectorWeaviate:
	default:
		return fmt.Errorf("vector.backend: unknown backend %q (want memory or weaviate)", c.Vector.Backend)
	}
	if c.Docgen.MaxRelatedBytes < 0 {
		return fmt.Errorf("docgen.max_related_bytes must not be negative")
	}
	return nil
}

// Resolve makes relative store paths absolute against root.
func (c *Config) Resolve(root string) {
	if c.Graph.SQLitePath != "" && !filepath.IsAbs(c.Graph.SQLitePath) {
		c.Graph.SQLitePath = filepath.Join(root, c.Graph.SQLitePath)
	}
	if c.Graph.DescriptionsPath != "" && !filepath.IsAbs(c.Graph.DescriptionsPath) {
		c.Graph.DescriptionsPath = filepath.Join(root, c.Graph.DescriptionsPath)
	}
}
