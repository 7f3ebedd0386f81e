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

package llm

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrEmbeddingCount is returned when a backend answers with a different
// number of vectors than texts sent.
var ErrEmbeddingCount = errors.New("embedding count mismatch")

// Embedder turns texts into vectors, one per text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// EmbedderConfig holds configuration for creating embedders.
type EmbedderConfig struct {
	// Type: "ollama", "openai", "mock"
	Type       string
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// NewEmbedder creates an Embedder based on configuration.
func NewEmbedder(cfg EmbedderConfig) (Embedder, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	switch strings.ToLower(cfg.Type) {
	case "ollama", "local", "":
		base := cfg.BaseURL
		if base == "" {
			base = defaultOllamaURL
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("ollama embedder: %w", ErrNoModel)
		}
		return &ollamaEmbedder{
			baseURL: strings.TrimSuffix(base, "/"),
			model:   cfg.Model,
			client:  httpClient(cfg.Timeout),
		}, nil
	case "openai", "openai-compatible":
		model := cfg.Model
		if model == "" {
			model = string(openai.SmallEmbedding3)
		}
		return &openaiEmbedder{
			client: newOpenAIClient(ProviderConfig{
				BaseURL: cfg.BaseURL,
				APIKey:  cfg.APIKey,
				Timeout: cfg.Timeout,
			}),
			model:      model,
			dimensions: cfg.Dimensions,
		}, nil
	case "mock", "test", "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider type: %s (supported: ollama, openai, mock)", cfg.Type)
	}
}

// =============================================================================
// OPENAI EMBEDDINGS
// =============================================================================

type openaiEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

func (e *openaiEmbedder) Name() string { return "openai" }

func (e *openaiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: %w: sent %d, got %d", ErrEmbeddingCount, len(texts), len(resp.Data))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// =============================================================================
// OLLAMA EMBEDDINGS
// =============================================================================

type ollamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

func (e *ollamaEmbedder) Name() string { return "ollama" }

func (e *ollamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var result struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	payload := map[string]any{"model": e.model, "input": texts}
	if err := ollamaCall(ctx, e.client, http.MethodPost, e.baseURL+"/api/embed", payload, &result); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: %w: sent %d, got %d", ErrEmbeddingCount, len(texts), len(result.Embeddings))
	}
	return result.Embeddings, nil
}

// =============================================================================
// HASH EMBEDDINGS (for testing)
// =============================================================================

// HashEmbedder is a deterministic offline embedder. Each lower-cased word
// is hashed into one of Dimensions buckets and the vector is normalised, so
// texts sharing words score higher under cosine similarity.
type HashEmbedder struct {
	Dimensions int
}

// NewHashEmbedder returns a HashEmbedder; dims <= 0 selects 64.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 64
	}
	return &HashEmbedder{Dimensions: dims}
}

func (e *HashEmbedder) Name() string { return "mock" }

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, e.Dimensions)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		v[h.Sum32()%uint32(e.Dimensions)]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}
