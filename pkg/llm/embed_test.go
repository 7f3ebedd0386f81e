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
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(32)
	vecs, err := e.Embed(context.Background(), []string{
		"parse the config file",
		"Parse the CONFIG file",
		"render html templates",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 4)

	assert.Len(t, vecs[0], 32)
	assert.Equal(t, vecs[0], vecs[1], "case-insensitive and deterministic")
	assert.InDelta(t, 1.0, cosine(vecs[0], vecs[1]), 1e-6)
	assert.Less(t, cosine(vecs[0], vecs[2]), 0.99)
	for _, x := range vecs[3] {
		assert.Zero(t, x)
	}
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(EmbedderConfig{Type: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", e.Name())

	_, err = NewEmbedder(EmbedderConfig{Type: "ollama"})
	assert.ErrorIs(t, err, ErrNoModel)

	_, err = NewEmbedder(EmbedderConfig{Type: "cohere"})
	assert.Error(t, err)
}

func TestOllamaEmbedder_WithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		out := make([][]float32, len(req.Input))
		for i := range req.Input {
			out[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}))
	defer server.Close()

	e, err := NewEmbedder(EmbedderConfig{Type: "ollama", BaseURL: server.URL, Model: "nomic-embed-text"})
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, vecs)
}

func TestOpenAIEmbedder_OrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.5, 0.5]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"model": "text-embedding-3-small"
		}`))
	}))
	defer server.Close()

	e, err := NewEmbedder(EmbedderConfig{Type: "openai", BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0.5, 0.5}}, vecs)
}

func TestOpenAIEmbedder_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object": "list", "data": [{"index": 0, "embedding": [1]}]}`))
	}))
	defer server.Close()

	e, err := NewEmbedder(EmbedderConfig{Type: "openai", BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmbeddingCount)
}

func TestLimitedEmbedder(t *testing.T) {
	e := NewLimitedEmbedder(NewHashEmbedder(8), 0)
	vecs, err := e.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, "mock", e.Name())
}
