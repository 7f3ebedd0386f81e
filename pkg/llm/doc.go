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

// Package llm provides a unified interface for the language and embedding
// models used by documentation, triage and semantic search.
//
// # Supported Providers
//
//   - Ollama: local models, no API key required (default)
//   - OpenAI: OpenAI and any OpenAI-compatible endpoint, via go-openai
//   - Mock: deterministic answers for tests
//
// Embedders follow the same split, with a hash-based embedder standing in
// for a real model in tests.
//
// # Quick Start
//
//	provider, err := llm.NewProvider(llm.ProviderConfig{
//	    Type:         "ollama",
//	    DefaultModel: "llama3",
//	})
//	if err != nil {
//	    return err
//	}
//	provider = llm.NewLimitedProvider(provider, 2)
//
//	text, err := llm.GenerateText(ctx, provider, llm.GenerateRequest{
//	    Prompt: "Describe this function: ...",
//	})
//
// # JSON Answers
//
// Setting GenerateRequest.JSON asks the backend for a JSON object (Ollama
// "format": "json", OpenAI response_format json_object). Answers are still
// parsed leniently with [DecodeJSONAnswer], which takes the first balanced
// object in the text.
//
// # Rate Limiting
//
// [NewLimitedProvider] and [NewLimitedEmbedder] space calls with a token
// bucket and record call counts, latency and token usage in Prometheus.
// Nothing is retried: a failed call is returned to the caller, which logs
// it and moves on to the next item.
package llm
