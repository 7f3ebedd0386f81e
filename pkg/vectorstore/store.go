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

// Package vectorstore stores embeddings of generated documentation and
// source code and answers nearest-neighbour searches over them.
package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the vectors already stored.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("vector store is closed")
)

// Metadata is stored alongside each vector. VectorSource is the text that
// was embedded.
type Metadata struct {
	FilePath     string `json:"file_path"`
	EntityName   string `json:"entity_name"`
	EntityType   string `json:"entity_type"`
	VectorSource string `json:"vector_source"`
}

// Object is one vector to store.
type Object struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Hit is one search result. Score is cosine similarity, higher is closer.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Metadata
}

// Store is a vector index keyed by object id. Upserting an existing id
// replaces it.
type Store interface {
	Upsert(ctx context.Context, id string, vector []float32, md Metadata) error
	UpsertBatch(ctx context.Context, objs []Object) error
	Search(ctx context.Context, vector []float32, limit int) ([]Hit, error)
	Close() error
}
