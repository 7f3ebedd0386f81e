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

package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kraklabs/repograph/pkg/docgen"
	"github.com/kraklabs/repograph/pkg/llm"
)

// Vector sources indexed per record.
const (
	SourceDocumentation = "documentation"
	SourceCode          = "code"
)

// objectNamespace derives stable object ids so re-indexing a record
// replaces its vectors.
var objectNamespace = uuid.MustParse("6f1d2a8e-4c1b-5e7a-9d3c-2b8f0e6a4d51")

// ObjectID returns the id of one record's vector for source.
func ObjectID(rec docgen.Record, source string) string {
	key := strings.Join([]string{rec.FilePath, rec.EntityType, rec.EntityName, source}, "\x00")
	return uuid.NewSHA1(objectNamespace, []byte(key)).String()
}

// Indexer embeds documentation records and stores their vectors.
type Indexer struct {
	store     Store
	embedder  llm.Embedder
	batchSize int
	logger    *slog.Logger
}

// NewIndexer returns an Indexer writing batches of batchSize texts (<= 0
// selects 32).
func NewIndexer(store Store, embedder llm.Embedder, batchSize int, logger *slog.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, embedder: embedder, batchSize: batchSize, logger: logger}
}

type pending struct {
	id   string
	text string
	md   Metadata
}

// Index stores one vector for each record's documentation and one for its
// code when the record carries code. It returns the number of vectors
// written.
func (ix *Indexer) Index(ctx context.Context, recs []docgen.Record) (int, error) {
	var items []pending
	for _, r := range recs {
		md := Metadata{FilePath: r.FilePath, EntityName: r.EntityName, EntityType: r.EntityType}
		if strings.TrimSpace(r.Documentation) != "" {
			m := md
			m.VectorSource = r.Documentation
			items = append(items, pending{id: ObjectID(r, SourceDocumentation), text: r.Documentation, md: m})
		}
		if strings.TrimSpace(r.Code) != "" {
			m := md
			m.VectorSource = r.Code
			items = append(items, pending{id: ObjectID(r, SourceCode), text: r.Code, md: m})
		}
	}

	written := 0
	for start := 0; start < len(items); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		texts := make([]string, len(chunk))
		for i, it := range chunk {
			texts[i] = it.text
		}
		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(chunk) {
			return written, fmt.Errorf("embed batch at %d: %w", start, llm.ErrEmbeddingCount)
		}

		objs := make([]Object, len(chunk))
		for i, it := range chunk {
			objs[i] = Object{ID: it.id, Vector: vectors[i], Metadata: it.md}
		}
		if err := ix.store.UpsertBatch(ctx, objs); err != nil {
			return written, err
		}
		written += len(objs)
		ix.logger.Debug("vector.batch.stored", "count", len(objs), "total", written)
	}

	ix.logger.Info("vector.index.complete", "records", len(recs), "vectors", written)
	return written, nil
}

// Search embeds text and returns the nearest stored vectors.
func (ix *Indexer) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	vectors, err := ix.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: %w", llm.ErrEmbeddingCount)
	}
	return ix.store.Search(ctx, vectors[0], limit)
}
