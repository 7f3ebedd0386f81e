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
	"net/url"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// DefaultClass is the Weaviate class used when none is configured.
const DefaultClass = "CodeDocumentation"

var metadataProperties = []string{"file_path", "entity_name", "entity_type", "vector_source"}

// WeaviateConfig configures OpenWeaviate.
type WeaviateConfig struct {
	// URL of the Weaviate server, e.g. http://localhost:8080.
	URL string

	// Class holds the objects; empty selects DefaultClass.
	Class string

	Logger *slog.Logger
}

// WeaviateStore keeps vectors in a Weaviate class with no vectorizer; all
// vectors are supplied by the caller.
type WeaviateStore struct {
	client *weaviate.Client
	class  string
	logger *slog.Logger
}

var _ Store = (*WeaviateStore)(nil)

// OpenWeaviate connects to the server and creates the class if missing.
func OpenWeaviate(ctx context.Context, cfg WeaviateConfig) (*WeaviateStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Class == "" {
		cfg.Class = DefaultClass
	}
	wc, err := clientConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	client, err := weaviate.NewClient(wc)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	s := &WeaviateStore{client: client, class: cfg.Class, logger: cfg.Logger}
	if err := s.ensureClass(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func clientConfig(raw string) (weaviate.Config, error) {
	if raw == "" {
		return weaviate.Config{}, fmt.Errorf("weaviate url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return weaviate.Config{}, fmt.Errorf("parse weaviate url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return weaviate.Config{}, fmt.Errorf("unsupported weaviate scheme %q", u.Scheme)
	}
	return weaviate.Config{Host: u.Host, Scheme: u.Scheme}, nil
}

func classSchema(name string) *models.Class {
	props := make([]*models.Property, 0, len(metadataProperties))
	for _, p := range metadataProperties {
		props = append(props, &models.Property{Name: p, DataType: []string{"text"}})
	}
	return &models.Class{
		Class:       name,
		Description: "Generated documentation and source code of repository entities",
		Vectorizer:  "none",
		Properties:  props,
	}
}

func (s *WeaviateStore) ensureClass(ctx context.Context) error {
	if _, err := s.client.Schema().ClassGetter().WithClassName(s.class).Do(ctx); err == nil {
		s.logger.Debug("vector.schema.exists", "class", s.class)
		return nil
	}
	if err := s.client.Schema().ClassCreator().WithClass(classSchema(s.class)).Do(ctx); err != nil {
		return fmt.Errorf("create weaviate class %s: %w", s.class, err)
	}
	s.logger.Info("vector.schema.created", "class", s.class)
	return nil
}

func (s *WeaviateStore) Upsert(ctx context.Context, id string, vector []float32, md Metadata) error {
	return s.UpsertBatch(ctx, []Object{{ID: id, Vector: vector, Metadata: md}})
}

func (s *WeaviateStore) UpsertBatch(ctx context.Context, objs []Object) error {
	if len(objs) == 0 {
		return nil
	}
	batch := make([]*models.Object, len(objs))
	for i, o := range objs {
		batch[i] = &models.Object{
			Class:  s.class,
			ID:     strfmt.UUID(o.ID),
			Vector: o.Vector,
			Properties: map[string]any{
				"file_path":     o.Metadata.FilePath,
				"entity_name":   o.Metadata.EntityName,
				"entity_type":   o.Metadata.EntityType,
				"vector_source": o.Metadata.VectorSource,
			},
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(batch...).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate batch import: %w", err)
	}

	failed := 0
	var first string
	for _, item := range resp {
		if item.Result == nil || item.Result.Errors == nil || len(item.Result.Errors.Error) == 0 {
			continue
		}
		failed++
		if first == "" {
			first = item.Result.Errors.Error[0].Message
		}
		s.logger.Warn("vector.batch.item_failed",
			"id", item.ID,
			"err", item.Result.Errors.Error[0].Message,
		)
	}
	if failed > 0 {
		return fmt.Errorf("weaviate batch import: %d of %d objects failed: %s", failed, len(objs), first)
	}
	return nil
}

func (s *WeaviateStore) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		return []Hit{}, nil
	}
	fields := make([]graphql.Field, 0, len(metadataProperties)+1)
	for _, p := range metadataProperties {
		fields = append(fields, graphql.Field{Name: p})
	}
	fields = append(fields, graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}})

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	result, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search: %s", result.Errors[0].Message)
	}
	return parseHits(result.Data, s.class), nil
}

// parseHits reads Get.<class>[] from a GraphQL answer. Distance is cosine
// distance, so the score is 1 - distance.
func parseHits(data map[string]models.JSONObject, class string) []Hit {
	hits := []Hit{}
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return hits
	}
	objects, ok := get[class].([]any)
	if !ok {
		return hits
	}
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		h := Hit{Metadata: Metadata{
			FilePath:     stringField(m, "file_path"),
			EntityName:   stringField(m, "entity_name"),
			EntityType:   stringField(m, "entity_type"),
			VectorSource: stringField(m, "vector_source"),
		}}
		if add, ok := m["_additional"].(map[string]any); ok {
			h.ID = stringField(add, "id")
			if d, ok := add["distance"].(float64); ok {
				h.Score = 1 - d
			}
		}
		hits = append(hits, h)
	}
	return hits
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// Close releases nothing; the client holds no persistent connection.
func (s *WeaviateStore) Close() error { return nil }
