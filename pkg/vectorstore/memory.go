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
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store using exhaustive cosine similarity.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	dim     int
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (s *MemoryStore) Upsert(ctx context.Context, id string, vector []float32, md Metadata) error {
	return s.UpsertBatch(ctx, []Object{{ID: id, Vector: vector, Metadata: md}})
}

func (s *MemoryStore) UpsertBatch(ctx context.Context, objs []Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	dim := s.dim
	for _, o := range objs {
		if dim == 0 {
			dim = len(o.Vector)
		}
		if len(o.Vector) != dim || dim == 0 {
			return fmt.Errorf("%w: object %s has %d, want %d", ErrDimensionMismatch, o.ID, len(o.Vector), dim)
		}
	}
	s.dim = dim
	for _, o := range objs {
		o.Vector = append([]float32(nil), o.Vector...)
		s.objects[o.ID] = o
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if len(s.objects) == 0 || limit <= 0 {
		return []Hit{}, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(vector), s.dim)
	}

	hits := make([]Hit, 0, len(s.objects))
	for id, o := range s.objects {
		hits = append(hits, Hit{ID: id, Score: cosine(vector, o.Vector), Metadata: o.Metadata})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
