// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"finance-assistant/pkg/errors"
)

// MemoryStore 内存向量存储实现
type MemoryStore struct {
	collections map[string]*collection
	mu          sync.RWMutex
}

type collection struct {
	dimension int
	records   map[string]Record
}

// NewMemoryStore 创建新的内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*collection),
	}
}

// EnsureCollection 实现 Store
func (s *MemoryStore) EnsureCollection(_ context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		if dimension > 0 && c.dimension > 0 && c.dimension != dimension {
			return fmt.Errorf("collection %s has dimension %d, requested %d", name, c.dimension, dimension)
		}
		return nil
	}
	s.collections[name] = &collection{dimension: dimension, records: make(map[string]Record)}
	return nil
}

// Upsert 实现 Store
func (s *MemoryStore) Upsert(_ context.Context, name string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "collection %s", name)
	}
	for _, r := range records {
		if c.dimension == 0 {
			c.dimension = len(r.Values)
		}
		if len(r.Values) != c.dimension {
			return fmt.Errorf("vector dimension %d does not match collection dimension %d", len(r.Values), c.dimension)
		}
		c.records[r.ID] = r
	}
	return nil
}

// Search 实现 Store；同分按 ID 排序保证结果稳定
func (s *MemoryStore) Search(_ context.Context, name string, query []float64, topK int, threshold float64) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "collection %s", name)
	}
	if c.dimension > 0 && len(query) != c.dimension {
		return nil, fmt.Errorf("query dimension %d does not match collection dimension %d", len(query), c.dimension)
	}
	if topK <= 0 {
		topK = 10
	}

	matches := make([]Match, 0, len(c.records))
	for _, r := range c.records {
		score := cosineSimilarity(query, r.Values)
		if score < threshold {
			continue
		}
		matches = append(matches, Match{Record: r, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count 实现 Store
func (s *MemoryStore) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, errors.Wrapf(errors.ErrNotFound, "collection %s", name)
	}
	return len(c.records), nil
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
