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

package metadata

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"finance-assistant/pkg/errors"
)

// MemoryStore 内存报告目录实现
type MemoryStore struct {
	records map[string]*ReportRecord
	mu      sync.RWMutex
}

// NewMemoryStore 创建新的内存报告目录
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*ReportRecord),
	}
}

// Create 写入报告记录
func (s *MemoryStore) Create(ctx context.Context, rec *ReportRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.Wrap(errors.ErrInvalidArg, "report record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return errors.Wrapf(errors.ErrInvalidArg, "report %s already exists", rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

// Get 根据 ID 获取报告记录
func (s *MemoryStore) Get(ctx context.Context, id string) (*ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, errors.Wrapf(errors.ErrNotFound, "report %s", id)
	}
	cp := *rec
	return &cp, nil
}

// Delete 根据 ID 删除报告记录
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return errors.Wrapf(errors.ErrNotFound, "report %s", id)
	}
	delete(s.records, id)
	return nil
}

// List 按创建时间倒序列出报告记录
func (s *MemoryStore) List(ctx context.Context, filter *Filter, pagination *Pagination) ([]*ReportRecord, error) {
	s.mu.RLock()
	results := make([]*ReportRecord, 0, len(s.records))
	for _, rec := range s.records {
		if !filter.match(rec) {
			continue
		}
		cp := *rec
		results = append(results, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if pagination != nil {
		start := pagination.Offset
		if start >= len(results) {
			return []*ReportRecord{}, nil
		}
		end := len(results)
		if pagination.Limit > 0 && start+pagination.Limit < end {
			end = start + pagination.Limit
		}
		results = results[start:end]
	}
	return results, nil
}

// Count 统计报告数量
func (s *MemoryStore) Count(ctx context.Context, filter *Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, rec := range s.records {
		if filter.match(rec) {
			count++
		}
	}
	return count, nil
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}

func (f *Filter) match(rec *ReportRecord) bool {
	if f == nil || f.Company == "" {
		return true
	}
	return strings.EqualFold(f.Company, rec.Company)
}
