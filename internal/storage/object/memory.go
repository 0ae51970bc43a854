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

package object

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"finance-assistant/pkg/errors"
)

// MemoryStore 内存对象存储实现
type MemoryStore struct {
	objects map[string]*object
	mu      sync.RWMutex
}

type object struct {
	data      []byte
	metadata  map[string]string
	createdAt int64
}

// NewMemoryStore 创建新的内存对象存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*object),
	}
}

// Put 写入对象
func (s *MemoryStore) Put(ctx context.Context, path string, data io.Reader, size int64, metadata map[string]string) error {
	key, err := CleanKey(path)
	if err != nil {
		return err
	}
	buffer := &bytes.Buffer{}
	if size > 0 {
		buffer.Grow(int(size))
	}
	if _, err := io.Copy(buffer, data); err != nil {
		return errors.Wrap(err, "read object data")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = &object{
		data:      buffer.Bytes(),
		metadata:  metadata,
		createdAt: time.Now().Unix(),
	}
	return nil
}

// Get 读取对象
func (s *MemoryStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	key, err := CleanKey(path)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, errors.Wrapf(errors.ErrNotFound, "object %s", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete 删除对象
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	key, err := CleanKey(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; !exists {
		return errors.Wrapf(errors.ErrNotFound, "object %s", key)
	}
	delete(s.objects, key)
	return nil
}

// List 列出对象
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]*ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*ObjectInfo, 0, len(s.objects))
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		results = append(results, &ObjectInfo{
			Path:      key,
			Size:      int64(len(obj.data)),
			Metadata:  obj.metadata,
			CreatedAt: obj.createdAt,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// Exists 检查对象是否存在
func (s *MemoryStore) Exists(ctx context.Context, path string) (bool, error) {
	key, err := CleanKey(path)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.objects[key]
	return exists, nil
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}
