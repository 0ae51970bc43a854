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
	"context"
	"io"
)

// Store 报告文件存储接口；path 为相对键，如 "report-xxx.pdf"
type Store interface {
	// Put 写入对象
	Put(ctx context.Context, path string, data io.Reader, size int64, metadata map[string]string) error
	// Get 读取对象，不存在时返回 errors.ErrNotFound
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete 删除对象
	Delete(ctx context.Context, path string) error
	// List 列出前缀匹配的对象，按路径排序
	List(ctx context.Context, prefix string) ([]*ObjectInfo, error)
	// Exists 检查对象是否存在
	Exists(ctx context.Context, path string) (bool, error)
	// Close 关闭存储
	Close() error
}

// ObjectInfo 对象信息
type ObjectInfo struct {
	Path      string            `json:"path"`
	Size      int64             `json:"size"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt int64             `json:"created_at"`
}
