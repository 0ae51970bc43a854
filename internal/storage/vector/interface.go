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
)

// Record 一条带向量的文档
type Record struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Values   []float64         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Match 检索命中，Score 为余弦相似度
type Match struct {
	Record
	Score float64 `json:"score"`
}

// Store 向量存储接口
type Store interface {
	// EnsureCollection 集合不存在时创建；dimension 为 0 时以首次写入的向量维度为准
	EnsureCollection(ctx context.Context, name string, dimension int) error
	// Upsert 按 ID 覆盖写入
	Upsert(ctx context.Context, collection string, records []Record) error
	// Search 返回得分不低于 threshold 的前 topK 条
	Search(ctx context.Context, collection string, query []float64, topK int, threshold float64) ([]Match, error)
	// Count 集合内的记录数
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}
