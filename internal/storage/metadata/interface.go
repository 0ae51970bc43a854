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
	"time"
)

// Store 报告目录存储接口，/api/history 从这里读取
type Store interface {
	// Create 写入报告记录，ID 重复时报错
	Create(ctx context.Context, rec *ReportRecord) error
	// Get 根据 ID 获取报告记录
	Get(ctx context.Context, id string) (*ReportRecord, error)
	// Delete 根据 ID 删除报告记录
	Delete(ctx context.Context, id string) error
	// List 按创建时间倒序列出报告记录
	List(ctx context.Context, filter *Filter, pagination *Pagination) ([]*ReportRecord, error)
	// Count 统计报告数量
	Count(ctx context.Context, filter *Filter) (int64, error)
	// Close 关闭存储连接
	Close() error
}

// ReportRecord 已生成报告的目录项
type ReportRecord struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	FileName  string    `json:"file_name,omitempty"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter 过滤条件
type Filter struct {
	Company string `json:"company"` // 公司名，大小写不敏感精确匹配
}

// Pagination 分页参数
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
