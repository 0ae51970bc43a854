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

package app

import (
	"context"
	"fmt"

	"finance-assistant/internal/glossary"
	"finance-assistant/pkg/log"
)

// GlossaryService 术语表索引服务：从 YAML 文件加载词条并写入向量后端
type GlossaryService struct {
	index  *glossary.Index
	path   string
	logger *log.Logger
}

// NewGlossaryService 创建术语表索引服务；index 为 nil 表示未配置 Embedding
func NewGlossaryService(index *glossary.Index, path string, logger *log.Logger) *GlossaryService {
	return &GlossaryService{index: index, path: path, logger: log.OrDefault(logger)}
}

// Enabled 是否可用
func (s *GlossaryService) Enabled() bool {
	return s != nil && s.index != nil && s.path != ""
}

// Index 加载并索引术语表，返回写入条数
func (s *GlossaryService) Index(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, fmt.Errorf("glossary is not configured")
	}
	entries, err := glossary.LoadEntries(s.path)
	if err != nil {
		return 0, err
	}
	n, err := s.index.Build(ctx, entries)
	if err != nil {
		return 0, err
	}
	s.logger.Info("术语表已加载", "path", s.path, "entries", n)
	return n, nil
}
